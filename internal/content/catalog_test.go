package content

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/phasegate/internal/guard"
	"github.com/abhisek/phasegate/internal/phase"
	"github.com/abhisek/phasegate/internal/signal"
)

func TestBuiltin(t *testing.T) {
	c, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin() error: %v", err)
	}
	if len(c.Lessons()) < 2 {
		t.Fatalf("got %d lessons", len(c.Lessons()))
	}
	l, err := c.Lesson("fractions-101")
	if err != nil {
		t.Fatalf("Lesson: %v", err)
	}
	if len(l.PostItems()) != len(l.Pre) {
		t.Error("post items should default to pre items")
	}
	if got := l.Pre[2].QuestionKind(); got != guard.KindFillIn {
		t.Errorf("QuestionKind = %s", got)
	}
	if got := l.Pre[2].SignalDimension(); got != signal.Procedural {
		t.Errorf("SignalDimension = %s", got)
	}
	if got := l.Pre[0].SignalDimension(); got != signal.Cognitive {
		t.Errorf("default SignalDimension = %s", got)
	}
}

func TestLesson_Unknown(t *testing.T) {
	c, err := Builtin()
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Lesson("nope")
	var unknown *ErrUnknownLesson
	if !errors.As(err, &unknown) || unknown.ID != "nope" {
		t.Errorf("err = %v, want *ErrUnknownLesson", err)
	}
}

func TestLesson_PhaseTable(t *testing.T) {
	c, _ := Builtin()
	l, _ := c.Lesson("photosynthesis")
	tbl, err := l.PhaseTable(phase.DefaultTable())
	if err != nil {
		t.Fatal(err)
	}
	if got := tbl.Get(phase.Prove).Condition.Threshold; got != 75 {
		t.Errorf("PROVE threshold = %v, want 75", got)
	}
	if got := tbl.Get(phase.Link).Condition.MinDwell; got != 30*time.Second {
		t.Errorf("LINK dwell = %v, want 30s", got)
	}
	if got := phase.DefaultTable().Get(phase.Prove).Condition.Threshold; got != 80 {
		t.Errorf("default table mutated: %v", got)
	}
}

func TestLesson_Items(t *testing.T) {
	c, _ := Builtin()
	l, _ := c.Lesson("fractions-101")
	if len(l.Items(phase.Know)) != 4 || len(l.Items(phase.Master)) != 3 {
		t.Errorf("Items: know=%d master=%d", len(l.Items(phase.Know)), len(l.Items(phase.Master)))
	}
	if l.Items(phase.Do) != nil {
		t.Error("DO has no quiz items")
	}
}

const minimalLesson = `{
  "id": "a",
  "title": "A",
  "pre": [{"prompt": "q", "options": ["x", "y"], "correct": 0}],
  "video": {"duration_seconds": 10},
  "matching": [{"left": "a", "right": "b"}, {"left": "c", "right": "d"}],
  "reflection": {"prompt": "why", "keywords": ["k"]},
  "mastery": [{"prompt": "q", "options": ["x", "y"], "correct": %s}]
}`

func TestParse_Errors(t *testing.T) {
	lesson := func(correct string) string {
		return strings.Replace(minimalLesson, "%s", correct, 1)
	}
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "not json",
			doc:  `{`,
			want: "invalid JSON",
		},
		{
			name: "missing lessons",
			doc:  `{"format_version": "1.0.0"}`,
			want: "schema validation failed",
		},
		{
			name: "unsupported major",
			doc:  `{"format_version": "2.1.0", "lessons": [` + lesson("1") + `]}`,
			want: "unsupported format_version",
		},
		{
			name: "correct out of range",
			doc:  `{"format_version": "1.2", "lessons": [` + lesson("5") + `]}`,
			want: "out of range",
		},
		{
			name: "duplicate id",
			doc:  `{"format_version": "v1.0.0", "lessons": [` + lesson("0") + `,` + lesson("1") + `]}`,
			want: "duplicate lesson ID",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestParse_ShortVersion(t *testing.T) {
	doc := `{"format_version": "1.2", "lessons": [` + strings.Replace(minimalLesson, "%s", "1", 1) + `]}`
	c, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Version() != "1.2" {
		t.Errorf("Version = %q", c.Version())
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	if err := os.WriteFile(path, builtinCatalog, 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := c.Lesson("photosynthesis"); err != nil {
		t.Error(err)
	}
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
