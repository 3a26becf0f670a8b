package audit

import (
	"strings"
	"testing"
	"time"

	"github.com/abhisek/phasegate/internal/guard"
	"github.com/abhisek/phasegate/internal/phase"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func answers(selected []int, correct []bool, latency time.Duration) []AnswerRecord {
	out := make([]AnswerRecord, len(selected))
	for i := range selected {
		out[i] = AnswerRecord{
			Question: i,
			Selected: selected[i],
			Correct:  correct[i],
			Latency:  latency,
			Kind:     guard.KindShortChoice,
		}
	}
	return out
}

func TestCheckExit_LinkDwell(t *testing.T) {
	link := phase.DefaultTable().Get(phase.Link)

	r := CheckExit(Exit{Phase: link, At: t0, Dwell: 12 * time.Second})
	if !r.Blocked() || r.Cause != CauseDwell {
		t.Fatalf("Cause = %q, want insufficient-dwell", r.Cause)
	}
	if r.Wait != 8*time.Second {
		t.Errorf("Wait = %v, want 8s", r.Wait)
	}
	if len(r.Violations) != 1 || r.Violations[0].Kind != InsufficientDwell {
		t.Errorf("Violations = %v", r.Violations)
	}

	r = CheckExit(Exit{Phase: link, At: t0, Dwell: 20 * time.Second})
	if r.Blocked() {
		t.Errorf("dwell at minimum blocked: %q", r.Cause)
	}
}

func TestCheckExit_Watch(t *testing.T) {
	do := phase.DefaultTable().Get(phase.Do)

	tests := []struct {
		name     string
		watched  float64
		required float64
		blocked  bool
	}{
		{"below default", 49, 0, true},
		{"at default", 50, 0, false},
		{"below elevated", 65, 70, true},
		{"at elevated", 70, 70, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := CheckExit(Exit{Phase: do, At: t0, Watched: tt.watched, RequiredWatch: tt.required})
			if r.Blocked() != tt.blocked {
				t.Fatalf("Blocked = %v, want %v", r.Blocked(), tt.blocked)
			}
			if tt.blocked && (r.Cause != CauseWatch || r.Violations[0].Kind != IncompleteWatch) {
				t.Errorf("got cause %q violations %v", r.Cause, r.Violations)
			}
		})
	}
}

func TestCheckExit_IncompleteItems(t *testing.T) {
	know := phase.DefaultTable().Get(phase.Know)
	r := CheckExit(Exit{
		Phase:   know,
		At:      t0,
		Answers: answers([]int{0, 1}, []bool{true, false}, 5*time.Second),
		Items:   4,
	})
	if r.Cause != CauseItems || r.Shortfall != 2 {
		t.Errorf("Cause = %q Shortfall = %v, want incomplete-items 2", r.Cause, r.Shortfall)
	}
}

func TestCheckExit_RushedAggregated(t *testing.T) {
	prove := phase.DefaultTable().Get(phase.Prove)
	as := answers([]int{0, 1, 2, 3}, []bool{true, true, true, true}, 5*time.Second)
	as[1].Latency = time.Second
	as[3].Latency = 2 * time.Second

	r := CheckExit(Exit{Phase: prove, At: t0, Answers: as, Items: 4})
	if r.Blocked() {
		t.Fatalf("rushed answers must not block: %q", r.Cause)
	}
	if len(r.Violations) != 1 {
		t.Fatalf("got %d violations, want 1 aggregated", len(r.Violations))
	}
	v := r.Violations[0]
	if v.Kind != RushedAnswer || !strings.HasPrefix(v.Detail, "2 of 4") {
		t.Errorf("violation = %v", v)
	}
}

func TestCheckExit_MasterNotAuditedForRush(t *testing.T) {
	master := phase.DefaultTable().Get(phase.Master)
	as := answers([]int{0}, []bool{true}, time.Second)
	r := CheckExit(Exit{Phase: master, At: t0, Answers: as, Items: 1})
	if len(r.Violations) != 0 {
		t.Errorf("Violations = %v, want none", r.Violations)
	}
}

func TestCompareReplay(t *testing.T) {
	pre := answers([]int{0, 2, 1, 3}, []bool{false, true, false, true}, 5*time.Second)

	tests := []struct {
		name       string
		post       []AnswerRecord
		suspicious bool
		fraction   float64
	}{
		{
			name:       "identical and all correct",
			post:       answers([]int{0, 2, 1, 3}, []bool{true, true, true, true}, 9*time.Second),
			suspicious: true,
			fraction:   100,
		},
		{
			name:       "identical but partially wrong",
			post:       answers([]int{0, 2, 1, 3}, []bool{true, true, false, true}, 5*time.Second),
			suspicious: false,
			fraction:   100,
		},
		{
			name:       "one changed",
			post:       answers([]int{0, 2, 2, 3}, []bool{true, true, true, true}, 5*time.Second),
			suspicious: false,
			fraction:   75,
		},
		{
			name:       "empty post",
			post:       nil,
			suspicious: false,
			fraction:   0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := CompareReplay(pre, tt.post)
			if r.Suspicious != tt.suspicious {
				t.Errorf("Suspicious = %v, want %v", r.Suspicious, tt.suspicious)
			}
			if r.Fraction() != tt.fraction {
				t.Errorf("Fraction = %v, want %v", r.Fraction(), tt.fraction)
			}
		})
	}
}

func TestReplayViolation(t *testing.T) {
	r := Replay{Identical: 3, Compared: 3, AllCorrect: true, Suspicious: true}
	v := ReplayViolation(r, t0)
	if v.Kind != SuspiciousReplay || v.Phase != phase.Prove || v.Kind.Blocking() {
		t.Errorf("violation = %+v", v)
	}
}

func TestDisciplineMagnitude(t *testing.T) {
	tests := []struct {
		violations int
		want       int
	}{
		{0, 100},
		{1, 30},
		{2, 10},
		{3, 0},
		{7, 0},
	}
	for _, tt := range tests {
		if got := DisciplineMagnitude(tt.violations); got != tt.want {
			t.Errorf("DisciplineMagnitude(%d) = %d, want %d", tt.violations, got, tt.want)
		}
	}
}

func TestFocusLossViolation(t *testing.T) {
	v, ok := FocusLossViolation(phase.Do, 2, t0)
	if !ok || v.Kind != FocusLoss || v.Detail != "tab switch 2" {
		t.Errorf("got %+v, %v", v, ok)
	}
	if _, ok := FocusLossViolation(phase.Sync, 1, t0); ok {
		t.Error("focus loss outside DO should not be recorded")
	}
}

func TestScore(t *testing.T) {
	as := answers([]int{0, 1, 2}, []bool{true, false, true}, time.Second)
	if got := Score(as, 5); got != 40 {
		t.Errorf("Score = %v, want 40", got)
	}
	if got := Score(nil, 0); got != 0 {
		t.Errorf("Score(nil, 0) = %v", got)
	}
}
