package cmd

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfig_FlagOverrides(t *testing.T) {
	t.Setenv("PHASEGATE_DB", "")
	t.Setenv("PHASEGATE_LOG_LEVEL", "")

	dir := t.TempDir()
	db := filepath.Join(dir, "nested", "phasegate.db")
	if err := rootCmd.ParseFlags([]string{"--db", db, "--log-level", "debug"}); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		rootCmd.ParseFlags([]string{"--db=", "--log-level="})
	})

	cfg, err := loadConfig(rootCmd)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Store.Path != db {
		t.Errorf("Store.Path = %q, want %q", cfg.Store.Path, db)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}

	got, err := resolveDBPath(cfg)
	if err != nil {
		t.Fatalf("resolveDBPath: %v", err)
	}
	if got != db {
		t.Errorf("resolveDBPath = %q, want %q", got, db)
	}
}

func TestLoadCatalog_Builtin(t *testing.T) {
	c, err := loadCatalog("")
	if err != nil {
		t.Fatalf("loadCatalog: %v", err)
	}
	if len(c.Lessons()) == 0 {
		t.Error("builtin catalog is empty")
	}
}

func TestBar(t *testing.T) {
	tests := []struct {
		v    int
		want string
	}{
		{0, "░░░░"},
		{50, "██░░"},
		{100, "████"},
	}
	for _, tt := range tests {
		if got := bar(tt.v, 4); got != tt.want {
			t.Errorf("bar(%d) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"fractions-101", 20, "fractions-101"},
		{"fractions-101", 9, "fraction…"},
		{"ab", 1, "a"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestNewTable(t *testing.T) {
	out := newTable([]string{"Lesson", "Calls"}, 1).
		Row("fractions-101", "7").
		Row("ratios", "12").
		Render()

	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		t.Fatalf("rendered %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "Lesson") || !strings.Contains(lines[1], "─") {
		t.Errorf("header not ruled:\n%s", out)
	}
	// Right-aligned counts end in the same column.
	if strings.Index(lines[2], "7") != strings.Index(lines[3], "12")+1 {
		t.Errorf("calls column not right-aligned:\n%s", out)
	}
}
