package history

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/phasegate/internal/audit"
	"github.com/abhisek/phasegate/internal/engine"
	"github.com/abhisek/phasegate/internal/phase"
)

func loaded(sums ...engine.Summary) *HistoryScreen {
	s := New(nil, "ana")
	s.Update(loadedMsg{summaries: sums})
	return s
}

func TestWindow(t *testing.T) {
	tests := []struct {
		n, cursor, rows int
		from, to        int
	}{
		{n: 3, cursor: 2, rows: 10, from: 0, to: 3},
		{n: 20, cursor: 0, rows: 5, from: 0, to: 5},
		{n: 20, cursor: 10, rows: 5, from: 8, to: 13},
		{n: 20, cursor: 19, rows: 5, from: 15, to: 20},
	}
	for _, tt := range tests {
		from, to := window(tt.n, tt.cursor, tt.rows)
		if from != tt.from || to != tt.to {
			t.Errorf("window(%d, %d, %d) = [%d, %d), want [%d, %d)",
				tt.n, tt.cursor, tt.rows, from, to, tt.from, tt.to)
		}
	}
}

func TestHistory_View(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s := loaded(
		engine.Summary{LessonID: "fractions-101", Completed: true, Tier: engine.TierGold, Delta: 40, FinishedAt: at},
		engine.Summary{LessonID: "ratios-101", FinalPhase: phase.Reflect, FinishedAt: at, SuspiciousReplay: true,
			ViolationCount: 1, Violations: []audit.Violation{{Kind: audit.FocusLoss, Phase: phase.Do, At: at}}},
	)

	out := s.View(100, 24)
	for _, want := range []string{"fractions-101", "GOLD", "+40", "ratios-101", "stopped at REFLECT"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if got := s.Badge(); got != "1/2 mastered" {
		t.Errorf("Badge = %q", got)
	}

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if view := s.View(100, 24); !strings.Contains(view, "replayed content") || !strings.Contains(view, string(audit.FocusLoss)) {
		t.Error("detail panel does not follow the cursor")
	}
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if s.cursor != 1 {
		t.Errorf("cursor = %d, want it clamped at 1", s.cursor)
	}

	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if strings.Contains(s.View(100, 24), "replayed content") {
		t.Error("enter did not hide details")
	}
}

func TestHistory_EmptyAndError(t *testing.T) {
	if out := loaded().View(100, 24); !strings.Contains(out, "No lessons yet") {
		t.Errorf("empty view:\n%s", out)
	}

	s := New(nil, "ana")
	s.Update(loadedMsg{err: errors.New("disk gone")})
	if out := s.View(100, 24); !strings.Contains(out, "disk gone") {
		t.Errorf("error view:\n%s", out)
	}
	if s.Badge() != "" {
		t.Error("badge shown for a failed load")
	}
}
