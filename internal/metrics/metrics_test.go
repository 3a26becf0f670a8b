package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/abhisek/phasegate/internal/audit"
	"github.com/abhisek/phasegate/internal/engine"
	"github.com/abhisek/phasegate/internal/guard"
	"github.com/abhisek/phasegate/internal/phase"
	"github.com/abhisek/phasegate/internal/rewind"
)

func score(v float64) *float64 { return &v }

func TestObserve(t *testing.T) {
	c := New(prometheus.NewRegistry())

	c.Observe(engine.EventAdvance, engine.Outcome{Granted: true, From: phase.Sync, Phase: phase.Reflect, Score: score(90)})
	c.Observe(engine.EventAdvance, engine.Outcome{
		Reason: engine.ReasonCheckpointFailed,
		Phase:  phase.Prove,
		Score:  score(40),
		Rewind: &rewind.State{FailedPhase: phase.Prove},
	})
	c.Observe(engine.EventAnswer, engine.Outcome{
		Accepted: true,
		Phase:    phase.Know,
		LockFor:  time.Minute,
		Patterns: []guard.Pattern{guard.PatternSameAnswer},
		Violations: []audit.Violation{
			{Kind: audit.GuessingPattern, Phase: phase.Know},
		},
	})
	c.Observe(engine.EventAdvance, engine.Outcome{Reason: engine.Reason("locked-until:2026-03-02T09:00:00Z"), Phase: phase.Know})
	c.Observe(engine.EventAdvance, engine.Outcome{
		Granted:    true,
		Phase:      phase.Master,
		Score:      score(100),
		Completion: &engine.Completion{Tier: engine.TierGold, Elapsed: 20 * time.Minute},
	})

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"advance granted", testutil.ToFloat64(c.events.WithLabelValues("advance", "granted")), 2},
		{"advance refused", testutil.ToFloat64(c.events.WithLabelValues("advance", "refused")), 2},
		{"answer accepted", testutil.ToFloat64(c.events.WithLabelValues("answer", "accepted")), 1},
		{"locked refusal uses code", testutil.ToFloat64(c.refusals.WithLabelValues("locked-until")), 1},
		{"transition", testutil.ToFloat64(c.transitions.WithLabelValues("SYNC", "REFLECT")), 1},
		{"violation", testutil.ToFloat64(c.violations.WithLabelValues("guessing-pattern")), 1},
		{"pattern", testutil.ToFloat64(c.patterns.WithLabelValues("same_answer")), 1},
		{"rewind", testutil.ToFloat64(c.rewinds.WithLabelValues("PROVE")), 1},
		{"completion", testutil.ToFloat64(c.completions.WithLabelValues("gold")), 1},
	}
	for _, tt := range checks {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if n := testutil.CollectAndCount(c.checkpoint); n != 3 {
		t.Errorf("checkpoint series = %d, want 3 (SYNC, PROVE, MASTER)", n)
	}
}

func TestActiveSessions(t *testing.T) {
	c := New(prometheus.NewRegistry())
	c.SessionOpened()
	c.SessionOpened()
	c.SessionClosed()
	if got := testutil.ToFloat64(c.activeSessions); got != 1 {
		t.Errorf("active sessions = %v, want 1", got)
	}
}
