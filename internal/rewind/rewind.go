package rewind

import (
	"fmt"
	"time"

	"github.com/abhisek/phasegate/internal/phase"
)

const (
	// BaseWatch is the watch requirement on the first rewind.
	BaseWatch = 50.0

	// WatchStep is added to the requirement for every further rewind.
	WatchStep = 10.0

	// MaxWatch caps the watch requirement.
	MaxWatch = 80.0
)

// RequiredWatch returns the watch percentage demanded after the given
// rewind attempt: min(80, 50 + (attempt-1)*10).
func RequiredWatch(attempt int) float64 {
	if attempt < 1 {
		attempt = 1
	}
	return min(MaxWatch, BaseWatch+float64(attempt-1)*WatchStep)
}

// Cooldowns maps a failed checkpoint to the time the learner waits before
// the content review reopens.
type Cooldowns map[phase.ID]time.Duration

// DefaultCooldowns returns the stock cooldown table.
func DefaultCooldowns() Cooldowns {
	return Cooldowns{
		phase.Sync:    30 * time.Second,
		phase.Reflect: 30 * time.Second,
		phase.Prove:   60 * time.Second,
		phase.Master:  60 * time.Second,
	}
}

// For returns the cooldown for a failed phase, falling back to the stock
// table for phases missing from c.
func (c Cooldowns) For(id phase.ID) time.Duration {
	if d, ok := c[id]; ok {
		return d
	}
	return DefaultCooldowns()[id]
}

// State exists only while a checkpoint failure is being remediated.
type State struct {
	FailedPhase   phase.ID  `json:"failed_phase"`
	Attempt       int       `json:"attempt"`
	Score         float64   `json:"score"`
	Required      float64   `json:"required"`
	CooldownUntil time.Time `json:"cooldown_until"`
	RequiredWatch float64   `json:"required_watch"`
}

// Remaining returns the cooldown left at now (zero once elapsed).
func (s *State) Remaining(now time.Time) time.Duration {
	if s == nil || !now.Before(s.CooldownUntil) {
		return 0
	}
	return s.CooldownUntil.Sub(now)
}

// Expired reports whether the cooldown has elapsed at now.
func (s *State) Expired(now time.Time) bool {
	return s.Remaining(now) == 0
}

// Trigger opens a rewind for a failed checkpoint. prevAttempts is the number
// of rewinds already run in the lesson.
func Trigger(c Cooldowns, failed phase.ID, score, required float64, prevAttempts int, now time.Time) (*State, error) {
	if !failed.IsCheckpoint() {
		return nil, fmt.Errorf("rewind from %s: not a checkpoint", failed)
	}
	attempt := prevAttempts + 1
	return &State{
		FailedPhase:   failed,
		Attempt:       attempt,
		Score:         score,
		Required:      required,
		CooldownUntil: now.Add(c.For(failed)),
		RequiredWatch: RequiredWatch(attempt),
	}, nil
}
