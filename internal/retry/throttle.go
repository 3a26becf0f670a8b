package retry

import "time"

// Cooldown returns the wait required before the given attempt number may
// start, measured from the start of the previous retry.
func Cooldown(attempt int) time.Duration {
	switch {
	case attempt <= 1:
		return 0
	case attempt == 2:
		return 5 * time.Minute
	case attempt == 3:
		return 15 * time.Minute
	case attempt == 4:
		return 30 * time.Minute
	default:
		return 60 * time.Minute
	}
}

// State tracks retries of failed checkpoints for one lesson. Attempts only
// ever grows.
type State struct {
	Attempts    int        `json:"attempts"`
	LastStartAt *time.Time `json:"last_start_at,omitempty"`
}

// NextAttempt is the attempt number the next retry would have.
func (s *State) NextAttempt() int {
	return s.Attempts + 1
}

// Wait returns how long until the next retry is permitted (zero if now).
func (s *State) Wait(now time.Time) time.Duration {
	if s.LastStartAt == nil {
		return Cooldown(s.NextAttempt())
	}
	remaining := Cooldown(s.NextAttempt()) - now.Sub(*s.LastStartAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Permitted reports whether a retry may start at now.
func (s *State) Permitted(now time.Time) bool {
	return s.Wait(now) == 0
}

// Resetter is implemented by per-attempt state that a retry clears.
type Resetter interface {
	ResetAttempt()
}

// Start begins a retry if permitted, clearing per-attempt state on every
// resetter. It returns false and the remaining wait otherwise.
func (s *State) Start(now time.Time, resetters ...Resetter) (bool, time.Duration) {
	if wait := s.Wait(now); wait > 0 {
		return false, wait
	}
	s.Attempts++
	t := now
	s.LastStartAt = &t
	for _, r := range resetters {
		r.ResetAttempt()
	}
	return true, 0
}
