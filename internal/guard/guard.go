package guard

import (
	"time"
)

// Answer is one accepted response as seen by the guard.
type Answer struct {
	Option  int           `json:"option"`
	Correct bool          `json:"correct"`
	Latency time.Duration `json:"latency"`
	At      time.Time     `json:"at"`
}

// State is the per-session guard state. It is owned by the learner session
// and mutated only through the functions in this package.
type State struct {
	WrongStreak int      `json:"wrong_streak"`
	History     []Answer `json:"history,omitempty"`

	LockUntil *time.Time `json:"lock_until,omitempty"`
	LockCause string     `json:"lock_cause,omitempty"`

	HintDisclosed bool `json:"hint_disclosed,omitempty"`
	SuggestReview bool `json:"suggest_review,omitempty"`
}

// Locked reports whether a lock is in force at now.
func (s *State) Locked(now time.Time) bool {
	return s.LockUntil != nil && now.Before(*s.LockUntil)
}

// Remaining returns how long the current lock still lasts (zero if none).
func (s *State) Remaining(now time.Time) time.Duration {
	if !s.Locked(now) {
		return 0
	}
	return s.LockUntil.Sub(now)
}

// ResetAttempt clears the wrong streak and per-attempt history. Locks
// already in force are kept.
func (s *State) ResetAttempt() {
	s.WrongStreak = 0
	s.History = nil
}

// Admission is the result of checking whether a submission may be scored.
type Admission struct {
	Allowed bool
	Locked  bool
	TooFast bool

	// Wait is the remaining lock or think time when not allowed.
	Wait time.Duration
}

// Admit checks the lock and the minimum think time for a question of kind
// that was shown at shownAt. A rejected submission leaves the state untouched.
func Admit(s *State, kind QuestionKind, shownAt, now time.Time) Admission {
	if s.Locked(now) {
		return Admission{Locked: true, Wait: s.Remaining(now)}
	}
	need := MinThinkTime(kind)
	if elapsed := now.Sub(shownAt); elapsed < need {
		return Admission{TooFast: true, Wait: need - elapsed}
	}
	return Admission{Allowed: true}
}

// Verdict is the outcome of recording an accepted answer.
type Verdict struct {
	Streak   int
	Penalty  Penalty
	Patterns []Pattern

	// LockFor is the lock imposed by this evaluation (zero if none).
	LockFor time.Duration
}

// Record appends an accepted answer, applies the wrong-streak table and
// runs pattern detection over the full history. Every matching pattern is
// reported on every answer; the evaluation imposes one lock, the longest.
func Record(s *State, a Answer, now time.Time) Verdict {
	s.History = append(s.History, a)

	if a.Correct {
		s.WrongStreak = 0
	} else {
		s.WrongStreak++
	}

	v := Verdict{Streak: s.WrongStreak}
	if !a.Correct {
		v.Penalty = StreakPenalty(s.WrongStreak)
	}
	if v.Penalty.Hint {
		s.HintDisclosed = true
	}
	if v.Penalty.SuggestReview {
		s.SuggestReview = true
	}

	v.Patterns = DetectPatterns(s.History)

	cause := ""
	if v.Penalty.Lock > 0 {
		v.LockFor = v.Penalty.Lock
		cause = "wrong-streak"
	}
	if len(v.Patterns) > 0 && PatternLock > v.LockFor {
		v.LockFor = PatternLock
		cause = "pattern:" + string(v.Patterns[0])
	}
	if v.LockFor > 0 {
		s.lock(now.Add(v.LockFor), cause)
	}
	return v
}

// lock extends the lock to until. An existing later expiry is kept.
func (s *State) lock(until time.Time, cause string) {
	if s.LockUntil != nil && s.LockUntil.After(until) {
		return
	}
	s.LockUntil = &until
	s.LockCause = cause
}

// DetectPatterns inspects an answer history for guessing signatures.
func DetectPatterns(history []Answer) []Pattern {
	var out []Pattern
	if sameAnswerRun(history) {
		out = append(out, PatternSameAnswer)
	}
	if cyclicRepeat(history) {
		out = append(out, PatternCyclic)
	}
	if uniformTiming(history) {
		out = append(out, PatternUniformTiming)
	}
	return out
}

func sameAnswerRun(history []Answer) bool {
	if len(history) < sameAnswerWindow {
		return false
	}
	tail := history[len(history)-sameAnswerWindow:]
	for _, a := range tail[1:] {
		if a.Option != tail[0].Option {
			return false
		}
	}
	return true
}

// cyclicRepeat compares the four answers before the most recent four with
// the most recent four, element for element.
func cyclicRepeat(history []Answer) bool {
	n := len(history)
	if n < 2*cyclicWindow {
		return false
	}
	prev := history[n-2*cyclicWindow : n-cyclicWindow]
	last := history[n-cyclicWindow:]
	for i := range last {
		if prev[i].Option != last[i].Option {
			return false
		}
	}
	return true
}

func uniformTiming(history []Answer) bool {
	if len(history) < timingWindow {
		return false
	}
	tail := history[len(history)-timingWindow:]
	var sum time.Duration
	for _, a := range tail {
		sum += a.Latency
	}
	mean := sum / time.Duration(len(tail))
	for _, a := range tail {
		d := a.Latency - mean
		if d < 0 {
			d = -d
		}
		if d > timingTolerance {
			return false
		}
	}
	return true
}
