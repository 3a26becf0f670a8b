package engine

import (
	"time"

	"github.com/abhisek/phasegate/internal/audit"
	"github.com/abhisek/phasegate/internal/phase"
	"github.com/abhisek/phasegate/internal/signal"
)

// Tier is the achievement level awarded on completion.
type Tier string

const (
	TierGold   Tier = "gold"
	TierSilver Tier = "silver"
	TierBronze Tier = "bronze"
)

// TierFor derives the tier from the post-assessment score and the
// improvement over the pre-assessment.
func TierFor(post, delta float64) Tier {
	switch {
	case post >= 90 && delta >= 20:
		return TierGold
	case post >= 80:
		return TierSilver
	default:
		return TierBronze
	}
}

// Completion is emitted when MASTER is passed.
type Completion struct {
	Pre              float64       `json:"pre"`
	Post             float64       `json:"post"`
	Delta            float64       `json:"delta"`
	Elapsed          time.Duration `json:"elapsed"`
	Tier             Tier          `json:"tier"`
	SuspiciousReplay bool          `json:"suspicious_replay,omitempty"`
	At               time.Time     `json:"at"`
}

// Summary is the immutable end-of-lesson record handed to persistence.
type Summary struct {
	SessionID        string            `json:"session_id"`
	LearnerID        string            `json:"learner_id"`
	LessonID         string            `json:"lesson_id"`
	Completed        bool              `json:"completed"`
	FinalPhase       phase.ID          `json:"final_phase"`
	Pre              float64           `json:"pre"`
	Post             float64           `json:"post"`
	Delta            float64           `json:"delta"`
	Elapsed          time.Duration     `json:"elapsed"`
	Tier             Tier              `json:"tier,omitempty"`
	RewindAttempts   int               `json:"rewind_attempts"`
	SuspiciousReplay bool              `json:"suspicious_replay,omitempty"`
	ViolationCount   int               `json:"violation_count"`
	Violations       []audit.Violation `json:"violations,omitempty"`
	Profile          signal.Profile    `json:"profile"`
	FinishedAt       time.Time         `json:"finished_at"`
}

// Summary builds the end-of-lesson record. For an unfinished lesson the
// scores cover whatever was answered and no tier is awarded.
func (m *Machine) Summary(s *Session, history []signal.Profile, now time.Time) Summary {
	sum := Summary{
		SessionID:        s.ID,
		LearnerID:        s.LearnerID,
		LessonID:         s.LessonID,
		Completed:        s.Completed(),
		FinalPhase:       s.Phase,
		RewindAttempts:   s.RewindAttempts,
		SuspiciousReplay: s.SuspiciousReplay,
		ViolationCount:   len(s.Violations),
		Violations:       append([]audit.Violation(nil), s.Violations...),
		Profile:          signal.ComputeProfile(history, s.Signals),
		FinishedAt:       now,
	}
	if c := s.Completion; c != nil {
		sum.Pre, sum.Post, sum.Delta = c.Pre, c.Post, c.Delta
		sum.Elapsed = c.Elapsed
		sum.Tier = c.Tier
		sum.FinishedAt = c.At
		return sum
	}
	sum.Pre = audit.Score(s.Pre, len(m.lesson.Pre))
	sum.Post = audit.Score(s.Post, len(m.lesson.PostItems()))
	sum.Delta = sum.Post - sum.Pre
	sum.Elapsed = now.Sub(s.LessonEnteredAt)
	return sum
}

// Status is the queryable view of a session.
type Status struct {
	Phase                  phase.ID `json:"phase"`
	PhaseName              string   `json:"phase_name"`
	Locked                 bool     `json:"locked"`
	LockSecondsRemaining   int      `json:"lock_seconds_remaining"`
	RewindActive           bool     `json:"rewind_active"`
	RewindSecondsRemaining int      `json:"rewind_seconds_remaining"`
	Remediating            bool     `json:"remediating"`
	ReturnPhase            phase.ID `json:"return_phase,omitempty"`
	RequiredWatchFraction  float64  `json:"required_watch_fraction"`
	Watched                float64  `json:"watched"`
	RetryAttempts          int      `json:"retry_attempts"`
	RetrySecondsRemaining  int      `json:"retry_seconds_remaining"`
	RewindAttempts         int      `json:"rewind_attempts"`
	WrongStreak            int      `json:"wrong_streak"`
	HintDisclosed          bool     `json:"hint_disclosed"`
	SuggestReview          bool     `json:"suggest_review"`
	Answered               int      `json:"answered"`
	Items                  int      `json:"items"`
	Completed              bool     `json:"completed"`
}

// Status settles time-bounded states and reports the session view.
func (m *Machine) Status(s *Session, now time.Time) Status {
	var o Outcome
	m.settle(s, now, &o)

	st := Status{
		Phase:                 s.Phase,
		PhaseName:             m.rules.Phases.Get(s.Phase).Name,
		Locked:                s.Guard.Locked(now),
		LockSecondsRemaining:  ceilSeconds(s.Guard.Remaining(now)),
		RewindActive:          s.Rewind != nil,
		Remediating:           s.Remediating(),
		ReturnPhase:           s.ReturnPhase,
		RequiredWatchFraction: s.RequiredWatch,
		Watched:               s.Watched,
		RetryAttempts:         s.Retry.Attempts,
		RewindAttempts:        s.RewindAttempts,
		WrongStreak:           s.Guard.WrongStreak,
		HintDisclosed:         s.Guard.HintDisclosed,
		SuggestReview:         s.Guard.SuggestReview,
		Answered:              len(s.Answers(s.Phase)),
		Items:                 len(m.lesson.Items(s.Phase)),
		Completed:             s.Completed(),
	}
	if s.Rewind != nil {
		st.RewindSecondsRemaining = ceilSeconds(s.Rewind.Remaining(now))
	}
	if s.Remediating() {
		st.RetrySecondsRemaining = ceilSeconds(s.Retry.Wait(now))
	}
	return st
}
