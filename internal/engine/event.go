package engine

import (
	"math"
	"strings"
	"time"

	"github.com/abhisek/phasegate/internal/audit"
	"github.com/abhisek/phasegate/internal/guard"
	"github.com/abhisek/phasegate/internal/phase"
	"github.com/abhisek/phasegate/internal/rewind"
	"github.com/abhisek/phasegate/internal/signal"
)

// EventKind identifies an external event delivered to the machine.
type EventKind string

const (
	EventAdvance    EventKind = "advance"
	EventAnswer     EventKind = "answer"
	EventMatch      EventKind = "match"
	EventReflection EventKind = "reflection"
	EventWatch      EventKind = "watch"
	EventVisibility EventKind = "visibility"
	EventTick       EventKind = "tick"
)

// Event is one input to Evaluate. Only the fields of its kind are read.
type Event struct {
	Kind EventKind
	At   time.Time

	// EventAnswer
	Option int
	// ClientLatency is the think time the client measured. It is stored on
	// the answer for review; guarding and auditing use the engine clock.
	ClientLatency time.Duration

	// EventMatch: Matches[i] is the pair index chosen for left item i.
	Matches []int

	// EventReflection: the grader has already scored Text.
	Text  string
	Score float64

	// EventWatch: percentage 0-100.
	Watched float64

	// EventVisibility
	Hidden bool
}

// Reason is a structured, displayable refusal code. Lock refusals carry the
// expiry as "locked-until:<RFC3339>".
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonLocked           Reason = "locked-until"
	ReasonRewindActive     Reason = "rewind-active"
	ReasonRetryCooldown    Reason = "retry-cooldown"
	ReasonWatch            Reason = "insufficient-watch-fraction"
	ReasonDwell            Reason = "insufficient-dwell"
	ReasonItems            Reason = "incomplete-items"
	ReasonCheckpointFailed Reason = "checkpoint-failed"
	ReasonComplete         Reason = "lesson-complete"
	ReasonTooFast          Reason = "too-fast"
	ReasonWrongPhase       Reason = "wrong-phase"
	ReasonNoPendingItem    Reason = "no-pending-item"
	ReasonInvalidInput     Reason = "invalid-input"
)

func lockedUntil(t time.Time) Reason {
	return Reason(string(ReasonLocked) + ":" + t.UTC().Format(time.RFC3339))
}

// Code returns the reason without its argument.
func (r Reason) Code() Reason {
	code, _, _ := strings.Cut(string(r), ":")
	return Reason(code)
}

// Message returns learner-facing text for the reason.
func (r Reason) Message() string {
	switch r.Code() {
	case ReasonNone:
		return ""
	case ReasonLocked:
		return "Answers are locked for a moment. Take a breath and re-read the question."
	case ReasonRewindActive:
		return "Let's pause before reviewing the lesson again."
	case ReasonRetryCooldown:
		return "You can retry the checkpoint soon."
	case ReasonWatch:
		return "Keep watching the lesson video to continue."
	case ReasonDwell:
		return "Take a little more time with the overview."
	case ReasonItems:
		return "Finish every item before moving on."
	case ReasonCheckpointFailed:
		return "Not quite there yet. Let's review the material."
	case ReasonComplete:
		return "This lesson is complete."
	case ReasonTooFast:
		return "Slow down and think it through."
	case ReasonWrongPhase:
		return "That action is not available in this step."
	case ReasonNoPendingItem:
		return "There is nothing left to answer here."
	case ReasonInvalidInput:
		return "That answer could not be read."
	default:
		return string(r)
	}
}

// Notice is a material signal surfaced to the learner without blocking.
type Notice struct {
	Dimension signal.Dimension `json:"dimension"`
	Magnitude int              `json:"magnitude"`
	Action    string           `json:"action"`
}

// Outcome is the result of evaluating one event.
type Outcome struct {
	// Granted is set when an advance request moved the phase pointer.
	Granted bool
	// Accepted is set when a submission or report was taken.
	Accepted bool

	Reason Reason
	// Wait is the time left on the timer behind Reason, if any.
	Wait time.Duration

	Phase phase.ID
	// From is the phase before the event when it changed.
	From phase.ID

	Correct       *bool
	LockFor       time.Duration
	Warning       bool
	Hint          bool
	SuggestReview bool
	Patterns      []guard.Pattern

	// Score is the measured checkpoint or submission score.
	Score *float64

	// Rewind is set when this event opened a rewind.
	Rewind *rewind.State
	// Remediation is set when a rewind cooldown elapsed and DO reopened.
	Remediation bool
	// Returned is set when remediation handed control back to a checkpoint.
	Returned bool

	Violations []audit.Violation
	Signals    []signal.Signal
	Notices    []Notice

	Completion *Completion
}

// WaitSeconds rounds Wait up to whole seconds.
func (o Outcome) WaitSeconds() int {
	return ceilSeconds(o.Wait)
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
