package audit

import (
	"fmt"
	"time"

	"github.com/abhisek/phasegate/internal/guard"
	"github.com/abhisek/phasegate/internal/phase"
)

// Cause names the rule that blocks a phase exit.
type Cause string

const (
	CauseNone  Cause = ""
	CauseDwell Cause = "insufficient-dwell"
	CauseWatch Cause = "insufficient-watch-fraction"
	CauseItems Cause = "incomplete-items"
)

// Exit is everything the auditor needs to judge a phase-exit attempt.
type Exit struct {
	Phase phase.Phase
	At    time.Time

	// Dwell is the time spent in the phase during this visit.
	Dwell time.Duration

	// Watched and RequiredWatch are percentages. RequiredWatch overrides the
	// phase threshold when positive (rewind-elevated requirement).
	Watched       float64
	RequiredWatch float64

	Answers []AnswerRecord
	Items   int
}

// Result is the auditor's judgement of an exit attempt.
type Result struct {
	Cause Cause

	// Wait is the remaining dwell for CauseDwell.
	Wait time.Duration

	// Shortfall is the missing percentage for CauseWatch or the number of
	// unanswered items for CauseItems.
	Shortfall float64

	Violations []Violation
}

// Blocked reports whether the exit must be refused.
func (r Result) Blocked() bool {
	return r.Cause != CauseNone
}

// CheckExit evaluates the completion rules of the phase. Score gates of
// checkpoint phases are judged by the caller.
func CheckExit(e Exit) Result {
	var r Result

	switch e.Phase.Condition.Kind {
	case phase.AcknowledgeDwell:
		if e.Dwell < e.Phase.Condition.MinDwell {
			r.Cause = CauseDwell
			r.Wait = e.Phase.Condition.MinDwell - e.Dwell
			r.Violations = append(r.Violations, Violation{
				Kind:   InsufficientDwell,
				Phase:  e.Phase.ID,
				At:     e.At,
				Detail: fmt.Sprintf("dwell %s of %s", e.Dwell.Round(time.Second), e.Phase.Condition.MinDwell),
			})
		}
	case phase.WatchFraction:
		need := e.Phase.Condition.Threshold
		if e.RequiredWatch > 0 {
			need = e.RequiredWatch
		}
		if e.Watched < need {
			r.Cause = CauseWatch
			r.Shortfall = need - e.Watched
			r.Violations = append(r.Violations, Violation{
				Kind:   IncompleteWatch,
				Phase:  e.Phase.ID,
				At:     e.At,
				Detail: fmt.Sprintf("watched %.0f%% of required %.0f%%", e.Watched, need),
			})
		}
	}

	if e.Phase.ID.IsAssessment() || e.Phase.Condition.Kind == phase.CompleteAllItems {
		if missing := e.Items - len(e.Answers); missing > 0 && r.Cause == CauseNone {
			r.Cause = CauseItems
			r.Shortfall = float64(missing)
		}
	}

	if e.Phase.ID == phase.Know || e.Phase.ID == phase.Prove {
		if v, ok := Rushed(e.Phase.ID, e.Answers, e.At); ok {
			r.Violations = append(r.Violations, v)
		}
	}
	return r
}

// Rushed aggregates answers whose latency falls below the minimum think time
// for their kind into a single violation.
func Rushed(id phase.ID, answers []AnswerRecord, at time.Time) (Violation, bool) {
	n := 0
	for _, a := range answers {
		if a.Latency < guard.MinThinkTime(a.Kind) {
			n++
		}
	}
	if n == 0 {
		return Violation{}, false
	}
	return Violation{
		Kind:   RushedAnswer,
		Phase:  id,
		At:     at,
		Detail: fmt.Sprintf("%d of %d answers below minimum think time", n, len(answers)),
	}, true
}

// Replay is the result of comparing post-assessment answers with the
// pre-assessment.
type Replay struct {
	Identical  int
	Compared   int
	AllCorrect bool
	Suspicious bool
}

// Fraction returns the identical share of compared answers as a percentage.
func (r Replay) Fraction() float64 {
	if r.Compared == 0 {
		return 0
	}
	return float64(r.Identical) / float64(r.Compared) * 100
}

// CompareReplay compares selected option indices position by position. The
// set is suspicious only when every post answer matches its pre answer and
// every post answer is correct. Response timing is not considered.
func CompareReplay(pre, post []AnswerRecord) Replay {
	r := Replay{Compared: len(post), AllCorrect: len(post) > 0}
	for i, p := range post {
		if !p.Correct {
			r.AllCorrect = false
		}
		if i < len(pre) && pre[i].Selected == p.Selected {
			r.Identical++
		}
	}
	r.Suspicious = r.Compared > 0 && r.Identical == r.Compared && r.AllCorrect
	return r
}

// ReplayViolation builds the review record for a suspicious replay.
func ReplayViolation(r Replay, at time.Time) Violation {
	return Violation{
		Kind:   SuspiciousReplay,
		Phase:  phase.Prove,
		At:     at,
		Detail: fmt.Sprintf("%d/%d answers identical to pre-assessment, all correct", r.Identical, r.Compared),
	}
}

// FocusSignal and AffectiveSignal are the magnitudes fed to the harvester
// on a focus loss.
const (
	FocusSignal     = 10
	AffectiveSignal = 35
)

// FocusLossViolation returns the violation for a visibility loss, or false
// when focus loss is not tracked in the phase.
func FocusLossViolation(id phase.ID, switches int, at time.Time) (Violation, bool) {
	if id != phase.Do {
		return Violation{}, false
	}
	return Violation{
		Kind:   FocusLoss,
		Phase:  id,
		At:     at,
		Detail: fmt.Sprintf("tab switch %d", switches),
	}, true
}
