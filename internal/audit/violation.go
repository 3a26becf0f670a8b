package audit

import (
	"fmt"
	"time"

	"github.com/abhisek/phasegate/internal/guard"
	"github.com/abhisek/phasegate/internal/phase"
)

// Kind classifies a rule breach.
type Kind string

const (
	RushedAnswer      Kind = "rushed-answer"
	InsufficientDwell Kind = "insufficient-dwell"
	IncompleteWatch   Kind = "incomplete-watch"
	SuspiciousReplay  Kind = "suspicious-replay"
	FocusLoss         Kind = "focus-loss"
	GuessingPattern   Kind = "guessing-pattern"
)

// Blocking reports whether a violation of this kind prevents phase exit.
func (k Kind) Blocking() bool {
	switch k {
	case InsufficientDwell, IncompleteWatch:
		return true
	default:
		return false
	}
}

// Violation is an append-only record of a detected breach.
type Violation struct {
	Kind   Kind      `json:"kind"`
	Phase  phase.ID  `json:"phase"`
	At     time.Time `json:"at"`
	Detail string    `json:"detail,omitempty"`
}

func (v Violation) String() string {
	if v.Detail == "" {
		return fmt.Sprintf("%s in %s", v.Kind, v.Phase)
	}
	return fmt.Sprintf("%s in %s: %s", v.Kind, v.Phase, v.Detail)
}

// AnswerRecord is one question response. Records are never mutated once
// appended.
type AnswerRecord struct {
	Question      int                `json:"question"`
	Selected      int                `json:"selected"`
	CorrectOption int                `json:"correct_option"`
	Correct       bool               `json:"correct"`
	Latency       time.Duration      `json:"latency"`
	ClientLatency time.Duration      `json:"client_latency,omitempty"`
	Kind          guard.QuestionKind `json:"kind"`
}

// Score returns the percentage of correct answers over total questions.
// A zero total scores zero.
func Score(answers []AnswerRecord, total int) float64 {
	if total <= 0 {
		return 0
	}
	correct := 0
	for _, a := range answers {
		if a.Correct {
			correct++
		}
	}
	return float64(correct) / float64(total) * 100
}

// DisciplineMagnitude is the discipline signal granted at phase exit:
// 100 for a clean phase, otherwise 50 less 20 per violation, floored at 0.
func DisciplineMagnitude(violations int) int {
	if violations <= 0 {
		return 100
	}
	return max(0, 50-20*violations)
}
