package guard

import (
	"fmt"
	"time"
)

// QuestionKind classifies a question for think-time purposes.
type QuestionKind string

const (
	KindShortChoice QuestionKind = "short-choice" // Short multiple choice
	KindLongChoice  QuestionKind = "long-choice"  // Long or illustrated multiple choice
	KindMatching    QuestionKind = "matching"     // Matching or ordering
	KindFillIn      QuestionKind = "fill-in"      // Fill in the blank
)

// AllKinds returns every question kind.
func AllKinds() []QuestionKind {
	return []QuestionKind{KindShortChoice, KindLongChoice, KindMatching, KindFillIn}
}

// ParseKind validates a question kind. The empty string maps to KindShortChoice.
func ParseKind(s string) (QuestionKind, error) {
	if s == "" {
		return KindShortChoice, nil
	}
	for _, k := range AllKinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown question kind %q", s)
}

// MinThinkTime returns the minimum time a learner must spend on a question
// of the given kind before a submission is accepted. Kinds come from
// ParseKind; any other value panics.
func MinThinkTime(k QuestionKind) time.Duration {
	switch k {
	case KindShortChoice:
		return 3 * time.Second
	case KindLongChoice:
		return 5 * time.Second
	case KindMatching:
		return 8 * time.Second
	case KindFillIn:
		return 6 * time.Second
	default:
		panic(fmt.Sprintf("guard: unknown question kind %q", k))
	}
}

// Penalty is the consequence of a wrong-answer streak.
type Penalty struct {
	Warning       bool
	Lock          time.Duration
	Hint          bool
	SuggestReview bool
}

// StreakPenalty maps a consecutive wrong-answer count to its penalty.
func StreakPenalty(streak int) Penalty {
	switch {
	case streak >= 5:
		return Penalty{Lock: 120 * time.Second, SuggestReview: true}
	case streak == 4:
		return Penalty{Lock: 60 * time.Second, Hint: true}
	case streak == 3:
		return Penalty{Lock: 30 * time.Second}
	case streak == 2:
		return Penalty{Warning: true}
	default:
		return Penalty{}
	}
}

// Pattern is a statistical guessing signature.
type Pattern string

const (
	PatternSameAnswer    Pattern = "same_answer"
	PatternCyclic        Pattern = "cyclic"
	PatternUniformTiming Pattern = "uniform_timing"
)

// PatternLock is the lock imposed when any pattern is detected.
const PatternLock = 60 * time.Second

const (
	sameAnswerWindow = 5
	cyclicWindow     = 4
	timingWindow     = 5

	// timingTolerance is how close to the mean every latency must be for the
	// timing to count as uniform.
	timingTolerance = 500 * time.Millisecond
)
