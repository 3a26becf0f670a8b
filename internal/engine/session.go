package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/phasegate/internal/audit"
	"github.com/abhisek/phasegate/internal/guard"
	"github.com/abhisek/phasegate/internal/phase"
	"github.com/abhisek/phasegate/internal/retry"
	"github.com/abhisek/phasegate/internal/rewind"
	"github.com/abhisek/phasegate/internal/signal"
)

// Session is the state of one learner's attempt at one lesson. It is owned
// by a single caller and mutated only through Machine.Evaluate. Every field
// is serializable so that a lesson can be resumed from saved progress.
type Session struct {
	ID        string `json:"id"`
	LearnerID string `json:"learner_id"`
	LessonID  string `json:"lesson_id"`

	Phase           phase.ID                   `json:"phase"`
	PhaseEnteredAt  time.Time                  `json:"phase_entered_at"`
	LessonEnteredAt time.Time                  `json:"lesson_entered_at"`
	Elapsed         map[phase.ID]time.Duration `json:"elapsed"`

	// QuestionShownAt is when the pending item of the phase was presented.
	QuestionShownAt time.Time `json:"question_shown_at"`

	Pre     []audit.AnswerRecord `json:"pre,omitempty"`
	Post    []audit.AnswerRecord `json:"post,omitempty"`
	Mastery []audit.AnswerRecord `json:"mastery,omitempty"`

	MatchScore      *float64 `json:"match_score,omitempty"`
	ReflectionScore *float64 `json:"reflection_score,omitempty"`
	Reflection      string   `json:"reflection,omitempty"`

	Watched       float64 `json:"watched"`
	RequiredWatch float64 `json:"required_watch"`
	TabSwitches   int     `json:"tab_switches"`

	RewindAttempts int           `json:"rewind_attempts"`
	Rewind         *rewind.State `json:"rewind,omitempty"`

	// ReturnPhase is set while the learner re-watches content after a
	// rewind cooldown; it names the checkpoint to return to.
	ReturnPhase phase.ID `json:"return_phase,omitempty"`

	Guard   guard.State    `json:"guard"`
	Retry   retry.State    `json:"retry"`
	Signals *signal.Buffer `json:"signals"`

	Violations []audit.Violation `json:"violations,omitempty"`

	// VisitViolations counts violations recorded since the phase was entered.
	VisitViolations int                 `json:"visit_violations"`
	VisitKinds      map[audit.Kind]bool `json:"visit_kinds,omitempty"`

	SuspiciousReplay bool        `json:"suspicious_replay,omitempty"`
	Completion       *Completion `json:"completion,omitempty"`
}

// NewSession opens a lesson for a learner at KNOW.
func NewSession(learnerID, lessonID string, rules Rules, now time.Time) *Session {
	return &Session{
		ID:              uuid.NewString(),
		LearnerID:       learnerID,
		LessonID:        lessonID,
		Phase:           phase.First,
		PhaseEnteredAt:  now,
		LessonEnteredAt: now,
		QuestionShownAt: now,
		Elapsed:         make(map[phase.ID]time.Duration),
		RequiredWatch:   rules.Phases.Get(phase.Do).Condition.Threshold,
		Signals:         signal.NewBuffer(rules.Materiality, rules.ProfileWindow),
	}
}

// Completed reports whether MASTER has been passed.
func (s *Session) Completed() bool {
	return s.Completion != nil
}

// Remediating reports whether the learner is re-watching content after a
// rewind.
func (s *Session) Remediating() bool {
	return s.ReturnPhase != 0
}

// Answers returns the answer list owned by an assessment phase.
func (s *Session) Answers(id phase.ID) []audit.AnswerRecord {
	switch id {
	case phase.Know:
		return s.Pre
	case phase.Prove:
		return s.Post
	case phase.Master:
		return s.Mastery
	default:
		return nil
	}
}

func (s *Session) appendAnswer(id phase.ID, a audit.AnswerRecord) {
	switch id {
	case phase.Know:
		s.Pre = append(s.Pre, a)
	case phase.Prove:
		s.Post = append(s.Post, a)
	case phase.Master:
		s.Mastery = append(s.Mastery, a)
	}
}

// clearPhase drops the partial work of a failed checkpoint.
func (s *Session) clearPhase(id phase.ID) {
	switch id {
	case phase.Sync:
		s.MatchScore = nil
	case phase.Reflect:
		s.ReflectionScore = nil
		s.Reflection = ""
	case phase.Prove:
		s.Post = nil
	case phase.Master:
		s.Mastery = nil
	}
}

func (s *Session) enter(id phase.ID, now time.Time) {
	if s.Elapsed == nil {
		s.Elapsed = make(map[phase.ID]time.Duration)
	}
	s.Elapsed[s.Phase] += now.Sub(s.PhaseEnteredAt)
	s.Phase = id
	s.PhaseEnteredAt = now
	s.QuestionShownAt = now
	s.VisitViolations = 0
	s.VisitKinds = nil
}

// record appends a violation. Exit-rule violations are recorded once per
// phase visit so that repeated advance attempts are not counted twice.
func (s *Session) record(v audit.Violation) bool {
	switch v.Kind {
	case audit.InsufficientDwell, audit.IncompleteWatch, audit.RushedAnswer:
		if s.VisitKinds[v.Kind] {
			return false
		}
		if s.VisitKinds == nil {
			s.VisitKinds = make(map[audit.Kind]bool)
		}
		s.VisitKinds[v.Kind] = true
	}
	s.Violations = append(s.Violations, v)
	s.VisitViolations++
	return true
}
