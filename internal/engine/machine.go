package engine

import (
	"fmt"
	"time"

	"github.com/abhisek/phasegate/internal/audit"
	"github.com/abhisek/phasegate/internal/content"
	"github.com/abhisek/phasegate/internal/guard"
	"github.com/abhisek/phasegate/internal/phase"
	"github.com/abhisek/phasegate/internal/rewind"
	"github.com/abhisek/phasegate/internal/signal"
)

// Rules holds the tunable constants of the engine.
type Rules struct {
	Phases        *phase.Table
	Cooldowns     rewind.Cooldowns
	Materiality   int
	ProfileWindow int
}

// DefaultRules returns the stock rule set.
func DefaultRules() Rules {
	return Rules{
		Phases:        phase.DefaultTable(),
		Cooldowns:     rewind.DefaultCooldowns(),
		Materiality:   signal.DefaultMateriality,
		ProfileWindow: signal.DefaultWindow,
	}
}

// Signal magnitudes for engine actions.
const (
	magAnswerCorrect  = 80
	magAnswerWrong    = 30
	magTooFast        = 20
	magPattern        = 10
	magStreakLock     = 30
	magWatchComplete  = 70
	magCheckpointFail = 30
	magLessonComplete = 90
)

// Machine evaluates events for sessions of one lesson. It holds only
// immutable reference data and is safe for concurrent use.
type Machine struct {
	lesson *content.Lesson
	rules  Rules
}

// NewMachine binds the rules to a lesson, applying its threshold overrides.
func NewMachine(l *content.Lesson, rules Rules) (*Machine, error) {
	if rules.Phases == nil {
		rules.Phases = phase.DefaultTable()
	}
	if rules.Cooldowns == nil {
		rules.Cooldowns = rewind.DefaultCooldowns()
	}
	table, err := l.PhaseTable(rules.Phases)
	if err != nil {
		return nil, fmt.Errorf("lesson %s: %w", l.ID, err)
	}
	rules.Phases = table
	return &Machine{lesson: l, rules: rules}, nil
}

// Lesson returns the lesson the machine serves.
func (m *Machine) Lesson() *content.Lesson { return m.lesson }

// Rules returns the effective rules for the lesson.
func (m *Machine) Rules() Rules { return m.rules }

// NewSession opens the machine's lesson for a learner.
func (m *Machine) NewSession(learnerID string, now time.Time) *Session {
	return NewSession(learnerID, m.lesson.ID, m.rules, now)
}

// Evaluate applies one event to the session in arrival order and returns
// the outcome. Time-bounded states are settled before the event is handled.
func (m *Machine) Evaluate(s *Session, ev Event) Outcome {
	now := ev.At
	var o Outcome
	m.settle(s, now, &o)

	if s.Completed() && ev.Kind != EventTick && ev.Kind != EventVisibility {
		o.Reason = ReasonComplete
		o.Phase = s.Phase
		return o
	}

	switch ev.Kind {
	case EventAdvance:
		m.advance(s, now, &o)
	case EventAnswer:
		m.answer(s, ev, &o)
	case EventMatch:
		m.match(s, ev, &o)
	case EventReflection:
		m.reflect(s, ev, &o)
	case EventWatch:
		m.watch(s, ev, &o)
	case EventVisibility:
		m.visibility(s, ev, &o)
	case EventTick:
		o.Accepted = true
	default:
		o.Reason = ReasonInvalidInput
	}
	o.Phase = s.Phase
	return o
}

// settle closes an elapsed rewind cooldown: DO reopens with the elevated
// watch requirement and the failed phase is remembered for the return.
func (m *Machine) settle(s *Session, now time.Time, o *Outcome) {
	if s.Rewind == nil || !s.Rewind.Expired(now) {
		return
	}
	rw := s.Rewind
	s.Rewind = nil
	s.ReturnPhase = rw.FailedPhase
	s.RequiredWatch = rw.RequiredWatch
	s.Watched = 0
	o.From = s.Phase
	s.enter(phase.Do, rw.CooldownUntil)
	o.Remediation = true
}

// gate refuses work while a rewind cooldown or a lock is in force.
func (m *Machine) gate(s *Session, now time.Time, o *Outcome) bool {
	if s.Rewind != nil {
		o.Reason = ReasonRewindActive
		o.Wait = s.Rewind.Remaining(now)
		return false
	}
	if s.Guard.Locked(now) {
		o.Reason = lockedUntil(*s.Guard.LockUntil)
		o.Wait = s.Guard.Remaining(now)
		return false
	}
	return true
}

func (m *Machine) advance(s *Session, now time.Time, o *Outcome) {
	if !m.gate(s, now, o) {
		return
	}
	p := m.rules.Phases.Get(s.Phase)

	res := audit.CheckExit(audit.Exit{
		Phase:         p,
		At:            now,
		Dwell:         now.Sub(s.PhaseEnteredAt),
		Watched:       s.Watched,
		RequiredWatch: s.RequiredWatch,
		Answers:       s.Answers(s.Phase),
		Items:         len(m.lesson.Items(s.Phase)),
	})
	for _, v := range res.Violations {
		if s.record(v) {
			o.Violations = append(o.Violations, v)
		}
	}
	if res.Blocked() {
		o.Reason = Reason(res.Cause)
		o.Wait = res.Wait
		return
	}

	if s.Phase == phase.Do && s.Remediating() {
		m.returnToCheckpoint(s, now, o)
		return
	}

	if p.ID.IsCheckpoint() {
		score, ok := m.checkpointScore(s)
		if !ok {
			o.Reason = ReasonItems
			return
		}
		o.Score = &score
		if score < p.Condition.Threshold {
			m.fail(s, p, score, now, o)
			return
		}
	}

	m.pass(s, p, now, o)
}

func (m *Machine) checkpointScore(s *Session) (float64, bool) {
	switch s.Phase {
	case phase.Sync:
		if s.MatchScore == nil {
			return 0, false
		}
		return *s.MatchScore, true
	case phase.Reflect:
		if s.ReflectionScore == nil {
			return 0, false
		}
		return *s.ReflectionScore, true
	default:
		items := m.lesson.Items(s.Phase)
		return audit.Score(s.Answers(s.Phase), len(items)), true
	}
}

// fail opens a rewind for a checkpoint scored below its threshold.
func (m *Machine) fail(s *Session, p phase.Phase, score float64, now time.Time, o *Outcome) {
	rw, err := rewind.Trigger(m.rules.Cooldowns, p.ID, score, p.Condition.Threshold, s.RewindAttempts, now)
	if err != nil {
		o.Reason = ReasonInvalidInput
		return
	}
	s.RewindAttempts = rw.Attempt
	s.Rewind = rw
	s.RequiredWatch = rw.RequiredWatch
	s.clearPhase(p.ID)

	o.Reason = ReasonCheckpointFailed
	o.Wait = rw.Remaining(now)
	snapshot := *rw
	o.Rewind = &snapshot
	m.capture(s, signal.Affective, magCheckpointFail, "checkpoint-failed", now, o)
}

// pass closes the phase: discipline signal, checkpoint signals, and the
// move to the next phase or lesson completion.
func (m *Machine) pass(s *Session, p phase.Phase, now time.Time, o *Outcome) {
	m.capture(s, signal.Discipline, audit.DisciplineMagnitude(s.VisitViolations), "phase-exit-"+p.ID.String(), now, o)

	switch p.ID {
	case phase.Sync:
		m.capture(s, signal.Procedural, int(*o.Score), "checkpoint-"+p.ID.String(), now, o)
	case phase.Reflect:
		m.capture(s, signal.Cognitive, int(*o.Score), "checkpoint-"+p.ID.String(), now, o)
	case phase.Prove:
		m.proveExit(s, now, o)
	}

	if p.ID == phase.Last {
		m.complete(s, now, o)
		o.Granted = true
		return
	}

	o.From = s.Phase
	s.enter(p.ID.Next(), now)
	o.Granted = true
}

// proveExit runs the replay comparison and grants the improvement bonus
// unless the post-assessment looks replayed.
func (m *Machine) proveExit(s *Session, now time.Time, o *Outcome) {
	replay := audit.CompareReplay(s.Pre, s.Post)
	if replay.Suspicious {
		s.SuspiciousReplay = true
		v := audit.ReplayViolation(replay, now)
		s.record(v)
		o.Violations = append(o.Violations, v)
		return
	}
	pre := audit.Score(s.Pre, len(m.lesson.Pre))
	post := audit.Score(s.Post, len(m.lesson.PostItems()))
	if delta := post - pre; delta > 0 {
		m.capture(s, signal.Cognitive, min(100, 50+int(delta)), "improvement", now, o)
	}
}

func (m *Machine) complete(s *Session, now time.Time, o *Outcome) {
	s.enter(s.Phase, now)

	pre := audit.Score(s.Pre, len(m.lesson.Pre))
	post := audit.Score(s.Post, len(m.lesson.PostItems()))
	c := &Completion{
		Pre:              pre,
		Post:             post,
		Delta:            post - pre,
		Elapsed:          now.Sub(s.LessonEnteredAt),
		Tier:             TierFor(post, post-pre),
		SuspiciousReplay: s.SuspiciousReplay,
		At:               now,
	}
	s.Completion = c
	o.Completion = c
	m.capture(s, signal.Effort, magLessonComplete, "lesson-complete", now, o)
}

// returnToCheckpoint hands control back to the failed checkpoint once the
// re-watch requirement holds. The return starts a retry and is throttled.
func (m *Machine) returnToCheckpoint(s *Session, now time.Time, o *Outcome) {
	ok, wait := s.Retry.Start(now, &s.Guard)
	if !ok {
		o.Reason = ReasonRetryCooldown
		o.Wait = wait
		return
	}
	m.capture(s, signal.Discipline, audit.DisciplineMagnitude(s.VisitViolations), "phase-exit-"+phase.Do.String(), now, o)

	target := s.ReturnPhase
	s.ReturnPhase = 0
	s.clearPhase(target)
	o.From = s.Phase
	s.enter(target, now)
	o.Granted = true
	o.Returned = true
}

func (m *Machine) answer(s *Session, ev Event, o *Outcome) {
	now := ev.At
	if !s.Phase.IsAssessment() {
		o.Reason = ReasonWrongPhase
		return
	}
	if !m.gate(s, now, o) {
		return
	}
	items := m.lesson.Items(s.Phase)
	idx := len(s.Answers(s.Phase))
	if idx >= len(items) {
		o.Reason = ReasonNoPendingItem
		return
	}
	item := items[idx]
	if ev.Option < 0 || ev.Option >= len(item.Options) {
		o.Reason = ReasonInvalidInput
		return
	}

	kind := item.QuestionKind()
	adm := guard.Admit(&s.Guard, kind, s.QuestionShownAt, now)
	if !adm.Allowed {
		o.Reason = ReasonTooFast
		o.Wait = adm.Wait
		m.capture(s, signal.Discipline, magTooFast, "too-fast", now, o)
		return
	}

	latency := now.Sub(s.QuestionShownAt)
	correct := ev.Option == item.Correct
	s.appendAnswer(s.Phase, audit.AnswerRecord{
		Question:      idx,
		Selected:      ev.Option,
		CorrectOption: item.Correct,
		Correct:       correct,
		Latency:       latency,
		ClientLatency: max(0, ev.ClientLatency),
		Kind:          kind,
	})
	s.QuestionShownAt = now

	v := guard.Record(&s.Guard, guard.Answer{
		Option:  ev.Option,
		Correct: correct,
		Latency: latency,
		At:      now,
	}, now)

	o.Accepted = true
	o.Correct = &correct
	o.LockFor = v.LockFor
	o.Warning = v.Penalty.Warning
	o.Hint = v.Penalty.Hint
	o.SuggestReview = v.Penalty.SuggestReview
	o.Patterns = v.Patterns

	if correct {
		m.capture(s, item.SignalDimension(), magAnswerCorrect, "answer-correct", now, o)
	} else {
		m.capture(s, item.SignalDimension(), magAnswerWrong, "answer-wrong", now, o)
	}
	if v.Penalty.Lock > 0 {
		m.capture(s, signal.Affective, magStreakLock, "wrong-streak", now, o)
	}
	for _, p := range v.Patterns {
		pv := audit.Violation{
			Kind:   audit.GuessingPattern,
			Phase:  s.Phase,
			At:     now,
			Detail: string(p),
		}
		s.record(pv)
		o.Violations = append(o.Violations, pv)
		m.capture(s, signal.Discipline, magPattern, "pattern-"+string(p), now, o)
	}
}

func (m *Machine) match(s *Session, ev Event, o *Outcome) {
	now := ev.At
	if s.Phase != phase.Sync {
		o.Reason = ReasonWrongPhase
		return
	}
	if !m.gate(s, now, o) {
		return
	}
	if s.MatchScore != nil {
		o.Reason = ReasonNoPendingItem
		return
	}
	pairs := m.lesson.Matching
	if len(ev.Matches) != len(pairs) {
		o.Reason = ReasonInvalidInput
		return
	}
	if adm := guard.Admit(&s.Guard, guard.KindMatching, s.QuestionShownAt, now); !adm.Allowed {
		o.Reason = ReasonTooFast
		o.Wait = adm.Wait
		return
	}

	correct := 0
	for i, j := range ev.Matches {
		if j == i {
			correct++
		}
	}
	score := float64(correct) / float64(len(pairs)) * 100
	s.MatchScore = &score
	o.Accepted = true
	o.Score = &score
	m.capture(s, signal.Procedural, int(score), "match", now, o)
}

// CheckReflection reports whether a reflection submitted at now would be
// accepted, without changing the session. A refusal carries the same reason
// and wait that Evaluate would return.
func (m *Machine) CheckReflection(s *Session, now time.Time) Outcome {
	o := Outcome{Phase: s.Phase}
	switch {
	case s.Rewind != nil && s.Rewind.Expired(now):
		// Settling the cooldown reopens DO.
		o.Reason = ReasonWrongPhase
		o.Phase = phase.Do
	case s.Completed():
		o.Reason = ReasonComplete
	default:
		m.reflectReady(s, now, &o)
	}
	return o
}

func (m *Machine) reflectReady(s *Session, now time.Time, o *Outcome) bool {
	if s.Phase != phase.Reflect {
		o.Reason = ReasonWrongPhase
		return false
	}
	if !m.gate(s, now, o) {
		return false
	}
	if s.ReflectionScore != nil {
		o.Reason = ReasonNoPendingItem
		return false
	}
	if adm := guard.Admit(&s.Guard, guard.KindFillIn, s.QuestionShownAt, now); !adm.Allowed {
		o.Reason = ReasonTooFast
		o.Wait = adm.Wait
		return false
	}
	return true
}

func (m *Machine) reflect(s *Session, ev Event, o *Outcome) {
	now := ev.At
	if !m.reflectReady(s, now, o) {
		return
	}
	score := max(0, min(100, ev.Score))
	s.ReflectionScore = &score
	s.Reflection = ev.Text
	o.Accepted = true
	o.Score = &score
	m.capture(s, signal.Cognitive, int(score), "reflection", now, o)
}

func (m *Machine) watch(s *Session, ev Event, o *Outcome) {
	now := ev.At
	if s.Phase != phase.Do {
		o.Reason = ReasonWrongPhase
		return
	}
	need := s.RequiredWatch
	before := s.Watched
	s.Watched = max(s.Watched, max(0, min(100, ev.Watched)))
	o.Accepted = true

	if before < need && s.Watched >= need {
		m.capture(s, signal.Effort, magWatchComplete, "watch-complete", now, o)
		if s.Remediating() && !s.Guard.Locked(now) {
			m.returnToCheckpoint(s, now, o)
		}
	}
}

func (m *Machine) visibility(s *Session, ev Event, o *Outcome) {
	now := ev.At
	o.Accepted = true
	if !ev.Hidden {
		return
	}
	v, ok := audit.FocusLossViolation(s.Phase, s.TabSwitches+1, now)
	if !ok {
		return
	}
	s.TabSwitches++
	s.record(v)
	o.Violations = append(o.Violations, v)
	m.capture(s, signal.Focus, audit.FocusSignal, "focus-loss", now, o)
	m.capture(s, signal.Affective, audit.AffectiveSignal, "focus-loss", now, o)
}

// capture stores a signal and surfaces it as a notice when material.
func (m *Machine) capture(s *Session, dim signal.Dimension, magnitude int, action string, now time.Time, o *Outcome) {
	if s.Signals == nil {
		s.Signals = signal.NewBuffer(m.rules.Materiality, m.rules.ProfileWindow)
	}
	sig, stored := s.Signals.Capture(dim, magnitude, action, now)
	if !stored {
		return
	}
	o.Signals = append(o.Signals, sig)
	if s.Signals.Material(sig) {
		o.Notices = append(o.Notices, Notice{
			Dimension: sig.Dimension,
			Magnitude: sig.Magnitude,
			Action:    sig.Action,
		})
	}
}
