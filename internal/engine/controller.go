package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/abhisek/phasegate/internal/audit"
	"github.com/abhisek/phasegate/internal/content"
	"github.com/abhisek/phasegate/internal/guard"
	"github.com/abhisek/phasegate/internal/logging"
	"github.com/abhisek/phasegate/internal/signal"
)

// ErrSessionClosed is returned once a session has been handed off.
var ErrSessionClosed = errors.New("session closed")

// Grader scores a free-text reflection against a rubric on 0..100.
type Grader interface {
	Grade(ctx context.Context, r content.Rubric, text string) (float64, error)
}

// Recorder receives the persistence hand-offs of a session.
type Recorder interface {
	SaveProgress(ctx context.Context, s *Session) error
	AppendViolations(ctx context.Context, sessionID string, vs []audit.Violation) error
	AppendSignals(ctx context.Context, sessionID string, sigs []signal.Signal) error
	SaveSummary(ctx context.Context, sum Summary) error
}

// Observer is notified of every evaluated event.
type Observer interface {
	Observe(kind EventKind, o Outcome)
}

// ControllerConfig carries the collaborators of a Controller. Every field
// is optional.
type ControllerConfig struct {
	// History holds the learner's per-lesson profiles from earlier lessons.
	History  []signal.Profile
	Grader   Grader
	Recorder Recorder
	Observer Observer
	Logger   *slog.Logger
	Clock    func() time.Time
}

// Controller is the entry point used by a UI adapter. It owns one session
// and serializes all events for it.
type Controller struct {
	mu      sync.Mutex
	machine *Machine
	session *Session
	cfg     ControllerConfig
	closed  bool
}

// NewController wraps a session. Use Machine.NewSession for a fresh lesson
// or RestoreSession to resume saved progress.
func NewController(m *Machine, s *Session, cfg ControllerConfig) *Controller {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	return &Controller{machine: m, session: s, cfg: cfg}
}

// RestoreSession decodes saved progress.
func RestoreSession(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if s.ID == "" || !s.Phase.Valid() {
		return nil, fmt.Errorf("decode session: incomplete progress record")
	}
	for _, answers := range [][]audit.AnswerRecord{s.Pre, s.Post, s.Mastery} {
		for i := range answers {
			k, err := guard.ParseKind(string(answers[i].Kind))
			if err != nil {
				return nil, fmt.Errorf("decode session: %w", err)
			}
			answers[i].Kind = k
		}
	}
	if s.Signals == nil {
		s.Signals = signal.NewBuffer(0, 0)
	}
	return &s, nil
}

// SessionID returns the id of the owned session.
func (c *Controller) SessionID() string {
	return c.session.ID
}

// Machine returns the lesson machine.
func (c *Controller) Machine() *Machine {
	return c.machine
}

// AttemptAdvance asks to leave the current phase.
func (c *Controller) AttemptAdvance(ctx context.Context) Outcome {
	return c.dispatch(ctx, Event{Kind: EventAdvance})
}

// SubmitAnswer answers the pending quiz item. clientLatency may be zero.
func (c *Controller) SubmitAnswer(ctx context.Context, option int, clientLatency time.Duration) Outcome {
	return c.dispatch(ctx, Event{Kind: EventAnswer, Option: option, ClientLatency: clientLatency})
}

// SubmitMatch submits the SYNC matching exercise.
func (c *Controller) SubmitMatch(ctx context.Context, matches []int) Outcome {
	return c.dispatch(ctx, Event{Kind: EventMatch, Matches: matches})
}

// SubmitReflection grades the text and submits it to REFLECT. The grader
// only runs for a submission the session would accept.
func (c *Controller) SubmitReflection(ctx context.Context, text string) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return Outcome{}, ErrSessionClosed
	}

	var score float64
	if pre := c.machine.CheckReflection(c.session, c.cfg.Clock()); pre.Reason != ReasonNone {
		return c.evaluate(ctx, Event{Kind: EventReflection, Text: text}), nil
	}
	if c.cfg.Grader != nil {
		var err error
		score, err = c.cfg.Grader.Grade(ctx, c.machine.lesson.Reflection, text)
		if err != nil {
			return Outcome{}, fmt.Errorf("grade reflection: %w", err)
		}
	}
	return c.evaluate(ctx, Event{Kind: EventReflection, Text: text, Score: score}), nil
}

// ReportWatchProgress reports the video progress percentage.
func (c *Controller) ReportWatchProgress(ctx context.Context, watched float64) Outcome {
	return c.dispatch(ctx, Event{Kind: EventWatch, Watched: watched})
}

// ReportVisibilityChange reports that the lesson was hidden or shown.
func (c *Controller) ReportVisibilityChange(ctx context.Context, hidden bool) Outcome {
	return c.dispatch(ctx, Event{Kind: EventVisibility, Hidden: hidden})
}

// Tick settles timers without any learner action.
func (c *Controller) Tick(ctx context.Context) Outcome {
	return c.dispatch(ctx, Event{Kind: EventTick})
}

// Status returns the current session view.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Status(c.session, c.cfg.Clock())
}

// ComputeProfile blends the learner's history with the live signals.
func (c *Controller) ComputeProfile() signal.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return signal.ComputeProfile(c.cfg.History, c.session.Signals)
}

// Snapshot returns the session encoded as progress.
func (c *Controller) Snapshot() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return json.Marshal(c.session)
}

// Summary returns the end-of-lesson record as of now.
func (c *Controller) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Summary(c.session, c.cfg.History, c.cfg.Clock())
}

// Exit hands the session off to the recorder and closes it. Exiting a
// completed session is a no-op beyond closing, the summary having been
// saved on completion.
func (c *Controller) Exit(ctx context.Context) (Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return Summary{}, ErrSessionClosed
	}
	c.closed = true
	sum := c.machine.Summary(c.session, c.cfg.History, c.cfg.Clock())
	if c.cfg.Recorder == nil || c.session.Completed() {
		return sum, nil
	}
	if err := c.cfg.Recorder.SaveProgress(ctx, c.session); err != nil {
		return sum, fmt.Errorf("save progress: %w", err)
	}
	return sum, nil
}

func (c *Controller) dispatch(ctx context.Context, ev Event) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return Outcome{Reason: ReasonComplete, Phase: c.session.Phase}
	}
	return c.evaluate(ctx, ev)
}

// evaluate runs the event and hands its side effects to the recorder.
// Callers hold c.mu.
func (c *Controller) evaluate(ctx context.Context, ev Event) Outcome {
	ev.At = c.cfg.Clock()
	o := c.machine.Evaluate(c.session, ev)

	log := c.cfg.Logger.With("session", c.session.ID, "event", string(ev.Kind))
	if o.Reason != ReasonNone {
		log.Debug("event refused", "reason", string(o.Reason), "wait", o.Wait)
	}
	for _, v := range o.Violations {
		log.Info("violation", "kind", string(v.Kind), "phase", v.Phase.String(), "detail", v.Detail)
	}
	if o.Rewind != nil {
		log.Info("rewind", "failed_phase", o.Rewind.FailedPhase.String(), "attempt", o.Rewind.Attempt, "score", o.Rewind.Score)
	}

	if c.cfg.Observer != nil {
		c.cfg.Observer.Observe(ev.Kind, o)
	}
	c.persist(ctx, o, log)
	return o
}

// persist is best effort: failures are logged and never change the outcome.
func (c *Controller) persist(ctx context.Context, o Outcome, log *slog.Logger) {
	rec := c.cfg.Recorder
	if rec == nil {
		return
	}
	if len(o.Violations) > 0 {
		if err := rec.AppendViolations(ctx, c.session.ID, o.Violations); err != nil {
			log.Warn("failed to log violations", "err", err)
		}
	}
	if len(o.Signals) > 0 {
		if err := rec.AppendSignals(ctx, c.session.ID, o.Signals); err != nil {
			log.Warn("failed to log signals", "err", err)
		}
	}
	if !o.Accepted && !o.Granted && !o.Remediation && o.Rewind == nil {
		return
	}
	if err := rec.SaveProgress(ctx, c.session); err != nil {
		log.Warn("failed to save progress", "err", err)
	}
	if o.Completion != nil {
		sum := c.machine.Summary(c.session, c.cfg.History, o.Completion.At)
		if err := rec.SaveSummary(ctx, sum); err != nil {
			log.Warn("failed to save summary", "err", err)
		}
	}
}
