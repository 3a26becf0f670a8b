// Package session opens lesson controllers for a learner, resuming saved
// progress when there is any.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abhisek/phasegate/internal/content"
	"github.com/abhisek/phasegate/internal/engine"
	"github.com/abhisek/phasegate/internal/logging"
	"github.com/abhisek/phasegate/internal/signal"
	"github.com/abhisek/phasegate/internal/store"
)

// ActiveError is returned when the saved progress belongs to a session
// that is still open.
type ActiveError struct {
	SessionID string
}

func (e *ActiveError) Error() string {
	return fmt.Sprintf("this lesson is already open as session %s", e.SessionID)
}

// InvalidLessonError wraps a catalog lesson the engine refuses to run.
type InvalidLessonError struct {
	LessonID string
	Err      error
}

func (e *InvalidLessonError) Error() string {
	return fmt.Sprintf("lesson %q: %v", e.LessonID, e.Err)
}

func (e *InvalidLessonError) Unwrap() error { return e.Err }

// Opener builds controllers. Catalog is required; the other fields are
// optional.
type Opener struct {
	Catalog content.Catalog
	Rules   engine.Rules
	Grader  engine.Grader

	Recorder  engine.Recorder
	Progress  store.ProgressRepo
	Summaries store.SummaryRepo
	Observer  engine.Observer

	Logger *slog.Logger
	Clock  func() time.Time
}

// Request names the learner and lesson to open.
type Request struct {
	LearnerID string
	LessonID  string

	// Fresh discards saved progress instead of resuming it.
	Fresh bool

	// Live reports whether a session id is currently open elsewhere.
	Live func(sessionID string) bool
}

// Opened is a ready controller.
type Opened struct {
	Controller *engine.Controller
	Resumed    bool
}

func (o *Opener) clock() func() time.Time {
	if o.Clock == nil {
		return time.Now
	}
	return o.Clock
}

func (o *Opener) logger() *slog.Logger {
	if o.Logger == nil {
		return logging.Nop()
	}
	return o.Logger
}

// Open resolves the lesson, loads the learner's profile history and either
// resumes the latest saved session or starts a new one.
func (o *Opener) Open(ctx context.Context, req Request) (*Opened, error) {
	logger := o.logger().With("learner", req.LearnerID, "lesson", req.LessonID)

	lesson, err := o.Catalog.Lesson(req.LessonID)
	if err != nil {
		return nil, err
	}
	rules := o.Rules
	if rules.Phases == nil {
		rules = engine.DefaultRules()
	}
	machine, err := engine.NewMachine(lesson, rules)
	if err != nil {
		return nil, &InvalidLessonError{LessonID: req.LessonID, Err: err}
	}

	var history []signal.Profile
	if o.Summaries != nil {
		history, err = o.Summaries.Profiles(ctx, req.LearnerID)
		if err != nil {
			logger.Warn("failed to load profile history", "err", err)
		}
	}

	var sess *engine.Session
	resumed := false
	if o.Progress != nil {
		saved, err := o.Progress.Latest(ctx, req.LearnerID, req.LessonID)
		switch {
		case err != nil:
			logger.Warn("failed to load saved progress", "err", err)
		case saved != nil && req.Fresh:
			if err := o.Progress.Delete(ctx, saved.ID); err != nil {
				logger.Warn("failed to discard saved progress", "err", err)
			}
		case saved != nil:
			if req.Live != nil && req.Live(saved.ID) {
				return nil, &ActiveError{SessionID: saved.ID}
			}
			sess, resumed = saved, true
		}
	}
	if sess == nil {
		sess = machine.NewSession(req.LearnerID, o.clock()())
	}

	ctrl := engine.NewController(machine, sess, engine.ControllerConfig{
		History:  history,
		Grader:   o.Grader,
		Recorder: o.Recorder,
		Observer: o.Observer,
		Logger:   o.Logger,
		Clock:    o.clock(),
	})
	logger.Info("session opened", "session", sess.ID, "resumed", resumed, "phase", sess.Phase.String())
	return &Opened{Controller: ctrl, Resumed: resumed}, nil
}
