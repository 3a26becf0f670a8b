package store

import (
	"context"
	"fmt"

	"github.com/abhisek/phasegate/internal/audit"
	"github.com/abhisek/phasegate/internal/engine"
	"github.com/abhisek/phasegate/internal/signal"
)

// Recorder persists the hand-offs of a lesson controller.
type Recorder struct {
	events   EventRepo
	progress ProgressRepo
	summary  SummaryRepo
}

var _ engine.Recorder = (*Recorder)(nil)

// Recorder returns a Recorder backed by this store.
func (s *Store) Recorder() *Recorder {
	return &Recorder{
		events:   s.EventRepo(),
		progress: s.ProgressRepo(),
		summary:  s.SummaryRepo(),
	}
}

func (r *Recorder) SaveProgress(ctx context.Context, s *engine.Session) error {
	if s.Completed() {
		return nil
	}
	return r.progress.Save(ctx, s)
}

func (r *Recorder) AppendViolations(ctx context.Context, sessionID string, vs []audit.Violation) error {
	return r.events.AppendViolations(ctx, sessionID, vs)
}

func (r *Recorder) AppendSignals(ctx context.Context, sessionID string, sigs []signal.Signal) error {
	return r.events.AppendSignals(ctx, sessionID, sigs)
}

// SaveSummary stores the summary and drops the resumable progress of a
// completed session.
func (r *Recorder) SaveSummary(ctx context.Context, sum engine.Summary) error {
	if err := r.summary.Save(ctx, sum); err != nil {
		return err
	}
	if !sum.Completed {
		return nil
	}
	if err := r.progress.Delete(ctx, sum.SessionID); err != nil {
		return fmt.Errorf("clear progress: %w", err)
	}
	return nil
}
