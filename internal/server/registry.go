package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/abhisek/phasegate/internal/engine"
)

// entry is one live session. Events for it are serialized by the
// controller's own lock; the registry lock only guards the map.
type entry struct {
	ctrl     *engine.Controller
	lastSeen time.Time
}

// registry holds the in-memory sessions of the process.
type registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	clock    func() time.Time
	onClose  func()
}

func newRegistry(clock func() time.Time, onClose func()) *registry {
	return &registry{
		sessions: make(map[string]*entry),
		clock:    clock,
		onClose:  onClose,
	}
}

func (r *registry) add(ctrl *engine.Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[ctrl.SessionID()] = &entry{ctrl: ctrl, lastSeen: r.clock()}
}

// get returns the controller and marks the session as seen.
func (r *registry) get(id string) (*engine.Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.clock()
	return e.ctrl, true
}

func (r *registry) remove(id string) (*engine.Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	delete(r.sessions, id)
	if r.onClose != nil {
		r.onClose()
	}
	return e.ctrl, true
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// sweep exits every session idle for longer than ttl and returns how many
// were evicted. Their progress is handed to the recorder on exit.
func (r *registry) sweep(ctx context.Context, ttl time.Duration, logger *slog.Logger) int {
	cutoff := r.clock().Add(-ttl)

	r.mu.Lock()
	var stale []*engine.Controller
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e.ctrl)
			delete(r.sessions, id)
			if r.onClose != nil {
				r.onClose()
			}
		}
	}
	r.mu.Unlock()

	for _, ctrl := range stale {
		if _, err := ctrl.Exit(ctx); err != nil {
			logger.Warn("failed to save evicted session", "session", ctrl.SessionID(), "err", err)
		}
	}
	return len(stale)
}
