package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abhisek/phasegate/internal/content"
	"github.com/abhisek/phasegate/internal/engine"
	"github.com/abhisek/phasegate/internal/phase"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// memProgress implements store.ProgressRepo for testing.
type memProgress struct {
	saved   map[string]*engine.Session
	deleted []string
}

func (m *memProgress) Save(_ context.Context, s *engine.Session) error {
	if m.saved == nil {
		m.saved = make(map[string]*engine.Session)
	}
	m.saved[s.LearnerID+"/"+s.LessonID] = s
	return nil
}

func (m *memProgress) Latest(_ context.Context, learnerID, lessonID string) (*engine.Session, error) {
	return m.saved[learnerID+"/"+lessonID], nil
}

func (m *memProgress) Delete(_ context.Context, sessionID string) error {
	m.deleted = append(m.deleted, sessionID)
	for k, s := range m.saved {
		if s.ID == sessionID {
			delete(m.saved, k)
		}
	}
	return nil
}

func testOpener(t *testing.T, progress *memProgress) *Opener {
	t.Helper()
	catalog, err := content.Builtin()
	if err != nil {
		t.Fatalf("builtin catalog: %v", err)
	}
	o := &Opener{
		Catalog: catalog,
		Clock:   func() time.Time { return t0 },
	}
	if progress != nil {
		o.Progress = progress
	}
	return o
}

func TestOpen_NewSession(t *testing.T) {
	o := testOpener(t, &memProgress{})
	opened, err := o.Open(context.Background(), Request{LearnerID: "ana", LessonID: "fractions-101"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if opened.Resumed {
		t.Error("expected a new session")
	}
	if got := opened.Controller.Status().Phase; got != phase.Know {
		t.Errorf("phase = %v, want KNOW", got)
	}
}

func TestOpen_UnknownLesson(t *testing.T) {
	o := testOpener(t, nil)
	_, err := o.Open(context.Background(), Request{LearnerID: "ana", LessonID: "nope"})
	var unknown *content.ErrUnknownLesson
	if !errors.As(err, &unknown) {
		t.Fatalf("expected ErrUnknownLesson, got %v", err)
	}
}

func TestOpen_ResumeFreshAndActive(t *testing.T) {
	progress := &memProgress{}
	o := testOpener(t, progress)
	ctx := context.Background()

	first, err := o.Open(ctx, Request{LearnerID: "ana", LessonID: "fractions-101"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := first.Controller.Exit(ctx); err != nil {
		t.Fatalf("exit: %v", err)
	}
	id := first.Controller.SessionID()
	if err := progress.Save(ctx, mustRestore(t, first.Controller)); err != nil {
		t.Fatal(err)
	}

	_, err = o.Open(ctx, Request{
		LearnerID: "ana",
		LessonID:  "fractions-101",
		Live:      func(s string) bool { return s == id },
	})
	var active *ActiveError
	if !errors.As(err, &active) || active.SessionID != id {
		t.Fatalf("expected ActiveError for %s, got %v", id, err)
	}

	resumed, err := o.Open(ctx, Request{LearnerID: "ana", LessonID: "fractions-101"})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !resumed.Resumed || resumed.Controller.SessionID() != id {
		t.Errorf("resumed = %v %s, want %s", resumed.Resumed, resumed.Controller.SessionID(), id)
	}

	fresh, err := o.Open(ctx, Request{LearnerID: "ana", LessonID: "fractions-101", Fresh: true})
	if err != nil {
		t.Fatalf("fresh: %v", err)
	}
	if fresh.Resumed || fresh.Controller.SessionID() == id {
		t.Error("fresh start resumed the saved session")
	}
	if len(progress.deleted) != 1 || progress.deleted[0] != id {
		t.Errorf("deleted = %v", progress.deleted)
	}
}

func mustRestore(t *testing.T, ctrl *engine.Controller) *engine.Session {
	t.Helper()
	data, err := ctrl.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	s, err := engine.RestoreSession(data)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestPendingFor(t *testing.T) {
	o := testOpener(t, nil)
	opened, err := o.Open(context.Background(), Request{LearnerID: "ana", LessonID: "fractions-101"})
	if err != nil {
		t.Fatal(err)
	}
	p := PendingFor(opened.Controller)
	if p.Phase != phase.Know || p.Item == nil || p.Index != 0 || p.Total != 4 {
		t.Errorf("pending = %+v", p)
	}
	if p.Video != nil || p.Matching != nil || p.Reflection != nil {
		t.Error("unexpected non-quiz work in KNOW")
	}
}

func TestMatchingResolve(t *testing.T) {
	pairs := []content.MatchPair{
		{Left: "1/2", Right: "half"},
		{Left: "1/4", Right: "quarter"},
		{Left: "3/4", Right: "three quarters"},
	}
	m := NewMatching(pairs, "s-1")
	again := NewMatching(pairs, "s-1")
	for i := range m.Order {
		if m.Order[i] != again.Order[i] {
			t.Fatalf("order differs for one session: %v vs %v", m.Order, again.Order)
		}
	}

	// Choosing, for each left item, the displayed position of its own
	// partner resolves to the identity matching.
	displayed := make([]int, len(pairs))
	for k, idx := range m.Order {
		displayed[idx] = k
	}
	got := m.Resolve(displayed)
	for i, v := range got {
		if v != i {
			t.Errorf("resolved[%d] = %d, want %d", i, v, i)
		}
	}

	if got := m.Resolve([]int{5, -1}); got[0] != -1 || got[1] != -1 {
		t.Errorf("out of range = %v", got)
	}
}
