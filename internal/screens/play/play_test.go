package play

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/phasegate/internal/content"
	"github.com/abhisek/phasegate/internal/engine"
	"github.com/abhisek/phasegate/internal/phase"
	"github.com/abhisek/phasegate/internal/screen"
	"github.com/abhisek/phasegate/internal/session"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func testPlayScreen(t *testing.T) (*PlayScreen, *testClock) {
	t.Helper()
	catalog, err := content.Builtin()
	if err != nil {
		t.Fatalf("builtin catalog: %v", err)
	}
	clock := &testClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	o := &session.Opener{Catalog: catalog, Clock: clock.Now}
	opened, err := o.Open(context.Background(), session.Request{LearnerID: "ana", LessonID: "fractions-101"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s := New(opened.Controller, false)
	s.clock = clock.Now
	s.shownAt = clock.Now()
	return s, clock
}

func feedbackText(s *PlayScreen) string {
	var parts []string
	for _, l := range s.feedback {
		parts = append(parts, l.text)
	}
	return strings.Join(parts, "\n")
}

// answerCorrectly answers the pending item with its correct option after a
// varied think time.
func answerCorrectly(t *testing.T, s *PlayScreen, clock *testClock, wait time.Duration) {
	t.Helper()
	if s.pending.Item == nil {
		t.Fatalf("no pending item in %s", s.status.Phase)
	}
	clock.Advance(wait)
	s.Update(keyPress(rune('1' + s.pending.Item.Correct)))
}

func TestPlayScreen_Title(t *testing.T) {
	s, _ := testPlayScreen(t)
	if s.Title() != "Equivalent Fractions" {
		t.Errorf("Title = %q", s.Title())
	}
}

func TestPlayScreen_View(t *testing.T) {
	s, _ := testPlayScreen(t)
	view := s.View(100, 30)
	if !strings.Contains(view, "item 1 of 4") {
		t.Errorf("view missing item counter:\n%s", view)
	}
}

func TestPlayScreen_TooFastAnswerIsRefused(t *testing.T) {
	s, clock := testPlayScreen(t)

	s.Update(keyPress('1'))
	if s.status.Answered != 0 {
		t.Fatalf("answered = %d, want 0", s.status.Answered)
	}
	if s.mc.Submitted() {
		t.Error("chooser not reset after refusal")
	}
	if !strings.Contains(feedbackText(s), "Slow down") {
		t.Errorf("feedback = %q", feedbackText(s))
	}

	answerCorrectly(t, s, clock, 10*time.Second)
	if s.status.Answered != 1 {
		t.Fatalf("answered = %d, want 1", s.status.Answered)
	}
	if !strings.Contains(feedbackText(s), "Correct!") {
		t.Errorf("feedback = %q", feedbackText(s))
	}
	if s.pending.Index != 1 || s.mc.Submitted() {
		t.Errorf("next item not shown: index %d submitted %v", s.pending.Index, s.mc.Submitted())
	}
}

func TestPlayScreen_AdvanceRefusedWithPendingItems(t *testing.T) {
	s, _ := testPlayScreen(t)
	s.Update(specialKey(tea.KeyTab))
	if s.status.Phase != phase.Know {
		t.Fatalf("phase = %s, want KNOW", s.status.Phase)
	}
	if !strings.Contains(feedbackText(s), "Finish every item") {
		t.Errorf("feedback = %q", feedbackText(s))
	}
}

func TestPlayScreen_ThroughLinkIntoDo(t *testing.T) {
	s, clock := testPlayScreen(t)

	for i := 0; i < 4; i++ {
		answerCorrectly(t, s, clock, time.Duration(10+3*i)*time.Second)
	}
	s.Update(specialKey(tea.KeyTab))
	if s.status.Phase != phase.Link {
		t.Fatalf("phase = %s, want LINK (feedback %q)", s.status.Phase, feedbackText(s))
	}

	// The overview needs a minimum dwell.
	s.Update(specialKey(tea.KeyTab))
	if s.status.Phase != phase.Link {
		t.Fatal("left LINK without dwelling")
	}
	clock.Advance(25 * time.Second)
	s.Update(specialKey(tea.KeyTab))
	if s.status.Phase != phase.Do {
		t.Fatalf("phase = %s, want DO (feedback %q)", s.status.Phase, feedbackText(s))
	}

	s.Update(tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
	if !s.playing {
		t.Fatal("space did not start playback")
	}
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		s.Update(tickMsg(clock.Now()))
	}
	if s.watched <= 0 || s.status.Watched <= 0 {
		t.Errorf("watched = %v, status = %v", s.watched, s.status.Watched)
	}

	s.Update(tea.BlurMsg{})
	if s.ctrl.Summary().ViolationCount == 0 {
		t.Error("focus loss in DO not recorded")
	}
}

func TestPlayScreen_QuitConfirm(t *testing.T) {
	s, _ := testPlayScreen(t)

	var scr screen.Screen = s
	scr, _ = scr.Update(specialKey(tea.KeyEscape))
	ps := scr.(*PlayScreen)
	if !ps.quitConfirm {
		t.Fatal("expected quit confirmation")
	}
	scr, _ = ps.Update(keyPress('n'))
	if scr.(*PlayScreen).quitConfirm {
		t.Fatal("expected quit confirmation to be dismissed")
	}

	scr.Update(specialKey(tea.KeyEscape))
	_, cmd := scr.Update(keyPress('y'))
	if cmd == nil {
		t.Fatal("expected an exit command")
	}
	msg := cmd()
	exited, ok := msg.(exitedMsg)
	if !ok {
		t.Fatalf("msg = %T, want exitedMsg", msg)
	}
	if exited.Err != nil || exited.Summary.Completed {
		t.Errorf("exited = %+v", exited)
	}

	_, cmd = scr.Update(exited)
	if cmd == nil {
		t.Fatal("expected a replace command")
	}
	if _, ok := cmd().(screen.ReplaceMsg); !ok {
		t.Error("expected the summary to replace the lesson")
	}
}

func TestPlayScreen_KeyHints(t *testing.T) {
	s, _ := testPlayScreen(t)
	hints := s.KeyHints()
	if len(hints) != 3 || hints[1].Description != "Answer" {
		t.Errorf("hints = %+v", hints)
	}
}

func TestDescribe(t *testing.T) {
	yes, no := true, false
	score := 85.0
	tests := []struct {
		name string
		in   engine.Outcome
		want string
	}{
		{"correct", engine.Outcome{Correct: &yes}, "Correct!"},
		{"wrong", engine.Outcome{Correct: &no}, "Not quite."},
		{"passed", engine.Outcome{Granted: true, Score: &score, From: phase.Sync, Phase: phase.Reflect}, "SYNC passed with 85. On to REFLECT."},
		{"locked", engine.Outcome{Accepted: true, Correct: &no, LockFor: 60 * time.Second}, "locked for 60s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := describe(tt.in)
			if len(lines) == 0 || !strings.Contains(lines[0].text, tt.want) {
				t.Errorf("describe = %+v, want %q", lines, tt.want)
			}
		})
	}
	if lines := describe(engine.Outcome{}); len(lines) != 0 {
		t.Errorf("empty outcome described as %+v", lines)
	}
}

func TestPlayScreen_Badge(t *testing.T) {
	s, _ := testPlayScreen(t)
	if s.Badge() != "KNOW" {
		t.Errorf("Badge = %q", s.Badge())
	}
	s.status.Locked, s.status.LockSecondsRemaining = true, 42
	if s.Badge() != "KNOW · locked 42s" {
		t.Errorf("locked Badge = %q", s.Badge())
	}
}
