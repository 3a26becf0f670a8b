// Package play is the lesson screen: it renders the work pending in the
// current phase and reports every learner action to the controller.
package play

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/phasegate/internal/engine"
	"github.com/abhisek/phasegate/internal/phase"
	"github.com/abhisek/phasegate/internal/screen"
	"github.com/abhisek/phasegate/internal/screens/summary"
	"github.com/abhisek/phasegate/internal/session"
	"github.com/abhisek/phasegate/internal/ui/components"
	"github.com/abhisek/phasegate/internal/ui/layout"
)

// PlayScreen implements screen.Screen for an open lesson.
type PlayScreen struct {
	ctrl    *engine.Controller
	title   string
	resumed bool
	clock   func() time.Time

	status  engine.Status
	pending session.Pending

	// Quiz item state. itemKey identifies the item the chooser was built
	// for so it is only rebuilt when the pending item changes.
	mc      components.MultiChoice
	itemKey string
	shownAt time.Time

	// DO playback.
	playing bool
	watched float64

	// SYNC selections: choice[i] is the displayed right-hand index picked
	// for left item i.
	choice      []int
	matchCursor int

	input   components.TextInput
	grading bool

	feedback    []feedbackLine
	quitConfirm bool
	exiting     bool
}

var _ screen.Screen = (*PlayScreen)(nil)
var _ screen.KeyHintProvider = (*PlayScreen)(nil)
var _ screen.EscapeHandler = (*PlayScreen)(nil)
var _ screen.Closer = (*PlayScreen)(nil)
var _ screen.Badger = (*PlayScreen)(nil)

// New creates a PlayScreen over an open controller.
func New(ctrl *engine.Controller, resumed bool) *PlayScreen {
	s := &PlayScreen{
		ctrl:    ctrl,
		title:   ctrl.Machine().Lesson().Title,
		resumed: resumed,
		clock:   time.Now,
	}
	s.refresh()
	if resumed {
		s.feedback = []feedbackLine{{text: "Welcome back! Picking up at " + s.status.PhaseName + ".", kind: toneInfo}}
	}
	return s
}

func (s *PlayScreen) Init() tea.Cmd {
	if s.pending.Reflection != nil {
		return tea.Batch(tickCmd(), s.input.Init())
	}
	return tickCmd()
}

func (s *PlayScreen) Title() string {
	return s.title
}

// Badge names the phase, or the lock when one is running.
func (s *PlayScreen) Badge() string {
	switch {
	case s.status.Completed:
		return "MASTERED"
	case s.status.Locked:
		return fmt.Sprintf("%s · locked %ds", s.status.Phase, s.status.LockSecondsRemaining)
	case s.status.Remediating:
		return fmt.Sprintf("%s · review", s.status.Phase)
	}
	return s.status.Phase.String()
}

func (s *PlayScreen) HandlesEscape() bool {
	return true
}

func (s *PlayScreen) KeyHints() []layout.KeyHint {
	if s.quitConfirm {
		return []layout.KeyHint{
			{Key: "Y", Description: "Save and leave"},
			{Key: "N", Description: "Keep going"},
		}
	}
	hints := []layout.KeyHint{{Key: "Tab", Description: "Continue"}}
	switch s.status.Phase {
	case phase.Know, phase.Prove, phase.Master:
		hints = append(hints, layout.KeyHint{Key: "1-9/Enter", Description: "Answer"})
	case phase.Do:
		hints = append(hints, layout.KeyHint{Key: "Space", Description: "Play/Pause"})
	case phase.Sync:
		hints = append(hints,
			layout.KeyHint{Key: "↑↓", Description: "Row"},
			layout.KeyHint{Key: "←→", Description: "Match"},
			layout.KeyHint{Key: "Enter", Description: "Submit"})
	case phase.Reflect:
		hints = append(hints, layout.KeyHint{Key: "Ctrl+S", Description: "Submit"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Leave"})
}

func (s *PlayScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return s.handleTick()

	case reflectionGradedMsg:
		s.grading = false
		if msg.Err != nil {
			s.input.Reopen()
			s.feedback = []feedbackLine{{text: "Could not grade the reflection: " + msg.Err.Error(), kind: toneBad}}
			return s, nil
		}
		if !msg.Outcome.Accepted {
			s.input.Reopen()
		}
		return s, s.apply(msg.Outcome)

	case exitedMsg:
		return s, screen.Replace(summary.New(msg.Summary, s.title, msg.Err))

	case tea.BlurMsg:
		return s, s.apply(s.ctrl.ReportVisibilityChange(context.Background(), true))

	case tea.FocusMsg:
		return s, s.apply(s.ctrl.ReportVisibilityChange(context.Background(), false))

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.status.Phase == phase.Reflect && !s.grading {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *PlayScreen) handleTick() (screen.Screen, tea.Cmd) {
	if s.exiting {
		return s, nil
	}
	ctx := context.Background()
	var cmds []tea.Cmd

	if s.playing && s.status.Phase == phase.Do {
		step := 100.0
		if d := s.ctrl.Machine().Lesson().Video.DurationSeconds; d > 0 {
			step = 100.0 / float64(d)
		}
		s.watched = min(100, s.watched+step)
		if s.watched >= 100 {
			s.playing = false
		}
		if cmd := s.apply(s.ctrl.ReportWatchProgress(ctx, s.watched)); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	if cmd := s.apply(s.ctrl.Tick(ctx)); cmd != nil {
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, tickCmd())
	return s, tea.Batch(cmds...)
}

func (s *PlayScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()
	if s.exiting {
		return s, nil
	}

	if s.quitConfirm {
		switch key {
		case "y", "Y":
			s.quitConfirm = false
			return s, s.exit()
		case "n", "N", "esc":
			s.quitConfirm = false
		}
		return s, nil
	}

	switch key {
	case "esc":
		s.quitConfirm = true
		return s, nil
	case "tab":
		return s, s.apply(s.ctrl.AttemptAdvance(context.Background()))
	}

	switch s.status.Phase {
	case phase.Know, phase.Prove, phase.Master:
		return s.handleQuizKey(msg)
	case phase.Do:
		if key == "space" || key == " " {
			s.playing = !s.playing
		}
		return s, nil
	case phase.Sync:
		return s.handleMatchKey(key)
	case phase.Reflect:
		if s.grading {
			return s, nil
		}
		if key == "ctrl+s" {
			return s, s.submitReflection()
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *PlayScreen) handleQuizKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.pending.Item == nil {
		return s, nil
	}
	var cmd tea.Cmd
	s.mc, cmd = s.mc.Update(msg)
	if !s.mc.Submitted() {
		return s, cmd
	}

	latency := s.clock().Sub(s.shownAt)
	o := s.ctrl.SubmitAnswer(context.Background(), s.mc.Chosen, latency)
	if !o.Accepted {
		s.mc.Reset()
	} else if o.Correct != nil {
		s.mc.Mark(*o.Correct)
	}
	return s, tea.Batch(cmd, s.apply(o))
}

func (s *PlayScreen) handleMatchKey(key string) (screen.Screen, tea.Cmd) {
	m := s.pending.Matching
	if m == nil || len(m.Left) == 0 {
		return s, nil
	}
	switch key {
	case "up", "k":
		if s.matchCursor > 0 {
			s.matchCursor--
		}
	case "down", "j":
		if s.matchCursor < len(m.Left)-1 {
			s.matchCursor++
		}
	case "left", "h":
		s.choice[s.matchCursor] = (s.choice[s.matchCursor] + len(m.Right) - 1) % len(m.Right)
	case "right", "l":
		s.choice[s.matchCursor] = (s.choice[s.matchCursor] + 1) % len(m.Right)
	case "enter":
		return s, s.apply(s.ctrl.SubmitMatch(context.Background(), m.Resolve(s.choice)))
	}
	return s, nil
}

// submitReflection grades asynchronously; an LLM-backed grader may take a
// few seconds.
func (s *PlayScreen) submitReflection() tea.Cmd {
	text := s.input.Value()
	if text == "" {
		return nil
	}
	s.grading = true
	s.input.Submit(true)
	ctrl := s.ctrl
	return func() tea.Msg {
		o, err := ctrl.SubmitReflection(context.Background(), text)
		return reflectionGradedMsg{Outcome: o, Err: err}
	}
}

// Close saves progress when the program quits mid-lesson.
func (s *PlayScreen) Close() {
	if s.exiting {
		return
	}
	s.exiting = true
	_, _ = s.ctrl.Exit(context.Background())
}

// exit hands the session to the recorder and shows the summary.
func (s *PlayScreen) exit() tea.Cmd {
	if s.exiting {
		return nil
	}
	s.exiting = true
	s.playing = false
	ctrl := s.ctrl
	return func() tea.Msg {
		sum, err := ctrl.Exit(context.Background())
		return exitedMsg{Summary: sum, Err: err}
	}
}

// apply records the outcome's feedback and re-reads the session view. A
// completed lesson moves on to the summary.
func (s *PlayScreen) apply(o engine.Outcome) tea.Cmd {
	if lines := describe(o); len(lines) > 0 {
		s.feedback = lines
	}
	s.refresh()
	if o.Completion != nil || s.status.Completed {
		return s.exit()
	}
	return nil
}

// refresh re-reads status and pending work, rebuilding the widgets when the
// pending work changed.
func (s *PlayScreen) refresh() {
	prev := s.status.Phase
	s.status = s.ctrl.Status()
	s.pending = session.PendingFor(s.ctrl)

	if s.pending.Item != nil {
		key := s.status.PhaseName + "/" + strconv.Itoa(s.pending.Index)
		if key != s.itemKey || s.status.Phase != prev {
			s.itemKey = key
			s.mc = components.NewMultiChoice(s.pending.Item.Prompt, s.pending.Item.Options)
			s.shownAt = s.clock()
		}
	} else {
		s.itemKey = ""
	}

	if s.status.Phase != prev || s.choice == nil {
		if m := s.pending.Matching; m != nil {
			s.choice = make([]int, len(m.Left))
			for i := range s.choice {
				s.choice[i] = i % max(1, len(m.Right))
			}
			s.matchCursor = 0
		}
		if r := s.pending.Reflection; r != nil {
			s.input = components.NewTextInput("Explain it in your own words...", r.MinLength, 70, 6)
		}
		if s.status.Phase == phase.Do {
			s.watched = s.status.Watched
		}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
