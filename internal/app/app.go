// Package app is the root of the terminal UI.
package app

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/phasegate/internal/screen"
	"github.com/abhisek/phasegate/internal/screens/home"
	"github.com/abhisek/phasegate/internal/session"
	"github.com/abhisek/phasegate/internal/store"
	"github.com/abhisek/phasegate/internal/ui/layout"
)

// Deps carries what the UI needs to open lessons.
type Deps struct {
	Opener    *session.Opener
	Summaries store.SummaryRepo
	LearnerID string
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	screens *stack
	learner string
	width   int
	height  int
}

// NewAppModel creates an AppModel showing the lesson list.
func NewAppModel(deps Deps) AppModel {
	return AppModel{
		screens: newStack(home.New(deps.Opener, deps.Summaries, deps.LearnerID)),
		learner: deps.LearnerID,
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.screens.active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.screens.closeAll()
			return m, tea.Quit
		case "esc":
			if h, ok := m.screens.active().(screen.EscapeHandler); ok && h.HandlesEscape() {
				break
			}
			if m.screens.depth() > 1 {
				return m, screen.Pop()
			}
			return m, nil
		}
	}

	cmd := m.screens.update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	v.ReportFocus = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	active := m.screens.active()
	f := layout.Frame{Title: active.Title(), Learner: m.learner}
	if b, ok := active.(screen.Badger); ok {
		f.Badge = b.Badge()
	}
	switch kh, ok := active.(screen.KeyHintProvider); {
	case ok:
		f.Hints = kh.KeyHints()
	case m.screens.depth() > 1:
		f.Hints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	body := ""
	if !layout.TooSmall(m.width, m.height) {
		body = active.View(m.width, f.BodyHeight(m.width, m.height))
	}
	v.SetContent(f.Render(body, m.width, m.height))
	return v
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(deps Deps) error {
	p := tea.NewProgram(NewAppModel(deps))
	_, err := p.Run()
	return err
}
