package app

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/phasegate/internal/screen"
)

// stack holds the open screens, topmost last.
type stack struct {
	screens []screen.Screen
}

func newStack(initial screen.Screen) *stack {
	return &stack{screens: []screen.Screen{initial}}
}

func (s *stack) push(sc screen.Screen) tea.Cmd {
	s.screens = append(s.screens, sc)
	return sc.Init()
}

// pop removes the top screen and refreshes the one revealed. The bottom
// screen is never removed.
func (s *stack) pop() tea.Cmd {
	if len(s.screens) == 1 {
		return nil
	}
	s.screens = s.screens[:len(s.screens)-1]
	if r, ok := s.active().(screen.Refresher); ok {
		return r.Refresh()
	}
	return nil
}

func (s *stack) replace(sc screen.Screen) tea.Cmd {
	s.screens[len(s.screens)-1] = sc
	return sc.Init()
}

func (s *stack) active() screen.Screen {
	return s.screens[len(s.screens)-1]
}

func (s *stack) depth() int {
	return len(s.screens)
}

// update handles navigation messages and forwards the rest to the active
// screen.
func (s *stack) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case screen.PushMsg:
		return s.push(msg.Screen)
	case screen.PopMsg:
		return s.pop()
	case screen.ReplaceMsg:
		return s.replace(msg.Screen)
	}

	updated, cmd := s.active().Update(msg)
	s.screens[len(s.screens)-1] = updated
	return cmd
}

// closeAll releases every open screen, topmost first.
func (s *stack) closeAll() {
	for i := len(s.screens) - 1; i >= 0; i-- {
		if c, ok := s.screens[i].(screen.Closer); ok {
			c.Close()
		}
	}
}
