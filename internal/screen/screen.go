// Package screen defines the screens of the terminal UI and the messages
// they use to navigate.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/phasegate/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first shown.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Badger is implemented by screens with state worth showing in the header,
// such as the current phase of a lesson.
type Badger interface {
	Badge() string
}

// Refresher is implemented by screens that reload state when they become
// active again after the screen above them closes.
type Refresher interface {
	Refresh() tea.Cmd
}

// EscapeHandler is implemented by screens that handle Esc themselves
// instead of letting the app pop them.
type EscapeHandler interface {
	HandlesEscape() bool
}

// Closer is implemented by screens holding resources that must be released
// when the program quits.
type Closer interface {
	Close()
}

// PushMsg shows a screen on top of the current one.
type PushMsg struct {
	Screen Screen
}

// PopMsg closes the current screen.
type PopMsg struct{}

// ReplaceMsg swaps the current screen for another.
type ReplaceMsg struct {
	Screen Screen
}

// Push returns a command that pushes s.
func Push(s Screen) tea.Cmd {
	return func() tea.Msg { return PushMsg{Screen: s} }
}

// Pop returns a command that pops the current screen.
func Pop() tea.Cmd {
	return func() tea.Msg { return PopMsg{} }
}

// Replace returns a command that replaces the current screen with s.
func Replace(s Screen) tea.Cmd {
	return func() tea.Msg { return ReplaceMsg{Screen: s} }
}
