package components

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/phasegate/internal/ui/theme"
)

// MultiChoice is a multiple-choice selector. The correct option is not
// known to the UI; Mark records the verdict once the engine has graded the
// chosen option.
type MultiChoice struct {
	Question string
	Options  []string
	Selected int

	// Chosen is the submitted option, -1 until Enter or a digit is pressed.
	Chosen  int
	verdict *bool
}

// NewMultiChoice creates a new multiple-choice component.
func NewMultiChoice(question string, options []string) MultiChoice {
	return MultiChoice{
		Question: question,
		Options:  options,
		Chosen:   -1,
	}
}

// Submitted reports whether an option has been chosen.
func (m MultiChoice) Submitted() bool {
	return m.Chosen >= 0
}

// Mark records the graded verdict of the chosen option.
func (m *MultiChoice) Mark(correct bool) {
	m.verdict = &correct
}

// Reset clears the choice so the item can be answered again.
func (m *MultiChoice) Reset() {
	m.Chosen = -1
	m.verdict = nil
}

// Update handles arrow navigation, Enter and digit shortcuts.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Submitted() {
		return m, nil
	}
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	keys := DefaultMenuKeys
	switch s := kmsg.String(); {
	case key.Matches(kmsg, keys.Up):
		m.Selected = max(0, m.Selected-1)
	case key.Matches(kmsg, keys.Down):
		m.Selected = min(len(m.Options)-1, m.Selected+1)
	case key.Matches(kmsg, keys.Choose):
		if len(m.Options) > 0 {
			m.Chosen = m.Selected
		}
	case len(s) == 1 && s[0] >= '1' && s[0] <= '9':
		// Digits choose directly.
		if i := int(s[0] - '1'); i < len(m.Options) {
			m.Selected, m.Chosen = i, i
		}
	}
	return m, nil
}

// View renders the question and its options.
func (m MultiChoice) View() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(m.Question))
	b.WriteString("\n\n")

	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Selected && !m.Submitted() {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%d)  %s", prefix, i+1, opt)

		var style lipgloss.Style
		switch {
		case m.Submitted() && i == m.Chosen && m.verdict != nil && *m.verdict:
			style = theme.Correct
		case m.Submitted() && i == m.Chosen && m.verdict != nil:
			style = theme.Incorrect
		case m.Submitted() && i == m.Chosen:
			style = theme.Selected
		case m.Submitted():
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == m.Selected:
			style = theme.Selected
		default:
			style = theme.Unselected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
