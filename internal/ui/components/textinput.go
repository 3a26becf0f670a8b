package components

import (
	"fmt"
	"unicode/utf8"

	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/phasegate/internal/ui/theme"
)

// TextInput wraps a bubbles textarea for free-text answers, with a
// character counter against a minimum length.
type TextInput struct {
	Model     textarea.Model
	MinLength int
	submitted bool
	valid     bool
}

// NewTextInput creates a new styled multi-line input.
func NewTextInput(placeholder string, minLength, width, height int) TextInput {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 2000
	ta.SetWidth(width)
	ta.SetHeight(height)
	ta.Focus()

	return TextInput{
		Model:     ta,
		MinLength: minLength,
	}
}

// Init returns the initial command.
func (t TextInput) Init() tea.Cmd {
	return t.Model.Focus()
}

// Update forwards messages to the textarea until the input is submitted.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if t.submitted {
		return t, nil
	}
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// View renders the input and its counter.
func (t TextInput) View() string {
	view := t.Model.View()

	n := utf8.RuneCountInString(t.Model.Value())
	counterColor := theme.TextDim
	if t.MinLength > 0 && n >= t.MinLength {
		counterColor = theme.Success
	}
	counter := fmt.Sprintf("%d chars", n)
	if t.MinLength > 0 {
		counter = fmt.Sprintf("%d / %d chars", n, t.MinLength)
	}
	view += "\n" + lipgloss.NewStyle().Foreground(counterColor).Render(counter)

	if t.submitted {
		if t.valid {
			view += " " + lipgloss.NewStyle().Foreground(theme.Success).Render("✓")
		} else {
			view += " " + lipgloss.NewStyle().Foreground(theme.Error).Render("✗")
		}
	}
	return view
}

// Value returns the current input value.
func (t TextInput) Value() string {
	return t.Model.Value()
}

// Submitted reports whether Submit has been called.
func (t TextInput) Submitted() bool {
	return t.submitted
}

// Submit marks the input as submitted with a validation result.
func (t *TextInput) Submit(valid bool) {
	t.submitted = true
	t.valid = valid
}

// Reopen allows editing again after a failed submission.
func (t *TextInput) Reopen() {
	t.submitted = false
}
