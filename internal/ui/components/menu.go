package components

import (
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/phasegate/internal/ui/theme"
)

// MenuItem is one selectable row.
type MenuItem struct {
	Label string
	// Detail is shown under the row while it is selected.
	Detail string
	// Tag is right-aligned on the row, e.g. "resume at SYNC".
	Tag      string
	Action   func() tea.Cmd
	Disabled bool
}

// MenuKeys are the menu's bindings.
type MenuKeys struct {
	Up, Down, Choose key.Binding
}

var DefaultMenuKeys = MenuKeys{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Choose: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "choose")),
}

// Menu is a vertical list whose cursor skips disabled rows and wraps at
// either end.
type Menu struct {
	Items    []MenuItem
	Selected int
	Keys     MenuKeys
}

func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items, Selected: -1, Keys: DefaultMenuKeys}
	m.move(1)
	return m
}

// move steps the cursor by dir to the next enabled row. With no enabled
// rows the cursor stays put.
func (m *Menu) move(dir int) {
	n := len(m.Items)
	for step := 1; step <= n; step++ {
		i := ((m.Selected+dir*step)%n + n) % n
		if !m.Items[i].Disabled {
			m.Selected = i
			return
		}
	}
	if m.Selected < 0 {
		m.Selected = 0
	}
}

func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok || len(m.Items) == 0 {
		return m, nil
	}
	switch {
	case key.Matches(k, m.Keys.Up):
		m.move(-1)
	case key.Matches(k, m.Keys.Down):
		m.move(1)
	case key.Matches(k, m.Keys.Choose):
		if it := m.Items[m.Selected]; !it.Disabled && it.Action != nil {
			return m, it.Action()
		}
	}
	return m, nil
}

// View renders rows padded to width so tags line up.
func (m Menu) View(width int) string {
	dim := lipgloss.NewStyle().Foreground(theme.Border)
	tag := lipgloss.NewStyle().Foreground(theme.TextDim)

	rows := make([]string, 0, len(m.Items))
	for i, it := range m.Items {
		label, style := "  "+it.Label, theme.Unselected
		switch {
		case it.Disabled:
			style = dim
		case i == m.Selected:
			label, style = "▸ "+it.Label, theme.Selected
		}
		row := style.Render(label)
		if it.Tag != "" {
			gap := max(2, width-lipgloss.Width(label)-lipgloss.Width(it.Tag))
			row += strings.Repeat(" ", gap) + tag.Render(it.Tag)
		}
		rows = append(rows, row)
		if i == m.Selected && it.Detail != "" {
			rows = append(rows, theme.Hint.Render("  "+it.Detail))
		}
	}
	return strings.Join(rows, "\n")
}
