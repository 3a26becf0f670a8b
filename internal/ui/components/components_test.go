package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

func press(r rune) tea.KeyPressMsg { return tea.KeyPressMsg{Code: r, Text: string(r)} }

func TestProgressBar_View(t *testing.T) {
	tests := []struct {
		name  string
		bar   ProgressBar
		fill  int
		ticks int
	}{
		{"half", NewProgressBar("", 0.5, false, 20), 10, 0},
		{"overflow clamps", NewProgressBar("", 1.7, false, 20), 20, 0},
		{"mark ahead of fill", ProgressBar{Percent: 0.25, Width: 20, Mark: 0.6}, 5, 1},
		{"mark already passed", ProgressBar{Percent: 0.8, Width: 20, Mark: 0.6}, 16, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.bar.View()
			if got := strings.Count(out, "█"); got != tt.fill {
				t.Errorf("filled = %d, want %d", got, tt.fill)
			}
			if got := strings.Count(out, "┃"); got != tt.ticks {
				t.Errorf("ticks = %d, want %d", got, tt.ticks)
			}
			if w := lipgloss.Width(out); w != 20 {
				t.Errorf("width = %d, want 20", w)
			}
		})
	}
}

func TestProgressBar_LabelAndPercent(t *testing.T) {
	out := NewProgressBar("Focus", 0.42, true, 40).View()
	if !strings.Contains(out, "Focus") || !strings.Contains(out, "42%") {
		t.Errorf("bar = %q", out)
	}
	if w := lipgloss.Width(out); w != 40 {
		t.Errorf("width = %d, want 40", w)
	}
}

func TestMenu_SkipsDisabledAndWraps(t *testing.T) {
	m := NewMenu([]MenuItem{
		{Label: "A", Disabled: true},
		{Label: "B"},
		{Label: "C"},
	})
	if m.Selected != 1 {
		t.Fatalf("initial = %d, want first enabled row", m.Selected)
	}
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	if m.Selected != 2 {
		t.Errorf("up from the top = %d, want wrap to 2", m.Selected)
	}
	m, _ = m.Update(press('j'))
	if m.Selected != 1 {
		t.Errorf("down from the bottom = %d, want wrap past the disabled row to 1", m.Selected)
	}
}

func TestMenu_ChooseRunsAction(t *testing.T) {
	ran := false
	m := NewMenu([]MenuItem{{Label: "Go", Action: func() tea.Cmd { ran = true; return nil }}})
	m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if !ran {
		t.Error("action not run")
	}
}

func TestMenu_ViewAlignsTags(t *testing.T) {
	m := NewMenu([]MenuItem{{Label: "Fractions", Tag: "resume at DO"}, {Label: "Ratios", Tag: "mastered · gold"}})
	lines := strings.Split(m.View(50), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d", len(lines))
	}
	for _, l := range lines {
		if w := lipgloss.Width(l); w != 50 {
			t.Errorf("row %q is %d wide, want 50", l, w)
		}
	}
}

func TestMultiChoice_Keys(t *testing.T) {
	mc := NewMultiChoice("Which is larger?", []string{"1/2", "1/3", "1/4"})
	mc, _ = mc.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	mc, _ = mc.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	mc, _ = mc.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if mc.Selected != 2 {
		t.Errorf("selected = %d, want clamped at 2", mc.Selected)
	}
	mc, _ = mc.Update(press('1'))
	if !mc.Submitted() || mc.Chosen != 0 {
		t.Fatalf("digit shortcut chose %d", mc.Chosen)
	}
	mc, _ = mc.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if mc.Selected != 0 {
		t.Error("keys move the cursor after submitting")
	}

	mc.Mark(false)
	if !strings.Contains(mc.View(), "1/2") {
		t.Error("view lost the options")
	}
	mc.Reset()
	if mc.Submitted() {
		t.Error("Reset kept the choice")
	}
}
