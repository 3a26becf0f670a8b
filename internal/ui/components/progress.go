package components

import (
	"fmt"
	"math"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/phasegate/internal/phase"
	"github.com/abhisek/phasegate/internal/ui/theme"
)

// ProgressBar is a one-line gauge: label, bar, then optionally the percent.
type ProgressBar struct {
	Label       string
	Percent     float64 // 0..1
	ShowPercent bool
	Width       int

	// Mark draws a tick at a fraction in 0..1, e.g. the required watch.
	// Negative means no tick.
	Mark float64
}

func NewProgressBar(label string, percent float64, showPercent bool, width int) ProgressBar {
	return ProgressBar{Label: label, Percent: percent, ShowPercent: showPercent, Width: width, Mark: -1}
}

var (
	barFill  = lipgloss.NewStyle().Foreground(theme.Secondary)
	barEmpty = lipgloss.NewStyle().Foreground(theme.Border)
	barTick  = lipgloss.NewStyle().Foreground(theme.Warning).Bold(true)
)

func (p ProgressBar) View() string {
	var b strings.Builder
	if p.Label != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label))
		b.WriteString("  ")
	}
	pct := ""
	if p.ShowPercent {
		pct = fmt.Sprintf("  %4d%%", int(math.Round(p.Percent*100)))
	}

	cells := max(4, p.Width-lipgloss.Width(b.String())-lipgloss.Width(pct))
	filled := max(0, min(cells, int(float64(cells)*p.Percent)))
	mark := -1
	if p.Mark >= 0 && p.Mark <= 1 {
		mark = min(cells-1, int(float64(cells)*p.Mark))
	}

	b.WriteString(barFill.Render(strings.Repeat("█", filled)))
	if mark >= filled {
		b.WriteString(barEmpty.Render(strings.Repeat("░", mark-filled)))
		b.WriteString(barTick.Render("┃"))
		b.WriteString(barEmpty.Render(strings.Repeat("░", cells-mark-1)))
	} else {
		b.WriteString(barEmpty.Render(strings.Repeat("░", cells-filled)))
	}
	if pct != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(pct))
	}
	return b.String()
}

// PhaseRail shows the seven phases in order with the current one
// highlighted and the passed ones checked.
type PhaseRail struct {
	Current   phase.ID
	Completed bool
}

// View renders the rail.
func (r PhaseRail) View() string {
	parts := make([]string, 0, len(phase.All()))
	for _, id := range phase.All() {
		switch {
		case r.Completed || id < r.Current:
			parts = append(parts, lipgloss.NewStyle().Foreground(theme.Success).Render("✓ "+id.String()))
		case id == r.Current:
			parts = append(parts, lipgloss.NewStyle().
				Foreground(theme.PhaseColor(id)).
				Bold(true).
				Underline(true).
				Render(id.String()))
		default:
			parts = append(parts, lipgloss.NewStyle().Foreground(theme.TextDim).Render(id.String()))
		}
	}
	sep := lipgloss.NewStyle().Foreground(theme.Border).Render(" ─ ")
	return strings.Join(parts, sep)
}
