// Package layout draws the chrome around a screen.
package layout

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/phasegate/internal/ui/theme"
)

// The lesson screen needs room for a question, four options and the phase rail.
const (
	MinWidth  = 80
	MinHeight = 24
)

// KeyHint is one footer entry.
type KeyHint struct {
	Key         string
	Description string
}

// Frame is the chrome of one render: a header bar, the body and a footer of
// key hints.
type Frame struct {
	Title   string
	Learner string
	// Badge is screen state shown before the learner, e.g. the current phase.
	Badge string
	Hints []KeyHint
}

// TooSmall reports whether the terminal is below the minimum size.
func TooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// BodyHeight is what remains for the body after header and footer.
func (f Frame) BodyHeight(width, height int) int {
	return max(0, height-lipgloss.Height(f.header(width))-lipgloss.Height(f.footer(width)))
}

// Render draws the frame around body. Undersized terminals get a resize
// notice instead.
func (f Frame) Render(body string, width, height int) string {
	if TooSmall(width, height) {
		return lipgloss.NewStyle().
			Width(width).Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.Text).
			Render(fmt.Sprintf("Phasegate needs at least %d×%d.\nThis terminal is %d×%d.",
				MinWidth, MinHeight, width, height))
	}

	header, footer := f.header(width), f.footer(width)
	body = lipgloss.NewStyle().
		Width(width).
		Height(f.BodyHeight(width, height)).
		MaxHeight(f.BodyHeight(width, height)).
		Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

var bar = lipgloss.NewStyle().
	Background(theme.BgCard).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(theme.Border).
	Padding(0, 1)

func (f Frame) header(width int) string {
	inner := max(0, width-bar.GetHorizontalFrameSize())

	left := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("Phasegate")
	title := lipgloss.NewStyle().Foreground(theme.Text).Render(f.Title)

	var right []string
	if f.Badge != "" {
		right = append(right, lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render(f.Badge))
	}
	if f.Learner != "" {
		right = append(right, lipgloss.NewStyle().Foreground(theme.Accent).Render("● "+f.Learner))
	}
	rightSide := strings.Join(right, "  ")

	// Title is centered on the bar, not on the gap between the sides.
	lw, tw, rw := lipgloss.Width(left), lipgloss.Width(title), lipgloss.Width(rightSide)
	gapL := max(1, (inner-tw)/2-lw)
	gapR := max(1, inner-lw-gapL-tw-rw)
	line := left + strings.Repeat(" ", gapL) + title + strings.Repeat(" ", gapR) + rightSide

	return bar.Width(width).Render(line)
}

func (f Frame) footer(width int) string {
	key := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	desc := lipgloss.NewStyle().Foreground(theme.TextDim)

	parts := make([]string, len(f.Hints))
	for i, h := range f.Hints {
		parts[i] = key.Render(h.Key) + " " + desc.Render(h.Description)
	}
	return bar.Width(width).Render(strings.Join(parts, "   "))
}

// Center renders s centered across width.
func Center(s string, width int, fg color.Color, bold bool) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(fg).
		Bold(bold).
		Render(s)
}
