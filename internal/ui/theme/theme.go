// Package theme holds the terminal palette and shared styles.
package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/phasegate/internal/phase"
)

var (
	Primary   = lipgloss.Color("#6366F1") // indigo: instruction phases
	Secondary = lipgloss.Color("#0EA5E9") // sky: scored checkpoints
	Accent    = lipgloss.Color("#F59E0B") // amber: quizzes
	Success   = lipgloss.Color("#10B981")
	Warning   = lipgloss.Color("#FBBF24")
	Error     = lipgloss.Color("#EF4444")

	Text    = lipgloss.Color("#E5E7EB")
	TextDim = lipgloss.Color("#9CA3AF")
	BgCard  = lipgloss.Color("#111827")
	Border  = lipgloss.Color("#374151")
)

var (
	Title    = lipgloss.NewStyle().Bold(true).Foreground(Primary).Align(lipgloss.Center)
	Subtitle = lipgloss.NewStyle().Foreground(TextDim).Align(lipgloss.Center)
	Body     = lipgloss.NewStyle().Foreground(Text)
	Hint     = lipgloss.NewStyle().Foreground(TextDim).Italic(true)

	Card = lipgloss.NewStyle().
		Background(BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)
)

// Choice and verdict styles.
var (
	Selected   = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	Unselected = lipgloss.NewStyle().Foreground(Text)
	Correct    = lipgloss.NewStyle().Foreground(Success).Bold(true)
	Incorrect  = lipgloss.NewStyle().Foreground(Error).Bold(true)
	// Locked marks anything the learner is waiting out.
	Locked = lipgloss.NewStyle().Foreground(Warning).Bold(true)
)

// PhaseColor is the color a phase is drawn in on the rail and badges.
func PhaseColor(id phase.ID) color.Color {
	if id.IsAssessment() {
		return Accent
	}
	if id.IsCheckpoint() {
		return Secondary
	}
	return Primary
}
