package summary

import (
	"fmt"
	"image/color"
	"sort"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/abhisek/phasegate/internal/engine"
	"github.com/abhisek/phasegate/internal/screen"
	"github.com/abhisek/phasegate/internal/signal"
	"github.com/abhisek/phasegate/internal/ui/components"
	"github.com/abhisek/phasegate/internal/ui/layout"
	"github.com/abhisek/phasegate/internal/ui/theme"
)

// SummaryScreen displays the end-of-lesson record.
type SummaryScreen struct {
	summary engine.Summary
	title   string
	errMsg  string
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)
var _ screen.Badger = (*SummaryScreen)(nil)

// New creates a new SummaryScreen. A non-nil err is shown as a warning that
// progress may not have been saved.
func New(sum engine.Summary, lessonTitle string, err error) *SummaryScreen {
	s := &SummaryScreen{summary: sum, title: lessonTitle}
	if err != nil {
		s.errMsg = err.Error()
	}
	return s
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Lesson Summary"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Continue"},
		{Key: "Esc", Description: "Lessons"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "enter", "esc":
			return s, screen.Pop()
		}
	}
	return s, nil
}

func (s *SummaryScreen) Badge() string {
	if !s.summary.Completed {
		return "saved"
	}
	return strings.ToUpper(string(s.summary.Tier))
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary

	heading := "Progress saved"
	if sum.Completed {
		heading = "Lesson complete!"
	}
	lines := []string{
		layout.Center(heading, width, theme.Primary, true),
		layout.Center(s.title, width, theme.TextDim, false),
		"",
	}

	// Side by side from 90 columns, stacked below that.
	cardWidth, join := min(46, (width-6)/2), lipgloss.JoinHorizontal
	if width < 90 {
		cardWidth, join = min(width-4, 60), lipgloss.JoinVertical
	}
	results := theme.Card.Width(cardWidth).Render(s.results())
	profile := theme.Card.Width(cardWidth).Render(
		"Learner profile\n\n" + renderProfile(sum.Profile, cardWidth-theme.Card.GetHorizontalFrameSize()))
	cards := join(lipgloss.Top, results, "  ", profile)
	lines = append(lines, lipgloss.PlaceHorizontal(width, lipgloss.Center, cards))

	switch {
	case s.errMsg != "":
		lines = append(lines, "", layout.Center("Could not save progress: "+s.errMsg, width, theme.Error, false))
	case !sum.Completed:
		lines = append(lines, "", layout.Center("Resume any time from the lesson list.", width, theme.TextDim, false))
	}
	return "\n" + strings.Join(lines, "\n")
}

// results is the score card: the tier line, then a label/value table.
func (s *SummaryScreen) results() string {
	sum := s.summary
	label := lipgloss.NewStyle().Foreground(theme.TextDim).PaddingRight(2)
	value := lipgloss.NewStyle().Foreground(theme.Text)

	t := table.New().
		BorderTop(false).BorderBottom(false).BorderLeft(false).BorderRight(false).
		BorderColumn(false).BorderRow(false).BorderHeader(false).
		StyleFunc(func(_, col int) lipgloss.Style {
			if col == 0 {
				return label
			}
			return value
		})

	var top string
	if sum.Completed {
		top = lipgloss.NewStyle().Foreground(tierColor(sum.Tier)).Bold(true).
			Render(strings.ToUpper(string(sum.Tier)) + " tier")
		t.Row("Before", fmt.Sprintf("%.0f", sum.Pre))
		t.Row("After", fmt.Sprintf("%.0f", sum.Post))
		t.Row("Gain", fmt.Sprintf("%+.0f", sum.Delta))
	} else {
		top = theme.Locked.Render("Stopped at " + sum.FinalPhase.String())
	}
	secs := int(sum.Elapsed.Seconds())
	t.Row("Time", fmt.Sprintf("%d:%02d", secs/60, secs%60))
	t.Row("Reviews", fmt.Sprint(sum.RewindAttempts))
	t.Row("Flags", fmt.Sprint(sum.ViolationCount))

	out := top + "\n\n" + t.Render()
	if sum.Completed && sum.SuspiciousReplay {
		out += "\n\n" + lipgloss.NewStyle().Foreground(theme.Warning).
			Render("Answers matched the pre-assessment exactly. Flagged for review.")
	}
	return out
}

// renderProfile draws one bar per dimension, ordered by label.
func renderProfile(p signal.Profile, width int) string {
	dims := signal.AllDimensions()
	sort.SliceStable(dims, func(i, j int) bool { return dims[i].Label() < dims[j].Label() })

	lines := make([]string, 0, len(dims))
	for _, d := range dims {
		bar := components.NewProgressBar(fmt.Sprintf("%-11s", d.Label()), float64(p.Get(d))/100, true, width)
		lines = append(lines, bar.View())
	}
	return strings.Join(lines, "\n")
}

func tierColor(t engine.Tier) color.Color {
	switch t {
	case engine.TierGold:
		return theme.Accent
	case engine.TierSilver:
		return theme.Text
	default:
		return theme.Secondary
	}
}
