// Package history lists a learner's past lessons.
package history

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/abhisek/phasegate/internal/engine"
	"github.com/abhisek/phasegate/internal/screen"
	"github.com/abhisek/phasegate/internal/signal"
	"github.com/abhisek/phasegate/internal/store"
	"github.com/abhisek/phasegate/internal/ui/layout"
	"github.com/abhisek/phasegate/internal/ui/theme"
)

const listLimit = 50

type loadedMsg struct {
	summaries []engine.Summary
	err       error
}

var keys = struct {
	Up, Down, Details key.Binding
}{
	Up:      key.NewBinding(key.WithKeys("up", "k")),
	Down:    key.NewBinding(key.WithKeys("down", "j")),
	Details: key.NewBinding(key.WithKeys("enter")),
}

type HistoryScreen struct {
	repo      store.SummaryRepo
	learnerID string

	summaries []engine.Summary
	cursor    int
	details   bool
	loaded    bool
	err       error
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)
var _ screen.Badger = (*HistoryScreen)(nil)

func New(repo store.SummaryRepo, learnerID string) *HistoryScreen {
	return &HistoryScreen{repo: repo, learnerID: learnerID, details: true}
}

func (s *HistoryScreen) Init() tea.Cmd {
	repo, learner := s.repo, s.learnerID
	return func() tea.Msg {
		if repo == nil {
			return loadedMsg{}
		}
		sums, err := repo.List(context.Background(), learner, listLimit)
		return loadedMsg{summaries: sums, err: err}
	}
}

func (s *HistoryScreen) Title() string { return "History" }

func (s *HistoryScreen) Badge() string {
	if !s.loaded || s.err != nil {
		return ""
	}
	done := 0
	for _, sum := range s.summaries {
		if sum.Completed {
			done++
		}
	}
	return fmt.Sprintf("%d/%d mastered", done, len(s.summaries))
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Toggle details"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.summaries, s.err, s.loaded = msg.summaries, msg.err, true
		s.cursor = 0

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			s.cursor = max(0, s.cursor-1)
		case key.Matches(msg, keys.Down):
			s.cursor = max(0, min(len(s.summaries)-1, s.cursor+1))
		case key.Matches(msg, keys.Details):
			s.details = !s.details
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	switch {
	case s.err != nil:
		return layout.Center("\n\nCould not load history: "+s.err.Error(), width, theme.Error, false)
	case !s.loaded:
		return layout.Center("\n\nLoading history...", width, theme.TextDim, false)
	case len(s.summaries) == 0:
		return layout.Center("\n\nNo lessons yet. Pick one from the lesson list.", width, theme.TextDim, false)
	}

	var panel string
	if s.details {
		panel = theme.Card.Width(min(width-4, 96)).Render(detail(s.summaries[s.cursor]))
	}
	// Header, its rule and a blank line above the panel.
	rows := max(1, height-lipgloss.Height(panel)-4)
	from, to := window(len(s.summaries), s.cursor, rows)

	out := lipgloss.PlaceHorizontal(width, lipgloss.Center, s.table(from, to))
	if panel != "" {
		out += "\n\n" + lipgloss.PlaceHorizontal(width, lipgloss.Center, panel)
	}
	return "\n" + out
}

// window returns the [from, to) range of n rows that keeps cursor visible
// in a view of size rows.
func window(n, cursor, rows int) (int, int) {
	if n <= rows {
		return 0, n
	}
	from := min(max(0, cursor-rows/2), n-rows)
	return from, from + rows
}

func (s *HistoryScreen) table(from, to int) string {
	header := lipgloss.NewStyle().Foreground(theme.TextDim).Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Foreground(theme.Text).Padding(0, 1)
	selected := cell.Foreground(theme.Primary).Bold(true)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderTop(false).BorderBottom(false).BorderLeft(false).BorderRight(false).
		BorderColumn(false).BorderRow(false).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		Headers("Date", "Lesson", "Time", "Result", "Gain").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case from+row == s.cursor:
				return selected
			}
			return cell
		})

	for _, sum := range s.summaries[from:to] {
		result, gain := "stopped at "+sum.FinalPhase.String(), ""
		if sum.Completed {
			result = strings.ToUpper(string(sum.Tier))
			gain = fmt.Sprintf("%+.0f", sum.Delta)
		}
		t.Row(sum.FinishedAt.Local().Format("Jan 02 15:04"), sum.LessonID, elapsed(sum), result, gain)
	}
	return t.Render()
}

func elapsed(sum engine.Summary) string {
	secs := int(sum.Elapsed.Seconds())
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func detail(sum engine.Summary) string {
	label := lipgloss.NewStyle().Foreground(theme.TextDim)

	dims := make([]string, 0, len(signal.AllDimensions()))
	for _, d := range signal.AllDimensions() {
		dims = append(dims, fmt.Sprintf("%s %d", d.Label(), sum.Profile.Get(d)))
	}
	lines := []string{
		label.Render("scores   ") + fmt.Sprintf("pre %.0f  post %.0f", sum.Pre, sum.Post),
		label.Render("reviews  ") + fmt.Sprintf("%d", sum.RewindAttempts),
		label.Render("flags    ") + fmt.Sprintf("%d", sum.ViolationCount),
		label.Render("profile  ") + strings.Join(dims, "  "),
	}
	for _, v := range sum.Violations {
		lines = append(lines, label.Render("         ")+theme.Locked.Render(v.String()))
	}
	if sum.SuspiciousReplay {
		lines = append(lines, theme.Locked.Render("replayed content faster than it plays"))
	}
	return strings.Join(lines, "\n")
}
