package play

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/phasegate/internal/engine"
	"github.com/abhisek/phasegate/internal/phase"
	"github.com/abhisek/phasegate/internal/rubric"
	"github.com/abhisek/phasegate/internal/ui/components"
	"github.com/abhisek/phasegate/internal/ui/theme"
)

type tone int

const (
	toneInfo tone = iota
	toneGood
	toneBad
	toneWarn
)

type feedbackLine struct {
	text string
	kind tone
}

func (t tone) color() color.Color {
	switch t {
	case toneGood:
		return theme.Success
	case toneBad:
		return theme.Error
	case toneWarn:
		return theme.Warning
	default:
		return theme.TextDim
	}
}

// describe turns an outcome into learner-facing lines, most important
// first. Silent outcomes (ticks with nothing to report) yield nothing.
func describe(o engine.Outcome) []feedbackLine {
	var lines []feedbackLine
	add := func(kind tone, format string, args ...any) {
		lines = append(lines, feedbackLine{text: fmt.Sprintf(format, args...), kind: kind})
	}

	switch {
	case o.Completion != nil:
		add(toneGood, "Lesson complete! %s tier, %+.0f points since the start.", strings.ToUpper(string(o.Completion.Tier)), o.Completion.Delta)
	case o.Rewind != nil:
		add(toneBad, "%s scored %.0f of %.0f needed. Let's review the lesson again.", o.Rewind.FailedPhase, o.Rewind.Score, o.Rewind.Required)
	case o.Returned:
		add(toneInfo, "Review done. Back to %s.", o.Phase)
	case o.Remediation:
		add(toneInfo, "Time to rewatch the lesson.")
	case o.Granted && o.Score != nil:
		add(toneGood, "%s passed with %.0f. On to %s.", o.From, *o.Score, o.Phase)
	case o.Granted:
		add(toneGood, "On to %s.", o.Phase)
	case o.LockFor > 0:
		add(toneWarn, "That looks like guessing. Answers are locked for %ds.", int(o.LockFor.Seconds()))
	case o.Correct != nil && *o.Correct:
		add(toneGood, "Correct!")
	case o.Correct != nil:
		add(toneBad, "Not quite.")
	case o.Accepted && o.Score != nil:
		add(toneInfo, "Scored %.0f.", *o.Score)
	case o.Reason != engine.ReasonNone:
		msg := o.Reason.Message()
		if s := o.WaitSeconds(); s > 0 {
			msg = fmt.Sprintf("%s (%ds)", msg, s)
		}
		add(toneWarn, "%s", msg)
	}

	if o.Warning {
		add(toneWarn, "Take your time. Quick answers are easy to get wrong.")
	}
	if o.Hint {
		add(toneInfo, "Hint: re-read the question and eliminate the options you are sure are wrong.")
	}
	if o.SuggestReview {
		add(toneInfo, "Consider reviewing the lesson video before continuing.")
	}
	for _, n := range o.Notices {
		add(toneInfo, "%s %+d (%s)", n.Dimension.Label(), n.Magnitude, n.Action)
	}
	return lines
}

func (s *PlayScreen) View(width, height int) string {
	var b strings.Builder

	rail := components.PhaseRail{Current: s.status.Phase, Completed: s.status.Completed}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, rail.View()))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.renderStatus()))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(0, width-4))))
	b.WriteString("\n\n")

	if s.quitConfirm {
		b.WriteString(s.renderQuitConfirm(width))
		return b.String()
	}

	var body string
	switch s.status.Phase {
	case phase.Know, phase.Prove, phase.Master:
		body = s.renderQuiz()
	case phase.Link:
		body = s.renderLink()
	case phase.Do:
		body = s.renderVideo(width)
	case phase.Sync:
		body = s.renderMatching()
	case phase.Reflect:
		body = s.renderReflection()
	}
	card := theme.Card.Width(min(width-4, 80)).Render(body)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, card))
	b.WriteString("\n\n")

	for _, l := range s.feedback {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(l.kind.color()).
			Render(l.text))
		b.WriteString("\n")
	}
	return b.String()
}

// renderStatus shows the timers currently holding the learner back.
func (s *PlayScreen) renderStatus() string {
	st := s.status
	var parts []string
	if s.resumed {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.TextDim).Render("resumed"))
	}
	if st.Locked {
		parts = append(parts, theme.Locked.Render(fmt.Sprintf("locked %ds", st.LockSecondsRemaining)))
	}
	if st.RewindActive && st.RewindSecondsRemaining > 0 {
		parts = append(parts, theme.Locked.Render(fmt.Sprintf("review opens in %ds", st.RewindSecondsRemaining)))
	}
	if st.Remediating {
		msg := fmt.Sprintf("reviewing for %s", st.ReturnPhase)
		if st.RetrySecondsRemaining > 0 {
			msg += fmt.Sprintf(", retry in %ds", st.RetrySecondsRemaining)
		}
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.Secondary).Render(msg))
	}
	if st.Items > 0 {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("%d/%d answered", st.Answered, st.Items)))
	}
	if s.grading {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.Accent).Render("grading..."))
	}
	return strings.Join(parts, "   ")
}

func (s *PlayScreen) renderQuiz() string {
	if s.pending.Item == nil {
		return lipgloss.NewStyle().Foreground(theme.Text).Render(
			"All items answered.\n\nPress Tab to check your results.")
	}
	header := theme.Hint.Render(fmt.Sprintf("%s · item %d of %d", s.status.PhaseName, s.pending.Index+1, s.pending.Total))
	return header + "\n\n" + s.mc.View()
}

func (s *PlayScreen) renderLink() string {
	lesson := s.ctrl.Machine().Lesson()
	return theme.Title.Render(lesson.Title) + "\n\n" +
		theme.Body.Render(lesson.Summary) + "\n\n" +
		theme.Hint.Render("Read the overview, then press Tab to continue.")
}

func (s *PlayScreen) renderVideo(width int) string {
	v := s.pending.Video
	var b strings.Builder
	if v != nil && v.URL != "" {
		b.WriteString(theme.Hint.Render(v.URL))
		b.WriteString("\n\n")
	}
	state := "▶ playing"
	if !s.playing {
		state = "❚❚ paused"
	}
	b.WriteString(theme.Body.Render(state))
	b.WriteString("\n\n")

	bar := components.NewProgressBar("Watched", s.watched/100, true, min(width-12, 70))
	bar.Mark = s.status.RequiredWatchFraction / 100
	b.WriteString(bar.View())
	b.WriteString("\n\n")
	b.WriteString(theme.Hint.Render(fmt.Sprintf("Watch at least %.0f%% of the video, then press Tab.", s.status.RequiredWatchFraction)))
	return b.String()
}

func (s *PlayScreen) renderMatching() string {
	m := s.pending.Matching
	if m == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(theme.Hint.Render("Match each item on the left with its partner."))
	b.WriteString("\n\n")

	leftWidth := 0
	for _, l := range m.Left {
		leftWidth = max(leftWidth, lipgloss.Width(l))
	}
	for i, l := range m.Left {
		right := ""
		if i < len(s.choice) && s.choice[i] < len(m.Right) {
			right = m.Right[s.choice[i]]
		}
		line := fmt.Sprintf("%-*s  ◂ %s ▸", leftWidth, l, right)
		if i == s.matchCursor {
			b.WriteString(theme.Selected.Render("▸ " + line))
		} else {
			b.WriteString(theme.Unselected.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (s *PlayScreen) renderReflection() string {
	r := s.pending.Reflection
	if r == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(r.Prompt))
	b.WriteString("\n\n")
	b.WriteString(s.input.View())
	if len(r.Keywords) > 0 {
		covered := rubric.Matched(*r, s.input.Value())
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render(fmt.Sprintf("Key ideas touched: %d of %d", len(covered), len(r.Keywords))))
	}
	return b.String()
}

func (s *PlayScreen) renderQuitConfirm(width int) string {
	box := theme.Card.Render(
		theme.Title.Render("Leave this lesson?") + "\n\n" +
			theme.Body.Render("Your progress is saved and you can resume later.") + "\n\n" +
			theme.Hint.Render("Y to leave, N to keep going"))
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, box)
}
