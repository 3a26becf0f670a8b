package home

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/phasegate/internal/screen"
	"github.com/abhisek/phasegate/internal/screens/history"
	"github.com/abhisek/phasegate/internal/screens/play"
	"github.com/abhisek/phasegate/internal/session"
	"github.com/abhisek/phasegate/internal/store"
	"github.com/abhisek/phasegate/internal/ui/components"
	"github.com/abhisek/phasegate/internal/ui/layout"
	"github.com/abhisek/phasegate/internal/ui/theme"
)

// lessonOpenedMsg is sent when a lesson controller is ready.
type lessonOpenedMsg struct {
	Opened *session.Opened
	Err    error
}

// tagsMsg maps lesson IDs to their menu tag.
type tagsMsg map[string]string

// HomeScreen lists the catalog's lessons with where the learner stands in
// each.
type HomeScreen struct {
	opener    *session.Opener
	summaries store.SummaryRepo
	learnerID string

	menu      components.Menu
	lessonIDs []string // parallel to menu items; "" for non-lesson items
	errMsg    string
	opening   bool
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)
var _ screen.Refresher = (*HomeScreen)(nil)

func New(opener *session.Opener, summaries store.SummaryRepo, learnerID string) *HomeScreen {
	h := &HomeScreen{opener: opener, summaries: summaries, learnerID: learnerID}

	var items []components.MenuItem
	for _, l := range opener.Catalog.Lessons() {
		id := l.ID
		items = append(items, components.MenuItem{
			Label:  l.Title,
			Detail: l.Summary,
			Action: func() tea.Cmd { return h.open(id, false) },
		})
		h.lessonIDs = append(h.lessonIDs, id)
	}
	items = append(items,
		components.MenuItem{Label: "History", Action: func() tea.Cmd {
			return screen.Push(history.New(summaries, learnerID))
		}},
		components.MenuItem{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
	)
	h.lessonIDs = append(h.lessonIDs, "", "")
	h.menu = components.NewMenu(items)
	return h
}

func (h *HomeScreen) Init() tea.Cmd { return h.loadTags }

// Refresh reloads tags after a lesson or the history screen closes.
func (h *HomeScreen) Refresh() tea.Cmd { return h.loadTags }

func (h *HomeScreen) Title() string { return "Lessons" }

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Start or resume"},
		{Key: "F", Description: "Start over"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// loadTags marks lessons in progress with their phase and finished ones
// with their tier. Lookup failures leave a lesson untagged.
func (h *HomeScreen) loadTags() tea.Msg {
	ctx := context.Background()
	tags := tagsMsg{}

	if h.summaries != nil {
		sums, err := h.summaries.List(ctx, h.learnerID, 0)
		if err == nil {
			// Newest first, so keep the first completion seen.
			for _, s := range sums {
				if _, seen := tags[s.LessonID]; !seen && s.Completed {
					tags[s.LessonID] = "mastered · " + string(s.Tier)
				}
			}
		}
	}
	if h.opener.Progress != nil {
		for _, id := range h.lessonIDs {
			if id == "" {
				continue
			}
			if s, err := h.opener.Progress.Latest(ctx, h.learnerID, id); err == nil && s != nil && !s.Completed() {
				tags[id] = "resume at " + s.Phase.String()
			}
		}
	}
	return tags
}

// open resolves the lesson off the UI loop.
func (h *HomeScreen) open(lessonID string, fresh bool) tea.Cmd {
	if h.opening {
		return nil
	}
	h.opening = true
	h.errMsg = ""
	opener, learner := h.opener, h.learnerID
	return func() tea.Msg {
		opened, err := opener.Open(context.Background(), session.Request{
			LearnerID: learner,
			LessonID:  lessonID,
			Fresh:     fresh,
		})
		return lessonOpenedMsg{Opened: opened, Err: err}
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tagsMsg:
		for i, id := range h.lessonIDs {
			if id != "" {
				h.menu.Items[i].Tag = msg[id]
			}
		}
		return h, nil

	case lessonOpenedMsg:
		h.opening = false
		if msg.Err != nil {
			h.errMsg = msg.Err.Error()
			return h, nil
		}
		return h, screen.Push(play.New(msg.Opened.Controller, msg.Opened.Resumed))

	case tea.KeyMsg:
		switch msg.String() {
		case "f", "F":
			if id := h.lessonIDs[h.menu.Selected]; id != "" {
				return h, h.open(id, true)
			}
			return h, nil
		case "q":
			return h, tea.Quit
		}
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	cardWidth := min(width-4, 76)
	inner := cardWidth - theme.Card.GetHorizontalFrameSize()

	sections := []string{
		theme.Title.Width(width).Render("Choose a lesson"),
		theme.Subtitle.Width(width).Render("Every lesson runs KNOW ─ LINK ─ DO ─ SYNC ─ REFLECT ─ PROVE ─ MASTER"),
		lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Card.Width(cardWidth).Render(h.menu.View(inner))),
	}
	switch {
	case h.opening:
		sections = append(sections, layout.Center("Opening lesson...", width, theme.TextDim, false))
	case h.errMsg != "":
		sections = append(sections, layout.Center(h.errMsg, width, theme.Error, false))
	}
	return "\n" + strings.Join(sections, "\n\n")
}
