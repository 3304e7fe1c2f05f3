package home

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizcycle/internal/progress"
	"github.com/abhisek/quizcycle/internal/router"
	"github.com/abhisek/quizcycle/internal/screen"
	"github.com/abhisek/quizcycle/internal/screens/history"
	"github.com/abhisek/quizcycle/internal/screens/quiz"
	"github.com/abhisek/quizcycle/internal/session"
	"github.com/abhisek/quizcycle/internal/ui/components"
	"github.com/abhisek/quizcycle/internal/ui/layout"
	"github.com/abhisek/quizcycle/internal/ui/theme"
)

// sessionOpenedMsg carries the result of opening a drill or exam.
type sessionOpenedMsg struct {
	Session *session.Session
	Err     error
}

type itemKind int

const (
	itemResume itemKind = iota
	itemDrill
	itemExam
	itemQuit
	itemHeading
)

type entry struct {
	kind     itemKind
	quizType string
	category string
	examID   string
}

// HomeScreen lists the bank's drills and exams.
type HomeScreen struct {
	launcher  *session.Launcher
	learnerID string
	menu      components.Menu
	entries   []entry
	opening   bool
	errMsg    string
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(launcher *session.Launcher, learnerID string) *HomeScreen {
	h := &HomeScreen{launcher: launcher, learnerID: learnerID}

	var items []components.MenuItem
	add := func(e entry, label, detail string) {
		h.entries = append(h.entries, e)
		items = append(items, components.MenuItem{
			Label:  label,
			Detail: detail,
			Action: func() tea.Cmd { return h.open(e) },
		})
	}

	heading := func(label string) {
		h.entries = append(h.entries, entry{kind: itemHeading})
		items = append(items, components.MenuItem{Label: label, Heading: true})
	}

	add(entry{kind: itemResume}, "Resume last session", "")
	if cats := launcher.Catalog().Categories(); len(cats) > 0 {
		heading("Drills")
		for _, c := range cats {
			add(entry{kind: itemDrill, quizType: c.QuizType, category: c.Category},
				fmt.Sprintf("%s / %s", c.QuizType, c.Category),
				fmt.Sprintf("%d questions", c.Count))
		}
	}
	if exams := launcher.Catalog().Exams(); len(exams) > 0 {
		heading("Exams")
		for _, e := range exams {
			detail := fmt.Sprintf("%d questions", len(e.QuestionIDs))
			if e.TimerEnabled {
				detail += ", timed"
			}
			add(entry{kind: itemExam, examID: e.ID}, e.ID, detail)
		}
	}
	h.entries = append(h.entries, entry{kind: itemQuit})
	items = append(items, components.MenuItem{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }})

	h.menu = components.NewMenu(items)
	return h
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Start"},
	}
	if h.selected().kind == itemDrill {
		hints = append(hints, layout.KeyHint{Key: "H", Description: "History"})
	}
	return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
}

func (h *HomeScreen) selected() entry {
	if h.menu.Selected < 0 || h.menu.Selected >= len(h.entries) {
		return entry{kind: itemQuit}
	}
	return h.entries[h.menu.Selected]
}

// open starts the selected session off the UI goroutine.
func (h *HomeScreen) open(e entry) tea.Cmd {
	if h.opening || e.kind == itemQuit || e.kind == itemHeading {
		return nil
	}
	h.opening = true
	h.errMsg = ""
	l, learner := h.launcher, h.learnerID
	return func() tea.Msg {
		ctx := context.Background()
		var (
			s   *session.Session
			err error
		)
		switch e.kind {
		case itemResume:
			s, err = l.Resume(ctx, learner)
		case itemDrill:
			s, err = l.Drill(ctx, learner, e.quizType, e.category)
		case itemExam:
			s, err = l.Exam(ctx, learner, e.examID, "")
		}
		return sessionOpenedMsg{Session: s, Err: err}
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionOpenedMsg:
		h.opening = false
		if msg.Err != nil {
			if errors.Is(msg.Err, session.ErrNothingToResume) {
				h.errMsg = "Nothing to resume yet."
			} else {
				h.errMsg = msg.Err.Error()
			}
			return h, nil
		}
		return h, func() tea.Msg {
			return router.PushScreenMsg{Screen: quiz.New(msg.Session, h.launcher.Evaluator())}
		}

	case tea.KeyMsg:
		if msg.String() == "h" {
			if e := h.selected(); e.kind == itemDrill {
				l, learner := h.launcher, h.learnerID
				load := func(ctx context.Context) ([]progress.HistoryEntry, error) {
					return l.History(ctx, learner, e.quizType, e.category)
				}
				label := e.quizType + "/" + e.category
				return h, func() tea.Msg {
					return router.PushScreenMsg{Screen: history.New(label, load)}
				}
			}
			return h, nil
		}
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var sections []string
	sections = append(sections, RenderBanner(cw))
	sections = append(sections, theme.Subtitle.Width(cw).
		Render(fmt.Sprintf("Learner: %s", h.learnerID)))
	sections = append(sections, components.Card(h.menu.View(), cw))

	switch {
	case h.opening:
		sections = append(sections, theme.Hint.Width(cw).Align(lipgloss.Center).Render("Opening..."))
	case h.errMsg != "":
		sections = append(sections, lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).
			Foreground(theme.Error).Render(h.errMsg))
	}

	return components.Frame(strings.Join(sections, "\n\n"), width, height)
}
