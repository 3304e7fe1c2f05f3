package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizcycle/internal/progress"
	"github.com/abhisek/quizcycle/internal/router"
	"github.com/abhisek/quizcycle/internal/screen"
	"github.com/abhisek/quizcycle/internal/ui/layout"
	"github.com/abhisek/quizcycle/internal/ui/theme"
)

// Loader fetches the stored cycles of one drill.
type Loader func(ctx context.Context) ([]progress.HistoryEntry, error)

type historyLoadedMsg struct {
	Entries []progress.HistoryEntry
	Err     error
}

// HistoryScreen lists past and active cycles of a category.
type HistoryScreen struct {
	label    string
	load     Loader
	entries  []progress.HistoryEntry
	selected int
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a HistoryScreen titled label.
func New(label string, load Loader) *HistoryScreen {
	return &HistoryScreen{label: label, load: load}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return func() tea.Msg {
		entries, err := s.load(context.Background())
		return historyLoadedMsg{Entries: entries, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "History: " + s.label
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.entries = msg.Entries
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "enter":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.entries)-1 {
				s.selected++
			}
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	if s.errMsg != "" {
		return center.Foreground(theme.Error).Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return center.Foreground(theme.TextDim).Render("\n\n  Loading history...")
	}
	if len(s.entries) == 0 {
		return center.Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No cycles yet. Start a drill!")
	}

	var b strings.Builder
	b.WriteString("\n")
	for i, e := range s.entries {
		prefix := "  "
		style := theme.Unselected
		if i == s.selected {
			prefix = theme.Pointer
			style = theme.Selected
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(prefix+FormatEntry(e))))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatEntry renders one cycle as a single line.
func FormatEntry(e progress.HistoryEntry) string {
	state := "in progress"
	when := e.UpdatedAt
	if e.Completed {
		state = "completed"
		if !e.CompletedAt.IsZero() {
			when = e.CompletedAt
		}
	}
	if e.Total == 0 {
		return fmt.Sprintf("Cycle %-3d %-11s  unreadable record", e.Cycle, state)
	}
	accuracy := float64(e.CorrectCount) / float64(e.Total) * 100
	return fmt.Sprintf("Cycle %-3d %-11s  %d/%d answered  %d correct  %.0f%%  %s",
		e.Cycle, state, e.Answered, e.Total, e.CorrectCount, accuracy, when.Local().Format("Jan 02, 2006 15:04"))
}
