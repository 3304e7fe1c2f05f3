package summary

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizcycle/internal/cycle"
	"github.com/abhisek/quizcycle/internal/router"
	"github.com/abhisek/quizcycle/internal/screen"
	"github.com/abhisek/quizcycle/internal/ui/components"
	"github.com/abhisek/quizcycle/internal/ui/layout"
	"github.com/abhisek/quizcycle/internal/ui/theme"
)

// SummaryScreen shows the end-of-cycle report with a per-question review.
type SummaryScreen struct {
	summary  *cycle.Summary
	title    string
	selected int
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a new SummaryScreen.
func New(summary *cycle.Summary, title string) *SummaryScreen {
	return &SummaryScreen{summary: summary, title: title}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Summary"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Review"},
		{Key: "Enter", Description: "Done"},
		{Key: "Esc", Description: "Home"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || s.summary == nil {
		return s, nil
	}
	switch kmsg.String() {
	case "enter", "esc":
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	case "up", "k":
		if s.selected > 0 {
			s.selected--
		}
	case "down", "j":
		if s.selected < len(s.summary.Items)-1 {
			s.selected++
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	if sum == nil {
		return ""
	}
	cw := components.ContentWidth(width)
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	var b strings.Builder
	b.WriteString("\n")

	heading := fmt.Sprintf("Cycle %d complete!", sum.Cycle)
	if !sum.Completed {
		heading = fmt.Sprintf("Cycle %d in progress", sum.Cycle)
	}
	b.WriteString(center.Foreground(theme.Primary).Bold(true).Render(heading))
	b.WriteString("\n")
	if s.title != "" {
		b.WriteString(center.Foreground(theme.TextDim).Render(s.title))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	stats := fmt.Sprintf("Questions: %d        Answered: %d        Correct: %d",
		sum.Total, sum.Answered, sum.Correct)
	b.WriteString(center.Foreground(theme.Text).Render(stats))
	b.WriteString("\n")
	bar := components.NewScoreBar(fmt.Sprintf("Accuracy %d%%", int(sum.Accuracy*100)), sum.Correct, sum.Answered-sum.Correct, sum.Total, cw)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))
	b.WriteString("\n\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", cw))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.TextDim).Render("Review")))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
	b.WriteString("\n")

	// Keep the selected row on screen: the list gets whatever height the
	// header and detail card leave.
	listHeight := max(height-22, 3)
	start := max(0, min(s.selected-listHeight/2, len(sum.Items)-listHeight))
	end := min(len(sum.Items), start+listHeight)

	var list strings.Builder
	for i := start; i < end; i++ {
		list.WriteString(s.renderItem(i, cw))
		list.WriteString("\n")
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		lipgloss.NewStyle().Width(cw).Render(list.String())))
	b.WriteString("\n")

	if s.selected < len(sum.Items) {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			components.Card(renderDetail(sum.Items[s.selected], cw-6), cw)))
	}

	return b.String()
}

func (s *SummaryScreen) renderItem(i, cw int) string {
	item := s.summary.Items[i]

	mark := lipgloss.NewStyle().Foreground(theme.TextDim).Render("–")
	switch {
	case item.Answered && item.Correct:
		mark = theme.Correct.Render("✓")
	case item.Answered:
		mark = theme.Incorrect.Render("✗")
	}

	text := truncate(fmt.Sprintf("%2d. %s", item.Position+1, item.Question.Text), cw-6)
	style := theme.Unselected
	prefix := "  "
	if i == s.selected {
		style = theme.Selected
		prefix = theme.Pointer
	}
	return style.Render(prefix) + mark + " " + style.Render(text)
}

func renderDetail(item cycle.SummaryItem, width int) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Width(width).Bold(true).Foreground(theme.Text).Render(item.Question.Text))
	b.WriteString("\n\n")

	given := item.Given
	if !item.Answered {
		given = "not answered"
	}
	if len(item.SubResults) == 0 {
		b.WriteString(theme.Body.Render("Your answer: " + given))
		b.WriteString("\n")
	}
	for _, sr := range item.SubResults {
		mark := theme.Correct.Render("✓")
		if !sr.Correct {
			mark = theme.Incorrect.Render("✗")
		}
		line := fmt.Sprintf("%s %s", mark, theme.Body.Render(sr.Given))
		if !sr.Correct {
			line += lipgloss.NewStyle().Foreground(theme.TextDim).Render("  (expected " + sr.Expected + ")")
		}
		b.WriteString(line + "\n")
	}

	if item.Explanation != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Foreground(theme.TextDim).Render(item.Explanation))
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
