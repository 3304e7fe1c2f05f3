package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizcycle/internal/ui/theme"
)

// Smallest terminal the quiz screens fit in.
const (
	MinWidth  = 72
	MinHeight = 20
)

// KeyHint represents a key binding hint shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// DefaultHints are shown when the active screen offers none.
var DefaultHints = []KeyHint{
	{Key: "↑↓", Description: "Navigate"},
	{Key: "Enter", Description: "Select"},
	{Key: "Ctrl+C", Description: "Quit"},
}

// Chrome is what surrounds the active screen: the title and status in the
// header bar and the key hints in the footer bar.
type Chrome struct {
	Title  string
	Status string
	Hints  []KeyHint
}

// Render draws the chrome around body, which receives the size left
// between the bars.
func (c Chrome) Render(width, height int, body func(width, height int) string) string {
	if width < MinWidth || height < MinHeight {
		return tooSmall(width, height)
	}

	hints := c.Hints
	if len(hints) == 0 {
		hints = DefaultHints
	}
	header := RenderHeader(c.Title, c.Status, width)
	footer := RenderFooter(hints, width)

	inner := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := lipgloss.NewStyle().
		Width(width).
		Height(inner).
		Render(body(width, inner))

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func tooSmall(width, height int) string {
	return lipgloss.NewStyle().
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Width(width).
		Height(height).
		Render(fmt.Sprintf(
			"Terminal too small!\n\nPlease resize to at\nleast %d x %d\n\nCurrent: %d x %d",
			MinWidth, MinHeight, width, height,
		))
}

func bar(content string, width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Background(theme.BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Render(content)
}

// RenderHeader puts the app name left, title centered and status (score,
// countdown) right.
func RenderHeader(title, status string, width int) string {
	name := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("  quizcycle")
	center := theme.Body.Render(title)

	inner := max(width-4, 0)
	side := max((inner-lipgloss.Width(center))/2, lipgloss.Width(name)+1)

	left := lipgloss.NewStyle().Width(side).Render(name)
	right := lipgloss.NewStyle().
		Width(max(inner-side-lipgloss.Width(center), lipgloss.Width(status))).
		Align(lipgloss.Right).
		Render(status)

	return bar(left+center+right, width)
}

// RenderFooter lists the key hints.
func RenderFooter(hints []KeyHint, width int) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, theme.Body.Bold(true).Render(h.Key)+" "+theme.Hint.Render(h.Description))
	}
	return bar("  "+strings.Join(parts, "   "), width)
}

// FormatClock renders whole seconds as H:MM:SS, or MM:SS under an hour.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	sec := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%02d:%02d", m, sec)
}
