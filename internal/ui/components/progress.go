package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizcycle/internal/ui/theme"
)

// ScoreBar is a segmented bar over a cycle: correct answers, then
// incorrect ones, then the positions still open.
type ScoreBar struct {
	Label     string
	Correct   int
	Incorrect int
	Total     int
	Width     int
}

// NewScoreBar clamps the counts so the segments never exceed total.
func NewScoreBar(label string, correct, incorrect, total, width int) ScoreBar {
	total = max(total, 0)
	correct = min(max(correct, 0), total)
	incorrect = min(max(incorrect, 0), total-correct)
	return ScoreBar{Label: label, Correct: correct, Incorrect: incorrect, Total: total, Width: width}
}

func (b ScoreBar) segment(n, barWidth int) int {
	if b.Total == 0 {
		return 0
	}
	return n * barWidth / b.Total
}

// View renders the label, the bar and an "answered/total" counter.
func (b ScoreBar) View() string {
	var out strings.Builder
	if b.Label != "" {
		out.WriteString(theme.Body.Render(b.Label))
		out.WriteString("  ")
	}

	counter := fmt.Sprintf("  %d/%d", b.Correct+b.Incorrect, b.Total)
	barWidth := max(b.Width-lipgloss.Width(out.String())-len(counter), 4)

	good := b.segment(b.Correct, barWidth)
	bad := b.segment(b.Incorrect, barWidth)
	open := barWidth - good - bad

	out.WriteString(lipgloss.NewStyle().Background(theme.Success).Render(strings.Repeat(" ", good)))
	out.WriteString(lipgloss.NewStyle().Background(theme.Error).Render(strings.Repeat(" ", bad)))
	out.WriteString(lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", open)))
	out.WriteString(theme.Hint.Render(counter))
	return out.String()
}
