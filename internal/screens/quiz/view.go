package quiz

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizcycle/internal/evaluator"
	"github.com/abhisek/quizcycle/internal/question"
	"github.com/abhisek/quizcycle/internal/ui/components"
	"github.com/abhisek/quizcycle/internal/ui/theme"
)

func centered(width int) lipgloss.Style {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
}

// renderQuestionView renders the info line, question and answer area.
func (s *QuizScreen) renderQuestionView(width, height int) string {
	q, ok := s.view.Current()
	if !ok {
		return renderLoading(width)
	}
	rec := s.view.Record
	cw := components.ContentWidth(width)

	var b strings.Builder
	b.WriteString("\n")

	info := fmt.Sprintf("Question %d of %d  ·  Cycle %d  ·  %s",
		rec.CurrentIndex+1, len(s.view.Questions), rec.Cycle, q.Category)
	b.WriteString(centered(width).Foreground(theme.TextDim).Render(info))
	b.WriteString("\n")

	bar := components.NewScoreBar("", rec.CorrectCount, len(rec.Incorrect), len(s.view.Questions), cw)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))
	b.WriteString("\n\n")

	if _, answered := rec.Answers[rec.CurrentIndex]; answered && s.result == nil {
		b.WriteString(centered(width).Foreground(theme.TextDim).Italic(true).
			Render("Answered earlier. Submitting again replaces that answer."))
		b.WriteString("\n\n")
	}

	text := lipgloss.NewStyle().Width(cw).Foreground(theme.Text).Bold(true).Render(q.Text)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, text))
	b.WriteString("\n\n")

	var answers string
	if q.Type == question.TypeComposite {
		answers = s.renderComposite(q, cw)
	} else {
		if q.Type == question.TypeMultiple {
			answers = theme.Hint.Render("Select all that apply.") + "\n\n"
		}
		answers += s.options.View()
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		lipgloss.NewStyle().Width(cw).Render(answers)))

	if s.result != nil {
		b.WriteString("\n")
		b.WriteString(renderFeedback(width, cw, q, *s.result))
	}

	if s.notice != "" {
		b.WriteString("\n")
		b.WriteString(centered(width).Foreground(theme.Warning).Render(s.notice))
	}

	return b.String()
}

// renderComposite lists sub-questions: answered parts, the active input,
// and after submission each part's verdict.
func (s *QuizScreen) renderComposite(q question.Question, cw int) string {
	verdicts := make(map[string]evaluator.SubResult)
	if s.result != nil {
		for _, sr := range s.result.SubResults {
			verdicts[sr.SubQuestionID] = sr
		}
	}

	var b strings.Builder
	for i, sub := range q.SubQuestions {
		label := fmt.Sprintf("%d. %s", i+1, sub.Text)
		switch {
		case s.result != nil:
			sr := verdicts[sub.ID]
			mark := theme.Correct.Render("✓")
			if !sr.Correct {
				mark = theme.Incorrect.Render("✗")
			}
			b.WriteString(theme.Body.Render(label) + "\n")
			b.WriteString(fmt.Sprintf("   %s %s\n", mark, theme.Body.Render(sr.Given)))
			if !sr.Correct {
				b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).
					Render("     expected: "+sr.Expected) + "\n")
			}
		case i < s.input.Index():
			b.WriteString(theme.Body.Render(label) + "\n")
			b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).
				Render("   "+s.input.Answer(sub.ID)) + "\n")
		case i == s.input.Index():
			b.WriteString(theme.Selected.Render(theme.Pointer+label) + "\n")
			b.WriteString("   " + s.input.View() + "\n")
		default:
			b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(label) + "\n")
		}
	}
	return b.String()
}

// renderFeedback renders the verdict and the explanation.
func renderFeedback(width, cw int, q question.Question, res evaluator.Result) string {
	var b strings.Builder

	if res.Correct {
		b.WriteString(theme.Correct.Width(width).Align(lipgloss.Center).Render("Correct!"))
	} else {
		b.WriteString(theme.Incorrect.Width(width).Align(lipgloss.Center).Render("Not quite"))
		if q.Type == question.TypeComposite {
			b.WriteString("\n")
			b.WriteString(centered(width).Foreground(theme.TextDim).
				Render(fmt.Sprintf("%d of %d parts correct", res.CorrectCount(), len(res.SubResults))))
		} else if q.CorrectAnswer != "" {
			if letters, err := evaluator.ParseCorrectAnswer(q.CorrectAnswer, len(q.Options)); err == nil {
				b.WriteString("\n")
				b.WriteString(centered(width).Foreground(theme.TextDim).
					Render("Correct answer: " + strings.Join(letters, ", ")))
			}
		}
	}
	b.WriteString("\n\n")

	if q.Explanation != "" {
		exp := lipgloss.NewStyle().Width(cw).Foreground(theme.Text).Render(q.Explanation)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, exp))
		b.WriteString("\n\n")
	}

	b.WriteString(centered(width).Foreground(theme.TextDim).Render("Press any key to continue..."))
	return b.String()
}

// renderConfirm renders a yes/no dialog.
func renderConfirm(width int, title, detail, yes, no string) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(centered(width).Foreground(theme.Text).Bold(true).Render(title))
	b.WriteString("\n")
	b.WriteString(centered(width).Foreground(theme.TextDim).Render(detail))
	b.WriteString("\n\n")
	b.WriteString(centered(width).Foreground(theme.Success).Render(yes))
	b.WriteString("\n")
	b.WriteString(centered(width).Foreground(theme.Primary).Render(no))
	return b.String()
}

// renderLoading renders the loading state.
func renderLoading(width int) string {
	return centered(width).Foreground(theme.TextDim).Render("\n\n\n  Loading questions...")
}

// renderError renders an error message.
func renderError(width int, errMsg string) string {
	return centered(width).Foreground(theme.Error).
		Render(fmt.Sprintf("\n\n\n  Error: %s\n\n  Press any key to go back.", errMsg))
}
