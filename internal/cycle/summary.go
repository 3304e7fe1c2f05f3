package cycle

import (
	"strings"

	"github.com/abhisek/quizcycle/internal/evaluator"
	"github.com/abhisek/quizcycle/internal/question"
)

// Summary is the end-of-cycle report.
type Summary struct {
	Cycle     int
	Total     int
	Answered  int
	Correct   int
	Accuracy  float64
	Completed bool
	Items     []SummaryItem
}

// SummaryItem reviews one position.
type SummaryItem struct {
	Position    int
	Question    question.Question
	Answered    bool
	Correct     bool
	Given       string
	SubResults  []evaluator.SubResult
	Explanation string
}

// BuildSummary derives the report from a snapshot. Composite answers are
// re-evaluated to list each sub-question verdict.
func BuildSummary(v View, eval *evaluator.Evaluator) *Summary {
	if v.Record == nil {
		return &Summary{}
	}
	if eval == nil {
		eval = evaluator.New(nil)
	}

	rec := v.Record
	s := &Summary{
		Cycle:     rec.Cycle,
		Total:     len(v.Questions),
		Answered:  rec.Answered(),
		Correct:   rec.CorrectCount,
		Completed: rec.Completed,
	}
	if s.Total > 0 {
		s.Accuracy = float64(s.Correct) / float64(s.Total)
	}

	for pos, q := range v.Questions {
		item := SummaryItem{
			Position:    pos,
			Question:    q,
			Correct:     rec.Correct.Has(pos),
			Explanation: q.Explanation,
		}
		if a, ok := rec.Answers[pos]; ok {
			item.Answered = true
			item.Given = strings.Join(a.Selected, ",")
			if q.Type == question.TypeComposite {
				item.SubResults = eval.Evaluate(q, a).SubResults
			}
		}
		s.Items = append(s.Items, item)
	}
	return s
}
