package evaluator

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/quizcycle/internal/question"
)

// Answer is what the learner submitted for one question.
//
// Single and multiple questions use Selected; a scalar answer is a
// one-element slice, and an element may itself be comma-joined ("A,C").
// Composite questions use Sub, keyed by sub-question id.
type Answer struct {
	Selected []string          `json:"selected,omitempty"`
	Sub      map[string]string `json:"sub,omitempty"`
}

// Choice builds a single/multiple answer from option letters.
func Choice(letters ...string) Answer {
	return Answer{Selected: letters}
}

// IsEmpty reports whether nothing was submitted.
func (a Answer) IsEmpty() bool {
	return len(normalizeSet(a.Selected)) == 0 && len(a.Sub) == 0
}

// Result is the evaluator verdict for one question.
type Result struct {
	Correct bool

	// SubResults holds one entry per sub-question of a composite question,
	// in sub-question order. Empty for other types.
	SubResults []SubResult
}

// SubResult is the verdict for one sub-question.
type SubResult struct {
	SubQuestionID string
	Expected      string
	Given         string
	Correct       bool
}

// CorrectCount returns how many sub-answers matched.
func (r Result) CorrectCount() int {
	n := 0
	for _, s := range r.SubResults {
		if s.Correct {
			n++
		}
	}
	return n
}

var errMalformedAnswer = errors.New("malformed correct answer")

// Evaluator decides correctness of submitted answers. It never panics on
// bad bank data; anomalies go to the logger's error channel.
type Evaluator struct {
	logger *zap.Logger
}

// New creates an Evaluator. A nil logger discards anomalies.
func New(logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{logger: logger}
}

// Evaluate compares a submitted answer against the question.
func (e *Evaluator) Evaluate(q question.Question, a Answer) Result {
	if q.Type == question.TypeComposite {
		return e.evaluateComposite(q, a)
	}

	correct, err := ParseCorrectAnswer(q.CorrectAnswer, len(q.Options))
	if err != nil {
		e.logger.Error("malformed correct answer",
			zap.String("question_id", q.ID),
			zap.String("correct_answer", q.CorrectAnswer),
			zap.Error(err),
		)
		return Result{Correct: false}
	}

	submitted := normalizeSet(a.Selected)
	return Result{Correct: len(submitted) > 0 && canonical(submitted) == canonical(correct)}
}

// evaluateComposite marks the parent correct only when every sub-answer
// matches. Each sub-result is reported either way.
func (e *Evaluator) evaluateComposite(q question.Question, a Answer) Result {
	if len(q.SubQuestions) == 0 {
		e.logger.Error("composite question has no sub-questions",
			zap.String("question_id", q.ID),
		)
		return Result{Correct: false}
	}

	res := Result{SubResults: make([]SubResult, 0, len(q.SubQuestions))}
	for _, sq := range q.SubQuestions {
		given := a.Sub[sq.ID]
		res.SubResults = append(res.SubResults, SubResult{
			SubQuestionID: sq.ID,
			Expected:      sq.ExpectedAnswer,
			Given:         given,
			Correct:       MatchSubAnswer(sq.ExpectedAnswer, given),
		})
	}
	res.Correct = res.CorrectCount() == len(q.SubQuestions)
	return res
}

// MatchSubAnswer compares a sub-question answer: trimmed and
// case-insensitive. An empty expected answer never matches.
func MatchSubAnswer(expected, given string) bool {
	expected = strings.TrimSpace(expected)
	given = strings.TrimSpace(given)
	if expected == "" {
		return false
	}
	return strings.EqualFold(expected, given)
}

// ParseCorrectAnswer normalizes a stored correct answer into a sorted set
// of option letters. It accepts comma-joined letters ("A, C") or a JSON
// array (["A","C"]). When optionCount > 0 every letter must address an
// existing option.
func ParseCorrectAnswer(raw string, optionCount int) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", errMalformedAnswer)
	}

	var tokens []string
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &tokens); err != nil {
			return nil, fmt.Errorf("%w: %v", errMalformedAnswer, err)
		}
	} else {
		tokens = []string{raw}
	}

	set := normalizeSet(tokens)
	if len(set) == 0 {
		return nil, fmt.Errorf("%w: no letters in %q", errMalformedAnswer, raw)
	}
	for _, l := range set {
		if len(l) != 1 || l[0] < 'A' || l[0] > 'Z' {
			return nil, fmt.Errorf("%w: %q is not an option letter", errMalformedAnswer, l)
		}
		if optionCount > 0 && int(l[0]-'A') >= optionCount {
			return nil, fmt.Errorf("%w: %q beyond %d options", errMalformedAnswer, l, optionCount)
		}
	}
	return set, nil
}

// normalizeSet splits every element on commas, trims and upper-cases the
// parts, drops empties and duplicates, and returns them sorted.
func normalizeSet(values []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part == "" || seen[part] {
				continue
			}
			seen[part] = true
			out = append(out, part)
		}
	}
	sort.Strings(out)
	return out
}

func canonical(set []string) string {
	return strings.Join(set, ",")
}
