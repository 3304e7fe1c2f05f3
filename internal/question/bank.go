package question

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
)

// ErrUnknownExam is returned when a bank has no exam with the requested id.
var ErrUnknownExam = errors.New("unknown exam")

// Source is the read-only question store the progress core consumes.
type Source interface {
	// ByIDs returns the questions with the given ids, in the given order.
	// Ids the store does not know are skipped.
	ByIDs(ctx context.Context, ids []string) ([]Question, error)

	// ByCategory returns every question of a quiz type and category.
	ByCategory(ctx context.Context, quizType, category string) ([]Question, error)

	// SubQuestions returns the ordered sub-questions of a composite question.
	SubQuestions(ctx context.Context, parentID string) ([]SubQuestion, error)
}

// Catalog is a Source that also holds the exam definitions and the
// category listing.
type Catalog interface {
	Source

	// Exam returns the exam definition with the given id, or an error
	// wrapping ErrUnknownExam.
	Exam(id string) (Exam, error)

	Categories() []CategoryCount
	Exams() []Exam
}

// Exam is a mock exam definition: an ordered question list and whether
// the countdown applies.
type Exam struct {
	ID           string
	QuizType     string
	QuestionIDs  []string
	TimerEnabled bool
}

// Bank is an in-memory Source loaded from a JSON bank file.
type Bank struct {
	questions []Question
	byID      map[string]int
	exams     map[string]Exam
}

var _ Catalog = (*Bank)(nil)

type bankFile struct {
	Questions []questionRecord `json:"questions"`
	Exams     []examRecord     `json:"exams"`
}

type questionRecord struct {
	ID            string              `json:"id"`
	QuizType      string              `json:"quiz_type"`
	Category      string              `json:"category"`
	Type          Type                `json:"type"`
	Text          string              `json:"text"`
	Options       []string            `json:"options"`
	CorrectAnswer json.RawMessage     `json:"correct_answer"`
	Explanation   string              `json:"explanation"`
	SubQuestions  []subQuestionRecord `json:"sub_questions"`
}

type subQuestionRecord struct {
	ID             string          `json:"id"`
	Text           string          `json:"text"`
	ExpectedAnswer json.RawMessage `json:"expected_answer"`
	Explanation    string          `json:"explanation"`
}

type examRecord struct {
	ID           string   `json:"id"`
	QuizType     string   `json:"quiz_type"`
	QuestionIDs  []string `json:"question_ids"`
	TimerEnabled *bool    `json:"timer_enabled"`
}

// LoadFile reads and validates a bank file from disk.
func LoadFile(path string) (*Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bank: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads a bank document, validates it against BankSchema and builds
// the in-memory index. Duplicate question ids are rejected.
func Load(r io.Reader) (*Bank, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read bank: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &ValidationError{Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if err := validateBank(doc); err != nil {
		return nil, err
	}

	var bf bankFile
	if err := json.Unmarshal(raw, &bf); err != nil {
		return nil, fmt.Errorf("decode bank: %w", err)
	}

	b := &Bank{
		byID:  make(map[string]int, len(bf.Questions)),
		exams: make(map[string]Exam, len(bf.Exams)),
	}
	for _, qr := range bf.Questions {
		if _, dup := b.byID[qr.ID]; dup {
			return nil, &ValidationError{Err: fmt.Errorf("duplicate question id %q", qr.ID)}
		}
		b.byID[qr.ID] = len(b.questions)
		b.questions = append(b.questions, qr.toQuestion())
	}
	for _, er := range bf.Exams {
		timer := true
		if er.TimerEnabled != nil {
			timer = *er.TimerEnabled
		}
		b.exams[er.ID] = Exam{
			ID:           er.ID,
			QuizType:     er.QuizType,
			QuestionIDs:  er.QuestionIDs,
			TimerEnabled: timer,
		}
	}
	return b, nil
}

// NewBank builds a Bank directly from questions. Used by tests and callers
// that fetch questions elsewhere.
func NewBank(qs []Question, exams ...Exam) *Bank {
	b := &Bank{
		byID:  make(map[string]int, len(qs)),
		exams: make(map[string]Exam, len(exams)),
	}
	for _, q := range qs {
		b.byID[q.ID] = len(b.questions)
		b.questions = append(b.questions, q)
	}
	for _, e := range exams {
		b.exams[e.ID] = e
	}
	return b
}

func (b *Bank) ByIDs(_ context.Context, ids []string) ([]Question, error) {
	out := make([]Question, 0, len(ids))
	for _, id := range ids {
		if i, ok := b.byID[id]; ok {
			out = append(out, b.questions[i])
		}
	}
	return out, nil
}

func (b *Bank) ByCategory(_ context.Context, quizType, category string) ([]Question, error) {
	var out []Question
	for _, q := range b.questions {
		if q.QuizType == quizType && q.Category == category {
			out = append(out, q)
		}
	}
	return out, nil
}

func (b *Bank) SubQuestions(_ context.Context, parentID string) ([]SubQuestion, error) {
	i, ok := b.byID[parentID]
	if !ok {
		return nil, nil
	}
	subs := make([]SubQuestion, len(b.questions[i].SubQuestions))
	copy(subs, b.questions[i].SubQuestions)
	return subs, nil
}

// Exam returns the exam definition with the given id.
func (b *Bank) Exam(id string) (Exam, error) {
	e, ok := b.exams[id]
	if !ok {
		return Exam{}, fmt.Errorf("%w: %s", ErrUnknownExam, id)
	}
	return e, nil
}

// CategoryCount is the number of questions in one (quiz type, category).
type CategoryCount struct {
	QuizType string
	Category string
	Count    int
}

// Categories lists every (quiz type, category) pair with its question
// count, sorted by quiz type then category.
func (b *Bank) Categories() []CategoryCount {
	counts := make(map[[2]string]int)
	for _, q := range b.questions {
		counts[[2]string{q.QuizType, q.Category}]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, CategoryCount{QuizType: k[0], Category: k[1], Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].QuizType != out[j].QuizType {
			return out[i].QuizType < out[j].QuizType
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Exams lists the exam definitions sorted by id.
func (b *Bank) Exams() []Exam {
	out := make([]Exam, 0, len(b.exams))
	for _, e := range b.exams {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (qr questionRecord) toQuestion() Question {
	q := Question{
		ID:            qr.ID,
		QuizType:      qr.QuizType,
		Category:      qr.Category,
		Type:          qr.Type,
		Text:          qr.Text,
		Options:       qr.Options,
		CorrectAnswer: rawAnswerString(qr.CorrectAnswer),
		Explanation:   qr.Explanation,
	}
	for _, sr := range qr.SubQuestions {
		q.SubQuestions = append(q.SubQuestions, SubQuestion{
			ID:             sr.ID,
			ParentID:       qr.ID,
			Text:           sr.Text,
			ExpectedAnswer: rawAnswerString(sr.ExpectedAnswer),
			Explanation:    sr.Explanation,
		})
	}
	return q
}

// rawAnswerString flattens a JSON answer value to the string form the
// evaluator understands. Strings are unquoted, booleans become
// "true"/"false", arrays are kept as JSON text.
func rawAnswerString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var bv bool
	if err := json.Unmarshal(raw, &bv); err == nil {
		return strconv.FormatBool(bv)
	}
	return string(raw)
}
