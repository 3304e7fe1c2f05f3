// Package progress holds the resumable state of one quiz cycle and
// persists it through a store backend.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/abhisek/quizcycle/internal/evaluator"
	"github.com/abhisek/quizcycle/internal/store"
)

// PositionSet is a set of positions in a cycle's question order. It
// serializes as a sorted JSON array.
type PositionSet map[int]struct{}

func (s PositionSet) Has(pos int) bool {
	_, ok := s[pos]
	return ok
}

// Sorted returns the positions in ascending order.
func (s PositionSet) Sorted() []int {
	return slices.Sorted(maps.Keys(s))
}

func (s PositionSet) MarshalJSON() ([]byte, error) {
	out := s.Sorted()
	if out == nil {
		out = []int{}
	}
	return json.Marshal(out)
}

func (s *PositionSet) UnmarshalJSON(b []byte) error {
	var positions []int
	if err := json.Unmarshal(b, &positions); err != nil {
		return err
	}
	set := make(PositionSet, len(positions))
	for _, p := range positions {
		set[p] = struct{}{}
	}
	*s = set
	return nil
}

// Record is the persisted state of one cycle for (learner, quiz type,
// scope). Positions index QuestionOrder.
type Record struct {
	LearnerID     string                   `json:"learner_id"`
	QuizType      string                   `json:"quiz_type"`
	Category      string                   `json:"category"`
	Cycle         int                      `json:"cycle"`
	SessionID     string                   `json:"session_id,omitempty"`
	QuestionOrder []string                 `json:"question_order"`
	CurrentIndex  int                      `json:"current_index"`
	Answers       map[int]evaluator.Answer `json:"answers"`
	Correct       PositionSet              `json:"correct"`
	Incorrect     PositionSet              `json:"incorrect"`
	CorrectCount  int                      `json:"correct_count"`
	Completed     bool                     `json:"completed"`
	StartedAt     time.Time                `json:"started_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
	CompletedAt   time.Time                `json:"completed_at,omitzero"`
}

// NewRecord starts an empty cycle over order.
func NewRecord(key store.ProgressKey, category string, cycle int, order []string, now time.Time) *Record {
	r := &Record{
		LearnerID:     key.LearnerID,
		QuizType:      key.QuizType,
		Category:      category,
		Cycle:         cycle,
		QuestionOrder: slices.Clone(order),
		Answers:       make(map[int]evaluator.Answer),
		Correct:       make(PositionSet),
		Incorrect:     make(PositionSet),
		StartedAt:     now,
		UpdatedAt:     now,
	}
	if key.Scope != category {
		r.SessionID = key.Scope
	}
	return r
}

// Key returns the store key. Exams are scoped by session id, drills by
// category.
func (r *Record) Key() store.ProgressKey {
	scope := r.Category
	if r.SessionID != "" {
		scope = r.SessionID
	}
	return store.ProgressKey{LearnerID: r.LearnerID, QuizType: r.QuizType, Scope: scope}
}

// Answered returns the number of positions with a verdict.
func (r *Record) Answered() int {
	return len(r.Correct) + len(r.Incorrect)
}

// SetVerdict records the verdict for pos, replacing any earlier verdict.
func (r *Record) SetVerdict(pos int, answer evaluator.Answer, correct bool) {
	r.Answers[pos] = answer
	if correct {
		delete(r.Incorrect, pos)
		r.Correct[pos] = struct{}{}
	} else {
		delete(r.Correct, pos)
		r.Incorrect[pos] = struct{}{}
	}
	r.CorrectCount = len(r.Correct)
}

var errInvalidRecord = errors.New("invalid progress record")

// Validate checks the record's internal consistency.
func (r *Record) Validate() error {
	n := len(r.QuestionOrder)
	switch {
	case r.Cycle < 1:
		return fmt.Errorf("%w: cycle %d", errInvalidRecord, r.Cycle)
	case r.CorrectCount != len(r.Correct):
		return fmt.Errorf("%w: correct count %d != %d", errInvalidRecord, r.CorrectCount, len(r.Correct))
	case r.CurrentIndex < 0 || (n > 0 && r.CurrentIndex >= n) || (n == 0 && r.CurrentIndex != 0):
		return fmt.Errorf("%w: current index %d of %d", errInvalidRecord, r.CurrentIndex, n)
	}
	for pos := range r.Correct {
		if r.Incorrect.Has(pos) {
			return fmt.Errorf("%w: position %d both correct and incorrect", errInvalidRecord, pos)
		}
		if pos < 0 || pos >= n {
			return fmt.Errorf("%w: correct position %d out of range", errInvalidRecord, pos)
		}
	}
	for pos := range r.Incorrect {
		if pos < 0 || pos >= n {
			return fmt.Errorf("%w: incorrect position %d out of range", errInvalidRecord, pos)
		}
	}
	for pos := range r.Answers {
		if pos < 0 || pos >= n {
			return fmt.Errorf("%w: answer position %d out of range", errInvalidRecord, pos)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	c := *r
	c.QuestionOrder = slices.Clone(r.QuestionOrder)
	c.Answers = make(map[int]evaluator.Answer, len(r.Answers))
	for pos, a := range r.Answers {
		c.Answers[pos] = evaluator.Answer{
			Selected: slices.Clone(a.Selected),
			Sub:      maps.Clone(a.Sub),
		}
	}
	c.Correct = maps.Clone(r.Correct)
	c.Incorrect = maps.Clone(r.Incorrect)
	if c.Correct == nil {
		c.Correct = make(PositionSet)
	}
	if c.Incorrect == nil {
		c.Incorrect = make(PositionSet)
	}
	return &c
}

// Marshal encodes the record into the opaque blob stored in the data column.
func (r *Record) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// Unmarshal decodes and validates a stored blob.
func Unmarshal(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidRecord, err)
	}
	if r.Answers == nil {
		r.Answers = make(map[int]evaluator.Answer)
	}
	if r.Correct == nil {
		r.Correct = make(PositionSet)
	}
	if r.Incorrect == nil {
		r.Incorrect = make(PositionSet)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// IsInvalid reports whether err came from a malformed or inconsistent record.
func IsInvalid(err error) bool {
	return errors.Is(err, errInvalidRecord)
}

func (r *Record) toRow() (*store.ProgressRow, error) {
	data, err := r.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal progress: %w", err)
	}
	return &store.ProgressRow{
		Key:       r.Key(),
		Cycle:     r.Cycle,
		SessionID: r.SessionID,
		Completed: r.Completed,
		Data:      data,
		CreatedAt: r.StartedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}
