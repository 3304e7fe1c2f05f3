// Package storetest provides an in-memory store.Repos for tests, with
// failure injection for the progress and pointer writes.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/abhisek/quizcycle/internal/store"
)

// ErrInjected is returned by operations armed with Fail.
var ErrInjected = errors.New("injected store failure")

// Memory implements store.Repos in memory.
type Memory struct {
	mu       sync.Mutex
	progress map[store.ProgressKey]map[int]store.ProgressRow
	pointers map[[2]string]store.SessionPointer
	attempts map[[5]string]store.AttemptEvent
	exams    map[string]store.ExamSession
	seq      int64
	failures map[string]int

	// Calls counts invocations per operation name.
	Calls map[string]int
}

var _ store.Repos = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		progress: make(map[store.ProgressKey]map[int]store.ProgressRow),
		pointers: make(map[[2]string]store.SessionPointer),
		attempts: make(map[[5]string]store.AttemptEvent),
		exams:    make(map[string]store.ExamSession),
		failures: make(map[string]int),
		Calls:    make(map[string]int),
	}
}

// Fail makes the next n calls of op return ErrInjected. Op is the method
// name, e.g. "InsertProgress".
func (m *Memory) Fail(op string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = n
}

func (m *Memory) enter(op string) error {
	m.Calls[op]++
	if m.failures[op] > 0 {
		m.failures[op]--
		return fmt.Errorf("%s: %w", op, ErrInjected)
	}
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) LatestProgress(_ context.Context, key store.ProgressKey) (*store.ProgressRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("LatestProgress"); err != nil {
		return nil, err
	}
	var latest *store.ProgressRow
	for _, row := range m.progress[key] {
		if latest == nil || row.Cycle > latest.Cycle {
			r := cloneRow(row)
			latest = &r
		}
	}
	return latest, nil
}

func (m *Memory) InsertProgress(_ context.Context, row *store.ProgressRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("InsertProgress"); err != nil {
		return err
	}
	cycles := m.progress[row.Key]
	if cycles == nil {
		cycles = make(map[int]store.ProgressRow)
		m.progress[row.Key] = cycles
	}
	if _, ok := cycles[row.Cycle]; ok {
		return store.ErrConflict
	}
	cycles[row.Cycle] = cloneRow(*row)
	return nil
}

func (m *Memory) UpdateProgress(_ context.Context, row *store.ProgressRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UpdateProgress"); err != nil {
		return err
	}
	existing, ok := m.progress[row.Key][row.Cycle]
	if !ok {
		return store.ErrNotFound
	}
	r := cloneRow(*row)
	r.CreatedAt = existing.CreatedAt
	m.progress[row.Key][row.Cycle] = r
	return nil
}

func (m *Memory) ListProgress(_ context.Context, key store.ProgressKey) ([]store.ProgressRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListProgress"); err != nil {
		return nil, err
	}
	var out []store.ProgressRow
	for _, row := range m.progress[key] {
		out = append(out, cloneRow(row))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cycle > out[j].Cycle })
	return out, nil
}

// Rows returns the number of stored cycles for key.
func (m *Memory) Rows(key store.ProgressKey) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.progress[key])
}

// PutRaw stores a row as-is, bypassing conflict checks.
func (m *Memory) PutRaw(row store.ProgressRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.progress[row.Key] == nil {
		m.progress[row.Key] = make(map[int]store.ProgressRow)
	}
	m.progress[row.Key][row.Cycle] = cloneRow(row)
}

func cloneRow(r store.ProgressRow) store.ProgressRow {
	r.Data = slices.Clone(r.Data)
	return r
}

func (m *Memory) GetSessionPointer(_ context.Context, learnerID, openSession string) (*store.SessionPointer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetSessionPointer"); err != nil {
		return nil, err
	}
	p, ok := m.pointers[[2]string{learnerID, openSession}]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) InsertSessionPointer(_ context.Context, p *store.SessionPointer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("InsertSessionPointer"); err != nil {
		return err
	}
	k := [2]string{p.LearnerID, p.OpenSession}
	if _, ok := m.pointers[k]; ok {
		return store.ErrConflict
	}
	m.pointers[k] = *p
	return nil
}

func (m *Memory) UpdateSessionPointer(_ context.Context, p *store.SessionPointer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UpdateSessionPointer"); err != nil {
		return err
	}
	k := [2]string{p.LearnerID, p.OpenSession}
	if _, ok := m.pointers[k]; !ok {
		return store.ErrNotFound
	}
	m.pointers[k] = *p
	return nil
}

func (m *Memory) LatestSessionPointer(_ context.Context, learnerID string) (*store.SessionPointer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("LatestSessionPointer"); err != nil {
		return nil, err
	}
	var latest *store.SessionPointer
	for _, p := range m.pointers {
		if p.LearnerID != learnerID {
			continue
		}
		if latest == nil || p.LastModified.After(latest.LastModified) {
			c := p
			latest = &c
		}
	}
	return latest, nil
}

// Pointers returns the number of pointer rows for learnerID.
func (m *Memory) Pointers(learnerID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.pointers {
		if k[0] == learnerID {
			n++
		}
	}
	return n
}

func (m *Memory) RecordAttempt(_ context.Context, d store.AttemptEventData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("RecordAttempt"); err != nil {
		return err
	}
	m.seq++
	k := [5]string{d.LearnerID, d.QuizType, d.Category, d.QuestionID, d.SubQuestionID}
	m.attempts[k] = store.AttemptEvent{AttemptEventData: d, Sequence: m.seq, Timestamp: time.Now().UTC()}
	return nil
}

func (m *Memory) Attempts(_ context.Context, learnerID, quizType, category string) ([]store.AttemptEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Attempts"); err != nil {
		return nil, err
	}
	var out []store.AttemptEvent
	for _, ev := range m.attempts {
		if ev.LearnerID == learnerID && ev.QuizType == quizType && ev.Category == category {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (m *Memory) CreateExamSession(_ context.Context, e *store.ExamSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CreateExamSession"); err != nil {
		return err
	}
	if _, ok := m.exams[e.ID]; ok {
		return store.ErrConflict
	}
	c := *e
	c.QuestionIDs = slices.Clone(e.QuestionIDs)
	m.exams[e.ID] = c
	return nil
}

func (m *Memory) GetExamSession(_ context.Context, id string) (*store.ExamSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetExamSession"); err != nil {
		return nil, err
	}
	e, ok := m.exams[id]
	if !ok {
		return nil, fmt.Errorf("exam session %s: %w", id, store.ErrNotFound)
	}
	e.QuestionIDs = slices.Clone(e.QuestionIDs)
	return &e, nil
}
