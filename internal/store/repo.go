package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a keyed row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an insert collides with an existing key.
	ErrConflict = errors.New("already exists")
)

// ProgressKey identifies the cycles of one learner in one quiz scope.
// Scope is the category for drills and the exam session id for exams.
type ProgressKey struct {
	LearnerID string
	QuizType  string
	Scope     string
}

// ProgressRow is one persisted cycle. Data is an opaque serialized
// progress record; the store only understands the key columns.
type ProgressRow struct {
	Key       ProgressKey
	Cycle     int
	SessionID string
	Completed bool
	Data      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProgressRepo persists progress records, one row per cycle.
type ProgressRepo interface {
	// LatestProgress returns the highest cycle for key, or nil if none exist.
	LatestProgress(ctx context.Context, key ProgressKey) (*ProgressRow, error)

	// InsertProgress stores a brand-new cycle. Returns ErrConflict if the
	// cycle already exists.
	InsertProgress(ctx context.Context, row *ProgressRow) error

	// UpdateProgress overwrites an existing cycle. Returns ErrNotFound if
	// the cycle was never inserted.
	UpdateProgress(ctx context.Context, row *ProgressRow) error

	// ListProgress returns every cycle for key, newest first.
	ListProgress(ctx context.Context, key ProgressKey) ([]ProgressRow, error)
}

// SessionPointer marks the quiz a learner last had open.
type SessionPointer struct {
	LearnerID    string
	OpenSession  string
	SessionID    string
	LastModified time.Time
}

// SessionPointerRepo stores at most one pointer per (learner, open session).
type SessionPointerRepo interface {
	// GetSessionPointer returns the pointer row, or nil if absent.
	GetSessionPointer(ctx context.Context, learnerID, openSession string) (*SessionPointer, error)

	// InsertSessionPointer adds a pointer. Returns ErrConflict if one exists.
	InsertSessionPointer(ctx context.Context, p *SessionPointer) error

	// UpdateSessionPointer rewrites session id and timestamp of an existing row.
	UpdateSessionPointer(ctx context.Context, p *SessionPointer) error

	// LatestSessionPointer returns the learner's most recently modified
	// pointer, or nil if the learner has none.
	LatestSessionPointer(ctx context.Context, learnerID string) (*SessionPointer, error)
}

// AttemptEventData captures one answered question or sub-question.
// SubQuestionID is empty for the parent question entry.
type AttemptEventData struct {
	LearnerID       string
	QuizType        string
	Category        string
	Cycle           int
	QuestionID      string
	SubQuestionID   string
	Correct         bool
	SubmittedAnswer string
}

// AttemptEvent is a stored attempt log entry.
type AttemptEvent struct {
	AttemptEventData
	Sequence  int64
	Timestamp time.Time
}

// AttemptRepo keeps the latest result per learner, category, question and
// sub-question, independent of the resumable progress records.
type AttemptRepo interface {
	// RecordAttempt inserts or replaces the entry for the attempt's key.
	RecordAttempt(ctx context.Context, data AttemptEventData) error

	// Attempts returns the learner's entries for a category ordered by sequence.
	Attempts(ctx context.Context, learnerID, quizType, category string) ([]AttemptEvent, error)
}

// ExamSession is a started mock exam. The deadline is StartTime plus the
// configured exam duration.
type ExamSession struct {
	ID           string
	LearnerID    string
	QuizType     string
	StartTime    time.Time
	QuestionIDs  []string
	TimerEnabled bool
}

// ExamSessionRepo stores started exam sessions.
type ExamSessionRepo interface {
	CreateExamSession(ctx context.Context, s *ExamSession) error

	// GetExamSession returns ErrNotFound for an unknown id.
	GetExamSession(ctx context.Context, id string) (*ExamSession, error)
}

// Repos bundles every repository a backend provides.
type Repos interface {
	ProgressRepo
	SessionPointerRepo
	AttemptRepo
	ExamSessionRepo
	Close() error
}

// ToMillis converts a timestamp to the integer column form backends store.
func ToMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromMillis converts a stored integer timestamp back to UTC time.
func FromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
