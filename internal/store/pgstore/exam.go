package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/abhisek/quizcycle/internal/store"
)

func (s *Store) CreateExamSession(ctx context.Context, e *store.ExamSession) error {
	query := `
		INSERT INTO exam_sessions (id, learner_id, quiz_type, start_time, question_ids, timer_enabled)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.Exec(ctx, query,
		e.ID, e.LearnerID, e.QuizType, store.ToMillis(e.StartTime), e.QuestionIDs, e.TimerEnabled,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create exam session %s: %w", e.ID, store.ErrConflict)
		}
		return fmt.Errorf("create exam session: %w", err)
	}
	return nil
}

func (s *Store) GetExamSession(ctx context.Context, id string) (*store.ExamSession, error) {
	query := `
		SELECT id, learner_id, quiz_type, start_time, question_ids, timer_enabled
		FROM exam_sessions
		WHERE id = $1
	`

	var (
		e     store.ExamSession
		start int64
	)
	err := s.db.QueryRow(ctx, query, id).
		Scan(&e.ID, &e.LearnerID, &e.QuizType, &start, &e.QuestionIDs, &e.TimerEnabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("exam session %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get exam session: %w", err)
	}
	e.StartTime = store.FromMillis(start)
	return &e, nil
}
