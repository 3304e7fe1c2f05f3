package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
)

var examColumns = []string{"id", "learner_id", "quiz_type", "start_time", "question_ids", "timer_enabled"}

func (s *Store) CreateExamSession(ctx context.Context, e *ExamSession) error {
	ids, err := json.Marshal(e.QuestionIDs)
	if err != nil {
		return fmt.Errorf("marshal question ids: %w", err)
	}

	query, args := builder().
		Insert(ExamSessionsTable.Name).
		Columns(examColumns...).
		Values(e.ID, e.LearnerID, e.QuizType, ToMillis(e.StartTime), string(ids), e.TimerEnabled).
		Query()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			return fmt.Errorf("create exam session %s: %w", e.ID, ErrConflict)
		}
		return fmt.Errorf("create exam session: %w", err)
	}
	return nil
}

func (s *Store) GetExamSession(ctx context.Context, id string) (*ExamSession, error) {
	query, args := builder().
		Select(examColumns...).
		From(entsql.Table(ExamSessionsTable.Name)).
		Where(entsql.EQ("id", id)).
		Query()

	var (
		e     ExamSession
		start int64
		ids   string
	)
	err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&e.ID, &e.LearnerID, &e.QuizType, &start, &ids, &e.TimerEnabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("exam session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query exam session: %w", err)
	}
	if err := json.Unmarshal([]byte(ids), &e.QuestionIDs); err != nil {
		return nil, fmt.Errorf("unmarshal question ids: %w", err)
	}
	e.StartTime = FromMillis(start)
	return &e, nil
}
