package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/quizcycle/internal/store"
)

func (s *Store) RecordAttempt(ctx context.Context, d store.AttemptEventData) error {
	query := `
		INSERT INTO attempt_events (
			sequence, timestamp, learner_id, quiz_type, category, cycle,
			question_id, sub_question_id, correct, submitted_answer
		)
		VALUES (nextval('attempt_sequence'), $1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (learner_id, quiz_type, category, question_id, sub_question_id)
		DO UPDATE SET
			sequence = excluded.sequence,
			timestamp = excluded.timestamp,
			cycle = excluded.cycle,
			correct = excluded.correct,
			submitted_answer = excluded.submitted_answer
	`

	_, err := s.db.Exec(ctx, query,
		store.ToMillis(time.Now()), d.LearnerID, d.QuizType, d.Category, d.Cycle,
		d.QuestionID, d.SubQuestionID, d.Correct, d.SubmittedAnswer,
	)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

func (s *Store) Attempts(ctx context.Context, learnerID, quizType, category string) ([]store.AttemptEvent, error) {
	query := `
		SELECT sequence, timestamp, learner_id, quiz_type, category, cycle,
			question_id, sub_question_id, correct, submitted_answer
		FROM attempt_events
		WHERE learner_id = $1 AND quiz_type = $2 AND category = $3
		ORDER BY sequence
	`

	rows, err := s.db.Query(ctx, query, learnerID, quizType, category)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []store.AttemptEvent
	for rows.Next() {
		var (
			ev store.AttemptEvent
			ts int64
		)
		if err := rows.Scan(
			&ev.Sequence, &ts, &ev.LearnerID, &ev.QuizType, &ev.Category, &ev.Cycle,
			&ev.QuestionID, &ev.SubQuestionID, &ev.Correct, &ev.SubmittedAnswer,
		); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		ev.Timestamp = store.FromMillis(ts)
		out = append(out, ev)
	}
	return out, rows.Err()
}
