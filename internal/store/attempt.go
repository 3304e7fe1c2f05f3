package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var attemptColumns = []string{
	"sequence", "timestamp", "learner_id", "quiz_type", "category", "cycle",
	"question_id", "sub_question_id", "correct", "submitted_answer",
}

// RecordAttempt upserts the entry for (learner, quiz type, category,
// question, sub-question). A replacement takes a fresh sequence number.
func (s *Store) RecordAttempt(ctx context.Context, data AttemptEventData) error {
	seq, err := nextValue(ctx, s.db, attemptSequence)
	if err != nil {
		return err
	}

	query, args := builder().
		Insert(AttemptEventsTable.Name).
		Columns(attemptColumns...).
		Values(
			seq, ToMillis(time.Now()), data.LearnerID, data.QuizType, data.Category, data.Cycle,
			data.QuestionID, data.SubQuestionID, data.Correct, data.SubmittedAnswer,
		).
		OnConflict(
			entsql.ConflictColumns("learner_id", "quiz_type", "category", "question_id", "sub_question_id"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// Attempts returns the learner's entries for a category ordered by sequence.
func (s *Store) Attempts(ctx context.Context, learnerID, quizType, category string) ([]AttemptEvent, error) {
	query, args := builder().
		Select(attemptColumns...).
		From(entsql.Table(AttemptEventsTable.Name)).
		Where(entsql.And(
			entsql.EQ("learner_id", learnerID),
			entsql.EQ("quiz_type", quizType),
			entsql.EQ("category", category),
		)).
		OrderBy("sequence").
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []AttemptEvent
	for rows.Next() {
		var (
			ev AttemptEvent
			ts int64
		)
		if err := rows.Scan(
			&ev.Sequence, &ts, &ev.LearnerID, &ev.QuizType, &ev.Category, &ev.Cycle,
			&ev.QuestionID, &ev.SubQuestionID, &ev.Correct, &ev.SubmittedAnswer,
		); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		ev.Timestamp = FromMillis(ts)
		out = append(out, ev)
	}
	return out, rows.Err()
}
