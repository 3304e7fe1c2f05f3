package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
)

var progressSelectColumns = []string{
	"learner_id", "quiz_type", "scope", "cycle", "session_id",
	"completed", "data", "created_at", "updated_at",
}

func progressKeyPredicate(key ProgressKey) *entsql.Predicate {
	return entsql.And(
		entsql.EQ("learner_id", key.LearnerID),
		entsql.EQ("quiz_type", key.QuizType),
		entsql.EQ("scope", key.Scope),
	)
}

// LatestProgress returns the highest cycle for key, or nil if none exist.
func (s *Store) LatestProgress(ctx context.Context, key ProgressKey) (*ProgressRow, error) {
	query, args := builder().
		Select(progressSelectColumns...).
		From(entsql.Table(ProgressTable.Name)).
		Where(progressKeyPredicate(key)).
		OrderBy(entsql.Desc("cycle")).
		Limit(1).
		Query()

	row, err := scanProgress(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest progress: %w", err)
	}
	return row, nil
}

// InsertProgress stores a brand-new cycle.
func (s *Store) InsertProgress(ctx context.Context, row *ProgressRow) error {
	query, args := builder().
		Insert(ProgressTable.Name).
		Columns(progressSelectColumns...).
		Values(
			row.Key.LearnerID, row.Key.QuizType, row.Key.Scope, row.Cycle, row.SessionID,
			row.Completed, string(row.Data), ToMillis(row.CreatedAt), ToMillis(row.UpdatedAt),
		).
		Query()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			return fmt.Errorf("insert progress cycle %d: %w", row.Cycle, ErrConflict)
		}
		return fmt.Errorf("insert progress: %w", err)
	}
	return nil
}

// UpdateProgress overwrites the mutable columns of an existing cycle.
func (s *Store) UpdateProgress(ctx context.Context, row *ProgressRow) error {
	query, args := builder().
		Update(ProgressTable.Name).
		Set("session_id", row.SessionID).
		Set("completed", row.Completed).
		Set("data", string(row.Data)).
		Set("updated_at", ToMillis(row.UpdatedAt)).
		Where(entsql.And(
			progressKeyPredicate(row.Key),
			entsql.EQ("cycle", row.Cycle),
		)).
		Query()

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update progress cycle %d: %w", row.Cycle, ErrNotFound)
	}
	return nil
}

// ListProgress returns every cycle for key, newest first.
func (s *Store) ListProgress(ctx context.Context, key ProgressKey) ([]ProgressRow, error) {
	query, args := builder().
		Select(progressSelectColumns...).
		From(entsql.Table(ProgressTable.Name)).
		Where(progressKeyPredicate(key)).
		OrderBy(entsql.Desc("cycle")).
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	var out []ProgressRow
	for rows.Next() {
		row, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		out = append(out, *row)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProgress(sc scanner) (*ProgressRow, error) {
	var (
		row                  ProgressRow
		data                 string
		createdAt, updatedAt int64
	)
	err := sc.Scan(
		&row.Key.LearnerID, &row.Key.QuizType, &row.Key.Scope, &row.Cycle, &row.SessionID,
		&row.Completed, &data, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	row.Data = []byte(data)
	row.CreatedAt = FromMillis(createdAt)
	row.UpdatedAt = FromMillis(updatedAt)
	return &row, nil
}
