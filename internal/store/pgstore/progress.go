package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/abhisek/quizcycle/internal/store"
)

const progressColumns = `learner_id, quiz_type, scope, cycle, session_id, completed, data, created_at, updated_at`

func (s *Store) LatestProgress(ctx context.Context, key store.ProgressKey) (*store.ProgressRow, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM progress
		WHERE learner_id = $1 AND quiz_type = $2 AND scope = $3
		ORDER BY cycle DESC
		LIMIT 1
	`

	row, err := scanProgress(s.db.QueryRow(ctx, query, key.LearnerID, key.QuizType, key.Scope))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest progress: %w", err)
	}
	return row, nil
}

func (s *Store) InsertProgress(ctx context.Context, row *store.ProgressRow) error {
	query := `
		INSERT INTO progress (` + progressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.Exec(ctx, query,
		row.Key.LearnerID, row.Key.QuizType, row.Key.Scope, row.Cycle, row.SessionID,
		row.Completed, string(row.Data), store.ToMillis(row.CreatedAt), store.ToMillis(row.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert progress cycle %d: %w", row.Cycle, store.ErrConflict)
		}
		return fmt.Errorf("insert progress: %w", err)
	}
	return nil
}

func (s *Store) UpdateProgress(ctx context.Context, row *store.ProgressRow) error {
	query := `
		UPDATE progress
		SET session_id = $5, completed = $6, data = $7, updated_at = $8
		WHERE learner_id = $1 AND quiz_type = $2 AND scope = $3 AND cycle = $4
	`

	tag, err := s.db.Exec(ctx, query,
		row.Key.LearnerID, row.Key.QuizType, row.Key.Scope, row.Cycle,
		row.SessionID, row.Completed, string(row.Data), store.ToMillis(row.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update progress cycle %d: %w", row.Cycle, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListProgress(ctx context.Context, key store.ProgressKey) ([]store.ProgressRow, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM progress
		WHERE learner_id = $1 AND quiz_type = $2 AND scope = $3
		ORDER BY cycle DESC
	`

	rows, err := s.db.Query(ctx, query, key.LearnerID, key.QuizType, key.Scope)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var out []store.ProgressRow
	for rows.Next() {
		row, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		out = append(out, *row)
	}
	return out, rows.Err()
}

func scanProgress(sc pgx.Row) (*store.ProgressRow, error) {
	var (
		row                  store.ProgressRow
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
	row.CreatedAt = store.FromMillis(createdAt)
	row.UpdatedAt = store.FromMillis(updatedAt)
	return &row, nil
}
