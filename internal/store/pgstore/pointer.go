package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/abhisek/quizcycle/internal/store"
)

func (s *Store) GetSessionPointer(ctx context.Context, learnerID, openSession string) (*store.SessionPointer, error) {
	query := `
		SELECT learner_id, open_session, session_id, last_modified
		FROM session_pointers
		WHERE learner_id = $1 AND open_session = $2
	`
	return scanPointer(s.db.QueryRow(ctx, query, learnerID, openSession))
}

func (s *Store) InsertSessionPointer(ctx context.Context, p *store.SessionPointer) error {
	query := `
		INSERT INTO session_pointers (learner_id, open_session, session_id, last_modified)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.db.Exec(ctx, query, p.LearnerID, p.OpenSession, p.SessionID, store.ToMillis(p.LastModified))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert session pointer: %w", store.ErrConflict)
		}
		return fmt.Errorf("insert session pointer: %w", err)
	}
	return nil
}

func (s *Store) UpdateSessionPointer(ctx context.Context, p *store.SessionPointer) error {
	query := `
		UPDATE session_pointers
		SET session_id = $3, last_modified = $4
		WHERE learner_id = $1 AND open_session = $2
	`

	tag, err := s.db.Exec(ctx, query, p.LearnerID, p.OpenSession, p.SessionID, store.ToMillis(p.LastModified))
	if err != nil {
		return fmt.Errorf("update session pointer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update session pointer: %w", store.ErrNotFound)
	}
	return nil
}

func (s *Store) LatestSessionPointer(ctx context.Context, learnerID string) (*store.SessionPointer, error) {
	query := `
		SELECT learner_id, open_session, session_id, last_modified
		FROM session_pointers
		WHERE learner_id = $1
		ORDER BY last_modified DESC
		LIMIT 1
	`
	return scanPointer(s.db.QueryRow(ctx, query, learnerID))
}

func scanPointer(row pgx.Row) (*store.SessionPointer, error) {
	var (
		p  store.SessionPointer
		ms int64
	)
	err := row.Scan(&p.LearnerID, &p.OpenSession, &p.SessionID, &ms)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session pointer: %w", err)
	}
	p.LastModified = store.FromMillis(ms)
	return &p, nil
}
