package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
)

var pointerColumns = []string{"learner_id", "open_session", "session_id", "last_modified"}

func (s *Store) GetSessionPointer(ctx context.Context, learnerID, openSession string) (*SessionPointer, error) {
	query, args := builder().
		Select(pointerColumns...).
		From(entsql.Table(SessionPointersTable.Name)).
		Where(entsql.And(
			entsql.EQ("learner_id", learnerID),
			entsql.EQ("open_session", openSession),
		)).
		Query()
	return s.scanPointer(ctx, query, args)
}

func (s *Store) InsertSessionPointer(ctx context.Context, p *SessionPointer) error {
	query, args := builder().
		Insert(SessionPointersTable.Name).
		Columns(pointerColumns...).
		Values(p.LearnerID, p.OpenSession, p.SessionID, ToMillis(p.LastModified)).
		Query()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			return fmt.Errorf("insert session pointer: %w", ErrConflict)
		}
		return fmt.Errorf("insert session pointer: %w", err)
	}
	return nil
}

func (s *Store) UpdateSessionPointer(ctx context.Context, p *SessionPointer) error {
	query, args := builder().
		Update(SessionPointersTable.Name).
		Set("session_id", p.SessionID).
		Set("last_modified", ToMillis(p.LastModified)).
		Where(entsql.And(
			entsql.EQ("learner_id", p.LearnerID),
			entsql.EQ("open_session", p.OpenSession),
		)).
		Query()

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update session pointer: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update session pointer: %w", ErrNotFound)
	}
	return nil
}

func (s *Store) LatestSessionPointer(ctx context.Context, learnerID string) (*SessionPointer, error) {
	query, args := builder().
		Select(pointerColumns...).
		From(entsql.Table(SessionPointersTable.Name)).
		Where(entsql.EQ("learner_id", learnerID)).
		OrderBy(entsql.Desc("last_modified")).
		Limit(1).
		Query()
	return s.scanPointer(ctx, query, args)
}

func (s *Store) scanPointer(ctx context.Context, query string, args []any) (*SessionPointer, error) {
	var (
		p  SessionPointer
		ms int64
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&p.LearnerID, &p.OpenSession, &p.SessionID, &ms)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query session pointer: %w", err)
	}
	p.LastModified = FromMillis(ms)
	return &p, nil
}
