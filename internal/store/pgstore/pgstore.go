// Package pgstore is the PostgreSQL backend for the progress stores.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhisek/quizcycle/internal/store"
)

// PoolConfig tunes the connection pool.
type PoolConfig struct {
	MaxConns        int32
	MaxConnLifetime time.Duration
}

// Store implements store.Repos on a pgx connection pool.
type Store struct {
	db *pgxpool.Pool
}

var _ store.Repos = (*Store)(nil)

// Open connects to dsn and creates the tables if they are missing.
func Open(ctx context.Context, dsn string, cfg PoolConfig) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("new pool: %w", err)
	}

	s := &Store{db: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// New wraps an existing pool. The caller keeps ownership of the schema.
func New(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

// Close releases the pool.
func (s *Store) Close() error {
	s.db.Close()
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS progress (
	learner_id TEXT NOT NULL,
	quiz_type  TEXT NOT NULL,
	scope      TEXT NOT NULL,
	cycle      INTEGER NOT NULL,
	session_id TEXT NOT NULL DEFAULT '',
	completed  BOOLEAN NOT NULL DEFAULT FALSE,
	data       TEXT NOT NULL,
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL,
	PRIMARY KEY (learner_id, quiz_type, scope, cycle)
);

CREATE TABLE IF NOT EXISTS session_pointers (
	learner_id    TEXT NOT NULL,
	open_session  TEXT NOT NULL,
	session_id    TEXT NOT NULL DEFAULT '',
	last_modified BIGINT NOT NULL,
	PRIMARY KEY (learner_id, open_session)
);

CREATE SEQUENCE IF NOT EXISTS attempt_sequence;

CREATE TABLE IF NOT EXISTS attempt_events (
	id               BIGSERIAL PRIMARY KEY,
	sequence         BIGINT NOT NULL,
	timestamp        BIGINT NOT NULL,
	learner_id       TEXT NOT NULL,
	quiz_type        TEXT NOT NULL,
	category         TEXT NOT NULL,
	cycle            INTEGER NOT NULL,
	question_id      TEXT NOT NULL,
	sub_question_id  TEXT NOT NULL DEFAULT '',
	correct          BOOLEAN NOT NULL,
	submitted_answer TEXT NOT NULL DEFAULT '',
	UNIQUE (learner_id, quiz_type, category, question_id, sub_question_id)
);

CREATE TABLE IF NOT EXISTS exam_sessions (
	id            TEXT PRIMARY KEY,
	learner_id    TEXT NOT NULL,
	quiz_type     TEXT NOT NULL,
	start_time    BIGINT NOT NULL,
	question_ids  TEXT[] NOT NULL,
	timer_enabled BOOLEAN NOT NULL DEFAULT TRUE
);`

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaDDL)
	return err
}

// uniqueViolation is the PostgreSQL SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
