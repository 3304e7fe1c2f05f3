package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Named sequences.
const attemptSequence = "attempt_events"

// nextValueSQL bumps a named counter and returns the value it held. The
// first call for a name seeds it. ent's builder quotes RETURNING items as
// identifiers, so the arithmetic needs raw SQL.
const nextValueSQL = `INSERT INTO sequences (name, next_val) VALUES (?, 2)
ON CONFLICT (name) DO UPDATE SET next_val = next_val + 1
RETURNING next_val - 1`

// nextValue hands out increasing values per name. Attempt upserts replace
// rows in place, so the row id cannot order them; each write takes a
// fresh value instead. The single pooled connection serializes callers.
func nextValue(ctx context.Context, db *sql.DB, name string) (int64, error) {
	var v int64
	if err := db.QueryRowContext(ctx, nextValueSQL, name).Scan(&v); err != nil {
		return 0, fmt.Errorf("next %s sequence: %w", name, err)
	}
	return v, nil
}
