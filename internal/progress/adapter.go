package progress

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/quizcycle/internal/store"
)

// Adapter reads and writes progress records through a store backend,
// optionally mirroring every write locally.
type Adapter struct {
	repo   store.ProgressRepo
	mirror *Mirror
	logger *zap.Logger

	// unsynced holds mirror copies that won over the store but could not
	// be written back yet. They are flushed before any later cycle of the
	// same key is written, so the store never holds two active cycles.
	mu       sync.Mutex
	unsynced map[store.ProgressKey]*Record
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithMirror enables the local mirror.
func WithMirror(m *Mirror) Option {
	return func(a *Adapter) { a.mirror = m }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

func NewAdapter(repo store.ProgressRepo, opts ...Option) *Adapter {
	a := &Adapter{repo: repo, logger: zap.NewNop(), unsynced: make(map[store.ProgressKey]*Record)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Latest returns the newest usable record for key and the highest cycle
// number seen. rec is nil when nothing exists or the newest row is
// unreadable; lastCycle still counts that row so a fresh cycle is
// numbered after it.
//
// A mirrored copy wins over the store copy when it has a later cycle or a
// later update, and is written back to the store. If the store read fails
// the mirror alone is used; without a mirrored copy the failure is
// returned as a *StoreError.
func (a *Adapter) Latest(ctx context.Context, key store.ProgressKey) (rec *Record, lastCycle int, err error) {
	row, readErr := a.repo.LatestProgress(ctx, key)

	mirrored := a.fromMirror(key)

	if readErr != nil {
		if mirrored == nil {
			return nil, 0, &StoreError{Op: "latest", Err: readErr}
		}
		a.logger.Warn("progress store unavailable, using local mirror",
			zap.String("scope", key.Scope), zap.Error(readErr))
		return mirrored, mirrored.Cycle, nil
	}

	if row != nil {
		lastCycle = row.Cycle
		rec, err = Unmarshal(row.Data)
		if err != nil {
			a.logger.Error("unreadable progress record",
				zap.String("learner_id", key.LearnerID),
				zap.String("scope", key.Scope),
				zap.Int("cycle", row.Cycle),
				zap.Error(err),
			)
			rec = nil
		}
	}

	if mirrored != nil && newer(mirrored, rec, lastCycle) {
		a.logger.Info("local mirror is newer than store",
			zap.String("scope", key.Scope), zap.Int("cycle", mirrored.Cycle))
		a.writeBack(ctx, mirrored)
		return mirrored, max(lastCycle, mirrored.Cycle), nil
	}
	return rec, lastCycle, nil
}

// newer reports whether the mirrored record supersedes the stored one.
func newer(mirrored, stored *Record, storedCycle int) bool {
	if mirrored.Cycle != storedCycle {
		return mirrored.Cycle > storedCycle
	}
	if stored == nil {
		return true
	}
	return mirrored.UpdatedAt.After(stored.UpdatedAt)
}

func (a *Adapter) fromMirror(key store.ProgressKey) *Record {
	if a.mirror == nil {
		return nil
	}
	rec, err := a.mirror.Get(key)
	if err != nil {
		a.logger.Warn("ignoring local mirror", zap.String("scope", key.Scope), zap.Error(err))
		return nil
	}
	return rec
}

func (a *Adapter) writeBack(ctx context.Context, rec *Record) {
	if err := a.write(ctx, rec); err != nil {
		a.logger.Warn("write local mirror back to store",
			zap.String("scope", rec.Key().Scope), zap.Int("cycle", rec.Cycle), zap.Error(err))
		a.mu.Lock()
		a.unsynced[rec.Key()] = rec.Clone()
		a.mu.Unlock()
		return
	}
	a.mu.Lock()
	delete(a.unsynced, rec.Key())
	a.mu.Unlock()
}

// flush writes a pending mirror copy of an earlier cycle of rec's key.
// While it fails, rec is neither stored nor mirrored: the mirror keeps the
// earlier cycle so a restart can still write it back.
func (a *Adapter) flush(ctx context.Context, rec *Record) error {
	key := rec.Key()
	a.mu.Lock()
	prev, ok := a.unsynced[key]
	a.mu.Unlock()
	if !ok {
		return nil
	}
	if prev.Cycle < rec.Cycle {
		if err := a.write(ctx, prev); err != nil {
			return err
		}
	}
	a.mu.Lock()
	if a.unsynced[key] == prev {
		delete(a.unsynced, key)
	}
	a.mu.Unlock()
	return nil
}

// write updates rec's cycle row, inserting it when the row never landed.
func (a *Adapter) write(ctx context.Context, rec *Record) error {
	row, err := rec.toRow()
	if err != nil {
		return err
	}
	return a.writeRow(ctx, row)
}

func (a *Adapter) writeRow(ctx context.Context, row *store.ProgressRow) error {
	err := a.repo.UpdateProgress(ctx, row)
	if errors.Is(err, store.ErrNotFound) {
		err = a.repo.InsertProgress(ctx, row)
	}
	return err
}

// Create inserts a new cycle row.
func (a *Adapter) Create(ctx context.Context, rec *Record) error {
	if err := a.flush(ctx, rec); err != nil {
		return &StoreError{Op: "create", Err: err}
	}
	a.putMirror(rec)
	row, err := rec.toRow()
	if err != nil {
		return err
	}
	if err := a.repo.InsertProgress(ctx, row); err != nil {
		return &StoreError{Op: "create", Err: err}
	}
	return nil
}

// Save writes the full record over its cycle row. A row that never
// landed (an earlier Create failed) is inserted instead.
func (a *Adapter) Save(ctx context.Context, rec *Record) error {
	if err := a.flush(ctx, rec); err != nil {
		return &StoreError{Op: "save", Err: err}
	}
	a.putMirror(rec)
	row, err := rec.toRow()
	if err != nil {
		return err
	}
	if err := a.writeRow(ctx, row); err != nil {
		return &StoreError{Op: "save", Err: err}
	}
	return nil
}

func (a *Adapter) putMirror(rec *Record) {
	if a.mirror == nil {
		return
	}
	if err := a.mirror.Put(rec); err != nil {
		a.logger.Warn("write local mirror", zap.String("scope", rec.Key().Scope), zap.Error(err))
	}
}

// HistoryEntry summarizes one stored cycle.
type HistoryEntry struct {
	Cycle        int
	Total        int
	Answered     int
	CorrectCount int
	Completed    bool
	StartedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  time.Time
}

// History lists the stored cycles for key, newest first. Unreadable rows
// are reported with only their key columns.
func (a *Adapter) History(ctx context.Context, key store.ProgressKey) ([]HistoryEntry, error) {
	rows, err := a.repo.ListProgress(ctx, key)
	if err != nil {
		return nil, &StoreError{Op: "history", Err: err}
	}

	out := make([]HistoryEntry, 0, len(rows))
	for _, row := range rows {
		e := HistoryEntry{
			Cycle:     row.Cycle,
			Completed: row.Completed,
			StartedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		}
		rec, err := Unmarshal(row.Data)
		if err != nil {
			a.logger.Error("unreadable progress record in history",
				zap.String("scope", key.Scope), zap.Int("cycle", row.Cycle), zap.Error(err))
		} else {
			e.Total = len(rec.QuestionOrder)
			e.Answered = rec.Answered()
			e.CorrectCount = rec.CorrectCount
			e.CompletedAt = rec.CompletedAt
		}
		out = append(out, e)
	}
	return out, nil
}
