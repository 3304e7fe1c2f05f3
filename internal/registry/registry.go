// Package registry remembers which quiz each learner last had open so the
// dashboard can offer to resume it.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/abhisek/quizcycle/internal/store"
)

// Registry upserts session pointers.
type Registry struct {
	repo   store.SessionPointerRepo
	logger *zap.Logger
	now    func() time.Time

	wg conc.WaitGroup
}

// Option configures a Registry.
type Option func(*Registry)

func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func New(repo store.SessionPointerRepo, opts ...Option) *Registry {
	r := &Registry{repo: repo, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Touch marks (learner, openSession) as the most recently used quiz.
// sessionID is empty for drills.
func (r *Registry) Touch(ctx context.Context, learnerID, openSession, sessionID string) error {
	p := &store.SessionPointer{
		LearnerID:    learnerID,
		OpenSession:  openSession,
		SessionID:    sessionID,
		LastModified: r.now().UTC(),
	}

	existing, err := r.repo.GetSessionPointer(ctx, learnerID, openSession)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if existing != nil {
		return r.update(ctx, p)
	}

	err = r.repo.InsertSessionPointer(ctx, p)
	if errors.Is(err, store.ErrConflict) {
		// Someone inserted between our read and write; last write wins.
		return r.update(ctx, p)
	}
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

func (r *Registry) update(ctx context.Context, p *store.SessionPointer) error {
	if err := r.repo.UpdateSessionPointer(ctx, p); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// TouchDetached runs Touch in the background, detached from ctx's
// cancellation. Failures are logged. Wait drains outstanding touches.
func (r *Registry) TouchDetached(ctx context.Context, learnerID, openSession, sessionID string) {
	ctx = context.WithoutCancel(ctx)
	r.wg.Go(func() {
		if err := r.Touch(ctx, learnerID, openSession, sessionID); err != nil {
			r.logger.Warn("unload touch failed",
				zap.String("learner_id", learnerID),
				zap.String("open_session", openSession),
				zap.Error(err),
			)
		}
	})
}

// Wait blocks until every detached touch has finished.
func (r *Registry) Wait() {
	r.wg.Wait()
}

// Last returns the learner's most recently touched pointer, or nil when
// there is nothing to resume.
func (r *Registry) Last(ctx context.Context, learnerID string) (*store.SessionPointer, error) {
	p, err := r.repo.LatestSessionPointer(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("last session: %w", err)
	}
	return p, nil
}
