// Package session opens drills and mock exams. It fetches the question
// set, builds the cycle controller, runs the exam countdown and keeps the
// session registry current.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/abhisek/quizcycle/internal/cycle"
	"github.com/abhisek/quizcycle/internal/examtimer"
	"github.com/abhisek/quizcycle/internal/progress"
	"github.com/abhisek/quizcycle/internal/registry"
)

// lowTimeSeconds is the countdown value at which a timed session warns.
const lowTimeSeconds = 5 * 60

// Session is one open drill or exam.
type Session struct {
	LearnerID string
	Tag       string
	SessionID string
	Title     string

	Controller *cycle.Controller

	// Timer is nil for drills, untimed exams and exams opened for review.
	Timer *examtimer.Timer

	registry *registry.Registry
	logger   *zap.Logger

	cancel    context.CancelFunc
	wg        conc.WaitGroup
	started   bool
	closeOnce sync.Once
	mu        sync.Mutex
}

// Run starts the countdown and the expiry watcher of a timed session.
// It returns immediately; Close stops both.
func (s *Session) Run(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Timer == nil || s.started {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Go(func() {
		s.Timer.Run(ctx)
	})
	s.wg.Go(func() {
		err := cycle.WatchExpiry(ctx, s.Timer, s.Controller)
		switch {
		case err == nil, errors.Is(err, context.Canceled):
		case progress.IsTransient(err):
			s.logger.Warn("final save after expiry failed", zap.Error(err))
		default:
			s.logger.Error("submit on expiry", zap.Error(err))
		}
	})
}

// Remaining returns the countdown seconds, or -1 for an untimed session.
func (s *Session) Remaining() int {
	if s.Timer == nil {
		return -1
	}
	return s.Timer.Remaining()
}

func (s *Session) onTick(remaining int) {
	if remaining == lowTimeSeconds {
		s.logger.Warn("exam time running low",
			zap.String("session_id", s.SessionID),
			zap.Int("remaining_seconds", remaining),
		)
	}
}

// Close stops the countdown and records the navigation away in the
// registry without waiting for the write. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		if s.cancel != nil {
			s.cancel()
		}
		s.mu.Unlock()
		s.wg.Wait()

		// A completed cycle whose final save failed gets one more try.
		if s.Controller.Phase() == cycle.PhaseCompleted && s.Controller.Snapshot().Pending {
			if err := s.Controller.Finalize(context.Background()); err != nil {
				s.logger.Warn("final save on close failed", zap.Error(err))
			}
		}

		if s.registry != nil {
			s.registry.TouchDetached(context.Background(), s.LearnerID, s.Tag, s.SessionID)
		}
	})
}
