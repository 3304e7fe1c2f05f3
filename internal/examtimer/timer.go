// Package examtimer implements the mock exam countdown.
package examtimer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultDuration is the length of a mock exam.
const DefaultDuration = 180 * time.Minute

// Remaining returns the whole seconds left until start+d at now, never
// negative.
func Remaining(start time.Time, d time.Duration, now time.Time) int {
	left := start.Add(d).Sub(now)
	if left <= 0 {
		return 0
	}
	return int(left / time.Second)
}

// TickSource returns a channel delivering one value per second and a stop
// function.
type TickSource func() (<-chan time.Time, func())

func secondTicker() (<-chan time.Time, func()) {
	t := time.NewTicker(time.Second)
	return t.C, t.Stop
}

// Timer counts down whole seconds and fires a single expiry event.
type Timer struct {
	remaining atomic.Int64
	expired   atomic.Bool
	done      chan struct{}
	once      sync.Once

	onTick func(remaining int)
	ticks  TickSource
}

// Option configures a Timer.
type Option func(*Timer)

// WithOnTick publishes every new remaining value to fn.
func WithOnTick(fn func(remaining int)) Option {
	return func(t *Timer) { t.onTick = fn }
}

// WithTickSource replaces the one-second ticker.
func WithTickSource(src TickSource) Option {
	return func(t *Timer) { t.ticks = src }
}

// New creates a timer with remaining seconds left. It does not tick until
// Run is called.
func New(remaining int, opts ...Option) *Timer {
	t := &Timer{
		done:  make(chan struct{}),
		ticks: secondTicker,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.remaining.Store(int64(max(remaining, 0)))
	return t
}

// Run ticks until the timer expires or ctx ends. A timer created with
// zero seconds expires immediately.
func (t *Timer) Run(ctx context.Context) {
	if t.Remaining() == 0 {
		t.Expire()
		return
	}

	ch, stop := t.ticks()
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.done:
			return
		case <-ch:
			left := t.remaining.Add(-1)
			if left < 0 {
				left = 0
				t.remaining.Store(0)
			}
			if t.onTick != nil {
				t.onTick(int(left))
			}
			if left == 0 {
				t.Expire()
				return
			}
		}
	}
}

// Remaining returns the seconds left.
func (t *Timer) Remaining() int {
	return int(t.remaining.Load())
}

// Expire marks the timer expired. Only the first call has any effect.
func (t *Timer) Expire() {
	t.once.Do(func() {
		t.expired.Store(true)
		t.remaining.Store(0)
		close(t.done)
	})
}

// IsExpired reports whether the expiry event has fired.
func (t *Timer) IsExpired() bool {
	return t.expired.Load()
}

// Expired is closed exactly once, when the countdown reaches zero.
func (t *Timer) Expired() <-chan struct{} {
	return t.done
}
