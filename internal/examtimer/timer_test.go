package examtimer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemainingBoundary(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	deadline := start.Add(DefaultDuration)

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"at start", start, int(DefaultDuration / time.Second)},
		{"one second before deadline", deadline.Add(-time.Second), 1},
		{"just under two seconds", deadline.Add(-1999 * time.Millisecond), 1},
		{"at deadline", deadline, 0},
		{"past deadline", deadline.Add(time.Hour), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Remaining(start, DefaultDuration, tt.now))
		})
	}
}

func manualTicks() (chan time.Time, TickSource) {
	ch := make(chan time.Time)
	return ch, func() (<-chan time.Time, func()) { return ch, func() {} }
}

func TestTimerCountsDownAndExpiresOnce(t *testing.T) {
	ch, src := manualTicks()

	var (
		mu   sync.Mutex
		seen []int
	)
	timer := New(3, WithTickSource(src), WithOnTick(func(r int) {
		mu.Lock()
		seen = append(seen, r)
		mu.Unlock()
	}))

	done := make(chan struct{})
	go func() {
		timer.Run(context.Background())
		close(done)
	}()

	for i := 0; i < 3; i++ {
		ch <- time.Now()
	}

	select {
	case <-timer.Expired():
	case <-time.After(time.Second):
		t.Fatal("timer did not expire")
	}
	<-done

	mu.Lock()
	assert.Equal(t, []int{2, 1, 0}, seen)
	mu.Unlock()
	assert.True(t, timer.IsExpired())
	assert.Equal(t, 0, timer.Remaining())

	// A second expiry must not panic on a closed channel.
	timer.Expire()
}

func TestTimerZeroAtLoadExpiresImmediately(t *testing.T) {
	timer := New(0)
	timer.Run(context.Background())
	require.True(t, timer.IsExpired())

	select {
	case <-timer.Expired():
	default:
		t.Fatal("expired channel should be closed")
	}
}

func TestTimerStopsOnCancel(t *testing.T) {
	_, src := manualTicks()
	timer := New(10, WithTickSource(src))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	timer.Run(ctx)

	assert.False(t, timer.IsExpired())
	assert.Equal(t, 10, timer.Remaining())
}
