package cycle

import "context"

// Expirer signals a deadline exactly once.
type Expirer interface {
	Expired() <-chan struct{}
}

// WatchExpiry blocks until timer expires, then finalizes c with whatever
// state it holds at that moment. It returns ctx.Err() if ctx ends first.
func WatchExpiry(ctx context.Context, timer Expirer, c *Controller) error {
	select {
	case <-timer.Expired():
		c.logger.Info("exam time expired, submitting")
		return c.Finalize(ctx)
	case <-ctx.Done():
		return ctx.Err()
	}
}
