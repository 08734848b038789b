package pacing

import (
	"context"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"
)

const (
	// minDelay is the shortest delay the random controller returns.
	minDelay = 1000 * time.Millisecond

	// maxDelay is the exclusive upper bound of the random controller.
	maxDelay = 3000 * time.Millisecond
)

// Controller produces the delay to wait before the next browser action.
type Controller interface {
	NextDelay() time.Duration
}

// Random draws delays uniformly from [1s, 3s).
type Random struct {
	// intn returns a value in [0, n). Tests replace it to pin delays.
	intn func(n int64) int64
}

// NewRandom returns the default human-like pacing controller.
func NewRandom() *Random {
	return &Random{intn: rand.Int64N}
}

// NextDelay returns a delay in [minDelay, maxDelay).
func (r *Random) NextDelay() time.Duration {
	intn := r.intn
	if intn == nil {
		intn = rand.Int64N
	}
	return minDelay + time.Duration(intn(int64(maxDelay-minDelay)))
}

// zero never waits.
type zero struct{}

// NextDelay always returns 0.
func (zero) NextDelay() time.Duration { return 0 }

// Zero returns a controller that never waits. It is meant for tests and
// for replaying a crawl against local fixtures.
func Zero() Controller {
	return zero{}
}

// Sleep waits for the next delay of c. It returns early with the context
// error if ctx is cancelled first.
func Sleep(ctx context.Context, c Controller) error {
	if w, ok := c.(waiter); ok {
		return w.wait(ctx)
	}
	return sleep(ctx, c.NextDelay())
}

// waiter is implemented by controllers that block on something other than
// a plain timer.
type waiter interface {
	wait(ctx context.Context) error
}

func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Limited caps the rate of paced actions with a token bucket while still
// applying the delays of the wrapped controller.
type Limited struct {
	inner   Controller
	limiter *rate.Limiter
}

// NewLimited wraps c so that Sleep lets at most perMinute actions through
// per minute. A perMinute of zero or less returns c unchanged.
func NewLimited(c Controller, perMinute int) Controller {
	if perMinute <= 0 {
		return c
	}
	return &Limited{
		inner:   c,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

// NextDelay returns the delay of the wrapped controller.
func (l *Limited) NextDelay() time.Duration {
	return l.inner.NextDelay()
}

func (l *Limited) wait(ctx context.Context) error {
	if err := sleep(ctx, l.inner.NextDelay()); err != nil {
		return err
	}
	return l.limiter.Wait(ctx)
}
