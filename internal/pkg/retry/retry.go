// Package retry spaces out attempts that lost a race to another writer, so
// that the losers of one round do not all collide again on the next.
package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

const (
	DefaultInitialInterval = 2 * time.Millisecond
	DefaultMaxInterval     = 50 * time.Millisecond
)

// Backoff is an exponential backoff with full jitter: before retry n the
// caller sleeps a uniform random duration in [0, min(Max, Initial*2^(n-1))].
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
}

func (b Backoff) withDefaults() Backoff {
	if b.Initial <= 0 {
		b.Initial = DefaultInitialInterval
	}
	if b.Max < b.Initial {
		b.Max = max(DefaultMaxInterval, b.Initial)
	}
	return b
}

// Ceiling is the upper bound of the delay before retry n (n >= 1).
func (b Backoff) Ceiling(n int) time.Duration {
	b = b.withDefaults()
	d := b.Initial
	for i := 1; i < n && d < b.Max; i++ {
		d *= 2
	}
	return min(d, b.Max)
}

// Delay draws the delay before retry n.
func (b Backoff) Delay(n int) time.Duration {
	return rand.N(b.Ceiling(n) + 1)
}

// Wait sleeps before retry n. It returns ctx.Err() if the context ends first.
func (b Backoff) Wait(ctx context.Context, n int) error {
	t := time.NewTimer(b.Delay(n))
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
