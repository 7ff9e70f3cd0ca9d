package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCeiling(t *testing.T) {
	b := Backoff{Initial: time.Millisecond, Max: 10 * time.Millisecond}

	testCases := []struct {
		retry    int
		expected time.Duration
	}{
		{retry: 1, expected: time.Millisecond},
		{retry: 2, expected: 2 * time.Millisecond},
		{retry: 4, expected: 8 * time.Millisecond},
		{retry: 5, expected: 10 * time.Millisecond},
		{retry: 60, expected: 10 * time.Millisecond},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, b.Ceiling(tc.retry), "retry %d", tc.retry)
	}
}

func TestCeilingDefaults(t *testing.T) {
	assert.Equal(t, DefaultInitialInterval, Backoff{}.Ceiling(1))
	assert.Equal(t, DefaultMaxInterval, Backoff{}.Ceiling(100))
}

func TestDelayStaysWithinCeiling(t *testing.T) {
	b := Backoff{Initial: time.Millisecond, Max: 4 * time.Millisecond}
	for n := 1; n <= 5; n++ {
		for i := 0; i < 50; i++ {
			d := b.Delay(n)
			assert.GreaterOrEqual(t, d, time.Duration(0))
			assert.LessOrEqual(t, d, b.Ceiling(n))
		}
	}
}

func TestWaitStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := Backoff{Initial: time.Hour, Max: time.Hour}
	assert.ErrorIs(t, b.Wait(ctx, 1), context.Canceled)
}
