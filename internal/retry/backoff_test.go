package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() BackoffConfig {
	return BackoffConfig{
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
		MaxAttempts:  3,
		Jitter:       false,
	}
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	b := NewBackoff(fastConfig())
	calls := 0
	err := b.Retry(context.Background(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryEventualSuccess(t *testing.T) {
	b := NewBackoff(fastConfig())
	calls := 0
	err := b.Retry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	b := NewBackoff(fastConfig())
	boom := errors.New("persistent")
	calls := 0
	err := b.Retry(context.Background(), func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestRetryWithPredicateStopsOnPermanentError(t *testing.T) {
	b := NewBackoff(fastConfig())
	permanent := errors.New("permanent")
	calls := 0
	err := b.RetryWithPredicate(context.Background(), func() error {
		calls++
		return permanent
	}, func(err error) bool { return false })
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls, "non-retryable errors stop immediately")
}

func TestRetryRespectsContextCancellation(t *testing.T) {
	b := NewBackoff(BackoffConfig{
		InitialDelay: time.Minute,
		MaxDelay:     time.Minute,
		Multiplier:   2.0,
		MaxAttempts:  5,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := b.Retry(ctx, func() error { return errors.New("transient") })
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second, "cancellation short-circuits the delay")
}
