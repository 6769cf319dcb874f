package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy(sleeps *[]time.Duration) RetryPolicy {
	p := DefaultRetryPolicy()
	p.sleep = func(_ context.Context, d time.Duration) {
		*sleeps = append(*sleeps, d)
	}
	return p
}

func TestRetryRecoversFromRateLimit(t *testing.T) {
	var sleeps []time.Duration
	p := testPolicy(&sleeps)

	attempts := 0
	err := p.Do(context.Background(), func() error {
		attempts++
		if attempts <= 2 {
			return errors.New("request failed with status 429")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleeps)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	var sleeps []time.Duration
	p := testPolicy(&sleeps)

	attempts := 0
	err := p.Do(context.Background(), func() error {
		attempts++
		return errors.New("RATELIMIT_EXCEEDED")
	})

	require.Error(t, err)
	assert.Equal(t, 7, attempts)
	// Waits double from 2s and stop short of the cap within 6 sleeps.
	assert.Equal(t, []time.Duration{
		2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 32 * time.Second, 64 * time.Second,
	}, sleeps)
}

func TestRetryWaitIsCapped(t *testing.T) {
	var sleeps []time.Duration
	p := testPolicy(&sleeps)
	p.MaxAttempts = 10

	err := p.Do(context.Background(), func() error {
		return errors.New("quota exhausted for today")
	})

	require.Error(t, err)
	require.Len(t, sleeps, 9)
	assert.Equal(t, 128*time.Second, sleeps[6])
	assert.Equal(t, 128*time.Second, sleeps[8])
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	var sleeps []time.Duration
	p := testPolicy(&sleeps)

	attempts := 0
	permanent := errors.New("invalid api key")
	err := p.Do(context.Background(), func() error {
		attempts++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, sleeps)
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	p := DefaultRetryPolicy()
	p.sleep = func(context.Context, time.Duration) { cancel() }

	attempts := 0
	err := p.Do(ctx, func() error {
		attempts++
		return errors.New("rate limit hit")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, IsRateLimitError(errors.New("HTTP 429 Too Many Requests")))
	assert.True(t, IsRateLimitError(errors.New("RATELIMIT_EXCEEDED")))
	assert.True(t, IsRateLimitError(errors.New("Quota exceeded")))
	assert.True(t, IsRateLimitError(errors.New("Rate Limit reached")))
	assert.False(t, IsRateLimitError(errors.New("connection refused")))
	assert.False(t, IsRateLimitError(nil))
}
