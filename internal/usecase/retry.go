package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/user/blog-analyzer/pkg/metrics"
)

// RetryPolicy retries an operation on transient failures with exponential
// backoff. Only errors matching the Retryable predicate are retried; the
// last error is returned once attempts are exhausted.
type RetryPolicy struct {
	MaxAttempts int
	BaseWait    time.Duration
	MaxWait     time.Duration
	Retryable   func(error) bool

	// sleep is swappable in tests.
	sleep func(ctx context.Context, d time.Duration)
}

// DefaultRetryPolicy matches the upstream API's rate-limit behavior:
// up to 7 attempts, waits starting at 2s and doubling to a 128s cap.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 7,
		BaseWait:    2 * time.Second,
		MaxWait:     128 * time.Second,
		Retryable:   IsRateLimitError,
	}
}

// Do runs op, sleeping between retryable failures. Backoff sleeps are
// local to the retrying task; they never block sibling workers.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	wait := p.BaseWait
	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}

		slog.Warn("transient analyzer failure, backing off",
			"attempt", attempt, "wait", wait.String(), "error", err)
		metrics.AnalysisRetries.Inc()
		sleep(ctx, wait)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		wait *= 2
		if wait > p.MaxWait {
			wait = p.MaxWait
		}
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// IsRateLimitError reports whether err carries the rate-limit/quota
// signature used by the upstream APIs. Anything else is permanent.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "RATELIMIT_EXCEEDED") ||
		strings.Contains(lower, "quota") ||
		strings.Contains(lower, "rate limit")
}
