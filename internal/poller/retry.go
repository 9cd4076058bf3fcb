package poller

import (
	"context"
	"time"
)

// SleepFunc pauses for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryConfig configures how a POST is retried
type RetryConfig struct {
	MaxAttempts int           `json:"max_attempts" yaml:"max_attempts"`
	Delay       time.Duration `json:"delay" yaml:"delay"`

	// Sleep replaces the real pause; tests use it to record pauses
	Sleep SleepFunc `json:"-" yaml:"-"`
}

// DefaultRetryConfig returns three attempts spaced ten seconds apart
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		Delay:       10 * time.Second,
	}
}

// RetryableOperation is one attempt of a retried call
type RetryableOperation func(ctx context.Context, attempt int) error

// WithRetry runs op until it succeeds, fails with an error that is not a
// connection error, or MaxAttempts is reached. The delay is fixed and there
// is no pause after the last attempt. The last error is returned.
func WithRetry(ctx context.Context, config *RetryConfig, op RetryableOperation) error {
	if config == nil {
		config = DefaultRetryConfig()
	}
	sleep := config.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	maxAttempts := config.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt >= maxAttempts || !IsConnectionError(err) {
			break
		}

		if err := sleep(ctx, config.Delay); err != nil {
			return err
		}
	}

	return lastErr
}

// Sleep waits for d, returning early with the context error on cancellation
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
