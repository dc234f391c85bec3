package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"textworker/internal/retry"
)

// RetryPolicy bounds how often and how long a task retries transient
// failures before giving up.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration

	// Jitter randomizes delays to avoid retry storms.
	Jitter bool
}

// DefaultRetryPolicy matches the worker's production defaults: three
// retries starting at one minute, capped at one hour.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Minute,
		MaxDelay:   time.Hour,
		Jitter:     true,
	}
}

// Run executes fn, retrying transient failures with exponential backoff.
// Permanent failures and exhausted retries return the last error; ctx
// cancellation aborts the wait immediately.
func (p RetryPolicy) Run(ctx context.Context, logger *slog.Logger, fn func(context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= p.MaxRetries {
			return fmt.Errorf("retries exhausted after %d attempts: %w", attempt+1, err)
		}
		if !retry.Retryable(err) {
			return err
		}

		delay := retry.Backoff(attempt, p.BaseDelay, p.MaxDelay, p.Jitter)
		logger.Warn("retrying after transient failure",
			"attempt", attempt+1,
			"max_retries", p.MaxRetries,
			"delay", delay,
			"error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		case <-timer.C:
		}
	}
}
