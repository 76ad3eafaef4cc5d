// Package retry provides generic retry with exponential backoff for
// external calls.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Errors callers can mark as retryable.
var (
	ErrRateLimited = errors.New("finchat: rate limit exceeded")
	ErrTimeout     = errors.New("finchat: request timeout")
	ErrServerError = errors.New("finchat: server error (5xx)")
)

// Config configures retry behavior.
type Config struct {
	MaxRetries      int           // maximum retry attempts, 0 disables retries
	InitialDelay    time.Duration // delay before the first retry
	MaxDelay        time.Duration // cap on backoff delay
	Multiplier      float64       // backoff multiplier
	RetryableErrors []error       // errors that trigger a retry
}

// DefaultConfig returns retry defaults suitable for transient API failures.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   2,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		RetryableErrors: []error{
			ErrRateLimited,
			ErrTimeout,
			ErrServerError,
		},
	}
}

// IsRetryable reports whether err should trigger another attempt.
func (c Config) IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	for _, retryable := range c.RetryableErrors {
		if errors.Is(err, retryable) {
			return true
		}
	}
	return false
}

func (c Config) delay(attempt int) time.Duration {
	if attempt <= 0 {
		return c.InitialDelay
	}
	d := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt))
	if time.Duration(d) > c.MaxDelay {
		return c.MaxDelay
	}
	return time.Duration(d)
}

// Do runs fn, retrying retryable errors with exponential backoff until the
// attempt budget is spent or ctx is done. Non-retryable errors return
// immediately.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("context cancelled: %w", err)
		}

		result, lastErr = fn()
		if lastErr == nil {
			return result, nil
		}

		if !cfg.IsRetryable(lastErr) {
			return result, lastErr
		}

		if attempt >= cfg.MaxRetries {
			break
		}

		delay := cfg.delay(attempt)
		slog.Warn("operation failed, retrying",
			"attempt", attempt+1,
			"max_retries", cfg.MaxRetries,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return result, fmt.Errorf("context cancelled during backoff: %w", ctx.Err())
		}
	}

	return result, fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, lastErr)
}
