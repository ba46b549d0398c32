package common

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// RetryableFunc defines a function that can be retried.
// It should return an error if the operation failed and needs to be retried.
type RetryableFunc func() error

// SleepFunc pauses between attempts. It must honor context cancellation and
// return the context error if cancelled. Replaceable in tests so that backoff
// timing can be verified without real sleeping.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Config holds the configuration for retry behavior.
type Config struct {
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	retryIf      func(error) bool
	sleep        SleepFunc
}

// Option is a functional option for configuring retry behavior.
type Option func(*Config)

// WithMaxAttempts sets the total number of attempts, including the first one.
// Default is 3 attempts.
func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithInitialDelay sets the delay before the first retry.
// Default is 1 second.
func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.initialDelay = d
		}
	}
}

// WithMaxDelay sets the maximum delay between retries.
// Default is 30 seconds.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.maxDelay = d
		}
	}
}

// WithMultiplier sets the exponential backoff multiplier.
// Default is 2.0 (doubles each retry).
func WithMultiplier(m float64) Option {
	return func(c *Config) {
		if m > 0 {
			c.multiplier = m
		}
	}
}

// WithRetryIf sets a predicate deciding whether an error is worth retrying.
// Errors rejected by the predicate abort immediately with that error.
// Default retries every error except those marked with Permanent.
func WithRetryIf(fn func(error) bool) Option {
	return func(c *Config) {
		if fn != nil {
			c.retryIf = fn
		}
	}
}

// WithSleep replaces the sleep implementation used between attempts.
func WithSleep(fn SleepFunc) Option {
	return func(c *Config) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// permanentError marks an error that must never be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps an error so that Do gives up on it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// defaultConfig returns the default retry configuration.
func defaultConfig() *Config {
	return &Config{
		maxAttempts:  3,
		initialDelay: 1 * time.Second,
		maxDelay:     30 * time.Second,
		multiplier:   2.0,
		retryIf:      func(err error) bool { return !IsPermanent(err) },
		sleep:        sleepWithContext,
	}
}

// Do executes the provided function with exponential backoff retry logic.
// It respects context cancellation and will stop retrying if the context is
// cancelled.
//
// The function will:
// - Execute immediately on the first attempt
// - Retry on retryable failure with exponential backoff
// - Return nil if any attempt succeeds
// - Return the last error once all attempts are exhausted
// - Return context.Canceled or context.DeadlineExceeded if context is cancelled
//
// Example usage:
//
//	err := common.Do(ctx, func() error {
//	    return someAPICall()
//	}, common.WithMaxAttempts(3), common.WithInitialDelay(time.Second))
func Do(ctx context.Context, fn RetryableFunc, opts ...Option) error {
	if fn == nil {
		return errors.New("retry: function cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		if attempt > 1 {
			// Check context before sleeping
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry aborted after %d attempts: %w", attempt-1, ctx.Err())
			default:
			}

			delay := calculateDelay(attempt-1, cfg.initialDelay, cfg.maxDelay, cfg.multiplier)
			if err := cfg.sleep(ctx, delay); err != nil {
				return fmt.Errorf("retry aborted during backoff (attempt %d/%d): %w", attempt-1, cfg.maxAttempts, err)
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !cfg.retryIf(err) {
			return err
		}
	}

	return fmt.Errorf("retry failed after %d attempts: %w", cfg.maxAttempts, lastErr)
}

// sleepWithContext is the default SleepFunc, cancellable via context.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// calculateDelay computes the delay before the given retry using exponential
// backoff. The delay is capped at maxDelay.
func calculateDelay(retry int, initialDelay, maxDelay time.Duration, multiplier float64) time.Duration {
	// Calculate: initialDelay * (multiplier ^ (retry - 1))
	// For retry 1: initialDelay * 1
	// For retry 2: initialDelay * multiplier
	// For retry 3: initialDelay * multiplier^2
	delay := float64(initialDelay) * math.Pow(multiplier, float64(retry-1))

	if time.Duration(delay) > maxDelay {
		return maxDelay
	}

	return time.Duration(delay)
}
