package errors

import (
	"context"
	"fmt"
	"time"
)

/*
RetryConfig holds configuration for retry behavior.
Only errors of one of the Retryable kinds are retried.
*/
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	Retryable     []Kind
}

// DefaultRetryConfig retries rate-limited calls five times, starting at five seconds.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   5,
		InitialDelay:  5 * time.Second,
		MaxDelay:      time.Minute,
		BackoffFactor: 2.0,
		Retryable:     []Kind{KindRateLimit},
	}
}

func (config *RetryConfig) retryable(err error) bool {
	kind := KindOf(err)

	for _, k := range config.Retryable {
		if k == kind {
			return true
		}
	}

	return false
}

/*
Retry executes fn with exponential backoff. Errors that are not of a
retryable kind are returned immediately, as is context cancellation.
*/
func Retry(ctx context.Context, config *RetryConfig, fn func() error) error {
	var err error
	delay := config.InitialDelay

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}

		if !config.retryable(err) {
			return err
		}

		if attempt == config.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * config.BackoffFactor)

		if delay > config.MaxDelay {
			delay = config.MaxDelay
		}
	}

	return fmt.Errorf("after %d attempts, last error: %w", config.MaxAttempts, err)
}
