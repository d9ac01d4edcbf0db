package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"time"

	prepmateErrors "prepmate/internal/errors"

	"google.golang.org/api/googleapi"
)

// SleepFunc suspends until the duration elapses or the context is done.
// Injectable so tests can assert backoff timing without waiting.
type SleepFunc func(ctx context.Context, d time.Duration) error

// defaultSleep is the production sleeper
func defaultSleep(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retryPolicy bounds the retry loop
type retryPolicy struct {
	maxRetries     int           // additional attempts after the first
	initialBackoff time.Duration // delay before the first retry
	multiplier     float64       // backoff growth per attempt
}

// defaultRetryPolicy retries twice with exponential backoff from 1s
var defaultRetryPolicy = retryPolicy{
	maxRetries:     2,
	initialBackoff: time.Second,
	multiplier:     2.0,
}

// transientMessagePattern catches provider errors that signal rate
// limiting, timeouts, or overload without a usable status code
var transientMessagePattern = regexp.MustCompile(`(?i)rate.?limit|too many requests|timeout|timed out|deadline exceeded|overload|temporarily unavailable|try again|quota`)

// isRetryableError determines if an error should trigger a retry.
// Transient: network timeouts and connection failures, HTTP 429 and 5xx,
// or a message matching the rate/timeout/overload pattern. Everything
// else (other 4xx, parse failures) raises immediately.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}

	return transientMessagePattern.MatchString(err.Error())
}

// callWithRetry executes fn with bounded retry and exponential backoff.
// Non-retryable errors stop the loop immediately.
func callWithRetry[T any](ctx context.Context, policy retryPolicy, sleep SleepFunc, logger *prepmateErrors.Logger, operation string, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	backoff := policy.initialBackoff
	for attempt := 0; attempt <= policy.maxRetries; attempt++ {
		if attempt > 0 {
			if logger != nil {
				logger.Warn("Retrying AI operation",
					"operation", operation,
					"attempt", attempt,
					"max_retries", policy.maxRetries,
					"backoff", backoff.String(),
					"error", lastErr.Error())
			}

			if err := sleep(ctx, backoff); err != nil {
				return zero, err
			}
			backoff = time.Duration(float64(backoff) * policy.multiplier)
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 && logger != nil {
				logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err

		if !isRetryableError(err) {
			if logger != nil {
				logger.Debug("Error is not retryable, stopping retry attempts",
					"operation", operation,
					"error", err.Error())
			}
			break
		}
	}

	return zero, fmt.Errorf("operation '%s' failed after retries: %w", operation, lastErr)
}
