package officialresults

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// retryFetcher retries transient failures with exponential backoff.
// Not-found responses, client errors and an open circuit are returned
// immediately.
type retryFetcher struct {
	next       Fetcher
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// RetryMiddleware creates middleware that automatically retries failed requests
// with exponential backoff and jitter.
func RetryMiddleware(maxRetries int, baseDelay, maxDelay time.Duration) Middleware {
	return func(next Fetcher) Fetcher {
		return &retryFetcher{
			next:       next,
			maxRetries: maxRetries,
			baseDelay:  baseDelay,
			maxDelay:   maxDelay,
		}
	}
}

// Fetch executes the request with automatic retry logic.
func (r *retryFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	var lastErr error

	attempts := 0
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		attempts++
		body, err := r.next.Fetch(ctx, path)
		if err == nil {
			return body, nil
		}

		lastErr = err

		if errors.Is(err, ErrCircuitOpen) || ctx.Err() != nil || !isRetryable(err) {
			break
		}

		if attempt == r.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.calculateDelay(attempt)):
		}
	}

	if attempts == 1 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", attempts, lastErr)
}

func (r *retryFetcher) calculateDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		attempt = 30
	}
	// #nosec G115 - attempt is bounded between 0 and 30
	multiplier := 1 << uint(attempt)
	delay := time.Duration(float64(r.baseDelay) * float64(multiplier))

	// Add jitter (±25%)
	// #nosec G404 - Using weak RNG is acceptable for jitter calculation
	jitter := time.Duration(rand.Float64() * float64(delay) * 0.5)
	delay = delay + jitter - (delay / 4)

	if delay > r.maxDelay {
		delay = r.maxDelay
	}

	return delay
}

func (r *retryFetcher) Name() string { return r.next.Name() }
