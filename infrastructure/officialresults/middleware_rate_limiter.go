package officialresults

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// rateLimitedFetcher paces requests using a token bucket so the feed's
// published rate limit is never exceeded.
type rateLimitedFetcher struct {
	next    Fetcher
	limiter *rate.Limiter
}

// RateLimitMiddleware creates middleware that enforces rate limiting using a token bucket algorithm.
// The limit parameter sets requests per second, while burst allows
// temporary spikes above the sustained rate.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(limit, burst)

	return func(next Fetcher) Fetcher {
		return &rateLimitedFetcher{
			next:    next,
			limiter: limiter,
		}
	}
}

// Fetch waits for rate limit permission before forwarding the request.
func (r *rateLimitedFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return r.next.Fetch(ctx, path)
}

func (r *rateLimitedFetcher) Name() string { return r.next.Name() }
