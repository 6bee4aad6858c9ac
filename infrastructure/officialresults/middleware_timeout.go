package officialresults

import (
	"context"
	"time"
)

// timeoutFetcher bounds the duration of each request.
type timeoutFetcher struct {
	next    Fetcher
	timeout time.Duration
}

// TimeoutMiddleware creates middleware that enforces per-request timeouts.
// Placed inside RetryMiddleware it bounds each attempt rather than the
// whole retry sequence.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next Fetcher) Fetcher {
		return &timeoutFetcher{
			next:    next,
			timeout: timeout,
		}
	}
}

// Fetch executes the request with a timeout context.
func (t *timeoutFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Fetch(ctx, path)
}

func (t *timeoutFetcher) Name() string { return t.next.Name() }
