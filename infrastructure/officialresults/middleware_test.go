package officialresults

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-scoutrate/internal/domain"
)

func transientErr() error {
	return domain.NewExternalSourceError("mock", "GET", http.StatusServiceUnavailable, errors.New("upstream down"))
}

func TestRetryMiddleware_RetriesOnTransientError(t *testing.T) {
	// Given a mock that fails twice then succeeds
	mock := NewMockFetcher([]byte("ok"))
	mock.Error = transientErr()
	mock.FailUntilAttempt = 2
	wrapped := RetryMiddleware(3, time.Millisecond, 10*time.Millisecond)(mock)

	// When making a request
	body, err := wrapped.Fetch(context.Background(), "/match/x")

	// Then it should eventually succeed after retries
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), body)
	assert.Equal(t, 3, mock.GetCallCount(), "should retry until success")
}

func TestRetryMiddleware_FailsAfterMaxRetries(t *testing.T) {
	mock := NewMockFetcher(nil)
	mock.Error = transientErr()
	wrapped := RetryMiddleware(2, time.Millisecond, 10*time.Millisecond)(mock)

	_, err := wrapped.Fetch(context.Background(), "/match/x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed after 3 attempts")
	assert.ErrorIs(t, err, domain.ErrExternalSource)
	assert.Equal(t, 3, mock.GetCallCount(), "should attempt max retries + 1")
}

func TestRetryMiddleware_DoesNotRetryPermanentErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "not found", err: domain.ErrNotFound},
		{name: "client error", err: domain.NewExternalSourceError("mock", "GET", http.StatusForbidden, nil)},
		{name: "circuit open", err: ErrCircuitOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockFetcher(nil)
			mock.Error = tt.err
			wrapped := RetryMiddleware(3, time.Millisecond, 10*time.Millisecond)(mock)

			_, err := wrapped.Fetch(context.Background(), "/match/x")

			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, 1, mock.GetCallCount())
		})
	}
}

func TestRetryMiddleware_RespectsCancellation(t *testing.T) {
	mock := NewMockFetcher(nil)
	mock.Error = transientErr()
	wrapped := RetryMiddleware(5, time.Second, 5*time.Second)(mock)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := wrapped.Fetch(ctx, "/match/x")

	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, mock.GetCallCount())
}

func TestRetryMiddleware_CalculateDelay(t *testing.T) {
	r := &retryFetcher{baseDelay: 100 * time.Millisecond, maxDelay: time.Second}

	for attempt := 0; attempt < 5; attempt++ {
		d := r.calculateDelay(attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, time.Second)
	}
	assert.Equal(t, time.Second, r.calculateDelay(40))
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	mock := NewMockFetcher(nil)
	mock.Error = transientErr()
	cb := NewCircuitBreaker(2, time.Minute)
	wrapped := CircuitBreakerMiddlewareWith(cb)(mock)

	_, err1 := wrapped.Fetch(context.Background(), "/a")
	_, err2 := wrapped.Fetch(context.Background(), "/b")
	require.Error(t, err1)
	require.Error(t, err2)
	assert.Equal(t, StateOpen, cb.GetState())

	_, err3 := wrapped.Fetch(context.Background(), "/c")
	assert.ErrorIs(t, err3, ErrCircuitOpen)
	assert.Equal(t, 2, mock.GetCallCount(), "should not call the feed while open")
}

func TestCircuitBreaker_NotFoundDoesNotTrip(t *testing.T) {
	mock := NewMockFetcher(nil)
	mock.Error = domain.ErrNotFound
	cb := NewCircuitBreaker(1, time.Minute)
	wrapped := CircuitBreakerMiddlewareWith(cb)(mock)

	for i := 0; i < 3; i++ {
		_, err := wrapped.Fetch(context.Background(), "/a")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
	assert.Equal(t, StateClosed, cb.GetState())
	assert.Equal(t, 3, mock.GetCallCount())
}

func TestCircuitBreaker_RecoversAfterCooldown(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(1, time.Minute)
	cb.now = func() time.Time { return now }

	require.Error(t, cb.Call(transientErr))
	assert.Equal(t, StateOpen, cb.GetState())
	assert.ErrorIs(t, cb.Call(func() error { return nil }), ErrCircuitOpen)

	now = now.Add(2 * time.Minute)
	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(3, time.Minute)
	cb.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_ = cb.Call(transientErr)
	}
	require.Equal(t, StateOpen, cb.GetState())

	now = now.Add(2 * time.Minute)
	require.Error(t, cb.Call(transientErr))
	assert.Equal(t, StateOpen, cb.GetState())
}

func TestRateLimitMiddleware_PacesRequests(t *testing.T) {
	mock := NewMockFetcher([]byte("ok"))
	wrapped := RateLimitMiddleware(20, 1)(mock)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := wrapped.Fetch(context.Background(), "/a")
		require.NoError(t, err)
	}

	// Burst of one at 20/s: the 2nd and 3rd requests wait ~50ms each.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestRateLimitMiddleware_ContextCancelled(t *testing.T) {
	mock := NewMockFetcher([]byte("ok"))
	wrapped := RateLimitMiddleware(0.1, 1)(mock)

	_, err := wrapped.Fetch(context.Background(), "/a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = wrapped.Fetch(ctx, "/a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
	assert.Equal(t, 1, mock.GetCallCount())
}

func TestTimeoutMiddleware(t *testing.T) {
	mock := NewMockFetcher([]byte("ok"))
	mock.ResponseDelay = 200 * time.Millisecond
	wrapped := TimeoutMiddleware(20 * time.Millisecond)(mock)

	_, err := wrapped.Fetch(context.Background(), "/a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type recordingCollector struct {
	mu       sync.Mutex
	counters map[string][]map[string]string
	hist     []string
}

func (c *recordingCollector) RecordLatency(string, time.Duration, map[string]string) {}
func (c *recordingCollector) RecordGauge(string, float64, map[string]string)         {}

func (c *recordingCollector) RecordCounter(metric string, _ float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counters == nil {
		c.counters = make(map[string][]map[string]string)
	}
	c.counters[metric] = append(c.counters[metric], labels)
}

func (c *recordingCollector) RecordHistogram(metric string, _ float64, _ map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hist = append(c.hist, metric)
}

func TestMetricsMiddleware(t *testing.T) {
	collector := &recordingCollector{}
	ok := MetricsMiddleware(collector)(NewMockFetcher([]byte("ok")))
	missing := NewMockFetcher(nil)
	missing.Error = domain.ErrNotFound
	notFound := MetricsMiddleware(collector)(missing)

	_, _ = ok.Fetch(context.Background(), "/a")
	_, _ = notFound.Fetch(context.Background(), "/b")

	require.Len(t, collector.counters["official_result_requests_total"], 2)
	assert.Equal(t, "success", collector.counters["official_result_requests_total"][0]["status"])
	assert.Equal(t, "not_found", collector.counters["official_result_requests_total"][1]["status"])
	assert.Equal(t, "mock", collector.counters["official_result_requests_total"][0]["source"])
	assert.Len(t, collector.hist, 2)
}

func TestTracingMiddleware_PassesThrough(t *testing.T) {
	mock := NewMockFetcher([]byte("ok"))
	wrapped := TracingMiddleware("tba")(mock)

	body, err := wrapped.Fetch(context.Background(), "/a")
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), body)
	assert.Equal(t, "mock", wrapped.Name())
}
