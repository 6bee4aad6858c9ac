package officialresults

import (
	"context"
	"errors"
	"time"

	"github.com/ahrav/go-scoutrate/internal/domain"
	"github.com/ahrav/go-scoutrate/internal/ports"
)

// metricsFetcher records request latency and outcome counts.
type metricsFetcher struct {
	next      Fetcher
	collector ports.MetricsCollector
}

// MetricsMiddleware creates middleware that collects request metrics.
func MetricsMiddleware(collector ports.MetricsCollector) Middleware {
	return func(next Fetcher) Fetcher {
		return &metricsFetcher{
			next:      next,
			collector: collector,
		}
	}
}

// Fetch executes the request while collecting metrics.
func (m *metricsFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	start := time.Now()
	body, err := m.next.Fetch(ctx, path)

	if m.collector != nil {
		labels := map[string]string{
			"source": m.next.Name(),
			"status": fetchStatus(ctx, err),
		}
		m.collector.RecordHistogram("official_result_latency_seconds", time.Since(start).Seconds(), labels)
		m.collector.RecordCounter("official_result_requests_total", 1, labels)
	}

	return body, err
}

func fetchStatus(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

func (m *metricsFetcher) Name() string { return m.next.Name() }
