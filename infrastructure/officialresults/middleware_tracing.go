package officialresults

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracedFetcher wraps each request in an OpenTelemetry span.
type tracedFetcher struct {
	next        Fetcher
	serviceName string
	tracer      trace.Tracer
}

// TracingMiddleware creates middleware that adds distributed tracing to requests.
func TracingMiddleware(serviceName string) Middleware {
	tracer := otel.Tracer("official-results-client")
	return func(next Fetcher) Fetcher {
		return &tracedFetcher{
			next:        next,
			serviceName: serviceName,
			tracer:      tracer,
		}
	}
}

// Fetch executes the request within a span.
func (t *tracedFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	ctx, span := t.tracer.Start(ctx, "officialresults.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("service.name", t.serviceName),
			attribute.String("feed.source", t.next.Name()),
			attribute.String("feed.path", path),
		),
	)
	defer span.End()

	body, err := t.next.Fetch(ctx, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("feed.response_bytes", len(body)))
	return body, nil
}

func (t *tracedFetcher) Name() string { return t.next.Name() }
