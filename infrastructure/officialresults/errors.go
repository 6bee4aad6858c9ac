package officialresults

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ahrav/go-scoutrate/internal/domain"
	"github.com/ahrav/go-scoutrate/internal/ports"
)

// Common errors returned by the official results client.
var (
	// ErrEmptyAPIKey indicates that an API key was required but not provided.
	ErrEmptyAPIKey = errors.New("API key cannot be empty")

	// ErrCircuitOpen indicates that the circuit breaker rejected a request.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// ErrorClassifier standardizes HTTP failures from the feed into the domain
// error taxonomy.
type ErrorClassifier struct {
	// Source is the name of the upstream service.
	Source string
}

// ClassifyHTTPError maps a non-2xx response to an error. 404 becomes
// domain.ErrNotFound; everything else is a *domain.ExternalSourceError
// wrapping the matching infrastructure sentinel.
func (ec *ErrorClassifier) ClassifyHTTPError(op string, statusCode int, message string) error {
	var cause error
	switch {
	case statusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s: %s", domain.ErrNotFound, op, message)
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		cause = ports.ErrAuthenticationFailed
	case statusCode == http.StatusTooManyRequests:
		cause = ports.ErrRateLimited
	case statusCode >= 500:
		cause = ports.ErrServiceUnavailable
	default:
		cause = ports.ErrInvalidResponse
	}
	if message != "" {
		cause = fmt.Errorf("%w: %s", cause, message)
	}
	return domain.NewExternalSourceError(ec.Source, op, statusCode, cause)
}

// ClassifyTransportError wraps a failure that happened before a response was
// received, such as a DNS error or a context deadline.
func (ec *ErrorClassifier) ClassifyTransportError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		err = errors.Join(ports.ErrTimeout, err)
	}
	return domain.NewExternalSourceError(ec.Source, op, 0, err)
}

// isRetryable reports whether err is a transient feed failure.
func isRetryable(err error) bool {
	var ese *domain.ExternalSourceError
	if errors.As(err, &ese) {
		return ese.IsRetryable()
	}
	return false
}
