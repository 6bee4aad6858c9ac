package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy for validation and rating operations. Every typed error
// below unwraps to exactly one of these sentinels so callers can branch with
// errors.Is without knowing the concrete type.
var (
	// ErrInvalidInput indicates malformed arguments such as an accuracy score
	// outside [0,1], a negative rating, or a badly formatted match key.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates that a requested match or event has no data.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientData indicates that a scouter/strategy pair lacks enough
	// sibling observations or ground-truth coverage to be judged.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrExternalSource indicates that the official-result feed was
	// unreachable, rate limited, or returned an unusable response.
	ErrExternalSource = errors.New("external source error")

	// ErrPersistence indicates that a write to the rating store failed.
	ErrPersistence = errors.New("persistence error")

	// ErrRunInProgress indicates that another validation run currently holds
	// the lock for the same match.
	ErrRunInProgress = errors.New("validation run already in progress")

	// ErrInvalidConfiguration indicates that configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// InputError describes a single rejected argument.
type InputError struct {
	// Field names the offending argument.
	Field string
	// Value is the rejected value.
	Value any
	// Reason explains the constraint that was violated.
	Reason string
}

// Error implements the error interface for InputError.
func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: field=%s, value=%v, reason=%s", e.Field, e.Value, e.Reason)
}

// Unwrap returns ErrInvalidInput.
func (e *InputError) Unwrap() error { return ErrInvalidInput }

// NewInputError creates a new InputError with the given details.
func NewInputError(field string, value any, reason string) *InputError {
	return &InputError{Field: field, Value: value, Reason: reason}
}

// InsufficientDataError reports why a scouter could not be judged by a
// strategy. The orchestrator records it as a skip, never as a penalty.
type InsufficientDataError struct {
	ScouterID string
	Strategy  StrategyKind
	// Have is the number of usable comparison sources found.
	Have int
	// Need is the minimum number required.
	Need int
	// Reason optionally names what was missing.
	Reason string
}

// Error implements the error interface for InsufficientDataError.
func (e *InsufficientDataError) Error() string {
	msg := fmt.Sprintf("insufficient data: scouter=%s, strategy=%s, have=%d, need=%d",
		e.ScouterID, e.Strategy, e.Have, e.Need)
	if e.Reason != "" {
		msg += ", reason=" + e.Reason
	}
	return msg
}

// Unwrap returns ErrInsufficientData.
func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// ExternalSourceError represents a failure talking to a third-party
// ground-truth source. It carries the HTTP status when there was one.
type ExternalSourceError struct {
	// Source names the upstream service.
	Source string
	// Operation is the call that failed.
	Operation string
	// StatusCode is the HTTP status code, or 0 for transport failures.
	StatusCode int
	// Err is the underlying error.
	Err error
}

// Error implements the error interface for ExternalSourceError.
func (e *ExternalSourceError) Error() string {
	msg := fmt.Sprintf("external source error: source=%s, operation=%s", e.Source, e.Operation)
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(", status=%d", e.StatusCode)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(", err=%v", e.Err)
	}
	return msg
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *ExternalSourceError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrExternalSource}
	}
	return []error{ErrExternalSource, e.Err}
}

// IsRetryable reports whether the failure is transient: rate limiting,
// server-side errors, and transport failures without a status code.
func (e *ExternalSourceError) IsRetryable() bool {
	switch {
	case e.StatusCode == 429:
		return true
	case e.StatusCode >= 500:
		return true
	case e.StatusCode == 0:
		return true
	default:
		return false
	}
}

// NewExternalSourceError creates a new ExternalSourceError.
func NewExternalSourceError(source, operation string, statusCode int, err error) *ExternalSourceError {
	return &ExternalSourceError{
		Source:     source,
		Operation:  operation,
		StatusCode: statusCode,
		Err:        err,
	}
}

// PersistenceError represents a failed write to the rating store.
type PersistenceError struct {
	Operation string
	ScouterID string
	Err       error
}

// Error implements the error interface for PersistenceError.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error: operation=%s, scouter=%s, err=%v", e.Operation, e.ScouterID, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// NewPersistenceError creates a new PersistenceError.
func NewPersistenceError(operation, scouterID string, err error) *PersistenceError {
	return &PersistenceError{Operation: operation, ScouterID: scouterID, Err: err}
}

// ValidationError represents an error that occurred during configuration
// validation. It can contain multiple validation failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// Unwrap returns ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error { return ErrInvalidConfiguration }

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
