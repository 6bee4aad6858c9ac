package ports

import (
	"context"
	"time"

	"github.com/ahrav/go-scoutrate/internal/domain"
)

// Page selects a window of a paginated query.
type Page struct {
	Limit  int
	Offset int
}

// ObservationStore is the read side of the scouting data owned by the
// surrounding application.
type ObservationStore interface {
	// GetObservationsForMatch returns every observation recorded for a match.
	GetObservationsForMatch(ctx context.Context, matchKey string) ([]domain.Observation, error)

	// GetObservationsForTeamInMatch returns the observations of one team in
	// one match. The orchestrator groups teams itself and does not call it;
	// it serves callers that inspect a single team.
	GetObservationsForTeamInMatch(ctx context.Context, matchKey string, teamNumber int) ([]domain.Observation, error)

	// ListMatchKeysForEvent returns the keys of every match of an event that
	// has at least one observation, in play order.
	ListMatchKeysForEvent(ctx context.Context, eventKey string) ([]string, error)
}

// OfficialResultSource supplies authoritative match results. Implementations
// are expected to be rate limited and to retry transient failures.
type OfficialResultSource interface {
	// GetOfficialResult returns the ground truth for a match. It returns an
	// error wrapping domain.ErrNotFound when the match has no published
	// result and domain.ErrExternalSource when the feed is unusable.
	GetOfficialResult(ctx context.Context, matchKey string) (*domain.GroundTruth, error)
}

// RatingStore persists ratings, rating history, validation results and run
// records. The history and results are append-only.
type RatingStore interface {
	// GetRating returns the scouter's current rating, or the default rating
	// with a zero UpdatedAt when the scouter has never been validated.
	GetRating(ctx context.Context, scouterID, seasonID string) (domain.ScouterRating, error)

	// SaveRating upserts a rating row.
	SaveRating(ctx context.Context, rating domain.ScouterRating) error

	// AppendHistory appends one rating history entry.
	AppendHistory(ctx context.Context, entry domain.EloHistoryEntry) error

	// AppendValidationResults appends comparison audit rows.
	AppendValidationResults(ctx context.Context, results []domain.ValidationResult) error

	// ApplyScouterUpdate locks the scouter's rating for seasonID, passes the
	// current value to build and writes the returned rating, history and
	// results atomically: either all three are persisted or none is.
	// Concurrent updates of the same scouter are serialized, so every update
	// starts from the rating the previous one wrote. An error from build is
	// returned unchanged and nothing is written.
	ApplyScouterUpdate(
		ctx context.Context,
		scouterID, seasonID string,
		build domain.ScouterUpdateFunc,
	) (domain.ScouterUpdate, error)

	// RecordRun stores a run record and assigns its RunVersion.
	RecordRun(ctx context.Context, run *domain.ValidationRun) error

	// ListHistory returns a scouter's history ordered by CreatedAt descending.
	ListHistory(ctx context.Context, scouterID string, page Page) ([]domain.EloHistoryEntry, error)
}

// Locker provides mutual exclusion for validation runs keyed by match.
type Locker interface {
	// TryLock acquires the lock for key without blocking. It returns an
	// unlock function, or an error wrapping domain.ErrRunInProgress when the
	// lock is already held.
	TryLock(ctx context.Context, key string) (unlock func(), err error)
}

// CacheStore defines the interface for caching ground truth between runs.
// Implementations could use Redis or in-memory storage.
type CacheStore interface {
	// Get retrieves a cached value by key.
	// Returns the value and true if found, or nil and false if not found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value in the cache with an expiration time.
	// A zero duration means the item doesn't expire.
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache.
	// Returns nil if the key doesn't exist.
	Delete(ctx context.Context, key string) error
}

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
