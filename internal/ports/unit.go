// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"
	"time"

	"github.com/ahrav/go-scoutrate/internal/domain"
)

// StrategyContext carries everything a strategy may compare an observation
// against. It is shared read-only across concurrent strategy executions.
type StrategyContext struct {
	// RunID identifies the orchestrator run producing the results.
	RunID string

	// TeamObservations holds every observation of the same team in the same
	// match, including the one being judged. Strategies exclude the judged
	// scouter themselves.
	TeamObservations []domain.Observation

	// GroundTruth is the official result for the match, or nil when the
	// official source was not requested or is unavailable.
	GroundTruth *domain.GroundTruth

	// Now stamps created results.
	Now time.Time
}

// Strategy compares one scouted observation against one kind of ground
// truth. The set of strategies is closed: exactly one implementation exists
// per domain.StrategyKind.
// Strategies are stateless and safe for concurrent execution.
type Strategy interface {
	// Kind returns the strategy's kind.
	Kind() domain.StrategyKind

	// Execute compares obs against the ground truth available in sctx and
	// returns one result per compared field.
	//
	// It returns an error wrapping domain.ErrInsufficientData when there is
	// not enough ground truth to judge obs; callers treat that as a skip,
	// not a penalty.
	Execute(ctx context.Context, obs domain.Observation, sctx StrategyContext) ([]domain.ValidationResult, error)

	// Validate checks if the strategy is properly configured.
	Validate() error
}
