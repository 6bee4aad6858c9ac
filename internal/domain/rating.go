// Package domain contains pure, dependency-free domain models and the rating
// math for scouter accuracy validation.
package domain

import (
	"time"
)

// StrategyKind identifies one of the closed set of validation strategies.
type StrategyKind string

const (
	// StrategyConsensus compares an observation against the median/mode of
	// the other scouts' observations of the same team in the same match.
	StrategyConsensus StrategyKind = "consensus"

	// StrategyOfficialResult compares an observation against the
	// authoritative third-party match results feed.
	StrategyOfficialResult StrategyKind = "official_result"
)

// AllStrategies lists every strategy kind in a stable order.
var AllStrategies = []StrategyKind{StrategyConsensus, StrategyOfficialResult}

// Valid reports whether k is a known strategy kind.
func (k StrategyKind) Valid() bool {
	switch k {
	case StrategyConsensus, StrategyOfficialResult:
		return true
	default:
		return false
	}
}

// ValidationOutcome classifies how closely a scouted value matched its
// expected value.
type ValidationOutcome string

const (
	OutcomeExactMatch    ValidationOutcome = "exact_match"
	OutcomeCloseMatch    ValidationOutcome = "close_match"
	OutcomeMismatch      ValidationOutcome = "mismatch"
	OutcomeCriticalError ValidationOutcome = "critical_error"
)

// Successful reports whether the outcome counts toward a scouter's
// successful validations.
func (o ValidationOutcome) Successful() bool {
	return o == OutcomeExactMatch || o == OutcomeCloseMatch
}

// EloOutcome is the direction of a single rating update.
type EloOutcome string

const (
	EloGain    EloOutcome = "gain"
	EloLoss    EloOutcome = "loss"
	EloNeutral EloOutcome = "neutral"
)

// ScouterRating is the current rating row for one scouter, optionally scoped
// to a season. Rows are created lazily and never deleted.
type ScouterRating struct {
	ScouterID string `json:"scouter_id"`
	// SeasonID scopes the rating; empty means a single global rating.
	SeasonID string `json:"season_id,omitempty"`

	CurrentElo float64 `json:"current_elo"`
	PeakElo    float64 `json:"peak_elo"`
	LowestElo  float64 `json:"lowest_elo"`

	TotalValidations      int `json:"total_validations"`
	SuccessfulValidations int `json:"successful_validations"`
	FailedValidations     int `json:"failed_validations"`

	// ConfidenceLevel grows with TotalValidations and saturates at 0.95.
	ConfidenceLevel float64 `json:"confidence_level"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewScouterRating returns the lazily-created default rating for a scouter.
func NewScouterRating(scouterID, seasonID string, defaultRating float64) ScouterRating {
	return ScouterRating{
		ScouterID:       scouterID,
		SeasonID:        seasonID,
		CurrentElo:      defaultRating,
		PeakElo:         defaultRating,
		LowestElo:       defaultRating,
		ConfidenceLevel: 0.5,
	}
}

// Apply folds a rating change into the row, maintaining the
// LowestElo <= CurrentElo <= PeakElo invariant and the counters.
// successful decides which of the success/failure counters is bumped.
func (r ScouterRating) Apply(change RatingChange, successful bool, confidence float64, at time.Time) ScouterRating {
	r.CurrentElo = change.NewRating
	if r.CurrentElo > r.PeakElo {
		r.PeakElo = r.CurrentElo
	}
	if r.CurrentElo < r.LowestElo {
		r.LowestElo = r.CurrentElo
	}
	r.TotalValidations++
	if successful {
		r.SuccessfulValidations++
	} else {
		r.FailedValidations++
	}
	r.ConfidenceLevel = confidence
	r.UpdatedAt = at
	return r
}

// ValidationResult is the immutable audit record of one field comparison.
type ValidationResult struct {
	ID         string       `json:"id"`
	RunID      string       `json:"run_id"`
	MatchKey   string       `json:"match_key"`
	EventKey   string       `json:"event_key"`
	TeamNumber int          `json:"team_number"`
	ScouterID  string       `json:"scouter_id"`
	Strategy   StrategyKind `json:"strategy"`

	// FieldPath is the dotted path of the compared value, e.g.
	// "teleop.coral_scored_L2".
	FieldPath     string            `json:"field_path"`
	ExpectedValue string            `json:"expected_value"`
	ActualValue   string            `json:"actual_value"`
	AccuracyScore float64           `json:"accuracy_score"`
	Outcome       ValidationOutcome `json:"validation_outcome"`
	// Weight is the field's contribution to the aggregated score.
	Weight float64 `json:"weight"`
	Notes  string  `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// EloHistoryEntry records one rating update produced by one run.
type EloHistoryEntry struct {
	ID         string `json:"id"`
	RunID      string `json:"run_id"`
	ScouterID  string `json:"scouter_id"`
	SeasonID   string `json:"season_id,omitempty"`
	MatchKey   string `json:"match_key"`
	EventKey   string `json:"event_key"`
	TeamNumber int    `json:"team_number"`

	EloBefore float64    `json:"elo_before"`
	EloAfter  float64    `json:"elo_after"`
	EloDelta  float64    `json:"elo_delta"`
	Outcome   EloOutcome `json:"outcome"`
	// AccuracyScore is the aggregated score that drove this update.
	AccuracyScore float64 `json:"accuracy_score"`

	ValidationResultIDs []string `json:"validation_result_ids"`

	CreatedAt time.Time `json:"created_at"`
}

// ScouterUpdate bundles everything that must be persisted atomically for a
// single scouter at the end of a run.
type ScouterUpdate struct {
	Rating  ScouterRating
	History EloHistoryEntry
	Results []ValidationResult
}

// ScouterUpdateFunc builds a scouter's update from the rating it currently
// holds. Stores call it while the rating row is locked, so it must not call
// back into the store.
type ScouterUpdateFunc func(current ScouterRating) (ScouterUpdate, error)
