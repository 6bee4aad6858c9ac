package domain

import "time"

// SkipRecord explains why a scouter was not judged by a strategy.
type SkipRecord struct {
	ScouterID  string       `json:"scouter_id"`
	MatchKey   string       `json:"match_key"`
	TeamNumber int          `json:"team_number"`
	Strategy   StrategyKind `json:"strategy,omitempty"`
	Reason     string       `json:"reason"`
}

// ErrorRecord reports a per-scouter failure that did not abort the run.
type ErrorRecord struct {
	ScouterID string `json:"scouter_id"`
	MatchKey  string `json:"match_key"`
	Reason    string `json:"reason"`
}

// StrategyFailure reports a strategy dropped for a match.
type StrategyFailure struct {
	Strategy StrategyKind `json:"strategy"`
	MatchKey string       `json:"match_key"`
	Reason   string       `json:"reason"`
}

// ScouterDelta is one persisted rating change.
type ScouterDelta struct {
	ScouterID     string     `json:"scouter_id"`
	MatchKey      string     `json:"match_key"`
	TeamNumber    int        `json:"team_number"`
	EloBefore     float64    `json:"elo_before"`
	EloAfter      float64    `json:"elo_after"`
	Delta         float64    `json:"delta"`
	Outcome       EloOutcome `json:"outcome"`
	AccuracyScore float64    `json:"accuracy_score"`
	FieldsChecked int        `json:"fields_checked"`
}

// ValidationExecutionSummary is returned by every orchestrator run. It
// distinguishes validated, skipped and errored scouters so callers can decide
// whether to alert.
type ValidationExecutionSummary struct {
	EventKey  string   `json:"event_key,omitempty"`
	MatchKeys []string `json:"match_keys"`
	RunIDs    []string `json:"run_ids"`

	ScoutersValidated int `json:"scouters_validated"`
	ScoutersSkipped   int `json:"scouters_skipped"`
	ScoutersErrored   int `json:"scouters_errored"`

	Deltas           []ScouterDelta    `json:"deltas"`
	Skipped          []SkipRecord      `json:"skipped"`
	Errored          []ErrorRecord     `json:"errored"`
	StrategyFailures []StrategyFailure `json:"strategy_failures"`

	// FailedMatches lists matches whose run ended in the failed phase.
	FailedMatches []string `json:"failed_matches,omitempty"`

	// Cancelled is set when an event run stopped early between matches.
	Cancelled bool `json:"cancelled"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Merge folds other into s. Used to combine per-match summaries into an
// event summary.
func (s *ValidationExecutionSummary) Merge(other *ValidationExecutionSummary) {
	if other == nil {
		return
	}
	s.MatchKeys = append(s.MatchKeys, other.MatchKeys...)
	s.RunIDs = append(s.RunIDs, other.RunIDs...)
	s.ScoutersValidated += other.ScoutersValidated
	s.ScoutersSkipped += other.ScoutersSkipped
	s.ScoutersErrored += other.ScoutersErrored
	s.Deltas = append(s.Deltas, other.Deltas...)
	s.Skipped = append(s.Skipped, other.Skipped...)
	s.Errored = append(s.Errored, other.Errored...)
	s.StrategyFailures = append(s.StrategyFailures, other.StrategyFailures...)
	s.FailedMatches = append(s.FailedMatches, other.FailedMatches...)
	s.Cancelled = s.Cancelled || other.Cancelled
	if s.StartedAt.IsZero() || (!other.StartedAt.IsZero() && other.StartedAt.Before(s.StartedAt)) {
		s.StartedAt = other.StartedAt
	}
	if other.FinishedAt.After(s.FinishedAt) {
		s.FinishedAt = other.FinishedAt
	}
}

// MatchesProcessed returns the number of matches a run covered.
func (s *ValidationExecutionSummary) MatchesProcessed() int { return len(s.MatchKeys) }
