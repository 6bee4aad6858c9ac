package strategies

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-scoutrate/internal/domain"
	"github.com/ahrav/go-scoutrate/internal/ports"
)

var _ ports.Strategy = (*ConsensusStrategy)(nil)

// ConsensusStrategy judges an observation against the aggregate of the other
// scouts' observations of the same team in the same match. Numeric fields use
// the median of the siblings; boolean and categorical fields use the mode.
//
// The judged scouter's own observations never contribute to the expected
// value. With fewer than MinSiblings other observations the strategy returns
// an InsufficientDataError instead of a comparison.
//
// The strategy is stateless and thread-safe for concurrent execution.
type ConsensusStrategy struct {
	config ConsensusConfig
	tracer trace.Tracer
}

// ConsensusConfig defines the configuration parameters for the
// ConsensusStrategy.
type ConsensusConfig struct {
	// MinSiblings is the minimum number of other scouts' observations.
	MinSiblings int `yaml:"min_siblings" json:"min_siblings" validate:"min=1"`

	// Fields lists the compared field paths.
	Fields []FieldRule `yaml:"fields" json:"fields" validate:"required,min=1,max=256,dive"`
}

// DefaultConsensusConfig returns a ConsensusConfig for the given fields with
// the default sibling minimum.
func DefaultConsensusConfig(fields []FieldRule) ConsensusConfig {
	return ConsensusConfig{MinSiblings: DefaultMinSiblings, Fields: fields}
}

// NewConsensusStrategy creates a ConsensusStrategy with the specified
// configuration. Returns an error if configuration validation fails.
func NewConsensusStrategy(config ConsensusConfig) (*ConsensusStrategy, error) {
	if len(config.Fields) == 0 {
		return nil, ErrNoFieldRules
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := checkDuplicates(config.Fields); err != nil {
		return nil, err
	}
	return &ConsensusStrategy{
		config: config,
		tracer: otel.Tracer("consensus-strategy"),
	}, nil
}

// Kind returns domain.StrategyConsensus.
func (s *ConsensusStrategy) Kind() domain.StrategyKind { return domain.StrategyConsensus }

// Execute compares obs with the consensus of its siblings in sctx.
func (s *ConsensusStrategy) Execute(
	ctx context.Context,
	obs domain.Observation,
	sctx ports.StrategyContext,
) ([]domain.ValidationResult, error) {
	_, span := s.tracer.Start(ctx, "ConsensusStrategy.Execute",
		trace.WithAttributes(
			attribute.String("strategy.kind", string(domain.StrategyConsensus)),
			attribute.String("match.key", obs.MatchKey),
			attribute.Int("team.number", obs.TeamNumber),
			attribute.String("scouter.id", obs.ScouterID),
		),
	)
	defer span.End()

	siblings := siblingsOf(obs, sctx.TeamObservations)
	span.SetAttributes(attribute.Int("consensus.siblings", len(siblings)))

	if len(siblings) < s.config.MinSiblings {
		err := &domain.InsufficientDataError{
			ScouterID: obs.ScouterID,
			Strategy:  domain.StrategyConsensus,
			Have:      len(siblings),
			Need:      s.config.MinSiblings,
			Reason:    "not enough sibling scouters",
		}
		span.RecordError(err)
		return nil, err
	}

	results := make([]domain.ValidationResult, 0, len(s.config.Fields))
	for _, rule := range s.config.Fields {
		expected, ok := consensusValue(rule, siblings)
		if !ok {
			continue
		}
		actual, _ := obs.Lookup(rule.Path)
		cmp := Classify(rule, expected, actual)
		results = append(results, newResult(obs, sctx, domain.StrategyConsensus, rule, cmp))
	}

	if len(results) == 0 {
		err := &domain.InsufficientDataError{
			ScouterID: obs.ScouterID,
			Strategy:  domain.StrategyConsensus,
			Have:      0,
			Need:      1,
			Reason:    "no configured field was reported by the siblings",
		}
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("consensus.fields_compared", len(results)))
	return results, nil
}

// Validate checks if the strategy is properly configured.
func (s *ConsensusStrategy) Validate() error {
	if err := validate.Struct(s.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return checkDuplicates(s.config.Fields)
}

// siblingsOf returns one observation per other scouter of the same team and
// match. A scouter who submitted more than once is represented by their
// latest submission, so each scouter casts a single vote.
func siblingsOf(obs domain.Observation, all []domain.Observation) []domain.Observation {
	latest := make(map[string]int, len(all))
	siblings := make([]domain.Observation, 0, len(all))
	for _, o := range all {
		if o.ScouterID == obs.ScouterID || o.TeamNumber != obs.TeamNumber || o.MatchKey != obs.MatchKey {
			continue
		}
		i, seen := latest[o.ScouterID]
		switch {
		case !seen:
			latest[o.ScouterID] = len(siblings)
			siblings = append(siblings, o)
		case !o.SubmittedAt.Before(siblings[i].SubmittedAt):
			siblings[i] = o
		}
	}
	return siblings
}

// consensusValue computes the expected value for rule from the siblings.
// It reports false when no sibling has a usable value for the field.
func consensusValue(rule FieldRule, siblings []domain.Observation) (any, bool) {
	switch rule.Kind {
	case domain.KindNumeric:
		nums := make([]float64, 0, len(siblings))
		for _, o := range siblings {
			if v, ok := o.Lookup(rule.Path); ok {
				if n, ok := domain.AsNumber(v); ok {
					nums = append(nums, n)
				}
			}
		}
		if len(nums) == 0 {
			return nil, false
		}
		return median(nums), true

	case domain.KindBoolean:
		votes := make([]string, 0, len(siblings))
		for _, o := range siblings {
			if v, ok := o.Lookup(rule.Path); ok {
				if b, ok := domain.AsBool(v); ok {
					votes = append(votes, strconv.FormatBool(b))
				}
			}
		}
		if len(votes) == 0 {
			return nil, false
		}
		b, _ := strconv.ParseBool(mode(votes))
		return b, true

	default:
		votes := make([]string, 0, len(siblings))
		for _, o := range siblings {
			if v, ok := o.Lookup(rule.Path); ok {
				votes = append(votes, normalizeCategory(domain.FormatValue(v)))
			}
		}
		if len(votes) == 0 {
			return nil, false
		}
		return mode(votes), true
	}
}

// median computes the statistical median. The input slice is sorted in place.
//   - Odd count: returns the middle value after sorting
//   - Even count: returns the arithmetic mean of the two middle values
func median(values []float64) float64 {
	sort.Float64s(values)
	n := len(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}

// mode returns the most frequent value. Ties resolve to the lexicographically
// smallest value so the result does not depend on input order.
func mode(values []string) string {
	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	best, bestCount := "", 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best
}
