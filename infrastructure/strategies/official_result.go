package strategies

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-scoutrate/internal/domain"
	"github.com/ahrav/go-scoutrate/internal/ports"
)

var _ ports.Strategy = (*OfficialResultStrategy)(nil)

// OfficialResultStrategy compares an observation directly against the
// official match results. Fields the official feed does not report are
// skipped, not penalized.
//
// The strategy is stateless and thread-safe for concurrent execution.
type OfficialResultStrategy struct {
	config OfficialResultConfig
	tracer trace.Tracer
}

// OfficialResultConfig defines the configuration parameters for the
// OfficialResultStrategy.
type OfficialResultConfig struct {
	// Fields lists the compared field paths and their tolerance bands.
	Fields []FieldRule `yaml:"fields" json:"fields" validate:"required,min=1,max=256,dive"`
}

// NewOfficialResultStrategy creates an OfficialResultStrategy with the
// specified configuration. Returns an error if configuration validation fails.
func NewOfficialResultStrategy(config OfficialResultConfig) (*OfficialResultStrategy, error) {
	if len(config.Fields) == 0 {
		return nil, ErrNoFieldRules
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := checkDuplicates(config.Fields); err != nil {
		return nil, err
	}
	return &OfficialResultStrategy{
		config: config,
		tracer: otel.Tracer("official-result-strategy"),
	}, nil
}

// Kind returns domain.StrategyOfficialResult.
func (s *OfficialResultStrategy) Kind() domain.StrategyKind { return domain.StrategyOfficialResult }

// Execute compares obs with the ground truth in sctx.
func (s *OfficialResultStrategy) Execute(
	ctx context.Context,
	obs domain.Observation,
	sctx ports.StrategyContext,
) ([]domain.ValidationResult, error) {
	_, span := s.tracer.Start(ctx, "OfficialResultStrategy.Execute",
		trace.WithAttributes(
			attribute.String("strategy.kind", string(domain.StrategyOfficialResult)),
			attribute.String("match.key", obs.MatchKey),
			attribute.Int("team.number", obs.TeamNumber),
			attribute.String("scouter.id", obs.ScouterID),
		),
	)
	defer span.End()

	gt := sctx.GroundTruth
	if gt == nil || (gt.MatchKey != "" && gt.MatchKey != obs.MatchKey) {
		err := &domain.InsufficientDataError{
			ScouterID: obs.ScouterID,
			Strategy:  domain.StrategyOfficialResult,
			Need:      1,
			Reason:    "no official result for match",
		}
		span.RecordError(err)
		return nil, err
	}

	results := make([]domain.ValidationResult, 0, len(s.config.Fields))
	for _, rule := range s.config.Fields {
		expected, ok := gt.Value(obs.TeamNumber, rule.Path)
		if !ok {
			continue
		}
		actual, _ := obs.Lookup(rule.Path)
		cmp := Classify(rule, expected, actual)
		results = append(results, newResult(obs, sctx, domain.StrategyOfficialResult, rule, cmp))
	}

	if len(results) == 0 {
		err := &domain.InsufficientDataError{
			ScouterID: obs.ScouterID,
			Strategy:  domain.StrategyOfficialResult,
			Need:      1,
			Reason:    "official result reports none of the configured fields for this team",
		}
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("official.fields_compared", len(results)))
	return results, nil
}

// Validate checks if the strategy is properly configured.
func (s *OfficialResultStrategy) Validate() error {
	if err := validate.Struct(s.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return checkDuplicates(s.config.Fields)
}

// Fields returns the configured rules. The official results client uses
// their OfficialPath mappings to project the feed into field paths.
func (s *OfficialResultStrategy) Fields() []FieldRule {
	out := make([]FieldRule, len(s.config.Fields))
	copy(out, s.config.Fields)
	return out
}

func newResult(
	obs domain.Observation,
	sctx ports.StrategyContext,
	kind domain.StrategyKind,
	rule FieldRule,
	cmp Comparison,
) domain.ValidationResult {
	eventKey := obs.EventKey
	if eventKey == "" {
		eventKey = domain.EventKeyOf(obs.MatchKey)
	}
	return domain.ValidationResult{
		ID:            uuid.NewString(),
		RunID:         sctx.RunID,
		MatchKey:      obs.MatchKey,
		EventKey:      eventKey,
		TeamNumber:    obs.TeamNumber,
		ScouterID:     obs.ScouterID,
		Strategy:      kind,
		FieldPath:     rule.Path,
		ExpectedValue: cmp.Expected,
		ActualValue:   cmp.Actual,
		AccuracyScore: cmp.Score,
		Outcome:       cmp.Outcome,
		Weight:        cmp.Weight,
		Notes:         cmp.Notes,
		CreatedAt:     sctx.Now,
	}
}
