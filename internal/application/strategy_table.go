package application

import (
	"fmt"

	"github.com/ahrav/go-scoutrate/infrastructure/strategies"
	"github.com/ahrav/go-scoutrate/internal/domain"
	"github.com/ahrav/go-scoutrate/internal/ports"
)

// StrategyTable is the fixed dispatch table of compiled-in strategies.
// A slot is nil when the season's field rules configure no fields for it.
type StrategyTable struct {
	consensus *strategies.ConsensusStrategy
	official  *strategies.OfficialResultStrategy
}

// NewStrategyTable builds a table from already constructed strategies.
// Either may be nil, but not both.
func NewStrategyTable(
	consensus *strategies.ConsensusStrategy,
	official *strategies.OfficialResultStrategy,
) (*StrategyTable, error) {
	if consensus == nil && official == nil {
		return nil, fmt.Errorf("%w: no strategies configured", domain.ErrInvalidConfiguration)
	}
	return &StrategyTable{consensus: consensus, official: official}, nil
}

// StrategyTableFromRules builds the strategies described by rules,
// restricted to the enabled kinds. An empty enabled list enables every kind
// the rules configure.
func StrategyTableFromRules(rules *strategies.FieldRules, enabled ...domain.StrategyKind) (*StrategyTable, error) {
	on := func(k domain.StrategyKind) bool {
		if len(enabled) == 0 {
			return true
		}
		for _, e := range enabled {
			if e == k {
				return true
			}
		}
		return false
	}

	var (
		consensus *strategies.ConsensusStrategy
		official  *strategies.OfficialResultStrategy
		err       error
	)
	if len(rules.Consensus) > 0 && on(domain.StrategyConsensus) {
		consensus, err = strategies.NewConsensusStrategy(strategies.ConsensusConfig{
			MinSiblings: rules.MinSiblings,
			Fields:      rules.Consensus,
		})
		if err != nil {
			return nil, fmt.Errorf("consensus strategy: %w", err)
		}
	}
	if len(rules.OfficialResult) > 0 && on(domain.StrategyOfficialResult) {
		official, err = strategies.NewOfficialResultStrategy(strategies.OfficialResultConfig{
			Fields: rules.OfficialResult,
		})
		if err != nil {
			return nil, fmt.Errorf("official result strategy: %w", err)
		}
	}
	return NewStrategyTable(consensus, official)
}

// Lookup returns the strategy for kind.
func (t *StrategyTable) Lookup(kind domain.StrategyKind) (ports.Strategy, bool) {
	switch kind {
	case domain.StrategyConsensus:
		if t.consensus != nil {
			return t.consensus, true
		}
	case domain.StrategyOfficialResult:
		if t.official != nil {
			return t.official, true
		}
	}
	return nil, false
}

// Official returns the official result strategy, or nil.
func (t *StrategyTable) Official() *strategies.OfficialResultStrategy { return t.official }

// Kinds returns the configured kinds in stable order.
func (t *StrategyTable) Kinds() []domain.StrategyKind {
	var kinds []domain.StrategyKind
	for _, k := range domain.AllStrategies {
		if _, ok := t.Lookup(k); ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Resolve maps a requested subset to strategies. No request selects every
// configured strategy. Unknown or unconfigured kinds are rejected with
// domain.ErrInvalidInput.
func (t *StrategyTable) Resolve(requested []domain.StrategyKind) ([]ports.Strategy, error) {
	if len(requested) == 0 {
		requested = t.Kinds()
	}
	out := make([]ports.Strategy, 0, len(requested))
	seen := make(map[domain.StrategyKind]bool, len(requested))
	for _, k := range requested {
		if seen[k] {
			continue
		}
		seen[k] = true
		s, ok := t.Lookup(k)
		if !ok {
			return nil, domain.NewInputError("strategies", k, "unknown or unconfigured strategy")
		}
		out = append(out, s)
	}
	return out, nil
}

// Validate checks every configured strategy.
func (t *StrategyTable) Validate() error {
	for _, k := range t.Kinds() {
		s, _ := t.Lookup(k)
		if err := s.Validate(); err != nil {
			return fmt.Errorf("strategy %s: %w", k, err)
		}
	}
	return nil
}
