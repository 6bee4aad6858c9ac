package strategies

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-scoutrate/internal/domain"
	"github.com/ahrav/go-scoutrate/internal/ports"
)

func TestOfficialResultStrategy_Execute(t *testing.T) {
	rules := []FieldRule{
		{Path: "auto.leave", Kind: domain.KindBoolean, OfficialPath: "autoLineRobot{slot}"},
		{Path: "endgame.position", Kind: domain.KindCategorical, OfficialPath: "endGameRobot{slot}"},
		{Path: "teleop.coral_scored_L2", Kind: domain.KindNumeric},
	}
	s, err := NewOfficialResultStrategy(OfficialResultConfig{Fields: rules})
	require.NoError(t, err)

	gt := &domain.GroundTruth{MatchKey: testMatch, Source: "tba"}
	gt.Set(254, "auto.leave", true)
	gt.Set(254, "endgame.position", "DeepCage")

	t.Run("compares only fields present in the feed", func(t *testing.T) {
		// Given an observation with a coral count the feed does not report.
		obs := observation("alice", 254, map[string]any{
			"auto":    map[string]any{"leave": true},
			"endgame": map[string]any{"position": "deepcage"},
			"teleop":  map[string]any{"coral_scored_L2": 3},
		})

		// When it is compared against the official result.
		results, err := s.Execute(context.Background(), obs, ports.StrategyContext{GroundTruth: gt})

		// Then the unreported field is skipped and the rest match exactly.
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, r := range results {
			assert.Equal(t, domain.StrategyOfficialResult, r.Strategy)
			assert.Equal(t, domain.OutcomeExactMatch, r.Outcome)
		}
	})

	t.Run("no ground truth", func(t *testing.T) {
		obs := observation("alice", 254, coral(3))
		_, err := s.Execute(context.Background(), obs, ports.StrategyContext{})
		assert.ErrorIs(t, err, domain.ErrInsufficientData)
	})

	t.Run("ground truth for another match", func(t *testing.T) {
		obs := observation("alice", 254, coral(3))
		other := &domain.GroundTruth{MatchKey: "2025miket_qm13"}
		other.Set(254, "auto.leave", true)
		_, err := s.Execute(context.Background(), obs, ports.StrategyContext{GroundTruth: other})
		assert.ErrorIs(t, err, domain.ErrInsufficientData)
	})

	t.Run("team absent from the feed", func(t *testing.T) {
		obs := observation("alice", 1114, coral(3))
		_, err := s.Execute(context.Background(), obs, ports.StrategyContext{GroundTruth: gt})
		assert.ErrorIs(t, err, domain.ErrInsufficientData)
	})

	t.Run("fields are copied", func(t *testing.T) {
		f := s.Fields()
		f[0].Path = "changed"
		assert.Equal(t, "auto.leave", s.Fields()[0].Path)
	})
}

func TestLoadFieldRules(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		doc := `
season: "2025"
consensus:
  - path: teleop.coral_scored_L2
    kind: numeric
    abs_tolerance: 1
official_result:
  - path: auto.leave
    kind: boolean
    official_path: autoLineRobot{slot}
`
		rules, err := LoadFieldRules(strings.NewReader(doc))
		require.NoError(t, err)
		assert.Equal(t, "2025", rules.Season)
		assert.Equal(t, DefaultMinSiblings, rules.MinSiblings)
		require.Len(t, rules.Consensus, 1)
		assert.Equal(t, 1.0, rules.Consensus[0].AbsTolerance)
		assert.Equal(t, "autoLineRobot{slot}", rules.OfficialResult[0].OfficialPath)
	})

	t.Run("unknown key is rejected", func(t *testing.T) {
		doc := `
season: "2025"
consensus:
  - path: teleop.coral_scored_L2
    kind: numeric
    abs_tolerence: 1
`
		_, err := LoadFieldRules(strings.NewReader(doc))
		assert.Error(t, err)
	})

	t.Run("invalid kind is rejected", func(t *testing.T) {
		doc := `
season: "2025"
consensus:
  - path: teleop.coral_scored_L2
    kind: integer
`
		_, err := LoadFieldRules(strings.NewReader(doc))
		assert.Error(t, err)
	})

	t.Run("duplicate path is rejected", func(t *testing.T) {
		doc := `
season: "2025"
consensus:
  - path: auto.leave
    kind: boolean
  - path: auto.leave
    kind: boolean
`
		_, err := LoadFieldRules(strings.NewReader(doc))
		assert.ErrorIs(t, err, ErrDuplicateFieldRule)
	})
}
