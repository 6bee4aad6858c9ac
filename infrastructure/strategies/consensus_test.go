package strategies

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-scoutrate/internal/domain"
	"github.com/ahrav/go-scoutrate/internal/ports"
)

const testMatch = "2025miket_qm12"

func coralRule() FieldRule {
	return FieldRule{Path: "teleop.coral_scored_L2", Kind: domain.KindNumeric, AbsTolerance: 1}
}

func observation(scouter string, team int, data map[string]any) domain.Observation {
	return domain.Observation{
		ID:         scouter + "-obs",
		MatchKey:   testMatch,
		EventKey:   "2025miket",
		TeamNumber: team,
		ScouterID:  scouter,
		Data:       data,
	}
}

func coral(n any) map[string]any {
	return map[string]any{"teleop": map[string]any{"coral_scored_L2": n}}
}

func TestNewConsensusStrategy(t *testing.T) {
	tests := []struct {
		name      string
		config    ConsensusConfig
		wantError error
	}{
		{name: "valid configuration", config: DefaultConsensusConfig([]FieldRule{coralRule()})},
		{name: "no fields", config: ConsensusConfig{MinSiblings: 2}, wantError: ErrNoFieldRules},
		{
			name:      "duplicate fields",
			config:    DefaultConsensusConfig([]FieldRule{coralRule(), coralRule()}),
			wantError: ErrDuplicateFieldRule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewConsensusStrategy(tt.config)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.StrategyConsensus, s.Kind())
			assert.NoError(t, s.Validate())
		})
	}

	t.Run("invalid min siblings", func(t *testing.T) {
		_, err := NewConsensusStrategy(ConsensusConfig{MinSiblings: 0, Fields: []FieldRule{coralRule()}})
		assert.Error(t, err)
	})
}

func TestConsensusStrategy_Execute(t *testing.T) {
	s, err := NewConsensusStrategy(DefaultConsensusConfig([]FieldRule{coralRule()}))
	require.NoError(t, err)
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	t.Run("identical values are an exact match", func(t *testing.T) {
		// Given three scouters reporting the same value for one team.
		team := []domain.Observation{
			observation("alice", 254, coral(4)),
			observation("bob", 254, coral(4)),
			observation("carol", 254, coral(4)),
		}

		// When any one of them is judged by consensus.
		for _, obs := range team {
			results, err := s.Execute(context.Background(), obs, ports.StrategyContext{
				RunID:            "run-1",
				TeamObservations: team,
				Now:              now,
			})

			// Then the field is an exact match scored 1.0.
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, domain.OutcomeExactMatch, results[0].Outcome)
			assert.Equal(t, 1.0, results[0].AccuracyScore)
			assert.Equal(t, "teleop.coral_scored_L2", results[0].FieldPath)
			assert.Equal(t, obs.ScouterID, results[0].ScouterID)
			assert.Equal(t, "run-1", results[0].RunID)
			assert.Equal(t, "2025miket", results[0].EventKey)
			assert.Equal(t, now, results[0].CreatedAt)
			assert.NotEmpty(t, results[0].ID)
		}
	})

	t.Run("single observation is insufficient", func(t *testing.T) {
		// Given only one observation for the team.
		only := observation("alice", 254, coral(4))

		// When it is judged by consensus.
		results, err := s.Execute(context.Background(), only, ports.StrategyContext{
			TeamObservations: []domain.Observation{only},
		})

		// Then the strategy reports insufficient data instead of a comparison.
		assert.Nil(t, results)
		require.ErrorIs(t, err, domain.ErrInsufficientData)
		var ide *domain.InsufficientDataError
		require.True(t, errors.As(err, &ide))
		assert.Equal(t, 0, ide.Have)
		assert.Equal(t, DefaultMinSiblings, ide.Need)
	})

	t.Run("self is excluded from consensus", func(t *testing.T) {
		// Given a scouter whose own duplicate submission would tip the vote.
		team := []domain.Observation{
			observation("alice", 254, coral(9)),
			observation("alice", 254, coral(9)),
			observation("bob", 254, coral(4)),
			observation("carol", 254, coral(4)),
		}

		results, err := s.Execute(context.Background(), team[0], ports.StrategyContext{TeamObservations: team})

		// Then only the other scouters define the expected value.
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "4", results[0].ExpectedValue)
		assert.Equal(t, domain.OutcomeMismatch, results[0].Outcome)
	})

	t.Run("other teams are ignored", func(t *testing.T) {
		team := []domain.Observation{
			observation("alice", 254, coral(4)),
			observation("bob", 1114, coral(4)),
			observation("carol", 1114, coral(4)),
		}

		_, err := s.Execute(context.Background(), team[0], ports.StrategyContext{TeamObservations: team})
		assert.ErrorIs(t, err, domain.ErrInsufficientData)
	})

	t.Run("median of siblings", func(t *testing.T) {
		team := []domain.Observation{
			observation("alice", 254, coral(5)),
			observation("bob", 254, coral(3)),
			observation("carol", 254, coral(4)),
			observation("dave", 254, coral(12)),
		}

		results, err := s.Execute(context.Background(), team[0], ports.StrategyContext{TeamObservations: team})
		require.NoError(t, err)
		assert.Equal(t, "4", results[0].ExpectedValue)
		assert.Equal(t, domain.OutcomeCloseMatch, results[0].Outcome)
		assert.Equal(t, 0.7, results[0].AccuracyScore)
	})

	t.Run("repeat submissions count once", func(t *testing.T) {
		// Given one other scouter who submitted twice for the same team.
		first := observation("bob", 254, coral(9))
		first.ID = "bob-1"
		first.SubmittedAt = now
		second := observation("bob", 254, coral(4))
		second.ID = "bob-2"
		second.SubmittedAt = now.Add(time.Minute)
		team := []domain.Observation{observation("alice", 254, coral(4)), second, first}

		// When alice is judged by consensus.
		_, err := s.Execute(context.Background(), team[0], ports.StrategyContext{TeamObservations: team})

		// Then bob is a single sibling, short of the minimum.
		require.ErrorIs(t, err, domain.ErrInsufficientData)
		var ide *domain.InsufficientDataError
		require.True(t, errors.As(err, &ide))
		assert.Equal(t, 1, ide.Have)
	})

	t.Run("latest repeat submission is the vote", func(t *testing.T) {
		stale := observation("bob", 254, coral(9))
		stale.SubmittedAt = now
		fresh := observation("bob", 254, coral(4))
		fresh.SubmittedAt = now.Add(time.Minute)
		team := []domain.Observation{
			observation("alice", 254, coral(4)),
			fresh,
			stale,
			observation("carol", 254, coral(4)),
		}

		results, err := s.Execute(context.Background(), team[0], ports.StrategyContext{TeamObservations: team})
		require.NoError(t, err)
		assert.Equal(t, "4", results[0].ExpectedValue)
		assert.Equal(t, domain.OutcomeExactMatch, results[0].Outcome)
	})

	t.Run("non-finite sibling value is ignored", func(t *testing.T) {
		// Given a sibling whose count is the string "nan".
		team := []domain.Observation{
			observation("alice", 254, coral(4)),
			observation("bob", 254, coral(4)),
			observation("carol", 254, coral("nan")),
		}

		// When alice is judged by consensus.
		results, err := s.Execute(context.Background(), team[0], ports.StrategyContext{TeamObservations: team})

		// Then the expected value comes from the usable sibling only.
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "4", results[0].ExpectedValue)
		assert.Equal(t, domain.OutcomeExactMatch, results[0].Outcome)
	})

	t.Run("missing field on judged observation", func(t *testing.T) {
		team := []domain.Observation{
			observation("alice", 254, map[string]any{}),
			observation("bob", 254, coral(4)),
			observation("carol", 254, coral(4)),
		}

		results, err := s.Execute(context.Background(), team[0], ports.StrategyContext{TeamObservations: team})
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeMismatch, results[0].Outcome)
		assert.Equal(t, "missing", results[0].Notes)
	})

	t.Run("field absent from all siblings", func(t *testing.T) {
		team := []domain.Observation{
			observation("alice", 254, coral(4)),
			observation("bob", 254, map[string]any{}),
			observation("carol", 254, map[string]any{}),
		}

		_, err := s.Execute(context.Background(), team[0], ports.StrategyContext{TeamObservations: team})
		assert.ErrorIs(t, err, domain.ErrInsufficientData)
	})
}

func TestConsensusStrategy_CategoricalMode(t *testing.T) {
	rule := FieldRule{Path: "endgame.position", Kind: domain.KindCategorical}
	s, err := NewConsensusStrategy(DefaultConsensusConfig([]FieldRule{rule}))
	require.NoError(t, err)

	pos := func(v string) map[string]any { return map[string]any{"endgame": map[string]any{"position": v}} }
	team := []domain.Observation{
		observation("alice", 254, pos("park")),
		observation("bob", 254, pos("Deep")),
		observation("carol", 254, pos("park")),
	}

	// One sibling vote each for "deep" and "park": the tie resolves to "deep".
	results, err := s.Execute(context.Background(), team[0], ports.StrategyContext{TeamObservations: team})
	require.NoError(t, err)
	assert.Equal(t, "deep", results[0].ExpectedValue)
	assert.Equal(t, domain.OutcomeMismatch, results[0].Outcome)
}

func TestMedianAndMode(t *testing.T) {
	assert.Equal(t, 3.0, median([]float64{5, 1, 3}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 2, 3}))
	assert.Equal(t, 7.0, median([]float64{7}))

	assert.Equal(t, "b", mode([]string{"b", "a", "b"}))
	assert.Equal(t, "a", mode([]string{"b", "a"}))
	assert.Equal(t, "true", mode([]string{"true", "false", "true"}))
}
