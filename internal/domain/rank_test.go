package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRank(t *testing.T) {
	tests := []struct {
		elo  float64
		want Rank
	}{
		{elo: 2100, want: RankDiamond},
		{elo: 2000, want: RankDiamond},
		{elo: 1999.99, want: RankPlatinum},
		{elo: 1450, want: RankGold},
		{elo: 1100, want: RankSilver},
		{elo: 800, want: RankBronze},
		{elo: 799, want: RankUnranked},
		{elo: 0, want: RankUnranked},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, GetRank(tt.elo), "elo=%v", tt.elo)
	}
}

func TestGetProgressToNextRank(t *testing.T) {
	t.Run("inside a tier", func(t *testing.T) {
		got := GetProgressToNextRank(1450)
		assert.Equal(t, RankGold, got.Rank)
		require.NotNil(t, got.NextRank)
		assert.Equal(t, RankPlatinum, *got.NextRank)
		assert.InDelta(t, 250.0, got.PointsNeeded, 1e-9)
		assert.InDelta(t, 50.0/300*100, got.Progress, 1e-9)
	})

	t.Run("on a threshold", func(t *testing.T) {
		got := GetProgressToNextRank(800)
		assert.Equal(t, RankBronze, got.Rank)
		assert.Equal(t, 0.0, got.Progress)
		assert.Equal(t, 300.0, got.PointsNeeded)
	})

	t.Run("top tier has no next rank", func(t *testing.T) {
		got := GetProgressToNextRank(2400)
		assert.Equal(t, RankDiamond, got.Rank)
		assert.Nil(t, got.NextRank)
		assert.Equal(t, 100.0, got.Progress)
		assert.Zero(t, got.PointsNeeded)
	})
}

func TestRankTiers_ReturnsCopy(t *testing.T) {
	tiers := RankTiers()
	require.Len(t, tiers, 6)
	tiers[0].Threshold = 0
	assert.Equal(t, RankDiamond, GetRank(2000))
	assert.Equal(t, 2000.0, RankTiers()[0].Threshold)
}
