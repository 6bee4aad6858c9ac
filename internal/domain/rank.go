package domain

// Rank is a display tier derived from a rating.
type Rank string

const (
	RankDiamond  Rank = "diamond"
	RankPlatinum Rank = "platinum"
	RankGold     Rank = "gold"
	RankSilver   Rank = "silver"
	RankBronze   Rank = "bronze"
	RankUnranked Rank = "unranked"
)

// RankTier is a rank and the minimum rating required to hold it.
type RankTier struct {
	Rank      Rank    `json:"rank"`
	Threshold float64 `json:"threshold"`
}

// rankTiers is ordered from highest to lowest threshold.
var rankTiers = []RankTier{
	{RankDiamond, 2000},
	{RankPlatinum, 1700},
	{RankGold, 1400},
	{RankSilver, 1100},
	{RankBronze, 800},
	{RankUnranked, 0},
}

// RankTiers returns a copy of the tier table, highest first.
func RankTiers() []RankTier {
	out := make([]RankTier, len(rankTiers))
	copy(out, rankTiers)
	return out
}

// GetRank returns the highest tier whose threshold elo meets or exceeds.
func GetRank(elo float64) Rank {
	return rankTiers[tierIndex(elo)].Rank
}

// RankProgress describes how far a rating is toward the next tier.
type RankProgress struct {
	Rank Rank `json:"rank"`
	// Progress is 0–100 within the current tier.
	Progress float64 `json:"progress"`
	// NextRank is nil at the top tier.
	NextRank     *Rank   `json:"next_rank"`
	PointsNeeded float64 `json:"points_needed"`
}

// GetProgressToNextRank interpolates linearly between the current tier's
// threshold and the next one.
func GetProgressToNextRank(elo float64) RankProgress {
	idx := tierIndex(elo)
	current := rankTiers[idx]
	if idx == 0 {
		return RankProgress{Rank: current.Rank, Progress: 100}
	}

	next := rankTiers[idx-1]
	span := next.Threshold - current.Threshold
	progress := (elo - current.Threshold) / span * 100
	if progress < 0 {
		progress = 0
	}
	nextRank := next.Rank
	return RankProgress{
		Rank:         current.Rank,
		Progress:     progress,
		NextRank:     &nextRank,
		PointsNeeded: next.Threshold - elo,
	}
}

func tierIndex(elo float64) int {
	for i, t := range rankTiers {
		if elo >= t.Threshold {
			return i
		}
	}
	return len(rankTiers) - 1
}
