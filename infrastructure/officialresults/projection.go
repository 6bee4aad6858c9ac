package officialresults

import (
	"strconv"
	"strings"

	"github.com/ahrav/go-scoutrate/infrastructure/strategies"
	"github.com/ahrav/go-scoutrate/internal/domain"
)

// slotPlaceholder is replaced by a robot's 1-based position in its alliance.
const slotPlaceholder = "{slot}"

// tbaMatch is the subset of the /match/{key} document the client reads.
type tbaMatch struct {
	Key       string `json:"key"`
	Alliances struct {
		Red  tbaAlliance `json:"red"`
		Blue tbaAlliance `json:"blue"`
	} `json:"alliances"`
	// ScoreBreakdown is keyed by alliance color. It is null until the
	// match result is published.
	ScoreBreakdown map[string]map[string]any `json:"score_breakdown"`
}

type tbaAlliance struct {
	Score    int      `json:"score"`
	TeamKeys []string `json:"team_keys"`
}

// project converts a match document into ground truth. Mappings containing
// the slot placeholder read the robot-specific breakdown key; mappings
// without it read an alliance-wide value shared by all of the alliance's
// teams.
func project(matchKey string, m tbaMatch, mappings []strategies.FieldRule) *domain.GroundTruth {
	gt := &domain.GroundTruth{MatchKey: matchKey, Source: SourceName}

	alliances := []struct {
		color string
		teams []string
	}{
		{"red", m.Alliances.Red.TeamKeys},
		{"blue", m.Alliances.Blue.TeamKeys},
	}

	for _, a := range alliances {
		breakdown := m.ScoreBreakdown[a.color]
		if breakdown == nil {
			continue
		}
		for slot, teamKey := range a.teams {
			team, ok := parseTeamKey(teamKey)
			if !ok {
				continue
			}
			for _, rule := range mappings {
				key := strings.ReplaceAll(rule.OfficialPath, slotPlaceholder, strconv.Itoa(slot+1))
				if v, ok := domain.LookupPath(breakdown, key); ok {
					gt.Set(team, rule.Path, v)
				}
			}
		}
	}
	return gt
}

// parseTeamKey converts "frc254" to 254.
func parseTeamKey(key string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(key, "frc"))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
