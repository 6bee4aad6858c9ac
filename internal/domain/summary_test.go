package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidationExecutionSummary_Merge(t *testing.T) {
	// Given an empty event summary and two match summaries.
	event := &ValidationExecutionSummary{EventKey: "2025miket"}
	first := &ValidationExecutionSummary{
		MatchKeys:         []string{"2025miket_qm1"},
		RunIDs:            []string{"r1"},
		ScoutersValidated: 2,
		Deltas:            []ScouterDelta{{ScouterID: "alice"}, {ScouterID: "bob"}},
		StartedAt:         testTime.Add(time.Minute),
		FinishedAt:        testTime.Add(2 * time.Minute),
	}
	second := &ValidationExecutionSummary{
		MatchKeys:        []string{"2025miket_qm2"},
		RunIDs:           []string{"r2"},
		ScoutersSkipped:  1,
		ScoutersErrored:  1,
		Skipped:          []SkipRecord{{ScouterID: "carol"}},
		Errored:          []ErrorRecord{{ScouterID: "dave"}},
		StrategyFailures: []StrategyFailure{{Strategy: StrategyOfficialResult}},
		FailedMatches:    []string{"2025miket_qm2"},
		StartedAt:        testTime,
		FinishedAt:       testTime.Add(3 * time.Minute),
	}

	// When both are merged.
	event.Merge(first)
	event.Merge(second)
	event.Merge(nil)

	// Then counters add up and the time window spans both runs.
	assert.Equal(t, 2, event.MatchesProcessed())
	assert.Equal(t, []string{"r1", "r2"}, event.RunIDs)
	assert.Equal(t, 2, event.ScoutersValidated)
	assert.Equal(t, 1, event.ScoutersSkipped)
	assert.Equal(t, 1, event.ScoutersErrored)
	assert.Len(t, event.Deltas, 2)
	assert.Len(t, event.Skipped, 1)
	assert.Len(t, event.Errored, 1)
	assert.Len(t, event.StrategyFailures, 1)
	assert.Equal(t, []string{"2025miket_qm2"}, event.FailedMatches)
	assert.False(t, event.Cancelled)
	assert.Equal(t, testTime, event.StartedAt)
	assert.Equal(t, testTime.Add(3*time.Minute), event.FinishedAt)
	assert.Equal(t, "2025miket", event.EventKey)
}
