package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ahrav/go-scoutrate/internal/domain"
)

func TestClassify_Numeric(t *testing.T) {
	tests := []struct {
		name        string
		rule        FieldRule
		expected    any
		actual      any
		wantOutcome domain.ValidationOutcome
		wantScore   float64
		wantWeight  float64
	}{
		{
			name:        "equal integers",
			rule:        FieldRule{Path: "teleop.coral_scored_L2", Kind: domain.KindNumeric},
			expected:    4.0,
			actual:      4,
			wantOutcome: domain.OutcomeExactMatch,
			wantScore:   1.0,
			wantWeight:  1.0,
		},
		{
			name:        "within absolute tolerance",
			rule:        FieldRule{Path: "teleop.coral_scored_L2", Kind: domain.KindNumeric, AbsTolerance: 1},
			expected:    4.0,
			actual:      5,
			wantOutcome: domain.OutcomeCloseMatch,
			wantScore:   0.7,
			wantWeight:  1.0,
		},
		{
			name:        "within relative tolerance",
			rule:        FieldRule{Path: "endgame.climb_seconds", Kind: domain.KindNumeric, RelTolerance: 0.1},
			expected:    20.0,
			actual:      21.5,
			wantOutcome: domain.OutcomeCloseMatch,
			wantScore:   0.7,
			wantWeight:  1.0,
		},
		{
			name:        "outside tolerance",
			rule:        FieldRule{Path: "teleop.coral_scored_L2", Kind: domain.KindNumeric, AbsTolerance: 1},
			expected:    4.0,
			actual:      8,
			wantOutcome: domain.OutcomeMismatch,
			wantScore:   0.0,
			wantWeight:  1.0,
		},
		{
			name:        "partial credit on mismatch",
			rule:        FieldRule{Path: "teleop.coral_scored_L2", Kind: domain.KindNumeric, PartialCredit: true},
			expected:    10.0,
			actual:      8,
			wantOutcome: domain.OutcomeMismatch,
			wantScore:   0.8,
			wantWeight:  1.0,
		},
		{
			name:        "partial credit floors at zero",
			rule:        FieldRule{Path: "teleop.coral_scored_L2", Kind: domain.KindNumeric, PartialCredit: true},
			expected:    2.0,
			actual:      9,
			wantOutcome: domain.OutcomeMismatch,
			wantScore:   0.0,
			wantWeight:  1.0,
		},
		{
			name: "critical deviation",
			rule: FieldRule{
				Path: "auto.leave", Kind: domain.KindNumeric, Weight: 1.5,
				Critical: true, CriticalDeviation: 3,
			},
			expected:    1.0,
			actual:      6,
			wantOutcome: domain.OutcomeCriticalError,
			wantScore:   0.0,
			wantWeight:  3.0,
		},
		{
			name: "critical field below critical deviation",
			rule: FieldRule{
				Path: "auto.leave", Kind: domain.KindNumeric,
				Critical: true, CriticalDeviation: 3,
			},
			expected:    1.0,
			actual:      3,
			wantOutcome: domain.OutcomeMismatch,
			wantScore:   0.0,
			wantWeight:  1.0,
		},
		{
			name:        "missing actual value",
			rule:        FieldRule{Path: "teleop.coral_scored_L2", Kind: domain.KindNumeric},
			expected:    4.0,
			actual:      nil,
			wantOutcome: domain.OutcomeMismatch,
			wantScore:   0.0,
			wantWeight:  1.0,
		},
		{
			name:        "unparseable actual value",
			rule:        FieldRule{Path: "teleop.coral_scored_L2", Kind: domain.KindNumeric},
			expected:    4.0,
			actual:      "four",
			wantOutcome: domain.OutcomeMismatch,
			wantScore:   0.0,
			wantWeight:  1.0,
		},
		{
			name:        "non-finite actual value with partial credit",
			rule:        FieldRule{Path: "teleop.coral_scored_L2", Kind: domain.KindNumeric, PartialCredit: true},
			expected:    4.0,
			actual:      "NaN",
			wantOutcome: domain.OutcomeMismatch,
			wantScore:   0.0,
			wantWeight:  1.0,
		},
		{
			name:        "infinite actual value",
			rule:        FieldRule{Path: "teleop.coral_scored_L2", Kind: domain.KindNumeric, AbsTolerance: 1},
			expected:    4.0,
			actual:      "Inf",
			wantOutcome: domain.OutcomeMismatch,
			wantScore:   0.0,
			wantWeight:  1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.rule, tt.expected, tt.actual)
			assert.Equal(t, tt.wantOutcome, got.Outcome)
			assert.InDelta(t, tt.wantScore, got.Score, 1e-9)
			assert.InDelta(t, tt.wantWeight, got.Weight, 1e-9)
		})
	}
}

func TestClassify_Boolean(t *testing.T) {
	rule := FieldRule{Path: "auto.leave", Kind: domain.KindBoolean}

	assert.Equal(t, domain.OutcomeExactMatch, Classify(rule, true, "yes").Outcome)
	assert.Equal(t, domain.OutcomeExactMatch, Classify(rule, false, 0).Outcome)
	assert.Equal(t, domain.OutcomeMismatch, Classify(rule, true, false).Outcome)

	rule.Critical = true
	got := Classify(rule, true, false)
	assert.Equal(t, domain.OutcomeCriticalError, got.Outcome)
	assert.Equal(t, DefaultCriticalWeight, got.Weight)
}

func TestClassify_Categorical(t *testing.T) {
	tests := []struct {
		name        string
		threshold   float64
		expected    string
		actual      string
		wantOutcome domain.ValidationOutcome
	}{
		{name: "case folded equality", expected: "Deep Cage", actual: "deep cage", wantOutcome: domain.OutcomeExactMatch},
		{name: "whitespace trimmed", expected: "park", actual: "  park ", wantOutcome: domain.OutcomeExactMatch},
		{name: "fuzzy close", threshold: 0.8, expected: "shallow cage", actual: "shallow cag", wantOutcome: domain.OutcomeCloseMatch},
		{name: "fuzzy disabled", expected: "shallow cage", actual: "shallow cag", wantOutcome: domain.OutcomeMismatch},
		{name: "different values", threshold: 0.8, expected: "deep cage", actual: "none", wantOutcome: domain.OutcomeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := FieldRule{Path: "endgame.position", Kind: domain.KindCategorical, FuzzyThreshold: tt.threshold}
			assert.Equal(t, tt.wantOutcome, Classify(rule, tt.expected, tt.actual).Outcome)
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("", ""))
	assert.Equal(t, 1.0, similarity("café", "café"))
	assert.InDelta(t, 0.75, similarity("café", "cafe"), 1e-9)
	assert.Equal(t, 0.0, similarity("abc", "xyz"))
}
