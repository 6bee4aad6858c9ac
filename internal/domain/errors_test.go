package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("connection reset")

	tests := []struct {
		name     string
		err      error
		sentinel error
		wantMsg  string
	}{
		{
			name:     "input error",
			err:      NewInputError("accuracy_score", 1.5, "must be within [0, 1]"),
			sentinel: ErrInvalidInput,
			wantMsg:  "invalid input: field=accuracy_score, value=1.5, reason=must be within [0, 1]",
		},
		{
			name:     "insufficient data",
			err:      &InsufficientDataError{ScouterID: "alice", Strategy: StrategyConsensus, Have: 0, Need: 1, Reason: "alone"},
			sentinel: ErrInsufficientData,
			wantMsg:  "insufficient data: scouter=alice, strategy=consensus, have=0, need=1, reason=alone",
		},
		{
			name:     "external source",
			err:      NewExternalSourceError("tba", "get_match", 503, cause),
			sentinel: ErrExternalSource,
			wantMsg:  "external source error: source=tba, operation=get_match, status=503, err=connection reset",
		},
		{
			name:     "persistence",
			err:      NewPersistenceError("save_rating", "bob", cause),
			sentinel: ErrPersistence,
			wantMsg:  "persistence error: operation=save_rating, scouter=bob, err=connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.ErrorIs(t, fmt.Errorf("wrapped: %w", tt.err), tt.sentinel)
		})
	}

	assert.ErrorIs(t, NewPersistenceError("save_rating", "bob", cause), cause)
	assert.ErrorIs(t, NewExternalSourceError("tba", "get_match", 0, cause), cause)
}

func TestExternalSourceError_IsRetryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{status: 0, want: true},
		{status: 429, want: true},
		{status: 500, want: true},
		{status: 503, want: true},
		{status: 400, want: false},
		{status: 401, want: false},
		{status: 404, want: false},
	}

	for _, tt := range tests {
		err := NewExternalSourceError("tba", "get_match", tt.status, nil)
		assert.Equal(t, tt.want, err.IsRetryable(), "status=%d", tt.status)
	}
	assert.NotContains(t, NewExternalSourceError("tba", "get_match", 0, nil).Error(), "status")
}

func TestValidationError(t *testing.T) {
	t.Run("single error", func(t *testing.T) {
		err := NewValidationError("calculator")
		err.AddError("k_factor must be positive")

		assert.True(t, err.HasErrors())
		assert.Equal(t, "validation error for calculator: k_factor must be positive", err.Error())
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})

	t.Run("multiple errors", func(t *testing.T) {
		err := NewValidationError("calculator")
		err.AddError("a")
		err.AddError("b")
		assert.Equal(t, "validation errors for calculator: [a b]", err.Error())
	})

	t.Run("no errors", func(t *testing.T) {
		assert.False(t, NewValidationError("calculator").HasErrors())
	})
}

func TestStrategyKindAndOutcome(t *testing.T) {
	for _, k := range AllStrategies {
		assert.True(t, k.Valid())
	}
	assert.False(t, StrategyKind("manual").Valid())

	assert.True(t, OutcomeExactMatch.Successful())
	assert.True(t, OutcomeCloseMatch.Successful())
	assert.False(t, OutcomeMismatch.Successful())
	assert.False(t, OutcomeCriticalError.Successful())
}
