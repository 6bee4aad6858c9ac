package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateKeys(t *testing.T) {
	tests := []struct {
		key       string
		wantMatch bool
	}{
		{key: "2025txhou_qm12", wantMatch: true},
		{key: "2025txhou_sf3m1", wantMatch: true},
		{key: "2025txhou_f1m2", wantMatch: true},
		{key: "2025txhou_qf4m3", wantMatch: true},
		{key: "2025txhou", wantMatch: false},
		{key: "2025TXHOU_qm1", wantMatch: false},
		{key: "txhou_qm1", wantMatch: false},
		{key: "2025txhou_xx1", wantMatch: false},
		{key: "", wantMatch: false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := ValidateMatchKey(tt.key)
			if tt.wantMatch {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	assert.NoError(t, ValidateEventKey("2025txhou"))
	assert.ErrorIs(t, ValidateEventKey("2025txhou_qm1"), ErrInvalidInput)
	assert.ErrorIs(t, ValidateEventKey("houston"), ErrInvalidInput)
}

func TestEventKeyOf(t *testing.T) {
	assert.Equal(t, "2025txhou", EventKeyOf("2025txhou_qm12"))
	assert.Equal(t, "", EventKeyOf("2025txhou"))
	assert.Equal(t, "", EventKeyOf("_qm1"))
}

func TestSortMatchKeys(t *testing.T) {
	keys := []string{
		"2025miket_f1m1",
		"2025miket_qm10",
		"bogus",
		"2025miket_sf2m1",
		"2025miket_qm2",
		"2025miket_sf1m1",
		"2025miket_qm2",
		"2025miket_qf1m2",
		"2025miket_qf1m1",
	}

	assert.Equal(t, []string{
		"2025miket_qm2",
		"2025miket_qm10",
		"2025miket_qf1m1",
		"2025miket_qf1m2",
		"2025miket_sf1m1",
		"2025miket_sf2m1",
		"2025miket_f1m1",
		"bogus",
	}, SortMatchKeys(keys))

	assert.Equal(t, 0, CompareMatchKeys("2025miket_qm1", "2025miket_qm1"))
	assert.Negative(t, CompareMatchKeys("a", "b"))
}
