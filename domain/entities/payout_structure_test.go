package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayoutStructure_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		structure PayoutStructure
		wantErr   bool
	}{
		{
			name:      "valid winner takes all",
			structure: PayoutStructure{{Placement: 1, Percent: 100}},
			wantErr:   false,
		},
		{
			name: "valid three way split",
			structure: PayoutStructure{
				{Placement: 1, Percent: 50},
				{Placement: 2, Percent: 30},
				{Placement: 3, Percent: 20},
			},
			wantErr: false,
		},
		{
			name:      "empty structure",
			structure: PayoutStructure{},
			wantErr:   true,
		},
		{
			name: "percentages do not sum to 100",
			structure: PayoutStructure{
				{Placement: 1, Percent: 60},
				{Placement: 2, Percent: 30},
			},
			wantErr: true,
		},
		{
			name: "duplicate placement",
			structure: PayoutStructure{
				{Placement: 1, Percent: 50},
				{Placement: 1, Percent: 50},
			},
			wantErr: true,
		},
		{
			name:      "zero percent share",
			structure: PayoutStructure{{Placement: 1, Percent: 100}, {Placement: 2, Percent: 0}},
			wantErr:   true,
		},
		{
			name:      "non-positive placement",
			structure: PayoutStructure{{Placement: 0, Percent: 100}},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.structure.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPayoutStructure_Split(t *testing.T) {
	t.Parallel()

	t.Run("even split conserves total", func(t *testing.T) {
		t.Parallel()

		structure := PayoutStructure{
			{Placement: 1, Percent: 70},
			{Placement: 2, Percent: 30},
		}
		amounts := structure.Split(4000)

		assert.Equal(t, int64(2800), amounts[1])
		assert.Equal(t, int64(1200), amounts[2])
	})

	t.Run("remainder cents go to first place", func(t *testing.T) {
		t.Parallel()

		structure := PayoutStructure{
			{Placement: 1, Percent: 33},
			{Placement: 2, Percent: 33},
			{Placement: 3, Percent: 34},
		}
		// 33% of 101 floors to 33, 34% floors to 34: remainder 1 -> first place
		amounts := structure.Split(101)

		require.Len(t, amounts, 3)
		assert.Equal(t, int64(34), amounts[1])
		assert.Equal(t, int64(33), amounts[2])
		assert.Equal(t, int64(34), amounts[3])

		var total int64
		for _, amount := range amounts {
			total += amount
		}
		assert.Equal(t, int64(101), total)
	})

	t.Run("split never exceeds total", func(t *testing.T) {
		t.Parallel()

		structure := PayoutStructure{
			{Placement: 1, Percent: 50},
			{Placement: 2, Percent: 30},
			{Placement: 3, Percent: 20},
		}
		for _, total := range []int64{1, 99, 100, 2000, 999999} {
			amounts := structure.Split(total)
			var sum int64
			for _, amount := range amounts {
				sum += amount
			}
			assert.Equal(t, total, sum, "total %d must be conserved", total)
		}
	})
}

func TestPayoutStructure_Placements(t *testing.T) {
	t.Parallel()

	structure := PayoutStructure{
		{Placement: 3, Percent: 20},
		{Placement: 1, Percent: 50},
		{Placement: 2, Percent: 30},
	}
	assert.Equal(t, []int{1, 2, 3}, structure.Placements())
}
