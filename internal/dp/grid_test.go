package dp

import (
	"testing"

	"battery-dispatch/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSOCGrid(t *testing.T) {
	grid, err := BuildSOCGrid(0, 100, 101)
	require.NoError(t, err)
	require.Len(t, grid, 101)
	assert.Equal(t, 0.0, grid[0])
	assert.Equal(t, 100.0, grid[100])
	for i := 1; i < len(grid); i++ {
		assert.Greater(t, grid[i], grid[i-1])
		assert.InDelta(t, 1.0, grid[i]-grid[i-1], 1e-9)
	}

	grid, err = BuildSOCGrid(0, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 5, 10}, grid)

	_, err = BuildSOCGrid(0, 10, 1)
	assert.ErrorIs(t, err, model.ErrInvalidConfiguration)
	_, err = BuildSOCGrid(10, 10, 5)
	assert.ErrorIs(t, err, model.ErrInvalidConfiguration)
}

func TestBuildActionGrid(t *testing.T) {
	tests := []struct {
		name     string
		maxRate  float64
		count    int
		expected []float64
		idle     int
	}{
		{
			name:     "odd count has an exact zero",
			maxRate:  5,
			count:    3,
			expected: []float64{-5, 0, 5},
			idle:     1,
		},
		{
			name:     "even count appends idle",
			maxRate:  5,
			count:    2,
			expected: []float64{-5, 5, 0},
			idle:     2,
		},
		{
			name:     "even count with interior points",
			maxRate:  3,
			count:    4,
			expected: []float64{-3, -1, 1, 3, 0},
			idle:     4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actions, idle, err := BuildActionGrid(tt.maxRate, tt.count)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, actions)
			assert.Equal(t, tt.idle, idle)
			assert.Equal(t, 0.0, actions[idle])
		})
	}

	actions, idle, err := BuildActionGrid(15, 31)
	require.NoError(t, err)
	assert.Len(t, actions, 31)
	assert.Equal(t, 15, idle)
	zeros := 0
	for _, a := range actions {
		if a == 0 {
			zeros++
		}
	}
	assert.Equal(t, 1, zeros, "no duplicate idle action")

	_, _, err = BuildActionGrid(5, 1)
	assert.ErrorIs(t, err, model.ErrInvalidConfiguration)
	_, _, err = BuildActionGrid(0, 3)
	assert.ErrorIs(t, err, model.ErrInvalidConfiguration)
}

func TestGridIndexing(t *testing.T) {
	g := &Grid{SOC: []float64{0, 5, 10}}

	assert.Equal(t, 0, g.IndexOf(0))
	assert.Equal(t, 1, g.IndexOf(5))
	assert.Equal(t, 2, g.IndexOf(10))
	// Half rounds away from zero.
	assert.Equal(t, 1, g.IndexOf(2.5))
	assert.Equal(t, 2, g.IndexOf(7.5))
	assert.Equal(t, 1, g.IndexOf(7.4))
	// Out of range is reported, not clamped.
	assert.Equal(t, -1, g.IndexOf(-4))
	assert.Equal(t, 3, g.IndexOf(14))

	assert.Equal(t, 0, g.Nearest(-3))
	assert.Equal(t, 0, g.Nearest(2.5), "ties go to the lower index")
	assert.Equal(t, 1, g.Nearest(2.6))
	assert.Equal(t, 1, g.Nearest(7.5))
	assert.Equal(t, 2, g.Nearest(7.6))
	assert.Equal(t, 2, g.Nearest(30))
	assert.Equal(t, 3, g.States())
}
