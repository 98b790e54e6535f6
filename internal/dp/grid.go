// Package dp solves the discretized battery dispatch MDP by backward induction.
//
// The state is the battery state of charge, snapped onto an evenly spaced grid;
// the action is a signed energy transfer per period (negative = charge,
// positive = discharge). Solve produces a value function and a policy table
// that the backtest engine replays from any initial state of charge.
package dp

import (
	"fmt"
	"math"
	"sort"

	"battery-dispatch/internal/model"
)

// BuildSOCGrid returns count evenly spaced values over [min, max], both endpoints included.
func BuildSOCGrid(min, max float64, count int) ([]float64, error) {
	if count < 2 {
		return nil, fmt.Errorf("%w: soc grid needs at least 2 states, got %d", model.ErrInvalidConfiguration, count)
	}
	if !(min < max) {
		return nil, fmt.Errorf("%w: soc grid bounds [%g, %g] are empty", model.ErrInvalidConfiguration, min, max)
	}
	grid := make([]float64, count)
	last := float64(count - 1)
	for i := range grid {
		grid[i] = min + (max-min)*float64(i)/last
	}
	// Write endpoints exactly so IndexOf(min) == 0 and IndexOf(max) == count-1.
	grid[0] = min
	grid[count-1] = max
	return grid, nil
}

// BuildActionGrid returns count evenly spaced actions over [-maxRate, +maxRate]
// and the index of the idle action. Zero is appended when the spacing does not
// already produce it (even counts).
func BuildActionGrid(maxRate float64, count int) ([]float64, int, error) {
	if count < 2 {
		return nil, 0, fmt.Errorf("%w: action grid needs at least 2 actions, got %d", model.ErrInvalidConfiguration, count)
	}
	if !(maxRate > 0) {
		return nil, 0, fmt.Errorf("%w: action grid max rate must be > 0", model.ErrInvalidConfiguration)
	}
	actions := make([]float64, count, count+1)
	last := count - 1
	for i := range actions {
		// Integer numerator keeps the grid symmetric and the midpoint exactly zero.
		actions[i] = maxRate * float64(2*i-last) / float64(last)
	}
	for i, a := range actions {
		if a == 0 {
			return actions, i, nil
		}
	}
	actions = append(actions, 0)
	return actions, len(actions) - 1, nil
}

// Grid is the discretized state and action space of one solve.
type Grid struct {
	SOC       []float64
	Actions   []float64
	IdleIndex int
}

// NewGrid builds both grids from validated params.
func NewGrid(p model.Params) (*Grid, error) {
	soc, err := BuildSOCGrid(p.SOCMin, p.SOCMax, p.SOCStates)
	if err != nil {
		return nil, err
	}
	actions, idle, err := BuildActionGrid(p.MaxEnergy, p.Actions)
	if err != nil {
		return nil, err
	}
	return &Grid{SOC: soc, Actions: actions, IdleIndex: idle}, nil
}

// States is the number of SOC levels.
func (g *Grid) States() int { return len(g.SOC) }

// IndexOf maps a continuous SOC onto the grid the way the backward solver does:
// round((soc - min) / (max - min) * (N - 1)) with math.Round (half away from zero).
// The result is not clamped; callers must check it against [0, States()).
func (g *Grid) IndexOf(soc float64) int {
	lo, hi := g.SOC[0], g.SOC[len(g.SOC)-1]
	f := (soc - lo) / (hi - lo) * float64(len(g.SOC)-1)
	return int(math.Round(f))
}

// Nearest returns the grid index closest to soc by absolute difference.
// Ties go to the lower index.
func (g *Grid) Nearest(soc float64) int {
	i := sort.SearchFloat64s(g.SOC, soc)
	if i == 0 {
		return 0
	}
	if i == len(g.SOC) {
		return len(g.SOC) - 1
	}
	if soc-g.SOC[i-1] <= g.SOC[i]-soc {
		return i - 1
	}
	return i
}
