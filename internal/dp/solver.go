package dp

import (
	"fmt"
	"math"

	"battery-dispatch/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options tunes a solve. The zero value is a sequential, silent solve.
type Options struct {
	// Workers > 1 evaluates the states of one period concurrently.
	// The result is identical to the sequential solve.
	Workers int
	Logger  *zap.Logger
}

// Solution holds the value function and policy of a solved horizon.
// Tables are dense, row-major by period: cell (t, s) lives at t*States()+s.
// A Solution is immutable once Solve returns.
type Solution struct {
	grid    *Grid
	model   *RewardModel
	horizon int

	value  []float64 // (horizon+1) rows; the last row is the terminal boundary
	policy []int     // horizon rows

	infeasible int
}

// Solve runs the finite-horizon Bellman recursion backward from the last period.
// Invalid params or series are rejected with model.ErrInvalidConfiguration
// before any table is allocated.
func Solve(p model.Params, s model.Series, opts Options) (*Solution, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.Validate(p.Horizon); err != nil {
		return nil, err
	}
	grid, err := NewGrid(p)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	n := grid.States()
	sol := &Solution{
		grid:    grid,
		model:   NewRewardModel(p, s),
		horizon: p.Horizon,
		value:   make([]float64, (p.Horizon+1)*n),
		policy:  make([]int, p.Horizon*n),
	}
	// value[horizon*n:] stays zero: leftover charge has no terminal value.

	for t := p.Horizon - 1; t >= 0; t-- {
		if err := sol.sweep(t, opts.Workers); err != nil {
			return nil, fmt.Errorf("period %d: %w", t, err)
		}
		for si := 0; si < n; si++ {
			if math.IsInf(sol.value[t*n+si], -1) {
				sol.infeasible++
			}
		}
	}

	logger.Debug("solved dispatch horizon",
		zap.Int("periods", p.Horizon),
		zap.Int("soc_states", n),
		zap.Int("actions", len(grid.Actions)),
		zap.Int("workers", opts.Workers),
		zap.Int("infeasible_cells", sol.infeasible),
	)
	return sol, nil
}

// sweep fills row t of both tables. Row t+1 must be complete.
func (sol *Solution) sweep(t int, workers int) error {
	n := sol.grid.States()
	if workers <= 1 {
		for si := 0; si < n; si++ {
			sol.solveCell(t, si)
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(workers)
	chunk := (n + workers - 1) / workers
	for lo := 0; lo < n; lo += chunk {
		lo, hi := lo, min(lo+chunk, n)
		g.Go(func() error {
			for si := lo; si < hi; si++ {
				sol.solveCell(t, si)
			}
			return nil
		})
	}
	return g.Wait()
}

// solveCell picks the best action for (t, si). Ties keep the lowest action
// index; when every action is infeasible the cell gets index 0 at -Inf.
func (sol *Solution) solveCell(t, si int) {
	n := sol.grid.States()
	gamma := sol.model.params.Discount
	soc := sol.grid.SOC[si]
	nextRow := sol.value[(t+1)*n : (t+2)*n]

	best := math.Inf(-1)
	bestIdx := 0
	for ai, a := range sol.grid.Actions {
		q := sol.q(t, soc, a, nextRow, gamma)
		if q > best {
			best = q
			bestIdx = ai
		}
	}
	sol.policy[t*n+si] = bestIdx
	sol.value[t*n+si] = best
}

func (sol *Solution) q(t int, soc, a float64, nextRow []float64, gamma float64) float64 {
	out := sol.model.Evaluate(t, soc, a)
	if !out.Feasible {
		return math.Inf(-1)
	}
	idx := sol.grid.IndexOf(out.NextSOC)
	if idx < 0 || idx >= len(nextRow) {
		return math.Inf(-1)
	}
	return out.Reward + gamma*nextRow[idx]
}

// Grid returns the discretization the solution was computed on.
func (sol *Solution) Grid() *Grid { return sol.grid }

// Model returns the reward model bound to the solved params and series.
func (sol *Solution) Model() *RewardModel { return sol.model }

// Horizon is the number of periods T.
func (sol *Solution) Horizon() int { return sol.horizon }

// Value returns V[t][s] for t in [0, T].
func (sol *Solution) Value(t, s int) float64 {
	sol.check(t, s, sol.horizon)
	return sol.value[t*sol.grid.States()+s]
}

// Action returns the policy's action index π[t][s] for t in [0, T).
func (sol *Solution) Action(t, s int) int {
	sol.check(t, s, sol.horizon-1)
	return sol.policy[t*sol.grid.States()+s]
}

// ActionValue returns the signed action energy chosen at (t, s).
func (sol *Solution) ActionValue(t, s int) float64 {
	return sol.grid.Actions[sol.Action(t, s)]
}

// Infeasible reports whether no feasible action exists at (t, s). The policy
// still holds a definite action there; treat the state as unreachable.
func (sol *Solution) Infeasible(t, s int) bool {
	return math.IsInf(sol.Value(t, s), -1)
}

// InfeasibleCount is the number of (t, s) cells valued at -Inf.
func (sol *Solution) InfeasibleCount() int { return sol.infeasible }

// ValueTable copies V into [T+1][N] rows.
func (sol *Solution) ValueTable() [][]float64 {
	n := sol.grid.States()
	out := make([][]float64, sol.horizon+1)
	for t := range out {
		out[t] = append([]float64(nil), sol.value[t*n:(t+1)*n]...)
	}
	return out
}

// PolicyTable copies π into [T][N] rows of action indices.
func (sol *Solution) PolicyTable() [][]int {
	n := sol.grid.States()
	out := make([][]int, sol.horizon)
	for t := range out {
		out[t] = append([]int(nil), sol.policy[t*n:(t+1)*n]...)
	}
	return out
}

func (sol *Solution) check(t, s, maxT int) {
	if t < 0 || t > maxT || s < 0 || s >= sol.grid.States() {
		panic(fmt.Sprintf("dp: cell (%d, %d) out of range [0, %d] x [0, %d)", t, s, maxT, sol.grid.States()))
	}
}
