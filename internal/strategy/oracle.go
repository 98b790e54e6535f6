package strategy

import (
	"fmt"

	"battery-dispatch/internal/dp"
	"battery-dispatch/internal/model"

	"go.uber.org/zap"
)

// OracleStrategy is the profit-maximizing "perfect foresight" strategy.
// It solves the whole horizon up-front by backward induction on a discretized
// SOC grid and then reads the policy table during replay.
//
// Notes:
//   - The replayed SOC is continuous; each period snaps it to the nearest grid
//     state (ties to the lower state) before looking up the action.
//   - The solved policy is immutable, so one OracleStrategy can be replayed from
//     many initial SOCs.
type OracleStrategy struct {
	solution *dp.Solution
}

type OracleParams struct {
	// Workers > 1 sweeps the states of each period concurrently.
	Workers int
	Logger  *zap.Logger
}

func NewOracleStrategy(series model.Series, params model.Params, cfg OracleParams) (*OracleStrategy, error) {
	if series.Len() == 0 {
		return nil, fmt.Errorf("no periods")
	}
	sol, err := dp.Solve(params, series, dp.Options{Workers: cfg.Workers, Logger: cfg.Logger})
	if err != nil {
		return nil, err
	}
	return &OracleStrategy{solution: sol}, nil
}

// NewOracleFromSolution wraps an existing solve.
func NewOracleFromSolution(sol *dp.Solution) *OracleStrategy {
	return &OracleStrategy{solution: sol}
}

func (s *OracleStrategy) Name() string { return NameOracle }

// Solution exposes the value function and policy for inspection.
func (s *OracleStrategy) Solution() *dp.Solution { return s.solution }

func (s *OracleStrategy) Decide(ctx Context) float64 {
	if ctx.Index < 0 || ctx.Index >= s.solution.Horizon() {
		return 0
	}
	si := s.solution.Grid().Nearest(ctx.SOC)
	return s.solution.ActionValue(ctx.Index, si)
}
