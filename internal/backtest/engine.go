package backtest

import (
	"fmt"
	"math"

	"battery-dispatch/internal/dp"
	"battery-dispatch/internal/model"
	"battery-dispatch/internal/strategy"

	"go.uber.org/zap"
)

type Engine struct {
	logger *zap.Logger
}

// New returns an engine. A nil logger disables logging.
func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Run replays a strategy over the series from initialSOC.
//
// The initial SOC is clamped into [SOCMin, SOCMax]. Each period the strategy
// picks an action for the current continuous SOC, the outcome is re-derived
// with the reward model at that SOC (so discretization error in the policy is
// reproduced, not smoothed away), and the SOC moves to
// clamp(soc + efficiency*action*step).
func (e *Engine) Run(series model.Series, params model.Params, strat strategy.Strategy, initialSOC float64) (*Result, error) {
	if strat == nil {
		return nil, fmt.Errorf("strategy is nil")
	}
	if series.Len() == 0 {
		return nil, fmt.Errorf("no periods")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := series.Validate(params.Horizon); err != nil {
		return nil, err
	}
	if err := series.CheckStep(params.StepHours); err != nil {
		return nil, err
	}

	rm := dp.NewRewardModel(params, series)
	maxAction := params.MaxEnergy / params.StepHours
	periodCost := params.PrePurchased * params.PrePurchasedPrice

	soc := params.ClampSOC(initialSOC)
	res := &Result{
		Strategy: strat.Name(),
		Ledger:   make([]LedgerRow, 0, params.Horizon),
		SOC:      make([]float64, 0, params.Horizon+1),
	}
	res.SOC = append(res.SOC, soc)

	cum := 0.0
	for t := 0; t < params.Horizon; t++ {
		start := series.PeriodStart(t, params.StepHours)
		req := strat.Decide(strategy.Context{
			Index:       t,
			PeriodStart: start,
			SOC:         soc,
		})
		if math.IsNaN(req) {
			return nil, fmt.Errorf("period %d: strategy %s returned NaN", t, strat.Name())
		}
		a := math.Max(-maxAction, math.Min(req, maxAction))

		out := rm.Realize(t, soc, a)
		next := params.ClampSOC(out.NextSOC)

		penalty := out.Unmet * params.UnmetDemandPenalty
		profit := out.MarketProfit - penalty - periodCost
		cum += profit

		res.Ledger = append(res.Ledger, LedgerRow{
			Index:       t,
			PeriodStart: start,

			Price:  series.Price[t],
			Demand: series.Demand[t],

			Action: model.ActionFromEnergy(a),

			RequestedEnergy: req,
			ActionEnergy:    a,

			SOCStart: soc,
			SOCEnd:   next,

			PrePurchasedUsed: out.PrePurchasedUsed,
			BatterySupply:    out.BatterySupply,
			GridSupply:       out.GridSupply,
			Unmet:            out.Unmet,

			MarketProfit: out.MarketProfit,
			UnmetPenalty: penalty,
			Profit:       profit,
			CumProfit:    cum,
		})
		res.SOC = append(res.SOC, next)

		res.MarketProfit += out.MarketProfit
		res.UnmetPenalty += penalty
		soc = next
	}

	res.PrePurchaseCost = params.DailyPrePurchaseCost()
	res.TotalProfit = res.MarketProfit - res.UnmetPenalty - res.PrePurchaseCost
	res.FinalSOC = soc

	e.logger.Debug("replayed strategy",
		zap.String("strategy", res.Strategy),
		zap.Int("periods", params.Horizon),
		zap.Float64("initial_soc", res.SOC[0]),
		zap.Float64("final_soc", res.FinalSOC),
		zap.Float64("total_profit", res.TotalProfit),
	)
	return res, nil
}

// RunOracle solves the horizon and replays the policy from params.InitialSOC.
func (e *Engine) RunOracle(series model.Series, params model.Params, workers int) (*strategy.OracleStrategy, *Result, error) {
	orc, err := strategy.NewOracleStrategy(series, params, strategy.OracleParams{Workers: workers, Logger: e.logger})
	if err != nil {
		return nil, nil, err
	}
	res, err := e.Run(series, params, orc, params.InitialSOC)
	if err != nil {
		return nil, nil, err
	}
	return orc, res, nil
}
