package dp

import (
	"math"

	"battery-dispatch/internal/model"
)

// Outcome is what happens in one period for a given SOC and action.
type Outcome struct {
	Feasible bool
	NextSOC  float64
	// Reward is -Inf for infeasible actions.
	Reward float64

	PrePurchasedUsed float64
	BatterySupply    float64
	GridSupply       float64
	Unmet            float64
	MarketProfit     float64
}

// RewardModel evaluates the immediate reward of an action. It is a pure
// function of its params and series.
type RewardModel struct {
	params model.Params
	series model.Series
}

// NewRewardModel binds params and the exogenous series. Both are assumed validated.
func NewRewardModel(p model.Params, s model.Series) *RewardModel {
	return &RewardModel{params: p, series: s}
}

// Params returns the parameters the model was built with.
func (m *RewardModel) Params() model.Params { return m.params }

// Feasible reports whether action a keeps the battery within bounds from soc.
func (m *RewardModel) Feasible(soc, a float64) bool {
	p := m.params
	next := soc + p.Efficiency*a*p.StepHours
	if next < p.SOCMin || next > p.SOCMax {
		return false
	}
	return math.Abs(a*p.StepHours) <= p.MaxEnergy
}

// Evaluate computes the outcome of action a at period t from soc.
// Infeasible actions carry Reward = -Inf and must not be selected when a
// feasible alternative exists.
func (m *RewardModel) Evaluate(t int, soc, a float64) Outcome {
	out := m.Realize(t, soc, a)
	if !m.Feasible(soc, a) {
		out.Feasible = false
		out.Reward = math.Inf(-1)
		return out
	}
	out.Feasible = true
	return out
}

// Realize computes the physical and financial outcome of action a at period t
// without rejecting infeasible actions. NextSOC is not clamped.
func (m *RewardModel) Realize(t int, soc, a float64) Outcome {
	p := m.params
	demand := m.series.Demand[t]
	price := m.series.Price[t]

	out := Outcome{NextSOC: soc + p.Efficiency*a*p.StepHours}

	// Pre-purchased energy serves demand first.
	out.PrePurchasedUsed = math.Min(p.PrePurchased, demand)
	remaining := demand - out.PrePurchasedUsed

	switch {
	case a > 0:
		out.BatterySupply = math.Min(soc, remaining)
		remaining -= out.BatterySupply
		surplus := math.Max(0, a-out.BatterySupply)
		out.MarketProfit = surplus * price
	case a < 0:
		// Charging is booked as -price per unit: a cost when price > 0,
		// income when the imbalance price is negative.
		out.MarketProfit = math.Abs(a) * -price
	}

	out.GridSupply = math.Min(remaining, p.MaxGridSupply)
	out.Unmet = math.Max(0, remaining-out.GridSupply)

	out.Reward = out.MarketProfit - p.PrePurchased*p.PrePurchasedPrice - out.Unmet*p.UnmetDemandPenalty
	return out
}
