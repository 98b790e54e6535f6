package models

import "time"

// SolveRequest is the body of POST /api/v1/solve.
type SolveRequest struct {
	Config RunConfig `json:"config"`
	// Series is optional; without it a scenario is generated from config.scenario.
	Series  *SeriesInput `json:"series,omitempty"`
	Options SolveOptions `json:"options,omitempty"`
}

// RunConfig mirrors the YAML run configuration. Zero values take defaults.
type RunConfig struct {
	BatteryFile string         `json:"battery_file,omitempty"`
	Battery     BatteryConfig  `json:"battery,omitempty"`
	Market      MarketConfig   `json:"market,omitempty"`
	Solver      SolverConfig   `json:"solver,omitempty"`
	Strategy    StrategyConfig `json:"strategy,omitempty"`
	Scenario    ScenarioConfig `json:"scenario,omitempty"`
}

// BatteryConfig defines battery parameters (kWh).
type BatteryConfig struct {
	Name       string  `json:"name,omitempty"`
	MinSOC     float64 `json:"min_soc_kwh"`
	MaxSOC     float64 `json:"max_soc_kwh"`
	InitialSOC float64 `json:"initial_soc_kwh,omitempty"`
	Efficiency float64 `json:"efficiency"`
	MaxEnergy  float64 `json:"max_energy_kwh"`
}

type MarketConfig struct {
	Horizon            int      `json:"horizon,omitempty"`
	StepHours          float64  `json:"step_hours,omitempty"`
	MaxGridSupply      *float64 `json:"max_grid_supply_kwh,omitempty"`
	PrePurchased       *float64 `json:"pre_purchased_kwh,omitempty"`
	PrePurchasedPrice  *float64 `json:"pre_purchased_price,omitempty"`
	UnmetDemandPenalty *float64 `json:"unmet_demand_penalty,omitempty"`
}

type SolverConfig struct {
	SOCStates int     `json:"soc_states,omitempty"`
	Actions   int     `json:"actions,omitempty"`
	Discount  float64 `json:"discount,omitempty"`
}

// StrategyConfig defines strategy and its parameters
type StrategyConfig struct {
	Name   string                 `json:"name,omitempty"`
	Params map[string]interface{} `json:"params,omitempty"`
}

type ScenarioConfig struct {
	Seed      uint64  `json:"seed,omitempty" form:"seed"`
	PriceMin  float64 `json:"price_min,omitempty" form:"price_min"`
	PriceMax  float64 `json:"price_max,omitempty" form:"price_max"`
	DemandMax int     `json:"demand_max,omitempty" form:"demand_max"`
	Start     string  `json:"start,omitempty" form:"start"` // RFC 3339
}

// SeriesInput is an explicit price/demand series.
type SeriesInput struct {
	Start     time.Time `json:"start,omitempty"`
	StepHours float64   `json:"step_hours,omitempty"`
	Price     []float64 `json:"price" binding:"required"`
	Demand    []float64 `json:"demand" binding:"required"`
}

// SolveOptions contains optional solve parameters
type SolveOptions struct {
	IncludeLedger bool `json:"include_ledger,omitempty"`
	// IncludeTables returns the value function, policy and grids.
	IncludeTables bool `json:"include_tables,omitempty"`
	// InitialSOC overrides the battery's initial SOC for the replay only.
	InitialSOC *float64 `json:"initial_soc_kwh,omitempty"`
}

// CompareRequest runs several strategies against one series.
// Without variations, the oracle is compared against the schedule and idle baselines.
type CompareRequest struct {
	BaseConfig RunConfig    `json:"base_config"`
	Series     *SeriesInput `json:"series,omitempty"`
	Variations []Variation  `json:"variations,omitempty"`
}

// Variation overrides part of the base config.
type Variation struct {
	Name   string    `json:"name" binding:"required"`
	Config RunConfig `json:"config"`
}

// PotentialRequest asks for the trading headroom of a series.
type PotentialRequest struct {
	Series   *SeriesInput   `json:"series,omitempty"`
	Horizon  int            `json:"horizon,omitempty"`
	Scenario ScenarioConfig `json:"scenario,omitempty"`
}

// ScenarioQuery is the query string of GET /api/v1/scenario.
type ScenarioQuery struct {
	ScenarioConfig
	Periods   int     `form:"periods"`
	StepHours float64 `form:"step_hours"`
}
