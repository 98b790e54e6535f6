package models

import "time"

// SolveResponse represents the response from a solve
type SolveResponse struct {
	ID      string  `json:"id"`
	Status  string  `json:"status"`
	Reused  bool    `json:"reused"`
	Summary Summary `json:"summary"`

	InfeasibleStates int         `json:"infeasible_states"`
	Ledger           []LedgerRow `json:"ledger,omitempty"`
	Tables           *Tables     `json:"tables,omitempty"`
}

// Summary contains aggregated replay results
type Summary struct {
	Strategy string `json:"strategy"`
	Periods  int    `json:"periods"`

	TotalProfit     float64 `json:"total_profit"`
	MarketProfit    float64 `json:"market_profit"`
	UnmetPenalty    float64 `json:"unmet_penalty"`
	PrePurchaseCost float64 `json:"pre_purchase_cost"`

	InitialSOC float64 `json:"initial_soc_kwh"`
	FinalSOC   float64 `json:"final_soc_kwh"`
	MinSOC     float64 `json:"min_soc_kwh"`
	MaxSOC     float64 `json:"max_soc_kwh"`

	EnergyCharged    float64 `json:"energy_charged_kwh"`
	EnergyDischarged float64 `json:"energy_discharged_kwh"`
	BatterySupply    float64 `json:"battery_supply_kwh"`
	GridSupply       float64 `json:"grid_supply_kwh"`
	PrePurchasedUsed float64 `json:"pre_purchased_used_kwh"`
	Unmet            float64 `json:"unmet_kwh"`

	Windows []Window `json:"windows,omitempty"` // Per-day charge/discharge windows
}

// Window is a per-day charge or discharge span
type Window struct {
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Action       string    `json:"action"`
	EnergyKWh    float64   `json:"energy_kwh"`
	AveragePrice float64   `json:"average_price"` // Energy-weighted
}

// LedgerRow represents one period in the replay ledger
type LedgerRow struct {
	Index       int       `json:"index"`
	PeriodStart time.Time `json:"period_start"`
	Price       float64   `json:"price"`
	Demand      float64   `json:"demand_kwh"`
	Action      string    `json:"action"` // "CHARGING", "DISCHARGING", "IDLE"

	RequestedEnergy float64 `json:"requested_energy_kwh"`
	ActionEnergy    float64 `json:"action_energy_kwh"`
	SOCStart        float64 `json:"soc_start_kwh"`
	SOCEnd          float64 `json:"soc_end_kwh"`

	PrePurchasedUsed float64 `json:"pre_purchased_used_kwh"`
	BatterySupply    float64 `json:"battery_supply_kwh"`
	GridSupply       float64 `json:"grid_supply_kwh"`
	Unmet            float64 `json:"unmet_kwh"`

	MarketProfit float64 `json:"market_profit"`
	UnmetPenalty float64 `json:"unmet_penalty"`
	Profit       float64 `json:"profit"`
	CumProfit    float64 `json:"cum_profit"`
}

// Tables holds the solved value function and policy.
// Infeasible cells carry a nil value.
type Tables struct {
	SOCGrid    []float64    `json:"soc_grid"`
	ActionGrid []float64    `json:"action_grid"`
	Value      [][]*float64 `json:"value"`
	Policy     [][]int      `json:"policy"`
}

// LedgerResponse is served by GET /api/v1/runs/:id/ledger
type LedgerResponse struct {
	ID     string      `json:"id"`
	Ledger []LedgerRow `json:"ledger"`
}

// CompareResponse represents the response from a comparison
type CompareResponse struct {
	Comparison []ComparisonResult `json:"comparison"`
	Skipped    []SkippedVariation `json:"skipped,omitempty"`
}

// ComparisonResult contains results for one variation
type ComparisonResult struct {
	Rank      int     `json:"rank"`
	Name      string  `json:"name"`
	GapToBest float64 `json:"gap_to_best"`
	Summary   Summary `json:"summary"`
}

// SkippedVariation is a variation whose config or replay failed.
type SkippedVariation struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// PotentialResponse describes the trading headroom of a series
type PotentialResponse struct {
	Price                Stats   `json:"price"`
	Demand               Stats   `json:"demand"`
	SpreadP95P05         float64 `json:"spread_p95_p05"`
	NegativePricePeriods int     `json:"negative_price_periods"`
	TotalDemand          float64 `json:"total_demand_kwh"`
}

type Stats struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	P05    float64 `json:"p05"`
	P95    float64 `json:"p95"`
}

// BatteryInfo represents information about a battery preset
type BatteryInfo struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	File  string       `json:"file"`
	Specs BatterySpecs `json:"specs"`
}

// BatterySpecs contains battery specifications
type BatterySpecs struct {
	MinSOC     float64 `json:"min_soc_kwh"`
	MaxSOC     float64 `json:"max_soc_kwh"`
	Efficiency float64 `json:"efficiency"`
	MaxEnergy  float64 `json:"max_energy_kwh"`
}

// StrategyInfo represents information about a strategy
type StrategyInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes a strategy parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int", "string"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
