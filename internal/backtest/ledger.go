package backtest

import (
	"time"

	"battery-dispatch/internal/model"
)

// LedgerRow is one row of per-period output.
// This is the primary artifact for "what happened" in a replay.
type LedgerRow struct {
	Index       int
	PeriodStart time.Time

	Price  float64
	Demand float64

	Action model.Action

	RequestedEnergy float64
	ActionEnergy    float64

	SOCStart float64
	SOCEnd   float64

	PrePurchasedUsed float64
	BatterySupply    float64
	GridSupply       float64
	Unmet            float64

	MarketProfit float64
	UnmetPenalty float64
	// Profit is MarketProfit - UnmetPenalty - the period's pre-purchase cost.
	Profit    float64
	CumProfit float64
}

// Result is a complete trajectory; Engine.Run never returns a partial one.
type Result struct {
	Strategy string
	Ledger   []LedgerRow
	// SOC has one more entry than Ledger: the clamped initial SOC first.
	SOC []float64

	MarketProfit    float64
	UnmetPenalty    float64
	PrePurchaseCost float64
	TotalProfit     float64
	FinalSOC        float64
}
