package analysis

import (
	"time"

	"battery-dispatch/internal/backtest"
	"battery-dispatch/internal/model"
)

// Window is the span of one day during which the battery charged or
// discharged, with the energy-weighted average price.
type Window struct {
	Start        time.Time
	End          time.Time
	Action       model.Action
	Energy       float64
	AveragePrice float64
}

// Summary aggregates a replay.
type Summary struct {
	Strategy string
	Periods  int

	TotalProfit     float64
	MarketProfit    float64
	UnmetPenalty    float64
	PrePurchaseCost float64

	InitialSOC float64
	FinalSOC   float64
	MinSOC     float64
	MaxSOC     float64

	EnergyCharged    float64
	EnergyDischarged float64
	BatterySupply    float64
	GridSupply       float64
	PrePurchasedUsed float64
	Unmet            float64

	Windows []Window
}

// Summarize folds a ledger into totals and per-day charge/discharge windows.
func Summarize(res *backtest.Result, stepHours float64) Summary {
	out := Summary{
		Strategy:        res.Strategy,
		Periods:         len(res.Ledger),
		TotalProfit:     res.TotalProfit,
		MarketProfit:    res.MarketProfit,
		UnmetPenalty:    res.UnmetPenalty,
		PrePurchaseCost: res.PrePurchaseCost,
		FinalSOC:        res.FinalSOC,
	}
	if len(res.SOC) > 0 {
		out.InitialSOC = res.SOC[0]
		out.MinSOC, out.MaxSOC = res.SOC[0], res.SOC[0]
		for _, v := range res.SOC[1:] {
			if v < out.MinSOC {
				out.MinSOC = v
			}
			if v > out.MaxSOC {
				out.MaxSOC = v
			}
		}
	}

	type dayKey struct {
		year  int
		month time.Month
		day   int
	}
	type acc struct {
		window Window
		value  float64
	}
	byDay := map[dayKey]map[model.Action]*acc{}
	var order []*acc
	periodLen := time.Duration(stepHours * float64(time.Hour))

	for _, row := range res.Ledger {
		out.BatterySupply += row.BatterySupply
		out.GridSupply += row.GridSupply
		out.PrePurchasedUsed += row.PrePurchasedUsed
		out.Unmet += row.Unmet

		var energy float64
		switch row.Action {
		case model.ActionCharging:
			energy = -row.ActionEnergy
			out.EnergyCharged += energy
		case model.ActionDischarging:
			energy = row.ActionEnergy
			out.EnergyDischarged += energy
		default:
			continue
		}

		day := dayKey{row.PeriodStart.Year(), row.PeriodStart.Month(), row.PeriodStart.Day()}
		if byDay[day] == nil {
			byDay[day] = map[model.Action]*acc{}
		}
		end := row.PeriodStart.Add(periodLen)
		if w, ok := byDay[day][row.Action]; ok {
			w.window.End = end
			w.window.Energy += energy
			w.value += row.Price * energy
			continue
		}
		w := &acc{
			window: Window{Start: row.PeriodStart, End: end, Action: row.Action, Energy: energy},
			value:  row.Price * energy,
		}
		byDay[day][row.Action] = w
		order = append(order, w)
	}

	out.Windows = make([]Window, 0, len(order))
	for _, w := range order {
		if w.window.Energy > 0 {
			w.window.AveragePrice = w.value / w.window.Energy
		}
		out.Windows = append(out.Windows, w.window)
	}
	return out
}
