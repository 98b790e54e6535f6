package analysis

import (
	"sort"

	"battery-dispatch/internal/backtest"
)

type Ranked struct {
	Rank int
	// Index is the position of the result in the input slice.
	Index int
	Summary
	// GapToBest is how much less this strategy earned than the winner.
	GapToBest float64
}

// RankByProfit summarizes each replay and sorts descending by total profit.
// Equal profits keep their input order.
func RankByProfit(results []*backtest.Result, stepHours float64) []Ranked {
	out := make([]Ranked, 0, len(results))
	for i, res := range results {
		out = append(out, Ranked{Index: i, Summary: Summarize(res, stepHours)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalProfit > out[j].TotalProfit
	})
	for i := range out {
		out[i].Rank = i + 1
		out[i].GapToBest = out[0].TotalProfit - out[i].TotalProfit
	}
	return out
}
