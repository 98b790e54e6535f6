package analysis

import (
	"sort"

	"battery-dispatch/internal/model"

	"gonum.org/v1/gonum/stat"
)

// Stats summarizes one sample of values.
type Stats struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	P05    float64
	P95    float64
}

// Potential is the trading headroom of a series. It does not depend on the
// battery: a wide price spread or frequent negative prices mean the battery
// has something to arbitrage.
type Potential struct {
	Price  Stats
	Demand Stats

	// SpreadP95P05 is the robust price range.
	SpreadP95P05 float64
	// NegativePricePeriods counts periods in which charging earns money.
	NegativePricePeriods int
	TotalDemand          float64
}

func ComputePotential(s model.Series) Potential {
	p := Potential{
		Price:  describe(s.Price),
		Demand: describe(s.Demand),
	}
	p.SpreadP95P05 = p.Price.P95 - p.Price.P05
	for _, v := range s.Price {
		if v < 0 {
			p.NegativePricePeriods++
		}
	}
	p.TotalDemand = floatsSum(s.Demand)
	return p
}

func describe(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	out := Stats{
		Count: len(sorted),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Mean:  stat.Mean(sorted, nil),
		P05:   stat.Quantile(0.05, stat.LinInterp, sorted, nil),
		P95:   stat.Quantile(0.95, stat.LinInterp, sorted, nil),
	}
	if len(sorted) > 1 {
		out.StdDev = stat.StdDev(sorted, nil)
	}
	return out
}

func floatsSum(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum
}
