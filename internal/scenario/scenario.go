// Package scenario generates synthetic day-ahead inputs: a uniformly random
// imbalance price and an integer household demand per period. Seeds make every
// scenario reproducible.
package scenario

import (
	"fmt"
	"math/rand/v2"
	"time"

	"battery-dispatch/internal/model"

	"gonum.org/v1/gonum/stat/distuv"
)

// Config describes the random draws.
type Config struct {
	Seed    uint64
	Periods int

	StepHours float64
	Start     time.Time

	// Price ~ Uniform[PriceMin, PriceMax) in $/kWh.
	PriceMin float64
	PriceMax float64
	// Demand ~ uniform integer in [0, DemandMax) kWh.
	DemandMax int
}

// DefaultConfig is one hourly day with prices in [-0.5, 1) and demand in 0..14 kWh.
func DefaultConfig() Config {
	return Config{
		Seed:      10,
		Periods:   24,
		StepHours: 1,
		PriceMin:  -0.5,
		PriceMax:  1,
		DemandMax: 15,
	}
}

// DefaultParams is a 100 kWh household battery with a 15 kWh per-period limit,
// 5 kWh pre-purchased every period at 0.3 $/kWh.
func DefaultParams() model.Params {
	return model.Params{
		Horizon:            24,
		SOCMin:             0,
		SOCMax:             100,
		InitialSOC:         0,
		Efficiency:         0.9,
		StepHours:          1,
		MaxEnergy:          15,
		MaxGridSupply:      15,
		PrePurchased:       5,
		PrePurchasedPrice:  0.3,
		UnmetDemandPenalty: 10000,
		Discount:           0.9,
		SOCStates:          101,
		Actions:            31,
	}
}

// Generate draws a series. The same Config always yields the same series.
func Generate(cfg Config) (model.Series, error) {
	if cfg.Periods < 1 {
		return model.Series{}, fmt.Errorf("%w: periods must be >= 1", model.ErrInvalidConfiguration)
	}
	if !(cfg.PriceMin < cfg.PriceMax) {
		return model.Series{}, fmt.Errorf("%w: price_min must be < price_max", model.ErrInvalidConfiguration)
	}
	if cfg.DemandMax < 1 {
		return model.Series{}, fmt.Errorf("%w: demand_max must be >= 1", model.ErrInvalidConfiguration)
	}
	step := cfg.StepHours
	if step <= 0 {
		step = 1
	}

	price := distuv.Uniform{
		Min: cfg.PriceMin,
		Max: cfg.PriceMax,
		Src: rand.NewPCG(cfg.Seed, 0x9e3779b97f4a7c15),
	}
	demand := rand.New(rand.NewPCG(cfg.Seed, 0xbf58476d1ce4e5b9))

	s := model.Series{
		Start:     cfg.Start,
		StepHours: step,
		Price:     make([]float64, cfg.Periods),
		Demand:    make([]float64, cfg.Periods),
	}
	for t := 0; t < cfg.Periods; t++ {
		s.Price[t] = price.Rand()
		s.Demand[t] = float64(demand.IntN(cfg.DemandMax))
	}
	return s, nil
}
