package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfiguration is wrapped by every validation failure.
// Callers should test with errors.Is.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Params defines the battery, market and discretization parameters of one solve.
// Units:
// - SOC values and energies: kWh
// - StepHours: hours per period
// - Prices and penalties: $/kWh
// - Efficiency, Discount: 0..1
type Params struct {
	// Horizon is the number of periods T.
	Horizon int

	SOCMin     float64
	SOCMax     float64
	InitialSOC float64

	Efficiency float64
	StepHours  float64

	// MaxEnergy bounds |action * StepHours| for a single period.
	MaxEnergy float64
	// MaxGridSupply caps the energy the grid can deliver to the household per period.
	MaxGridSupply float64

	// PrePurchased is the fixed allotment bought in advance for every period.
	PrePurchased      float64
	PrePurchasedPrice float64

	UnmetDemandPenalty float64
	Discount           float64

	SOCStates int
	Actions   int
}

// Validate checks every bound the solver relies on.
func (p Params) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"soc_min", p.SOCMin},
		{"soc_max", p.SOCMax},
		{"initial_soc", p.InitialSOC},
		{"efficiency", p.Efficiency},
		{"step_hours", p.StepHours},
		{"max_energy", p.MaxEnergy},
		{"max_grid_supply", p.MaxGridSupply},
		{"pre_purchased", p.PrePurchased},
		{"pre_purchased_price", p.PrePurchasedPrice},
		{"unmet_demand_penalty", p.UnmetDemandPenalty},
		{"discount", p.Discount},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return invalidf("%s must be finite", f.name)
		}
	}
	if p.Horizon < 1 {
		return invalidf("horizon must be >= 1")
	}
	if p.SOCMin >= p.SOCMax {
		return invalidf("soc_min must be < soc_max")
	}
	if p.InitialSOC < p.SOCMin || p.InitialSOC > p.SOCMax {
		return invalidf("initial_soc must be within [soc_min, soc_max]")
	}
	if p.Efficiency <= 0 || p.Efficiency > 1 {
		return invalidf("efficiency must be in (0, 1]")
	}
	if p.StepHours <= 0 {
		return invalidf("step_hours must be > 0")
	}
	if p.MaxEnergy <= 0 {
		return invalidf("max_energy must be > 0")
	}
	if p.MaxGridSupply < 0 {
		return invalidf("max_grid_supply must be >= 0")
	}
	if p.PrePurchased < 0 {
		return invalidf("pre_purchased must be >= 0")
	}
	if p.UnmetDemandPenalty < 0 {
		return invalidf("unmet_demand_penalty must be >= 0")
	}
	if p.Discount <= 0 || p.Discount > 1 {
		return invalidf("discount must be in (0, 1]")
	}
	if p.SOCStates < 2 {
		return invalidf("soc_states must be >= 2")
	}
	if p.Actions < 2 {
		return invalidf("actions must be >= 2")
	}
	return nil
}

// ClampSOC bounds soc to [SOCMin, SOCMax].
func (p Params) ClampSOC(soc float64) float64 {
	return math.Max(p.SOCMin, math.Min(soc, p.SOCMax))
}

// DailyPrePurchaseCost is the sunk cost of the pre-purchased allotment over the horizon.
func (p Params) DailyPrePurchaseCost() float64 {
	return float64(p.Horizon) * p.PrePurchased * p.PrePurchasedPrice
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
