package model

import (
	"math"
	"time"
)

// Series is the exogenous input of a solve: one price and one demand value per period.
// It is read-only to the solver.
//
// Example JSON:
//
//	{
//	  "start": "2024-06-01T00:00:00+02:00",
//	  "step_hours": 1,
//	  "price": [0.12, -0.3, ...],
//	  "demand": [4, 0, ...]
//	}
type Series struct {
	// Start anchors period 0 on the wall clock. Optional; strategies that
	// need a time of day fall back to midnight UTC.
	Start     time.Time `json:"start,omitempty"`
	StepHours float64   `json:"step_hours,omitempty"`

	// Price in $/kWh; may be negative.
	Price []float64 `json:"price"`
	// Demand in kWh consumed by the household during the period.
	Demand []float64 `json:"demand"`
}

// Len is the number of periods covered by the series.
func (s Series) Len() int {
	return len(s.Price)
}

// Validate checks the series against a horizon of periods.
func (s Series) Validate(horizon int) error {
	if len(s.Price) != horizon {
		return invalidf("price series has %d values, want %d", len(s.Price), horizon)
	}
	if len(s.Demand) != horizon {
		return invalidf("demand series has %d values, want %d", len(s.Demand), horizon)
	}
	for t := range s.Price {
		if math.IsNaN(s.Price[t]) || math.IsInf(s.Price[t], 0) {
			return invalidf("price[%d] must be finite", t)
		}
		if math.IsNaN(s.Demand[t]) || math.IsInf(s.Demand[t], 0) || s.Demand[t] < 0 {
			return invalidf("demand[%d] must be finite and >= 0", t)
		}
	}
	return nil
}

// CheckStep rejects a series whose own step length disagrees with the step the
// run uses. A series without step_hours fits any step.
func (s Series) CheckStep(stepHours float64) error {
	if s.StepHours != 0 && s.StepHours != stepHours {
		return invalidf("series step_hours %g does not match step_hours %g", s.StepHours, stepHours)
	}
	return nil
}

// PeriodStart returns the wall-clock start of period t.
func (s Series) PeriodStart(t int, stepHours float64) time.Time {
	start := s.Start
	if start.IsZero() {
		start = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return start.Add(time.Duration(float64(t) * stepHours * float64(time.Hour)))
}
