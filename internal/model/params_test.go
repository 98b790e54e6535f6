package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParams() Params {
	return Params{
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

func TestParamsValidate(t *testing.T) {
	require.NoError(t, validParams().Validate())

	tests := []struct {
		name   string
		mutate func(p *Params)
	}{
		{"zero horizon", func(p *Params) { p.Horizon = 0 }},
		{"inverted soc bounds", func(p *Params) { p.SOCMin, p.SOCMax = 10, 10 }},
		{"initial soc below min", func(p *Params) { p.InitialSOC = -1 }},
		{"initial soc above max", func(p *Params) { p.InitialSOC = 101 }},
		{"zero efficiency", func(p *Params) { p.Efficiency = 0 }},
		{"efficiency above one", func(p *Params) { p.Efficiency = 1.01 }},
		{"zero step", func(p *Params) { p.StepHours = 0 }},
		{"zero max energy", func(p *Params) { p.MaxEnergy = 0 }},
		{"negative grid limit", func(p *Params) { p.MaxGridSupply = -1 }},
		{"negative pre-purchase", func(p *Params) { p.PrePurchased = -1 }},
		{"negative penalty", func(p *Params) { p.UnmetDemandPenalty = -1 }},
		{"zero discount", func(p *Params) { p.Discount = 0 }},
		{"discount above one", func(p *Params) { p.Discount = 1.5 }},
		{"one soc state", func(p *Params) { p.SOCStates = 1 }},
		{"one action", func(p *Params) { p.Actions = 1 }},
		{"nan price", func(p *Params) { p.PrePurchasedPrice = math.NaN() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}

func TestParamsValidateReportsFirstNonFiniteField(t *testing.T) {
	p := validParams()
	p.SOCMin = math.NaN()
	p.Efficiency = math.Inf(1)
	p.Discount = math.NaN()

	for i := 0; i < 20; i++ {
		err := p.Validate()
		require.ErrorIs(t, err, ErrInvalidConfiguration)
		assert.Contains(t, err.Error(), "soc_min must be finite")
	}
}

func TestParamsHelpers(t *testing.T) {
	p := validParams()
	assert.Equal(t, 0.0, p.ClampSOC(-5))
	assert.Equal(t, 100.0, p.ClampSOC(120))
	assert.Equal(t, 42.5, p.ClampSOC(42.5))
	assert.InDelta(t, 36.0, p.DailyPrePurchaseCost(), 1e-9)
}

func TestSeriesValidate(t *testing.T) {
	s := Series{Price: []float64{1, -1}, Demand: []float64{0, 3}}
	require.NoError(t, s.Validate(2))
	assert.ErrorIs(t, s.Validate(3), ErrInvalidConfiguration)

	s.Demand[1] = -1
	assert.ErrorIs(t, s.Validate(2), ErrInvalidConfiguration)

	s.Demand = []float64{0}
	assert.ErrorIs(t, s.Validate(2), ErrInvalidConfiguration)
}

func TestSeriesCheckStep(t *testing.T) {
	s := Series{Price: []float64{1}, Demand: []float64{0}}
	assert.NoError(t, s.CheckStep(0.25), "a series without a step fits any step")

	s.StepHours = 0.5
	assert.NoError(t, s.CheckStep(0.5))
	assert.ErrorIs(t, s.CheckStep(1), ErrInvalidConfiguration)
}

func TestActionFromEnergy(t *testing.T) {
	assert.Equal(t, ActionCharging, ActionFromEnergy(-1))
	assert.Equal(t, ActionIdle, ActionFromEnergy(0))
	assert.Equal(t, ActionDischarging, ActionFromEnergy(2))
}
