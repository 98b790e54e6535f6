package strategy

import (
	"testing"
	"time"

	"battery-dispatch/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hh, mm int) time.Time {
	return time.Date(2024, 6, 1, hh, mm, 0, 0, time.UTC)
}

func TestScheduleStrategy(t *testing.T) {
	s, err := NewScheduleStrategy(ScheduleParams{
		ChargeStart:     "22:00",
		ChargeEnd:       "06:00",
		DischargeStart:  "17:00",
		DischargeEnd:    "20:00",
		ChargeEnergy:    5,
		DischargeEnergy: -4,
	})
	require.NoError(t, err)
	assert.Equal(t, "schedule", s.Name())

	tests := []struct {
		when     time.Time
		expected float64
	}{
		{at(23, 0), -5},
		{at(2, 30), -5},
		{at(6, 0), 0},
		{at(12, 0), 0},
		{at(17, 0), 4},
		{at(19, 59), 4},
		{at(20, 0), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, s.Decide(Context{PeriodStart: tt.when}), tt.when.Format("15:04"))
	}
}

func TestScheduleStrategyRejectsBadTimes(t *testing.T) {
	_, err := NewScheduleStrategy(ScheduleParams{ChargeStart: "25:00", DischargeStart: "17:00"})
	assert.Error(t, err)
	_, err = NewScheduleStrategy(ScheduleParams{ChargeStart: "10:00", DischargeStart: "noon"})
	assert.Error(t, err)
}

func TestIdleStrategy(t *testing.T) {
	var s IdleStrategy
	assert.Equal(t, "idle", s.Name())
	assert.Equal(t, 0.0, s.Decide(Context{Index: 3, SOC: 50}))
}

func TestOracleStrategyReadsPolicy(t *testing.T) {
	p := model.Params{
		Horizon:            2,
		SOCMin:             0,
		SOCMax:             10,
		Efficiency:         1,
		StepHours:          1,
		MaxEnergy:          5,
		MaxGridSupply:      5,
		UnmetDemandPenalty: 1000,
		Discount:           1,
		SOCStates:          3,
		Actions:            3,
	}
	series := model.Series{Price: []float64{1, -1}, Demand: []float64{0, 0}}

	o, err := NewOracleStrategy(series, p, OracleParams{})
	require.NoError(t, err)
	assert.Equal(t, "oracle", o.Name())

	// Policy row 0 is {sell, sell, idle} over states {0, 5, 10}.
	assert.Equal(t, 5.0, o.Decide(Context{Index: 0, SOC: 0}))
	assert.Equal(t, 5.0, o.Decide(Context{Index: 0, SOC: 7.5}), "7.5 snaps down to state 5")
	assert.Equal(t, 0.0, o.Decide(Context{Index: 0, SOC: 9}))
	assert.Equal(t, 0.0, o.Decide(Context{Index: 2, SOC: 0}), "outside the horizon")

	_, err = NewOracleStrategy(model.Series{}, p, OracleParams{})
	assert.Error(t, err)

	p.Actions = 1
	_, err = NewOracleStrategy(series, p, OracleParams{})
	assert.ErrorIs(t, err, model.ErrInvalidConfiguration)
}
