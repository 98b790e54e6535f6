package strategy

import (
	"fmt"
	"sort"
	"strings"

	"battery-dispatch/internal/model"
)

const (
	NameOracle   = "oracle"
	NameSchedule = "schedule"
	NameIdle     = "idle"
)

// Known reports whether name is a buildable strategy.
func Known(name string) bool {
	_, ok := catalog[name]
	return ok
}

// Info describes a strategy and its parameters for listings.
type Info struct {
	Name        string
	Description string
	Parameters  []ParameterInfo
}

type ParameterInfo struct {
	Name        string
	Type        string // "float", "int", "string"
	Description string
	Default     any
}

var catalog = map[string]Info{
	NameOracle: {
		Name:        NameOracle,
		Description: "Perfect foresight optimizer. Solves the whole horizon by backward induction over a discretized SOC grid.",
	},
	NameSchedule: {
		Name:        NameSchedule,
		Description: "Time-based schedule. Charges and discharges at fixed times each day.",
		Parameters: []ParameterInfo{
			{Name: "charge_start", Type: "string", Description: "Start time for charging (HH:MM)", Default: "00:00"},
			{Name: "charge_end", Type: "string", Description: "End time for charging (HH:MM)", Default: "06:00"},
			{Name: "discharge_start", Type: "string", Description: "Start time for discharging (HH:MM)", Default: "17:00"},
			{Name: "discharge_end", Type: "string", Description: "End time for discharging (HH:MM)", Default: "21:00"},
			{Name: "charge_energy_kwh", Type: "float", Description: "Energy charged per period", Default: "battery max_energy_kwh"},
			{Name: "discharge_energy_kwh", Type: "float", Description: "Energy discharged per period", Default: "battery max_energy_kwh"},
		},
	},
	NameIdle: {
		Name:        NameIdle,
		Description: "Never trades. Baseline that only uses pre-purchased and grid supply.",
	},
}

// Catalog lists every strategy, sorted by name.
func Catalog() []Info {
	out := make([]Info, 0, len(catalog))
	for _, info := range catalog {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// New builds a strategy by name. opts are the free-form params from a config
// file or request; the oracle solves series immediately.
func New(name string, opts map[string]any, series model.Series, params model.Params, oracle OracleParams) (Strategy, error) {
	switch name {
	case NameOracle:
		return NewOracleStrategy(series, params, oracle)
	case NameSchedule:
		perPeriod := params.MaxEnergy
		return NewScheduleStrategy(ScheduleParams{
			ChargeStart:     optStr(opts, "charge_start", "00:00"),
			ChargeEnd:       optStr(opts, "charge_end", "06:00"),
			DischargeStart:  optStr(opts, "discharge_start", "17:00"),
			DischargeEnd:    optStr(opts, "discharge_end", "21:00"),
			ChargeEnergy:    optNum(opts, "charge_energy_kwh", perPeriod),
			DischargeEnergy: optNum(opts, "discharge_energy_kwh", perPeriod),
		})
	case NameIdle:
		return IdleStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported strategy %q", model.ErrInvalidConfiguration, name)
	}
}

func optNum(m map[string]any, key string, def float64) float64 {
	if v, ok := m[key]; ok && v != nil {
		switch x := v.(type) {
		case float64:
			return x
		case int:
			return float64(x)
		}
	}
	return def
}

func optStr(m map[string]any, key string, def string) string {
	if v, ok := m[key]; ok && v != nil {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return def
}
