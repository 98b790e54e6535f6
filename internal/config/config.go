package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"battery-dispatch/internal/logging"
	"battery-dispatch/internal/model"
	"battery-dispatch/internal/scenario"
	"battery-dispatch/internal/strategy"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk run configuration (YAML).
//
// Zero values mean "use the default", the same convention the battery presets
// rely on. Market quantities where zero is a real input (grid cap,
// pre-purchase, penalty) are pointers instead and default only when absent.
// Defaults are the household setup in scenario.DefaultParams.
type Config struct {
	// Optional: load battery parameters from a separate YAML (e.g. examples/batteries/*.yaml).
	// Fields set under battery override the file.
	BatteryFile string         `yaml:"battery_file"`
	Battery     BatteryConfig  `yaml:"battery"`
	Market      MarketConfig   `yaml:"market"`
	Solver      SolverConfig   `yaml:"solver"`
	Strategy    StrategyConfig `yaml:"strategy"`
	Scenario    ScenarioConfig `yaml:"scenario"`
	Logging     logging.Config `yaml:"logging"`
}

// BatteryConfig holds the physical battery. Energies in kWh.
type BatteryConfig struct {
	Name       string  `yaml:"name"`
	MinSOC     float64 `yaml:"min_soc_kwh"`
	MaxSOC     float64 `yaml:"max_soc_kwh"`
	InitialSOC float64 `yaml:"initial_soc_kwh"`
	Efficiency float64 `yaml:"efficiency"`
	// MaxEnergy bounds the energy moved in or out during one period.
	MaxEnergy float64 `yaml:"max_energy_kwh"`
}

type MarketConfig struct {
	Horizon            int      `yaml:"horizon"`
	StepHours          float64  `yaml:"step_hours"`
	MaxGridSupply      *float64 `yaml:"max_grid_supply_kwh"`
	PrePurchased       *float64 `yaml:"pre_purchased_kwh"`
	PrePurchasedPrice  *float64 `yaml:"pre_purchased_price"`
	UnmetDemandPenalty *float64 `yaml:"unmet_demand_penalty"`
	// SeriesFile is a JSON or CSV price/demand series. Empty means generate one.
	SeriesFile string `yaml:"series_file"`
}

type SolverConfig struct {
	SOCStates int     `yaml:"soc_states"`
	Actions   int     `yaml:"actions"`
	Discount  float64 `yaml:"discount"`
	Workers   int     `yaml:"workers"`
}

type StrategyConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:"params"`
}

type ScenarioConfig struct {
	Seed      uint64  `yaml:"seed"`
	PriceMin  float64 `yaml:"price_min"`
	PriceMax  float64 `yaml:"price_max"`
	DemandMax int     `yaml:"demand_max"`
	// Start is an RFC 3339 timestamp for period 0.
	Start string `yaml:"start"`
}

// Default is the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Resolve(); err != nil {
		return nil, err
	}
	return c, nil
}

// Resolve fills defaults and validates. Used for configs that arrive over the
// API instead of from a file.
func (c *Config) Resolve() error {
	if c == nil {
		return errors.New("config is nil")
	}
	c.applyDefaults()
	return c.Validate()
}

// LoadUnchecked loads and merges config, but neither defaults nor validates it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if c.BatteryFile != "" {
		batteryPath := c.BatteryFile
		if !filepath.IsAbs(batteryPath) {
			// Relative to the config file first, then to the working directory.
			cand := filepath.Join(filepath.Dir(path), batteryPath)
			if _, err := os.Stat(cand); err == nil {
				batteryPath = cand
			}
		}
		loaded, err := LoadBatteryFile(batteryPath)
		if err != nil {
			return nil, err
		}
		c.Battery = MergeBattery(loaded, c.Battery)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	p := scenario.DefaultParams()
	s := scenario.DefaultConfig()

	if c.Battery.MaxSOC == 0 {
		c.Battery.MaxSOC = p.SOCMax
	}
	// initial_soc defaults to min_soc: a run starts from an empty battery.
	if c.Battery.InitialSOC == 0 {
		c.Battery.InitialSOC = c.Battery.MinSOC
	}
	if c.Battery.Efficiency == 0 {
		c.Battery.Efficiency = p.Efficiency
	}
	if c.Battery.MaxEnergy == 0 {
		c.Battery.MaxEnergy = p.MaxEnergy
	}

	if c.Market.Horizon == 0 {
		c.Market.Horizon = p.Horizon
	}
	if c.Market.StepHours == 0 {
		c.Market.StepHours = p.StepHours
	}
	if c.Market.MaxGridSupply == nil {
		c.Market.MaxGridSupply = Float(p.MaxGridSupply)
	}
	if c.Market.PrePurchased == nil {
		c.Market.PrePurchased = Float(p.PrePurchased)
	}
	if c.Market.PrePurchasedPrice == nil {
		c.Market.PrePurchasedPrice = Float(p.PrePurchasedPrice)
	}
	if c.Market.UnmetDemandPenalty == nil {
		c.Market.UnmetDemandPenalty = Float(p.UnmetDemandPenalty)
	}

	if c.Solver.SOCStates == 0 {
		c.Solver.SOCStates = p.SOCStates
	}
	if c.Solver.Actions == 0 {
		c.Solver.Actions = p.Actions
	}
	if c.Solver.Discount == 0 {
		c.Solver.Discount = p.Discount
	}

	if c.Strategy.Name == "" {
		c.Strategy.Name = strategy.NameOracle
	}

	if c.Scenario.Seed == 0 {
		c.Scenario.Seed = s.Seed
	}
	if c.Scenario.PriceMin == 0 && c.Scenario.PriceMax == 0 {
		c.Scenario.PriceMin = s.PriceMin
		c.Scenario.PriceMax = s.PriceMax
	}
	if c.Scenario.DemandMax == 0 {
		c.Scenario.DemandMax = s.DemandMax
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if !strategy.Known(c.Strategy.Name) {
		return fmt.Errorf("%w: unknown strategy %q", model.ErrInvalidConfiguration, c.Strategy.Name)
	}
	if _, err := c.ScenarioConfig(); err != nil {
		return err
	}
	if err := c.ToParams().Validate(); err != nil {
		return fmt.Errorf("battery config invalid: %w", err)
	}
	return nil
}

// ToParams flattens the battery, market and solver sections.
func (c *Config) ToParams() model.Params {
	return model.Params{
		Horizon:            c.Market.Horizon,
		SOCMin:             c.Battery.MinSOC,
		SOCMax:             c.Battery.MaxSOC,
		InitialSOC:         c.Battery.InitialSOC,
		Efficiency:         c.Battery.Efficiency,
		StepHours:          c.Market.StepHours,
		MaxEnergy:          c.Battery.MaxEnergy,
		MaxGridSupply:      deref(c.Market.MaxGridSupply),
		PrePurchased:       deref(c.Market.PrePurchased),
		PrePurchasedPrice:  deref(c.Market.PrePurchasedPrice),
		UnmetDemandPenalty: deref(c.Market.UnmetDemandPenalty),
		Discount:           c.Solver.Discount,
		SOCStates:          c.Solver.SOCStates,
		Actions:            c.Solver.Actions,
	}
}

// Float returns a pointer to v, for setting optional market fields.
func Float(v float64) *float64 { return &v }

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// ScenarioConfig converts the scenario section for the generator,
// sized to the market horizon.
func (c *Config) ScenarioConfig() (scenario.Config, error) {
	out := scenario.Config{
		Seed:      c.Scenario.Seed,
		Periods:   c.Market.Horizon,
		StepHours: c.Market.StepHours,
		PriceMin:  c.Scenario.PriceMin,
		PriceMax:  c.Scenario.PriceMax,
		DemandMax: c.Scenario.DemandMax,
	}
	if c.Scenario.Start != "" {
		start, err := time.Parse(time.RFC3339, c.Scenario.Start)
		if err != nil {
			return scenario.Config{}, fmt.Errorf("%w: scenario.start: %v", model.ErrInvalidConfiguration, err)
		}
		out.Start = start
	}
	return out, nil
}

type batteryFileWrapper struct {
	Battery BatteryConfig `yaml:"battery"`
}

// LoadBatteryFile reads a battery preset: a YAML document with a top-level battery key.
func LoadBatteryFile(path string) (BatteryConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return BatteryConfig{}, err
	}
	var w batteryFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return BatteryConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return w.Battery, nil
}

// MergeBattery overlays non-zero fields from override onto base.
func MergeBattery(base, override BatteryConfig) BatteryConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.MinSOC != 0 {
		out.MinSOC = override.MinSOC
	}
	if override.MaxSOC != 0 {
		out.MaxSOC = override.MaxSOC
	}
	if override.InitialSOC != 0 {
		out.InitialSOC = override.InitialSOC
	}
	if override.Efficiency != 0 {
		out.Efficiency = override.Efficiency
	}
	if override.MaxEnergy != 0 {
		out.MaxEnergy = override.MaxEnergy
	}
	return out
}
