package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"battery-dispatch/internal/analysis"
	"battery-dispatch/internal/api/models"
	"battery-dispatch/internal/backtest"
	"battery-dispatch/internal/config"
	"battery-dispatch/internal/dp"
	"battery-dispatch/internal/model"
	"battery-dispatch/internal/scenario"

	"github.com/gin-gonic/gin"
)

func abort(c *gin.Context, status int, code string, err error) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: err.Error(),
		},
	})
}

// statusFor maps configuration mistakes to 400 and everything else to 500.
func statusFor(err error) (int, string) {
	if errors.Is(err, model.ErrInvalidConfiguration) {
		return http.StatusBadRequest, "INVALID_CONFIG"
	}
	return http.StatusInternalServerError, "SOLVE_ERROR"
}

// buildConfig turns a request config into a resolved run config. periods and
// stepHours come from an explicit series and fill an unset horizon.
func buildConfig(rc models.RunConfig, batteryDir string, periods int, stepHours float64) (*config.Config, error) {
	cfg := &config.Config{
		Battery: config.BatteryConfig{
			Name:       rc.Battery.Name,
			MinSOC:     rc.Battery.MinSOC,
			MaxSOC:     rc.Battery.MaxSOC,
			InitialSOC: rc.Battery.InitialSOC,
			Efficiency: rc.Battery.Efficiency,
			MaxEnergy:  rc.Battery.MaxEnergy,
		},
		Market: config.MarketConfig{
			Horizon:            rc.Market.Horizon,
			StepHours:          rc.Market.StepHours,
			MaxGridSupply:      rc.Market.MaxGridSupply,
			PrePurchased:       rc.Market.PrePurchased,
			PrePurchasedPrice:  rc.Market.PrePurchasedPrice,
			UnmetDemandPenalty: rc.Market.UnmetDemandPenalty,
		},
		Solver: config.SolverConfig{
			SOCStates: rc.Solver.SOCStates,
			Actions:   rc.Solver.Actions,
			Discount:  rc.Solver.Discount,
		},
		Strategy: config.StrategyConfig{
			Name:   rc.Strategy.Name,
			Params: rc.Strategy.Params,
		},
		Scenario: config.ScenarioConfig{
			Seed:      rc.Scenario.Seed,
			PriceMin:  rc.Scenario.PriceMin,
			PriceMax:  rc.Scenario.PriceMax,
			DemandMax: rc.Scenario.DemandMax,
			Start:     rc.Scenario.Start,
		},
	}
	if cfg.Market.Horizon == 0 && periods > 0 {
		cfg.Market.Horizon = periods
	}
	if cfg.Market.StepHours == 0 && stepHours > 0 {
		cfg.Market.StepHours = stepHours
	}

	// battery_file is a preset id (file name without .yaml) under batteryDir.
	if rc.BatteryFile != "" {
		id := strings.TrimSuffix(rc.BatteryFile, ".yaml")
		if id == "" || id != filepath.Base(id) || id == ".." {
			return nil, fmt.Errorf("%w: invalid battery_file %q", model.ErrInvalidConfiguration, rc.BatteryFile)
		}
		loaded, err := config.LoadBatteryFile(filepath.Join(batteryDir, id+".yaml"))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: unknown battery_file %q", model.ErrInvalidConfiguration, rc.BatteryFile)
			}
			return nil, err
		}
		cfg.Battery = config.MergeBattery(loaded, cfg.Battery)
	}

	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeRunConfig overlays non-zero (or, for optional market fields, non-nil)
// fields of override onto base.
func mergeRunConfig(base, override models.RunConfig) models.RunConfig {
	merged := base
	if override.BatteryFile != "" {
		merged.BatteryFile = override.BatteryFile
	}

	b := config.MergeBattery(
		config.BatteryConfig(base.Battery),
		config.BatteryConfig(override.Battery),
	)
	merged.Battery = models.BatteryConfig(b)

	if override.Market.Horizon != 0 {
		merged.Market.Horizon = override.Market.Horizon
	}
	if override.Market.StepHours != 0 {
		merged.Market.StepHours = override.Market.StepHours
	}
	if override.Market.MaxGridSupply != nil {
		merged.Market.MaxGridSupply = override.Market.MaxGridSupply
	}
	if override.Market.PrePurchased != nil {
		merged.Market.PrePurchased = override.Market.PrePurchased
	}
	if override.Market.PrePurchasedPrice != nil {
		merged.Market.PrePurchasedPrice = override.Market.PrePurchasedPrice
	}
	if override.Market.UnmetDemandPenalty != nil {
		merged.Market.UnmetDemandPenalty = override.Market.UnmetDemandPenalty
	}
	if override.Solver.SOCStates != 0 {
		merged.Solver.SOCStates = override.Solver.SOCStates
	}
	if override.Solver.Actions != 0 {
		merged.Solver.Actions = override.Solver.Actions
	}
	if override.Solver.Discount != 0 {
		merged.Solver.Discount = override.Solver.Discount
	}
	if override.Strategy.Name != "" {
		merged.Strategy = override.Strategy
	}
	return merged
}

// buildSeries returns the explicit series, or generates one from the config.
func buildSeries(in *models.SeriesInput, cfg *config.Config) (model.Series, error) {
	if in != nil {
		s := model.Series{
			Start:     in.Start,
			StepHours: in.StepHours,
			Price:     in.Price,
			Demand:    in.Demand,
		}
		if err := s.Validate(cfg.Market.Horizon); err != nil {
			return model.Series{}, err
		}
		return s, s.CheckStep(cfg.Market.StepHours)
	}
	sc, err := cfg.ScenarioConfig()
	if err != nil {
		return model.Series{}, err
	}
	return scenario.Generate(sc)
}

func seriesPeriods(in *models.SeriesInput) (int, float64) {
	if in == nil {
		return 0, 0
	}
	return len(in.Price), in.StepHours
}

func toSummary(s analysis.Summary) models.Summary {
	out := models.Summary{
		Strategy:         s.Strategy,
		Periods:          s.Periods,
		TotalProfit:      s.TotalProfit,
		MarketProfit:     s.MarketProfit,
		UnmetPenalty:     s.UnmetPenalty,
		PrePurchaseCost:  s.PrePurchaseCost,
		InitialSOC:       s.InitialSOC,
		FinalSOC:         s.FinalSOC,
		MinSOC:           s.MinSOC,
		MaxSOC:           s.MaxSOC,
		EnergyCharged:    s.EnergyCharged,
		EnergyDischarged: s.EnergyDischarged,
		BatterySupply:    s.BatterySupply,
		GridSupply:       s.GridSupply,
		PrePurchasedUsed: s.PrePurchasedUsed,
		Unmet:            s.Unmet,
	}
	for _, w := range s.Windows {
		out.Windows = append(out.Windows, models.Window{
			Start:        w.Start,
			End:          w.End,
			Action:       string(w.Action),
			EnergyKWh:    w.Energy,
			AveragePrice: w.AveragePrice,
		})
	}
	return out
}

func toLedger(ledger []backtest.LedgerRow) []models.LedgerRow {
	out := make([]models.LedgerRow, len(ledger))
	for i, row := range ledger {
		out[i] = models.LedgerRow{
			Index:            row.Index,
			PeriodStart:      row.PeriodStart,
			Price:            row.Price,
			Demand:           row.Demand,
			Action:           string(row.Action),
			RequestedEnergy:  row.RequestedEnergy,
			ActionEnergy:     row.ActionEnergy,
			SOCStart:         row.SOCStart,
			SOCEnd:           row.SOCEnd,
			PrePurchasedUsed: row.PrePurchasedUsed,
			BatterySupply:    row.BatterySupply,
			GridSupply:       row.GridSupply,
			Unmet:            row.Unmet,
			MarketProfit:     row.MarketProfit,
			UnmetPenalty:     row.UnmetPenalty,
			Profit:           row.Profit,
			CumProfit:        row.CumProfit,
		}
	}
	return out
}

func toTables(sol *dp.Solution) *models.Tables {
	values := sol.ValueTable()
	out := &models.Tables{
		SOCGrid:    sol.Grid().SOC,
		ActionGrid: sol.Grid().Actions,
		Value:      make([][]*float64, len(values)),
		Policy:     sol.PolicyTable(),
	}
	for t, row := range values {
		out.Value[t] = make([]*float64, len(row))
		for s := range row {
			if math.IsInf(row[s], -1) {
				continue
			}
			v := row[s]
			out.Value[t][s] = &v
		}
	}
	return out
}

func toStats(s analysis.Stats) models.Stats {
	return models.Stats(s)
}
