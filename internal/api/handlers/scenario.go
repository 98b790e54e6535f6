package handlers

import (
	"fmt"
	"net/http"

	"battery-dispatch/internal/analysis"
	"battery-dispatch/internal/api/models"
	"battery-dispatch/internal/config"
	"battery-dispatch/internal/model"
	"battery-dispatch/internal/scenario"

	"github.com/gin-gonic/gin"
)

// maxScenarioPeriods caps generated series; a year of hourly periods.
const maxScenarioPeriods = 24 * 366

// GenerateScenario handles GET /api/v1/scenario
func GenerateScenario(c *gin.Context) {
	var q models.ScenarioQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abort(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	series, err := generate(q.ScenarioConfig, q.Periods, q.StepHours)
	if err != nil {
		abort(c, http.StatusBadRequest, "INVALID_SCENARIO", err)
		return
	}
	c.JSON(http.StatusOK, series)
}

// Potential handles POST /api/v1/potential
func Potential(c *gin.Context) {
	var req models.PotentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	var series model.Series
	if req.Series != nil {
		series = model.Series{Price: req.Series.Price, Demand: req.Series.Demand}
		if err := series.Validate(len(series.Price)); err != nil {
			abort(c, http.StatusBadRequest, "INVALID_SERIES", err)
			return
		}
	} else {
		var err error
		series, err = generate(req.Scenario, req.Horizon, 0)
		if err != nil {
			abort(c, http.StatusBadRequest, "INVALID_SCENARIO", err)
			return
		}
	}

	pot := analysis.ComputePotential(series)
	c.JSON(http.StatusOK, models.PotentialResponse{
		Price:                toStats(pot.Price),
		Demand:               toStats(pot.Demand),
		SpreadP95P05:         pot.SpreadP95P05,
		NegativePricePeriods: pot.NegativePricePeriods,
		TotalDemand:          pot.TotalDemand,
	})
}

// generate draws a scenario with the run-config defaults for unset fields.
func generate(sc models.ScenarioConfig, periods int, stepHours float64) (model.Series, error) {
	if periods > maxScenarioPeriods {
		return model.Series{}, fmt.Errorf("%w: periods must be <= %d", model.ErrInvalidConfiguration, maxScenarioPeriods)
	}
	cfg := config.Default()
	cfg.Scenario = config.ScenarioConfig{
		Seed:      sc.Seed,
		PriceMin:  sc.PriceMin,
		PriceMax:  sc.PriceMax,
		DemandMax: sc.DemandMax,
		Start:     sc.Start,
	}
	if periods > 0 {
		cfg.Market.Horizon = periods
	}
	if stepHours > 0 {
		cfg.Market.StepHours = stepHours
	}
	if err := cfg.Resolve(); err != nil {
		return model.Series{}, err
	}
	gen, err := cfg.ScenarioConfig()
	if err != nil {
		return model.Series{}, err
	}
	return scenario.Generate(gen)
}
