package handlers

import (
	"fmt"
	"net/http"

	"battery-dispatch/internal/analysis"
	"battery-dispatch/internal/api/models"
	"battery-dispatch/internal/backtest"
	"battery-dispatch/internal/config"
	"battery-dispatch/internal/data"
	"battery-dispatch/internal/dp"
	"battery-dispatch/internal/model"
	"battery-dispatch/internal/strategy"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Limits bound the work a single request may ask for.
type Limits struct {
	Workers    int
	MaxPeriods int
	// MaxCells bounds (periods+1) * soc_states * actions.
	MaxCells int
}

// DispatchHandler solves, replays and compares dispatch runs.
type DispatchHandler struct {
	store      *data.RunStore
	batteryDir string
	limits     Limits
	logger     *zap.Logger
}

func NewDispatchHandler(store *data.RunStore, batteryDir string, limits Limits, logger *zap.Logger) *DispatchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DispatchHandler{
		store:      store,
		batteryDir: batteryDir,
		limits:     limits,
		logger:     logger,
	}
}

// Solve handles POST /api/v1/solve
func (h *DispatchHandler) Solve(c *gin.Context) {
	var req models.SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	periods, step := seriesPeriods(req.Series)
	cfg, err := buildConfig(req.Config, h.batteryDir, periods, step)
	if err != nil {
		abort(c, http.StatusBadRequest, "INVALID_CONFIG", err)
		return
	}
	series, err := buildSeries(req.Series, cfg)
	if err != nil {
		abort(c, http.StatusBadRequest, "INVALID_SERIES", err)
		return
	}

	params := cfg.ToParams()
	if req.Options.InitialSOC != nil {
		params.InitialSOC = *req.Options.InitialSOC
	}
	if err := h.checkLimits(params); err != nil {
		abort(c, http.StatusBadRequest, "PROBLEM_TOO_LARGE", err)
		return
	}

	run, reused, err := h.solve(cfg, params, series)
	if err != nil {
		status, code := statusFor(err)
		abort(c, status, code, err)
		return
	}

	resp := models.SolveResponse{
		ID:      run.ID,
		Status:  "completed",
		Reused:  reused,
		Summary: toSummary(analysis.Summarize(run.Result, params.StepHours)),
	}
	if run.Solution != nil {
		resp.InfeasibleStates = run.Solution.InfeasibleCount()
		if req.Options.IncludeTables {
			resp.Tables = toTables(run.Solution)
		}
	}
	if req.Options.IncludeLedger {
		resp.Ledger = toLedger(run.Result.Ledger)
	}
	c.JSON(http.StatusOK, resp)
}

// solve replays the configured strategy. Oracle solutions are cached by their
// inputs: an identical request reuses the stored run, and a request that only
// changes the initial SOC replays the stored solution from the new start.
func (h *DispatchHandler) solve(cfg *config.Config, params model.Params, series model.Series) (*data.Run, bool, error) {
	oracle := cfg.Strategy.Name == strategy.NameOracle
	key := data.RunKey(params, series)
	if oracle {
		if run, ok := h.store.Lookup(key); ok {
			if run.Params.InitialSOC == params.InitialSOC {
				h.logger.Debug("reusing run", zap.String("id", run.ID))
				return run, true, nil
			}
			replayed, err := h.replay(run, params, series)
			if err != nil {
				return nil, false, err
			}
			return replayed, true, nil
		}
	}

	strat, err := strategy.New(cfg.Strategy.Name, cfg.Strategy.Params, series, params, strategy.OracleParams{
		Workers: h.limits.Workers,
		Logger:  h.logger,
	})
	if err != nil {
		return nil, false, err
	}
	res, err := backtest.New(h.logger).Run(series, params, strat, params.InitialSOC)
	if err != nil {
		return nil, false, err
	}

	var sol *dp.Solution
	if orc, ok := strat.(*strategy.OracleStrategy); ok {
		sol = orc.Solution()
	} else {
		// Only oracle runs are deterministic functions of params and series.
		key = ""
	}
	run := h.store.Put(&data.Run{
		Key:      key,
		Params:   params,
		Series:   series,
		Solution: sol,
		Result:   res,
	})
	h.logger.Info("solved run",
		zap.String("id", run.ID),
		zap.String("strategy", res.Strategy),
		zap.Int("periods", params.Horizon),
		zap.Float64("total_profit", res.TotalProfit),
	)
	return run, false, nil
}

// replay runs the cached solution of run from params.InitialSOC and stores the
// result as a new run sharing that solution.
func (h *DispatchHandler) replay(run *data.Run, params model.Params, series model.Series) (*data.Run, error) {
	res, err := backtest.New(h.logger).Run(series, params, strategy.NewOracleFromSolution(run.Solution), params.InitialSOC)
	if err != nil {
		return nil, err
	}
	replayed := h.store.Put(&data.Run{
		Key:      run.Key,
		Params:   params,
		Series:   series,
		Solution: run.Solution,
		Result:   res,
	})
	h.logger.Info("replayed cached solution",
		zap.String("id", replayed.ID),
		zap.String("solution_of", run.ID),
		zap.Float64("initial_soc", res.SOC[0]),
		zap.Float64("total_profit", res.TotalProfit),
	)
	return replayed, nil
}

func (h *DispatchHandler) checkLimits(p model.Params) error {
	if h.limits.MaxPeriods > 0 && p.Horizon > h.limits.MaxPeriods {
		return fmt.Errorf("horizon %d exceeds the limit of %d periods", p.Horizon, h.limits.MaxPeriods)
	}
	// One extra action for the idle action appended to even grids.
	cells := (p.Horizon + 1) * p.SOCStates * (p.Actions + 1)
	if h.limits.MaxCells > 0 && cells > h.limits.MaxCells {
		return fmt.Errorf("problem has %d cells, limit is %d", cells, h.limits.MaxCells)
	}
	return nil
}

// GetLedger handles GET /api/v1/runs/:id/ledger
// ?format=csv streams the ledger as CSV.
func (h *DispatchHandler) GetLedger(c *gin.Context) {
	id := c.Param("id")
	run, ok := h.store.Get(id)
	if !ok {
		abort(c, http.StatusNotFound, "RUN_NOT_FOUND", fmt.Errorf("run %q not found or expired", id))
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".csv"))
		c.Status(http.StatusOK)
		if err := backtest.WriteLedger(c.Writer, run.Result.Ledger); err != nil {
			h.logger.Error("write ledger csv", zap.String("id", id), zap.Error(err))
		}
		return
	}
	c.JSON(http.StatusOK, models.LedgerResponse{
		ID:     run.ID,
		Ledger: toLedger(run.Result.Ledger),
	})
}

// Compare handles POST /api/v1/compare
func (h *DispatchHandler) Compare(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	periods, step := seriesPeriods(req.Series)
	baseCfg, err := buildConfig(req.BaseConfig, h.batteryDir, periods, step)
	if err != nil {
		abort(c, http.StatusBadRequest, "INVALID_CONFIG", err)
		return
	}
	series, err := buildSeries(req.Series, baseCfg)
	if err != nil {
		abort(c, http.StatusBadRequest, "INVALID_SERIES", err)
		return
	}

	variations := req.Variations
	if len(variations) == 0 {
		for _, name := range []string{strategy.NameOracle, strategy.NameSchedule, strategy.NameIdle} {
			variations = append(variations, models.Variation{
				Name:   name,
				Config: models.RunConfig{Strategy: models.StrategyConfig{Name: name}},
			})
		}
	}

	engine := backtest.New(h.logger)
	var (
		names   []string
		results []*backtest.Result
		skipped []models.SkippedVariation
	)
	for _, v := range variations {
		res, err := h.runVariation(engine, mergeRunConfig(req.BaseConfig, v.Config), series, periods, step)
		if err != nil {
			h.logger.Warn("skipping variation", zap.String("name", v.Name), zap.Error(err))
			skipped = append(skipped, models.SkippedVariation{Name: v.Name, Error: err.Error()})
			continue
		}
		names = append(names, v.Name)
		results = append(results, res)
	}

	ranked := analysis.RankByProfit(results, baseCfg.Market.StepHours)
	comparison := make([]models.ComparisonResult, 0, len(ranked))
	for _, r := range ranked {
		comparison = append(comparison, models.ComparisonResult{
			Rank:      r.Rank,
			Name:      names[r.Index],
			GapToBest: r.GapToBest,
			Summary:   toSummary(r.Summary),
		})
	}
	c.JSON(http.StatusOK, models.CompareResponse{
		Comparison: comparison,
		Skipped:    skipped,
	})
}

func (h *DispatchHandler) runVariation(engine *backtest.Engine, rc models.RunConfig, series model.Series, periods int, step float64) (*backtest.Result, error) {
	cfg, err := buildConfig(rc, h.batteryDir, periods, step)
	if err != nil {
		return nil, err
	}
	params := cfg.ToParams()
	if err := series.Validate(params.Horizon); err != nil {
		return nil, err
	}
	if err := h.checkLimits(params); err != nil {
		return nil, err
	}
	strat, err := strategy.New(cfg.Strategy.Name, cfg.Strategy.Params, series, params, strategy.OracleParams{
		Workers: h.limits.Workers,
		Logger:  h.logger,
	})
	if err != nil {
		return nil, err
	}
	return engine.Run(series, params, strat, params.InitialSOC)
}
