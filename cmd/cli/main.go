package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"battery-dispatch/internal/analysis"
	"battery-dispatch/internal/backtest"
	"battery-dispatch/internal/config"
	"battery-dispatch/internal/data"
	"battery-dispatch/internal/logging"
	"battery-dispatch/internal/model"
	"battery-dispatch/internal/scenario"
	"battery-dispatch/internal/strategy"

	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "solve":
		err = cmdSolve(os.Args[2:])
	case "compare":
		err = cmdCompare(os.Args[2:])
	case "generate":
		err = cmdGenerate(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli solve    --config examples/config.yaml [--series series.json] --out results/dispatch.csv")
	fmt.Println("  cli compare  --config examples/config.yaml [--series series.csv]")
	fmt.Println("  cli generate --config examples/config.yaml --out series.json")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - solve writes a ledger CSV with action=CHARGING/IDLE/DISCHARGING per period")
	fmt.Println("  - without a series file, a seeded scenario is generated from the config")
}

// env is what every subcommand needs: a resolved config and a logger.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
}

func setup(fs *flag.FlagSet, args []string) (*env, error) {
	cfgPath := fs.String("config", "", "Path to YAML config (optional)")
	seriesPath := fs.String("series", "", "Price/demand series (.json or .csv); overrides market.series_file")
	logLevel := fs.String("log-level", "", "Log level override (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			return nil, err
		}
		// series_file is relative to the config file.
		if f := cfg.Market.SeriesFile; f != "" && !filepath.IsAbs(f) {
			cfg.Market.SeriesFile = filepath.Join(filepath.Dir(*cfgPath), f)
		}
	}
	if *seriesPath != "" {
		cfg.Market.SeriesFile = *seriesPath
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	logger, err := logging.New(cfg.Logging, *logLevel)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger}, nil
}

// series loads the configured series file, or generates a scenario.
// A loaded series sets the horizon.
func (e *env) series() (model.Series, model.Params, error) {
	params := e.cfg.ToParams()
	if e.cfg.Market.SeriesFile == "" {
		sc, err := e.cfg.ScenarioConfig()
		if err != nil {
			return model.Series{}, params, err
		}
		s, err := scenario.Generate(sc)
		return s, params, err
	}

	s, err := data.LoadSeries(e.cfg.Market.SeriesFile)
	if err != nil {
		return model.Series{}, params, err
	}
	params.Horizon = s.Len()
	if s.StepHours > 0 {
		params.StepHours = s.StepHours
	}
	if err := params.Validate(); err != nil {
		return model.Series{}, params, err
	}
	return *s, params, s.Validate(params.Horizon)
}

func cmdSolve(args []string) error {
	fs := flag.NewFlagSet("solve", flag.ExitOnError)
	outPath := fs.String("out", "results/dispatch.csv", "Output CSV path for the ledger")
	initialSOC := fs.Float64("initial-soc", -1, "Initial SOC in kWh (default: battery.initial_soc_kwh)")
	workers := fs.Int("workers", 0, "Parallel workers per period sweep (default: solver.workers)")
	e, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	series, params, err := e.series()
	if err != nil {
		return err
	}
	if *initialSOC >= 0 {
		params.InitialSOC = *initialSOC
	}
	w := e.cfg.Solver.Workers
	if *workers > 0 {
		w = *workers
	}

	strat, err := strategy.New(e.cfg.Strategy.Name, e.cfg.Strategy.Params, series, params, strategy.OracleParams{
		Workers: w,
		Logger:  e.logger,
	})
	if err != nil {
		return err
	}
	res, err := backtest.New(e.logger).Run(series, params, strat, params.InitialSOC)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		return err
	}
	if err := backtest.WriteLedgerCSV(*outPath, res.Ledger); err != nil {
		return err
	}

	sum := analysis.Summarize(res, params.StepHours)
	e.logger.Info("wrote ledger", zap.String("path", *outPath), zap.Int("rows", len(res.Ledger)))
	fmt.Printf("Strategy=%s Periods=%d\n", sum.Strategy, sum.Periods)
	fmt.Printf("Total profit=$%.2f (market $%.2f, unmet penalty $%.2f, pre-purchase $%.2f)\n",
		sum.TotalProfit, sum.MarketProfit, sum.UnmetPenalty, sum.PrePurchaseCost)
	fmt.Printf("SOC %.2f -> %.2f kWh (range %.2f..%.2f), charged %.2f kWh, discharged %.2f kWh, unmet %.2f kWh\n",
		sum.InitialSOC, sum.FinalSOC, sum.MinSOC, sum.MaxSOC, sum.EnergyCharged, sum.EnergyDischarged, sum.Unmet)
	if orc, ok := strat.(*strategy.OracleStrategy); ok {
		sol := orc.Solution()
		fmt.Printf("V[0][s0]=%.4f infeasible states=%d\n",
			sol.Value(0, sol.Grid().Nearest(params.InitialSOC)), sol.InfeasibleCount())
	}
	return nil
}

func cmdCompare(args []string) error {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	e, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	series, params, err := e.series()
	if err != nil {
		return err
	}

	engine := backtest.New(e.logger)
	var results []*backtest.Result
	for _, name := range []string{strategy.NameOracle, strategy.NameSchedule, strategy.NameIdle} {
		strat, err := strategy.New(name, e.cfg.Strategy.Params, series, params, strategy.OracleParams{
			Workers: e.cfg.Solver.Workers,
			Logger:  e.logger,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		res, err := engine.Run(series, params, strat, params.InitialSOC)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		results = append(results, res)
	}

	pot := analysis.ComputePotential(series)
	fmt.Printf("price mean=%.3f p05=%.3f p95=%.3f negative periods=%d demand=%.1f kWh\n",
		pot.Price.Mean, pot.Price.P05, pot.Price.P95, pot.NegativePricePeriods, pot.TotalDemand)
	fmt.Printf("%-4s %-10s %-12s %-12s %-12s %-10s\n", "rank", "strategy", "profit$", "market$", "gap$", "final soc")
	for _, r := range analysis.RankByProfit(results, params.StepHours) {
		fmt.Printf("%-4d %-10s %-12.2f %-12.2f %-12.2f %-10.2f\n",
			r.Rank, r.Strategy, r.TotalProfit, r.MarketProfit, r.GapToBest, r.FinalSOC)
	}
	return nil
}

func cmdGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	outPath := fs.String("out", "series.json", "Output JSON path")
	seed := fs.Uint64("seed", 0, "Random seed (default: scenario.seed)")
	periods := fs.Int("periods", 0, "Number of periods (default: market.horizon)")
	e, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	sc, err := e.cfg.ScenarioConfig()
	if err != nil {
		return err
	}
	if *seed != 0 {
		sc.Seed = *seed
	}
	if *periods > 0 {
		sc.Periods = *periods
	}
	s, err := scenario.Generate(sc)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(*outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := data.WriteSeriesJSON(*outPath, s); err != nil {
		return err
	}
	e.logger.Info("wrote scenario", zap.String("path", *outPath), zap.Int("periods", s.Len()), zap.Uint64("seed", sc.Seed))
	return nil
}
