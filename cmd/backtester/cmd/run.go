package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/regime"
	"github.com/rustyeddy/backtester/risk"
	"github.com/rustyeddy/backtester/sim"
	"github.com/rustyeddy/backtester/strategies"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single backtest over a date range",
	Long: `Run replays range-bar history for the configured instruments and
prints a performance summary.

Example:
  backtester run --config backtest.yaml
  backtester run --instruments EUR_USD,GBP_USD --start 2023-01-01 --end 2023-06-30`,
	RunE: runBacktest,
}

var (
	runConfigPath  string
	runInstruments []string
	runStart       string
	runEnd         string
	runEquity      float64
	runStrategy    string
	runDataDir     string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to YAML/JSON config")
	runCmd.Flags().StringSliceVarP(&runInstruments, "instruments", "i", nil, "instruments to replay (overrides config)")
	runCmd.Flags().StringVar(&runStart, "start", "", "replay start (YYYY-MM-DD, overrides config)")
	runCmd.Flags().StringVar(&runEnd, "end", "", "replay end (YYYY-MM-DD, overrides config)")
	runCmd.Flags().Float64VarP(&runEquity, "equity", "e", 0, "initial equity (overrides config)")
	runCmd.Flags().StringVarP(&runStrategy, "strategy", "s", "", "strategy name (overrides config)")
	runCmd.Flags().StringVarP(&runDataDir, "data", "d", "", "data directory (overrides config)")
}

// loadConfig layers flag overrides on top of the config file (or defaults
// when no file is given) and re-validates.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if runConfigPath != "" {
		cfg, err = config.LoadFromFile(runConfigPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	if len(runInstruments) > 0 {
		cfg.Instruments = runInstruments
	}
	if runStart != "" {
		cfg.Range.Start = runStart
	}
	if runEnd != "" {
		cfg.Range.End = runEnd
	}
	if runEquity > 0 {
		cfg.Account.Equity = runEquity
	}
	if runStrategy != "" {
		cfg.Strategy = runStrategy
	}
	if runDataDir != "" {
		cfg.DataDir = runDataDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildEngineConfig wires a backtest.Config from file config + loaded data.
func buildEngineConfig(cfg *config.Config, ds *backtest.Dataset, log *zap.Logger) (backtest.Config, error) {
	strat, err := strategies.New(cfg.Strategy)
	if err != nil {
		return backtest.Config{}, err
	}
	return backtest.Config{
		Instruments: ds.Instruments,
		Bars:        ds.Bars,
		H4:          ds.H4,
		H1:          ds.H1,
		Classifier:  regime.NewClassifier(cfg.Regime.FlipThresholdPts, cfg.Regime.FlipPersistence),
		Scorer:      regime.NewScorer(),
		Strategy:    strat,
		Costs: sim.CostModel{
			SlippagePips:       cfg.Costs.SlippagePips,
			CommissionPerLotRT: cfg.Costs.CommissionPerLotRT,
		},
		Policy: risk.Policy{
			RiskPct:        cfg.Risk.RiskPct,
			MaxConcurrent:  cfg.Risk.MaxConcurrent,
			MaxDailyTrades: cfg.Risk.MaxDailyTrades,
		},
		DailyCapR: cfg.Risk.DailyLossCapR,
		Logger:    log,
	}, nil
}

// openJournal returns the configured journal, or nil when journaling is
// disabled.
func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "", "none":
		return nil, nil
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	case "csv":
		return journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile, cfg.Journal.RegimesFile)
	}
	return nil, fmt.Errorf("unknown journal type %q", cfg.Journal.Type)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	log, err := buildLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	start, end, err := cfg.ParseRange()
	if err != nil {
		return err
	}

	ds, err := backtest.LoadDataset(cfg.DataDir, cfg.Instruments, log)
	if err != nil {
		return err
	}

	engCfg, err := buildEngineConfig(cfg, ds, log)
	if err != nil {
		return err
	}
	engine, err := backtest.NewEngine(engCfg)
	if err != nil {
		return err
	}

	started := time.Now()
	results, err := engine.Run(start, end, cfg.Account.Equity)
	if err != nil {
		return err
	}
	log.Info("backtest finished", zap.Duration("elapsed", time.Since(started)))

	if j, err := openJournal(cfg); err != nil {
		return err
	} else if j != nil {
		defer j.Close()
		if err := results.Persist(j); err != nil {
			return err
		}
	}

	return results.WriteSummary(os.Stdout)
}
