package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/regime"
)

var walkforwardCmd = &cobra.Command{
	Use:   "walkforward",
	Short: "Run walk-forward validation cycles",
	Long: `Walkforward splits the date range into train/test cycles, replays
each cycle with fresh engine state, and gates on out-of-sample
profitability.

Example:
  backtester walkforward --config backtest.yaml`,
	RunE: runWalkForward,
}

func init() {
	rootCmd.AddCommand(walkforwardCmd)

	walkforwardCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to YAML/JSON config")
	walkforwardCmd.Flags().StringSliceVarP(&runInstruments, "instruments", "i", nil, "instruments to replay (overrides config)")
	walkforwardCmd.Flags().StringVar(&runStart, "start", "", "data start (YYYY-MM-DD, overrides config)")
	walkforwardCmd.Flags().StringVar(&runEnd, "end", "", "data end (YYYY-MM-DD, overrides config)")
	walkforwardCmd.Flags().Float64VarP(&runEquity, "equity", "e", 0, "initial equity (overrides config)")
	walkforwardCmd.Flags().StringVarP(&runStrategy, "strategy", "s", "", "strategy name (overrides config)")
	walkforwardCmd.Flags().StringVarP(&runDataDir, "data", "d", "", "data directory (overrides config)")
}

func runWalkForward(cmd *cobra.Command, args []string) error {
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

	wf := &backtest.WalkForward{
		Cfg:         engCfg,
		TrainMonths: cfg.WalkForward.TrainMonths,
		TestMonths:  cfg.WalkForward.TestMonths,
		ClassifierFactory: func() *regime.Classifier {
			return regime.NewClassifier(cfg.Regime.FlipThresholdPts, cfg.Regime.FlipPersistence)
		},
		Logger: log,
	}

	results, err := wf.Run(start, end, cfg.Account.Equity)
	if err != nil {
		return err
	}
	return results.WriteSummary(os.Stdout)
}
