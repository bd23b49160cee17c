package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "backtester",
	Short: "Deterministic range-bar backtesting for FX strategies",
	Long: `Backtester replays range-bar history bar by bar through a regime
classifier, a strategy layer, and a realistic account ledger.

It provides tools for:
  - Single-run backtests over a date range
  - Walk-forward validation with train/test cycles
  - Regime timeline and equity curve journaling (SQLite or CSV)
  - Staged exits: 1.5R partials, chandelier trailing stops
  - Risk-based position sizing with per-strategy performance scaling`,
}

var verbose bool

// Execute runs the root command tree.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// buildLogger returns the process logger; --verbose switches to the
// human-oriented development encoder at debug level.
func buildLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}
