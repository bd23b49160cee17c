// Package config loads and validates backtest run configuration from YAML
// or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/backtester/market"
)

// Config is the complete backtest run configuration.
type Config struct {
	Account     AccountConfig     `json:"account" yaml:"account"`
	Instruments []string          `json:"instruments" yaml:"instruments"`
	Range       RangeConfig       `json:"range" yaml:"range"`
	Costs       CostConfig        `json:"costs" yaml:"costs"`
	Risk        RiskConfig        `json:"risk" yaml:"risk"`
	Regime      RegimeConfig      `json:"regime" yaml:"regime"`
	WalkForward WalkForwardConfig `json:"walk_forward" yaml:"walk_forward"`
	Journal     JournalConfig     `json:"journal" yaml:"journal"`
	Strategy    string            `json:"strategy" yaml:"strategy"`
	DataDir     string            `json:"data_dir" yaml:"data_dir"`
}

type AccountConfig struct {
	Currency string  `json:"currency" yaml:"currency"`
	Equity   float64 `json:"equity" yaml:"equity"`
}

// RangeConfig is the inclusive replay window, RFC3339 or YYYY-MM-DD.
type RangeConfig struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

type CostConfig struct {
	SlippagePips       float64 `json:"slippage_pips" yaml:"slippage_pips"`
	CommissionPerLotRT float64 `json:"commission_per_lot_rt" yaml:"commission_per_lot_rt"`
}

type RiskConfig struct {
	RiskPct        float64 `json:"risk_pct" yaml:"risk_pct"`
	MaxConcurrent  int     `json:"max_concurrent" yaml:"max_concurrent"`
	MaxDailyTrades int     `json:"max_daily_trades" yaml:"max_daily_trades"`
	DailyLossCapR  float64 `json:"daily_loss_cap_r" yaml:"daily_loss_cap_r"`
}

type RegimeConfig struct {
	FlipThresholdPts float64 `json:"flip_threshold_pts" yaml:"flip_threshold_pts"`
	FlipPersistence  int     `json:"flip_persistence" yaml:"flip_persistence"`
}

type WalkForwardConfig struct {
	TrainMonths int `json:"train_months" yaml:"train_months"`
	TestMonths  int `json:"test_months" yaml:"test_months"`
}

type JournalConfig struct {
	Type        string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	DBPath      string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	TradesFile  string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile  string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	RegimesFile string `json:"regimes_file,omitempty" yaml:"regimes_file,omitempty"`
}

// Default returns a runnable configuration with the standard cost model,
// risk caps, and regime thresholds.
func Default() *Config {
	return &Config{
		Account: AccountConfig{Currency: "USD", Equity: 10000},
		Costs:   CostConfig{SlippagePips: 1.0, CommissionPerLotRT: 7.0},
		Risk: RiskConfig{
			RiskPct:        0.01,
			MaxConcurrent:  3,
			MaxDailyTrades: 6,
			DailyLossCapR:  2.0,
		},
		Regime:      RegimeConfig{FlipThresholdPts: 15, FlipPersistence: 2},
		WalkForward: WalkForwardConfig{TrainMonths: 4, TestMonths: 2},
		Journal:     JournalConfig{Type: "none"},
		Strategy:    "momentum",
		DataDir:     "data",
	}
}

// LoadFromFile loads configuration from a YAML or JSON file, layered over
// defaults, and validates it.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ParseRange returns the replay window as timestamps.
func (c *Config) ParseRange() (start, end time.Time, err error) {
	start, err = parseTime(c.Range.Start)
	if err != nil {
		return start, end, fmt.Errorf("range.start: %w", err)
	}
	end, err = parseTime(c.Range.End)
	if err != nil {
		return start, end, fmt.Errorf("range.end: %w", err)
	}
	return start, end, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// Validate checks the configuration. Unknown instruments, an empty or
// inverted date range, and non-positive equity are fatal.
func (c *Config) Validate() error {
	if c.Account.Equity <= 0 {
		return fmt.Errorf("account.equity must be positive, got %v", c.Account.Equity)
	}
	if len(c.Instruments) == 0 {
		return fmt.Errorf("at least one instrument is required")
	}
	for _, inst := range c.Instruments {
		if _, ok := market.Instruments[inst]; !ok {
			return fmt.Errorf("unknown instrument: %s", inst)
		}
	}
	if c.Range.Start == "" || c.Range.End == "" {
		return fmt.Errorf("range.start and range.end are required")
	}
	start, end, err := c.ParseRange()
	if err != nil {
		return err
	}
	if !end.After(start) {
		return fmt.Errorf("range.end must be after range.start")
	}
	if c.Costs.SlippagePips < 0 || c.Costs.CommissionPerLotRT < 0 {
		return fmt.Errorf("costs must be non-negative")
	}
	if c.Risk.RiskPct <= 0 || c.Risk.RiskPct > 0.05 {
		return fmt.Errorf("risk.risk_pct must be in (0, 0.05]")
	}
	if c.Risk.DailyLossCapR <= 0 {
		return fmt.Errorf("risk.daily_loss_cap_r must be positive")
	}
	switch c.Journal.Type {
	case "", "none", "sqlite", "csv":
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path required for sqlite journal")
	}
	if c.Journal.Type == "csv" &&
		(c.Journal.TradesFile == "" || c.Journal.EquityFile == "" || c.Journal.RegimesFile == "") {
		return fmt.Errorf("journal trades_file, equity_file and regimes_file required for csv journal")
	}
	if c.WalkForward.TrainMonths <= 0 || c.WalkForward.TestMonths <= 0 {
		return fmt.Errorf("walk_forward months must be positive")
	}
	return nil
}
