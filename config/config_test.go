package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Instruments = []string{"EUR_USD", "USD_JPY"}
	cfg.Range = RangeConfig{Start: "2024-01-01", End: "2024-06-30"}
	return cfg
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultValues(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, 10000.0, cfg.Account.Equity)
	assert.Equal(t, 1.0, cfg.Costs.SlippagePips)
	assert.Equal(t, 7.0, cfg.Costs.CommissionPerLotRT)
	assert.Equal(t, 0.01, cfg.Risk.RiskPct)
	assert.Equal(t, 2.0, cfg.Risk.DailyLossCapR)
	assert.Equal(t, 15.0, cfg.Regime.FlipThresholdPts)
	assert.Equal(t, 2, cfg.Regime.FlipPersistence)
	assert.Equal(t, 4, cfg.WalkForward.TrainMonths)
	assert.Equal(t, 2, cfg.WalkForward.TestMonths)
	assert.Equal(t, "momentum", cfg.Strategy)
	assert.Equal(t, "none", cfg.Journal.Type)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"zero equity", func(c *Config) { c.Account.Equity = 0 }, "equity"},
		{"no instruments", func(c *Config) { c.Instruments = nil }, "instrument"},
		{"unknown instrument", func(c *Config) { c.Instruments = []string{"FOO_BAR"} }, "unknown instrument"},
		{"missing range", func(c *Config) { c.Range.End = "" }, "range"},
		{"inverted range", func(c *Config) {
			c.Range = RangeConfig{Start: "2024-06-30", End: "2024-01-01"}
		}, "after"},
		{"unparseable date", func(c *Config) { c.Range.Start = "01/02/2024" }, "range.start"},
		{"negative slippage", func(c *Config) { c.Costs.SlippagePips = -1 }, "costs"},
		{"risk pct too high", func(c *Config) { c.Risk.RiskPct = 0.10 }, "risk_pct"},
		{"zero daily cap", func(c *Config) { c.Risk.DailyLossCapR = 0 }, "daily_loss_cap_r"},
		{"bad journal type", func(c *Config) { c.Journal.Type = "postgres" }, "journal.type"},
		{"sqlite without path", func(c *Config) { c.Journal.Type = "sqlite" }, "db_path"},
		{"csv without files", func(c *Config) { c.Journal.Type = "csv" }, "csv"},
		{"zero train months", func(c *Config) { c.WalkForward.TrainMonths = 0 }, "walk_forward"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestParseRange(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	start, end, err := cfg.ParseRange()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), end)

	cfg.Range.Start = "2024-01-01T09:30:00Z"
	start, _, err = cfg.ParseRange()
	require.NoError(t, err)
	assert.Equal(t, 9, start.Hour())
}

func TestLoadFromFileYAML(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, "config.yaml", `
account:
  equity: 25000
instruments:
  - EUR_USD
  - GBP_JPY
range:
  start: "2023-01-01"
  end: "2023-12-31"
risk:
  risk_pct: 0.02
journal:
  type: sqlite
  db_path: run.db
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 25000.0, cfg.Account.Equity)
	assert.Equal(t, []string{"EUR_USD", "GBP_JPY"}, cfg.Instruments)
	assert.Equal(t, 0.02, cfg.Risk.RiskPct)
	assert.Equal(t, "sqlite", cfg.Journal.Type)
	// Untouched fields keep their defaults.
	assert.Equal(t, 7.0, cfg.Costs.CommissionPerLotRT)
	assert.Equal(t, "momentum", cfg.Strategy)
}

func TestLoadFromFileJSON(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, "config.json", `{
  "account": {"equity": 50000},
  "instruments": ["USD_CHF"],
  "range": {"start": "2023-01-01", "end": "2023-06-30"},
  "strategy": "noop"
}`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 50000.0, cfg.Account.Equity)
	assert.Equal(t, "noop", cfg.Strategy)
}

func TestLoadFromFileErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	bad := writeTemp(t, "bad.yaml", "account: [not a mapping")
	_, err = LoadFromFile(bad)
	assert.Error(t, err)

	invalid := writeTemp(t, "invalid.yaml", `
instruments: [EUR_USD]
range: {start: "2024-01-01", end: "2024-06-30"}
account: {equity: -1}
`)
	_, err = LoadFromFile(invalid)
	assert.ErrorContains(t, err, "invalid config")
}
