package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/risk"
	"github.com/rustyeddy/backtester/sim"
)

func TestGenerateCyclesTiling(t *testing.T) {
	t.Parallel()

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	cycles := GenerateCycles(start, end, 4, 2)
	require.Len(t, cycles, 4) // 24 months / (4 train + 2 test)

	first := cycles[0]
	assert.Equal(t, 1, first.Num)
	assert.Equal(t, start, first.TrainStart)
	assert.Equal(t, time.Date(2023, 4, 30, 0, 0, 0, 0, time.UTC), first.TrainEnd)
	assert.Equal(t, time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC), first.TestStart)
	assert.Equal(t, time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC), first.TestEnd)

	// Consecutive cycles tile without gap or overlap.
	for i := 1; i < len(cycles); i++ {
		assert.Equal(t, cycles[i-1].TestEnd.AddDate(0, 0, 1), cycles[i].TrainStart)
	}
	assert.False(t, cycles[len(cycles)-1].TestEnd.After(end))
}

func TestGenerateCyclesTooShort(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Empty(t, GenerateCycles(start, start.AddDate(0, 5, 0), 4, 2))
}

func TestGenerateCyclesDefaults(t *testing.T) {
	t.Parallel()

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 12, 0)
	withZero := GenerateCycles(start, end, 0, 0)
	explicit := GenerateCycles(start, end, DefaultTrainMonths, DefaultTestMonths)
	assert.Equal(t, explicit, withZero)
}

func TestWalkForwardCarriesEquityAcrossCycles(t *testing.T) {
	t.Parallel()

	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 12, 0)

	// One stop-out per cycle: a losing bar placed in each test window,
	// quiet warmup bars before it.
	bars := quietSeries(start, 40)
	cycles := GenerateCycles(start, end, 4, 2)
	require.NotEmpty(t, cycles)
	for _, c := range cycles {
		at := c.TestStart.AddDate(0, 0, 14).Add(9 * time.Hour) // mid-window weekday-ish
		for at.Weekday() == time.Saturday || at.Weekday() == time.Sunday || at.Weekday() == time.Friday {
			at = at.Add(24 * time.Hour)
		}
		bars = append(bars, quietSeries(at, 8)...)
		stop := quietBar(at.Add(8 * time.Minute))
		stop.Low = 1.0850
		bars = append(bars, stop)
	}

	wf := &WalkForward{
		Cfg: Config{
			Instruments: []string{"EUR_USD"},
			Bars:        map[string][]market.RangeBar{"EUR_USD": bars},
			Strategy:    fixedStrategy{entry: 1.1000, stop: 1.0900},
			Costs:       sim.ZeroCosts,
			Policy:      risk.DefaultPolicy(),
			MinBars:     5,
			DailyCapR:   1.0,
		},
		TrainMonths: 4,
		TestMonths:  2,
	}

	res, err := wf.Run(start, end, 10000)
	require.NoError(t, err)

	require.Len(t, res.Cycles, len(cycles))
	assert.Equal(t, 10000.0, res.InitialEquity)

	// Every cycle lost money out of sample, so none pass and equity only
	// falls.
	assert.Zero(t, res.CyclesPassed())
	assert.Less(t, res.FinalEquity, res.InitialEquity)
	assert.Negative(t, res.NetProfit())

	// The chain is contiguous: each cycle starts where the previous ended.
	for i := 1; i < len(res.Cycles); i++ {
		assert.Equal(t, res.Cycles[i-1].EndEquity, res.Cycles[i].StartEquity)
	}
	assert.Equal(t, res.Cycles[len(res.Cycles)-1].EndEquity, res.FinalEquity)

	// Test trades are only those entered inside the test window.
	for _, c := range res.Cycles {
		for _, tr := range c.TestTrades {
			assert.False(t, tr.EntryTime.Before(c.TestStart))
		}
	}
}

func TestWalkForwardRejectsShortSpan(t *testing.T) {
	t.Parallel()

	wf := &WalkForward{
		Cfg: Config{
			Instruments: []string{"EUR_USD"},
			Bars:        map[string][]market.RangeBar{},
			Strategy:    fixedStrategy{entry: 1.1000, stop: 1.0900},
		},
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := wf.Run(start, start.AddDate(0, 3, 0), 10000)
	assert.ErrorContains(t, err, "no walk-forward cycles")
}
