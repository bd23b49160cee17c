package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/market"
)

func newLongTrade(id string, entry, stop float64, at time.Time) *Trade {
	return &Trade{
		ID:              id,
		Instrument:      "EUR_USD",
		Side:            market.Long,
		Strategy:        "momentum",
		EntryPrice:      entry,
		StopPrice:       stop,
		EntryTime:       at,
		Lots:            1.0,
		InitialRiskPips: (entry - stop) / market.PipSize("EUR_USD"),
		PartialFraction: 0.70,
	}
}

func TestOpenTradeDeductsCommission(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	a := NewAccount(10000, DefaultCosts, nil)

	tr := newLongTrade("t1", 1.1000, 1.0900, at)
	a.OpenTrade(tr)

	assert.Equal(t, 7.0, tr.Commission)
	assert.Equal(t, 9993.0, a.Equity)
	assert.Equal(t, 1, a.DailyTradeCount)
	assert.Equal(t, PhaseOpen, tr.Phase)
	require.Len(t, a.EquityHistory(), 1)
	assert.Equal(t, at, a.EquityHistory()[0].Time)
}

func TestCloseTradeFullLoserAtStop(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	a := NewAccount(10000, ZeroCosts, nil)

	tr := newLongTrade("t1", 1.1000, 1.0900, at)
	a.OpenTrade(tr)
	a.CloseTrade(tr, 1.0900, at.Add(time.Hour), ReasonStopLoss)

	assert.Equal(t, PhaseClosed, tr.Phase)
	assert.InDelta(t, -1.0, tr.TotalR, 1e-12)
	// 100 pips against, $10/pip/lot.
	assert.InDelta(t, -1000.0, tr.PnL, 1e-9)
	assert.InDelta(t, 9000.0, a.Equity, 1e-9)
	assert.InDelta(t, 1.0, a.DailyRUsed, 1e-12)
	assert.Empty(t, a.OpenTrades())
	require.Len(t, a.ClosedTrades(), 1)
}

func TestCloseTradeBlendsPartialAndRunnerLegs(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	a := NewAccount(10000, ZeroCosts, nil)

	tr := newLongTrade("t1", 1.1000, 1.0900, at)
	a.OpenTrade(tr)

	// Partial leg at 1.5R; ATR narrow enough that the half-risk floor sets
	// the trailing distance.
	a.ApplyPartialExit(tr, 1.1150, at.Add(2*time.Hour), 0.0020)
	require.Equal(t, PhaseRunner, tr.Phase)
	assert.InDelta(t, 1.5, tr.PartialR, 1e-12)
	assert.InDelta(t, 1.1100, tr.TrailingStop, 1e-9)
	assert.Equal(t, 0.0020, tr.ATRAtPartial)
	// Equity settles once, on full close.
	assert.Equal(t, 10000.0, a.Equity)

	a.CloseTrade(tr, 1.1250, at.Add(5*time.Hour), ReasonTrailingStop)

	assert.InDelta(t, 2.5, tr.RunnerR, 1e-12)
	// 0.70×1.5 + 0.30×2.5
	assert.InDelta(t, 1.8, tr.TotalR, 1e-12)
	// 0.70×150 pips + 0.30×250 pips, $10/pip/lot.
	assert.InDelta(t, 1800.0, tr.PnL, 1e-9)
	assert.InDelta(t, 11800.0, a.Equity, 1e-9)
	// Winners never touch the daily risk counter.
	assert.Zero(t, a.DailyRUsed)
}

func TestCloseTradeNegativeRWeightedByClosedFraction(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	a := NewAccount(10000, ZeroCosts, nil)

	tr := newLongTrade("t1", 1.1000, 1.0900, at)
	a.OpenTrade(tr)

	// Both legs close underwater; the daily counter only charges the
	// fraction of size actually closed at a loss.
	a.ApplyPartialExit(tr, 1.0950, at.Add(time.Hour), 0.0020)
	a.CloseTrade(tr, 1.0900, at.Add(2*time.Hour), ReasonStopLoss)

	assert.InDelta(t, -0.5, tr.PartialR, 1e-12)
	assert.InDelta(t, -1.0, tr.RunnerR, 1e-12)
	assert.InDelta(t, -0.65, tr.TotalR, 1e-12)
	assert.InDelta(t, 0.65*0.70, a.DailyRUsed, 1e-12)
}

func TestCloseTradeBooksGrossPnLOverCommission(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	a := NewAccount(10000, DefaultCosts, nil)

	tr := newLongTrade("t1", 1.1000, 1.0900, at)
	a.OpenTrade(tr)
	require.Equal(t, 9993.0, a.Equity)

	// Nominal exit at entry; slippage costs one pip, commission is already
	// inside PnL, so equity moves by exactly the gross price PnL.
	a.CloseTrade(tr, 1.1000, at.Add(time.Hour), ReasonDeterioration)

	assert.InDelta(t, 1.0999, tr.ClosePrice, 1e-9)
	assert.InDelta(t, -17.0, tr.PnL, 1e-9) // -1 pip × $10 - $7 commission
	assert.InDelta(t, 9983.0, a.Equity, 1e-9)
}

func TestCloseTradeWeekendFlag(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 8, 21, 45, 0, 0, time.UTC)
	a := NewAccount(10000, ZeroCosts, nil)

	tr := newLongTrade("t1", 1.1000, 1.0900, at)
	a.OpenTrade(tr)
	a.CloseTrade(tr, 1.1020, at.Add(10*time.Minute), ReasonWeekendClose)

	assert.True(t, tr.WeekendClose)
	assert.Equal(t, ReasonWeekendClose, tr.CloseReason)
}

func TestDailyCapAndReset(t *testing.T) {
	t.Parallel()

	a := NewAccount(10000, ZeroCosts, nil)
	day1 := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	assert.True(t, a.ResetDailyIfNeeded(day1))
	assert.False(t, a.ResetDailyIfNeeded(day1.Add(5*time.Hour)))

	a.DailyRUsed = 1.9
	assert.False(t, a.DailyCapHit())
	a.DailyRUsed = 2.0
	assert.True(t, a.DailyCapHit())

	// New UTC day clears both counters.
	a.DailyTradeCount = 4
	assert.True(t, a.ResetDailyIfNeeded(day1.Add(24*time.Hour)))
	assert.Zero(t, a.DailyRUsed)
	assert.Zero(t, a.DailyTradeCount)
	assert.False(t, a.DailyCapHit())
}

func TestMaxDrawdownPct(t *testing.T) {
	t.Parallel()

	a := NewAccount(10000, ZeroCosts, nil)
	at := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	assert.Zero(t, a.MaxDrawdownPct())

	// Run up to 12000, fall to 9000: 25% off the peak.
	for i, eq := range []float64{11000, 12000, 10500, 9000, 11500} {
		a.Equity = eq
		a.recordEquity(at.Add(time.Duration(i) * time.Hour))
	}
	assert.InDelta(t, 25.0, a.MaxDrawdownPct(), 1e-9)
}

func TestSnapshotAndOpenTradesOn(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	a := NewAccount(10000, ZeroCosts, nil)

	eur := newLongTrade("t1", 1.1000, 1.0900, at)
	gbp := newLongTrade("t2", 1.2700, 1.2600, at)
	gbp.Instrument = "GBP_USD"
	a.OpenTrade(eur)
	a.OpenTrade(gbp)

	snap := a.Snapshot()
	assert.Equal(t, 10000.0, snap.Equity)
	assert.Equal(t, 2, snap.DailyTradeCount)
	require.Len(t, snap.OpenPositions, 2)
	assert.Equal(t, "EUR_USD", snap.OpenPositions[0].Instrument)
	assert.Equal(t, market.Long, snap.OpenPositions[0].Side)

	onEUR := a.OpenTradesOn("EUR_USD")
	require.Len(t, onEUR, 1)
	assert.Same(t, eur, onEUR[0])
	assert.Empty(t, a.OpenTradesOn("USD_JPY"))
}
