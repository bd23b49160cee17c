package sim

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/exits"
	"github.com/rustyeddy/backtester/market"
)

// DefaultDailyLossCapR is the daily realized-loss cap in R; reaching it
// force-closes everything and blocks new entries until the UTC day rolls.
const DefaultDailyLossCapR = 2.0

// EquityPoint is one (timestamp, equity) sample. Samples are recorded on
// every state-changing event and deduplicated when the curve is built.
type EquityPoint struct {
	Time   time.Time
	Equity float64
}

// PositionSummary is the read-only view of one open position exposed to
// strategies through the account snapshot.
type PositionSummary struct {
	Instrument string
	Side       market.Side
	Strategy   string
	EntryPrice float64
	Lots       float64
}

// AccountState is the immutable snapshot strategies receive so they can
// self-limit; it never exposes the live trade set.
type AccountState struct {
	Equity          float64
	OpenPositions   []PositionSummary
	DailyRUsed      float64
	DailyTradeCount int
}

// Account owns the open-trade set, the append-only closed log, realized
// equity, and the daily risk counters. It is the only component allowed to
// mutate Trade state after open, and it is single-owner: one Account per
// replay, never shared.
//
// Equity strictly reflects realized PnL net of commission; unrealized PnL
// of open trades is never included.
type Account struct {
	InitialEquity float64
	Equity        float64

	DailyRUsed      float64
	DailyTradeCount int

	Costs        CostModel
	DailyLossCap float64

	openTrades   []*Trade
	closedTrades []*Trade
	history      []EquityPoint
	lastResetDay time.Time

	log *zap.Logger
}

// NewAccount returns an Account with the given starting equity and cost
// model. A nil logger disables debug logging.
func NewAccount(initialEquity float64, costs CostModel, log *zap.Logger) *Account {
	if log == nil {
		log = zap.NewNop()
	}
	return &Account{
		InitialEquity: initialEquity,
		Equity:        initialEquity,
		Costs:         costs,
		DailyLossCap:  DefaultDailyLossCapR,
		log:           log,
	}
}

// OpenTrades returns the live trades. Callers must not mutate them.
func (a *Account) OpenTrades() []*Trade { return a.openTrades }

// ClosedTrades returns the append-only closed log.
func (a *Account) ClosedTrades() []*Trade { return a.closedTrades }

// EquityHistory returns every recorded equity sample in event order.
func (a *Account) EquityHistory() []EquityPoint { return a.history }

// OpenTradesOn returns the live trades for one instrument.
func (a *Account) OpenTradesOn(instrument string) []*Trade {
	var out []*Trade
	for _, t := range a.openTrades {
		if t.Instrument == instrument {
			out = append(out, t)
		}
	}
	return out
}

// Snapshot builds the read-only account view passed to strategies.
func (a *Account) Snapshot() AccountState {
	positions := make([]PositionSummary, 0, len(a.openTrades))
	for _, t := range a.openTrades {
		positions = append(positions, PositionSummary{
			Instrument: t.Instrument,
			Side:       t.Side,
			Strategy:   t.Strategy,
			EntryPrice: t.EntryPrice,
			Lots:       t.Lots,
		})
	}
	return AccountState{
		Equity:          a.Equity,
		OpenPositions:   positions,
		DailyRUsed:      a.DailyRUsed,
		DailyTradeCount: a.DailyTradeCount,
	}
}

// OpenTrade registers a new trade, deducts the round-trip commission from
// equity immediately, bumps the daily trade counter, and records an equity
// sample at entry time.
func (a *Account) OpenTrade(t *Trade) {
	commission := a.Costs.Commission(t.Lots)
	t.Commission = commission
	t.Phase = PhaseOpen
	a.Equity -= commission
	a.DailyTradeCount++
	a.openTrades = append(a.openTrades, t)
	a.recordEquity(t.EntryTime)
	a.log.Debug("trade opened",
		zap.String("trade", t.ID),
		zap.String("instrument", t.Instrument),
		zap.Stringer("side", t.Side),
		zap.Float64("entry", t.EntryPrice),
		zap.Float64("lots", t.Lots),
		zap.Float64("commission", commission),
	)
}

// ApplyPartialExit closes the partial fraction at the 1.5R level, freezes
// that leg's R-multiple, initialises the trailing stop, and moves the trade
// to the runner phase. Equity is untouched: PnL settles once, on full close.
func (a *Account) ApplyPartialExit(t *Trade, price float64, at time.Time, atr float64) {
	slipped := a.Costs.ExitPrice(price, t.Side, t.Instrument)

	t.PartialR = exits.RMultiple(t.EntryPrice, slipped, t.StopPrice, t.Side)
	t.PartialExitPrice = slipped
	t.PartialExitTime = at
	t.ATRAtPartial = atr
	t.TrailingStop = exits.InitialTrailingStop(t.EntryPrice, t.StopPrice, t.Side, atr, t.Instrument)
	t.Phase = PhaseRunner

	a.log.Debug("partial exit",
		zap.String("trade", t.ID),
		zap.Float64("price", slipped),
		zap.Float64("r", t.PartialR),
		zap.Float64("trailing_stop", t.TrailingStop),
	)
}

// UpdateTrailingStop advances a runner's trailing stop toward a new price
// extreme. The stop only ever tightens.
func (a *Account) UpdateTrailingStop(t *Trade, barExtreme, atr float64) {
	if t.Phase != PhaseRunner {
		return
	}
	t.TrailingStop = exits.UpdateTrailingStop(
		barExtreme, t.TrailingStop, t.Side, atr, t.InitialRiskPips, t.Instrument,
	)
}

// CloseTrade closes the trade (the runner leg, if a partial exit fired) and
// settles PnL. The total R-multiple is the size-weighted blend of the
// partial and runner legs; PnL converts R legs to dollars through the flat
// pip-value approximation. Negative-R outcomes accumulate into the daily
// risk counter, weighted by the fraction of size closed at a loss.
func (a *Account) CloseTrade(t *Trade, price float64, at time.Time, reason string) {
	slipped := a.Costs.ExitPrice(price, t.Side, t.Instrument)
	t.ClosePrice = slipped
	t.CloseTime = at
	t.CloseReason = reason
	t.WeekendClose = reason == ReasonWeekendClose
	t.Phase = PhaseClosed

	pip := market.PipSize(t.Instrument)
	pipValue := market.PipValueUSD(t.Instrument)

	runnerR := exits.RMultiple(t.EntryPrice, slipped, t.StopPrice, t.Side)
	t.RunnerR = runnerR

	if t.HadPartialExit() {
		runnerFrac := 1.0 - t.PartialFraction
		t.TotalR = t.PartialFraction*t.PartialR + runnerFrac*runnerR

		partialPips := signedPips(t.EntryPrice, t.PartialExitPrice, t.Side, pip)
		runnerPips := signedPips(t.EntryPrice, slipped, t.Side, pip)
		t.PnL = t.Lots*t.PartialFraction*partialPips*pipValue +
			t.Lots*runnerFrac*runnerPips*pipValue -
			t.Commission
	} else {
		t.TotalR = runnerR
		closePips := signedPips(t.EntryPrice, slipped, t.Side, pip)
		t.PnL = t.Lots*closePips*pipValue - t.Commission
	}

	// Commission came out of equity at open and PnL is net of it, so adding
	// it back here books exactly the gross PnL.
	a.Equity += t.PnL + t.Commission

	if t.TotalR < 0 {
		loss := t.TotalR
		if t.HadPartialExit() {
			loss *= t.PartialFraction
		}
		a.DailyRUsed += math.Abs(loss)
	}

	a.removeOpen(t)
	a.closedTrades = append(a.closedTrades, t)
	a.recordEquity(at)

	a.log.Debug("trade closed",
		zap.String("trade", t.ID),
		zap.String("reason", reason),
		zap.Float64("r_total", t.TotalR),
		zap.Float64("pnl", t.PnL),
		zap.Float64("equity", a.Equity),
	)
}

// DailyCapHit reports whether today's realized losses have reached the cap.
func (a *Account) DailyCapHit() bool {
	return a.DailyRUsed >= a.DailyLossCap
}

// ResetDailyIfNeeded zeroes the daily counters when the UTC date has
// advanced. Returns true when a reset occurred.
func (a *Account) ResetDailyIfNeeded(now time.Time) bool {
	day := now.UTC().Truncate(24 * time.Hour)
	if !a.lastResetDay.IsZero() && !day.After(a.lastResetDay) {
		return false
	}
	a.DailyRUsed = 0
	a.DailyTradeCount = 0
	a.lastResetDay = day
	return true
}

// MaxDrawdownPct is the peak-to-trough drawdown over the full equity
// history, as a percentage of the running peak.
func (a *Account) MaxDrawdownPct() float64 {
	if len(a.history) == 0 {
		return 0
	}
	peak := a.InitialEquity
	maxDD := 0.0
	for _, p := range a.history {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - p.Equity) / peak
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD * 100
}

func (a *Account) removeOpen(t *Trade) {
	for i, open := range a.openTrades {
		if open == t {
			a.openTrades = append(a.openTrades[:i], a.openTrades[i+1:]...)
			return
		}
	}
}

func (a *Account) recordEquity(at time.Time) {
	a.history = append(a.history, EquityPoint{Time: at, Equity: a.Equity})
}

// signedPips converts a price move into pips, positive when in the trade's
// favor.
func signedPips(entry, exit float64, side market.Side, pip float64) float64 {
	if side == market.Long {
		return (exit - entry) / pip
	}
	return (entry - exit) / pip
}
