// Package sim holds the trade lifecycle state machine and the account
// ledger that owns all trade mutation during a replay.
package sim

import (
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/regime"
)

// Phase is the trade state machine:
//
//	open   -> monitoring the original stop and the 1.5R partial target
//	runner -> partial exit fired; trailing stop governs the remainder
//	closed -> terminal
//
// Transitions never go backward.
type Phase string

const (
	PhaseOpen   Phase = "open"
	PhaseRunner Phase = "runner"
	PhaseClosed Phase = "closed"
)

// Close reasons recorded on terminal trades.
const (
	ReasonStopLoss      = "SL_HIT"
	ReasonTrailingStop  = "CHANDELIER_HIT"
	ReasonDeterioration = "REGIME_DETERIORATION"
	ReasonDailyCap      = "2R_CAP"
	ReasonWeekendClose  = "WEEKEND_CLOSE"
)

// Trade is the per-position state. Identity, entry parameters, and the
// regime snapshot are immutable after open; everything mutable is written
// exclusively by Account methods.
type Trade struct {
	ID         string
	Instrument string
	Side       market.Side
	Strategy   string

	// Entry, fixed at open (entry price already slippage-adjusted).
	EntryPrice      float64
	StopPrice       float64
	EntryTime       time.Time
	Lots            float64
	InitialRiskPips float64

	// Regime snapshot frozen at entry; never recomputed.
	CompositeScore  float64
	Regime          regime.Regime
	Layers          regime.Breakdown
	PartialFraction float64

	Phase Phase

	// Runner leg, set when the partial exit fires.
	PartialExitPrice float64
	PartialExitTime  time.Time
	PartialR         float64
	TrailingStop     float64
	ATRAtPartial     float64

	// Terminal state.
	ClosePrice   float64
	CloseTime    time.Time
	CloseReason  string
	WeekendClose bool
	RunnerR      float64
	TotalR       float64
	PnL          float64
	Commission   float64
}

func (t *Trade) IsOpen() bool {
	return t.Phase == PhaseOpen || t.Phase == PhaseRunner
}

func (t *Trade) IsClosed() bool {
	return t.Phase == PhaseClosed
}

// HadPartialExit reports whether the 1.5R leg fired before close.
func (t *Trade) HadPartialExit() bool {
	return !t.PartialExitTime.IsZero()
}
