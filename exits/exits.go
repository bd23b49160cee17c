// Package exits holds the staged exit math: the 1.5R partial-exit trigger,
// the regime-aware partial fraction, and the trailing-stop level that only
// ever tightens. Everything here is a pure function of trade parameters; the
// account ledger owns all state.
package exits

import (
	"math"

	"github.com/rustyeddy/backtester/market"
)

// PartialExitR is the R-multiple at which the staged partial exit fires.
const PartialExitR = 1.5

// DefaultDeteriorationDrop is how far the composite score must fall below
// the value frozen at entry before a runner is force-closed.
const DefaultDeteriorationDrop = 40.0

// PartialExitFraction returns the fraction of the position closed at 1.5R,
// from the composite score frozen at entry. First match wins, so exact
// boundary scores resolve to the smaller fraction (85 → 0.70, not 0.60).
//
//	score > 85  → 0.60 (deep trend, keep 40% runner)
//	score ≥ 70  → 0.70
//	score ≥ 30  → 0.75
//	score < 30  → 0.80 (range, keep 20% runner)
func PartialExitFraction(score float64) float64 {
	switch {
	case score > 85:
		return 0.60
	case score >= 70:
		return 0.70
	case score >= 30:
		return 0.75
	default:
		return 0.80
	}
}

// Target1R5 returns the price at which the partial exit fires: 1.5 times the
// entry-to-stop distance beyond entry.
func Target1R5(entry, stop float64, side market.Side) float64 {
	dist := PartialExitR * math.Abs(entry-stop)
	if side == market.Long {
		return entry + dist
	}
	return entry - dist
}

// trailDistance is the common max-of-three trailing distance in price terms:
// half the initial risk, the current ATR, or the instrument pip floor,
// whichever is widest.
func trailDistance(halfRisk, atr float64, instrument string) float64 {
	floor := float64(market.TrailingFloorPips(instrument)) * market.PipSize(instrument)
	return math.Max(halfRisk, math.Max(atr, floor))
}

// InitialTrailingStop returns the first trailing-stop level after a partial
// exit, anchored at the 1.5R trigger price on the risk-reducing side.
func InitialTrailingStop(entry, stop float64, side market.Side, atr float64, instrument string) float64 {
	halfRisk := 0.5 * math.Abs(entry-stop)
	dist := trailDistance(halfRisk, atr, instrument)

	anchor := Target1R5(entry, stop, side)
	if side == market.Long {
		return anchor - dist
	}
	return anchor + dist
}

// UpdateTrailingStop recomputes the trailing stop from a new price extreme
// and clamps it so the stop only moves toward reducing risk. For a long the
// result is never below currentStop; for a short never above it.
func UpdateTrailingStop(newExtreme, currentStop float64, side market.Side, atr, initialRiskPips float64, instrument string) float64 {
	halfRisk := 0.5 * initialRiskPips * market.PipSize(instrument)
	dist := trailDistance(halfRisk, atr, instrument)

	if side == market.Long {
		return math.Max(currentStop, newExtreme-dist)
	}
	return math.Min(currentStop, newExtreme+dist)
}

// RMultiple expresses a trade leg's outcome as a multiple of the original
// risk distance. A leg closed exactly at the original stop yields -1.0.
// A non-positive risk distance returns 0; callers treat that as a
// skip-this-signal condition, never a fatal error.
func RMultiple(entry, exit, stop float64, side market.Side) float64 {
	risk := math.Abs(entry - stop)
	if risk <= 0 {
		return 0
	}
	if side == market.Long {
		return (exit - entry) / risk
	}
	return (entry - exit) / risk
}

// ShouldForceCloseRunner reports whether the current composite score has
// deteriorated far enough below the score frozen at entry that the runner
// leg no longer has regime support.
func ShouldForceCloseRunner(entryScore, currentScore, drop float64) bool {
	return entryScore-currentScore > drop
}

// LockedProfitR is the R locked in by the partial leg at 1.5R.
func LockedProfitR(fraction float64) float64 {
	return fraction * PartialExitR
}
