package regime

import (
	"time"

	"github.com/rustyeddy/backtester/market"
)

// Micro layer: bar-formation speed and directional-run quality on the
// native range-bar series, 0-20 combined.

// Default bars-per-hour thresholds for SpeedScore; calibrated per bar size
// upstream, these suit 10-20 pip bars.
const (
	DefaultSpeedHighPerHour = 3
	DefaultSpeedSlowPerHour = 1
)

// SpeedScore counts how many bars completed in the hour ending at the last
// bar. Fast formation means active, directional tape.
// ≥ high → 10, ≥ slow → 5, stalled → 0. Too few bars defaults to 5.
func SpeedScore(bars []market.RangeBar, highPerHour, slowPerHour int) int {
	if len(bars) < 2 {
		return 5
	}
	windowStart := bars[len(bars)-1].EndTime.Add(-time.Hour)
	inWindow := 0
	for _, b := range bars {
		if !b.EndTime.Before(windowStart) {
			inWindow++
		}
	}
	switch {
	case inWindow >= highPerHour:
		return 10
	case inWindow >= slowPerHour:
		return 5
	default:
		return 0
	}
}

// RunQualityScore grades the last 20 bars for directional quality:
// ≥ 70% one direction with at least one pullback sequence → 10 (strong),
// ≥ 50% one direction → 5 (mixed), alternating chop → 0.
// Too few bars defaults to the mixed 5.
func RunQualityScore(bars []market.RangeBar) int {
	const lookback = 20
	if len(bars) < lookback {
		return 5
	}
	recent := bars[len(bars)-lookback:]

	bullish := make([]bool, len(recent))
	up, down := 0, 0
	for i, b := range recent {
		bullish[i] = b.Close > b.Open
		switch {
		case b.Close > b.Open:
			up++
		case b.Close < b.Open:
			down++
		}
	}

	dominant := up
	if down > up {
		dominant = down
	}
	pct := float64(dominant) / float64(len(recent))
	if pct < 0.5 {
		return 0
	}

	switch {
	case pct >= 0.70 && hasPullback(bullish, up >= down):
		return 10
	case pct >= 0.50:
		return 5
	default:
		return 0
	}
}

// hasPullback reports whether the dominant direction's runs are broken by
// at least one short counter-direction sequence, the signature of a healthy
// trend rather than a one-way spike.
func hasPullback(bullish []bool, dominantBullish bool) bool {
	inRun := false
	pullbacks := 0
	for _, b := range bullish {
		withTrend := b == dominantBullish
		if withTrend {
			inRun = true
		} else if inRun {
			pullbacks++
			inRun = false
		}
	}
	return pullbacks >= 1
}
