package regime

import (
	"math"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

// Modifier layer: three short-horizon components on 1H candles, each
// scoring +5 / 0 / -5. The sum is clamped to [-15, +15] so the modifier can
// nudge but never override the structural classification.

// BBWidthScore: Bollinger width expanding past its 80th percentile while
// rising → +5; squeezed into the lowest 20th percentile → -5.
func BBWidthScore(h1 []market.Candle) int {
	const (
		period           = 20
		percentileWindow = 100
	)
	if len(h1) < period+percentileWindow {
		return 0
	}
	width := indicators.BBWidthSeries(h1, period, 2.0)
	current := width[len(width)-1]
	recent := width[len(width)-percentileWindow:]

	p20 := indicators.Quantile(recent, 0.20)
	p80 := indicators.Quantile(recent, 0.80)
	rising := current > width[len(width)-3]

	switch {
	case current >= p80 && rising:
		return 5
	case current <= p20:
		return -5
	default:
		return 0
	}
}

// ADXAccelerationScore: ADX slope over the last 5 bars. More than 0.2
// points/bar up → +5, collapsing faster than -0.2 → -5.
func ADXAccelerationScore(h1 []market.Candle) int {
	const (
		period    = 14
		slopeBars = 5
	)
	if len(h1) < period*3+slopeBars {
		return 0
	}
	adx := indicators.ADXSeries(h1, period)
	recent := adx[len(adx)-slopeBars:]
	slope := (recent[len(recent)-1] - recent[0]) / float64(slopeBars)

	switch {
	case slope > 0.2:
		return 5
	case slope < -0.2:
		return -5
	default:
		return 0
	}
}

// AccelerationAlignmentScore compares the base-quote strength differential
// now against lookback bars ago on the 1H grid. A widening differential
// (momentum) → +5, rapid narrowing or rotation → -5.
func AccelerationAlignmentScore(grid map[string][]market.Candle, meta market.InstrumentMeta) int {
	const lookback = 10
	if len(grid) < 3 {
		return 0
	}

	current := currencyScores(grid, lookback, 0)
	previous := currencyScores(grid, lookback, lookback)

	curBase, okB := current[meta.BaseCurrency]
	curQuote, okQ := current[meta.QuoteCurrency]
	if !okB || !okQ {
		return 0
	}

	currDiff := curBase - curQuote
	prevDiff := previous[meta.BaseCurrency] - previous[meta.QuoteCurrency]

	switch {
	case math.Abs(currDiff) > math.Abs(prevDiff)*1.1:
		return 5
	case math.Abs(currDiff) < math.Abs(prevDiff)*0.7:
		return -5
	default:
		return 0
	}
}

// ModifierScore sums the three components, clamped to [-15, +15].
func ModifierScore(h1 []market.Candle, grid map[string][]market.Candle, meta market.InstrumentMeta) int {
	m := BBWidthScore(h1) + ADXAccelerationScore(h1) + AccelerationAlignmentScore(grid, meta)
	return clampInt(m, -15, 15)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
