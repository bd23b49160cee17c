package regime

import (
	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

// Structural layer: five components on 4H candles, each scoring 0/10/20.
// Insufficient history scores a component 0 (alignment defaults to 10, since
// a thin cross-instrument grid says nothing either way).

// ADXStrengthScore: ADX(14) level plus slope.
// ADX > 25 and rising → 20, ADX ≥ 20 → 10, ADX < 18 → 0, 18-20 zone → 10.
func ADXStrengthScore(h4 []market.Candle) int {
	const period = 14
	if len(h4) < period*3 {
		return 0
	}
	adx := indicators.ADXSeries(h4, period)
	current := adx[len(adx)-1]
	rising := current > adx[len(adx)-3]

	switch {
	case current > 25 && rising:
		return 20
	case current >= 20:
		return 10
	case current < 18:
		return 0
	default:
		return 10
	}
}

// MarketStructureScore counts confirmed higher-high/higher-low (or
// lower-low/lower-high) sequences from 3-bar pivots over the last
// lookback bars. A clean one-sided sequence of ≥3 scores 20, any dominant
// pair scores 10, chop scores 0.
func MarketStructureScore(h4 []market.Candle) int {
	const lookback = 20
	if len(h4) < lookback+2 {
		return 0
	}
	window := h4[len(h4)-(lookback+2):]

	var pivotHighs, pivotLows []float64
	for i := 1; i < len(window)-1; i++ {
		if window[i].High > window[i-1].High && window[i].High > window[i+1].High {
			pivotHighs = append(pivotHighs, window[i].High)
		}
		if window[i].Low < window[i-1].Low && window[i].Low < window[i+1].Low {
			pivotLows = append(pivotLows, window[i].Low)
		}
	}

	hhhl := risingPairs(pivotHighs) + risingPairs(pivotLows)
	lllh := fallingPairs(pivotHighs) + fallingPairs(pivotLows)

	dominant, recessive := hhhl, lllh
	if lllh > hhhl {
		dominant, recessive = lllh, hhhl
	}

	switch {
	case dominant >= 3 && recessive <= 1:
		return 20
	case dominant >= 2:
		return 10
	default:
		return 0
	}
}

func risingPairs(levels []float64) int {
	n := 0
	for i := 1; i < len(levels); i++ {
		if levels[i] > levels[i-1] {
			n++
		}
	}
	return n
}

func fallingPairs(levels []float64) int {
	n := 0
	for i := 1; i < len(levels); i++ {
		if levels[i] < levels[i-1] {
			n++
		}
	}
	return n
}

// ATRExpansionScore: current ATR(14) over its 20-bar average.
// Ratio ≥ 1.2 → 20, ≥ 0.9 → 10, below → 0.
func ATRExpansionScore(h4 []market.Candle) int {
	const (
		period    = 14
		avgPeriod = 20
	)
	if len(h4) < period+avgPeriod {
		return 0
	}
	atr := indicators.ATRSeries(h4, period)
	current := atr[len(atr)-1]
	avg := indicators.SMA(atr, avgPeriod)
	if !(avg > 0) {
		return 0
	}

	ratio := current / avg
	switch {
	case ratio >= 1.2:
		return 20
	case ratio >= 0.9:
		return 10
	default:
		return 0
	}
}

// AlignmentScore ranks the instrument's base and quote currencies against
// the whole grid of 4H series using 20-bar returns. Base clearly strong and
// quote clearly weak (or the mirror) scores 20; a thin or inconclusive grid
// defaults to the moderate 10.
func AlignmentScore(grid map[string][]market.Candle, meta market.InstrumentMeta) int {
	const lookback = 20
	if len(grid) < 3 {
		return 10
	}

	scores := currencyScores(grid, lookback, 0)
	base, okB := scores[meta.BaseCurrency]
	quote, okQ := scores[meta.QuoteCurrency]
	if !okB || !okQ {
		return 10
	}

	n := len(scores)
	baseRank, quoteRank := 0, 0
	for _, v := range scores {
		if base > v {
			baseRank++
		}
		if quote < v {
			quoteRank++
		}
	}
	alignment := (float64(baseRank)/float64(n) + float64(quoteRank)/float64(n)) / 2

	switch {
	case alignment >= 0.70:
		return 20
	case alignment >= 0.40:
		return 10
	default:
		return 0
	}
}

// currencyScores accumulates a relative-strength score per currency from
// each grid pair's lookback-bar return, ending offset bars back from the
// latest close. Pairs with too little history are skipped.
func currencyScores(grid map[string][]market.Candle, lookback, offset int) map[string]float64 {
	scores := make(map[string]float64)
	for name, candles := range grid {
		meta, ok := market.Instruments[name]
		if !ok {
			continue
		}
		last := len(candles) - 1 - offset
		first := last - lookback
		if first < 0 || last < 1 {
			continue
		}
		prev := candles[first].Close
		if prev == 0 {
			continue
		}
		ret := (candles[last].Close - prev) / prev
		scores[meta.BaseCurrency] += ret
		scores[meta.QuoteCurrency] -= ret
	}
	return scores
}

// TrendPersistenceScore: fraction of the last 20 closes on one side of the
// EMA200. ≥ 70% one-sided → 20, ≥ 50% → 10, whipsaw → 0.
func TrendPersistenceScore(h4 []market.Candle) int {
	const (
		emaPeriod = 200
		lookback  = 20
	)
	if len(h4) < emaPeriod+lookback {
		return 0
	}
	ema := indicators.EMASeries(indicators.Closes(h4), emaPeriod)

	above, below := 0, 0
	for i := len(h4) - lookback; i < len(h4); i++ {
		switch {
		case h4[i].Close > ema[i]:
			above++
		case h4[i].Close < ema[i]:
			below++
		}
	}
	dominant := above
	if below > above {
		dominant = below
	}
	pct := float64(dominant) / float64(lookback)

	switch {
	case pct >= 0.70:
		return 20
	case pct >= 0.50:
		return 10
	default:
		return 0
	}
}
