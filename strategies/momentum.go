package strategies

import (
	"math"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/regime"
	"github.com/rustyeddy/backtester/risk"
)

func init() {
	Register("momentum", func() Strategy { return NewMomentum() })
}

// Momentum trades trend continuation on range bars: a directional staircase
// establishes the impulse, a one-to-two bar pullback followed by a
// resumption bar triggers entry. Active only in the trending regime with
// 1H ADX above 25 and rising.
type Momentum struct {
	MinScore      float64 // composite score floor
	StaircaseBars int     // consecutive HH/HL (or LL/LH) bars required
	ADXThreshold  float64
	ADXSlopeBars  int
	MinStopPips   float64 // skip setups with a tighter structural stop
	momentumBars  int     // composite-score lookback for the decline filter
}

func NewMomentum() *Momentum {
	return &Momentum{
		MinScore:      regime.TrendingMinScore,
		StaircaseBars: 5,
		ADXThreshold:  25.0,
		ADXSlopeBars:  5,
		MinStopPips:   10.0,
		momentumBars:  5,
	}
}

func (m *Momentum) Name() string { return "momentum" }

func (m *Momentum) Analyze(ctx Context) Decision {
	if ctx.CompositeScore < m.MinScore {
		return NoSignal()
	}
	if len(ctx.Bars) < 20 || len(ctx.H1) < 210 {
		return NoSignal()
	}

	side, ok := m.trendDirection(ctx.H1)
	if !ok {
		return NoSignal()
	}
	if m.staircaseDepth(ctx.Bars, side) < m.StaircaseBars {
		return NoSignal()
	}

	// A falling composite score means the trend that qualified this setup
	// is already deteriorating; stand aside.
	if n := len(ctx.ScoreHistory); n > m.momentumBars {
		if ctx.CompositeScore < ctx.ScoreHistory[n-1-m.momentumBars] {
			return NoSignal()
		}
	}

	adx := indicators.ADXSeries(ctx.H1, 14)
	if len(adx) == 0 || len(adx) < m.ADXSlopeBars+1 {
		return NoSignal()
	}
	last := adx[len(adx)-1]
	if last <= m.ADXThreshold || last <= adx[len(adx)-1-m.ADXSlopeBars] {
		return NoSignal()
	}

	entry, stop, ok := m.pullbackEntry(ctx.Bars, side)
	if !ok {
		return NoSignal()
	}

	pip := market.PipSize(ctx.Instrument)
	if math.Abs(entry-stop) < m.MinStopPips*pip {
		return NoSignal()
	}

	gate := risk.Evaluate(ctx.Policy,
		len(ctx.Account.OpenPositions), ctx.Account.DailyTradeCount, entry, stop)
	if !gate.Allowed {
		return Reject(gate.Reason())
	}

	tp := entry + float64(side)*math.Abs(entry-stop)
	return Accept(Signal{
		Instrument:     ctx.Instrument,
		Side:           side,
		Entry:          entry,
		Stop:           stop,
		TP1R:           tp,
		Strategy:       m.Name(),
		CompositeScore: ctx.CompositeScore,
	})
}

// trendDirection classifies the trend from the 1H close against its EMA200.
func (m *Momentum) trendDirection(h1 []market.Candle) (market.Side, bool) {
	ema := indicators.EMASeries(indicators.Closes(h1), 200)
	if len(ema) == 0 {
		return 0, false
	}
	last := h1[len(h1)-1].Close
	ref := ema[len(ema)-1]
	switch {
	case last > ref:
		return market.Long, true
	case last < ref:
		return market.Short, true
	}
	return 0, false
}

// staircaseDepth returns the longest run of consecutive higher-high/
// higher-low bars (or the bearish mirror) in the last 15 bars.
func (m *Momentum) staircaseDepth(bars []market.RangeBar, side market.Side) int {
	const lookback = 15
	start := len(bars) - lookback
	if start < 0 {
		start = 0
	}
	recent := bars[start:]

	consecutive, best := 0, 0
	for i := 1; i < len(recent); i++ {
		up := recent[i].High > recent[i-1].High && recent[i].Low > recent[i-1].Low
		down := recent[i].High < recent[i-1].High && recent[i].Low < recent[i-1].Low
		if (side == market.Long && up) || (side == market.Short && down) {
			consecutive++
			if consecutive > best {
				best = consecutive
			}
		} else {
			consecutive = 0
		}
	}
	return best
}

// pullbackEntry requires the previous bar to be a counter-trend pullback
// and the latest bar a resumption in the trend direction. Entering on the
// resumption close confirms the pullback ended rather than predicting it.
// The stop sits at the pullback bar's structural extreme.
func (m *Momentum) pullbackEntry(bars []market.RangeBar, side market.Side) (entry, stop float64, ok bool) {
	if len(bars) < 2 {
		return 0, 0, false
	}
	last := bars[len(bars)-1]
	prev := bars[len(bars)-2]

	if side == market.Long {
		if last.Close < last.Open || prev.Close >= prev.Open {
			return 0, 0, false
		}
		entry, stop = last.Close, prev.Low
	} else {
		if last.Close > last.Open || prev.Close <= prev.Open {
			return 0, 0, false
		}
		entry, stop = last.Close, prev.High
	}
	if entry == stop {
		return 0, 0, false
	}
	return entry, stop, true
}
