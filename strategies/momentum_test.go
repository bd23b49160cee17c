package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/backtester/market"
)

// staircase builds bars stepping in one direction, each with a higher (or
// lower) high and low than the one before.
func staircase(n int, base, step float64) []market.RangeBar {
	bars := make([]market.RangeBar, n)
	price := base
	for i := range bars {
		bars[i] = market.RangeBar{
			Open:  price,
			High:  price + 0.0010,
			Low:   price - 0.0010,
			Close: price + step*0.8,
		}
		price += step
	}
	return bars
}

func TestMomentumIgnoresWeakRegimes(t *testing.T) {
	t.Parallel()

	m := NewMomentum()
	d := m.Analyze(Context{Instrument: "EUR_USD", CompositeScore: 69.9})
	_, ok := d.Signal()
	assert.False(t, ok)
}

func TestMomentumNeedsHistory(t *testing.T) {
	t.Parallel()

	m := NewMomentum()
	d := m.Analyze(Context{
		Instrument:     "EUR_USD",
		CompositeScore: 80,
		Bars:           staircase(10, 1.1000, 0.0010),
	})
	_, ok := d.Signal()
	assert.False(t, ok)
}

func TestStaircaseDepth(t *testing.T) {
	t.Parallel()

	m := NewMomentum()

	rising := staircase(10, 1.1000, 0.0010)
	assert.GreaterOrEqual(t, m.staircaseDepth(rising, market.Long), 5)
	assert.Equal(t, 0, m.staircaseDepth(rising, market.Short))

	falling := staircase(10, 1.1000, -0.0010)
	assert.GreaterOrEqual(t, m.staircaseDepth(falling, market.Short), 5)

	// A broken staircase resets the run.
	broken := staircase(10, 1.1000, 0.0010)
	broken[5].High = broken[4].High - 0.0001
	broken[5].Low = broken[4].Low - 0.0001
	depth := m.staircaseDepth(broken, market.Long)
	assert.Less(t, depth, 5)
}

func TestPullbackEntryLong(t *testing.T) {
	t.Parallel()

	m := NewMomentum()
	bars := staircase(10, 1.1000, 0.0010)

	// Previous bar pulls back, last bar resumes upward.
	bars[8] = market.RangeBar{Open: 1.1090, High: 1.1092, Low: 1.1075, Close: 1.1078}
	bars[9] = market.RangeBar{Open: 1.1078, High: 1.1098, Low: 1.1077, Close: 1.1095}

	entry, stop, ok := m.pullbackEntry(bars, market.Long)
	assert.True(t, ok)
	assert.Equal(t, 1.1095, entry)
	assert.Equal(t, 1.1075, stop) // pullback bar's low

	// No pullback before the resumption bar: no setup.
	entry, stop, ok = m.pullbackEntry(staircase(10, 1.1000, 0.0010), market.Long)
	assert.False(t, ok)
	assert.Zero(t, entry)
	assert.Zero(t, stop)
}

func TestPullbackEntryShort(t *testing.T) {
	t.Parallel()

	m := NewMomentum()
	bars := staircase(10, 1.1000, -0.0010)

	// Counter-trend bounce, then a bearish resumption bar.
	bars[8] = market.RangeBar{Open: 1.0910, High: 1.0930, Low: 1.0908, Close: 1.0928}
	bars[9] = market.RangeBar{Open: 1.0928, High: 1.0929, Low: 1.0905, Close: 1.0908}

	entry, stop, ok := m.pullbackEntry(bars, market.Short)
	assert.True(t, ok)
	assert.Equal(t, 1.0908, entry)
	assert.Equal(t, 1.0930, stop) // bounce bar's high
}

func TestMomentumScoreDeclineFilter(t *testing.T) {
	t.Parallel()

	m := NewMomentum()

	// Trend and staircase qualify, but the composite score sits below its
	// level five bars ago, so the setup is already deteriorating.
	ctx := Context{
		Instrument:     "EUR_USD",
		CompositeScore: 72,
		Bars:           staircase(25, 1.1000, 0.0010),
		H1:             make([]market.Candle, 220),
		ScoreHistory:   []float64{80, 79, 78, 77, 76, 75, 72},
	}
	price := 1.1000
	for i := range ctx.H1 {
		ctx.H1[i] = market.Candle{Open: price, High: price + 0.0005, Low: price - 0.0005, Close: price + 0.0003}
		price += 0.0003
	}

	d := m.Analyze(ctx)
	_, ok := d.Signal()
	assert.False(t, ok)
}
