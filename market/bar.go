// Package market defines the bar and candle types the replay engine consumes,
// plus instrument metadata (pip sizes, trailing-stop floors).
package market

import "time"

// Side: +1 long, -1 short
type Side int8

const (
	Long  Side = +1
	Short Side = -1
)

func (s Side) String() string {
	if s == Short {
		return "SHORT"
	}
	return "LONG"
}

// Candle represents OHLC (Open, High, Low, Close) candlestick data on a fixed
// timeframe (4H and 1H feed the regime scorer).
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// RangeBar is one fixed-range bar produced upstream from tick data.
//
// IsPhantom and IsGapAdjacent mark synthetic bars created when a single tick
// crosses more than one bar boundary; exits on such bars must fill at
// TickBoundaryPrice, the one real observed price, rather than a nominal
// stop or target level.
type RangeBar struct {
	StartTime  time.Time
	EndTime    time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	TickVolume int64

	IsPhantom         bool
	IsGapAdjacent     bool
	TickBoundaryPrice float64
}

// Synthetic reports whether exit fills on this bar must use the tick
// boundary price.
func (b RangeBar) Synthetic() bool {
	return b.IsPhantom || b.IsGapAdjacent
}

// ExitFill returns the price an exit on this bar actually fills at: the
// nominal level for ordinary bars, the tick boundary for synthetic ones.
func (b RangeBar) ExitFill(nominal float64) float64 {
	if b.Synthetic() {
		return b.TickBoundaryPrice
	}
	return nominal
}

// Extreme returns the bar price furthest in the trade's favor, used to
// advance trailing stops.
func (b RangeBar) Extreme(side Side) float64 {
	if side == Long {
		return b.High
	}
	return b.Low
}
