package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/backtester/market"
)

// TrueRange for a candle given the previous candle's close.
func TrueRange(current, previous market.Candle) float64 {
	highLow := current.High - current.Low
	highClose := math.Abs(current.High - previous.Close)
	lowClose := math.Abs(current.Low - previous.Close)
	return math.Max(highLow, math.Max(highClose, lowClose))
}

// ATRSeries returns the EMA-smoothed Average True Range, aligned with
// candles. The first element uses high-low as its true range.
func ATRSeries(candles []market.Candle, period int) []float64 {
	tr := make([]float64, len(candles))
	for i, c := range candles {
		if i == 0 {
			tr[i] = c.High - c.Low
			continue
		}
		tr[i] = TrueRange(c, candles[i-1])
	}
	return EMASeries(tr, period)
}

// ATR returns the latest EMA-smoothed ATR value.
// Errors when there are fewer than period+1 candles.
func ATR(candles []market.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(candles) < period+1 {
		return 0, fmt.Errorf("not enough candles: need %d, got %d", period+1, len(candles))
	}
	s := ATRSeries(candles, period)
	return s[len(s)-1], nil
}
