package indicators

import "github.com/rustyeddy/backtester/market"

// BBWidthSeries returns the Bollinger Band width, (upper-lower)/middle,
// over the candle closes. NaN during the rolling warmup window.
func BBWidthSeries(candles []market.Candle, period int, stdDev float64) []float64 {
	closes := Closes(candles)
	mid := RollingMean(closes, period)
	std := RollingStd(closes, period)

	out := make([]float64, len(closes))
	for i := range out {
		out[i] = (2 * stdDev * std[i]) / (mid[i] + dxEps)
	}
	return out
}

// Closes extracts the close prices from candles.
func Closes(candles []market.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
