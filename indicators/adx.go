package indicators

import (
	"math"

	"github.com/rustyeddy/backtester/market"
)

const dxEps = 1e-9

// ADXSeries returns the Average Directional Index (trend strength) over
// candles, EMA-smoothed with the given period. Values stabilise after
// roughly 3*period candles; callers guard with that minimum.
func ADXSeries(candles []market.Candle, period int) []float64 {
	n := len(candles)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		upMove := candles[i].High - candles[i-1].High
		downMove := candles[i-1].Low - candles[i].Low
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}

	atr := ATRSeries(candles, period)
	smoothPlus := EMASeries(plusDM, period)
	smoothMinus := EMASeries(minusDM, period)

	dx := make([]float64, n)
	for i := 0; i < n; i++ {
		plusDI := 100 * smoothPlus[i] / (atr[i] + dxEps)
		minusDI := 100 * smoothMinus[i] / (atr[i] + dxEps)
		dx[i] = 100 * math.Abs(plusDI-minusDI) / (plusDI + minusDI + dxEps)
	}
	return EMASeries(dx, period)
}
