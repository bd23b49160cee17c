// Package indicators provides the technical series the regime scorer reads.
//
// All functions are pure, deterministic, and operate on closed candles only,
// so they are safe for replay and for parameter sweeps. Series results are
// aligned index-for-index with the input; positions inside the warmup window
// hold NaN and callers must guard with the documented minimum row counts.
package indicators

import (
	"math"
	"sort"
)

// EMASeries returns the exponential moving average of values with
// alpha = 2/(period+1), seeded from the first value. This matches the
// recursive form y[t] = (1-alpha)*y[t-1] + alpha*x[t].
func EMASeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 || period <= 0 {
		return out
	}
	alpha := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = (1-alpha)*out[i-1] + alpha*values[i]
	}
	return out
}

// SMA returns the simple mean of the last period values, or NaN when there
// are not enough.
func SMA(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// RollingMean returns the period-window rolling mean, NaN-padded during
// warmup.
func RollingMean(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// RollingStd returns the period-window rolling sample standard deviation,
// NaN-padded during warmup.
func RollingStd(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 1 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]
		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= float64(period)
		ss := 0.0
		for _, v := range window {
			d := v - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(period-1))
	}
	return out
}

// Quantile returns quantile q of values using linear interpolation.
// NaN entries are ignored; an empty input yields NaN.
func Quantile(values []float64, q float64) float64 {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return math.NaN()
	}
	sort.Float64s(clean)
	if len(clean) == 1 {
		return clean[0]
	}
	pos := q * float64(len(clean)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return clean[lo]
	}
	frac := pos - float64(lo)
	return clean[lo]*(1-frac) + clean[hi]*frac
}

// Median returns the 0.5 quantile of values.
func Median(values []float64) float64 {
	return Quantile(values, 0.5)
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
