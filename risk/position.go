// Package risk sizes positions from account equity and gates new entries
// against concurrency and frequency limits.
package risk

import (
	"math"

	"github.com/rustyeddy/backtester/market"
)

type Inputs struct {
	Equity     float64
	RiskPct    float64 // 0.01 risks 1% of equity
	Multiplier float64 // performance/regime scaling, 1.0 when unused
	EntryPrice float64
	StopPrice  float64
	Instrument string
}

type Result struct {
	Lots       float64
	StopPips   float64
	RiskAmount float64
}

// Calculate sizes a position so that a stop-out loses RiskPct of equity,
// scaled by Multiplier. Lots are truncated to two decimals; anything that
// rounds below the 0.01 minimum is returned as zero so callers can skip
// the trade.
func Calculate(in Inputs) Result {
	pip := market.PipSize(in.Instrument)
	stopPips := math.Abs(in.EntryPrice-in.StopPrice) / pip
	if stopPips == 0 {
		return Result{}
	}

	mult := in.Multiplier
	if mult == 0 {
		mult = 1.0
	}
	riskAmt := in.Equity * in.RiskPct * mult
	lots := riskAmt / (stopPips * market.PipValueUSD(in.Instrument))
	// Price subtraction leaves float noise in stopPips (100 pips comes out
	// as 100.00000000000009), which would floor away a whole 0.01-lot step.
	lots = math.Floor(lots*100+1e-9) / 100
	if lots < 0.01 {
		lots = 0
	}

	return Result{
		Lots:       lots,
		StopPips:   stopPips,
		RiskAmount: riskAmt,
	}
}

// RR is the reward-to-risk ratio of a planned trade.
func RR(entry, stop, target float64) float64 {
	risk := math.Abs(entry - stop)
	if risk == 0 {
		return 0
	}
	return math.Abs(target-entry) / risk
}
