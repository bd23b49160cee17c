package sim

import "github.com/rustyeddy/backtester/market"

// CostModel applies broker costs to every simulated fill: a fixed slippage
// on all entries and exits, and a round-trip commission charged once at
// open. Slippage always worsens the price for the trader.
type CostModel struct {
	SlippagePips       float64
	CommissionPerLotRT float64
}

// DefaultCosts models an ECN account: 1 pip slippage each way, $7.00
// round-trip commission per standard lot.
var DefaultCosts = CostModel{SlippagePips: 1.0, CommissionPerLotRT: 7.0}

// ZeroCosts disables slippage and commission; exit levels then fill exactly.
var ZeroCosts = CostModel{}

// EntryPrice worsens a fill at entry: a long pays more, a short sells for
// less.
func (c CostModel) EntryPrice(price float64, side market.Side, instrument string) float64 {
	slip := c.SlippagePips * market.PipSize(instrument)
	if side == market.Long {
		return price + slip
	}
	return price - slip
}

// ExitPrice worsens a fill at exit: a long receives less, a short pays more
// to cover.
func (c CostModel) ExitPrice(price float64, side market.Side, instrument string) float64 {
	slip := c.SlippagePips * market.PipSize(instrument)
	if side == market.Long {
		return price - slip
	}
	return price + slip
}

// Commission is the round-trip commission for the given size, charged at
// open.
func (c CostModel) Commission(lots float64) float64 {
	return c.CommissionPerLotRT * lots
}
