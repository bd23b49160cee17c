// market/instruments.go
package market

type InstrumentMeta struct {
	Name          string
	BaseCurrency  string
	QuoteCurrency string
	PipLocation   int // 1 pip = 10^PipLocation in price terms
	RangeBarPips  int // fixed range-bar size configured upstream

	// Minimum trailing-stop distance in pips (wider for JPY quotes).
	TrailingFloorPips int
}

var Instruments = map[string]InstrumentMeta{
	"EUR_USD": {Name: "EUR_USD", BaseCurrency: "EUR", QuoteCurrency: "USD", PipLocation: -4, RangeBarPips: 10, TrailingFloorPips: 15},
	"GBP_USD": {Name: "GBP_USD", BaseCurrency: "GBP", QuoteCurrency: "USD", PipLocation: -4, RangeBarPips: 10, TrailingFloorPips: 15},
	"USD_CHF": {Name: "USD_CHF", BaseCurrency: "USD", QuoteCurrency: "CHF", PipLocation: -4, RangeBarPips: 10, TrailingFloorPips: 15},
	"USD_JPY": {Name: "USD_JPY", BaseCurrency: "USD", QuoteCurrency: "JPY", PipLocation: -2, RangeBarPips: 15, TrailingFloorPips: 25},
	"AUD_JPY": {Name: "AUD_JPY", BaseCurrency: "AUD", QuoteCurrency: "JPY", PipLocation: -2, RangeBarPips: 15, TrailingFloorPips: 25},
	"EUR_JPY": {Name: "EUR_JPY", BaseCurrency: "EUR", QuoteCurrency: "JPY", PipLocation: -2, RangeBarPips: 15, TrailingFloorPips: 25},
	"GBP_JPY": {Name: "GBP_JPY", BaseCurrency: "GBP", QuoteCurrency: "JPY", PipLocation: -2, RangeBarPips: 15, TrailingFloorPips: 25},
	"EUR_GBP": {Name: "EUR_GBP", BaseCurrency: "EUR", QuoteCurrency: "GBP", PipLocation: -4, RangeBarPips: 10, TrailingFloorPips: 15},
	"AUD_USD": {Name: "AUD_USD", BaseCurrency: "AUD", QuoteCurrency: "USD", PipLocation: -4, RangeBarPips: 10, TrailingFloorPips: 15},
}

// PipSize returns 1 pip in price terms for the instrument.
// Unknown instruments default to the four-decimal majors convention.
func PipSize(instrument string) float64 {
	if meta, ok := Instruments[instrument]; ok {
		return pow10(meta.PipLocation)
	}
	return 0.0001
}

// TrailingFloorPips returns the minimum trailing-stop distance in pips.
func TrailingFloorPips(instrument string) int {
	if meta, ok := Instruments[instrument]; ok {
		return meta.TrailingFloorPips
	}
	return 15
}

// PipValueUSD returns the approximate USD value of one pip per standard lot.
//
// This is deliberately a flat $10/pip/lot for every configured instrument:
// exact for USD-quoted pairs, an approximation for USD-base and cross pairs.
// Backtest pass/fail statistics are computed in R-multiples, so the
// approximation only shifts the dollar scale of PnL, never trade decisions.
// Changing this to a true cross-rate conversion would change every historical
// PnL figure, so it stays fixed.
func PipValueUSD(instrument string) float64 {
	return 10.0
}

func pow10(exp int) float64 {
	v := 1.0
	for i := 0; i > exp; i-- {
		v /= 10
	}
	for i := 0; i < exp; i++ {
		v *= 10
	}
	return v
}
