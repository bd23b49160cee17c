// Package regime scores market regime strength on a 0-100 composite scale
// and classifies it with a hysteresis filter so the confirmed label cannot
// oscillate bar to bar.
//
// Three independent layers feed the composite:
//
//	structural (0-100)  five weighted components on 4H candles
//	modifier  (-15..15) three short-horizon components on 1H candles
//	micro     (0-20)    bar-formation quality on the native range-bar stream
//
// Composite = clamp(structural + modifier + micro, 0, 100).
package regime

// Regime is the classification bucket derived from the composite score.
type Regime string

const (
	Trending     Regime = "trending"
	Transitional Regime = "transitional"
	Range        Regime = "range"
)

// Score boundaries between regimes.
const (
	TrendingMinScore     = 70.0
	TransitionalMinScore = 30.0
)

// NeutralScore is the fallback composite when higher-timeframe data is
// unavailable or scoring fails. It maps to Transitional.
const NeutralScore = 50.0

// RawRegime maps a composite score straight to a regime label, with no
// hysteresis. The classifier applies the anti-flip filter on top.
func RawRegime(score float64) Regime {
	switch {
	case score >= TrendingMinScore:
		return Trending
	case score >= TransitionalMinScore:
		return Transitional
	default:
		return Range
	}
}

// RiskMultiplier scales position risk by regime. Transitional is the most
// penalized tier: a regime in flux is a worse entry than a stable range.
func RiskMultiplier(r Regime) float64 {
	switch r {
	case Trending:
		return 1.0
	case Transitional:
		return 0.6
	default:
		return 0.7
	}
}

// boundary returns the score threshold crossed when moving between two
// regimes. A direct trending<->range jump (possible on extreme data) uses
// the midpoint.
func boundary(from, to Regime) float64 {
	switch {
	case from == Trending || to == Trending:
		if from == Range || to == Range {
			return 50.0
		}
		return TrendingMinScore
	default:
		return TransitionalMinScore
	}
}
