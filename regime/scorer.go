package regime

import (
	"fmt"

	"github.com/rustyeddy/backtester/market"
)

// Breakdown carries the full component decomposition of one composite score,
// frozen onto trades at entry and written to the regime timeline.
type Breakdown struct {
	Instrument string

	Structural int // 0-100
	ADXStrength,
	MarketStructure,
	ATRExpansion,
	Alignment,
	TrendPersistence int

	Modifier int // -15..+15
	BBWidth,
	ADXAcceleration,
	AccelerationAlignment int

	Micro int // 0-20
	Speed,
	RunQuality int

	Raw float64 // clamp(structural+modifier+micro, 0, 100), pre-hysteresis
}

// Scorer computes raw composite scores. It is stateless apart from the
// calibrated speed thresholds; hysteresis lives in the Classifier.
type Scorer struct {
	SpeedHighPerHour int
	SpeedSlowPerHour int
}

// NewScorer returns a Scorer with the default speed calibration.
func NewScorer() *Scorer {
	return &Scorer{
		SpeedHighPerHour: DefaultSpeedHighPerHour,
		SpeedSlowPerHour: DefaultSpeedSlowPerHour,
	}
}

// MinStructuralBars is the minimum 4H history for a meaningful structural
// score; below it the caller should use the neutral fallback.
const MinStructuralBars = 30

// ScoreComponents computes all three layers for one instrument.
// grid4h/grid1h map instrument name to that instrument's candle window for
// the cross-instrument alignment components; a nil or thin grid degrades
// those components to their neutral values rather than erroring.
func (s *Scorer) ScoreComponents(
	instrument string,
	h4, h1 []market.Candle,
	bars []market.RangeBar,
	grid4h, grid1h map[string][]market.Candle,
) (Breakdown, error) {
	meta, ok := market.Instruments[instrument]
	if !ok {
		return Breakdown{}, fmt.Errorf("regime: unknown instrument %q", instrument)
	}
	if len(h4) < MinStructuralBars {
		return Breakdown{}, fmt.Errorf("regime: %s: %d 4H candles, need %d", instrument, len(h4), MinStructuralBars)
	}

	b := Breakdown{Instrument: instrument}

	b.ADXStrength = ADXStrengthScore(h4)
	b.MarketStructure = MarketStructureScore(h4)
	b.ATRExpansion = ATRExpansionScore(h4)
	b.Alignment = AlignmentScore(grid4h, meta)
	b.TrendPersistence = TrendPersistenceScore(h4)
	b.Structural = clampInt(b.ADXStrength+b.MarketStructure+b.ATRExpansion+b.Alignment+b.TrendPersistence, 0, 100)

	b.BBWidth = BBWidthScore(h1)
	b.ADXAcceleration = ADXAccelerationScore(h1)
	b.AccelerationAlignment = AccelerationAlignmentScore(grid1h, meta)
	b.Modifier = clampInt(b.BBWidth+b.ADXAcceleration+b.AccelerationAlignment, -15, 15)

	b.Speed = SpeedScore(bars, s.SpeedHighPerHour, s.SpeedSlowPerHour)
	b.RunQuality = RunQualityScore(bars)
	b.Micro = clampInt(b.Speed+b.RunQuality, 0, 20)

	raw := float64(b.Structural + b.Modifier + b.Micro)
	if raw < 0 {
		raw = 0
	}
	if raw > 100 {
		raw = 100
	}
	b.Raw = raw

	return b, nil
}
