// Package backtest replays range-bar history through the regime scorer,
// the strategy layer, and the account ledger, bar by bar in strict
// chronological order.
package backtest

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/exits"
	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/internal/id"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/regime"
	"github.com/rustyeddy/backtester/risk"
	"github.com/rustyeddy/backtester/sim"
	"github.com/rustyeddy/backtester/strategies"
)

const (
	// DefaultWindowCap bounds the per-instrument rolling bar window.
	DefaultWindowCap = 300
	// DefaultMinBars is the warm-up before strategies are consulted.
	DefaultMinBars = 30
	// FallbackScore stands in when higher-timeframe data cannot score.
	FallbackScore = 50.0
	// DefaultWeekendCloseMinutes is the width of the Friday close window
	// before the 22:00 UTC market close.
	DefaultWeekendCloseMinutes = 20
	// DefaultATRPips approximates ATR(14) when 1H history is too thin.
	DefaultATRPips = 15.0

	marketCloseHourUTC = 22
)

// Config wires an Engine. Bars is required; H4/H1 are optional and their
// absence degrades scoring to the neutral fallback.
type Config struct {
	Instruments []string
	Bars        map[string][]market.RangeBar
	H4          map[string][]market.Candle
	H1          map[string][]market.Candle

	Classifier *regime.Classifier
	Scorer     *regime.Scorer
	Strategy   strategies.Strategy
	Tracker    *strategies.PerformanceTracker

	Costs  sim.CostModel
	Policy risk.Policy

	DailyCapR           float64
	WindowCap           int
	MinBars             int
	WeekendCloseMinutes int
	ATRDefaultPips      float64
	IDSeed              int64

	Logger *zap.Logger
}

// Engine is a single-run replay. It is single-threaded and owns its
// Account, Classifier and id generator; walk-forward creates a fresh
// Engine per cycle.
type Engine struct {
	cfg Config
	log *zap.Logger

	classifier *regime.Classifier
	scorer     *regime.Scorer
	tracker    *strategies.PerformanceTracker
	ids        *id.Generator

	windows      map[string][]market.RangeBar
	scoreHistory map[string][]float64
	lastClose    map[string]float64

	reported       int // closed trades already fed to the tracker
	warnedFallback bool
}

func NewEngine(cfg Config) (*Engine, error) {
	if len(cfg.Instruments) == 0 {
		return nil, fmt.Errorf("backtest: no instruments configured")
	}
	if cfg.Strategy == nil {
		return nil, fmt.Errorf("backtest: no strategy configured")
	}
	for _, inst := range cfg.Instruments {
		if _, ok := market.Instruments[inst]; !ok {
			return nil, fmt.Errorf("backtest: unknown instrument %q", inst)
		}
	}
	if cfg.WindowCap <= 0 {
		cfg.WindowCap = DefaultWindowCap
	}
	if cfg.MinBars <= 0 {
		cfg.MinBars = DefaultMinBars
	}
	if cfg.WeekendCloseMinutes <= 0 {
		cfg.WeekendCloseMinutes = DefaultWeekendCloseMinutes
	}
	if cfg.ATRDefaultPips <= 0 {
		cfg.ATRDefaultPips = DefaultATRPips
	}
	if cfg.DailyCapR <= 0 {
		cfg.DailyCapR = sim.DefaultDailyLossCapR
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Classifier == nil {
		cfg.Classifier = regime.NewClassifier(0, 0)
	}
	if cfg.Scorer == nil {
		cfg.Scorer = regime.NewScorer()
	}
	if cfg.Tracker == nil {
		cfg.Tracker = strategies.NewPerformanceTracker(cfg.Logger)
	}

	return &Engine{
		cfg:          cfg,
		log:          cfg.Logger,
		classifier:   cfg.Classifier,
		scorer:       cfg.Scorer,
		tracker:      cfg.Tracker,
		ids:          id.NewGenerator(cfg.IDSeed),
		windows:      make(map[string][]market.RangeBar),
		scoreHistory: make(map[string][]float64),
		lastClose:    make(map[string]float64),
	}, nil
}

// Run replays bars with end times in [start, end] and returns the results.
func (e *Engine) Run(start, end time.Time, initialEquity float64) (*Results, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("backtest: end %s not after start %s", end, start)
	}
	if initialEquity <= 0 {
		return nil, fmt.Errorf("backtest: initial equity must be positive, got %v", initialEquity)
	}

	account := sim.NewAccount(initialEquity, e.cfg.Costs, e.log)
	account.DailyLossCap = e.cfg.DailyCapR

	queue := newEventQueue()
	for _, inst := range e.cfg.Instruments {
		bars := e.cfg.Bars[inst]
		n := 0
		for _, b := range bars {
			if b.EndTime.Before(start) || b.EndTime.After(end) {
				continue
			}
			queue.push(inst, b)
			n++
		}
		if n == 0 {
			e.log.Warn("no bars in window", zap.String("instrument", inst))
			continue
		}
		e.log.Info("instrument loaded",
			zap.String("instrument", inst),
			zap.Int("bars", n),
		)
	}

	var timeline []RegimePoint
	barCount := 0

	for queue.Len() > 0 {
		ev := queue.pop()
		inst, bar := ev.instrument, ev.bar
		now := bar.EndTime
		barCount++

		account.ResetDailyIfNeeded(now)

		w := append(e.windows[inst], bar)
		if len(w) > e.cfg.WindowCap {
			w = w[len(w)-e.cfg.WindowCap:]
		}
		e.windows[inst] = w
		e.lastClose[inst] = bar.Close

		score, reg, breakdown := e.score(inst, now, w)
		e.recordScore(inst, score)

		for _, t := range account.OpenTradesOn(inst) {
			e.checkExits(account, t, bar, now, score)
		}
		e.reportClosures(account, now, false)

		if account.DailyCapHit() {
			e.forceCloseAll(account, now, sim.ReasonDailyCap)
			e.reportClosures(account, now, false)
			continue
		}

		if e.nearFridayClose(now) {
			e.forceCloseAll(account, now, sim.ReasonWeekendClose)
			e.reportClosures(account, now, true)
			continue
		}

		timeline = append(timeline, RegimePoint{
			Time:       now,
			Instrument: inst,
			Score:      score,
			Regime:     reg,
		})

		if len(w) < e.cfg.MinBars {
			continue
		}
		e.maybeOpen(account, inst, bar, now, score, reg, breakdown)
	}

	// Anything still open settles at its own instrument's last price.
	for _, t := range snapshotOpen(account) {
		price, ok := e.lastClose[t.Instrument]
		if !ok {
			price = t.EntryPrice
		}
		account.CloseTrade(t, price, end, sim.ReasonWeekendClose)
	}

	e.log.Info("replay complete",
		zap.Int("bars", barCount),
		zap.Int("trades", len(account.ClosedTrades())),
		zap.Float64("initial_equity", initialEquity),
		zap.Float64("final_equity", account.Equity),
	)

	return buildResults(account, timeline, barCount), nil
}

// score runs the three-layer composite for one bar and feeds the raw value
// through the anti-flip classifier. Missing or thin higher-timeframe data
// degrades to a fixed neutral (50, transitional) without touching the
// classifier, so intermittently thin data can never flip a confirmed regime.
func (e *Engine) score(inst string, now time.Time, bars []market.RangeBar) (float64, regime.Regime, regime.Breakdown) {
	h4 := candleWindow(e.cfg.H4[inst], now, e.cfg.WindowCap)
	h1 := candleWindow(e.cfg.H1[inst], now, e.cfg.WindowCap)

	if len(h4) < regime.MinStructuralBars {
		e.warnFallbackOnce(inst)
		return FallbackScore, regime.Transitional, regime.Breakdown{Instrument: inst, Raw: FallbackScore}
	}

	breakdown, err := e.scorer.ScoreComponents(inst, h4, h1, bars, e.grid(e.cfg.H4, now), e.grid(e.cfg.H1, now))
	if err != nil {
		e.log.Debug("scoring failed, using fallback",
			zap.String("instrument", inst),
			zap.Time("at", now),
			zap.Error(err),
		)
		return FallbackScore, regime.Transitional, regime.Breakdown{Instrument: inst, Raw: FallbackScore}
	}

	score, reg := e.classifier.Apply(inst, breakdown.Raw)
	return score, reg, breakdown
}

func (e *Engine) warnFallbackOnce(inst string) {
	if e.warnedFallback {
		e.log.Debug("4H/1H history unavailable, neutral score in effect",
			zap.String("instrument", inst))
		return
	}
	e.warnedFallback = true
	e.log.Warn("4H/1H history unavailable, scoring falls back to neutral",
		zap.String("instrument", inst),
		zap.Float64("fallback", FallbackScore),
	)
}

// grid assembles the cross-instrument candle windows for the alignment
// components. Instruments without data are simply absent; the scorer
// degrades gracefully when the grid is thin.
func (e *Engine) grid(series map[string][]market.Candle, now time.Time) map[string][]market.Candle {
	if len(series) == 0 {
		return nil
	}
	grid := make(map[string][]market.Candle, len(series))
	for inst, candles := range series {
		if w := candleWindow(candles, now, e.cfg.WindowCap); len(w) > 0 {
			grid[inst] = w
		}
	}
	return grid
}

func (e *Engine) recordScore(inst string, score float64) {
	h := append(e.scoreHistory[inst], score)
	if len(h) > e.cfg.WindowCap {
		h = h[len(h)-e.cfg.WindowCap:]
	}
	e.scoreHistory[inst] = h
}

// checkExits resolves one trade against one bar. In the open phase the
// original stop is checked before the 1.5R target, so a bar touching both
// resolves as a stop-out. Runners first face the deterioration force-close,
// then the trailing stop advances and is checked.
func (e *Engine) checkExits(account *sim.Account, t *sim.Trade, bar market.RangeBar, now time.Time, score float64) {
	atr := e.atr(t.Instrument, now)

	switch t.Phase {
	case sim.PhaseOpen:
		stopHit := bar.Low <= t.StopPrice
		if t.Side == market.Short {
			stopHit = bar.High >= t.StopPrice
		}
		if stopHit {
			account.CloseTrade(t, bar.ExitFill(t.StopPrice), now, sim.ReasonStopLoss)
			return
		}

		target := exits.Target1R5(t.EntryPrice, t.StopPrice, t.Side)
		targetHit := bar.High >= target
		if t.Side == market.Short {
			targetHit = bar.Low <= target
		}
		if targetHit {
			account.ApplyPartialExit(t, bar.ExitFill(target), now, atr)
		}

	case sim.PhaseRunner:
		if exits.ShouldForceCloseRunner(t.CompositeScore, score, exits.DefaultDeteriorationDrop) {
			account.CloseTrade(t, bar.ExitFill(bar.Close), now, sim.ReasonDeterioration)
			return
		}

		account.UpdateTrailingStop(t, bar.Extreme(t.Side), atr)

		trailHit := bar.Low <= t.TrailingStop
		if t.Side == market.Short {
			trailHit = bar.High >= t.TrailingStop
		}
		if trailHit {
			account.CloseTrade(t, bar.ExitFill(t.TrailingStop), now, sim.ReasonTrailingStop)
		}
	}
}

// atr estimates ATR(14) from the 1H window, falling back to a fixed pip
// distance when history is too thin.
func (e *Engine) atr(inst string, now time.Time) float64 {
	h1 := candleWindow(e.cfg.H1[inst], now, 60)
	if v, err := indicators.ATR(h1, 14); err == nil {
		return v
	}
	return e.cfg.ATRDefaultPips * market.PipSize(inst)
}

// snapshotOpen copies the open set so trades can be closed while iterating.
func snapshotOpen(account *sim.Account) []*sim.Trade {
	return append([]*sim.Trade(nil), account.OpenTrades()...)
}

func (e *Engine) forceCloseAll(account *sim.Account, now time.Time, reason string) {
	open := snapshotOpen(account)
	if len(open) == 0 {
		return
	}
	e.log.Info("force-closing open trades",
		zap.String("reason", reason),
		zap.Int("count", len(open)),
	)
	for _, t := range open {
		price, ok := e.lastClose[t.Instrument]
		if !ok {
			price = t.EntryPrice
		}
		account.CloseTrade(t, price, now, reason)
	}
}

// reportClosures feeds trades closed since the last call back to the
// performance tracker so cooldowns and multipliers react mid-replay.
func (e *Engine) reportClosures(account *sim.Account, now time.Time, weekend bool) {
	closed := account.ClosedTrades()
	for _, t := range closed[e.reportedCount(closed):] {
		e.tracker.RecordClose(t.Strategy, t.TotalR, now, weekend)
	}
	e.reported = len(closed)
}

func (e *Engine) reportedCount(closed []*sim.Trade) int {
	if e.reported > len(closed) {
		return len(closed)
	}
	return e.reported
}

// maybeOpen consults the strategy and opens a sized trade on acceptance.
func (e *Engine) maybeOpen(
	account *sim.Account,
	inst string,
	bar market.RangeBar,
	now time.Time,
	score float64,
	reg regime.Regime,
	breakdown regime.Breakdown,
) {
	name := e.cfg.Strategy.Name()
	if e.tracker.InCooldown(name, now) {
		e.log.Debug("entry blocked",
			zap.String("instrument", inst),
			zap.String("reason", "STRATEGY_COOLDOWN"),
			zap.Time("until", e.tracker.CooldownUntil(name)),
		)
		return
	}
	if bar.IsPhantom {
		e.log.Debug("entry blocked",
			zap.String("instrument", inst),
			zap.String("reason", "PHANTOM_BLOCKED"),
		)
		return
	}

	decision := e.cfg.Strategy.Analyze(strategies.Context{
		Instrument:     inst,
		Now:            now,
		Bars:           e.windows[inst],
		H4:             candleWindow(e.cfg.H4[inst], now, e.cfg.WindowCap),
		H1:             candleWindow(e.cfg.H1[inst], now, e.cfg.WindowCap),
		CompositeScore: score,
		Regime:         reg,
		ScoreHistory:   e.scoreHistory[inst],
		Account:        account.Snapshot(),
		Policy:         e.cfg.Policy,
	})

	if reason, rejected := decision.Rejected(); rejected {
		e.log.Info("signal rejected",
			zap.String("instrument", inst),
			zap.String("strategy", name),
			zap.String("reason", reason),
		)
		return
	}
	sig, ok := decision.Signal()
	if !ok {
		return
	}

	mult := e.tracker.Multiplier(name) * regime.RiskMultiplier(reg)
	sized := risk.Calculate(risk.Inputs{
		Equity:     account.Equity,
		RiskPct:    e.cfg.Policy.RiskPct,
		Multiplier: mult,
		EntryPrice: sig.Entry,
		StopPrice:  sig.Stop,
		Instrument: inst,
	})
	if sized.Lots <= 0 {
		e.log.Info("signal rejected",
			zap.String("instrument", inst),
			zap.String("strategy", name),
			zap.String("reason", "RISK_TOO_LOW"),
		)
		return
	}

	entry := e.cfg.Costs.EntryPrice(sig.Entry, sig.Side, inst)
	trade := &sim.Trade{
		ID:              e.ids.NewAt(now),
		Instrument:      inst,
		Side:            sig.Side,
		Strategy:        name,
		EntryPrice:      entry,
		StopPrice:       sig.Stop,
		EntryTime:       now,
		Lots:            sized.Lots,
		InitialRiskPips: absPips(entry, sig.Stop, inst),
		CompositeScore:  sig.CompositeScore,
		Regime:          reg,
		Layers:          breakdown,
		PartialFraction: exits.PartialExitFraction(sig.CompositeScore),
	}
	account.OpenTrade(trade)
}

// nearFridayClose reports whether now falls inside the protective window
// before the Friday 22:00 UTC market close.
func (e *Engine) nearFridayClose(now time.Time) bool {
	utc := now.UTC()
	if utc.Weekday() != time.Friday {
		return false
	}
	toClose := marketCloseHourUTC*60 - (utc.Hour()*60 + utc.Minute())
	return toClose >= 0 && toClose <= e.cfg.WeekendCloseMinutes
}

// candleWindow returns the last n candles with Time <= upTo, never looking
// ahead of the replay clock.
func candleWindow(candles []market.Candle, upTo time.Time, n int) []market.Candle {
	if len(candles) == 0 {
		return nil
	}
	hi := sort.Search(len(candles), func(i int) bool {
		return candles[i].Time.After(upTo)
	})
	lo := hi - n
	if lo < 0 {
		lo = 0
	}
	return candles[lo:hi]
}

func absPips(a, b float64, inst string) float64 {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d / market.PipSize(inst)
}
