// Package strategies defines the strategy contract, the built-in
// strategies, and the per-strategy performance tracker.
package strategies

import (
	"fmt"
	"sort"
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/regime"
	"github.com/rustyeddy/backtester/risk"
	"github.com/rustyeddy/backtester/sim"
)

// Signal is a proposed trade. Strategies fill the price fields; the engine
// attaches Lots and PartialFraction after sizing.
type Signal struct {
	Instrument     string
	Side           market.Side
	Entry          float64
	Stop           float64
	TP1R           float64 // price one risk-distance beyond entry
	Strategy       string
	CompositeScore float64

	Lots            float64
	PartialFraction float64
}

// Decision is the tri-state outcome of an Analyze call: an accepted signal,
// an explicit rejection with a reason code, or no setup at all. Rejections
// are logged for auditability; no-setup is silent.
type Decision struct {
	signal *Signal
	reason string
}

func Accept(sig Signal) Decision { return Decision{signal: &sig} }

func Reject(reason string) Decision { return Decision{reason: reason} }

// NoSignal reports that no setup was found on this bar.
func NoSignal() Decision { return Decision{} }

// Signal returns the accepted signal, if any.
func (d Decision) Signal() (Signal, bool) {
	if d.signal == nil {
		return Signal{}, false
	}
	return *d.signal, true
}

// Rejected returns the rejection reason code, if any.
func (d Decision) Rejected() (string, bool) {
	return d.reason, d.reason != ""
}

// Context is the per-bar view a strategy analyzes. All slices are owned by
// the engine and must not be mutated or retained.
type Context struct {
	Instrument string
	Now        time.Time

	Bars []market.RangeBar // completed range bars, oldest first
	H4   []market.Candle
	H1   []market.Candle

	CompositeScore float64
	Regime         regime.Regime
	ScoreHistory   []float64 // trailing composite scores, oldest first

	Account sim.AccountState
	Policy  risk.Policy
}

// Strategy is implemented by every trading strategy. Analyze is called once
// per completed range bar, only after the bar window has warmed up.
type Strategy interface {
	Name() string
	Analyze(ctx Context) Decision
}

// TradeReporter receives close outcomes so performance-based sizing and
// cooldowns can react to them.
type TradeReporter interface {
	RecordClose(strategy string, r float64, at time.Time, weekendClose bool)
}

var registry = map[string]func() Strategy{}

// Register installs a strategy constructor under a unique name. Strategies
// register explicitly at startup; duplicate names panic.
func Register(name string, fn func() Strategy) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("strategies: duplicate registration %q", name))
	}
	registry[name] = fn
}

// New constructs a fresh instance of a registered strategy.
func New(name string) (Strategy, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (registered: %v)", name, Names())
	}
	return fn(), nil
}

// Names lists the registered strategies in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
