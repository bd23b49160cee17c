package backtest

import (
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/regime"
	"github.com/rustyeddy/backtester/sim"
)

const (
	DefaultTrainMonths = 4
	DefaultTestMonths  = 2
)

// Cycle is one walk-forward train/test window pair. Windows are inclusive
// and non-overlapping; consecutive cycles advance by train+test months.
type Cycle struct {
	Num        int
	TrainStart time.Time
	TrainEnd   time.Time
	TestStart  time.Time
	TestEnd    time.Time
}

func (c Cycle) String() string {
	return fmt.Sprintf("cycle %d: train %s -> %s | test %s -> %s",
		c.Num,
		c.TrainStart.Format("2006-01-02"), c.TrainEnd.Format("2006-01-02"),
		c.TestStart.Format("2006-01-02"), c.TestEnd.Format("2006-01-02"),
	)
}

// GenerateCycles lays non-overlapping train/test pairs over [dataStart,
// dataEnd], stopping when a full test window no longer fits.
func GenerateCycles(dataStart, dataEnd time.Time, trainMonths, testMonths int) []Cycle {
	if trainMonths <= 0 {
		trainMonths = DefaultTrainMonths
	}
	if testMonths <= 0 {
		testMonths = DefaultTestMonths
	}

	var cycles []Cycle
	periodStart := dataStart
	for num := 1; ; num++ {
		trainEnd := periodStart.AddDate(0, trainMonths, -1)
		testStart := trainEnd.AddDate(0, 0, 1)
		testEnd := testStart.AddDate(0, testMonths, -1)
		if testEnd.After(dataEnd) {
			break
		}
		cycles = append(cycles, Cycle{
			Num:        num,
			TrainStart: periodStart,
			TrainEnd:   trainEnd,
			TestStart:  testStart,
			TestEnd:    testEnd,
		})
		periodStart = testEnd.AddDate(0, 0, 1)
	}
	return cycles
}

// CycleResult carries the out-of-sample outcome of one cycle. The pass
// gate requires the test window to be net profitable.
type CycleResult struct {
	Cycle
	StartEquity   float64
	EndEquity     float64
	TestTrades    []*sim.Trade
	TestNetProfit float64
}

func (c CycleResult) Passed() bool { return c.TestNetProfit > 0 }

// WalkForwardResults aggregates every cycle into one report.
type WalkForwardResults struct {
	InitialEquity float64
	FinalEquity   float64
	Cycles        []CycleResult
	AllTrades     []*sim.Trade
	EquityCurve   []sim.EquityPoint
}

func (r *WalkForwardResults) CyclesPassed() int {
	n := 0
	for _, c := range r.Cycles {
		if c.Passed() {
			n++
		}
	}
	return n
}

func (r *WalkForwardResults) NetProfit() float64 {
	return r.FinalEquity - r.InitialEquity
}

func (r *WalkForwardResults) WriteSummary(w io.Writer) error {
	fmt.Fprintf(w, "Cycles:           %d (%d passed)\n", len(r.Cycles), r.CyclesPassed())
	fmt.Fprintf(w, "Trades:           %d\n", len(r.AllTrades))
	fmt.Fprintf(w, "Equity:           %.2f -> %.2f\n", r.InitialEquity, r.FinalEquity)
	fmt.Fprintf(w, "Net profit:       %.2f\n", r.NetProfit())
	for _, c := range r.Cycles {
		status := "FAIL"
		if c.Passed() {
			status = "PASS"
		}
		fmt.Fprintf(w, "  %s | trades=%d testPnL=%.2f %s\n",
			c.Cycle, len(c.TestTrades), c.TestNetProfit, status)
	}
	return nil
}

// WalkForward runs a fresh engine over each cycle's full train+test span
// so indicators and regime state warm up in-sample, then gates only on the
// test window. Equity carries forward between cycles.
type WalkForward struct {
	Cfg         Config
	TrainMonths int
	TestMonths  int

	// ClassifierFactory supplies the per-cycle anti-flip state; nil means
	// engine defaults.
	ClassifierFactory func() *regime.Classifier

	Logger *zap.Logger
}

// Run executes every cycle in [dataStart, dataEnd].
func (w *WalkForward) Run(dataStart, dataEnd time.Time, initialEquity float64) (*WalkForwardResults, error) {
	log := w.Logger
	if log == nil {
		log = zap.NewNop()
	}

	cycles := GenerateCycles(dataStart, dataEnd, w.TrainMonths, w.TestMonths)
	if len(cycles) == 0 {
		return nil, fmt.Errorf("backtest: no walk-forward cycles fit %s -> %s",
			dataStart.Format("2006-01-02"), dataEnd.Format("2006-01-02"))
	}

	out := &WalkForwardResults{InitialEquity: initialEquity}
	runningEquity := initialEquity

	for _, cycle := range cycles {
		log.Info("running walk-forward cycle",
			zap.Int("cycle", cycle.Num),
			zap.Int("total", len(cycles)),
		)

		// Fresh engine state per cycle: classifier, tracker, windows.
		cfg := w.Cfg
		cfg.Tracker = nil
		cfg.Classifier = nil
		if w.ClassifierFactory != nil {
			cfg.Classifier = w.ClassifierFactory()
		}
		cfg.Logger = log

		engine, err := NewEngine(cfg)
		if err != nil {
			return nil, err
		}

		results, err := engine.Run(cycle.TrainStart, cycle.TestEnd, runningEquity)
		if err != nil {
			return nil, fmt.Errorf("cycle %d: %w", cycle.Num, err)
		}

		var testTrades []*sim.Trade
		testNet := 0.0
		for _, t := range results.Trades {
			if !t.EntryTime.Before(cycle.TestStart) {
				testTrades = append(testTrades, t)
				testNet += t.PnL
			}
		}

		cr := CycleResult{
			Cycle:         cycle,
			StartEquity:   runningEquity,
			EndEquity:     runningEquity + results.NetProfit(),
			TestTrades:    testTrades,
			TestNetProfit: testNet,
		}
		out.Cycles = append(out.Cycles, cr)
		out.AllTrades = append(out.AllTrades, results.Trades...)
		out.EquityCurve = append(out.EquityCurve, results.EquityCurve...)

		runningEquity = cr.EndEquity

		log.Info("cycle complete",
			zap.Int("cycle", cycle.Num),
			zap.Int("test_trades", len(testTrades)),
			zap.Float64("test_net", testNet),
			zap.Bool("passed", cr.Passed()),
		)
	}

	out.FinalEquity = runningEquity
	out.EquityCurve = dedupEquity(out.EquityCurve)

	log.Info("walk-forward complete",
		zap.Int("cycles", len(out.Cycles)),
		zap.Int("passed", out.CyclesPassed()),
		zap.Float64("net_profit", out.NetProfit()),
	)
	return out, nil
}
