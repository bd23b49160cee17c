package backtest

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/regime"
	"github.com/rustyeddy/backtester/sim"
)

// RegimePoint is one sample on the per-instrument regime timeline.
type RegimePoint struct {
	Time       time.Time
	Instrument string
	Score      float64
	Regime     regime.Regime
}

// DrawdownPoint is the percentage drawdown from the running equity peak.
type DrawdownPoint struct {
	Time time.Time
	Pct  float64
}

// StrategyStats aggregates closed-trade outcomes for one strategy.
type StrategyStats struct {
	Trades int
	Wins   int
	Losses int
	TotalR float64
	PnL    float64
}

// Results is everything a completed replay produced.
type Results struct {
	InitialEquity float64
	FinalEquity   float64
	BarsProcessed int

	Trades         []*sim.Trade
	EquityCurve    []sim.EquityPoint
	DrawdownCurve  []DrawdownPoint
	RegimeTimeline []RegimePoint
}

func buildResults(account *sim.Account, timeline []RegimePoint, bars int) *Results {
	curve := dedupEquity(account.EquityHistory())
	return &Results{
		InitialEquity:  account.InitialEquity,
		FinalEquity:    account.Equity,
		BarsProcessed:  bars,
		Trades:         account.ClosedTrades(),
		EquityCurve:    curve,
		DrawdownCurve:  drawdownCurve(curve, account.InitialEquity),
		RegimeTimeline: timeline,
	}
}

// dedupEquity sorts samples by time and keeps the last sample per instant,
// since several ledger events can land on one bar close.
func dedupEquity(history []sim.EquityPoint) []sim.EquityPoint {
	if len(history) == 0 {
		return nil
	}
	sorted := append([]sim.EquityPoint(nil), history...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	out := make([]sim.EquityPoint, 0, len(sorted))
	for _, p := range sorted {
		if n := len(out); n > 0 && out[n-1].Time.Equal(p.Time) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

func drawdownCurve(curve []sim.EquityPoint, initialEquity float64) []DrawdownPoint {
	if len(curve) == 0 {
		return nil
	}
	out := make([]DrawdownPoint, 0, len(curve))
	peak := initialEquity
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		pct := 0.0
		if peak > 0 {
			pct = (peak - p.Equity) / peak * 100
		}
		out = append(out, DrawdownPoint{Time: p.Time, Pct: pct})
	}
	return out
}

func (r *Results) NetProfit() float64 {
	return r.FinalEquity - r.InitialEquity
}

func (r *Results) TotalR() float64 {
	sum := 0.0
	for _, t := range r.Trades {
		sum += t.TotalR
	}
	return sum
}

func (r *Results) WinRate() float64 {
	if len(r.Trades) == 0 {
		return 0
	}
	wins := 0
	for _, t := range r.Trades {
		if t.TotalR > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(r.Trades))
}

// ProfitFactor is gross profit over gross loss; 0 when there are no
// losing trades to divide by.
func (r *Results) ProfitFactor() float64 {
	grossWin, grossLoss := 0.0, 0.0
	for _, t := range r.Trades {
		if t.PnL >= 0 {
			grossWin += t.PnL
		} else {
			grossLoss -= t.PnL
		}
	}
	if grossLoss == 0 {
		return 0
	}
	return grossWin / grossLoss
}

func (r *Results) MaxDrawdownPct() float64 {
	max := 0.0
	for _, p := range r.DrawdownCurve {
		if p.Pct > max {
			max = p.Pct
		}
	}
	return max
}

// PerStrategy breaks closed trades down by strategy name.
func (r *Results) PerStrategy() map[string]StrategyStats {
	out := make(map[string]StrategyStats)
	for _, t := range r.Trades {
		s := out[t.Strategy]
		s.Trades++
		if t.TotalR > 0 {
			s.Wins++
		} else {
			s.Losses++
		}
		s.TotalR += t.TotalR
		s.PnL += t.PnL
		out[t.Strategy] = s
	}
	return out
}

// WriteSummary prints a human-readable run report.
func (r *Results) WriteSummary(w io.Writer) error {
	fmt.Fprintf(w, "Bars processed:   %d\n", r.BarsProcessed)
	fmt.Fprintf(w, "Trades:           %d\n", len(r.Trades))
	fmt.Fprintf(w, "Equity:           %.2f -> %.2f\n", r.InitialEquity, r.FinalEquity)
	fmt.Fprintf(w, "Net profit:       %.2f\n", r.NetProfit())
	fmt.Fprintf(w, "Total R:          %.2f\n", r.TotalR())
	fmt.Fprintf(w, "Win rate:         %.1f%%\n", r.WinRate()*100)
	fmt.Fprintf(w, "Profit factor:    %.2f\n", r.ProfitFactor())
	fmt.Fprintf(w, "Max drawdown:     %.2f%%\n", r.MaxDrawdownPct())

	names := make([]string, 0)
	stats := r.PerStrategy()
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := stats[name]
		fmt.Fprintf(w, "  %-12s trades=%d wins=%d losses=%d totalR=%.2f pnl=%.2f\n",
			name, s.Trades, s.Wins, s.Losses, s.TotalR, s.PnL)
	}
	return nil
}

// Persist writes trades, the equity curve and the regime timeline to a
// journal.
func (r *Results) Persist(j journal.Journal) error {
	for _, t := range r.Trades {
		rec := journal.TradeRecord{
			TradeID:          t.ID,
			Instrument:       t.Instrument,
			Strategy:         t.Strategy,
			Side:             t.Side.String(),
			Lots:             t.Lots,
			EntryPrice:       t.EntryPrice,
			StopPrice:        t.StopPrice,
			PartialExitPrice: t.PartialExitPrice,
			ClosePrice:       t.ClosePrice,
			OpenTime:         t.EntryTime,
			CloseTime:        t.CloseTime,
			CompositeScore:   t.CompositeScore,
			Regime:           string(t.Regime),
			PartialR:         t.PartialR,
			RunnerR:          t.RunnerR,
			TotalR:           t.TotalR,
			PnL:              t.PnL,
			Commission:       t.Commission,
			Reason:           t.CloseReason,
			WeekendClose:     t.WeekendClose,
		}
		if err := j.RecordTrade(rec); err != nil {
			return fmt.Errorf("record trade %s: %w", t.ID, err)
		}
	}
	for _, p := range r.EquityCurve {
		if err := j.RecordEquity(journal.EquitySample{Time: p.Time, Equity: p.Equity}); err != nil {
			return fmt.Errorf("record equity: %w", err)
		}
	}
	for _, p := range r.RegimeTimeline {
		rec := journal.RegimeSample{
			Time:       p.Time,
			Instrument: p.Instrument,
			Score:      p.Score,
			Regime:     string(p.Regime),
		}
		if err := j.RecordRegime(rec); err != nil {
			return fmt.Errorf("record regime: %w", err)
		}
	}
	return nil
}
