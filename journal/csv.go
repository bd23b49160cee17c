package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

type CSVJournal struct {
	trades  *csv.Writer
	equity  *csv.Writer
	regimes *csv.Writer

	tf, ef, rf *os.File
}

func NewCSV(tradesPath, equityPath, regimesPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		tf.Close()
		return nil, err
	}
	rf, err := os.Create(regimesPath)
	if err != nil {
		tf.Close()
		ef.Close()
		return nil, err
	}

	j := &CSVJournal{
		trades:  csv.NewWriter(tf),
		equity:  csv.NewWriter(ef),
		regimes: csv.NewWriter(rf),
		tf:      tf, ef: ef, rf: rf,
	}

	if err := j.trades.Write([]string{
		"trade_id", "instrument", "strategy", "side", "lots", "entry_price",
		"stop_price", "partial_exit_price", "close_price", "open_time",
		"close_time", "composite_score", "regime", "partial_r", "runner_r",
		"total_r", "pnl", "commission", "reason", "weekend_close",
	}); err != nil {
		return nil, err
	}
	if err := j.equity.Write([]string{"time", "equity"}); err != nil {
		return nil, err
	}
	if err := j.regimes.Write([]string{"time", "instrument", "score", "regime"}); err != nil {
		return nil, err
	}

	j.trades.Flush()
	j.equity.Flush()
	j.regimes.Flush()
	for _, w := range []*csv.Writer{j.trades, j.equity, j.regimes} {
		if err := w.Error(); err != nil {
			return nil, err
		}
	}
	return j, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	err := j.trades.Write([]string{
		t.TradeID,
		t.Instrument,
		t.Strategy,
		t.Side,
		f(t.Lots),
		f(t.EntryPrice),
		f(t.StopPrice),
		f(t.PartialExitPrice),
		f(t.ClosePrice),
		t.OpenTime.Format(time.RFC3339),
		t.CloseTime.Format(time.RFC3339),
		f(t.CompositeScore),
		t.Regime,
		f(t.PartialR),
		f(t.RunnerR),
		f(t.TotalR),
		f(t.PnL),
		f(t.Commission),
		t.Reason,
		strconv.FormatBool(t.WeekendClose),
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordEquity(e EquitySample) error {
	err := j.equity.Write([]string{
		e.Time.Format(time.RFC3339),
		f(e.Equity),
	})
	if err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) RecordRegime(r RegimeSample) error {
	err := j.regimes.Write([]string{
		r.Time.Format(time.RFC3339),
		r.Instrument,
		f(r.Score),
		r.Regime,
	})
	if err != nil {
		return err
	}
	j.regimes.Flush()
	return j.regimes.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	j.equity.Flush()
	j.regimes.Flush()
	for _, w := range []*csv.Writer{j.trades, j.equity, j.regimes} {
		if err := w.Error(); err != nil {
			return err
		}
	}
	for _, fd := range []*os.File{j.tf, j.ef, j.rf} {
		if err := fd.Close(); err != nil {
			return err
		}
	}
	return nil
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
