package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, instrument, strategy, side, lots, entry_price, stop_price,
		 partial_exit_price, close_price, open_time, close_time,
		 composite_score, regime, partial_r, runner_r, total_r, pnl,
		 commission, reason, weekend_close)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Instrument, t.Strategy, t.Side, t.Lots, t.EntryPrice,
		t.StopPrice, t.PartialExitPrice, t.ClosePrice, t.OpenTime, t.CloseTime,
		t.CompositeScore, t.Regime, t.PartialR, t.RunnerR, t.TotalR, t.PnL,
		t.Commission, t.Reason, t.WeekendClose,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(e EquitySample) error {
	_, err := j.db.Exec(`INSERT INTO equity (time, equity) VALUES (?, ?)`,
		e.Time, e.Equity)
	return err
}

func (j *SQLiteJournal) RecordRegime(r RegimeSample) error {
	_, err := j.db.Exec(`
		INSERT INTO regimes (time, instrument, score, regime)
		VALUES (?, ?, ?, ?)`,
		r.Time, r.Instrument, r.Score, r.Regime)
	return err
}

// ListTrades returns the journaled trades ordered by close time.
func (j *SQLiteJournal) ListTrades() ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, instrument, strategy, side, lots, entry_price,
		       stop_price, partial_exit_price, close_price, open_time,
		       close_time, composite_score, regime, partial_r, runner_r,
		       total_r, pnl, commission, reason, weekend_close
		FROM trades ORDER BY close_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(
			&t.TradeID, &t.Instrument, &t.Strategy, &t.Side, &t.Lots,
			&t.EntryPrice, &t.StopPrice, &t.PartialExitPrice, &t.ClosePrice,
			&t.OpenTime, &t.CloseTime, &t.CompositeScore, &t.Regime,
			&t.PartialR, &t.RunnerR, &t.TotalR, &t.PnL, &t.Commission,
			&t.Reason, &t.WeekendClose,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
