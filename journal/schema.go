package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	instrument TEXT NOT NULL,
	strategy TEXT NOT NULL,
	side TEXT NOT NULL,
	lots REAL NOT NULL,
	entry_price REAL NOT NULL,
	stop_price REAL NOT NULL,
	partial_exit_price REAL NOT NULL,
	close_price REAL NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	composite_score REAL NOT NULL,
	regime TEXT NOT NULL,
	partial_r REAL NOT NULL,
	runner_r REAL NOT NULL,
	total_r REAL NOT NULL,
	pnl REAL NOT NULL,
	commission REAL NOT NULL,
	reason TEXT NOT NULL,
	weekend_close INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	time DATETIME NOT NULL,
	equity REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS regimes (
	time DATETIME NOT NULL,
	instrument TEXT NOT NULL,
	score REAL NOT NULL,
	regime TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_close_time ON trades(close_time);
CREATE INDEX IF NOT EXISTS idx_equity_time ON equity(time);
CREATE INDEX IF NOT EXISTS idx_regimes_time ON regimes(instrument, time);
`
