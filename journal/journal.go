// Package journal persists replay output: closed trades, equity samples,
// and the regime timeline.
package journal

import "time"

// TradeRecord is the flattened terminal state of one closed trade.
type TradeRecord struct {
	TradeID          string
	Instrument       string
	Strategy         string
	Side             string
	Lots             float64
	EntryPrice       float64
	StopPrice        float64
	PartialExitPrice float64
	ClosePrice       float64
	OpenTime         time.Time
	CloseTime        time.Time
	CompositeScore   float64
	Regime           string
	PartialR         float64
	RunnerR          float64
	TotalR           float64
	PnL              float64
	Commission       float64
	Reason           string
	WeekendClose     bool
}

// EquitySample is one point on the account equity curve.
type EquitySample struct {
	Time   time.Time
	Equity float64
}

// RegimeSample is one point on the per-instrument regime timeline.
type RegimeSample struct {
	Time       time.Time
	Instrument string
	Score      float64
	Regime     string
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySample) error
	RecordRegime(RegimeSample) error
	Close() error
}
