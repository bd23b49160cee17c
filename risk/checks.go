package risk

import "fmt"

// Policy holds the entry gates checked before any new trade.
type Policy struct {
	RiskPct        float64 // per-trade risk as fraction of equity
	MaxConcurrent  int     // open trades across all instruments
	MaxDailyTrades int     // entries per UTC day
}

func DefaultPolicy() Policy {
	return Policy{
		RiskPct:        0.01,
		MaxConcurrent:  3,
		MaxDailyTrades: 6,
	}
}

type Violation struct {
	Code string
	Msg  string
}

func (v Violation) String() string { return v.Code }

// Decision is the outcome of an entry gate check.
type Decision struct {
	Allowed    bool
	Violations []Violation
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Reason returns the first violation code, or "" when allowed.
func (d Decision) Reason() string {
	if len(d.Violations) == 0 {
		return ""
	}
	return d.Violations[0].Code
}

// Evaluate checks a planned entry against the policy and the current
// account counters. It never sizes the trade; Calculate does that.
func Evaluate(p Policy, openTrades, dailyTrades int, entry, stop float64) Decision {
	d := Decision{Allowed: true}

	if entry == 0 || stop == 0 || entry == stop {
		d.add("NO_STOP_DISTANCE", "entry and stop must be set and distinct")
		return d
	}
	if p.MaxConcurrent > 0 && openTrades >= p.MaxConcurrent {
		d.add("MAX_CONCURRENT",
			fmt.Sprintf("open trades %d >= max %d", openTrades, p.MaxConcurrent))
	}
	if p.MaxDailyTrades > 0 && dailyTrades >= p.MaxDailyTrades {
		d.add("MAX_DAILY_TRADES",
			fmt.Sprintf("daily trades %d >= max %d", dailyTrades, p.MaxDailyTrades))
	}
	return d
}
