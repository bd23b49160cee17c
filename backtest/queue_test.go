package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/market"
)

func TestEventQueueOrdersByEndTime(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	q := newEventQueue()
	q.push("EUR_USD", market.RangeBar{EndTime: base.Add(2 * time.Minute)})
	q.push("EUR_USD", market.RangeBar{EndTime: base})
	q.push("EUR_USD", market.RangeBar{EndTime: base.Add(time.Minute)})

	var got []time.Time
	for q.Len() > 0 {
		got = append(got, q.pop().bar.EndTime)
	}
	require.Len(t, got, 3)
	assert.Equal(t, base, got[0])
	assert.Equal(t, base.Add(time.Minute), got[1])
	assert.Equal(t, base.Add(2*time.Minute), got[2])
}

func TestEventQueueBreaksTiesByInsertionOrder(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	q := newEventQueue()
	q.push("EUR_USD", market.RangeBar{EndTime: at})
	q.push("GBP_USD", market.RangeBar{EndTime: at})
	q.push("USD_JPY", market.RangeBar{EndTime: at})

	assert.Equal(t, "EUR_USD", q.pop().instrument)
	assert.Equal(t, "GBP_USD", q.pop().instrument)
	assert.Equal(t, "USD_JPY", q.pop().instrument)
}
