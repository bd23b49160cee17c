package backtest

import (
	"container/heap"

	"github.com/rustyeddy/backtester/market"
)

// event is one completed range bar waiting its turn in the replay.
type event struct {
	at         int64 // bar end time, unix nanos
	instrument string
	bar        market.RangeBar
	seq        int // insertion order, breaks end-time ties deterministically
}

// eventQueue merges all instruments into one chronological stream. Bars
// sharing an end time pop in insertion order, so a replay over the same
// inputs always produces the same event sequence.
type eventQueue struct {
	items []event
	next  int
}

func (q *eventQueue) Len() int { return len(q.items) }

func (q *eventQueue) Less(i, j int) bool {
	if q.items[i].at != q.items[j].at {
		return q.items[i].at < q.items[j].at
	}
	return q.items[i].seq < q.items[j].seq
}

func (q *eventQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *eventQueue) Push(x any) { q.items = append(q.items, x.(event)) }

func (q *eventQueue) Pop() any {
	old := q.items
	n := len(old)
	it := old[n-1]
	q.items = old[:n-1]
	return it
}

func newEventQueue() *eventQueue {
	q := &eventQueue{}
	heap.Init(q)
	return q
}

func (q *eventQueue) push(instrument string, bar market.RangeBar) {
	heap.Push(q, event{
		at:         bar.EndTime.UnixNano(),
		instrument: instrument,
		bar:        bar,
		seq:        q.next,
	})
	q.next++
}

func (q *eventQueue) pop() event {
	return heap.Pop(q).(event)
}
