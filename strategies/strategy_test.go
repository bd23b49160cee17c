package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/market"
)

func TestDecisionStates(t *testing.T) {
	t.Parallel()

	accepted := Accept(Signal{Instrument: "EUR_USD", Side: market.Long})
	sig, ok := accepted.Signal()
	assert.True(t, ok)
	assert.Equal(t, "EUR_USD", sig.Instrument)
	_, rejected := accepted.Rejected()
	assert.False(t, rejected)

	reject := Reject("MAX_CONCURRENT")
	reason, rejected := reject.Rejected()
	assert.True(t, rejected)
	assert.Equal(t, "MAX_CONCURRENT", reason)
	_, ok = reject.Signal()
	assert.False(t, ok)

	none := NoSignal()
	_, ok = none.Signal()
	assert.False(t, ok)
	_, rejected = none.Rejected()
	assert.False(t, rejected)
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	names := Names()
	assert.Contains(t, names, "momentum")
	assert.Contains(t, names, "noop")

	s, err := New("momentum")
	require.NoError(t, err)
	assert.Equal(t, "momentum", s.Name())

	// Fresh instance per call.
	other, err := New("momentum")
	require.NoError(t, err)
	assert.NotSame(t, s, other)

	_, err = New("nope")
	assert.ErrorContains(t, err, "unknown strategy")
}

func TestRegisterDuplicatePanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		Register("noop", func() Strategy { return Noop{} })
	})
}

func TestNoopNeverSignals(t *testing.T) {
	t.Parallel()

	d := Noop{}.Analyze(Context{CompositeScore: 95})
	_, ok := d.Signal()
	assert.False(t, ok)
	_, rejected := d.Rejected()
	assert.False(t, rejected)
}
