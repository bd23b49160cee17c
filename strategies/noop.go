package strategies

// Noop never trades. Useful for replaying data to inspect the regime
// timeline without opening positions.
type Noop struct{}

func init() {
	Register("noop", func() Strategy { return Noop{} })
}

func (Noop) Name() string { return "noop" }

func (Noop) Analyze(Context) Decision { return NoSignal() }
