package regime

// Defaults for the anti-flip filter.
const (
	DefaultFlipThresholdPts = 15.0
	DefaultFlipPersistence  = 2
)

// flipState tracks one instrument's confirmed regime and any pending
// transition.
type flipState struct {
	confirmedRegime Regime
	confirmedScore  float64
	pendingRegime   Regime
	pendingScore    float64
	pendingCount    int
}

func newFlipState() *flipState {
	return &flipState{
		confirmedRegime: Transitional,
		confirmedScore:  NeutralScore,
	}
}

// Classifier applies the anti-flip filter to raw composite scores, per
// instrument. A regime change is committed only when the raw score crosses
// the relevant boundary by at least thresholdPts AND the candidate regime
// persists for persistence consecutive evaluations. Until a change commits,
// callers always see the previously confirmed score and regime.
//
// State is owned by the instance and keyed by instrument; hysteresis is
// path-dependent, so concurrent runs must each use their own Classifier.
type Classifier struct {
	thresholdPts float64
	persistence  int
	states       map[string]*flipState
}

// NewClassifier returns a Classifier with the given boundary-cross threshold
// (points) and consecutive-confirmation requirement. Non-positive arguments
// fall back to the defaults.
func NewClassifier(thresholdPts float64, persistence int) *Classifier {
	if thresholdPts <= 0 {
		thresholdPts = DefaultFlipThresholdPts
	}
	if persistence <= 0 {
		persistence = DefaultFlipPersistence
	}
	return &Classifier{
		thresholdPts: thresholdPts,
		persistence:  persistence,
		states:       make(map[string]*flipState),
	}
}

func (c *Classifier) state(instrument string) *flipState {
	s, ok := c.states[instrument]
	if !ok {
		s = newFlipState()
		c.states[instrument] = s
	}
	return s
}

// Apply feeds one raw score for an instrument and returns the confirmed
// score and regime after the anti-flip filter.
func (c *Classifier) Apply(instrument string, rawScore float64) (float64, Regime) {
	s := c.state(instrument)
	rawRegime := RawRegime(rawScore)

	if rawRegime == s.confirmedRegime {
		// Same regime: track the score, drop any pending transition.
		s.confirmedScore = rawScore
		s.pendingRegime = ""
		s.pendingCount = 0
		return rawScore, s.confirmedRegime
	}

	crossed := rawScore - boundary(s.confirmedRegime, rawRegime)
	if crossed < 0 {
		crossed = -crossed
	}
	if crossed < c.thresholdPts {
		// Shallow cross: ignore entirely, clear pending.
		s.pendingRegime = ""
		s.pendingCount = 0
		return s.confirmedScore, s.confirmedRegime
	}

	if s.pendingRegime == rawRegime {
		s.pendingCount++
		s.pendingScore = rawScore
	} else {
		s.pendingRegime = rawRegime
		s.pendingScore = rawScore
		s.pendingCount = 1
	}

	if s.pendingCount >= c.persistence {
		s.confirmedRegime = rawRegime
		s.confirmedScore = rawScore
		s.pendingRegime = ""
		s.pendingCount = 0
		return rawScore, rawRegime
	}

	return s.confirmedScore, s.confirmedRegime
}

// Confirmed returns the current confirmed score and regime without feeding
// a new observation.
func (c *Classifier) Confirmed(instrument string) (float64, Regime) {
	s := c.state(instrument)
	return s.confirmedScore, s.confirmedRegime
}

// Reset clears the state for one instrument.
func (c *Classifier) Reset(instrument string) {
	delete(c.states, instrument)
}

// ResetAll clears all per-instrument state.
func (c *Classifier) ResetAll() {
	c.states = make(map[string]*flipState)
}
