package regime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func confirmTrending(t *testing.T, c *Classifier, instrument string) {
	t.Helper()
	c.Apply(instrument, 85)
	score, reg := c.Apply(instrument, 85)
	assert.Equal(t, Trending, reg)
	assert.Equal(t, 85.0, score)
}

func TestClassifierInitialState(t *testing.T) {
	t.Parallel()

	c := NewClassifier(0, 0)
	score, reg := c.Confirmed("EUR_USD")
	assert.Equal(t, Transitional, reg)
	assert.Equal(t, NeutralScore, score)
}

func TestClassifierCommitsAfterPersistence(t *testing.T) {
	t.Parallel()

	c := NewClassifier(15, 2)

	// First qualifying cross: pending only, confirmed unchanged.
	score, reg := c.Apply("EUR_USD", 85)
	assert.Equal(t, Transitional, reg)
	assert.Equal(t, 50.0, score)

	// Second consecutive confirmation commits.
	score, reg = c.Apply("EUR_USD", 85)
	assert.Equal(t, Trending, reg)
	assert.Equal(t, 85.0, score)
}

func TestClassifierShallowCrossNeverFlips(t *testing.T) {
	t.Parallel()

	c := NewClassifier(15, 2)
	confirmTrending(t, c, "EUR_USD")

	// 60 crosses the 70 boundary by only 10 points. No matter how often
	// it repeats, the confirmed regime must not move.
	for i := 0; i < 20; i++ {
		score, reg := c.Apply("EUR_USD", 60)
		assert.Equal(t, Trending, reg)
		assert.Equal(t, 85.0, score)
	}
}

func TestClassifierReversalBeforePersistence(t *testing.T) {
	t.Parallel()

	c := NewClassifier(15, 2)
	confirmTrending(t, c, "EUR_USD")

	// Deep qualifying cross, but it bounces back before the second
	// confirmation: confirmed regime stays trending.
	score, reg := c.Apply("EUR_USD", 54)
	assert.Equal(t, Trending, reg)
	assert.Equal(t, 85.0, score)

	score, reg = c.Apply("EUR_USD", 80)
	assert.Equal(t, Trending, reg)
	assert.Equal(t, 80.0, score)
}

func TestClassifierTrendingSurvivesRepeatedSingleDips(t *testing.T) {
	t.Parallel()

	c := NewClassifier(15, 2)
	confirmTrending(t, c, "EUR_USD")

	// 85 / 83 confirmed trending; each 54 dip is a 16-point qualifying
	// cross but reverses to 80 before a second confirmation.
	sequence := []float64{85, 83, 54, 80, 83, 54, 80}
	for _, raw := range sequence {
		_, reg := c.Apply("EUR_USD", raw)
		assert.Equal(t, Trending, reg, "raw score %v flipped the confirmed regime", raw)
	}
}

func TestClassifierFlipCommitsBothDirections(t *testing.T) {
	t.Parallel()

	c := NewClassifier(15, 2)
	confirmTrending(t, c, "EUR_USD")

	// Two consecutive deep dips commit transitional.
	c.Apply("EUR_USD", 54)
	score, reg := c.Apply("EUR_USD", 54)
	assert.Equal(t, Transitional, reg)
	assert.Equal(t, 54.0, score)

	// And further down into range: boundary 30, needs ≤ 15.
	c.Apply("EUR_USD", 10)
	score, reg = c.Apply("EUR_USD", 10)
	assert.Equal(t, Range, reg)
	assert.Equal(t, 10.0, score)
}

func TestClassifierInstrumentsAreIndependent(t *testing.T) {
	t.Parallel()

	c := NewClassifier(15, 2)
	confirmTrending(t, c, "EUR_USD")

	_, reg := c.Confirmed("GBP_USD")
	assert.Equal(t, Transitional, reg)
}

func TestClassifierSameRegimeTracksScore(t *testing.T) {
	t.Parallel()

	c := NewClassifier(15, 2)
	confirmTrending(t, c, "EUR_USD")

	score, reg := c.Apply("EUR_USD", 92)
	assert.Equal(t, Trending, reg)
	assert.Equal(t, 92.0, score)
}

func TestClassifierReset(t *testing.T) {
	t.Parallel()

	c := NewClassifier(15, 2)
	confirmTrending(t, c, "EUR_USD")
	confirmTrending(t, c, "GBP_USD")

	c.Reset("EUR_USD")
	_, reg := c.Confirmed("EUR_USD")
	assert.Equal(t, Transitional, reg)
	_, reg = c.Confirmed("GBP_USD")
	assert.Equal(t, Trending, reg)

	c.ResetAll()
	_, reg = c.Confirmed("GBP_USD")
	assert.Equal(t, Transitional, reg)
}

func TestRawRegime(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Trending, RawRegime(70))
	assert.Equal(t, Transitional, RawRegime(69.9))
	assert.Equal(t, Transitional, RawRegime(30))
	assert.Equal(t, Range, RawRegime(29.9))
}

func TestRiskMultiplier(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, RiskMultiplier(Trending))
	assert.Equal(t, 0.6, RiskMultiplier(Transitional))
	assert.Equal(t, 0.7, RiskMultiplier(Range))
}
