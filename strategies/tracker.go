package strategies

import (
	"time"

	"go.uber.org/zap"
)

const (
	trackerWindow    = 10
	cooldownLosses   = 5
	cooldownDuration = 24 * time.Hour
)

type trackedClose struct {
	r            float64
	at           time.Time
	weekendClose bool
}

type trackedState struct {
	closes        []trackedClose // bounded to trackerWindow, oldest first
	cooldownUntil time.Time
}

func (s *trackedState) windowR() float64 {
	sum := 0.0
	for _, c := range s.closes {
		sum += c.r
	}
	return sum
}

// consecutiveLosses counts losing closes from the tail of the window.
// Forced weekend closes are skipped, not counted either way.
func (s *trackedState) consecutiveLosses() int {
	count := 0
	for i := len(s.closes) - 1; i >= 0; i-- {
		c := s.closes[i]
		if c.weekendClose {
			continue
		}
		if c.r >= 0 {
			break
		}
		count++
	}
	return count
}

// PerformanceTracker keeps an independent last-10-trade window per
// strategy. It drives two things: a risk multiplier from the window's
// cumulative R, and a 24-hour cooldown after five consecutive losses.
// Implements TradeReporter.
type PerformanceTracker struct {
	states map[string]*trackedState
	log    *zap.Logger
}

func NewPerformanceTracker(log *zap.Logger) *PerformanceTracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &PerformanceTracker{
		states: make(map[string]*trackedState),
		log:    log,
	}
}

func (t *PerformanceTracker) state(strategy string) *trackedState {
	s, ok := t.states[strategy]
	if !ok {
		s = &trackedState{}
		t.states[strategy] = s
	}
	return s
}

// RecordClose appends a close outcome and triggers the cooldown when the
// consecutive-loss threshold is reached.
func (t *PerformanceTracker) RecordClose(strategy string, r float64, at time.Time, weekendClose bool) {
	s := t.state(strategy)
	s.closes = append(s.closes, trackedClose{r: r, at: at, weekendClose: weekendClose})
	if len(s.closes) > trackerWindow {
		s.closes = s.closes[len(s.closes)-trackerWindow:]
	}

	if !weekendClose && r < 0 && s.consecutiveLosses() >= cooldownLosses {
		s.cooldownUntil = at.Add(cooldownDuration)
		t.log.Warn("strategy cooldown triggered",
			zap.String("strategy", strategy),
			zap.Int("consecutive_losses", s.consecutiveLosses()),
			zap.Time("until", s.cooldownUntil),
		)
	}
}

// Multiplier maps the window's cumulative R to a risk-size multiplier.
func (t *PerformanceTracker) Multiplier(strategy string) float64 {
	r := t.state(strategy).windowR()
	switch {
	case r >= 5.0:
		return 1.3
	case r >= 2.0:
		return 1.1
	case r >= 0.0:
		return 1.0
	case r >= -2.0:
		return 0.8
	}
	return 0.6
}

// InCooldown reports whether the strategy is paused at the given time.
func (t *PerformanceTracker) InCooldown(strategy string, now time.Time) bool {
	s := t.state(strategy)
	return !s.cooldownUntil.IsZero() && now.Before(s.cooldownUntil)
}

// CooldownUntil returns the cooldown expiry, zero when none is active.
func (t *PerformanceTracker) CooldownUntil(strategy string) time.Time {
	return t.state(strategy).cooldownUntil
}

// ResetCooldown clears an active cooldown.
func (t *PerformanceTracker) ResetCooldown(strategy string) {
	t.state(strategy).cooldownUntil = time.Time{}
}
