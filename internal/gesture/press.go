// Package gesture recognizes destruct-trigger patterns from physical
// input: rapid hardware button presses or violent shakes. Both matchers
// are explicit finite-state objects driven by event timestamps, so
// delayed delivery can never silently widen a pattern window and tests
// need no real timers.
package gesture

import (
	"time"
)

// PressMatcher recognizes a burst of qualifying button presses: a fixed
// number of presses where every consecutive pair is close together.
type PressMatcher struct {
	debounce time.Duration
	maxGap   time.Duration
	required int

	lastAccepted time.Time
	buf          []time.Time
}

// NewPressMatcher creates a press matcher requiring `required` presses
// with at most maxGap between consecutive presses. Presses closer than
// debounce to the previous accepted press are dropped.
func NewPressMatcher(required int, maxGap, debounce time.Duration) *PressMatcher {
	return &PressMatcher{
		debounce: debounce,
		maxGap:   maxGap,
		required: required,
	}
}

// OnPress feeds one press timestamp and reports whether the pattern
// completed. The buffer is cleared on every completed recognition, so a
// suppressed firing cannot immediately re-trigger on further input.
func (m *PressMatcher) OnPress(t time.Time) bool {
	if !m.lastAccepted.IsZero() && t.Sub(m.lastAccepted) < m.debounce {
		return false
	}
	m.lastAccepted = t

	// Sliding buffer covering `required` presses at the maximum gap.
	window := m.maxGap * time.Duration(m.required)
	m.buf = append(m.buf, t)
	kept := m.buf[:0]
	for _, ts := range m.buf {
		if t.Sub(ts) <= window {
			kept = append(kept, ts)
		}
	}
	m.buf = kept

	if len(m.buf) < m.required {
		return false
	}

	recent := m.buf[len(m.buf)-m.required:]
	for i := 1; i < len(recent); i++ {
		if recent[i].Sub(recent[i-1]) > m.maxGap {
			return false
		}
	}

	m.buf = m.buf[:0]
	return true
}

// Reset drops all accumulated press state.
func (m *PressMatcher) Reset() {
	m.buf = m.buf[:0]
	m.lastAccepted = time.Time{}
}
