package gesture

import (
	"math"
	"time"

	"github.com/veilchat/security-core/internal/model"
)

// ShakeMatcher recognizes repeated violent shakes: threshold crossings of
// the over-gravity acceleration magnitude, debounced and counted within a
// rolling window. Unlike the press matcher there is no ordering
// constraint beyond falling inside the window.
type ShakeMatcher struct {
	threshold float64
	debounce  time.Duration
	window    time.Duration
	required  int

	lastCrossing time.Time
	buf          []time.Time
}

// NewShakeMatcher creates a shake matcher firing on `required` crossings
// of threshold (in g over gravity) within the rolling window. Crossings
// closer than debounce to the previous one are dropped.
func NewShakeMatcher(required int, threshold float64, window, debounce time.Duration) *ShakeMatcher {
	return &ShakeMatcher{
		threshold: threshold,
		debounce:  debounce,
		window:    window,
		required:  required,
	}
}

// Magnitude converts a raw accelerometer sample to its over-gravity
// scalar magnitude.
func Magnitude(s model.MotionSample) float64 {
	return math.Sqrt(s.X*s.X+s.Y*s.Y+s.Z*s.Z) - 1.0
}

// OnMagnitude feeds one scalar sample and reports whether the pattern
// completed. Pruning and comparison use the sample's own timestamp. The
// buffer is kept on completion; the caller consumes it only when the
// firing actually goes through.
func (m *ShakeMatcher) OnMagnitude(mag float64, t time.Time) bool {
	if mag < m.threshold {
		return false
	}
	if !m.lastCrossing.IsZero() && t.Sub(m.lastCrossing) < m.debounce {
		return false
	}
	m.lastCrossing = t

	m.buf = append(m.buf, t)
	kept := m.buf[:0]
	for _, ts := range m.buf {
		if t.Sub(ts) <= m.window {
			kept = append(kept, ts)
		}
	}
	m.buf = kept

	return len(m.buf) >= m.required
}

// Consume drops the buffered crossings after a firing went through.
func (m *ShakeMatcher) Consume() {
	m.buf = m.buf[:0]
}

// Reset drops all accumulated shake state.
func (m *ShakeMatcher) Reset() {
	m.buf = m.buf[:0]
	m.lastCrossing = time.Time{}
}
