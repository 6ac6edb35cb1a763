// Package motion decides when a deliberate face-down placement of the
// device should auto-lock the app.
//
// The detector folds over a periodic 3-axis accelerometer stream and
// keeps two flags: an arming flag set when the device was recently held
// at a typical handheld tilt, and a flat-disarm counter that clears it
// when the device has been lying flat and still for a while. Together
// they distinguish a deliberate face-down flip (lock) from a phone that
// was simply set down face-up and later shifted (no lock).
package motion

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/veilchat/security-core/internal/model"
	"github.com/veilchat/security-core/pkg/logger"
	"github.com/veilchat/security-core/pkg/metrics"
)

// Config holds the detector thresholds. Accelerations are in g.
type Config struct {
	// JitterStationary is the summed per-axis delta below which a
	// sample counts as stationary.
	JitterStationary float64
	// JitterActive is the delta above which the device counts as
	// actively handled.
	JitterActive float64
	// FaceDownZ is the z reading below which the screen faces down.
	FaceDownZ float64
	// AxisBound bounds |x| and |y| for both face-down and flat poses.
	AxisBound float64
	// HeldZMin/HeldZMax bracket the typical handheld tilt.
	HeldZMin float64
	HeldZMax float64
	// FlatZ and FlatNegZ bound the "lying flat" pose on either side.
	FlatZ    float64
	FlatNegZ float64
	// FlatFrames is how many consecutive flat, stationary samples
	// disarm the detector.
	FlatFrames int
	// ConfirmFrames is how many consecutive face-down, stationary
	// samples confirm a lock.
	ConfirmFrames int
	// UnlockGrace suppresses lock requests right after an unlock.
	UnlockGrace time.Duration
}

// DefaultConfig returns the production thresholds, tuned for a ~100ms
// sampling interval.
func DefaultConfig() Config {
	return Config{
		JitterStationary: 0.05,
		JitterActive:     0.15,
		FaceDownZ:        -0.85,
		AxisBound:        0.15,
		HeldZMin:         0.3,
		HeldZMax:         0.7,
		FlatZ:            0.85,
		FlatNegZ:         -0.2,
		FlatFrames:       20,
		ConfirmFrames:    3,
		UnlockGrace:      5 * time.Second,
	}
}

// Detector is the face-down lock detector. It is not safe for concurrent
// use; Run serializes all sample processing on one goroutine.
type Detector struct {
	config Config
	logger *logger.Logger

	mu                  sync.Mutex
	suspended           bool
	hasLast             bool
	last                model.MotionSample
	lastAt              time.Time
	stillness           int
	flatStreak          int
	recentlyHeldUpright bool
	graceUntil          time.Time
}

// NewDetector creates a detector with the given thresholds.
func NewDetector(config Config, log *logger.Logger) *Detector {
	return &Detector{
		config: config,
		logger: log.WithComponent("motion"),
	}
}

// NoteUnlock starts the post-unlock grace window. The window is anchored
// on the last sample's timestamp rather than the wall clock, since lock
// decisions compare against device time and the two may be skewed.
func (d *Detector) NoteUnlock() {
	d.mu.Lock()
	defer d.mu.Unlock()
	at := d.lastAt
	if at.IsZero() {
		at = time.Now()
	}
	d.graceUntil = at.Add(d.config.UnlockGrace)
}

// Suspend stops sample evaluation; samples are dropped until Resume.
func (d *Detector) Suspend() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.suspended = true
	d.hasLast = false
	d.stillness = 0
	d.flatStreak = 0
}

// Resume re-enables sample evaluation.
func (d *Detector) Resume() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.suspended = false
}

// OnSample folds one accelerometer sample into the detector state and
// reports whether a lock should be requested. Decisions use the sample's
// own timestamp.
func (d *Detector) OnSample(s model.MotionSample) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !s.At.IsZero() {
		d.lastAt = s.At
	}

	if d.suspended {
		return false
	}

	if !d.hasLast {
		d.last = s
		d.hasLast = true
		return false
	}

	jitter := math.Abs(s.X-d.last.X) + math.Abs(s.Y-d.last.Y) + math.Abs(s.Z-d.last.Z)
	d.last = s

	isStationary := jitter < d.config.JitterStationary
	axesCentered := math.Abs(s.X) < d.config.AxisBound && math.Abs(s.Y) < d.config.AxisBound
	isFaceDown := s.Z < d.config.FaceDownZ && axesCentered
	isActivelyHeld := s.Z > d.config.HeldZMin && s.Z < d.config.HeldZMax

	if isActivelyHeld {
		d.recentlyHeldUpright = true
		d.stillness = 0
	}

	if jitter > d.config.JitterActive {
		d.stillness = 0
	}

	// Lying flat and still long enough disarms the detector, so a phone
	// left on a table cannot lock when it later gets nudged.
	isFlat := (s.Z > d.config.FlatZ || s.Z < d.config.FlatNegZ) && axesCentered && isStationary
	if isFlat {
		d.flatStreak++
		if d.flatStreak >= d.config.FlatFrames {
			d.recentlyHeldUpright = false
		}
	} else {
		d.flatStreak = 0
	}

	if isFaceDown && isStationary && d.recentlyHeldUpright {
		d.stillness++
	} else if !isFaceDown {
		d.stillness = 0
	}

	if d.stillness >= d.config.ConfirmFrames {
		d.stillness = 0
		if s.At.Before(d.graceUntil) {
			return false
		}
		d.recentlyHeldUpright = false
		return true
	}

	return false
}

// Run consumes samples until the context is cancelled, invoking onLock
// for every confirmed face-down placement. After cancellation no further
// onLock call can happen.
func (d *Detector) Run(ctx context.Context, samples <-chan model.MotionSample, onLock func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-samples:
			if !ok {
				return
			}
			metrics.TelemetrySamplesTotal.WithLabelValues("motion").Inc()
			if d.OnSample(s) {
				d.logger.Info("face-down placement confirmed",
					zap.Time("sample_at", s.At),
				)
				metrics.LockRequestsTotal.WithLabelValues("motion").Inc()
				onLock()
			}
		}
	}
}
