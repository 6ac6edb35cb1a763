package gesture

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/veilchat/security-core/internal/model"
	"github.com/veilchat/security-core/pkg/logger"
	"github.com/veilchat/security-core/pkg/metrics"
)

// Config is the shared contract of both pattern matchers.
type Config struct {
	Enabled       bool
	Cooldown      time.Duration
	RequiredCount int
	PressMaxGap   time.Duration
	PressDebounce time.Duration
	ShakeThresh   float64
	ShakeWindow   time.Duration
	ShakeDebounce time.Duration
}

// DefaultConfig returns the production gesture parameters.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		Cooldown:      2000 * time.Millisecond,
		RequiredCount: 3,
		PressMaxGap:   400 * time.Millisecond,
		PressDebounce: 50 * time.Millisecond,
		ShakeThresh:   2.5,
		ShakeWindow:   2000 * time.Millisecond,
		ShakeDebounce: 200 * time.Millisecond,
	}
}

// Detector gates the matchers behind the firing conditions that apply at
// the moment a pattern completes: the feature must be enabled, the app
// must be in the foreground, and the cooldown since the previous firing
// must have elapsed. A suppressed completion leaves the shake buffer as
// accumulated; the press matcher has already cleared its own.
type Detector struct {
	config     Config
	logger     *logger.Logger
	foreground func() bool

	mu            sync.Mutex
	press         *PressMatcher
	shake         *ShakeMatcher
	cooldownUntil time.Time
}

// NewDetector creates a panic gesture detector. foreground reports
// whether the app is currently foregrounded.
func NewDetector(config Config, foreground func() bool, log *logger.Logger) *Detector {
	return &Detector{
		config:     config,
		logger:     log.WithComponent("gesture"),
		foreground: foreground,
		press:      NewPressMatcher(config.RequiredCount, config.PressMaxGap, config.PressDebounce),
		shake:      NewShakeMatcher(config.RequiredCount, config.ShakeThresh, config.ShakeWindow, config.ShakeDebounce),
	}
}

// HandlePress feeds one button press and reports whether the panic
// trigger fired.
func (d *Detector) HandlePress(e model.PressEvent) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.press.OnPress(e.At) {
		return false
	}
	return d.fire("press", e.At)
}

// HandleMotion feeds one accelerometer sample to the shake matcher and
// reports whether the panic trigger fired.
func (d *Detector) HandleMotion(s model.MotionSample) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.shake.OnMagnitude(Magnitude(s), s.At) {
		return false
	}
	if !d.fire("shake", s.At) {
		return false
	}
	d.shake.Consume()
	return true
}

// fire applies the gates shared by both matchers. Caller holds d.mu.
func (d *Detector) fire(matcher string, at time.Time) bool {
	if !d.config.Enabled {
		return false
	}
	if d.foreground != nil && !d.foreground() {
		return false
	}
	if !d.cooldownUntil.IsZero() && at.Before(d.cooldownUntil) {
		return false
	}

	d.cooldownUntil = at.Add(d.config.Cooldown)
	metrics.PanicTriggersTotal.WithLabelValues(matcher).Inc()
	d.logger.Warn("panic gesture recognized",
		zap.String("matcher", matcher),
		zap.Time("at", at),
	)
	return true
}

// Reset drops all accumulated pattern state and the cooldown.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.press.Reset()
	d.shake.Reset()
	d.cooldownUntil = time.Time{}
}

// Run consumes press events and accelerometer samples until the context
// is cancelled, invoking onPanic for every firing. After cancellation no
// further onPanic call can happen.
func (d *Detector) Run(ctx context.Context, presses <-chan model.PressEvent, samples <-chan model.MotionSample, onPanic func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-presses:
			if !ok {
				presses = nil
				continue
			}
			metrics.TelemetrySamplesTotal.WithLabelValues("press").Inc()
			if d.HandlePress(e) {
				onPanic()
			}
		case s, ok := <-samples:
			if !ok {
				samples = nil
				continue
			}
			if d.HandleMotion(s) {
				onPanic()
			}
		}
	}
}
