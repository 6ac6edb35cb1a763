// Package passcode implements passcode validation with rate-limited
// lockout. A duress credential is checked before the real one, so a code
// that matches both always resolves to a duress unlock.
package passcode

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/veilchat/security-core/internal/credstore"
	"github.com/veilchat/security-core/pkg/logger"
	"github.com/veilchat/security-core/pkg/metrics"
)

// Outcome is the result of a validation attempt. Validation never fails
// with an error: every call terminates in one of these four outcomes.
type Outcome string

const (
	OutcomeReal      Outcome = "real"
	OutcomeDuress    Outcome = "duress"
	OutcomeInvalid   Outcome = "invalid"
	OutcomeLockedOut Outcome = "locked_out"
)

// Config holds the lockout schedule.
type Config struct {
	// ShortThreshold is the failure count at which the short lockout
	// starts applying; LongThreshold the count at which the long one
	// takes over.
	ShortThreshold uint32
	LongThreshold  uint32
	ShortLockout   time.Duration
	LongLockout    time.Duration
}

// DefaultConfig returns the production lockout schedule: failures 3
// through 5 impose 30s, 6 and later impose 5 minutes.
func DefaultConfig() Config {
	return Config{
		ShortThreshold: 3,
		LongThreshold:  6,
		ShortLockout:   30 * time.Second,
		LongLockout:    5 * time.Minute,
	}
}

// Validator checks entered codes against the stored real and duress
// credentials. It owns the failed-attempt counter and lockout deadline.
type Validator struct {
	store  credstore.Store
	config Config
	logger *logger.Logger

	mu             sync.Mutex
	failedAttempts uint32
	lockoutUntil   time.Time

	// now is the clock; tests substitute it.
	now func() time.Time
}

// NewValidator creates a validator backed by the given credential store.
func NewValidator(store credstore.Store, config Config, log *logger.Logger) *Validator {
	return &Validator{
		store:  store,
		config: config,
		logger: log.WithComponent("passcode"),
		now:    time.Now,
	}
}

// Validate checks code against the configured credentials.
//
// The lockout deadline is consulted before the credential store is
// touched, so an attacker probing during lockout learns nothing and the
// store sees no traffic. A store failure is treated as "no credential
// configured" and fails toward Invalid, never toward success.
func (v *Validator) Validate(ctx context.Context, code string) Outcome {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	if !v.lockoutUntil.IsZero() && now.Before(v.lockoutUntil) {
		metrics.ValidationsTotal.WithLabelValues(string(OutcomeLockedOut)).Inc()
		return OutcomeLockedOut
	}

	duress := v.fetch(ctx, credstore.KeyDuressPasscode)
	real := v.fetch(ctx, credstore.KeyRealPasscode)

	// Duress wins over real when a misconfigured code matches both.
	if duress != "" && codesEqual(code, duress) {
		v.resetLocked()
		metrics.ValidationsTotal.WithLabelValues(string(OutcomeDuress)).Inc()
		v.logger.Info("passcode accepted", zap.String("outcome", string(OutcomeDuress)))
		return OutcomeDuress
	}

	if real != "" && codesEqual(code, real) {
		v.resetLocked()
		metrics.ValidationsTotal.WithLabelValues(string(OutcomeReal)).Inc()
		v.logger.Info("passcode accepted", zap.String("outcome", string(OutcomeReal)))
		return OutcomeReal
	}

	v.failedAttempts++
	switch {
	case v.failedAttempts >= v.config.LongThreshold:
		v.lockoutUntil = now.Add(v.config.LongLockout)
		metrics.LockoutsTotal.Inc()
	case v.failedAttempts >= v.config.ShortThreshold:
		v.lockoutUntil = now.Add(v.config.ShortLockout)
		metrics.LockoutsTotal.Inc()
	}

	metrics.ValidationsTotal.WithLabelValues(string(OutcomeInvalid)).Inc()
	v.logger.Warn("passcode rejected",
		zap.Uint32("failed_attempts", v.failedAttempts),
		zap.Bool("locked_out", now.Before(v.lockoutUntil)),
	)
	return OutcomeInvalid
}

// FailedAttempts returns the current consecutive failure count.
func (v *Validator) FailedAttempts() uint32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.failedAttempts
}

// LockoutUntil returns the lockout deadline, or nil when no lockout is
// in effect.
func (v *Validator) LockoutUntil() *time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.lockoutUntil.IsZero() {
		return nil
	}
	t := v.lockoutUntil
	return &t
}

// RemainingLockout returns how long the caller must wait before the next
// attempt, or zero when no lockout is in effect. Used for the countdown
// shown after the first rejected attempt under lockout.
func (v *Validator) RemainingLockout() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.lockoutUntil.IsZero() {
		return 0
	}
	remaining := v.lockoutUntil.Sub(v.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (v *Validator) resetLocked() {
	v.failedAttempts = 0
	v.lockoutUntil = time.Time{}
}

// fetch reads one credential, collapsing every failure mode to absent.
func (v *Validator) fetch(ctx context.Context, key string) string {
	value, err := v.store.Get(ctx, key)
	if err != nil {
		return ""
	}
	return value
}

// codesEqual compares two codes in constant time.
func codesEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
