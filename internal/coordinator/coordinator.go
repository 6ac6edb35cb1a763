// Package coordinator implements the lock state machine tying together
// the passcode validator, decoy router, secure eraser, and the motion and
// gesture detectors. All SecurityState mutation flows through this
// package, behind a single mutex, so the state machine stays auditable.
package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veilchat/security-core/internal/credstore"
	"github.com/veilchat/security-core/internal/decoy"
	"github.com/veilchat/security-core/internal/eraser"
	"github.com/veilchat/security-core/internal/model"
	"github.com/veilchat/security-core/internal/motion"
	"github.com/veilchat/security-core/internal/passcode"
	"github.com/veilchat/security-core/pkg/logger"
	"github.com/veilchat/security-core/pkg/metrics"
)

// ErrWeakPasscode is returned when a configured passcode fails format
// validation.
var ErrWeakPasscode = errors.New("coordinator: passcode must be 4-10 digits")

// ErrLocked is returned when a credential mutation is attempted while
// the app is locked. Changing or removing a passcode is only possible
// from an unlocked session; otherwise deleting the real credential
// would bypass the lock without a code ever being validated.
var ErrLocked = errors.New("coordinator: app is locked")

// AuditPublisher receives content-free security events. A nil publisher
// is valid; events are then dropped.
type AuditPublisher interface {
	PublishSecurityEvent(ctx context.Context, event *model.SecurityEvent)
}

// Coordinator is the lock state machine.
type Coordinator struct {
	store     credstore.Store
	validator *passcode.Validator
	router    *decoy.Router
	eraser    *eraser.Eraser
	motion    *motion.Detector
	audit     AuditPublisher
	logger    *logger.Logger

	// dailyReset is invoked on every background-to-foreground
	// transition; the usage-counter bookkeeping behind it lives
	// outside this subsystem.
	dailyReset func()

	mu            sync.Mutex
	locked        bool
	foreground    bool
	isPasscodeSet bool
	isDuressSet   bool
	activeFlavor  model.Flavor

	// now is the clock; tests substitute it.
	now func() time.Time
}

// Options configures optional coordinator collaborators.
type Options struct {
	Audit      AuditPublisher
	DailyReset func()
}

// New creates the coordinator and establishes the cold-start lock state:
// Locked whenever a passcode is configured, Unlocked otherwise. A
// persisted lock flag is never trusted across restarts.
func New(
	ctx context.Context,
	store credstore.Store,
	validator *passcode.Validator,
	router *decoy.Router,
	er *eraser.Eraser,
	md *motion.Detector,
	opts Options,
	log *logger.Logger,
) *Coordinator {
	c := &Coordinator{
		store:        store,
		validator:    validator,
		router:       router,
		eraser:       er,
		motion:       md,
		audit:        opts.Audit,
		dailyReset:   opts.DailyReset,
		logger:       log.WithComponent("coordinator"),
		foreground:   true,
		activeFlavor: model.FlavorVault,
		now:          time.Now,
	}

	// If the store cannot be reached at startup the credentials may well
	// exist, so an unreachable store starts Locked rather than open.
	unavailable := c.refreshCredentialFlags(ctx)
	c.locked = c.isPasscodeSet || unavailable

	return c
}

// refreshCredentialFlags re-reads credential presence from the store and
// reports whether the store itself was unreachable. Only ErrNotFound
// means a credential is genuinely absent.
func (c *Coordinator) refreshCredentialFlags(ctx context.Context) bool {
	_, realErr := c.store.Get(ctx, credstore.KeyRealPasscode)
	c.isPasscodeSet = realErr == nil
	_, duressErr := c.store.Get(ctx, credstore.KeyDuressPasscode)
	c.isDuressSet = duressErr == nil
	return errors.Is(realErr, credstore.ErrUnavailable) ||
		errors.Is(duressErr, credstore.ErrUnavailable)
}

// State returns a snapshot of the current security state.
func (c *Coordinator) State() model.SecurityState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return model.SecurityState{
		IsLocked:         c.locked,
		IsPasscodeSet:    c.isPasscodeSet,
		IsDuressSet:      c.isDuressSet,
		IsDecoyMode:      c.router.DecoyMode(),
		LastActiveFlavor: c.activeFlavor,
		FailedAttempts:   c.validator.FailedAttempts(),
		LockoutUntil:     c.validator.LockoutUntil(),
	}
}

// IsLocked reports whether the app is locked.
func (c *Coordinator) IsLocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locked
}

// Foreground reports whether the app is foregrounded. The panic gesture
// detector consults this at the moment of firing.
func (c *Coordinator) Foreground() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.foreground
}

// SetActiveFlavor records which conversation context the UI is showing.
func (c *Coordinator) SetActiveFlavor(flavor model.Flavor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activeFlavor = flavor
}

// ActiveFlavor returns the conversation context the UI is showing.
func (c *Coordinator) ActiveFlavor() model.Flavor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeFlavor
}

// Lock transitions to Locked, regardless of flavor. This is the manual
// path used by the settings UI.
func (c *Coordinator) Lock(ctx context.Context) {
	c.mu.Lock()
	if c.locked {
		c.mu.Unlock()
		return
	}
	c.locked = true
	c.mu.Unlock()

	metrics.LockRequestsTotal.WithLabelValues("manual").Inc()
	c.publish(ctx, model.EventLocked, "manual")
	c.logger.Info("locked", zap.String("source", "manual"))
}

// Unlock validates code and, on success, transitions to Unlocked. A real
// code clears decoy mode; a duress code turns it on. Both start the
// post-unlock grace window that suppresses an immediate motion re-lock.
func (c *Coordinator) Unlock(ctx context.Context, code string) passcode.Outcome {
	outcome := c.validator.Validate(ctx, code)

	switch outcome {
	case passcode.OutcomeReal:
		c.mu.Lock()
		c.locked = false
		c.mu.Unlock()
		c.router.SetDecoyMode(false)
		c.motion.NoteUnlock()
		c.publish(ctx, model.EventUnlocked, "")
		c.logger.Info("unlocked")

	case passcode.OutcomeDuress:
		c.mu.Lock()
		c.locked = false
		c.mu.Unlock()
		c.router.SetDecoyMode(true)
		c.motion.NoteUnlock()
		c.publish(ctx, model.EventDuressUnlock, "")
		// Indistinguishable from a normal unlock at this log level.
		c.logger.Info("unlocked")

	case passcode.OutcomeLockedOut:
		c.publish(ctx, model.EventLockedOut, "")
	}

	return outcome
}

// SetDecoyMode explicitly enters or leaves decoy mode. Exposed for the
// settings surface; duress unlocks go through Unlock.
func (c *Coordinator) SetDecoyMode(enabled bool) {
	c.router.SetDecoyMode(enabled)
}

// HandleLifecycle reacts to app foreground/background transitions.
func (c *Coordinator) HandleLifecycle(ctx context.Context, event model.LifecycleEvent) {
	switch event.Phase {
	case model.PhaseBackground:
		c.mu.Lock()
		c.foreground = false
		shouldLock := c.isPasscodeSet && !c.activeFlavor.LockExempt()
		if shouldLock {
			c.locked = true
		}
		c.mu.Unlock()

		c.motion.Suspend()
		if shouldLock {
			metrics.LockRequestsTotal.WithLabelValues("lifecycle").Inc()
			c.publish(ctx, model.EventLocked, "background")
			c.logger.Info("locked", zap.String("source", "background"))
		}

	case model.PhaseForeground:
		c.mu.Lock()
		c.foreground = true
		passcodeSet := c.isPasscodeSet
		c.mu.Unlock()

		if passcodeSet {
			c.motion.Resume()
		}
		if c.dailyReset != nil {
			c.dailyReset()
		}
	}
}

// HandleLockRequested reacts to a confirmed face-down placement from the
// motion detector.
func (c *Coordinator) HandleLockRequested(ctx context.Context) {
	c.mu.Lock()
	if c.locked || !c.isPasscodeSet || c.activeFlavor.LockExempt() {
		c.mu.Unlock()
		return
	}
	c.locked = true
	c.mu.Unlock()

	c.publish(ctx, model.EventLocked, "motion")
	c.logger.Info("locked", zap.String("source", "motion"))
}

// HandlePanic reacts to a recognized panic gesture: every real message
// and every decoy message is destroyed and decoy mode is forced off.
// The lock state itself does not change.
func (c *Coordinator) HandlePanic(ctx context.Context) {
	n := c.eraser.WipeAll()
	c.router.SetDecoyMode(false)
	c.publish(ctx, model.EventPanicWipe, "")
	c.logger.Warn("panic wipe executed", zap.Int("messages", n))
}

// WipeFlavor destroys the real messages of one flavor while the user
// stays inside the decoy view, and records the audit event.
func (c *Coordinator) WipeFlavor(ctx context.Context, flavor model.Flavor) int {
	n := c.eraser.WipeFlavor(flavor)
	c.publishFlavor(ctx, model.EventFlavorWiped, flavor)
	return n
}

// WipeAll destroys all content and forces decoy mode off, without the
// panic-path audit reason.
func (c *Coordinator) WipeAll(ctx context.Context) int {
	n := c.eraser.WipeAll()
	c.router.SetDecoyMode(false)
	c.publish(ctx, model.EventPanicWipe, "manual")
	return n
}

// SetPasscode stores a real or duress credential after format checks.
// Refused while locked. The in-memory flags update only after the store
// write succeeds.
func (c *Coordinator) SetPasscode(ctx context.Context, kind, code string) error {
	c.mu.Lock()
	if c.locked {
		c.mu.Unlock()
		return ErrLocked
	}
	c.mu.Unlock()

	if !validFormat(code) {
		return ErrWeakPasscode
	}

	key := credstore.KeyRealPasscode
	if kind == model.PasscodeKindDuress {
		key = credstore.KeyDuressPasscode
	}

	if err := c.store.Set(ctx, key, code); err != nil {
		c.logger.Error("credential store write failed", zap.Error(err))
		return err
	}

	c.mu.Lock()
	if kind == model.PasscodeKindDuress {
		c.isDuressSet = true
	} else {
		c.isPasscodeSet = true
	}
	c.mu.Unlock()
	return nil
}

// DeletePasscode removes a credential. Refused while locked, so the
// lock can never be shed without the code that guards it.
func (c *Coordinator) DeletePasscode(ctx context.Context, kind string) error {
	c.mu.Lock()
	if c.locked {
		c.mu.Unlock()
		return ErrLocked
	}
	c.mu.Unlock()

	key := credstore.KeyRealPasscode
	if kind == model.PasscodeKindDuress {
		key = credstore.KeyDuressPasscode
	}

	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Error("credential store delete failed", zap.Error(err))
		return err
	}

	c.mu.Lock()
	if kind == model.PasscodeKindDuress {
		c.isDuressSet = false
	} else {
		c.isPasscodeSet = false
	}
	c.mu.Unlock()
	return nil
}

func (c *Coordinator) publish(ctx context.Context, typ model.SecurityEventType, reason string) {
	if c.audit == nil {
		return
	}
	c.audit.PublishSecurityEvent(ctx, &model.SecurityEvent{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Type:      typ,
		Reason:    reason,
		CreatedAt: c.now(),
	})
}

func (c *Coordinator) publishFlavor(ctx context.Context, typ model.SecurityEventType, flavor model.Flavor) {
	if c.audit == nil {
		return
	}
	c.audit.PublishSecurityEvent(ctx, &model.SecurityEvent{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Type:      typ,
		Flavor:    flavor,
		CreatedAt: c.now(),
	})
}

// validFormat accepts 4 to 10 ASCII digits.
func validFormat(code string) bool {
	if len(code) < 4 || len(code) > 10 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
