package model

import (
	"time"
)

// SecurityState is the shared security posture of the app. It is owned
// by the lock state coordinator; every other component reads it through
// the coordinator and mutates it only via coordinator transitions, with
// one exception: FailedAttempts and LockoutUntil, which are owned by the
// passcode validator.
type SecurityState struct {
	IsLocked         bool       `json:"is_locked"`
	IsPasscodeSet    bool       `json:"is_passcode_set"`
	IsDuressSet      bool       `json:"is_duress_set"`
	IsDecoyMode      bool       `json:"is_decoy_mode"`
	LastActiveFlavor Flavor     `json:"last_active_flavor"`
	FailedAttempts   uint32     `json:"failed_attempts"`
	LockoutUntil     *time.Time `json:"lockout_until,omitempty"`
}

// ValidateRequest is the request body for passcode validation.
type ValidateRequest struct {
	Code string `json:"code"`
}

// ValidateResponse is the response for passcode validation. RetryAfter
// is populated only when the outcome is a lockout.
type ValidateResponse struct {
	Outcome    string `json:"outcome"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// SetPasscodeRequest configures a real or duress credential.
type SetPasscodeRequest struct {
	Code string `json:"code"`
	Kind string `json:"kind"`
}

// SetDecoyModeRequest toggles decoy routing.
type SetDecoyModeRequest struct {
	Enabled bool `json:"enabled"`
}

// Passcode credential kinds.
const (
	PasscodeKindReal   = "real"
	PasscodeKindDuress = "duress"
)
