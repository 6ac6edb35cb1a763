// Package handler provides HTTP handlers for the security core API.
package handler

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"github.com/veilchat/security-core/internal/coordinator"
	"github.com/veilchat/security-core/internal/middleware"
	"github.com/veilchat/security-core/internal/model"
	"github.com/veilchat/security-core/internal/passcode"
	"github.com/veilchat/security-core/pkg/logger"
)

// Wrong-code feedback is deliberately identical across normal and
// lockout-adjacent rejections.
const msgIncorrectPasscode = "incorrect passcode"

// SecurityHandler handles lock, unlock, validation, and decoy endpoints.
type SecurityHandler struct {
	coordinator *coordinator.Coordinator
	validator   *passcode.Validator
	logger      *logger.Logger
}

// NewSecurityHandler creates a new security handler.
func NewSecurityHandler(c *coordinator.Coordinator, v *passcode.Validator, log *logger.Logger) *SecurityHandler {
	return &SecurityHandler{
		coordinator: c,
		validator:   v,
		logger:      log,
	}
}

// State handles GET /api/v1/security/state
func (h *SecurityHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.coordinator.State())
}

// Validate handles POST /api/v1/security/validate
func (h *SecurityHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req model.ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidatePasscodeFormat(req.Code); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome := h.validator.Validate(r.Context(), req.Code)
	writeJSON(w, http.StatusOK, &model.ValidateResponse{
		Outcome:    string(outcome),
		RetryAfter: retryAfterSeconds(h.validator),
	})
}

// Unlock handles POST /api/v1/security/unlock
func (h *SecurityHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req model.ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidatePasscodeFormat(req.Code); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch h.coordinator.Unlock(r.Context(), req.Code) {
	case passcode.OutcomeReal, passcode.OutcomeDuress:
		// A duress unlock is indistinguishable from a real one on the
		// wire; the state snapshot reflects whichever view is active.
		writeJSON(w, http.StatusOK, h.coordinator.State())

	case passcode.OutcomeLockedOut:
		writeRetryError(w, http.StatusLocked, msgIncorrectPasscode, retryAfterSeconds(h.validator))

	default:
		if retry := retryAfterSeconds(h.validator); retry > 0 {
			writeRetryError(w, http.StatusUnauthorized, msgIncorrectPasscode, retry)
			return
		}
		writeError(w, http.StatusUnauthorized, msgIncorrectPasscode)
	}
}

// Lock handles POST /api/v1/security/lock
func (h *SecurityHandler) Lock(w http.ResponseWriter, r *http.Request) {
	h.coordinator.Lock(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// SetDecoyMode handles POST /api/v1/security/decoy
func (h *SecurityHandler) SetDecoyMode(w http.ResponseWriter, r *http.Request) {
	var req model.SetDecoyModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.coordinator.SetDecoyMode(req.Enabled)
	w.WriteHeader(http.StatusNoContent)
}

// SetPasscode handles PUT /api/v1/security/passcode
func (h *SecurityHandler) SetPasscode(w http.ResponseWriter, r *http.Request) {
	var req model.SetPasscodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidatePasscodeKind(req.Kind); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidatePasscodeFormat(req.Code); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.coordinator.SetPasscode(r.Context(), req.Kind, req.Code); err != nil {
		if errors.Is(err, coordinator.ErrLocked) {
			writeError(w, http.StatusLocked, "app is locked")
			return
		}
		h.logger.Error("failed to set passcode")
		writeError(w, http.StatusServiceUnavailable, "credential store unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeletePasscode handles DELETE /api/v1/security/passcode
func (h *SecurityHandler) DeletePasscode(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if err := middleware.ValidatePasscodeKind(kind); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.coordinator.DeletePasscode(r.Context(), kind); err != nil {
		if errors.Is(err, coordinator.ErrLocked) {
			writeError(w, http.StatusLocked, "app is locked")
			return
		}
		h.logger.Error("failed to delete passcode")
		writeError(w, http.StatusServiceUnavailable, "credential store unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetActiveFlavor handles PUT /api/v1/security/flavor
func (h *SecurityHandler) SetActiveFlavor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Flavor string `json:"flavor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	flavor, err := middleware.ValidateFlavor(req.Flavor)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.coordinator.SetActiveFlavor(flavor)
	w.WriteHeader(http.StatusNoContent)
}

func retryAfterSeconds(v *passcode.Validator) int {
	remaining := v.RemainingLockout()
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Seconds()))
}
