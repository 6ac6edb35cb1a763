package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/veilchat/security-core/internal/coordinator"
	"github.com/veilchat/security-core/internal/decoy"
	"github.com/veilchat/security-core/internal/middleware"
	"github.com/veilchat/security-core/internal/model"
	"github.com/veilchat/security-core/pkg/logger"
)

// MessageHandler handles message visibility, append, and wipe endpoints.
type MessageHandler struct {
	router      *decoy.Router
	coordinator *coordinator.Coordinator
	logger      *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(router *decoy.Router, c *coordinator.Coordinator, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		router:      router,
		coordinator: c,
		logger:      log,
	}
}

// flavorParam extracts and validates the flavor path parameter, and
// enforces the lock gate for flavors that are not lock-exempt.
func (h *MessageHandler) flavorParam(w http.ResponseWriter, r *http.Request) (model.Flavor, bool) {
	flavor, err := middleware.ValidateFlavor(chi.URLParam(r, "flavor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}

	if h.coordinator.IsLocked() && !flavor.LockExempt() {
		writeError(w, http.StatusLocked, "app is locked")
		return "", false
	}

	return flavor, true
}

// List handles GET /api/v1/flavors/{flavor}/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	flavor, ok := h.flavorParam(w, r)
	if !ok {
		return
	}

	messages := h.router.VisibleMessages(flavor)
	if messages == nil {
		messages = []model.Message{}
	}

	writeJSON(w, http.StatusOK, &model.ListMessagesResponse{
		Messages: messages,
		Total:    len(messages),
	})
}

// Append handles POST /api/v1/flavors/{flavor}/messages
func (h *MessageHandler) Append(w http.ResponseWriter, r *http.Request) {
	flavor, ok := h.flavorParam(w, r)
	if !ok {
		return
	}

	var req model.AppendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role, err := middleware.ValidateRole(string(req.Role))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateMessageText(req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.router.Append(flavor, role, req.Text)
	if err != nil {
		h.logger.Error("failed to append message")
		writeError(w, http.StatusInternalServerError, "failed to append message")
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// WipeFlavor handles DELETE /api/v1/flavors/{flavor}/messages
func (h *MessageHandler) WipeFlavor(w http.ResponseWriter, r *http.Request) {
	flavor, ok := h.flavorParam(w, r)
	if !ok {
		return
	}

	wiped := h.coordinator.WipeFlavor(r.Context(), flavor)
	writeJSON(w, http.StatusOK, map[string]int{"wiped": wiped})
}

// WipeAll handles DELETE /api/v1/messages
func (h *MessageHandler) WipeAll(w http.ResponseWriter, r *http.Request) {
	wiped := h.coordinator.WipeAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]int{"wiped": wiped})
}

// SetPreset handles PUT /api/v1/flavors/{flavor}/preset
func (h *MessageHandler) SetPreset(w http.ResponseWriter, r *http.Request) {
	flavor, ok := h.flavorParam(w, r)
	if !ok {
		return
	}

	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.router.SetPreset(flavor, req.Key); err != nil {
		writeError(w, http.StatusBadRequest, "unknown preset key")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
