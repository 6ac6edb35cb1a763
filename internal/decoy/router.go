// Package decoy routes conversation content between the real collection
// and per-flavor decoy sets, so that a coerced user never exposes real
// data. While decoy mode is active, no code path in this package reads or
// writes the real collection for user or assistant content.
package decoy

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veilchat/security-core/internal/model"
	"github.com/veilchat/security-core/internal/store"
	"github.com/veilchat/security-core/pkg/logger"
	"github.com/veilchat/security-core/pkg/metrics"
)

var (
	// ErrInvalidRole is returned for roles outside user/assistant/system.
	ErrInvalidRole = errors.New("decoy: invalid message role")

	// ErrUnknownPreset is returned when a preset key is not bundled.
	ErrUnknownPreset = errors.New("decoy: unknown preset key")
)

// Router chooses which message collection is visible and mutable at any
// moment. SetDecoyMode must only be called by the lock state coordinator.
type Router struct {
	store  *store.Store
	logger *logger.Logger

	mu   sync.RWMutex
	mode bool
}

// NewRouter creates a router over the given store, starting in normal
// (non-decoy) mode.
func NewRouter(st *store.Store, log *logger.Logger) *Router {
	return &Router{
		store:  st,
		logger: log.WithComponent("decoy"),
	}
}

// DecoyMode reports whether decoy routing is active.
func (r *Router) DecoyMode() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mode
}

// SetDecoyMode switches routing. Entering preserves any prior burned
// state; leaving clears it so a fresh preset view is available the next
// time decoy mode is entered.
func (r *Router) SetDecoyMode(enabled bool) {
	r.mu.Lock()
	was := r.mode
	r.mode = enabled
	r.mu.Unlock()

	if was && !enabled {
		r.store.ClearBurned()
	}

	metrics.SetDecoyMode(enabled)
	if was != enabled {
		r.logger.Info("decoy mode changed", zap.Bool("enabled", enabled))
	}
}

// VisibleMessages returns the messages the UI may show for a flavor.
//
// In normal mode that is the real collection filtered by flavor. In decoy
// mode: empty if the flavor's decoy set is burned, else the custom decoy
// messages if any exist, else the configured preset collection.
func (r *Router) VisibleMessages(flavor model.Flavor) []model.Message {
	if !r.DecoyMode() {
		return r.store.RealByFlavor(flavor)
	}

	presetKey, custom, burned := r.store.DecoyView(flavor)
	if burned {
		return nil
	}
	if len(custom) > 0 {
		return custom
	}
	return PresetMessages(presetKey, flavor)
}

// Append writes a new message into whichever collection is currently
// mutable for the flavor.
//
// System-role messages are transient UI notices, not conversation
// content; they always land in the real collection under the current
// flavor so they can never surface to an adversary inspecting decoy
// content as evidence of a hidden mode.
func (r *Router) Append(flavor model.Flavor, role model.Role, text string) (*model.Message, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	msg := &model.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Role:      role,
		Text:      text,
		Flavor:    flavor,
		CreatedAt: time.Now(),
	}

	if r.DecoyMode() && role != model.RoleSystem {
		r.store.AppendDecoy(flavor, msg)
		metrics.MessagesTotal.WithLabelValues(string(flavor), "decoy").Inc()
		return msg, nil
	}

	r.store.AppendReal(msg)
	metrics.MessagesTotal.WithLabelValues(string(flavor), "real").Inc()
	return msg, nil
}

// SetPreset selects the preset decoy collection shown for a flavor when
// no custom decoy messages exist.
func (r *Router) SetPreset(flavor model.Flavor, key string) error {
	if key != "" && !PresetExists(key) {
		return ErrUnknownPreset
	}
	r.store.SetPreset(flavor, key)
	return nil
}
