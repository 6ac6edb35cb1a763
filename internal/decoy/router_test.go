package decoy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilchat/security-core/internal/model"
	"github.com/veilchat/security-core/internal/store"
	"github.com/veilchat/security-core/pkg/logger"
)

func newTestRouter(t *testing.T) (*Router, *store.Store) {
	t.Helper()
	st := store.New()
	return NewRouter(st, logger.NewNop()), st
}

func texts(messages []model.Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.Text)
	}
	return out
}

func TestNormalModeRoutesToRealCollection(t *testing.T) {
	r, st := newTestRouter(t)

	_, err := r.Append(model.FlavorVault, model.RoleUser, "hello")
	require.NoError(t, err)
	_, err = r.Append(model.FlavorJournal, model.RoleUser, "dear diary")
	require.NoError(t, err)

	assert.Equal(t, []string{"hello"}, texts(r.VisibleMessages(model.FlavorVault)))
	assert.Equal(t, []string{"dear diary"}, texts(r.VisibleMessages(model.FlavorJournal)))
	assert.Equal(t, 2, st.RealCount())
}

func TestDecoyIsolation(t *testing.T) {
	r, st := newTestRouter(t)

	_, err := r.Append(model.FlavorVault, model.RoleUser, "real secret")
	require.NoError(t, err)

	r.SetDecoyMode(true)
	_, err = r.Append(model.FlavorVault, model.RoleUser, "decoy question")
	require.NoError(t, err)
	_, err = r.Append(model.FlavorVault, model.RoleAssistant, "decoy answer")
	require.NoError(t, err)

	// Decoy view never includes real content.
	assert.Equal(t, []string{"decoy question", "decoy answer"}, texts(r.VisibleMessages(model.FlavorVault)))

	// Normal view never includes decoy content.
	r.SetDecoyMode(false)
	assert.Equal(t, []string{"real secret"}, texts(r.VisibleMessages(model.FlavorVault)))
	assert.Equal(t, 1, st.RealCount())
}

func TestSystemMessagesBypassDecoyRouting(t *testing.T) {
	r, st := newTestRouter(t)

	r.SetDecoyMode(true)
	_, err := r.Append(model.FlavorVault, model.RoleSystem, "mode switched")
	require.NoError(t, err)

	// The notice lands in the real collection, not the decoy set.
	assert.Empty(t, r.VisibleMessages(model.FlavorVault))
	assert.Equal(t, 1, st.RealCount())

	r.SetDecoyMode(false)
	assert.Equal(t, []string{"mode switched"}, texts(r.VisibleMessages(model.FlavorVault)))
}

func TestDecoyPresetPrecedence(t *testing.T) {
	r, _ := newTestRouter(t)

	require.NoError(t, r.SetPreset(model.FlavorVault, "recipes"))
	r.SetDecoyMode(true)

	// No custom messages: the preset is shown.
	visible := r.VisibleMessages(model.FlavorVault)
	require.NotEmpty(t, visible)
	assert.Equal(t, PresetMessages("recipes", model.FlavorVault), visible)

	// Custom messages take precedence over the preset.
	_, err := r.Append(model.FlavorVault, model.RoleUser, "custom decoy")
	require.NoError(t, err)
	assert.Equal(t, []string{"custom decoy"}, texts(r.VisibleMessages(model.FlavorVault)))
}

func TestDecoyModeWithoutPresetIsEmpty(t *testing.T) {
	r, _ := newTestRouter(t)

	r.SetDecoyMode(true)
	assert.Empty(t, r.VisibleMessages(model.FlavorVault))
}

func TestBurnedSetShowsEmptyUntilAppend(t *testing.T) {
	r, st := newTestRouter(t)

	require.NoError(t, r.SetPreset(model.FlavorVault, "recipes"))
	r.SetDecoyMode(true)

	st.RemoveRealByFlavor(model.FlavorVault, func(m *model.Message) {})

	// Burned: empty despite a configured preset.
	assert.Empty(t, r.VisibleMessages(model.FlavorVault))

	// A new append clears the burn.
	_, err := r.Append(model.FlavorVault, model.RoleUser, "fresh")
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, texts(r.VisibleMessages(model.FlavorVault)))
}

func TestLeavingDecoyModeClearsBurn(t *testing.T) {
	r, st := newTestRouter(t)

	require.NoError(t, r.SetPreset(model.FlavorVault, "recipes"))
	r.SetDecoyMode(true)
	st.RemoveRealByFlavor(model.FlavorVault, func(m *model.Message) {})
	require.Empty(t, r.VisibleMessages(model.FlavorVault))

	// Leave and re-enter: the preset view is available again.
	r.SetDecoyMode(false)
	r.SetDecoyMode(true)
	assert.NotEmpty(t, r.VisibleMessages(model.FlavorVault))
}

func TestEnteringDecoyModePreservesBurn(t *testing.T) {
	r, st := newTestRouter(t)

	require.NoError(t, r.SetPreset(model.FlavorVault, "recipes"))
	r.SetDecoyMode(true)
	st.RemoveRealByFlavor(model.FlavorVault, func(m *model.Message) {})

	// Toggling decoy mode on again (no exit in between) keeps the burn.
	r.SetDecoyMode(true)
	assert.Empty(t, r.VisibleMessages(model.FlavorVault))
}

func TestAppendRejectsInvalidRole(t *testing.T) {
	r, _ := newTestRouter(t)

	_, err := r.Append(model.FlavorVault, model.Role("tool"), "nope")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestSetPresetRejectsUnknownKey(t *testing.T) {
	r, _ := newTestRouter(t)

	assert.ErrorIs(t, r.SetPreset(model.FlavorVault, "no-such-preset"), ErrUnknownPreset)
	assert.NoError(t, r.SetPreset(model.FlavorVault, ""))
	for _, key := range PresetKeys() {
		assert.NoError(t, r.SetPreset(model.FlavorVault, key))
	}
}
