package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilchat/security-core/internal/coordinator"
	"github.com/veilchat/security-core/internal/credstore"
	"github.com/veilchat/security-core/internal/decoy"
	"github.com/veilchat/security-core/internal/eraser"
	"github.com/veilchat/security-core/internal/model"
	"github.com/veilchat/security-core/internal/motion"
	"github.com/veilchat/security-core/internal/passcode"
	"github.com/veilchat/security-core/internal/store"
	"github.com/veilchat/security-core/pkg/logger"
)

type testAPI struct {
	router *chi.Mux
	coord  *coordinator.Coordinator
	decoy  *decoy.Router
}

func newTestAPI(t *testing.T, withPasscode bool) *testAPI {
	t.Helper()
	ctx := context.Background()

	creds := credstore.NewMemoryStore()
	if withPasscode {
		require.NoError(t, creds.Set(ctx, credstore.KeyRealPasscode, "1234"))
		require.NoError(t, creds.Set(ctx, credstore.KeyDuressPasscode, "9999"))
	}

	log := logger.NewNop()
	st := store.New()
	dr := decoy.NewRouter(st, log)
	er := eraser.New(st, log)
	md := motion.NewDetector(motion.DefaultConfig(), log)
	validator := passcode.NewValidator(creds, passcode.DefaultConfig(), log)
	coord := coordinator.New(ctx, creds, validator, dr, er, md, coordinator.Options{}, log)

	security := NewSecurityHandler(coord, validator, log)
	messages := NewMessageHandler(dr, coord, log)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/security", func(r chi.Router) {
			r.Get("/state", security.State)
			r.Post("/validate", security.Validate)
			r.Post("/unlock", security.Unlock)
			r.Post("/lock", security.Lock)
			r.Post("/decoy", security.SetDecoyMode)
			r.Put("/passcode", security.SetPasscode)
			r.Delete("/passcode", security.DeletePasscode)
			r.Put("/flavor", security.SetActiveFlavor)
		})
		r.Route("/flavors/{flavor}", func(r chi.Router) {
			r.Get("/messages", messages.List)
			r.Post("/messages", messages.Append)
			r.Delete("/messages", messages.WipeFlavor)
			r.Put("/preset", messages.SetPreset)
		})
		r.Delete("/messages", messages.WipeAll)
	})

	return &testAPI{router: r, coord: coord, decoy: dr}
}

func (a *testAPI) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func TestUnlockEndpoint(t *testing.T) {
	api := newTestAPI(t, true)

	rec := api.do(http.MethodPost, "/api/v1/security/unlock", map[string]string{"code": "1234"})
	require.Equal(t, http.StatusOK, rec.Code)

	var state model.SecurityState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.False(t, state.IsLocked)
	assert.False(t, state.IsDecoyMode)
}

func TestDuressUnlockLooksLikeNormalUnlock(t *testing.T) {
	api := newTestAPI(t, true)

	rec := api.do(http.MethodPost, "/api/v1/security/unlock", map[string]string{"code": "9999"})
	require.Equal(t, http.StatusOK, rec.Code)

	var state model.SecurityState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.False(t, state.IsLocked)
	assert.True(t, state.IsDecoyMode)
}

func TestUnlockWrongCodeIsGeneric(t *testing.T) {
	api := newTestAPI(t, true)

	rec := api.do(http.MethodPost, "/api/v1/security/unlock", map[string]string{"code": "0000"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "incorrect passcode")
	assert.NotContains(t, rec.Body.String(), "duress")
}

func TestUnlockLockoutReturns423(t *testing.T) {
	api := newTestAPI(t, true)

	for i := 0; i < 3; i++ {
		rec := api.do(http.MethodPost, "/api/v1/security/unlock", map[string]string{"code": "0000"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	// Locked out now; even the correct code is refused with a countdown.
	rec := api.do(http.MethodPost, "/api/v1/security/unlock", map[string]string{"code": "1234"})
	require.Equal(t, http.StatusLocked, rec.Code)

	var resp struct {
		Error      string `json:"error"`
		RetryAfter int    `json:"retry_after"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "incorrect passcode", resp.Error)
	assert.Greater(t, resp.RetryAfter, 0)
	assert.LessOrEqual(t, resp.RetryAfter, 30)
}

func TestUnlockMalformedCodeRejectedBeforeValidation(t *testing.T) {
	api := newTestAPI(t, true)

	rec := api.do(http.MethodPost, "/api/v1/security/unlock", map[string]string{"code": "ab"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Format rejections never consume a lockout attempt.
	var state model.SecurityState
	stateRec := api.do(http.MethodGet, "/api/v1/security/state", nil)
	require.NoError(t, json.Unmarshal(stateRec.Body.Bytes(), &state))
	assert.Equal(t, uint32(0), state.FailedAttempts)
}

func TestMessagesLockGate(t *testing.T) {
	api := newTestAPI(t, true) // cold start is locked

	rec := api.do(http.MethodGet, "/api/v1/flavors/vault/messages", nil)
	assert.Equal(t, http.StatusLocked, rec.Code)

	// Casual is exempt from the lock gate.
	rec = api.do(http.MethodGet, "/api/v1/flavors/casual/messages", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/flavors/nope/messages", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAppendAndListRoundTrip(t *testing.T) {
	api := newTestAPI(t, false)

	rec := api.do(http.MethodPost, "/api/v1/flavors/vault/messages",
		map[string]string{"role": "user", "text": "hello"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.FlavorVault, created.Flavor)

	rec = api.do(http.MethodGet, "/api/v1/flavors/vault/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list model.ListMessagesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, "hello", list.Messages[0].Text)
}

func TestWipeAllEndpoint(t *testing.T) {
	api := newTestAPI(t, false)

	for _, text := range []string{"one", "two", "three"} {
		rec := api.do(http.MethodPost, "/api/v1/flavors/journal/messages",
			map[string]string{"role": "user", "text": text})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := api.do(http.MethodDelete, "/api/v1/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"wiped": 3}`, rec.Body.String())

	rec = api.do(http.MethodGet, "/api/v1/flavors/journal/messages", nil)
	var list model.ListMessagesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 0, list.Total)
}

func TestSetPasscodeEndpoint(t *testing.T) {
	api := newTestAPI(t, false)

	rec := api.do(http.MethodPut, "/api/v1/security/passcode",
		map[string]string{"kind": "real", "code": "4321"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodPut, "/api/v1/security/passcode",
		map[string]string{"kind": "backup", "code": "4321"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPut, "/api/v1/security/passcode",
		map[string]string{"kind": "real", "code": "12"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodDelete, "/api/v1/security/passcode?kind=real", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPasscodeEndpointsRefusedWhileLocked(t *testing.T) {
	api := newTestAPI(t, true) // cold start is locked

	// Deleting the real credential must not double as an unlock.
	rec := api.do(http.MethodDelete, "/api/v1/security/passcode?kind=real", nil)
	assert.Equal(t, http.StatusLocked, rec.Code)

	// Neither may overwriting it with an attacker-chosen code.
	rec = api.do(http.MethodPut, "/api/v1/security/passcode",
		map[string]string{"kind": "real", "code": "0000"})
	assert.Equal(t, http.StatusLocked, rec.Code)

	var state model.SecurityState
	stateRec := api.do(http.MethodGet, "/api/v1/security/state", nil)
	require.NoError(t, json.Unmarshal(stateRec.Body.Bytes(), &state))
	assert.True(t, state.IsLocked)
	assert.True(t, state.IsPasscodeSet)

	rec = api.do(http.MethodGet, "/api/v1/flavors/vault/messages", nil)
	assert.Equal(t, http.StatusLocked, rec.Code)

	// The original code still unlocks, after which mutation is allowed.
	rec = api.do(http.MethodPost, "/api/v1/security/unlock", map[string]string{"code": "1234"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodPut, "/api/v1/security/passcode",
		map[string]string{"kind": "real", "code": "4321"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodDelete, "/api/v1/security/passcode?kind=duress", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSetPresetEndpoint(t *testing.T) {
	api := newTestAPI(t, false)

	rec := api.do(http.MethodPut, "/api/v1/flavors/casual/preset",
		map[string]string{"key": "smalltalk"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodPut, "/api/v1/flavors/casual/preset",
		map[string]string{"key": "blueprints"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStateEndpoint(t *testing.T) {
	api := newTestAPI(t, true)

	rec := api.do(http.MethodGet, "/api/v1/security/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var state model.SecurityState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.True(t, state.IsLocked)
	assert.True(t, state.IsPasscodeSet)
	assert.True(t, state.IsDuressSet)
	assert.Equal(t, model.FlavorVault, state.LastActiveFlavor)
}
