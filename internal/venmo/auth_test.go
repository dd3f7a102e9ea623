package venmo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/auth"
)

func tokenBody() map[string]any {
	return map[string]any{
		"access_token": testToken,
		"token_type":   "bearer",
		"user":         map[string]any{"id": testUserID, "username": "alice-w"},
	}
}

func TestLogin_Direct(t *testing.T) {
	api := newFakeAPI(t)
	api.Post("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, tokenBody())
	})
	c, store := newTestClient(t, api)

	state, err := c.Login(context.Background(), "alice-w", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, state)
	assert.Equal(t, StateAuthenticated, c.State())
	assert.True(t, store.IsAuthenticated())

	reloaded, err := auth.Load(filepath.Dir(store.Path()))
	require.NoError(t, err)
	id, err := reloaded.UserID()
	require.NoError(t, err)
	assert.Equal(t, testUserID, id)

	reqs := api.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, testDeviceID, reqs[0].Header.Get("device-id"))
	assert.Equal(t, testUserAgent, reqs[0].Header.Get("User-Agent"))
	assert.Empty(t, reqs[0].Header.Get("Authorization"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(reqs[0].Body, &body))
	assert.Equal(t, "alice-w", body["phone_email_or_username"])
	assert.Equal(t, "hunter2", body["password"])
	assert.Equal(t, "1", body["client_id"])
}

func TestLogin_AlreadyAuthenticated(t *testing.T) {
	api := newFakeAPI(t)
	c, _ := newAuthedClient(t, api)

	state, err := c.Login(context.Background(), "alice-w", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, state)
	assert.Empty(t, api.Requests())
}

func TestLogin_Rejected(t *testing.T) {
	api := newFakeAPI(t)
	api.Post("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{"message": "Your password was incorrect.", "code": 264},
		})
	})
	c, store := newTestClient(t, api)

	state, err := c.Login(context.Background(), "alice-w", "wrong")
	require.Error(t, err)
	assert.Equal(t, StateUnauthenticated, state)
	assert.False(t, store.IsAuthenticated())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Your password was incorrect.", apiErr.Message)
	assert.Contains(t, err.Error(), "Your password was incorrect.")
}

func TestLogin_UnauthorizedWithoutSecret(t *testing.T) {
	api := newFakeAPI(t)
	api.Post("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	c, _ := newTestClient(t, api)

	_, err := c.Login(context.Background(), "alice-w", "hunter2")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, StateUnauthenticated, c.State())
}

// twoFactorAPI serves a login that always demands a one-time code and
// accepts only goodCode.
func twoFactorAPI(t *testing.T, goodCode string) *fakeAPI {
	api := newFakeAPI(t)
	api.Post("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		code := r.Header.Get("Venmo-Otp")
		switch {
		case code == "":
			w.Header().Set("venmo-otp-secret", "otp-secret-1")
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"error": map[string]any{"message": "Additional authentication is required", "code": 81109},
			})
		case code == goodCode && r.Header.Get("Venmo-Otp-Secret") == "otp-secret-1":
			writeJSON(w, http.StatusOK, tokenBody())
		default:
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": map[string]any{"message": "Invalid code", "code": 81112},
			})
		}
	})
	api.Post("/account/two-factor/token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"status": "sent"}})
	})
	return api
}

func TestLogin_TwoFactor(t *testing.T) {
	api := twoFactorAPI(t, "123456")
	c, store := newTestClient(t, api)
	ctx := context.Background()

	state, err := c.Login(ctx, "alice-w", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingSecondFactor, state)
	assert.False(t, store.IsAuthenticated())

	reqs := api.Requests()
	require.Len(t, reqs, 2)
	sms := reqs[1]
	assert.Equal(t, "/account/two-factor/token", sms.Path)
	assert.Equal(t, "otp-secret-1", sms.Header.Get("venmo-otp-secret"))
	assert.Equal(t, testDeviceID, sms.Header.Get("device-id"))
	assert.JSONEq(t, `{"via":"sms"}`, string(sms.Body))

	require.NoError(t, c.SubmitCode(ctx, "123456"))
	assert.Equal(t, StateAuthenticated, c.State())
	assert.True(t, store.IsAuthenticated())

	_, err = os.Stat(store.Path())
	require.NoError(t, err, "credentials persisted")

	submit := api.Requests()[2]
	assert.Equal(t, "123456", submit.Header.Get("Venmo-Otp"))
	assert.Equal(t, "1", submit.Query.Get("client_id"))
}

func TestSubmitCode_WrongThenRight(t *testing.T) {
	api := twoFactorAPI(t, "123456")
	c, store := newTestClient(t, api)
	ctx := context.Background()

	_, err := c.Login(ctx, "alice-w", "hunter2")
	require.NoError(t, err)

	err = c.SubmitCode(ctx, "000000")
	require.ErrorIs(t, err, ErrInvalidCode)
	assert.Contains(t, err.Error(), "2 attempts left")
	assert.Equal(t, StateAwaitingSecondFactor, c.State())

	require.NoError(t, c.SubmitCode(ctx, "123456"))
	assert.True(t, store.IsAuthenticated())
}

func TestSubmitCode_AttemptsBounded(t *testing.T) {
	api := twoFactorAPI(t, "123456")
	c, store := newTestClient(t, api)
	ctx := context.Background()

	_, err := c.Login(ctx, "alice-w", "hunter2")
	require.NoError(t, err)

	for range DefaultMaxCodeAttempts - 1 {
		err := c.SubmitCode(ctx, "000000")
		require.ErrorIs(t, err, ErrInvalidCode)
		assert.Equal(t, StateAwaitingSecondFactor, c.State())
	}

	err = c.SubmitCode(ctx, "000000")
	require.ErrorIs(t, err, ErrTooManyCodeAttempts)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid code", apiErr.Message)
	assert.Equal(t, StateUnauthenticated, c.State())

	// The challenge is gone; even the right code needs a fresh login.
	assert.ErrorIs(t, c.SubmitCode(ctx, "123456"), ErrNoChallenge)
	assert.False(t, store.IsAuthenticated())
}

func TestSubmitCode_CustomAttemptBudget(t *testing.T) {
	api := twoFactorAPI(t, "123456")
	store, err := auth.Load(t.TempDir())
	require.NoError(t, err)
	c := New(store, Options{BaseURL: api.URL(), DeviceID: testDeviceID, MaxCodeAttempts: 1})
	ctx := context.Background()

	_, err = c.Login(ctx, "alice-w", "hunter2")
	require.NoError(t, err)
	assert.ErrorIs(t, c.SubmitCode(ctx, "000000"), ErrTooManyCodeAttempts)
}

func TestSubmitCode_NoChallenge(t *testing.T) {
	api := newFakeAPI(t)
	c, _ := newTestClient(t, api)
	assert.ErrorIs(t, c.SubmitCode(context.Background(), "123456"), ErrNoChallenge)
	assert.Empty(t, api.Requests())
}

func TestLogout_Success(t *testing.T) {
	api := newFakeAPI(t)
	api.Delete("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	api.Post("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, tokenBody())
	})
	c, store := newAuthedClient(t, api)
	ctx := context.Background()

	require.NoError(t, c.Logout(ctx))
	assert.False(t, store.IsAuthenticated())
	assert.Equal(t, StateLoggedOut, c.State())
	_, err := os.Stat(store.Path())
	assert.True(t, os.IsNotExist(err))

	assert.Equal(t, "Bearer "+testToken, api.Requests()[0].Header.Get("Authorization"))

	// Logged out behaves as unauthenticated for the next login.
	state, err := c.Login(ctx, "alice-w", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, state)
}

func TestLogout_Failure(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusUnauthorized, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			api := newFakeAPI(t)
			api.Delete("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			})
			c, store := newAuthedClient(t, api)

			err := c.Logout(context.Background())
			var logoutErr *LogoutError
			require.ErrorAs(t, err, &logoutErr)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, status, apiErr.StatusCode)

			assert.True(t, store.IsAuthenticated())
			assert.True(t, c.IsAuthenticated())
			assert.Equal(t, StateAuthenticated, c.State())
		})
	}
}

func TestLogout_Unauthenticated(t *testing.T) {
	api := newFakeAPI(t)
	c, _ := newTestClient(t, api)
	err := c.Logout(context.Background())
	assert.True(t, errors.Is(err, auth.ErrUnauthenticated))
	assert.Empty(t, api.Requests())
}

func TestAuthState_String(t *testing.T) {
	assert.Equal(t, "awaiting-second-factor", StateAwaitingSecondFactor.String())
	assert.Equal(t, "AuthState(9)", AuthState(9).String())
}
