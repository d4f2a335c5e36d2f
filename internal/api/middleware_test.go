package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicware/clinic-appointment-service/internal/auth"
)

func okHandler(captured *auth.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			if ident, ok := auth.IdentityFromContext(r.Context()); ok {
				*captured = ident
			}
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	verifier := auth.NewVerifier("test-secret")
	token, err := verifier.Sign(auth.Identity{Subject: "amy@example.com", Role: auth.RolePatient}, time.Hour)
	require.NoError(t, err)

	var seen auth.Identity
	handler := Authenticate(verifier)(okHandler(&seen))

	t.Run("valid token passes identity through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/patient/appointments", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "amy@example.com", seen.Subject)
		assert.Equal(t, auth.RolePatient, seen.Role)
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/patient/appointments", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/patient/appointments", nil)
		req.Header.Set("Authorization", token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad signature", func(t *testing.T) {
		other, err := auth.NewVerifier("other-secret").Sign(auth.Identity{Subject: "amy@example.com", Role: auth.RolePatient}, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/patient/appointments", nil)
		req.Header.Set("Authorization", "Bearer "+other)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(auth.RoleScheduler)(okHandler(nil))

	t.Run("matching role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/scheduler/appointments", nil)
		ctx := auth.WithIdentity(req.Context(), auth.Identity{Subject: "rostering", Role: auth.RoleScheduler})
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req.WithContext(ctx))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/scheduler/appointments", nil)
		ctx := auth.WithIdentity(req.Context(), auth.Identity{Subject: "amy@example.com", Role: auth.RolePatient})
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req.WithContext(ctx))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("no identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/scheduler/appointments", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	var fromContext string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromContext = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("generates an id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.NotEmpty(t, fromContext)
		assert.Equal(t, fromContext, rec.Header().Get("X-Request-ID"))
	})

	t.Run("propagates the caller's id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
		req.Header.Set("X-Request-ID", "req-1234")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, "req-1234", fromContext)
		assert.Equal(t, "req-1234", rec.Header().Get("X-Request-ID"))
	})
}
