package middlewarectx_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lordkro/nullupload/internal/http/middlewarectx"
	"github.com/Lordkro/nullupload/internal/lib/cookie"
	"github.com/Lordkro/nullupload/internal/lib/jwt"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func decodeError(t *testing.T, body io.Reader) string {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp.Error
}

func TestSessionMiddleware(t *testing.T) {
	maker := jwt.NewJWTMaker("test_secret", time.Hour)
	sess := cookie.NewSession("", 0)

	validToken, err := maker.GenerateToken("cus_123", "user@example.com")
	require.NoError(t, err)
	foreignToken, err := jwt.NewJWTMaker("other_secret", time.Hour).GenerateToken("cus_123", "")
	require.NoError(t, err)

	tests := []struct {
		name       string
		cookie     string
		wantStatus int
		wantError  string
		wantCalled bool
	}{
		{name: "missing cookie", wantStatus: http.StatusUnauthorized, wantError: "not authenticated"},
		{name: "garbage token", cookie: "abc.def.ghi", wantStatus: http.StatusUnauthorized, wantError: "invalid session"},
		{name: "foreign signature", cookie: foreignToken, wantStatus: http.StatusUnauthorized, wantError: "invalid session"},
		{name: "valid token", cookie: validToken, wantStatus: http.StatusOK, wantCalled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				claims, ok := middlewarectx.ClaimsFromContext(r.Context())
				require.True(t, ok)
				assert.Equal(t, "cus_123", claims.CustomerID)
				assert.Equal(t, "user@example.com", claims.Email)
				w.WriteHeader(http.StatusOK)
			})
			h := middlewarectx.SessionMiddleware(newNoopLogger(), maker, sess)(next)

			req := httptest.NewRequest(http.MethodPost, "/api/portal", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: cookie.DefaultName, Value: tt.cookie})
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantCalled, called)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decodeError(t, rr.Body))
			}
		})
	}
}

func TestClaimsFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	claims, ok := middlewarectx.ClaimsFromContext(req.Context())
	assert.False(t, ok)
	assert.Nil(t, claims)
}

func TestRequireConfigured(t *testing.T) {
	yes := func() bool { return true }
	no := func() bool { return false }

	tests := []struct {
		name       string
		checks     []func() bool
		wantStatus int
	}{
		{name: "no checks", wantStatus: http.StatusOK},
		{name: "all configured", checks: []func() bool{yes, yes}, wantStatus: http.StatusOK},
		{name: "one missing", checks: []func() bool{yes, no}, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			rr := httptest.NewRecorder()
			middlewarectx.RequireConfigured(newNoopLogger(), tt.checks...)(next).
				ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/status", nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusInternalServerError {
				assert.Equal(t, "server not configured", decodeError(t, rr.Body))
			}
		})
	}
}
