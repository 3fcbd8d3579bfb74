package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngophungianghi/careai-server/internal/accounts"
)

func newAuthedService(t *testing.T) (*accounts.Service, string) {
	t.Helper()
	svc := accounts.NewService(accounts.NewInMemoryRepository(), "test-secret", time.Hour, nil)
	_, err := svc.Register(context.Background(), accounts.RegisterRequest{
		Phone:    "0901234567",
		FullName: "Trần Văn An",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	token, _, err := svc.Login(context.Background(), accounts.LoginRequest{Phone: "0901234567", Password: "s3cret-pass"})
	require.NoError(t, err)
	return svc, token
}

func claimsEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		w.Write([]byte(claims.Subject))
	})
}

func TestAuthenticate(t *testing.T) {
	svc, token := newAuthedService(t)
	handler := Authenticate(svc)(claimsEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "0901234567", rr.Body.String())
}

func TestAuthenticateRejectsMissingOrBadToken(t *testing.T) {
	svc, _ := newAuthedService(t)
	handler := Authenticate(svc)(claimsEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireRole(t *testing.T) {
	svc, token := newAuthedService(t)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	patientOnly := Authenticate(svc)(RequireRole(accounts.RolePatient)(ok))
	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	patientOnly.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	adminOnly := Authenticate(svc)(RequireRole(accounts.RoleAdmin)(ok))
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	adminOnly.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCORSPreflightAndAllowlist(t *testing.T) {
	handler := CORS([]string{"https://careai.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/doctors", nil)
	req.Header.Set("Origin", "https://careai.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://careai.example", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "X-Request-ID", rr.Header().Get("Access-Control-Expose-Headers"))

	req = httptest.NewRequest(http.MethodGet, "/doctors", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
