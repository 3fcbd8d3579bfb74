package accounts

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() *Handler {
	return NewHandler(newTestService(), nil)
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func TestRegisterHandler(t *testing.T) {
	h := newTestHandler()

	rr := postJSON(t, h.Register, "/auth/register", RegisterRequest{
		Phone:    "0901234567",
		FullName: "Trần Văn An",
		Password: "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	var u User
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&u))
	assert.Equal(t, "0901234567", u.Phone)
	assert.NotContains(t, rr.Body.String(), "password_hash")
}

func TestRegisterHandlerConflict(t *testing.T) {
	h := newTestHandler()
	req := RegisterRequest{Phone: "0901234567", FullName: "Trần Văn An", Password: "s3cret-pass"}

	rr := postJSON(t, h.Register, "/auth/register", req)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = postJSON(t, h.Register, "/auth/register", req)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestRegisterHandlerBadBody(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	h.Register(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLoginHandler(t *testing.T) {
	h := newTestHandler()
	postJSON(t, h.Register, "/auth/register", RegisterRequest{
		Phone:    "0901234567",
		FullName: "Trần Văn An",
		Password: "s3cret-pass",
	})

	rr := postJSON(t, h.Login, "/auth/login", LoginRequest{Phone: "0901234567", Password: "s3cret-pass"})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp loginResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Trần Văn An", resp.User.FullName)

	rr = postJSON(t, h.Login, "/auth/login", LoginRequest{Phone: "0901234567", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestElevateHandler(t *testing.T) {
	svc := NewService(NewInMemoryRepository(), "test-secret", time.Hour, nil)
	h := NewHandler(svc, nil)

	postJSON(t, h.Register, "/auth/register", RegisterRequest{
		Phone:    "0901234567",
		FullName: "Lê Thị Bình",
		Password: "s3cret-pass",
	})

	rr := postJSON(t, h.Elevate, "/admin/accounts/elevate", elevateRequest{Phone: "0901234567", DoctorID: "doc-1"})
	require.Equal(t, http.StatusOK, rr.Code)

	var u User
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&u))
	assert.Equal(t, RoleDoctor, u.Role)

	rr = postJSON(t, h.Elevate, "/admin/accounts/elevate", elevateRequest{Phone: "0000", DoctorID: "doc-1"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = postJSON(t, h.Elevate, "/admin/accounts/elevate", elevateRequest{Phone: "0901234567"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
