package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkghttp "github.com/faycr/accounts/pkg/http"
)

func newProtectedHandler(t *testing.T, tm *TokenManager) (http.Handler, *bool) {
	reached := false
	handler := AuthMiddleware(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		claims := GetUserFromContext(r)
		require.NotNil(t, claims)
		w.WriteHeader(http.StatusOK)
	}))
	return handler, &reached
}

func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	assert.Equal(t, wantStatus, w.Code)

	var resp pkghttp.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, wantCode, resp.Error)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	handler, reached := newProtectedHandler(t, tm)

	token, err := tm.GenerateToken("user123", "alice@example.com", "alice")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/user", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, *reached)
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	handler, reached := newProtectedHandler(t, tm)

	req := httptest.NewRequest("GET", "/api/user", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assertErrorCode(t, w, http.StatusUnauthorized, "NO_TOKEN")
	assert.False(t, *reached)
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	handler, reached := newProtectedHandler(t, tm)

	req := httptest.NewRequest("GET", "/api/user", nil)
	req.Header.Set("Authorization", "Token abc123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assertErrorCode(t, w, http.StatusUnauthorized, "NO_TOKEN")
	assert.False(t, *reached)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	handler, reached := newProtectedHandler(t, tm)

	req := httptest.NewRequest("GET", "/api/user", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assertErrorCode(t, w, http.StatusForbidden, "INVALID_TOKEN")
	assert.False(t, *reached)
}

func TestGetUserFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/user", nil)
	assert.Nil(t, GetUserFromContext(req))
}
