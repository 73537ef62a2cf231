package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, http.StatusTeapot, "SOME_CODE", "something happened")

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	resp := decodeError(t, w)
	assert.Equal(t, "SOME_CODE", resp.Error)
	assert.Equal(t, "something happened", resp.Message)
}

func TestErrorWriters_StatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantCode   string
	}{
		{"bad request", func(w http.ResponseWriter) { WriteBadRequest(w, "INVALID_CODE", "bad") }, 400, "INVALID_CODE"},
		{"unauthorized", func(w http.ResponseWriter) { WriteUnauthorized(w, "NO_TOKEN", "no token") }, 401, "NO_TOKEN"},
		{"forbidden", func(w http.ResponseWriter) { WriteForbidden(w, "INVALID_TOKEN", "bad token") }, 403, "INVALID_TOKEN"},
		{"not found", func(w http.ResponseWriter) { WriteNotFound(w, "USER_NOT_FOUND", "missing") }, 404, "USER_NOT_FOUND"},
		{"conflict", func(w http.ResponseWriter) { WriteConflict(w, "EMAIL_EXISTS", "taken") }, 409, "EMAIL_EXISTS"},
		{"internal", func(w http.ResponseWriter) { WriteInternalError(w, "oops") }, 500, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w).Error)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]string{"message": "created"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"created"}`, w.Body.String())
}
