package handlers_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/faycr/accounts/internal/config"
	"github.com/faycr/accounts/internal/handlers"
	"github.com/faycr/accounts/internal/services"
)

func newSystemConfig() *config.Config {
	return &config.Config{
		OAuth: config.OAuthConfig{
			GoogleClientID:     "google-client-id",
			GoogleClientSecret: "google-secret",
			DiscordClientID:    "discord-client-id",
		},
	}
}

func TestGetEnv_ExposesOnlyClientIDs(t *testing.T) {
	handler := handlers.NewSystemHandler(newSystemConfig(), &services.MockEmailSender{}, slog.Default())
	req := handlers.NewTestRequest(t, "GET", "/api/env", nil)

	w := httptest.NewRecorder()
	handler.GetEnv(w, req)

	var resp handlers.EnvResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "google-client-id", resp.GoogleClientID)
	assert.Equal(t, "discord-client-id", resp.DiscordClientID)
	assert.NotContains(t, w.Body.String(), "google-secret")
}

func TestTestEmail_Reachable(t *testing.T) {
	handler := handlers.NewSystemHandler(newSystemConfig(), &services.MockEmailSender{}, slog.Default())
	req := handlers.NewTestRequest(t, "GET", "/api/test-email", nil)

	w := httptest.NewRecorder()
	handler.TestEmail(w, req)

	var resp handlers.MessageResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
}

func TestTestEmail_Unreachable(t *testing.T) {
	mockSender := &services.MockEmailSender{
		TestConnectionFunc: func(ctx context.Context) error {
			return errors.New("ses unavailable")
		},
	}

	handler := handlers.NewSystemHandler(newSystemConfig(), mockSender, slog.Default())
	req := handlers.NewTestRequest(t, "GET", "/api/test-email", nil)

	w := httptest.NewRecorder()
	handler.TestEmail(w, req)

	handlers.AssertErrorResponse(t, w, 500, "EMAIL_TEST_FAILED")
}
