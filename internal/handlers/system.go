package handlers

import (
	"log/slog"
	"net/http"

	"github.com/faycr/accounts/internal/config"
	"github.com/faycr/accounts/internal/services"
	pkghttp "github.com/faycr/accounts/pkg/http"
)

// SystemHandler serves the public client configuration and operational checks
type SystemHandler struct {
	cfg         *config.Config
	emailSender services.EmailSender
	logger      *slog.Logger
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(cfg *config.Config, emailSender services.EmailSender, logger *slog.Logger) *SystemHandler {
	return &SystemHandler{
		cfg:         cfg,
		emailSender: emailSender,
		logger:      logger,
	}
}

// EnvResponse exposes the provider client ids the frontend needs. Secrets
// never appear here.
type EnvResponse struct {
	GoogleClientID  string `json:"googleClientId"`
	DiscordClientID string `json:"discordClientId"`
}

// GetEnv handles GET /api/env
func (h *SystemHandler) GetEnv(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteJSON(w, http.StatusOK, EnvResponse{
		GoogleClientID:  h.cfg.OAuth.GoogleClientID,
		DiscordClientID: h.cfg.OAuth.DiscordClientID,
	})
}

// TestEmail handles GET /api/test-email
func (h *SystemHandler) TestEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.emailSender.TestConnection(r.Context()); err != nil {
		h.logger.Error("email connectivity check failed", slog.Any("error", err))
		pkghttp.WriteError(w, http.StatusInternalServerError, "EMAIL_TEST_FAILED", "Email service unreachable")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Email service reachable"})
}
