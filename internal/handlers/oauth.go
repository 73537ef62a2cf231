package handlers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkghttp "github.com/faycr/accounts/pkg/http"
)

const oauthStateCookie = "oauth_state"

// FederationServiceInterface defines the interface for provider sign-in
type FederationServiceInterface interface {
	GoogleAuthURL(state string) string
	DiscordAuthURL(state string) string
	HandleGoogleCallback(ctx context.Context, code string) (string, error)
	HandleDiscordCallback(ctx context.Context, code string) (string, error)
}

// OAuthHandler handles the provider sign-in redirects and callbacks
type OAuthHandler struct {
	service       FederationServiceInterface
	publicBaseURL string
	logger        *slog.Logger
}

// NewOAuthHandler creates a new OAuthHandler
func NewOAuthHandler(service FederationServiceInterface, publicBaseURL string, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{
		service:       service,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		logger:        logger,
	}
}

// GoogleLogin handles GET /api/auth/google
func (h *OAuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := h.issueState(w)
	http.Redirect(w, r, h.service.GoogleAuthURL(state), http.StatusFound)
}

// GoogleCallback handles GET /api/auth/google/callback
func (h *OAuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	h.handleCallback(w, r, "google", h.service.HandleGoogleCallback)
}

// DiscordLogin handles GET /api/auth/discord
func (h *OAuthHandler) DiscordLogin(w http.ResponseWriter, r *http.Request) {
	state := h.issueState(w)
	http.Redirect(w, r, h.service.DiscordAuthURL(state), http.StatusFound)
}

// DiscordCallback handles GET /api/auth/discord/callback
func (h *OAuthHandler) DiscordCallback(w http.ResponseWriter, r *http.Request) {
	h.handleCallback(w, r, "discord", h.service.HandleDiscordCallback)
}

func (h *OAuthHandler) handleCallback(
	w http.ResponseWriter,
	r *http.Request,
	provider string,
	exchange func(ctx context.Context, code string) (string, error),
) {
	if !h.validState(r) {
		pkghttp.WriteBadRequest(w, "INVALID_STATE", "State parameter mismatch")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		pkghttp.WriteBadRequest(w, "MISSING_CODE", "Authorization code missing")
		return
	}

	token, err := exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("provider sign-in failed",
			slog.String("provider", provider),
			slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Authentication failed")
		return
	}

	h.clearState(w)
	http.Redirect(w, r, h.publicBaseURL+"/?token="+url.QueryEscape(token), http.StatusFound)
}

// issueState binds the browser session to the callback with a random nonce
func (h *OAuthHandler) issueState(w http.ResponseWriter) string {
	buf := make([]byte, 16)
	rand.Read(buf)
	state := base64.RawURLEncoding.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   strings.HasPrefix(h.publicBaseURL, "https://"),
		SameSite: http.SameSiteLaxMode,
	})

	return state
}

func (h *OAuthHandler) validState(r *http.Request) bool {
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil {
		return false
	}
	state := r.URL.Query().Get("state")
	return state != "" && state == cookie.Value
}

func (h *OAuthHandler) clearState(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
