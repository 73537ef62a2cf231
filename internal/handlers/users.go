package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/faycr/accounts/internal/auth"
	"github.com/faycr/accounts/internal/models"
	pkghttp "github.com/faycr/accounts/pkg/http"
)

// UserServiceInterface defines the interface for profile operations
type UserServiceInterface interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id, username, avatar string) (*models.User, error)
}

// UserHandler handles profile requests for the authenticated user
type UserHandler struct {
	service UserServiceInterface
	logger  *slog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserServiceInterface, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// UserResponse is the public view of an account. The password hash and
// verification code never leave the service.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar,omitempty"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewUserResponse converts a user model to its public view
func NewUserResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Avatar:    user.Avatar,
		Verified:  user.Verified,
		CreatedAt: user.CreatedAt,
	}
}

// UpdateProfileRequest represents the request body for profile updates.
// Avatar is opaque and unbounded: clients send either a URL or an inline
// data URI, and data URIs for uploaded images run well past any URL length.
type UpdateProfileRequest struct {
	Username string `json:"username" validate:"required,min=2,max=32"`
	Avatar   string `json:"avatar"`
}

// GetCurrentUser handles GET /api/user
func (h *UserHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "NO_TOKEN", "access token required")
		return
	}

	user, err := h.service.GetUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "USER_NOT_FOUND", "Account no longer exists")
			return
		}
		h.logger.Error("failed to load user", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Could not load account")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, NewUserResponse(user))
}

// UpdateProfile handles POST /api/user/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "NO_TOKEN", "access token required")
		return
	}

	var req UpdateProfileRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "MISSING_FIELDS", "Invalid request body")
		return
	}

	if ve := ValidateRequest(req); ve != nil {
		pkghttp.WriteBadRequest(w, validationErrorCode(ve), ve.Message)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), claims.UserID, req.Username, req.Avatar)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "USER_NOT_FOUND", "Account no longer exists")
			return
		}
		h.logger.Error("failed to update profile", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Could not update profile")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, NewUserResponse(user))
}
