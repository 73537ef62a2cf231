package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/faycr/accounts/internal/models"
	"github.com/faycr/accounts/internal/services"
	pkghttp "github.com/faycr/accounts/pkg/http"
)

// IdentityServiceInterface defines the interface for account business logic
type IdentityServiceInterface interface {
	Register(ctx context.Context, username, email, password, avatar string) (*services.RegisterResult, error)
	VerifyEmail(ctx context.Context, email, code string) error
	ResendCode(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (string, *models.User, error)
}

// AuthHandler handles registration, verification and login requests
type AuthHandler struct {
	service IdentityServiceInterface
	logger  *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service IdentityServiceInterface, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

// Request DTOs

// RegisterRequest represents the request body for registration. Avatar is an
// opaque optional string, either a URL or inline image data.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=2,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Avatar   string `json:"avatar"`
}

// VerifyEmailRequest represents the request body for code verification
type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// ResendVerificationRequest represents the request body for resending a code
type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterResponse represents the response body for registration
type RegisterResponse struct {
	Message    string        `json:"message"`
	User       *UserResponse `json:"user"`
	EmailError bool          `json:"emailError,omitempty"`
}

// LoginResponse represents the response body for login
type LoginResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

// MessageResponse is a bare confirmation body
type MessageResponse struct {
	Message string `json:"message"`
}

// Register handles POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "MISSING_FIELDS", "Invalid request body")
		return
	}

	if ve := ValidateRequest(req); ve != nil {
		pkghttp.WriteBadRequest(w, validationErrorCode(ve), ve.Message)
		return
	}

	result, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password, req.Avatar)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			pkghttp.WriteConflict(w, "EMAIL_EXISTS", "An account with this email already exists")
			return
		}
		h.logger.Error("registration failed", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Registration failed")
		return
	}

	resp := RegisterResponse{
		Message: "Registration successful. Check your email for the verification code.",
		User:    NewUserResponse(result.User),
	}
	if result.EmailSendFailed {
		resp.Message = "Registration successful, but the verification email could not be sent. Use resend to request a new code."
		resp.EmailError = true
	}

	pkghttp.WriteJSON(w, http.StatusCreated, resp)
}

// VerifyEmail handles POST /api/verify-email
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "MISSING_FIELDS", "Invalid request body")
		return
	}

	if ve := ValidateRequest(req); ve != nil {
		pkghttp.WriteBadRequest(w, validationErrorCode(ve), ve.Message)
		return
	}

	if err := h.service.VerifyEmail(r.Context(), req.Email, req.Code); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "USER_NOT_FOUND", "No account found for this email")
		case errors.Is(err, models.ErrCodeExpired):
			pkghttp.WriteBadRequest(w, "CODE_EXPIRED", "Verification code expired. Request a new one.")
		case errors.Is(err, models.ErrInvalidCode):
			pkghttp.WriteBadRequest(w, "INVALID_CODE", "Invalid verification code")
		default:
			h.logger.Error("email verification failed", slog.Any("error", err))
			pkghttp.WriteInternalError(w, "Verification failed")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Email verified successfully"})
}

// ResendVerification handles POST /api/resend-verification
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req ResendVerificationRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "MISSING_FIELDS", "Invalid request body")
		return
	}

	if ve := ValidateRequest(req); ve != nil {
		pkghttp.WriteBadRequest(w, validationErrorCode(ve), ve.Message)
		return
	}

	if err := h.service.ResendCode(r.Context(), req.Email); err != nil {
		if errors.Is(err, models.ErrNotFoundOrVerified) {
			pkghttp.WriteNotFound(w, "USER_NOT_FOUND_OR_VERIFIED", "No unverified account found for this email")
			return
		}
		h.logger.Error("resend verification failed", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Could not resend verification code")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Verification code sent"})
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "MISSING_FIELDS", "Invalid request body")
		return
	}

	if ve := ValidateRequest(req); ve != nil {
		pkghttp.WriteBadRequest(w, validationErrorCode(ve), ve.Message)
		return
	}

	token, user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidCredentials):
			pkghttp.WriteUnauthorized(w, "INVALID_CREDENTIALS", "Invalid email or password")
		case errors.Is(err, models.ErrEmailNotVerified):
			pkghttp.WriteForbidden(w, "EMAIL_NOT_VERIFIED", "Verify your email before logging in")
		default:
			h.logger.Error("login failed", slog.Any("error", err))
			pkghttp.WriteInternalError(w, "Login failed")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, LoginResponse{
		Token: token,
		User:  NewUserResponse(user),
	})
}
