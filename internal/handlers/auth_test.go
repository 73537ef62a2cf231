package handlers_test

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/faycr/accounts/internal/handlers"
	"github.com/faycr/accounts/internal/models"
	"github.com/faycr/accounts/internal/services"
)

func TestRegister_Success(t *testing.T) {
	mockService := &handlers.MockIdentityService{
		RegisterFunc: func(ctx context.Context, username, email, password, avatar string) (*services.RegisterResult, error) {
			assert.Equal(t, "alice", username)
			assert.Equal(t, "alice@example.com", email)
			return &services.RegisterResult{
				User: handlers.NewTestUser("user123", email, username),
			}, nil
		},
	}

	handler := handlers.NewAuthHandler(mockService, slog.Default())
	req := handlers.NewTestRequest(t, "POST", "/api/register", handlers.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})

	w := httptest.NewRecorder()
	handler.Register(w, req)

	var resp handlers.RegisterResponse
	handlers.AssertJSONResponse(t, w, 201, &resp)
	assert.False(t, resp.EmailError)
	assert.NotEmpty(t, resp.Message)
	if assert.NotNil(t, resp.User) {
		assert.Equal(t, "user123", resp.User.ID)
		assert.Equal(t, "alice", resp.User.Username)
		assert.Equal(t, "alice@example.com", resp.User.Email)
	}
}

func TestRegister_AvatarForwarded(t *testing.T) {
	avatar := "data:image/png;base64,iVBORw0KGgoAAAANSUhEUg=="

	mockService := &handlers.MockIdentityService{
		RegisterFunc: func(ctx context.Context, username, email, password, gotAvatar string) (*services.RegisterResult, error) {
			assert.Equal(t, avatar, gotAvatar)
			user := handlers.NewTestUser("user123", email, username)
			user.Avatar = gotAvatar
			return &services.RegisterResult{User: user}, nil
		},
	}

	handler := handlers.NewAuthHandler(mockService, slog.Default())
	req := handlers.NewTestRequest(t, "POST", "/api/register", handlers.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
		Avatar:   avatar,
	})

	w := httptest.NewRecorder()
	handler.Register(w, req)

	var resp handlers.RegisterResponse
	handlers.AssertJSONResponse(t, w, 201, &resp)
	if assert.NotNil(t, resp.User) {
		assert.Equal(t, avatar, resp.User.Avatar)
	}
}

func TestRegister_EmailDeliveryFailure(t *testing.T) {
	mockService := &handlers.MockIdentityService{
		RegisterFunc: func(ctx context.Context, username, email, password, avatar string) (*services.RegisterResult, error) {
			return &services.RegisterResult{
				User:            handlers.NewTestUser("user123", email, username),
				EmailSendFailed: true,
			}, nil
		},
	}

	handler := handlers.NewAuthHandler(mockService, slog.Default())
	req := handlers.NewTestRequest(t, "POST", "/api/register", handlers.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})

	w := httptest.NewRecorder()
	handler.Register(w, req)

	// Still a 201: the account exists even though the email did not go out
	var resp handlers.RegisterResponse
	handlers.AssertJSONResponse(t, w, 201, &resp)
	assert.True(t, resp.EmailError)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	mockService := &handlers.MockIdentityService{
		RegisterFunc: func(ctx context.Context, username, email, password, avatar string) (*services.RegisterResult, error) {
			return nil, models.ErrConflict
		},
	}

	handler := handlers.NewAuthHandler(mockService, slog.Default())
	req := handlers.NewTestRequest(t, "POST", "/api/register", handlers.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})

	w := httptest.NewRecorder()
	handler.Register(w, req)

	handlers.AssertErrorResponse(t, w, 409, "EMAIL_EXISTS")
}

func TestRegister_ShortUsername(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockIdentityService{}, slog.Default())
	req := handlers.NewTestRequest(t, "POST", "/api/register", handlers.RegisterRequest{
		Username: "a",
		Email:    "alice@example.com",
		Password: "password123",
	})

	w := httptest.NewRecorder()
	handler.Register(w, req)

	handlers.AssertErrorResponse(t, w, 400, "INVALID_USERNAME")
}

func TestRegister_ShortPassword(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockIdentityService{}, slog.Default())
	req := handlers.NewTestRequest(t, "POST", "/api/register", handlers.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "short",
	})

	w := httptest.NewRecorder()
	handler.Register(w, req)

	handlers.AssertErrorResponse(t, w, 400, "INVALID_PASSWORD")
}

func TestRegister_InvalidEmail(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockIdentityService{}, slog.Default())
	req := handlers.NewTestRequest(t, "POST", "/api/register", handlers.RegisterRequest{
		Username: "alice",
		Email:    "not-an-email",
		Password: "password123",
	})

	w := httptest.NewRecorder()
	handler.Register(w, req)

	handlers.AssertErrorResponse(t, w, 400, "INVALID_EMAIL")
}

func TestRegister_MissingFields(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockIdentityService{}, slog.Default())
	req := handlers.NewTestRequest(t, "POST", "/api/register", map[string]string{
		"email": "alice@example.com",
	})

	w := httptest.NewRecorder()
	handler.Register(w, req)

	handlers.AssertErrorResponse(t, w, 400, "MISSING_FIELDS")
}

func TestVerifyEmail_Success(t *testing.T) {
	mockService := &handlers.MockIdentityService{
		VerifyEmailFunc: func(ctx context.Context, email, code string) error {
			assert.Equal(t, "alice@example.com", email)
			assert.Equal(t, "123456", code)
			return nil
		},
	}

	handler := handlers.NewAuthHandler(mockService, slog.Default())
	req := handlers.NewTestRequest(t, "POST", "/api/verify-email", handlers.VerifyEmailRequest{
		Email: "alice@example.com",
		Code:  "123456",
	})

	w := httptest.NewRecorder()
	handler.VerifyEmail(w, req)

	var resp handlers.MessageResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.NotEmpty(t, resp.Message)
}

func TestVerifyEmail_WrongCode(t *testing.T) {
	mockService := &handlers.MockIdentityService{
		VerifyEmailFunc: func(ctx context.Context, email, code string) error {
			return models.ErrInvalidCode
		},
	}

	handler := handlers.NewAuthHandler(mockService, slog.Default())
	req := handlers.NewTestRequest(t, "POST", "/api/verify-email", handlers.VerifyEmailRequest{
		Email: "alice@example.com",
		Code:  "654321",
	})

	w := httptest.NewRecorder()
	handler.VerifyEmail(w, req)

	handlers.AssertErrorResponse(t, w, 400, "INVALID_CODE")
}

func TestVerifyEmail_ExpiredCode(t *testing.T) {
	mockService := &handlers.MockIdentityService{
		VerifyEmailFunc: func(ctx context.Context, email, code string) error {
			return models.ErrCodeExpired
		},
	}

	handler := handlers.NewAuthHandler(mockService, slog.Default())
	req := handlers.NewTestRequest(t, "POST", "/api/verify-email", handlers.VerifyEmailRequest{
		Email: "alice@example.com",
		Code:  "123456",
	})

	w := httptest.NewRecorder()
	handler.VerifyEmail(w, req)

	handlers.AssertErrorResponse(t, w, 400, "CODE_EXPIRED")
}

func TestVerifyEmail_UnknownEmail(t *testing.T) {
	mockService := &handlers.MockIdentityService{
		VerifyEmailFunc: func(ctx context.Context, email, code string) error {
			return models.ErrNotFound
		},
	}

	handler := handlers.NewAuthHandler(mockService, slog.Default())
	req := handlers.NewTestRequest(t, "POST", "/api/verify-email", handlers.VerifyEmailRequest{
		Email: "nobody@example.com",
		Code:  "123456",
	})

	w := httptest.NewRecorder()
	handler.VerifyEmail(w, req)

	handlers.AssertErrorResponse(t, w, 404, "USER_NOT_FOUND")
}

func TestVerifyEmail_MalformedCode(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockIdentityService{}, slog.Default())
	req := handlers.NewTestRequest(t, "POST", "/api/verify-email", handlers.VerifyEmailRequest{
		Email: "alice@example.com",
		Code:  "12ab56",
	})

	w := httptest.NewRecorder()
	handler.VerifyEmail(w, req)

	handlers.AssertErrorResponse(t, w, 400, "INVALID_CODE")
}

func TestResendVerification_Success(t *testing.T) {
	mockService := &handlers.MockIdentityService{
		ResendCodeFunc: func(ctx context.Context, email string) error {
			return nil
		},
	}

	handler := handlers.NewAuthHandler(mockService, slog.Default())
	req := handlers.NewTestRequest(t, "POST", "/api/resend-verification", handlers.ResendVerificationRequest{
		Email: "alice@example.com",
	})

	w := httptest.NewRecorder()
	handler.ResendVerification(w, req)

	var resp handlers.MessageResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
}

func TestResendVerification_UnknownOrVerified(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockIdentityService{}, slog.Default())
	req := handlers.NewTestRequest(t, "POST", "/api/resend-verification", handlers.ResendVerificationRequest{
		Email: "alice@example.com",
	})

	w := httptest.NewRecorder()
	handler.ResendVerification(w, req)

	handlers.AssertErrorResponse(t, w, 404, "USER_NOT_FOUND_OR_VERIFIED")
}

func TestLogin_Success(t *testing.T) {
	mockService := &handlers.MockIdentityService{
		LoginFunc: func(ctx context.Context, email, password string) (string, *models.User, error) {
			return "signed-token", handlers.NewTestUser("user123", email, "alice"), nil
		},
	}

	handler := handlers.NewAuthHandler(mockService, slog.Default())
	req := handlers.NewTestRequest(t, "POST", "/api/login", handlers.LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	var resp handlers.LoginResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "signed-token", resp.Token)
	assert.Equal(t, "user123", resp.User.ID)
	assert.Equal(t, "alice@example.com", resp.User.Email)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockIdentityService{}, slog.Default())
	req := handlers.NewTestRequest(t, "POST", "/api/login", handlers.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, 401, "INVALID_CREDENTIALS")
}

func TestLogin_Unverified(t *testing.T) {
	mockService := &handlers.MockIdentityService{
		LoginFunc: func(ctx context.Context, email, password string) (string, *models.User, error) {
			return "", nil, models.ErrEmailNotVerified
		},
	}

	handler := handlers.NewAuthHandler(mockService, slog.Default())
	req := handlers.NewTestRequest(t, "POST", "/api/login", handlers.LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, 403, "EMAIL_NOT_VERIFIED")
}
