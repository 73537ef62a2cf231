package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/faycr/accounts/internal/auth"
	"github.com/faycr/accounts/internal/models"
	"github.com/faycr/accounts/internal/services"
	pkghttp "github.com/faycr/accounts/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds user claims to request context for testing authenticated endpoints
func WithAuthContext(req *http.Request, userID, email, username string) *http.Request {
	claims := &models.TokenClaims{
		UserID:   userID,
		Email:    email,
		Username: username,
	}
	ctx := context.WithValue(req.Context(), auth.UserContextKey, claims)
	return req.WithContext(ctx)
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// NewTestUser creates a verified user for handler tests
func NewTestUser(id, email, username string) *models.User {
	now := time.Now()
	return &models.User{
		ID:        id,
		Username:  username,
		Email:     email,
		Verified:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MockIdentityService implements IdentityServiceInterface for testing
type MockIdentityService struct {
	RegisterFunc    func(ctx context.Context, username, email, password, avatar string) (*services.RegisterResult, error)
	VerifyEmailFunc func(ctx context.Context, email, code string) error
	ResendCodeFunc  func(ctx context.Context, email string) error
	LoginFunc       func(ctx context.Context, email, password string) (string, *models.User, error)
}

func (m *MockIdentityService) Register(ctx context.Context, username, email, password, avatar string) (*services.RegisterResult, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.RegisterFunc(ctx, username, email, password, avatar)
}

func (m *MockIdentityService) VerifyEmail(ctx context.Context, email, code string) error {
	if m.VerifyEmailFunc == nil {
		return models.ErrInvalidCode
	}
	return m.VerifyEmailFunc(ctx, email, code)
}

func (m *MockIdentityService) ResendCode(ctx context.Context, email string) error {
	if m.ResendCodeFunc == nil {
		return models.ErrNotFoundOrVerified
	}
	return m.ResendCodeFunc(ctx, email)
}

func (m *MockIdentityService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	if m.LoginFunc == nil {
		return "", nil, models.ErrInvalidCredentials
	}
	return m.LoginFunc(ctx, email, password)
}

// MockUserService implements UserServiceInterface for testing
type MockUserService struct {
	GetUserFunc       func(ctx context.Context, id string) (*models.User, error)
	UpdateProfileFunc func(ctx context.Context, id, username, avatar string) (*models.User, error)
}

func (m *MockUserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	if m.GetUserFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetUserFunc(ctx, id)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, id, username, avatar string) (*models.User, error) {
	if m.UpdateProfileFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateProfileFunc(ctx, id, username, avatar)
}

// MockFederationService implements FederationServiceInterface for testing
type MockFederationService struct {
	GoogleAuthURLFunc         func(state string) string
	DiscordAuthURLFunc        func(state string) string
	HandleGoogleCallbackFunc  func(ctx context.Context, code string) (string, error)
	HandleDiscordCallbackFunc func(ctx context.Context, code string) (string, error)
}

func (m *MockFederationService) GoogleAuthURL(state string) string {
	if m.GoogleAuthURLFunc == nil {
		return "https://accounts.google.com/o/oauth2/auth?state=" + state
	}
	return m.GoogleAuthURLFunc(state)
}

func (m *MockFederationService) DiscordAuthURL(state string) string {
	if m.DiscordAuthURLFunc == nil {
		return "https://discord.com/oauth2/authorize?state=" + state
	}
	return m.DiscordAuthURLFunc(state)
}

func (m *MockFederationService) HandleGoogleCallback(ctx context.Context, code string) (string, error) {
	if m.HandleGoogleCallbackFunc == nil {
		return "", models.ErrUnauthorized
	}
	return m.HandleGoogleCallbackFunc(ctx, code)
}

func (m *MockFederationService) HandleDiscordCallback(ctx context.Context, code string) (string, error) {
	if m.HandleDiscordCallbackFunc == nil {
		return "", models.ErrUnauthorized
	}
	return m.HandleDiscordCallbackFunc(ctx, code)
}
