package services

import (
	"context"
	"time"

	"github.com/faycr/accounts/internal/config"
	"github.com/faycr/accounts/internal/models"
	pkgauth "github.com/faycr/accounts/pkg/auth"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc             func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc          func(ctx context.Context, email string) (*models.User, error)
	CreateFunc              func(ctx context.Context, user *models.User) (*models.User, error)
	MarkVerifiedFunc        func(ctx context.Context, id string) error
	SetVerificationCodeFunc func(ctx context.Context, id, codeHash string, expiresAt time.Time) error
	UpdateProfileFunc       func(ctx context.Context, id, username, avatar string) error
	UpdateAvatarFunc        func(ctx context.Context, id, avatar string) error
	ClearExpiredCodesFunc   func(ctx context.Context) (int64, error)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) MarkVerified(ctx context.Context, id string) error {
	if m.MarkVerifiedFunc != nil {
		return m.MarkVerifiedFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) SetVerificationCode(ctx context.Context, id, codeHash string, expiresAt time.Time) error {
	if m.SetVerificationCodeFunc != nil {
		return m.SetVerificationCodeFunc(ctx, id, codeHash, expiresAt)
	}
	return nil
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id, username, avatar string) error {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, username, avatar)
	}
	return nil
}

func (m *MockUserRepository) UpdateAvatar(ctx context.Context, id, avatar string) error {
	if m.UpdateAvatarFunc != nil {
		return m.UpdateAvatarFunc(ctx, id, avatar)
	}
	return nil
}

func (m *MockUserRepository) ClearExpiredCodes(ctx context.Context) (int64, error) {
	if m.ClearExpiredCodesFunc != nil {
		return m.ClearExpiredCodesFunc(ctx)
	}
	return 0, nil
}

// MockEmailSender implements EmailSender for testing
type MockEmailSender struct {
	SendVerificationEmailFunc func(ctx context.Context, to, username, code string) error
	SendWelcomeEmailFunc      func(ctx context.Context, to, username string) error
	TestConnectionFunc        func(ctx context.Context) error
}

func (m *MockEmailSender) SendVerificationEmail(ctx context.Context, to, username, code string) error {
	if m.SendVerificationEmailFunc != nil {
		return m.SendVerificationEmailFunc(ctx, to, username, code)
	}
	return nil
}

func (m *MockEmailSender) SendWelcomeEmail(ctx context.Context, to, username string) error {
	if m.SendWelcomeEmailFunc != nil {
		return m.SendWelcomeEmailFunc(ctx, to, username)
	}
	return nil
}

func (m *MockEmailSender) TestConnection(ctx context.Context) error {
	if m.TestConnectionFunc != nil {
		return m.TestConnectionFunc(ctx)
	}
	return nil
}

// NewTestAuthConfig returns auth settings with fast bcrypt for tests
func NewTestAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret:   "test-secret-that-is-long-enough-for-hs256",
		TokenExpiry: 7 * 24 * time.Hour,
		BcryptCost:  4,
		CodeExpiry:  15 * time.Minute,
	}
}

// NewTestUser creates a verified user for tests
func NewTestUser(id, email, username string) *models.User {
	now := time.Now()
	return &models.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$04$placeholderplaceholderplaceholderplaceho",
		Verified:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewTestUserWithPassword creates a verified user whose password hash matches
// the given plaintext.
func NewTestUserWithPassword(t interface{ Fatalf(string, ...interface{}) }, id, email, username, password string) *models.User {
	hash, err := pkgauth.HashPassword(password, 4)
	if err != nil {
		t.Fatalf("failed to hash test password: %v", err)
	}
	user := NewTestUser(id, email, username)
	user.PasswordHash = hash
	return user
}

// NewTestUserUnverified creates an unverified user holding a pending code
func NewTestUserUnverified(id, email, username, code string) *models.User {
	user := NewTestUser(id, email, username)
	user.Verified = false
	codeHash := pkgauth.HashVerificationCode(code)
	expiresAt := time.Now().Add(15 * time.Minute)
	user.CodeHash = &codeHash
	user.CodeExpiresAt = &expiresAt
	return user
}

// NewTestUserExpiredCode creates an unverified user whose code has lapsed
func NewTestUserExpiredCode(id, email, username, code string) *models.User {
	user := NewTestUserUnverified(id, email, username, code)
	expiresAt := time.Now().Add(-1 * time.Minute)
	user.CodeExpiresAt = &expiresAt
	return user
}
