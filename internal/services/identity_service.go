package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/faycr/accounts/internal/auth"
	"github.com/faycr/accounts/internal/config"
	"github.com/faycr/accounts/internal/models"
	pkgauth "github.com/faycr/accounts/pkg/auth"
	pkglogger "github.com/faycr/accounts/pkg/logger"
)

// UserRepository defines the persistence operations the identity flows need
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	MarkVerified(ctx context.Context, id string) error
	SetVerificationCode(ctx context.Context, id, codeHash string, expiresAt time.Time) error
	UpdateProfile(ctx context.Context, id, username, avatar string) error
	UpdateAvatar(ctx context.Context, id, avatar string) error
	ClearExpiredCodes(ctx context.Context) (int64, error)
}

// RegisterResult reports the outcome of a registration. EmailSendFailed is set
// when the account was created but the verification email could not be
// delivered; the caller surfaces it as a warning, not a failure.
type RegisterResult struct {
	User            *models.User
	EmailSendFailed bool
}

// IdentityService implements registration, email verification, login and
// profile management.
type IdentityService struct {
	userRepo     UserRepository
	emailSender  EmailSender
	tokenManager *auth.TokenManager
	authConfig   *config.AuthConfig
	logger       *slog.Logger
}

// NewIdentityService creates a new IdentityService
func NewIdentityService(
	userRepo UserRepository,
	emailSender EmailSender,
	tokenManager *auth.TokenManager,
	authConfig *config.AuthConfig,
	logger *slog.Logger,
) *IdentityService {
	return &IdentityService{
		userRepo:     userRepo,
		emailSender:  emailSender,
		tokenManager: tokenManager,
		authConfig:   authConfig,
		logger:       logger,
	}
}

// Register creates an unverified account and sends a verification code to the
// given address. A delivery failure does not roll the account back.
func (s *IdentityService) Register(ctx context.Context, username, email, password, avatar string) (*RegisterResult, error) {
	email = NormalizeEmail(email)
	username = strings.TrimSpace(username)

	passwordHash, err := pkgauth.HashPassword(password, s.authConfig.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	code, err := pkgauth.GenerateVerificationCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}

	codeHash := pkgauth.HashVerificationCode(code)
	expiresAt := time.Now().Add(s.authConfig.CodeExpiry)

	user, err := s.userRepo.Create(ctx, &models.User{
		Username:      username,
		Email:         email,
		PasswordHash:  passwordHash,
		Avatar:        avatar,
		Verified:      false,
		CodeHash:      &codeHash,
		CodeExpiresAt: &expiresAt,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("email", pkglogger.SanitizedEmail(email)))

	result := &RegisterResult{User: user}

	if err := s.emailSender.SendVerificationEmail(ctx, email, username, code); err != nil {
		s.logger.Warn("verification email not delivered",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		result.EmailSendFailed = true
	}

	return result, nil
}

// VerifyEmail consumes a verification code and marks the account verified.
// The code is single use; a second attempt with the same code fails.
func (s *IdentityService) VerifyEmail(ctx context.Context, email, code string) error {
	email = NormalizeEmail(email)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	if user.Verified {
		// Already verified, nothing to consume
		return models.ErrCodeExpired
	}

	if !user.HasPendingCode() || user.CodeExpired() {
		return models.ErrCodeExpired
	}

	if pkgauth.HashVerificationCode(code) != *user.CodeHash {
		return models.ErrInvalidCode
	}

	if err := s.userRepo.MarkVerified(ctx, user.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Consumed concurrently between the read and the update
			return models.ErrCodeExpired
		}
		return err
	}

	s.logger.Info("email verified", slog.String("user_id", user.ID))

	if err := s.emailSender.SendWelcomeEmail(ctx, email, user.Username); err != nil {
		s.logger.Warn("welcome email not delivered",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
	}

	return nil
}

// ResendCode issues a fresh verification code for an unverified account,
// invalidating any previous one.
func (s *IdentityService) ResendCode(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFoundOrVerified
		}
		return err
	}

	if user.Verified {
		return models.ErrNotFoundOrVerified
	}

	code, err := pkgauth.GenerateVerificationCode()
	if err != nil {
		return fmt.Errorf("failed to generate verification code: %w", err)
	}

	codeHash := pkgauth.HashVerificationCode(code)
	expiresAt := time.Now().Add(s.authConfig.CodeExpiry)

	if err := s.userRepo.SetVerificationCode(ctx, user.ID, codeHash, expiresAt); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFoundOrVerified
		}
		return err
	}

	if err := s.emailSender.SendVerificationEmail(ctx, email, user.Username, code); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	s.logger.Info("verification code resent", slog.String("user_id", user.ID))

	return nil
}

// Login authenticates an email and password pair and returns a signed token.
// Unknown emails and wrong passwords produce the same error so the response
// does not reveal which accounts exist.
func (s *IdentityService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = NormalizeEmail(email)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", nil, models.ErrInvalidCredentials
		}
		return "", nil, err
	}

	// Verified is checked before the password so an unverified account always
	// hears EMAIL_NOT_VERIFIED, whatever credentials were sent.
	if !user.Verified {
		return "", nil, models.ErrEmailNotVerified
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		return "", nil, models.ErrInvalidCredentials
	}

	token, err := s.tokenManager.GenerateToken(user.ID, user.Email, user.Username)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))

	return token, user, nil
}

// GetUser returns the account for the given id
func (s *IdentityService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateProfile overwrites the display fields and returns the updated account
func (s *IdentityService) UpdateProfile(ctx context.Context, id, username, avatar string) (*models.User, error) {
	username = strings.TrimSpace(username)

	if err := s.userRepo.UpdateProfile(ctx, id, username, avatar); err != nil {
		return nil, err
	}

	return s.userRepo.GetByID(ctx, id)
}

// NormalizeEmail trims surrounding whitespace. Emails are stored and compared
// exactly as given; the unique key is case sensitive.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
