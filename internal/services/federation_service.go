package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	"golang.org/x/oauth2/google"

	"github.com/faycr/accounts/internal/auth"
	"github.com/faycr/accounts/internal/config"
	"github.com/faycr/accounts/internal/models"
	pkgauth "github.com/faycr/accounts/pkg/auth"
	pkglogger "github.com/faycr/accounts/pkg/logger"
)

const (
	defaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	defaultDiscordAPIBaseURL = "https://discord.com/api"
)

// federatedIdentity is the provider-agnostic view of an external account
type federatedIdentity struct {
	ProviderUserID string
	Email          string
	Username       string
	Avatar         string
}

// FederationService signs users in through external identity providers.
// Accounts are matched by email; a first sign-in creates the account with an
// unusable random password and no verification step.
type FederationService struct {
	userRepo        UserRepository
	tokenManager    *auth.TokenManager
	googleOAuth     *oauth2.Config
	discordOAuth    *oauth2.Config
	discordGuildID  string
	discordBotToken string
	bcryptCost      int
	httpClient      *http.Client
	logger          *slog.Logger

	googleUserInfoURL string
	discordAPIBase    string
}

// NewFederationService creates a new FederationService
func NewFederationService(
	userRepo UserRepository,
	tokenManager *auth.TokenManager,
	cfg *config.Config,
	logger *slog.Logger,
) *FederationService {
	base := strings.TrimSuffix(cfg.Server.PublicBaseURL, "/")

	return &FederationService{
		userRepo:     userRepo,
		tokenManager: tokenManager,
		googleOAuth: &oauth2.Config{
			ClientID:     cfg.OAuth.GoogleClientID,
			ClientSecret: cfg.OAuth.GoogleClientSecret,
			RedirectURL:  base + "/api/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		discordOAuth: &oauth2.Config{
			ClientID:     cfg.OAuth.DiscordClientID,
			ClientSecret: cfg.OAuth.DiscordClientSecret,
			RedirectURL:  base + "/api/auth/discord/callback",
			Scopes:       []string{"identify", "email", "guilds.join"},
			Endpoint:     endpoints.Discord,
		},
		discordGuildID:  cfg.OAuth.DiscordGuildID,
		discordBotToken: cfg.OAuth.DiscordBotToken,
		bcryptCost:      cfg.Auth.BcryptCost,
		httpClient:      &http.Client{Timeout: 10 * time.Second},
		logger:          logger,

		googleUserInfoURL: defaultGoogleUserInfoURL,
		discordAPIBase:    defaultDiscordAPIBaseURL,
	}
}

// SetHTTPClient overrides the client used for provider requests
func (s *FederationService) SetHTTPClient(client *http.Client) {
	s.httpClient = client
}

// GoogleAuthURL returns the provider consent page URL for the given state
func (s *FederationService) GoogleAuthURL(state string) string {
	return s.googleOAuth.AuthCodeURL(state)
}

// DiscordAuthURL returns the provider consent page URL for the given state
func (s *FederationService) DiscordAuthURL(state string) string {
	return s.discordOAuth.AuthCodeURL(state)
}

// HandleGoogleCallback exchanges the authorization code, fetches the Google
// profile and signs the user in, creating the account on first sign-in.
func (s *FederationService) HandleGoogleCallback(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)

	token, err := s.googleOAuth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	identity, err := s.fetchGoogleIdentity(ctx, token)
	if err != nil {
		return "", err
	}

	user, err := s.loginFederated(ctx, identity)
	if err != nil {
		return "", err
	}

	return s.tokenManager.GenerateToken(user.ID, user.Email, user.Username)
}

// HandleDiscordCallback exchanges the authorization code, fetches the Discord
// profile and signs the user in. When a guild and bot token are configured the
// user is also added to the guild; that step is best effort.
func (s *FederationService) HandleDiscordCallback(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)

	token, err := s.discordOAuth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	identity, err := s.fetchDiscordIdentity(ctx, token)
	if err != nil {
		return "", err
	}

	user, err := s.loginFederated(ctx, identity)
	if err != nil {
		return "", err
	}

	s.joinDiscordGuild(ctx, identity.ProviderUserID, token.AccessToken)

	return s.tokenManager.GenerateToken(user.ID, user.Email, user.Username)
}

// loginFederated resolves the external identity to a local account, creating
// it on first sign-in and keeping the avatar in sync with the provider.
func (s *FederationService) loginFederated(ctx context.Context, identity *federatedIdentity) (*models.User, error) {
	email := NormalizeEmail(identity.Email)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		if identity.Avatar != "" && identity.Avatar != user.Avatar {
			if err := s.userRepo.UpdateAvatar(ctx, user.ID, identity.Avatar); err != nil {
				s.logger.Warn("failed to sync avatar",
					slog.String("user_id", user.ID),
					slog.Any("error", err))
			} else {
				user.Avatar = identity.Avatar
			}
		}
		return user, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	// Federated accounts never log in with a password, but the column is
	// NOT NULL, so store a hash of a throwaway random secret.
	randomPassword, err := pkgauth.GenerateRandomPassword()
	if err != nil {
		return nil, fmt.Errorf("failed to generate placeholder password: %w", err)
	}
	passwordHash, err := pkgauth.HashPassword(randomPassword, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err = s.userRepo.Create(ctx, &models.User{
		Username:     identity.Username,
		Email:        email,
		PasswordHash: passwordHash,
		Avatar:       identity.Avatar,
		Verified:     true,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			// Lost a create race with a concurrent sign-in
			return s.userRepo.GetByEmail(ctx, email)
		}
		return nil, err
	}

	s.logger.Info("federated account created",
		slog.String("user_id", user.ID),
		slog.String("email", pkglogger.SanitizedEmail(email)))

	return user, nil
}

type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (s *FederationService) fetchGoogleIdentity(ctx context.Context, token *oauth2.Token) (*federatedIdentity, error) {
	var info googleUserInfo
	if err := s.fetchProviderJSON(ctx, token, s.googleUserInfoURL, &info); err != nil {
		return nil, err
	}

	if info.Email == "" {
		return nil, fmt.Errorf("provider returned no email address")
	}

	username := info.Name
	if username == "" {
		username = strings.Split(info.Email, "@")[0]
	}

	return &federatedIdentity{
		ProviderUserID: info.ID,
		Email:          info.Email,
		Username:       username,
		Avatar:         info.Picture,
	}, nil
}

type discordUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}

func (s *FederationService) fetchDiscordIdentity(ctx context.Context, token *oauth2.Token) (*federatedIdentity, error) {
	var user discordUser
	if err := s.fetchProviderJSON(ctx, token, s.discordAPIBase+"/users/@me", &user); err != nil {
		return nil, err
	}

	// Discord only returns the email when the account has one verified;
	// fall back to a synthetic address so the account can still be keyed.
	email := user.Email
	if email == "" {
		email = user.ID + "@discord.local"
	}

	avatar := ""
	if user.Avatar != "" {
		avatar = fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", user.ID, user.Avatar)
	}

	return &federatedIdentity{
		ProviderUserID: user.ID,
		Email:          email,
		Username:       user.Username,
		Avatar:         avatar,
	}, nil
}

func (s *FederationService) fetchProviderJSON(ctx context.Context, token *oauth2.Token, url string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build provider request: %w", err)
	}
	token.SetAuthHeader(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}

	return nil
}

// joinDiscordGuild adds the user to the configured guild using the bot token.
// Failures are logged and never block the sign-in.
func (s *FederationService) joinDiscordGuild(ctx context.Context, discordUserID, accessToken string) {
	if s.discordGuildID == "" || s.discordBotToken == "" {
		return
	}

	payload, err := json.Marshal(map[string]string{"access_token": accessToken})
	if err != nil {
		s.logger.Warn("failed to encode guild join payload", slog.Any("error", err))
		return
	}

	url := fmt.Sprintf("%s/guilds/%s/members/%s", s.discordAPIBase, s.discordGuildID, discordUserID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, strings.NewReader(string(payload)))
	if err != nil {
		s.logger.Warn("failed to build guild join request", slog.Any("error", err))
		return
	}
	req.Header.Set("Authorization", "Bot "+s.discordBotToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("guild join request failed", slog.Any("error", err))
		return
	}
	defer resp.Body.Close()

	// 201 when added, 204 when already a member
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		s.logger.Warn("guild join rejected", slog.Int("status", resp.StatusCode))
	}
}
