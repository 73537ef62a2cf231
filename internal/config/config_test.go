package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-sufficiently-long-development-secret")
	t.Setenv("DB_PASSWORD", "postgres")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenExpiry)
	assert.Equal(t, 15*time.Minute, cfg.Auth.CodeExpiry)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, "us-east-1", cfg.Email.AWSRegion)
	assert.NotEmpty(t, cfg.Server.AllowedOrigins, "development allows localhost origins")
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_PASSWORD", "postgres")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_MissingDBPassword(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-sufficiently-long-development-secret")
	t.Setenv("DB_PASSWORD", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("VERIFICATION_CODE_EXPIRY", "30m")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("PUBLIC_BASE_URL", "https://accounts.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Auth.CodeExpiry)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, "https://accounts.example.com", cfg.Server.PublicBaseURL)
}

func TestLoad_ProductionOrigins(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-production-secret-at-least-32-characters")
	t.Setenv("DB_PASSWORD", "postgres")
	t.Setenv("ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://www.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://app.example.com", "https://www.example.com"}, cfg.Server.AllowedOrigins)
}

func TestValidateJWTSecret(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		env     string
		wantErr bool
	}{
		{"short in development", "short", "development", true},
		{"development length", "sixteen-chars-ok", "development", false},
		{"development length too short for production", "sixteen-chars-ok", "production", true},
		{"production length", "this-secret-is-at-least-32-chars-long", "production", false},
		{"weak value", "changeme", "development", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateJWTSecret(tt.secret, tt.env)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "accounts",
		Password: "pw",
		Name:     "accounts_db",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=accounts password=pw dbname=accounts_db sslmode=require",
		cfg.DSN(),
	)
}
