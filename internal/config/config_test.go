package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *Config {
	return &Config{
		Environment:    "development",
		ServerPort:     "8080",
		RequestTimeout: 30 * time.Second,
		DatabaseURL:    "postgres://localhost:5432/habitcraft",
		JWTSecret:      "a-perfectly-reasonable-signing-key-123456",
		JWTAccessTTL:   15 * time.Minute,
		JWTRefreshTTL:  168 * time.Hour,
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, baseConfig().Validate())
}

func TestValidate_MissingSecret(t *testing.T) {
	cfg := baseConfig()
	cfg.JWTSecret = "   "
	assert.Error(t, cfg.Validate())
}

func TestValidate_ProductionSecretPolicy(t *testing.T) {
	cases := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{"strong secret", "kU2mXq8vRb4nWz6tYc1sFh3jLp5dGa7e90AB", false},
		{"too short", "short-secret", true},
		{"exactly 31 chars", strings.Repeat("x", 31), true},
		{"exactly 32 chars", strings.Repeat("x", 32), false},
		{"dev placeholder", "dev-secret-padded-to-thirty-two-chars!!", true},
		{"change placeholder", "please-change-me-padded-to-32-characters", true},
		{"uppercase placeholder", "DEV-SECRET-PADDED-TO-THIRTY-TWO-CHARS!!", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseConfig()
			cfg.Environment = "production"
			cfg.JWTSecret = tc.secret
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_WeakSecretAllowedOutsideProduction(t *testing.T) {
	cfg := baseConfig()
	cfg.JWTSecret = "dev"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_LegacyHeaderAuthBlockedInProduction(t *testing.T) {
	cfg := baseConfig()
	cfg.Environment = "production"
	cfg.JWTSecret = strings.Repeat("k", 40)
	cfg.LegacyHeaderAuth = true
	assert.Error(t, cfg.Validate())

	cfg.Environment = "development"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_TTLs(t *testing.T) {
	cfg := baseConfig()
	cfg.JWTAccessTTL = 0
	assert.Error(t, cfg.Validate())

	cfg = baseConfig()
	cfg.JWTRefreshTTL = -time.Hour
	assert.Error(t, cfg.Validate())
}

func TestIsProduction(t *testing.T) {
	cfg := baseConfig()
	assert.False(t, cfg.IsProduction())
	cfg.Environment = "production"
	assert.True(t, cfg.IsProduction())
}
