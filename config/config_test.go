package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/postboard/apiv1/tokens"
	"github.com/postboard/apiv1/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func required() map[string]string {
	return map[string]string{
		"DATABASE_URL": "memory://",
		"JWT_SECRET":   "s3cret",
	}
}

func TestFromMap_Defaults(t *testing.T) {
	cfg, err := FromMap(required())
	require.NoError(t, err)

	assert.Equal(t, 5005, cfg.Port)
	assert.Equal(t, ":5005", cfg.Addr())
	assert.Equal(t, utils.DEFAULT_TOKEN_ISSUER, cfg.JWTIssuer)
	assert.Equal(t, utils.ACCESS_TOKEN_DURATION, cfg.TokenTTL)
	assert.Equal(t, utils.DEFAULT_HASH_COST, cfg.BcryptCost)
	assert.Equal(t, utils.MAX_NUM_LOGIN_ATTEMPTS, cfg.LoginMaxAttempts)
	assert.Equal(t, utils.LOGIN_ATTEMPT_WINDOW, cfg.LoginWindow)
	assert.Equal(t, 5.0, cfg.IPRateLimit)
	assert.Empty(t, cfg.GoogleClientID)
	assert.Equal(t, tokens.DefaultGoogleJWKSURL, cfg.GoogleJWKSURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestFromMap_Overrides(t *testing.T) {
	vars := required()
	vars["PORT"] = "8080"
	vars["LOGIN_WINDOW"] = "15m"
	vars["LOGIN_MAX_ATTEMPTS"] = "3"
	vars["GOOGLE_CLIENT_ID"] = "client.apps.googleusercontent.com"

	cfg, err := FromMap(vars)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.LoginWindow)
	assert.Equal(t, 3, cfg.LoginMaxAttempts)
	assert.Equal(t, "client.apps.googleusercontent.com", cfg.GoogleClientID)
}

func TestFromMap_Invalid(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{name: "missing secret", vars: map[string]string{"DATABASE_URL": "memory://"}},
		{name: "empty secret", vars: map[string]string{"DATABASE_URL": "memory://", "JWT_SECRET": ""}},
		{name: "missing database", vars: map[string]string{"JWT_SECRET": "x"}},
		{name: "bad duration", vars: map[string]string{"DATABASE_URL": "memory://", "JWT_SECRET": "x", "TOKEN_TTL": "soon"}},
		{name: "cost too high", vars: map[string]string{"DATABASE_URL": "memory://", "JWT_SECRET": "x", "BCRYPT_COST": "40"}},
		{name: "zero attempts", vars: map[string]string{"DATABASE_URL": "memory://", "JWT_SECRET": "x", "LOGIN_MAX_ATTEMPTS": "0"}},
		{name: "port out of range", vars: map[string]string{"DATABASE_URL": "memory://", "JWT_SECRET": "x", "PORT": "70000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromMap(tt.vars)
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DATABASE_URL=memory://\nJWT_SECRET=from-file\nPORT=6000\n"), 0o600))
	t.Setenv("PORT", "7000")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("JWT_SECRET")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, 7000, cfg.Port)
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	t.Setenv("DATABASE_URL", "memory://")
	t.Setenv("JWT_SECRET", "x")

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
