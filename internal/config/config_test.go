package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-featuregate/gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-reviews/internal/config"
)

const testSecret = "a-secret-key-long-enough"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reviews.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaultsAndEnv(t *testing.T) {
	t.Setenv(config.EnvSecretKey, testSecret)
	t.Setenv(config.EnvHTTPAddr, "127.0.0.1:9999")

	cfg, exists, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Equal(t, "127.0.0.1:9999", cfg.HTTP.Addr)
	assert.Equal(t, testSecret, cfg.GetSigningKey())
	assert.Equal(t, config.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.GetAccessTokenTTL())
	assert.Equal(t, 720*time.Hour, cfg.GetRefreshTokenTTL())
	assert.Equal(t, 72*time.Hour, cfg.GetConfirmationTimeout())
	assert.Equal(t, []string{"reviews-api"}, cfg.GetAudience())
	assert.Equal(t, "header:Authorization", cfg.GetTokenLookup())
	assert.Equal(t, "Bearer", cfg.GetAuthScheme())
	assert.True(t, cfg.Features.Signup)
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
[http]
addr = " :7000 "

[database]
driver = "PostgreSQL"
dsn = "postgres://reviews@localhost/reviews"

[auth]
secret_key = "`+testSecret+`"
signing_key_id = "k2"
access_token_ttl = "15m"
refresh_token_ttl = "48h"
audience = ["api", " "]

[auth.retired_keys]
k1 = "previous-secret-key"

[mail]
subject = "Code"

[features]
signup = false

[logging]
level = "WARNING"
`)

	cfg, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)

	assert.Equal(t, ":7000", cfg.HTTP.Addr)
	assert.Equal(t, config.DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "k2", cfg.GetSigningKeyID())
	assert.Equal(t, map[string]string{"k1": "previous-secret-key"}, cfg.GetRetiredSigningKeys())
	assert.Equal(t, 15*time.Minute, cfg.GetAccessTokenTTL())
	assert.Equal(t, []string{"api"}, cfg.GetAudience())
	assert.Equal(t, "Code", cfg.GetSubject())
	assert.Equal(t, "noreply@reviews.local", cfg.GetFrom())
	assert.Equal(t, "warn", cfg.Logging.Level)

	enabled, err := cfg.FeatureGate().Enabled(context.Background(), gate.FeatureUsersSignup)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[database]
dsn = "file:from-file.db"

[auth]
secret_key = "file-secret-key-value"
`)
	t.Setenv(config.EnvDatabaseDSN, "file:from-env.db")
	t.Setenv(config.EnvSecretKey, testSecret)

	cfg, _, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file:from-env.db", cfg.Database.DSN)
	assert.Equal(t, testSecret, cfg.GetSigningKey())
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"missing secret": ``,
		"short secret": `
[auth]
secret_key = "short"`,
		"bad driver": `
[database]
driver = "oracle"
[auth]
secret_key = "` + testSecret + `"`,
		"bad duration": `
[auth]
secret_key = "` + testSecret + `"
access_token_ttl = "tomorrow"`,
		"refresh shorter than access": `
[auth]
secret_key = "` + testSecret + `"
access_token_ttl = "48h"
refresh_token_ttl = "1h"`,
		"active key retired": `
[auth]
secret_key = "` + testSecret + `"
[auth.retired_keys]
primary = "other-secret-key"`,
		"bad log level": `
[auth]
secret_key = "` + testSecret + `"
[logging]
level = "chatty"`,
		"bad toml": `[auth`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(config.EnvSecretKey, "")
			_, _, err := config.Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "reviews.toml")
	require.NoError(t, config.CreateSample(path))

	t.Setenv(config.EnvSecretKey, testSecret)
	cfg, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}
