package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/goliatone/go-featuregate/gate"
	"github.com/pelletier/go-toml/v2"

	"github.com/goliatone/go-reviews"
)

//go:embed sample_config.toml
var sampleConfig string

// HTTP holds the listener settings.
type HTTP struct {
	Addr  string `toml:"addr"`
	Debug bool   `toml:"debug"`
}

// Database selects the bun dialect and connection string.
type Database struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

// Auth configures token signing and the confirmation code window.
// Durations are Go duration strings, e.g. "24h".
type Auth struct {
	SecretKey           string            `toml:"secret_key"`
	SigningKeyID        string            `toml:"signing_key_id"`
	RetiredKeys         map[string]string `toml:"retired_keys"`
	Issuer              string            `toml:"issuer"`
	Audience            []string          `toml:"audience"`
	AccessTokenTTL      string            `toml:"access_token_ttl"`
	RefreshTokenTTL     string            `toml:"refresh_token_ttl"`
	ConfirmationTimeout string            `toml:"confirmation_timeout"`
	TokenLookup         string            `toml:"token_lookup"`
	AuthScheme          string            `toml:"auth_scheme"`
	ContextKey          string            `toml:"context_key"`

	accessTTL           time.Duration
	refreshTTL          time.Duration
	confirmationTimeout time.Duration
}

// Mail configures confirmation emails.
type Mail struct {
	From    string `toml:"from"`
	Subject string `toml:"subject"`
}

// Features toggles optional behavior.
type Features struct {
	Signup bool `toml:"signup"`
}

// Logging configures the glog root logger.
type Logging struct {
	Level string `toml:"level"`
	Name  string `toml:"name"`
}

// Config encapsulates every setting of the service.
type Config struct {
	HTTP     HTTP     `toml:"http"`
	Database Database `toml:"database"`
	Auth     Auth     `toml:"auth"`
	Mail     Mail     `toml:"mail"`
	Features Features `toml:"features"`
	Logging  Logging  `toml:"logging"`
}

var (
	_ reviews.Config     = (*Config)(nil)
	_ reviews.MailConfig = (*Config)(nil)
)

// Load reads path over the defaults, applies env overrides, then normalizes
// and validates the result. An empty path looks for reviews.toml in the
// working directory. A missing file is not an error, the returned bool
// reports whether one was read.
func Load(path string) (*Config, bool, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, false, err
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.normalize(); err != nil {
		return nil, false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}

	return &cfg, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = defaultConfigFile
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", false, fmt.Errorf("resolve config path %q: %w", path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return abs, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %q is a directory", abs)
	}
	return abs, true, nil
}

func (c *Config) applyEnv() {
	if value, ok := os.LookupEnv(EnvSecretKey); ok && value != "" {
		c.Auth.SecretKey = value
	}
	if value, ok := os.LookupEnv(EnvDatabaseDSN); ok && value != "" {
		c.Database.DSN = value
	}
	if value, ok := os.LookupEnv(EnvHTTPAddr); ok && value != "" {
		c.HTTP.Addr = value
	}
}

// CreateSample writes a commented sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// FeatureGate exposes the [features] table to the signup gate.
func (c *Config) FeatureGate() gate.FeatureGate {
	return reviews.StaticFeatureGate{
		gate.FeatureUsersSignup: c.Features.Signup,
	}
}

func (c *Config) GetSigningKey() string {
	return c.Auth.SecretKey
}

func (c *Config) GetSigningKeyID() string {
	return c.Auth.SigningKeyID
}

func (c *Config) GetRetiredSigningKeys() map[string]string {
	return c.Auth.RetiredKeys
}

func (c *Config) GetIssuer() string {
	return c.Auth.Issuer
}

func (c *Config) GetAudience() []string {
	return c.Auth.Audience
}

func (c *Config) GetAccessTokenTTL() time.Duration {
	return c.Auth.accessTTL
}

func (c *Config) GetRefreshTokenTTL() time.Duration {
	return c.Auth.refreshTTL
}

func (c *Config) GetConfirmationTimeout() time.Duration {
	return c.Auth.confirmationTimeout
}

func (c *Config) GetContextKey() string {
	return c.Auth.ContextKey
}

func (c *Config) GetTokenLookup() string {
	return c.Auth.TokenLookup
}

func (c *Config) GetAuthScheme() string {
	return c.Auth.AuthScheme
}

func (c *Config) GetFrom() string {
	return c.Mail.From
}

func (c *Config) GetSubject() string {
	return c.Mail.Subject
}
