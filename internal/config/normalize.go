package config

import (
	"fmt"
	"strings"
	"time"
)

func (c *Config) normalize() error {
	c.normalizeHTTP()
	c.normalizeDatabase()
	if err := c.normalizeAuth(); err != nil {
		return err
	}
	c.normalizeMail()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeHTTP() {
	c.HTTP.Addr = strings.TrimSpace(c.HTTP.Addr)
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = defaultHTTPAddr
	}
}

func (c *Config) normalizeDatabase() {
	driver := strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch driver {
	case "":
		driver = defaultDatabaseDriver
	case "sqlite3":
		driver = DriverSQLite
	case "postgresql", "pg":
		driver = DriverPostgres
	}
	c.Database.Driver = driver
	c.Database.DSN = strings.TrimSpace(c.Database.DSN)
}

func (c *Config) normalizeAuth() error {
	c.Auth.SecretKey = strings.TrimSpace(c.Auth.SecretKey)
	c.Auth.SigningKeyID = strings.TrimSpace(c.Auth.SigningKeyID)
	if c.Auth.SigningKeyID == "" {
		c.Auth.SigningKeyID = defaultSigningKeyID
	}
	c.Auth.Issuer = strings.TrimSpace(c.Auth.Issuer)
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = defaultIssuer
	}

	audience := make([]string, 0, len(c.Auth.Audience))
	for _, value := range c.Auth.Audience {
		if value = strings.TrimSpace(value); value != "" {
			audience = append(audience, value)
		}
	}
	if len(audience) == 0 {
		audience = []string{defaultAudience}
	}
	c.Auth.Audience = audience

	if c.Auth.TokenLookup = strings.TrimSpace(c.Auth.TokenLookup); c.Auth.TokenLookup == "" {
		c.Auth.TokenLookup = defaultTokenLookup
	}
	if c.Auth.AuthScheme = strings.TrimSpace(c.Auth.AuthScheme); c.Auth.AuthScheme == "" {
		c.Auth.AuthScheme = defaultAuthScheme
	}
	if c.Auth.ContextKey = strings.TrimSpace(c.Auth.ContextKey); c.Auth.ContextKey == "" {
		c.Auth.ContextKey = defaultContextKey
	}

	var err error
	if c.Auth.accessTTL, err = parseDuration(c.Auth.AccessTokenTTL, defaultAccessTokenTTL); err != nil {
		return fmt.Errorf("auth.access_token_ttl: %w", err)
	}
	if c.Auth.refreshTTL, err = parseDuration(c.Auth.RefreshTokenTTL, defaultRefreshTokenTTL); err != nil {
		return fmt.Errorf("auth.refresh_token_ttl: %w", err)
	}
	if c.Auth.confirmationTimeout, err = parseDuration(c.Auth.ConfirmationTimeout, defaultConfirmationTimeout); err != nil {
		return fmt.Errorf("auth.confirmation_timeout: %w", err)
	}
	return nil
}

func (c *Config) normalizeMail() {
	if c.Mail.From = strings.TrimSpace(c.Mail.From); c.Mail.From == "" {
		c.Mail.From = defaultMailFrom
	}
	if c.Mail.Subject = strings.TrimSpace(c.Mail.Subject); c.Mail.Subject == "" {
		c.Mail.Subject = defaultMailSubject
	}
}

func (c *Config) normalizeLogging() {
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	switch level {
	case "":
		level = defaultLogLevel
	case "warning":
		level = "warn"
	}
	c.Logging.Level = level
	if c.Logging.Name = strings.TrimSpace(c.Logging.Name); c.Logging.Name == "" {
		c.Logging.Name = defaultLogName
	}
}

func parseDuration(value, fallback string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	return d, nil
}
