package config

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const minSecretKeyLength = 16

var validLogLevels = []any{"trace", "debug", "info", "warn", "error"}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateHTTP(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateAuth(); err != nil {
		return err
	}
	if err := c.validateMail(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateHTTP() error {
	if err := validation.ValidateStruct(&c.HTTP,
		validation.Field(&c.HTTP.Addr, validation.Required),
	); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if err := validation.ValidateStruct(&c.Database,
		validation.Field(&c.Database.Driver, validation.Required, validation.In(DriverSQLite, DriverPostgres)),
		validation.Field(&c.Database.DSN, validation.Required),
	); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	return nil
}

func (c *Config) validateAuth() error {
	if c.Auth.SecretKey == "" {
		return fmt.Errorf("auth.secret_key is required. Set %s or edit the config file", EnvSecretKey)
	}

	if err := validation.ValidateStruct(&c.Auth,
		validation.Field(&c.Auth.SecretKey, validation.Length(minSecretKeyLength, 0)),
		validation.Field(&c.Auth.SigningKeyID, validation.Required),
		validation.Field(&c.Auth.Issuer, validation.Required),
		validation.Field(&c.Auth.Audience, validation.Required),
		validation.Field(&c.Auth.RetiredKeys, validation.By(noActiveKeyID(c.Auth.SigningKeyID))),
	); err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	for name, d := range map[string]time.Duration{
		"access_token_ttl":     c.Auth.accessTTL,
		"refresh_token_ttl":    c.Auth.refreshTTL,
		"confirmation_timeout": c.Auth.confirmationTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("auth.%s must be a positive duration", name)
		}
	}

	if c.Auth.refreshTTL < c.Auth.accessTTL {
		return errors.New("auth.refresh_token_ttl must not be shorter than auth.access_token_ttl")
	}
	return nil
}

func (c *Config) validateMail() error {
	if err := validation.ValidateStruct(&c.Mail,
		validation.Field(&c.Mail.From, validation.Required, is.Email),
		validation.Field(&c.Mail.Subject, validation.Required),
	); err != nil {
		return fmt.Errorf("mail: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if err := validation.ValidateStruct(&c.Logging,
		validation.Field(&c.Logging.Level, validation.In(validLogLevels...)),
	); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

func noActiveKeyID(active string) validation.RuleFunc {
	return func(value any) error {
		keys, _ := value.(map[string]string)
		if _, ok := keys[active]; ok {
			return fmt.Errorf("must not contain the active key id %q", active)
		}
		return nil
	}
}
