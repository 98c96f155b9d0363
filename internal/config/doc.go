// Package config loads, normalizes and validates the reviews service
// configuration.
//
// Settings come from a TOML file layered over repository defaults, with
// REVIEWS_SECRET_KEY, REVIEWS_DATABASE_DSN and REVIEWS_HTTP_ADDR taking
// precedence when set. A loaded *Config satisfies reviews.Config and
// reviews.MailConfig and can be handed to the root package directly.
package config
