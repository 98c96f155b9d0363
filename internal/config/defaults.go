package config

const (
	EnvSecretKey   = "REVIEWS_SECRET_KEY"
	EnvDatabaseDSN = "REVIEWS_DATABASE_DSN"
	EnvHTTPAddr    = "REVIEWS_HTTP_ADDR"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultConfigFile          = "reviews.toml"
	defaultHTTPAddr            = ":8080"
	defaultDatabaseDriver      = DriverSQLite
	defaultDatabaseDSN         = "file:reviews.db?cache=shared"
	defaultSigningKeyID        = "primary"
	defaultIssuer              = "reviews"
	defaultAudience            = "reviews-api"
	defaultAccessTokenTTL      = "24h"
	defaultRefreshTokenTTL     = "720h"
	defaultConfirmationTimeout = "72h"
	defaultTokenLookup         = "header:Authorization"
	defaultAuthScheme          = "Bearer"
	defaultContextKey          = "user"
	defaultMailFrom            = "noreply@reviews.local"
	defaultMailSubject         = "Your confirmation code"
	defaultLogLevel            = "info"
	defaultLogName             = "reviews"
)

// Default returns a Config populated with repository defaults. It has no
// secret key, Validate rejects it until one is supplied.
func Default() Config {
	return Config{
		HTTP: HTTP{
			Addr: defaultHTTPAddr,
		},
		Database: Database{
			Driver: defaultDatabaseDriver,
			DSN:    defaultDatabaseDSN,
		},
		Auth: Auth{
			SigningKeyID:        defaultSigningKeyID,
			Issuer:              defaultIssuer,
			Audience:            []string{defaultAudience},
			AccessTokenTTL:      defaultAccessTokenTTL,
			RefreshTokenTTL:     defaultRefreshTokenTTL,
			ConfirmationTimeout: defaultConfirmationTimeout,
			TokenLookup:         defaultTokenLookup,
			AuthScheme:          defaultAuthScheme,
			ContextKey:          defaultContextKey,
		},
		Mail: Mail{
			From:    defaultMailFrom,
			Subject: defaultMailSubject,
		},
		Features: Features{
			Signup: true,
		},
		Logging: Logging{
			Level: defaultLogLevel,
			Name:  defaultLogName,
		},
	}
}
