package jwtware

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-router"
)

var (
	defaultTokenLookup       = "header:" + router.HeaderAuthorization
	ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")
)

// TokenValidator validates a raw token and returns its claims. It mirrors
// reviews.TokenService.Validate without importing the root package.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator
type TokenValidatorFunc func(tokenString string) (AuthClaims, error)

func (f TokenValidatorFunc) Validate(tokenString string) (AuthClaims, error) {
	return f(tokenString)
}

// AuthClaims is the subset of claims the middleware needs
type AuthClaims interface {
	Subject() string
	UserID() string
	Role() string
}

// ValidationListener is invoked after a token has been validated
type ValidationListener func(ctx router.Context, claims AuthClaims) error

type Config struct {
	Filter         func(router.Context) bool
	SuccessHandler router.HandlerFunc
	ErrorHandler   router.ErrorHandler
	ContextKey     string
	TokenLookup    string
	AuthScheme     string
	// TokenValidator is required
	TokenValidator TokenValidator

	// Optional lets requests without a token through, they reach the
	// handler with nothing stored under ContextKey. A token that is present
	// but invalid is still rejected.
	Optional bool

	// ContextEnricher propagates claims to the standard context
	ContextEnricher func(c context.Context, claims AuthClaims) context.Context

	ValidationListeners []ValidationListener
}

func New(config ...Config) router.MiddlewareFunc {
	cfg := GetDefaultConfig(config...)
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return next(ctx)
			}

			raw, err := ExtractRawTokenFromContext(ctx, cfg.getExtractors())
			if err != nil || raw == "" {
				if cfg.Optional && isMissing(ctx, cfg) {
					return next(ctx)
				}
				if err == nil {
					err = ErrJWTMissingOrMalformed
				}
				return cfg.ErrorHandler(ctx, err)
			}

			claims, err := cfg.TokenValidator.Validate(raw)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			if err := cfg.runValidationListeners(ctx, claims); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.Locals(cfg.ContextKey, claims)

			if cfg.ContextEnricher != nil {
				ctx.SetContext(cfg.ContextEnricher(ctx.Context(), claims))
			}

			if cfg.SuccessHandler != nil {
				if err := cfg.SuccessHandler(ctx); err != nil {
					return err
				}
			}
			return next(ctx)
		}
	}
}

// isMissing reports whether no token source carries a value at all. A
// header with the wrong scheme counts as present and malformed.
func isMissing(ctx router.Context, cfg Config) bool {
	for _, source := range parseLookup(cfg.TokenLookup) {
		switch source.kind {
		case "header":
			if ctx.GetString(source.name, "") != "" {
				return false
			}
		case "query":
			if ctx.Query(source.name, "") != "" {
				return false
			}
		case "param":
			if ctx.Param(source.name) != "" {
				return false
			}
		case "cookie":
			if ctx.Cookies(source.name) != "" {
				return false
			}
		}
	}
	return true
}

func ExtractRawTokenFromContext(ctx router.Context, extractors []JWTExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(ctx)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			if errors.Is(err, ErrJWTMissingOrMalformed) {
				return c.Status(router.StatusBadRequest).SendString(ErrJWTMissingOrMalformed.Error())
			}
			return c.Status(router.StatusUnauthorized).SendString("Invalid or expired token")
		}
	}

	if cfg.TokenValidator == nil {
		panic("REVIEWS: JWT middleware configuration: TokenValidator is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

func (cfg *Config) getExtractors() []JWTExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

func (cfg *Config) runValidationListeners(ctx router.Context, claims AuthClaims) error {
	for _, listener := range cfg.ValidationListeners {
		if listener == nil {
			continue
		}
		if err := listener(ctx, claims); err != nil {
			return err
		}
	}
	return nil
}

type lookupSource struct {
	kind string
	name string
}

// header:Authorization,cookie:jwt,query:auth_token,param:token
func parseLookup(tokenLookup string) []lookupSource {
	sources := make([]lookupSource, 0)
	for _, rootPart := range strings.Split(tokenLookup, ",") {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")
		if len(parts) != 2 {
			continue
		}
		sources = append(sources, lookupSource{
			kind: strings.TrimSpace(parts[0]),
			name: strings.TrimSpace(parts[1]),
		})
	}
	return sources
}

func GetExtractors(tokenLookup string, authSchemes ...string) []JWTExtractor {
	extractors := make([]JWTExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 {
		authScheme = strings.TrimSpace(authSchemes[0])
	}

	for _, source := range parseLookup(tokenLookup) {
		switch source.kind {
		case "header":
			extractors = append(extractors, jwtFromHeader(source.name, authScheme))
		case "query":
			extractors = append(extractors, jwtFromQuery(source.name))
		case "param":
			extractors = append(extractors, jwtFromParam(source.name))
		case "cookie":
			extractors = append(extractors, jwtFromCookie(source.name))
		}
	}

	return extractors
}

type JWTExtractor func(c router.Context) (string, error)

// jwtFromHeader returns a function that extracts token from the request header.
func jwtFromHeader(header string, authScheme string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		a := c.GetString(header, "")
		l := len(authScheme)
		if l == 0 {
			return "", ErrJWTMissingOrMalformed
		}
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrJWTMissingOrMalformed
	}
}

// jwtFromQuery returns a function that extracts token from the query string.
func jwtFromQuery(param string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		token := c.Query(param, "")
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

// jwtFromParam returns a function that extracts token from the url param string.
func jwtFromParam(param string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		token := c.Param(param)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

// jwtFromCookie returns a function that extracts token from the named cookie.
func jwtFromCookie(name string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}
