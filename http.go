package reviews

import (
	"context"
	"net/http"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"

	"github.com/goliatone/go-reviews/middleware/jwtware"
)

// ActorLocalsKey is the router locals key holding the resolved Actor
const ActorLocalsKey = "reviews.actor"

// RouteAuthenticator turns bearer tokens into actors for API routes
type RouteAuthenticator struct {
	cfg          Config
	tokens       TokenService
	users        Users
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

func NewHTTPAuthenticator(tokens TokenService, users Users, cfg Config) *RouteAuthenticator {
	a := &RouteAuthenticator{
		cfg:    cfg,
		tokens: tokens,
		users:  users,
		Logger: defLogger{},
	}
	a.ErrorHandler = NewErrorHandler(a.Logger)
	return a
}

// WithLogger sets the logger used by the middleware and the default
// error handler
func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	a.Logger = ResolveLogger(logger)
	a.ErrorHandler = NewErrorHandler(a.Logger)
	return a
}

// OptionalRoute accepts anonymous requests. A request that carries a token
// must carry a valid one, for a user that still exists.
func (a *RouteAuthenticator) OptionalRoute() router.MiddlewareFunc {
	return jwtware.New(jwtware.Config{
		Optional:            true,
		TokenValidator:      tokenValidatorAdapter{tokens: a.tokens},
		ErrorHandler:        a.authErrHandler,
		ContextKey:          a.cfg.GetContextKey(),
		TokenLookup:         a.cfg.GetTokenLookup(),
		AuthScheme:          a.cfg.GetAuthScheme(),
		ValidationListeners: []jwtware.ValidationListener{a.resolveActor},
	})
}

func (a *RouteAuthenticator) resolveActor(c router.Context, claims jwtware.AuthClaims) error {
	user, err := a.users.GetByIdentifier(c.Context(), claims.UserID())
	if err != nil {
		if IsNotFound(err) {
			return NewAuthenticationRequired("User not found.")
		}
		return err
	}
	c.Locals(ActorLocalsKey, ActorFromUser(user))
	return nil
}

func (a *RouteAuthenticator) authErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	switch {
	case errors.As(err, &richErr):
	case errors.Is(err, jwtware.ErrJWTMissingOrMalformed):
		richErr = ErrTokenMalformed
	default:
		richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
			WithCode(errors.CodeUnauthorized)
	}

	a.Logger.Debug("Authentication error", "error", richErr.Message, "text_code", richErr.TextCode)
	return a.ErrorHandler(c, richErr)
}

// ActorFromRouterContext returns the actor resolved for the request or
// the anonymous actor
func ActorFromRouterContext(c router.Context) Actor {
	if actor, ok := c.Locals(ActorLocalsKey).(Actor); ok {
		return actor
	}
	return Anonymous()
}

type tokenValidatorAdapter struct {
	tokens TokenService
}

func (v tokenValidatorAdapter) Validate(token string) (jwtware.AuthClaims, error) {
	claims, err := v.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ErrorResponse is the JSON error envelope
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code       int    `json:"code"`
	TextCode   string `json:"text_code,omitempty"`
	Category   string `json:"category"`
	Message    string `json:"message"`
	Validation any    `json:"validation,omitempty"`
}

// NewErrorHandler renders rich errors as JSON. Errors without a rich
// wrapper are reported as internal.
func NewErrorHandler(logger Logger) func(c router.Context, err error) error {
	logger = ResolveLogger(logger)
	return func(c router.Context, err error) error {
		richErr := asRichError(err)
		status := errorStatus(richErr)

		if status >= http.StatusInternalServerError {
			logger.Error("Request failed",
				"error", richErr.Message,
				"category", richErr.Category,
				"details", print.MaybePrettyJSON(richErr.Metadata),
			)
		} else {
			logger.Debug("Request rejected",
				"error", richErr.Message,
				"category", richErr.Category,
				"text_code", richErr.TextCode,
			)
		}

		body := ErrorBody{
			Code:     status,
			TextCode: richErr.TextCode,
			Category: string(richErr.Category),
			Message:  richErr.Message,
		}
		if validation := richErr.ValidationMap(); len(validation) > 0 {
			body.Validation = validation
		}

		return c.JSON(status, ErrorResponse{Error: body})
	}
}

func asRichError(err error) *errors.Error {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(err, errors.CategoryOperation, "The request timed out").
			WithCode(http.StatusServiceUnavailable)
	}
	return errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
		WithCode(errors.CodeInternal)
}

func errorStatus(richErr *errors.Error) int {
	if richErr.Code > 0 {
		return richErr.Code
	}

	switch richErr.Category {
	case errors.CategoryValidation, errors.CategoryConflict, errors.CategoryBadInput:
		return http.StatusBadRequest
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
