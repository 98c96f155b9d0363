package reviews

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	TextCodeNotFound                = "NOT_FOUND"
	TextCodePermissionDenied        = "PERMISSION_DENIED"
	TextCodeAuthenticationRequired  = "AUTHENTICATION_REQUIRED"
	TextCodeInvalidConfirmationCode = "INVALID_CONFIRMATION_CODE"
	TextCodeSignupDisabled          = "SIGNUP_DISABLED"
	TextCodeTokenExpired            = "TOKEN_EXPIRED"
	TextCodeTokenMalformed          = "TOKEN_MALFORMED"
	TextCodeTokenType               = "TOKEN_TYPE_MISMATCH"
	TextCodeDuplicateReview         = "DUPLICATE_REVIEW"
	TextCodeUniqueViolation         = "UNIQUE_VIOLATION"
	TextCodeUnknownReference        = "UNKNOWN_REFERENCE"
	TextCodeInvalidRole             = "INVALID_ROLE"
)

// Message used for object scoped denials on content endpoints
const MessageInsufficientRights = "Insufficient rights for this action."

// Message used by the role policies
const MessageAccessRights = "You need the appropriate access rights."

// Message used when the request carries no credentials
const MessageCredentialsRequired = "Authentication credentials were not provided."

// ErrInvalidConfirmationCode is returned when a code does not match the user state
var ErrInvalidConfirmationCode = errors.New("Invalid confirmation code", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidConfirmationCode).
	WithCode(errors.CodeBadRequest)

// ErrSignupDisabled is returned when an unknown email requests a code and
// self signup is turned off
var ErrSignupDisabled = errors.New("Signup is disabled", errors.CategoryAuthz).
	WithTextCode(TextCodeSignupDisabled).
	WithCode(errors.CodeForbidden)

// ErrTokenExpired is returned for bearer tokens past their expiration
var ErrTokenExpired = errors.New("Token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for bearer tokens that fail to parse or verify
var ErrTokenMalformed = errors.New("Token malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrWrongTokenType is returned when a refresh token is presented as an access token
var ErrWrongTokenType = errors.New("Token has wrong type", errors.CategoryAuth).
	WithTextCode(TextCodeTokenType).
	WithCode(errors.CodeUnauthorized)

// ErrDuplicateReview is returned when the author already reviewed the title
var ErrDuplicateReview = errors.New("You already left a review for this title", errors.CategoryValidation).
	WithTextCode(TextCodeDuplicateReview).
	WithCode(errors.CodeBadRequest)

// NewNotFound builds a not found error for the given resource
func NewNotFound(resource string, metadata map[string]any) *errors.Error {
	err := errors.New("Not found.", errors.CategoryNotFound).
		WithTextCode(TextCodeNotFound).
		WithCode(errors.CodeNotFound)
	meta := map[string]any{"resource": resource}
	for k, v := range metadata {
		meta[k] = v
	}
	return err.WithMetadata(meta)
}

// NewPermissionDenied builds an authorization error carrying the policy message
func NewPermissionDenied(message string) *errors.Error {
	if message == "" {
		message = MessageInsufficientRights
	}
	return errors.New(message, errors.CategoryAuthz).
		WithTextCode(TextCodePermissionDenied).
		WithCode(errors.CodeForbidden)
}

// NewAuthenticationRequired builds the error returned to anonymous actors
// that were denied an action
func NewAuthenticationRequired(message string) *errors.Error {
	if message == "" {
		message = MessageCredentialsRequired
	}
	return errors.New(message, errors.CategoryAuth).
		WithTextCode(TextCodeAuthenticationRequired).
		WithCode(errors.CodeUnauthorized)
}

// NewUnknownReference is returned when a write payload points at a
// category or genre slug that does not exist
func NewUnknownReference(field, slug string) *errors.Error {
	return errors.New(fmt.Sprintf("Object with slug=%s does not exist.", slug), errors.CategoryValidation).
		WithTextCode(TextCodeUnknownReference).
		WithCode(errors.CodeBadRequest).
		WithMetadata(map[string]any{"field": field, "slug": slug})
}

// IsPermissionDenied checks for authorization errors
func IsPermissionDenied(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.Category == errors.CategoryAuthz
}

// IsUniqueViolation checks for conflict errors raised by unique constraints
func IsUniqueViolation(err error) bool {
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeUniqueViolation {
		return true
	}
	_, ok := uniqueViolationField(err)
	return ok
}

const (
	pgUniqueViolation     = "23505"
	sqliteUniqueViolation = "UNIQUE constraint failed:"
)

// storeError translates driver errors into rich errors. Unique constraint
// violations become conflicts naming the offending field.
func storeError(err error, resource, operation string) error {
	if err == nil {
		return nil
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr
	}

	if field, ok := uniqueViolationField(err); ok {
		return errors.Wrap(err, errors.CategoryConflict, fmt.Sprintf("%s with this %s already exists.", resource, field)).
			WithTextCode(TextCodeUniqueViolation).
			WithCode(errors.CodeBadRequest).
			WithMetadata(map[string]any{
				"resource": resource,
				"field":    field,
			})
	}

	return errors.Wrap(err, errors.CategoryInternal, fmt.Sprintf("failed to %s %s", operation, resource)).
		WithCode(errors.CodeInternal)
}

func uniqueViolationField(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return "", false
		}
		if pgErr.ColumnName != "" {
			return pgErr.ColumnName, true
		}
		return fieldFromConstraint(pgErr.TableName, pgErr.ConstraintName), true
	}

	msg := err.Error()
	idx := strings.Index(msg, sqliteUniqueViolation)
	if idx < 0 {
		return "", false
	}

	// users.email or reviews.author_id, reviews.title_id
	columns := strings.TrimSpace(msg[idx+len(sqliteUniqueViolation):])
	first := strings.TrimSpace(strings.Split(columns, ",")[0])
	if end := strings.IndexAny(first, " ("); end >= 0 {
		first = first[:end]
	}
	if dot := strings.LastIndex(first, "."); dot >= 0 {
		first = first[dot+1:]
	}
	return first, true
}

// uq_<table>_<field>
func fieldFromConstraint(table, constraint string) string {
	field := strings.TrimPrefix(constraint, "uq_")
	if table != "" {
		field = strings.TrimPrefix(field, table+"_")
	}
	field = strings.TrimSuffix(field, "_key")
	if field == "" {
		return constraint
	}
	return field
}

// IsTokenExpired will check for expired tokens
func IsTokenExpired(err error) bool {
	return hasTextCode(err, TextCodeTokenExpired)
}

// IsTokenMalformed will check for tokens that failed to parse or verify
func IsTokenMalformed(err error) bool {
	return hasTextCode(err, TextCodeTokenMalformed)
}

func hasTextCode(err error, textCode string) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCode
}

// IsNotFound checks for missing records, rich or raw from the store
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.IsNotFound(err) || repository.IsRecordNotFound(err)
}
