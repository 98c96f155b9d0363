package reviews

import (
	stderrors "errors"
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniqueViolationField(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantField string
		wantOK    bool
	}{
		{
			name:      "sqlite single column",
			err:       stderrors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"),
			wantField: "email",
			wantOK:    true,
		},
		{
			name:      "sqlite composite takes first column",
			err:       fmt.Errorf("insert: %w", stderrors.New("UNIQUE constraint failed: reviews.author_id, reviews.title_id")),
			wantField: "author_id",
			wantOK:    true,
		},
		{
			name:      "postgres column name",
			err:       &pgconn.PgError{Code: "23505", ColumnName: "slug"},
			wantField: "slug",
			wantOK:    true,
		},
		{
			name:      "postgres constraint name",
			err:       &pgconn.PgError{Code: "23505", TableName: "categories", ConstraintName: "uq_categories_name"},
			wantField: "name",
			wantOK:    true,
		},
		{
			name:      "postgres default key name",
			err:       &pgconn.PgError{Code: "23505", TableName: "users", ConstraintName: "users_username_key"},
			wantField: "username",
			wantOK:    true,
		},
		{
			name:   "postgres other violation",
			err:    &pgconn.PgError{Code: "23503", ConstraintName: "fk_reviews_title"},
			wantOK: false,
		},
		{
			name:   "plain error",
			err:    stderrors.New("connection reset"),
			wantOK: false,
		},
		{
			name:   "nil",
			err:    nil,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field, ok := uniqueViolationField(tt.err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantField, field)
		})
	}
}

func TestStoreError(t *testing.T) {
	assert.NoError(t, storeError(nil, "category", "create"))

	err := storeError(stderrors.New("UNIQUE constraint failed: categories.slug"), "category", "create")
	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryConflict, richErr.Category)
	assert.Equal(t, TextCodeUniqueViolation, richErr.TextCode)
	assert.Equal(t, "category with this slug already exists.", richErr.Message)
	assert.True(t, IsUniqueViolation(err))

	err = storeError(stderrors.New("disk full"), "title", "update")
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryInternal, richErr.Category)
	assert.False(t, IsUniqueViolation(err))

	notFound := NewNotFound("title", nil)
	assert.Same(t, notFound, storeError(notFound, "title", "get"))
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		expired   bool
		malformed bool
		denied    bool
		notFound  bool
	}{
		{name: "expired", err: ErrTokenExpired, expired: true},
		{name: "malformed", err: fmt.Errorf("wrapped: %w", ErrTokenMalformed), malformed: true},
		{name: "permission denied", err: NewPermissionDenied(""), denied: true},
		{name: "signup disabled is an authz error", err: ErrSignupDisabled, denied: true},
		{name: "authentication is not a denial", err: NewAuthenticationRequired("")},
		{name: "not found", err: NewNotFound("review", map[string]any{"id": "x"}), notFound: true},
		{name: "legacy string", err: stderrors.New("token is expired")},
		{name: "nil", err: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, IsTokenExpired(tt.err))
			assert.Equal(t, tt.malformed, IsTokenMalformed(tt.err))
			assert.Equal(t, tt.denied, IsPermissionDenied(tt.err))
			assert.Equal(t, tt.notFound, IsNotFound(tt.err))
		})
	}
}

func TestStructuredErrorProperties(t *testing.T) {
	assert.Equal(t, goerrors.CodeBadRequest, ErrInvalidConfirmationCode.Code)
	assert.Equal(t, goerrors.CategoryAuth, ErrInvalidConfirmationCode.Category)

	ref := NewUnknownReference("genre", "noir")
	assert.Equal(t, TextCodeUnknownReference, ref.TextCode)
	assert.Equal(t, "Object with slug=noir does not exist.", ref.Message)
	assert.Equal(t, "noir", ref.Metadata["slug"])

	assert.Equal(t, MessageCredentialsRequired, NewAuthenticationRequired("").Message)
	assert.Equal(t, goerrors.CodeForbidden, NewPermissionDenied("nope").Code)
}
