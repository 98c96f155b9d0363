package reviews

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes access from refresh tokens
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// AuthClaims represents structured JWT claims
type AuthClaims interface {
	Subject() string
	UserID() string
	Role() string
	TokenType() TokenType
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID      string    `json:"uid,omitempty"`
	UserRole string    `json:"role,omitempty"`
	Type     TokenType `json:"token_type,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// UserUUID parses UserID
func (c *JWTClaims) UserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID())
}

// Role returns the role at issue time
func (c *JWTClaims) Role() string {
	return c.UserRole
}

func (c *JWTClaims) TokenType() TokenType {
	return c.Type
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
