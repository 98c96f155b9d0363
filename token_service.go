package reviews

import (
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	DefaultAccessTokenTTL  = 24 * time.Hour
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
	DefaultSigningKeyID    = "primary"
)

// TokenPair is handed out on successful code redemption
type TokenPair struct {
	Access  string `json:"token"`
	Refresh string `json:"refresh"`
}

// TokenService issues and validates bearer tokens
type TokenService interface {
	IssueAccessToken(user *User) (string, error)
	IssueRefreshToken(user *User) (string, error)
	IssueTokenPair(user *User) (TokenPair, error)
	// Validate accepts access tokens only
	Validate(tokenString string) (AuthClaims, error)
	ValidateRefresh(tokenString string) (AuthClaims, error)
}

// TokenServiceImpl signs HS256 tokens with the active key and verifies
// tokens signed by the active key or any retired key, selected by kid.
type TokenServiceImpl struct {
	keyID      string
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	keys       *keyfunc.JWKS
	retired    map[string][]byte
	logger     Logger
	now        func() time.Time
}

var _ TokenService = (*TokenServiceImpl)(nil)

// TokenServiceOption configures the token service
type TokenServiceOption func(*TokenServiceImpl)

// WithTokenTTL overrides token lifetimes, zero keeps the default
func WithTokenTTL(access, refresh time.Duration) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if access > 0 {
			ts.accessTTL = access
		}
		if refresh > 0 {
			ts.refreshTTL = refresh
		}
	}
}

// WithRetiredSigningKeys keeps verifying tokens signed by rotated keys
func WithRetiredSigningKeys(keys map[string][]byte) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		for kid, key := range keys {
			if kid == "" || len(key) == 0 {
				continue
			}
			ts.retired[kid] = key
		}
	}
}

// WithTokenLogger sets the logger
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// WithTokenClock replaces time.Now when issuing tokens
func WithTokenClock(now func() time.Time) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if now != nil {
			ts.now = now
		}
	}
}

// NewTokenService creates a new TokenService instance
func NewTokenService(keyID string, signingKey []byte, issuer string, audience []string, opts ...TokenServiceOption) *TokenServiceImpl {
	if keyID == "" {
		keyID = DefaultSigningKeyID
	}

	ts := &TokenServiceImpl{
		keyID:      keyID,
		signingKey: signingKey,
		accessTTL:  DefaultAccessTokenTTL,
		refreshTTL: DefaultRefreshTokenTTL,
		issuer:     issuer,
		audience:   jwt.ClaimStrings(audience),
		retired:    map[string][]byte{},
		logger:     defLogger{},
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	given := make(map[string]keyfunc.GivenKey, len(ts.retired)+1)
	for kid, key := range ts.retired {
		given[kid] = keyfunc.NewGivenCustom(key, keyfunc.GivenKeyOptions{
			Algorithm: jwt.SigningMethodHS256.Alg(),
		})
	}
	given[ts.keyID] = keyfunc.NewGivenCustom(ts.signingKey, keyfunc.GivenKeyOptions{
		Algorithm: jwt.SigningMethodHS256.Alg(),
	})
	ts.keys = keyfunc.NewGiven(given)

	return ts
}

func (ts *TokenServiceImpl) IssueAccessToken(user *User) (string, error) {
	return ts.issue(user, TokenTypeAccess, ts.accessTTL)
}

func (ts *TokenServiceImpl) IssueRefreshToken(user *User) (string, error) {
	return ts.issue(user, TokenTypeRefresh, ts.refreshTTL)
}

func (ts *TokenServiceImpl) IssueTokenPair(user *User) (TokenPair, error) {
	access, err := ts.IssueAccessToken(user)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := ts.IssueRefreshToken(user)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (ts *TokenServiceImpl) issue(user *User, tokenType TokenType, ttl time.Duration) (string, error) {
	if user == nil || user.ID == uuid.Nil {
		return "", errors.New("cannot issue token without user", errors.CategoryInternal)
	}

	now := ts.now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   user.ID.String(),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UID:      user.ID.String(),
		UserRole: string(user.Role),
		Type:     tokenType,
	}

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary JWT claims using the active signing key
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = ts.keyID

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates an access token
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	return ts.validate(tokenString, TokenTypeAccess)
}

// ValidateRefresh parses and validates a refresh token
func (ts *TokenServiceImpl) ValidateRefresh(tokenString string) (AuthClaims, error) {
	return ts.validate(tokenString, TokenTypeRefresh)
}

func (ts *TokenServiceImpl) validate(tokenString string, expected TokenType) (AuthClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, ts.keys.Keyfunc, parserOptions...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		ts.logger.Debug("token validation failed", "error", err)
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode).
			WithCode(ErrTokenMalformed.Code)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		ts.logger.Error("token service could not decode or validate claims")
		return nil, ErrTokenMalformed
	}

	if claims.Type != expected {
		return nil, ErrWrongTokenType
	}

	return claims, nil
}
