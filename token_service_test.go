package reviews_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-reviews"
)

// MockLogger implements reviews.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

func newTokenService(opts ...reviews.TokenServiceOption) *reviews.TokenServiceImpl {
	return reviews.NewTokenService("k1", []byte("test-signing-key"), "reviews", []string{"reviews-api"}, opts...)
}

func tokenUser() *reviews.User {
	return &reviews.User{ID: uuid.New(), Username: "critic", Role: reviews.RoleModerator}
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	ts := newTokenService()
	user := tokenUser()

	pair, err := ts.IssueTokenPair(user)
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)
	assert.NotEqual(t, pair.Access, pair.Refresh)

	claims, err := ts.Validate(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID())
	assert.Equal(t, user.ID.String(), claims.Subject())
	assert.Equal(t, string(reviews.RoleModerator), claims.Role())
	assert.Equal(t, reviews.TokenTypeAccess, claims.TokenType())
	assert.WithinDuration(t, time.Now().Add(reviews.DefaultAccessTokenTTL), claims.Expires(), time.Minute)

	refresh, err := ts.ValidateRefresh(pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, reviews.TokenTypeRefresh, refresh.TokenType())
}

func TestTokenService_RejectsWrongTokenType(t *testing.T) {
	ts := newTokenService()
	user := tokenUser()

	refresh, err := ts.IssueRefreshToken(user)
	require.NoError(t, err)

	_, err = ts.Validate(refresh)
	require.ErrorIs(t, err, reviews.ErrWrongTokenType)

	access, err := ts.IssueAccessToken(user)
	require.NoError(t, err)

	_, err = ts.ValidateRefresh(access)
	require.ErrorIs(t, err, reviews.ErrWrongTokenType)
}

func TestTokenService_Expired(t *testing.T) {
	past := func() time.Time { return time.Now().Add(-48 * time.Hour) }
	ts := newTokenService(reviews.WithTokenClock(past))

	token, err := ts.IssueAccessToken(tokenUser())
	require.NoError(t, err)

	_, err = ts.Validate(token)
	require.ErrorIs(t, err, reviews.ErrTokenExpired)
}

func TestTokenService_Malformed(t *testing.T) {
	logger := &MockLogger{}
	logger.On("Debug", mock.Anything, mock.Anything).Return()

	ts := newTokenService(reviews.WithTokenLogger(logger))

	_, err := ts.Validate("not.a.token")
	require.Error(t, err)
	assert.True(t, reviews.IsTokenMalformed(err))

	other := reviews.NewTokenService("k1", []byte("another-key"), "reviews", []string{"reviews-api"})
	token, err := other.IssueAccessToken(tokenUser())
	require.NoError(t, err)

	_, err = ts.Validate(token)
	require.Error(t, err)
	assert.True(t, reviews.IsTokenMalformed(err))
}

func TestTokenService_RejectsUnsignedAlgorithm(t *testing.T) {
	ts := newTokenService()

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":        uuid.NewString(),
		"token_type": "access",
		"exp":        time.Now().Add(time.Hour).Unix(),
	})
	token.Header["kid"] = "k1"
	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ts.Validate(raw)
	require.Error(t, err)
}

func TestTokenService_RetiredKeysStillVerify(t *testing.T) {
	old := reviews.NewTokenService("k0", []byte("old-key"), "reviews", []string{"reviews-api"})
	token, err := old.IssueAccessToken(tokenUser())
	require.NoError(t, err)

	rotated := newTokenService(reviews.WithRetiredSigningKeys(map[string][]byte{
		"k0": []byte("old-key"),
	}))
	_, err = rotated.Validate(token)
	require.NoError(t, err)

	withoutRetired := newTokenService()
	_, err = withoutRetired.Validate(token)
	require.Error(t, err)
}

func TestTokenService_IssueRequiresUser(t *testing.T) {
	ts := newTokenService()
	_, err := ts.IssueAccessToken(nil)
	require.Error(t, err)
	_, err = ts.IssueAccessToken(&reviews.User{})
	require.Error(t, err)
}
