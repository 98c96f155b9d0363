package reviews_test

import (
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-reviews"
)

func newActor(role reviews.UserRole) reviews.Actor {
	return reviews.ActorFromUser(&reviews.User{
		ID:       uuid.New(),
		Username: string(role),
		Role:     role,
	})
}

// countingPolicy records calls to prove object checks never run after an
// action level denial
type countingPolicy struct {
	allowAction  bool
	objectChecks int
}

func (p *countingPolicy) HasPermission(reviews.Actor, reviews.Method) bool {
	return p.allowAction
}

func (p *countingPolicy) HasObjectPermission(reviews.Actor, reviews.Method, any) bool {
	p.objectChecks++
	return true
}

func (p *countingPolicy) Message() string { return "nope" }

func TestMethodIsSafe(t *testing.T) {
	assert.True(t, reviews.MethodGet.IsSafe())
	assert.True(t, reviews.MethodHead.IsSafe())
	assert.True(t, reviews.ParseMethod(" options ").IsSafe())
	assert.False(t, reviews.MethodPost.IsSafe())
	assert.False(t, reviews.MethodPatch.IsSafe())
	assert.False(t, reviews.MethodDelete.IsSafe())
}

func TestReadOnlyOrAdmin(t *testing.T) {
	policy := reviews.ReadOnlyOrAdmin{}

	tests := []struct {
		name   string
		actor  reviews.Actor
		method reviews.Method
		allow  bool
	}{
		{"anonymous read", reviews.Anonymous(), reviews.MethodGet, true},
		{"anonymous write", reviews.Anonymous(), reviews.MethodPost, false},
		{"user write", newActor(reviews.RoleUser), reviews.MethodPost, false},
		{"moderator write", newActor(reviews.RoleModerator), reviews.MethodDelete, false},
		{"admin write", newActor(reviews.RoleAdmin), reviews.MethodDelete, true},
		{"staff write", reviews.ActorFromUser(&reviews.User{ID: uuid.New(), Role: reviews.RoleUser, IsStaff: true}), reviews.MethodPost, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allow, policy.HasPermission(tt.actor, tt.method))
			assert.Equal(t, tt.allow, policy.HasObjectPermission(tt.actor, tt.method, &reviews.Category{}))
		})
	}
}

func TestReadOnlyOrAdminModeratorOrAuthor(t *testing.T) {
	policy := reviews.ReadOnlyOrAdminModeratorOrAuthor{}
	author := newActor(reviews.RoleUser)
	other := newActor(reviews.RoleUser)
	review := &reviews.Review{ID: uuid.New(), AuthorID: author.ID()}

	assert.True(t, policy.HasPermission(reviews.Anonymous(), reviews.MethodGet))
	assert.False(t, policy.HasPermission(reviews.Anonymous(), reviews.MethodPost))
	assert.True(t, policy.HasPermission(other, reviews.MethodPost))

	assert.True(t, policy.HasObjectPermission(other, reviews.MethodGet, review))
	assert.True(t, policy.HasObjectPermission(author, reviews.MethodPatch, review))
	assert.False(t, policy.HasObjectPermission(other, reviews.MethodPatch, review))
	assert.False(t, policy.HasObjectPermission(other, reviews.MethodDelete, review))
	assert.True(t, policy.HasObjectPermission(newActor(reviews.RoleModerator), reviews.MethodDelete, review))
	assert.True(t, policy.HasObjectPermission(newActor(reviews.RoleAdmin), reviews.MethodDelete, review))

	// anonymous actors never match uuid.Nil authors
	orphan := &reviews.Comment{AuthorID: uuid.Nil}
	assert.False(t, policy.HasObjectPermission(reviews.Anonymous(), reviews.MethodDelete, orphan))
}

func TestRolePolicies(t *testing.T) {
	admin := newActor(reviews.RoleAdmin)
	moderator := newActor(reviews.RoleModerator)
	user := newActor(reviews.RoleUser)

	assert.True(t, reviews.RequireAdmin{}.HasPermission(admin, reviews.MethodGet))
	assert.False(t, reviews.RequireAdmin{}.HasPermission(moderator, reviews.MethodGet))
	assert.False(t, reviews.RequireAdmin{}.HasPermission(reviews.Anonymous(), reviews.MethodGet))

	assert.True(t, reviews.RequireModerator{}.HasPermission(moderator, reviews.MethodGet))
	assert.False(t, reviews.RequireModerator{}.HasPermission(admin, reviews.MethodGet))

	assert.True(t, reviews.RequireAuthenticated{}.HasPermission(user, reviews.MethodPatch))
	assert.False(t, reviews.RequireAuthenticated{}.HasPermission(reviews.Anonymous(), reviews.MethodGet))
}

func TestAuthorizeSkipsObjectCheckAfterActionDenial(t *testing.T) {
	policy := &countingPolicy{allowAction: false}

	err := reviews.Authorize(newActor(reviews.RoleUser), reviews.MethodDelete, &reviews.Review{}, policy)
	require.Error(t, err)
	assert.Equal(t, 0, policy.objectChecks)

	policy.allowAction = true
	err = reviews.Authorize(newActor(reviews.RoleUser), reviews.MethodDelete, &reviews.Review{}, policy)
	require.NoError(t, err)
	assert.Equal(t, 1, policy.objectChecks)

	err = reviews.Authorize(newActor(reviews.RoleUser), reviews.MethodGet, nil, policy)
	require.NoError(t, err)
	assert.Equal(t, 1, policy.objectChecks)
}

func TestAuthorizeErrorKinds(t *testing.T) {
	review := &reviews.Review{AuthorID: uuid.New()}

	err := reviews.Authorize(reviews.Anonymous(), reviews.MethodPost, nil, reviews.ReadOnlyOrAdminModeratorOrAuthor{})
	var richErr *errors.Error
	require.True(t, errors.As(err, &richErr))
	assert.Equal(t, errors.CategoryAuth, richErr.Category)
	assert.Equal(t, errors.CodeUnauthorized, richErr.Code)

	err = reviews.Authorize(newActor(reviews.RoleUser), reviews.MethodDelete, review, reviews.ReadOnlyOrAdminModeratorOrAuthor{})
	require.True(t, errors.As(err, &richErr))
	assert.True(t, reviews.IsPermissionDenied(err))
	assert.Equal(t, errors.CodeForbidden, richErr.Code)
	assert.Equal(t, reviews.MessageInsufficientRights, richErr.Message)
}

func TestAllOfReportsFirstDenyingMember(t *testing.T) {
	policy := reviews.AllOf(reviews.RequireAuthenticated{}, reviews.RequireAdmin{})

	err := reviews.Authorize(newActor(reviews.RoleUser), reviews.MethodGet, nil, policy)
	var richErr *errors.Error
	require.True(t, errors.As(err, &richErr))
	assert.Equal(t, reviews.MessageAccessRights, richErr.Message)

	err = reviews.Authorize(reviews.Anonymous(), reviews.MethodGet, nil, policy)
	require.True(t, errors.As(err, &richErr))
	assert.Equal(t, reviews.MessageCredentialsRequired, richErr.Message)
	assert.Equal(t, errors.CodeUnauthorized, richErr.Code)

	require.NoError(t, reviews.Authorize(newActor(reviews.RoleAdmin), reviews.MethodDelete, &reviews.User{}, policy))
}
