package reviews

import (
	"context"

	"github.com/google/uuid"
)

// Actor is the principal performing an operation. The zero value is
// the anonymous actor.
type Actor struct {
	user *User
}

// Anonymous returns an actor with no identity
func Anonymous() Actor {
	return Actor{}
}

// ActorFromUser wraps an authenticated user. A nil user is anonymous.
func ActorFromUser(user *User) Actor {
	return Actor{user: user}
}

func (a Actor) IsAuthenticated() bool {
	return a.user != nil
}

func (a Actor) IsAdmin() bool {
	return a.user.IsAdmin()
}

func (a Actor) IsModerator() bool {
	return a.user.IsModerator()
}

// ID returns uuid.Nil for anonymous actors
func (a Actor) ID() uuid.UUID {
	if a.user == nil {
		return uuid.Nil
	}
	return a.user.ID
}

// User returns the underlying record, nil for anonymous actors
func (a Actor) User() *User {
	return a.user
}

// IsAuthorOf reports whether the actor owns the object. Anonymous
// actors own nothing.
func (a Actor) IsAuthorOf(object Authored) bool {
	if a.user == nil || object == nil {
		return false
	}
	return object.GetAuthorID() == a.user.ID
}

var actorCtxKey = &contextKey{"actor"}

type contextKey struct {
	name string
}

// WithActorContext sets the Actor in the given context
func WithActorContext(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey, actor)
}

// ActorFromContext returns the actor stored in ctx or the anonymous actor
func ActorFromContext(ctx context.Context) Actor {
	if ctx == nil {
		return Anonymous()
	}
	actor, ok := ctx.Value(actorCtxKey).(Actor)
	if !ok {
		return Anonymous()
	}
	return actor
}
