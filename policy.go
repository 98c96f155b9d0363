package reviews

import "strings"

// Method is the verb of the requested operation
type Method string

const (
	MethodGet     Method = "GET"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodPatch   Method = "PATCH"
	MethodDelete  Method = "DELETE"
)

// ParseMethod normalizes an HTTP verb
func ParseMethod(s string) Method {
	return Method(strings.ToUpper(strings.TrimSpace(s)))
}

// IsSafe reports read only methods
func (m Method) IsSafe() bool {
	switch m {
	case MethodGet, MethodHead, MethodOptions:
		return true
	default:
		return false
	}
}

// Policy decides whether an actor may perform a method, first on the
// resource collection and then on a concrete object.
type Policy interface {
	HasPermission(actor Actor, method Method) bool
	HasObjectPermission(actor Actor, method Method, object any) bool
	Message() string
}

// Authorize evaluates policy for actor. The object check runs only when
// object is not nil and the action check passed. Anonymous actors get an
// authentication error, authenticated actors a permission error.
func Authorize(actor Actor, method Method, object any, policy Policy) error {
	if policy == nil {
		return nil
	}

	if !policy.HasPermission(actor, method) {
		return deny(actor, method, nil, policy)
	}

	if object == nil {
		return nil
	}

	if !policy.HasObjectPermission(actor, method, object) {
		return deny(actor, method, object, policy)
	}

	return nil
}

func deny(actor Actor, method Method, object any, policy Policy) error {
	if e, ok := policy.(denialExplainer); ok {
		if member := e.deniedBy(actor, method, object); member != nil {
			policy = member
		}
	}

	if !actor.IsAuthenticated() {
		return NewAuthenticationRequired(policy.Message())
	}
	return NewPermissionDenied(policy.Message())
}

// ReadOnlyOrAdmin lets anyone read and only administrators write
type ReadOnlyOrAdmin struct{}

func (ReadOnlyOrAdmin) HasPermission(actor Actor, method Method) bool {
	if method.IsSafe() {
		return true
	}
	return actor.IsAuthenticated() && actor.IsAdmin()
}

func (ReadOnlyOrAdmin) HasObjectPermission(actor Actor, method Method, _ any) bool {
	return method.IsSafe() || actor.IsAdmin()
}

func (ReadOnlyOrAdmin) Message() string {
	return MessageInsufficientRights
}

// ReadOnlyOrAdminModeratorOrAuthor lets anyone read, any authenticated
// actor create, and only staff or the author change an existing object.
type ReadOnlyOrAdminModeratorOrAuthor struct{}

func (ReadOnlyOrAdminModeratorOrAuthor) HasPermission(actor Actor, method Method) bool {
	return method.IsSafe() || actor.IsAuthenticated()
}

func (ReadOnlyOrAdminModeratorOrAuthor) HasObjectPermission(actor Actor, method Method, object any) bool {
	if method.IsSafe() {
		return true
	}

	if actor.IsAdmin() || actor.IsModerator() {
		return true
	}

	authored, ok := object.(Authored)
	if !ok {
		return false
	}
	return actor.IsAuthorOf(authored)
}

func (ReadOnlyOrAdminModeratorOrAuthor) Message() string {
	return MessageInsufficientRights
}

// RequireAdmin grants administrators only, for every method
type RequireAdmin struct{}

func (RequireAdmin) HasPermission(actor Actor, _ Method) bool {
	return actor.IsAdmin()
}

func (RequireAdmin) HasObjectPermission(actor Actor, _ Method, _ any) bool {
	return actor.IsAdmin()
}

func (RequireAdmin) Message() string {
	return MessageAccessRights
}

// RequireModerator grants moderators only, for every method
type RequireModerator struct{}

func (RequireModerator) HasPermission(actor Actor, _ Method) bool {
	return actor.IsModerator()
}

func (RequireModerator) HasObjectPermission(actor Actor, _ Method, _ any) bool {
	return actor.IsModerator()
}

func (RequireModerator) Message() string {
	return MessageAccessRights
}

// RequireAuthenticated grants any authenticated actor
type RequireAuthenticated struct{}

func (RequireAuthenticated) HasPermission(actor Actor, _ Method) bool {
	return actor.IsAuthenticated()
}

func (RequireAuthenticated) HasObjectPermission(actor Actor, _ Method, _ any) bool {
	return actor.IsAuthenticated()
}

func (RequireAuthenticated) Message() string {
	return MessageCredentialsRequired
}

// AllOf grants only when every member grants. Denials report the message
// of the first member that denied.
func AllOf(policies ...Policy) Policy {
	return allOf(policies)
}

type allOf []Policy

func (p allOf) HasPermission(actor Actor, method Method) bool {
	return p.deniedBy(actor, method, nil) == nil
}

func (p allOf) HasObjectPermission(actor Actor, method Method, object any) bool {
	return p.deniedBy(actor, method, object) == nil
}

func (p allOf) Message() string {
	if len(p) > 0 {
		return p[0].Message()
	}
	return MessageInsufficientRights
}

// nil object means action level
func (p allOf) deniedBy(actor Actor, method Method, object any) Policy {
	for _, policy := range p {
		if object == nil {
			if !policy.HasPermission(actor, method) {
				return policy
			}
			continue
		}
		if !policy.HasObjectPermission(actor, method, object) {
			return policy
		}
	}
	return nil
}

type denialExplainer interface {
	deniedBy(actor Actor, method Method, object any) Policy
}
