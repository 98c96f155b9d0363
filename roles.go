package reviews

// UserRole is the user's role
type UserRole string

const (
	// RoleUser can read content and manage its own reviews and comments
	RoleUser UserRole = "user"
	// RoleModerator can additionally edit or delete any review or comment
	RoleModerator UserRole = "moderator"
	// RoleAdmin can manage every resource, including users
	RoleAdmin UserRole = "admin"
)

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r UserRole) String() string {
	return string(r)
}

// GetAllRoles returns all predefined roles, least privileged first
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleUser,
		RoleModerator,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}
