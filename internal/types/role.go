package types

import "fmt"

// Role is the permission level a user holds on a project.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
	RoleViewer Role = "VIEWER"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleMember, RoleViewer:
		return Role(s), nil
	default:
		return "", fmt.Errorf("invalid role %q", s)
	}
}

// CanManageMembers reports whether the role may invite, remove or re-role
// members and clear the activity log.
func (r Role) CanManageMembers() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleMember, RoleViewer:
		return false
	default:
		return false
	}
}
