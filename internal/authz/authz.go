// Package authz answers "what may this user do on this project". Every
// project-scoped handler goes through RoleOf or one of the helpers before
// touching data. A user without a membership row has no role at all.
package authz

import (
	"github.com/taskdeck-dev/taskdeck/db"
	"github.com/taskdeck-dev/taskdeck/internal/models"
	"github.com/taskdeck-dev/taskdeck/internal/types"
)

// RoleOf returns the role the user holds on the project, or ok=false when
// the user has no membership there.
func RoleOf(userID uint, projectID uint) (types.Role, bool) {
	var membership models.ProjectMembership

	err := db.DB.Where("user_id = ? AND project_id = ?", userID, projectID).First(&membership).Error

	if err != nil {
		return "", false
	}

	return membership.Role, true
}

// HasRole reports whether the user holds exactly the given role on the project.
func HasRole(userID uint, projectID uint, role types.Role) bool {
	current, ok := RoleOf(userID, projectID)
	return ok && current == role
}

// IsMember reports whether the user holds any role on the project.
func IsMember(userID uint, projectID uint) bool {
	_, ok := RoleOf(userID, projectID)
	return ok
}

// IsAdmin reports whether the user may perform admin-only actions on the
// project: invite, remove or re-role members and clear the activity log.
func IsAdmin(userID uint, projectID uint) bool {
	role, ok := RoleOf(userID, projectID)
	return ok && role.CanManageMembers()
}
