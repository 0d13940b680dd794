package models

import "github.com/taskdeck-dev/taskdeck/internal/types"

// ProjectMembership grants one user one role on one project. The composite
// unique index is the invariant: at most one membership per (user, project).
type ProjectMembership struct {
	BaseModel

	UserID    uint       `gorm:"not null;uniqueIndex:idx_user_project"`
	ProjectID uint       `gorm:"not null;uniqueIndex:idx_user_project"`
	Role      types.Role `gorm:"not null"`

	// Relationships
	User    User    `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
