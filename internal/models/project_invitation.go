package models

// ProjectInvitation is a pending, email-addressed offer to join a project.
// It only ever exists in the pending state: accepting creates a membership
// and deletes the row, declining just deletes the row. The invitee does not
// need to be a registered user yet. The unique index rejects a second
// pending invitation for the same address on the same project.
type ProjectInvitation struct {
	BaseModel

	ProjectID   uint   `gorm:"not null;uniqueIndex:idx_project_invitee"`
	Email       string `gorm:"not null;uniqueIndex:idx_project_invitee"`
	InvitedByID uint   `gorm:"not null;index"`

	// Relationships
	Project   Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	InvitedBy User    `gorm:"foreignKey:InvitedByID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
