package models

import "gorm.io/datatypes"

// Update is an append-only activity-log entry on a project. Meta carries
// structured context for the entry ("action", ids) alongside the display
// text. Updates are never edited, only bulk-cleared by admins.
type Update struct {
	BaseModel

	ProjectID uint           `gorm:"not null;index"`
	UserID    uint           `gorm:"not null;index"`
	Text      string         `gorm:"type:text;not null"`
	Meta      datatypes.JSON `gorm:"type:jsonb"`

	// Relationships
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	User    User    `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
