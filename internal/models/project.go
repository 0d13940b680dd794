package models

import "time"

type Project struct {
	BaseModel

	Title     string    `gorm:"not null"`
	Goal      string    `gorm:"type:text"`
	StartDate time.Time `gorm:"not null"`
	EndDate   time.Time `gorm:"not null"`
	OwnerID   uint      `gorm:"not null;index"`

	// Relationships
	Owner       User                `gorm:"foreignKey:OwnerID"`
	Memberships []ProjectMembership `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Invitations []ProjectInvitation `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Tasks       []Task              `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Updates     []Update            `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
