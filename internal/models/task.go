package models

import (
	"time"

	"github.com/taskdeck-dev/taskdeck/internal/types"
)

type Task struct {
	BaseModel

	ProjectID    uint             `gorm:"not null;index"`
	Title        string           `gorm:"not null"`
	Description  string           `gorm:"type:text"`
	Deadline     time.Time        `gorm:"not null"`
	Status       types.TaskStatus `gorm:"not null;default:'TODO'"`
	AssignedToID *uint            `gorm:"index"`

	// Relationships
	Project     Project      `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	AssignedTo  *User        `gorm:"foreignKey:AssignedToID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
	Comments    []Comment    `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Attachments []Attachment `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
