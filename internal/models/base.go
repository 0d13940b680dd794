package models

import "time"

// BaseModel is gorm.Model without soft-delete bookkeeping. Rows here are
// removed for real: membership uniqueness and invitation resolution both
// depend on deleted rows actually being gone.
type BaseModel struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
