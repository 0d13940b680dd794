package models

// Attachment is an uploaded file on a task. FileName is the name the
// uploader gave it, StoredName is the uuid-based name of the blob on disk.
type Attachment struct {
	BaseModel

	TaskID     uint   `gorm:"not null;index"`
	UploaderID uint   `gorm:"not null;index"`
	FileName   string `gorm:"not null"`
	StoredName string `gorm:"uniqueIndex;not null"`
	Size       int64  `gorm:"not null"`

	// Relationships
	Task     Task `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Uploader User `gorm:"foreignKey:UploaderID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
