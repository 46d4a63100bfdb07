package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// File is the metadata row for one stored object. A row created at upload-init
// has Checksum == nil (provisional); completion fills it in. DeletedAt != nil
// means the file sits in the trash; purge removes the row entirely.
type File struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index"`
	FolderID     *uuid.UUID `gorm:"type:uuid;index"`
	OriginalName string     `gorm:"not null"`
	Extension    string     `gorm:"index"`
	ContentType  string
	FileSize     int64
	StorageKey   string  `gorm:"uniqueIndex;not null"`
	Checksum     *string // nil until upload completes
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time `gorm:"index"`

	User   User    `gorm:"foreignKey:UserID" json:"-"`
	Folder *Folder `gorm:"foreignKey:FolderID" json:"-"`
}

func (f *File) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
