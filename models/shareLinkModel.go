package models

import (
	"time"

	"github.com/google/uuid"
)

type ResourceType string

const (
	ResourceFile   ResourceType = "file"
	ResourceFolder ResourceType = "folder"
)

// ShareLink grants access to a file or folder without the visitor logging in.
// ID is a shortuuid slug used directly in the public URL. PasswordHash, when
// set, gates resolution; ExpiresAt is checked at resolve time, never swept.
type ShareLink struct {
	ID            string       `gorm:"primaryKey"`
	ResourceType  ResourceType `gorm:"type:varchar(16);not null"`
	ResourceID    uuid.UUID    `gorm:"type:uuid;not null;index"`
	CreatorID     uuid.UUID    `gorm:"type:uuid;not null;index"`
	PasswordHash  *string      `json:"-"`
	ExpiresAt     *time.Time
	AllowDownload bool `gorm:"default:true"`
	CreatedAt     time.Time

	Creator User `gorm:"foreignKey:CreatorID" json:"-"`
}
