package models

import "time"

// Document upload status values.
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusSuccess    = "SUCCESS"
	StatusFailed     = "FAILED"
)

// Document is a stored file a user can chat about. Rows are created when the
// upload collaborator registers a file; after that only Status changes.
type Document struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"size:64;not null;index"`
	Name      string `gorm:"size:256;not null"`
	SourceURL string `gorm:"size:512;not null"`
	Status    string `gorm:"size:16;default:PENDING;index"`
	PageCount int    `gorm:"default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
