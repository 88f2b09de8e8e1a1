package models

import "time"

// Message is one turn in a document conversation. Messages are append-only:
// once written, text is never edited in place.
type Message struct {
	ID            string    `gorm:"primaryKey;size:36"`
	DocumentID    string    `gorm:"size:36;not null;index:idx_doc_msgs,priority:1"`
	UserID        string    `gorm:"size:64;not null"`
	IsUserMessage bool      `gorm:"not null"`
	Text          string    `gorm:"type:text;not null"`
	CreatedAt     time.Time `gorm:"index:idx_doc_msgs,priority:2"`

	Document Document `gorm:"foreignKey:DocumentID"`
}
