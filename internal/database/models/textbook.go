package models

import (
	"time"

	"github.com/google/uuid"
)

// Textbook represents one logical document set, grouping all PDF files that
// live under the same top-level folder beneath the configured Dropbox root.
// Textbooks are created by the sync engine when it first sees a file under a
// previously-unseen folder; the engine never deletes them.
type Textbook struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name        string    `gorm:"not null;uniqueIndex" json:"name"`
	DropboxPath string    `gorm:"not null" json:"dropbox_path"`
	ClickCount  int64     `gorm:"not null;default:0" json:"click_count"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	Files []File `gorm:"foreignKey:TextbookID" json:"files,omitempty"`
}
