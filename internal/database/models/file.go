package models

import (
	"time"

	"github.com/google/uuid"
)

// File represents one remote PDF in the catalog. DropboxPath (the lowercased
// remote path) is the unique key for upsert matching: re-syncing the same
// remote file updates the existing row instead of creating a duplicate.
// Files are never hard-deleted; when the remote store reports the file gone
// the row is marked inactive.
type File struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TextbookID uuid.UUID `gorm:"type:uuid;not null;index" json:"textbook_id"`

	Name     string `gorm:"not null" json:"name"`
	FileType string `gorm:"not null;default:'pdf'" json:"file_type"`

	// Remote-derived fields, owned exclusively by the sync engine.
	DropboxPath   string     `gorm:"not null;uniqueIndex" json:"dropbox_path"`
	DropboxFileID string     `gorm:"index" json:"dropbox_file_id"`
	DropboxRev    string     `json:"dropbox_rev"`
	FileSize      int64      `json:"file_size"`
	LastModified  *time.Time `json:"last_modified,omitempty"`
	IsActive      bool       `gorm:"not null;default:true;index" json:"is_active"`

	// ClickCount is owned by the click-tracking endpoints, never written by
	// the sync engine.
	ClickCount int64 `gorm:"not null;default:0" json:"click_count"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	Textbook *Textbook `gorm:"foreignKey:TextbookID" json:"textbook,omitempty"`
}

// FileClick records one click event on a file.
type FileClick struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FileID    uuid.UUID `gorm:"type:uuid;not null;index" json:"file_id"`
	UserIP    string    `json:"user_ip,omitempty"`
	ClickedAt time.Time `gorm:"not null" json:"clicked_at"`
}
