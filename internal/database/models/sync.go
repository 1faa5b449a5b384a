package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sync kinds recorded in the sync log.
const (
	SyncTypeFull        = "full"
	SyncTypeIncremental = "incremental"
	SyncTypeWebhook     = "webhook"
)

// Sync outcomes recorded in the sync log.
const (
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
)

// syncCursorID is the fixed primary key of the singleton cursor row.
const syncCursorID = 1

// SyncCursor stores the single live resume point for incremental sync: the
// opaque pagination cursor issued by Dropbox at the end of the last
// successful sync pass. Exactly one row exists at a time.
type SyncCursor struct {
	ID          int       `gorm:"primary_key" json:"id"`
	CursorValue string    `gorm:"not null" json:"cursor_value"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

// NewSyncCursor builds the singleton cursor row for value.
func NewSyncCursor(value string) *SyncCursor {
	return &SyncCursor{
		ID:          syncCursorID,
		CursorValue: value,
		UpdatedAt:   time.Now().UTC(),
	}
}

// JSONMap is a jsonb-backed map column.
type JSONMap map[string]interface{}

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", value)
	}
}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// SyncLog is an immutable append-only record of one sync attempt. The engine
// writes one entry at the end of every run, success or error, and never
// mutates or deletes entries.
type SyncLog struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SyncType    string    `gorm:"not null;index" json:"sync_type"`
	DropboxPath string    `json:"dropbox_path"`
	Status      string    `gorm:"not null;index" json:"status"`
	Metadata    JSONMap   `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
}
