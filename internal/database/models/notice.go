package models

import (
	"time"

	"github.com/google/uuid"
)

// Notice is an announcement shown to library visitors.
type Notice struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title    string    `gorm:"not null" json:"title"`
	Content  string    `json:"content"`
	IsActive bool      `gorm:"not null;default:true;index" json:"is_active"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TextbookRequest records a visitor asking for a textbook the library does
// not carry yet. Repeated requests for the same name bump RequestCount.
type TextbookRequest struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TextbookName string    `gorm:"not null;uniqueIndex" json:"textbook_name"`
	RequestCount int64     `gorm:"not null;default:1" json:"request_count"`
	UserIP       string    `json:"user_ip,omitempty"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}
