package models

import (
	"time"

	"gorm.io/gorm"
)

// CSVUpload records one bulk-provisioning file. Completed flips to true
// after the rows are processed; completed uploads are never reprocessed.
type CSVUpload struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Title        string         `json:"title" gorm:"not null"`
	UserID       uint           `json:"user_id" gorm:"not null;index"`
	OriginalName string         `json:"original_name"`
	StoredName   string         `json:"stored_name" gorm:"not null"`
	Completed    bool           `json:"completed" gorm:"not null;default:false"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	User User `json:"user,omitempty"`
}
