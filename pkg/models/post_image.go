package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostImage records an uploaded object. PostID stays empty until the image
// is referenced by a saved post.
type PostImage struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	PostID    *string   `gorm:"type:uuid;index" json:"post_id,omitempty"`
	ObjectKey string    `gorm:"not null" json:"object_key"`
	ImageURL  string    `gorm:"not null" json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

func (pi *PostImage) BeforeCreate(tx *gorm.DB) error {
	if pi.ID == "" {
		pi.ID = uuid.New().String()
	}
	return nil
}
