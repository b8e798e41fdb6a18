package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Post is a blog entry. Content holds the rich-text HTML body.
type Post struct {
	ID         string      `gorm:"type:uuid;primary_key" json:"id"`
	UserID     string      `gorm:"type:uuid;not null;index" json:"user_id"`
	Title      string      `gorm:"not null" json:"title"`
	Content    string      `gorm:"type:text;not null" json:"content"`
	Visibility Visibility  `gorm:"type:varchar(10);not null;default:'public';index" json:"visibility"`
	Images     []PostImage `gorm:"foreignKey:PostID" json:"images,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
