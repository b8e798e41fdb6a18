package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostModel struct {
	ID         string    `gorm:"type:uuid;primary_key" json:"id"`
	UserID     string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Title      string    `gorm:"type:varchar(255);not null" json:"title"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Visibility string    `gorm:"type:varchar(10);not null;index" json:"visibility"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (PostModel) TableName() string {
	return "posts"
}

func (p *PostModel) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// AuthorModel maps the columns of users that posts rely on. The auth service
// owns the table.
type AuthorModel struct {
	ID        string `gorm:"type:uuid;primary_key"`
	Email     string
	IsPremium bool
}

func (AuthorModel) TableName() string {
	return "users"
}

type PostImageModel struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	PostID    *string   `gorm:"type:uuid;index" json:"post_id"`
	ObjectKey string    `gorm:"type:varchar(500);not null" json:"object_key"`
	ImageURL  string    `gorm:"type:varchar(500);not null" json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

func (PostImageModel) TableName() string {
	return "post_images"
}

func (pi *PostImageModel) BeforeCreate(tx *gorm.DB) error {
	if pi.ID == "" {
		pi.ID = uuid.New().String()
	}
	return nil
}
