package entity

import (
	"time"

	"blogsphere/pkg/access"
)

type Post struct {
	ID          string            `json:"id"`
	AuthorID    string            `json:"author_id"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Visibility  access.Visibility `json:"visibility"`
	AuthorEmail string            `json:"author_email,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (p *Post) AccessPost() access.Post {
	return access.Post{ID: p.ID, AuthorID: p.AuthorID, Visibility: p.Visibility}
}

// Author is the read-only slice of a user row the post service needs.
type Author struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	IsPremium bool   `json:"is_premium"`
}

func (a *Author) AccessUser() *access.User {
	if a == nil {
		return nil
	}
	return &access.User{ID: a.ID, IsPremium: a.IsPremium}
}

type PostImage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ObjectKey string    `json:"object_key"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}
