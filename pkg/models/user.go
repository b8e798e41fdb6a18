package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID               string    `gorm:"type:uuid;primary_key" json:"id"`
	Name             string    `gorm:"not null" json:"name"`
	Email            string    `gorm:"uniqueIndex;not null" json:"email"`
	Password         string    `gorm:"not null" json:"-"`
	IsPremium        bool      `gorm:"default:false" json:"is_premium"`
	StripeCustomerID *string   `gorm:"uniqueIndex" json:"stripe_customer_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
