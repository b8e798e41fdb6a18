package model

import (
	"time"
)

// AccountModel maps the billing columns of the users table.
type AccountModel struct {
	ID               string    `gorm:"type:uuid;primary_key"`
	Email            string    `gorm:"uniqueIndex;not null"`
	IsPremium        bool      `gorm:"not null"`
	StripeCustomerID *string   `gorm:"uniqueIndex"`
	UpdatedAt        time.Time
}

func (AccountModel) TableName() string {
	return "users"
}

type PaymentEventModel struct {
	ID        string    `gorm:"primary_key"`
	Type      string    `gorm:"type:varchar(64);not null"`
	UserID    *string   `gorm:"type:uuid;index"`
	ChargeID  string    `gorm:"index"`
	Status    string    `gorm:"type:varchar(20)"`
	CreatedAt time.Time
}

func (PaymentEventModel) TableName() string {
	return "payment_events"
}
