package models

import (
	"time"
)

// PaymentEvent is a processed ledger webhook. The primary key is the ledger's
// own event id so redelivered events are recognised.
type PaymentEvent struct {
	ID        string    `gorm:"primary_key" json:"id"`
	Type      string    `gorm:"type:varchar(64);not null" json:"type"`
	UserID    *string   `gorm:"type:uuid;index" json:"user_id,omitempty"`
	ChargeID  string    `gorm:"index" json:"charge_id"`
	Status    string    `gorm:"type:varchar(20)" json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
