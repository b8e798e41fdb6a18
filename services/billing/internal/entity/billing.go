package entity

import "time"

// Account is the billing view of a user.
type Account struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	IsPremium        bool   `json:"is_premium"`
	StripeCustomerID string `json:"-"`
}

// LedgerCustomer is the id the payment ledger knows this account by.
func (a *Account) LedgerCustomer() string {
	if a.StripeCustomerID != "" {
		return a.StripeCustomerID
	}
	return a.ID
}

type PaymentEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	UserID    string    `json:"user_id,omitempty"`
	ChargeID  string    `json:"charge_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type UpgradeInfo struct {
	IsPremium   bool   `json:"is_premium"`
	CheckoutURL string `json:"checkout_url,omitempty"`
	Price       string `json:"price"`
}

type ReconcileResult struct {
	IsPremium bool `json:"is_premium"`
	Changed   bool `json:"changed"`
}
