package persistent

import (
	"blogsphere/services/billing/internal/entity"
	"blogsphere/services/billing/internal/model"
)

func ToAccountEntity(m *model.AccountModel) *entity.Account {
	account := &entity.Account{
		ID:        m.ID,
		Email:     m.Email,
		IsPremium: m.IsPremium,
	}
	if m.StripeCustomerID != nil {
		account.StripeCustomerID = *m.StripeCustomerID
	}
	return account
}

func ToPaymentEventModel(e *entity.PaymentEvent) *model.PaymentEventModel {
	m := &model.PaymentEventModel{
		ID:        e.ID,
		Type:      e.Type,
		ChargeID:  e.ChargeID,
		Status:    e.Status,
		CreatedAt: e.CreatedAt,
	}
	if e.UserID != "" {
		userID := e.UserID
		m.UserID = &userID
	}
	return m
}
