package persistent

import (
	"blogsphere/services/auth/internal/entity"
	"blogsphere/services/auth/internal/model"
)

func ToUserEntity(m *model.UserModel) *entity.User {
	if m == nil {
		return nil
	}

	return &entity.User{
		ID:               m.ID,
		Name:             m.Name,
		Email:            m.Email,
		Password:         m.Password,
		IsPremium:        m.IsPremium,
		StripeCustomerID: m.StripeCustomerID,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func ToUserModel(e *entity.User) *model.UserModel {
	if e == nil {
		return nil
	}

	return &model.UserModel{
		ID:               e.ID,
		Name:             e.Name,
		Email:            e.Email,
		Password:         e.Password,
		IsPremium:        e.IsPremium,
		StripeCustomerID: e.StripeCustomerID,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}
