package persistent

import (
	"context"

	"blogsphere/pkg/database"
	"blogsphere/services/billing/internal/entity"
	"blogsphere/services/billing/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BillingRepository interface {
	GetAccount(ctx context.Context, userID string) (*entity.Account, error)
	FindByStripeCustomer(ctx context.Context, customerID string) (*entity.Account, error)
	PromoteToPremium(ctx context.Context, userID string) error
	LinkStripeCustomer(ctx context.Context, userID, customerID string) error
	RecordEvent(ctx context.Context, event *entity.PaymentEvent) (bool, error)
}

type billingRepository struct {
	db *gorm.DB
}

func NewBillingRepository(db *gorm.DB) BillingRepository {
	return &billingRepository{db: db}
}

func (r *billingRepository) GetAccount(ctx context.Context, userID string) (*entity.Account, error) {
	var account model.AccountModel
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&account).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return ToAccountEntity(&account), nil
}

func (r *billingRepository) FindByStripeCustomer(ctx context.Context, customerID string) (*entity.Account, error) {
	var account model.AccountModel
	if err := r.db.WithContext(ctx).Where("stripe_customer_id = ?", customerID).First(&account).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return ToAccountEntity(&account), nil
}

// PromoteToPremium only ever sets the flag. Already premium accounts are left
// untouched, so the call is idempotent.
func (r *billingRepository) PromoteToPremium(ctx context.Context, userID string) error {
	err := r.db.WithContext(ctx).Model(&model.AccountModel{}).
		Where("id = ? AND is_premium = ?", userID, false).
		Update("is_premium", true).Error
	return database.TranslateError(err)
}

func (r *billingRepository) LinkStripeCustomer(ctx context.Context, userID, customerID string) error {
	err := r.db.WithContext(ctx).Model(&model.AccountModel{}).
		Where("id = ? AND stripe_customer_id IS NULL", userID).
		Update("stripe_customer_id", customerID).Error
	return database.TranslateError(err)
}

// RecordEvent stores a processed webhook event. It reports false when the
// event id was already recorded.
func (r *billingRepository) RecordEvent(ctx context.Context, event *entity.PaymentEvent) (bool, error) {
	eventModel := ToPaymentEventModel(event)
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(eventModel)
	if result.Error != nil {
		return false, database.TranslateError(result.Error)
	}
	return result.RowsAffected == 1, nil
}
