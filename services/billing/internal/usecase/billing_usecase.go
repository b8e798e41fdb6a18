package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blogsphere/pkg/access"
	"blogsphere/pkg/apperrors"
	"blogsphere/pkg/ledger"
	"blogsphere/pkg/logger"
	"blogsphere/services/billing/internal/entity"
	"blogsphere/services/billing/internal/repo/cache"
	"blogsphere/services/billing/internal/repo/persistent"
)

// Settings carries the upgrade offer shown to free accounts and the zone
// payment timestamps are rendered in.
type Settings struct {
	CheckoutURL string
	PriceLabel  string
	Location    *time.Location
}

type BillingUseCase interface {
	GetUpgradeInfo(ctx context.Context, userID string) (*entity.UpgradeInfo, error)
	Reconcile(ctx context.Context, userID string) (*entity.ReconcileResult, error)
	GetPaymentHistory(ctx context.Context, userID string) ([]access.PaymentRow, error)
	HandleChargeEvent(ctx context.Context, ev ledger.ChargeEvent) error
}

type billingUseCase struct {
	billingRepo     persistent.BillingRepository
	premiumCache    cache.PremiumCache
	entitlementFeed cache.EntitlementFeed
	ledger          ledger.Ledger
	settings        Settings
	logger          *logger.Logger
}

func NewBillingUseCase(
	billingRepo persistent.BillingRepository,
	premiumCache cache.PremiumCache,
	entitlementFeed cache.EntitlementFeed,
	paymentLedger ledger.Ledger,
	settings Settings,
	logger *logger.Logger,
) BillingUseCase {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &billingUseCase{
		billingRepo:     billingRepo,
		premiumCache:    premiumCache,
		entitlementFeed: entitlementFeed,
		ledger:          paymentLedger,
		settings:        settings,
		logger:          logger,
	}
}

func (uc *billingUseCase) loadAccount(ctx context.Context, userID string) (*entity.Account, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	account, err := uc.billingRepo.GetAccount(ctx, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		// a valid token for a deleted account
		return nil, apperrors.ErrUnauthenticated
	}
	return account, err
}

func (uc *billingUseCase) GetUpgradeInfo(ctx context.Context, userID string) (*entity.UpgradeInfo, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	info := &entity.UpgradeInfo{Price: uc.settings.PriceLabel}

	if uc.premiumCache.IsPremium(ctx, userID) {
		info.IsPremium = true
		return info, nil
	}

	account, err := uc.loadAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	info.IsPremium = account.IsPremium
	if account.IsPremium {
		uc.rememberPremium(ctx, userID)
	} else {
		info.CheckoutURL = uc.settings.CheckoutURL
	}
	return info, nil
}

// fetchAndApply pulls the account's charges and writes back a promotion when
// the ledger shows a succeeded charge the store does not know about yet.
func (uc *billingUseCase) fetchAndApply(ctx context.Context, account *entity.Account) ([]access.Charge, bool, error) {
	charges, err := uc.ledger.ListCharges(ctx, account.LedgerCustomer())
	if err != nil {
		uc.logger.Error("Failed to list charges for %s: %v", account.ID, err)
		return nil, false, err
	}

	next, changed := access.ApplyEntitlement(account.IsPremium, charges)
	if changed {
		if err := uc.billingRepo.PromoteToPremium(ctx, account.ID); err != nil {
			uc.logger.Error("Failed to promote %s to premium: %v", account.ID, err)
			return nil, false, err
		}
		uc.logger.Info("Account %s promoted to premium", account.ID)
		uc.announcePremium(ctx, account.ID)
	}
	account.IsPremium = next
	if next {
		uc.rememberPremium(ctx, account.ID)
	}
	return charges, changed, nil
}

func (uc *billingUseCase) rememberPremium(ctx context.Context, userID string) {
	if err := uc.premiumCache.MarkPremium(ctx, userID); err != nil {
		uc.logger.Warn("Failed to cache premium state for %s: %v", userID, err)
	}
}

func (uc *billingUseCase) announcePremium(ctx context.Context, userID string) {
	if err := uc.entitlementFeed.PublishPremium(ctx, userID); err != nil {
		uc.logger.Warn("Failed to announce premium for %s: %v", userID, err)
	}
}

func (uc *billingUseCase) Reconcile(ctx context.Context, userID string) (*entity.ReconcileResult, error) {
	account, err := uc.loadAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	_, changed, err := uc.fetchAndApply(ctx, account)
	if err != nil {
		return nil, err
	}
	return &entity.ReconcileResult{IsPremium: account.IsPremium, Changed: changed}, nil
}

// GetPaymentHistory is reserved for premium accounts.
func (uc *billingUseCase) GetPaymentHistory(ctx context.Context, userID string) ([]access.PaymentRow, error) {
	account, err := uc.loadAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !account.IsPremium {
		return nil, fmt.Errorf("%w: payment history requires premium", apperrors.ErrForbidden)
	}

	charges, _, err := uc.fetchAndApply(ctx, account)
	if err != nil {
		return nil, err
	}
	return access.FormatPaymentHistory(charges, uc.settings.Location), nil
}

// resolveAccount finds the account a charge belongs to: the user_id charge
// metadata first, then the processor customer id.
func (uc *billingUseCase) resolveAccount(ctx context.Context, ev ledger.ChargeEvent) (*entity.Account, error) {
	if ev.UserID != "" {
		account, err := uc.billingRepo.GetAccount(ctx, ev.UserID)
		if err == nil || !errors.Is(err, apperrors.ErrNotFound) {
			return account, err
		}
	}
	if ev.CustomerID != "" {
		return uc.billingRepo.FindByStripeCustomer(ctx, ev.CustomerID)
	}
	return nil, apperrors.ErrNotFound
}

// HandleChargeEvent applies a verified webhook event. Returning an error asks
// the queue to redeliver, so events for unknown accounts are recorded and
// dropped instead.
func (uc *billingUseCase) HandleChargeEvent(ctx context.Context, ev ledger.ChargeEvent) error {
	record := &entity.PaymentEvent{
		ID:       ev.EventID,
		Type:     ev.Type,
		ChargeID: ev.ChargeID,
		Status:   string(ev.Status),
	}

	account, err := uc.resolveAccount(ctx, ev)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		uc.logger.Warn("Charge event %s matches no account (user=%q customer=%q)", ev.EventID, ev.UserID, ev.CustomerID)
	case err != nil:
		return err
	default:
		record.UserID = account.ID
		if ev.CustomerID != "" && account.StripeCustomerID == "" {
			if err := uc.billingRepo.LinkStripeCustomer(ctx, account.ID, ev.CustomerID); err != nil {
				uc.logger.Warn("Failed to link customer %s to %s: %v", ev.CustomerID, account.ID, err)
			}
		}

		next, changed := access.ApplyEntitlement(account.IsPremium, []access.Charge{ev.Charge()})
		if changed {
			if err := uc.billingRepo.PromoteToPremium(ctx, account.ID); err != nil {
				uc.logger.Error("Failed to promote %s to premium: %v", account.ID, err)
				return err
			}
			uc.logger.Info("Account %s promoted to premium by charge %s", account.ID, ev.ChargeID)
			uc.announcePremium(ctx, account.ID)
		}
		if next {
			uc.rememberPremium(ctx, account.ID)
		}
	}

	first, err := uc.billingRepo.RecordEvent(ctx, record)
	if err != nil {
		return err
	}
	if !first {
		uc.logger.Info("Charge event %s was already processed", ev.EventID)
	}
	return nil
}
