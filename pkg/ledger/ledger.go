// Package ledger reads payment records from the external payment processor.
// The processor is the source of truth for charges; this package never writes.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"blogsphere/pkg/access"
	"blogsphere/pkg/apperrors"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Ledger lists the charges recorded against a customer, newest first.
type Ledger interface {
	ListCharges(ctx context.Context, customerID string) ([]access.Charge, error)
}

type stripeLedger struct {
	api *client.API
}

func NewStripeLedger(secretKey string) Ledger {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &stripeLedger{api: api}
}

// NewStripeLedgerWithBackends is used to point the client at a custom API
// base URL (tests, stripe-mock).
func NewStripeLedgerWithBackends(secretKey string, backends *stripe.Backends) Ledger {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &stripeLedger{api: api}
}

// ListCharges accepts either a processor customer id ("cus_...") or one of our
// own user ids. The latter is looked up through the user_id charge metadata
// written by the checkout link.
func (l *stripeLedger) ListCharges(ctx context.Context, customerID string) ([]access.Charge, error) {
	if customerID == "" {
		return []access.Charge{}, nil
	}

	var (
		charges []access.Charge
		err     error
	)
	if strings.HasPrefix(customerID, "cus_") {
		charges, err = l.listByCustomer(ctx, customerID)
	} else {
		charges, err = l.searchByUser(ctx, customerID)
	}
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return []access.Charge{}, nil
		}
		return nil, fmt.Errorf("%w: list charges: %v", apperrors.ErrUpstreamUnavailable, err)
	}
	return charges, nil
}

func (l *stripeLedger) listByCustomer(ctx context.Context, customerID string) ([]access.Charge, error) {
	params := &stripe.ChargeListParams{
		ListParams: stripe.ListParams{Context: ctx},
		Customer:   stripe.String(customerID),
	}
	params.Limit = stripe.Int64(100)

	charges := []access.Charge{}
	iter := l.api.Charges.List(params)
	for iter.Next() {
		charges = append(charges, toCharge(iter.Charge()))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return charges, nil
}

func (l *stripeLedger) searchByUser(ctx context.Context, userID string) ([]access.Charge, error) {
	params := &stripe.ChargeSearchParams{
		SearchParams: stripe.SearchParams{
			Context: ctx,
			Query:   fmt.Sprintf("metadata['user_id']:'%s'", strings.ReplaceAll(userID, "'", "")),
		},
	}

	charges := []access.Charge{}
	iter := l.api.Charges.Search(params)
	for iter.Next() {
		charges = append(charges, toCharge(iter.Charge()))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return charges, nil
}

func toCharge(c *stripe.Charge) access.Charge {
	charge := access.Charge{
		ID:       c.ID,
		Amount:   c.Amount,
		Currency: string(c.Currency),
		Status:   access.ChargeStatus(c.Status),
		Created:  c.Created,
	}
	if c.Metadata != nil {
		charge.UserID = c.Metadata["user_id"]
	}
	return charge
}
