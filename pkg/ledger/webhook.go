package ledger

import (
	"encoding/json"
	"fmt"
	"strings"

	"blogsphere/pkg/access"
	"blogsphere/pkg/apperrors"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// ChargeEvent is the part of a processor webhook the billing worker needs.
type ChargeEvent struct {
	EventID    string              `json:"event_id"`
	Type       string              `json:"type"`
	ChargeID   string              `json:"charge_id"`
	CustomerID string              `json:"customer_id,omitempty"`
	UserID     string              `json:"user_id,omitempty"`
	Status     access.ChargeStatus `json:"status"`
	Amount     int64               `json:"amount"`
	Currency   string              `json:"currency"`
	Created    int64               `json:"created"`
}

// Charge converts the event back to the engine's charge record.
func (e ChargeEvent) Charge() access.Charge {
	return access.Charge{
		ID:       e.ChargeID,
		Amount:   e.Amount,
		Currency: e.Currency,
		Status:   e.Status,
		Created:  e.Created,
		UserID:   e.UserID,
	}
}

// ParseWebhook verifies the signature header and decodes charge.* events.
// Other event types return (nil, nil) so callers can acknowledge and move on.
func ParseWebhook(payload []byte, sigHeader, secret string) (*ChargeEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: webhook signature: %v", apperrors.ErrValidation, err)
	}

	if !strings.HasPrefix(string(event.Type), "charge.") || event.Data == nil {
		return nil, nil
	}

	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		return nil, fmt.Errorf("%w: decode charge: %v", apperrors.ErrValidation, err)
	}

	ev := &ChargeEvent{
		EventID:  event.ID,
		Type:     string(event.Type),
		ChargeID: charge.ID,
		Status:   access.ChargeStatus(charge.Status),
		Amount:   charge.Amount,
		Currency: string(charge.Currency),
		Created:  charge.Created,
	}
	if charge.Customer != nil {
		ev.CustomerID = charge.Customer.ID
	}
	if charge.Metadata != nil {
		ev.UserID = charge.Metadata["user_id"]
	}
	return ev, nil
}
