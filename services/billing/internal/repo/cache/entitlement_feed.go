package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"blogsphere/pkg/apperrors"

	"github.com/redis/go-redis/v9"
)

// EntitlementEvent tells a connected client that its tier changed.
type EntitlementEvent struct {
	Type      string `json:"type"`
	UserID    string `json:"user_id"`
	IsPremium bool   `json:"is_premium"`
}

// EntitlementFeed fans promotions out over redis pub/sub so every billing
// instance can push them to the websockets it holds.
type EntitlementFeed interface {
	PublishPremium(ctx context.Context, userID string) error
	// Subscribe delivers events until ctx is done or stop is called.
	Subscribe(ctx context.Context, userID string) (events <-chan EntitlementEvent, stop func(), err error)
}

type redisEntitlementFeed struct {
	client *redis.Client
}

func NewEntitlementFeed(client *redis.Client) EntitlementFeed {
	if client == nil {
		return noopFeed{}
	}
	return &redisEntitlementFeed{client: client}
}

func entitlementChannel(userID string) string {
	return fmt.Sprintf("entitlement:%s", userID)
}

func (f *redisEntitlementFeed) PublishPremium(ctx context.Context, userID string) error {
	payload, err := json.Marshal(EntitlementEvent{Type: "entitlement", UserID: userID, IsPremium: true})
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, entitlementChannel(userID), payload).Err()
}

func (f *redisEntitlementFeed) Subscribe(ctx context.Context, userID string) (<-chan EntitlementEvent, func(), error) {
	pubsub := f.client.Subscribe(ctx, entitlementChannel(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("%w: subscribe: %v", apperrors.ErrUpstreamUnavailable, err)
	}

	events := make(chan EntitlementEvent)
	done := make(chan struct{})
	go func() {
		defer close(events)
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var ev EntitlementEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				case <-done:
					return
				}
			}
		}
	}()

	stop := func() {
		close(done)
		pubsub.Close()
	}
	return events, stop, nil
}

type noopFeed struct{}

func (noopFeed) PublishPremium(context.Context, string) error { return nil }

func (noopFeed) Subscribe(context.Context, string) (<-chan EntitlementEvent, func(), error) {
	return nil, nil, fmt.Errorf("%w: live updates need redis", apperrors.ErrUpstreamUnavailable)
}
