package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const premiumTTL = time.Hour

// PremiumCache remembers accounts known to be premium under user:<id>:premium.
// The tier never goes back to free, so only the premium state is cached and a
// miss always falls through to the database.
type PremiumCache interface {
	IsPremium(ctx context.Context, userID string) bool
	MarkPremium(ctx context.Context, userID string) error
}

type redisPremiumCache struct {
	client *redis.Client
}

func NewPremiumCache(client *redis.Client) PremiumCache {
	if client == nil {
		return noopCache{}
	}
	return &redisPremiumCache{client: client}
}

func premiumKey(userID string) string {
	return fmt.Sprintf("user:%s:premium", userID)
}

func (c *redisPremiumCache) IsPremium(ctx context.Context, userID string) bool {
	val, err := c.client.Get(ctx, premiumKey(userID)).Result()
	return err == nil && val == "1"
}

func (c *redisPremiumCache) MarkPremium(ctx context.Context, userID string) error {
	return c.client.Set(ctx, premiumKey(userID), "1", premiumTTL).Err()
}

type noopCache struct{}

func (noopCache) IsPremium(context.Context, string) bool    { return false }
func (noopCache) MarkPremium(context.Context, string) error { return nil }
