package ledger

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// AllowlistCache is a read-through Redis cache for the allowlist flag, the
// hottest read on the voluntary-transfer path. Entries carry a short TTL and
// are invalidated on every SetAllowed, so a compliance change is visible
// immediately on the node that made it and within the TTL everywhere else.
//
// The cache is advisory: any Redis failure falls back to the store.
type AllowlistCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAllowlistCache(client *redis.Client, ttl time.Duration) *AllowlistCache {
	return &AllowlistCache{client: client, ttl: ttl}
}

func key(holder string) string { return "allowlist:" + holder }

// Get returns (allowed, true) on a cache hit and (false, false) on a miss or
// any Redis error.
func (c *AllowlistCache) Get(ctx context.Context, holder string) (bool, bool) {
	val, err := c.client.Get(ctx, key(holder)).Result()
	if err != nil {
		return false, false
	}
	return val == "1", true
}

// Set stores the allowlist flag with the configured TTL.
func (c *AllowlistCache) Set(ctx context.Context, holder string, allowed bool) {
	val := "0"
	if allowed {
		val = "1"
	}
	_ = c.client.Set(ctx, key(holder), val, c.ttl).Err()
}

// Invalidate drops the cached flag after a compliance change.
func (c *AllowlistCache) Invalidate(ctx context.Context, holder string) {
	_ = c.client.Del(ctx, key(holder)).Err()
}
