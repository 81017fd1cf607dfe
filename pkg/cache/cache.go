// Package cache is a typed facade over a key-value store, providing the
// SETEX/GET/DEL/INCR-with-TTL primitives the Auth and delivery engines
// build their session, blacklist, and rate-limit semantics on top of.
package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/fkheinstein204/saasforge/pkg/errors"
)

// Client is the Cache Client. All operations are best-effort: the
// caller's invariants do not rely on durability beyond the store's own
// guarantees, and every failure surfaces as ErrCacheUnavailable.
type Client struct {
	rdb *redis.Client
}

// ErrCacheUnavailable wraps any connection-level failure from the store.
const ErrCacheUnavailable errors.ErrorCode = "CACHE_UNAVAILABLE"

func New(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

func wrap(err error) error {
	if err == nil || err == redis.Nil {
		return err
	}
	return errors.Wrap(err, ErrCacheUnavailable, "cache unavailable")
}

// SetWithTTL overwrites key unconditionally with the given TTL.
func (c *Client) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	return wrap(c.rdb.Set(ctx, key, value, ttl).Err())
}

// Get returns the value and whether it was present.
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrap(err)
	}
	return val, true, nil
}

// Delete removes key; a missing key is not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	return wrap(c.rdb.Del(ctx, key).Err())
}

// IncrementWithTTL atomically increments key. If the post-increment value
// is 1 (i.e. this call created the counter), the window TTL is applied.
func (c *Client) IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, wrap(err)
	}
	if n == 1 {
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			return n, wrap(err)
		}
	}
	return n, nil
}

// BlacklistJti marks an access-token jti as revoked for its remaining lifetime.
func (c *Client) BlacklistJti(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.SetWithTTL(ctx, blacklistKey(jti), "1", ttl)
}

// IsJtiBlacklisted reports whether jti has been revoked.
func (c *Client) IsJtiBlacklisted(ctx context.Context, jti string) (bool, error) {
	_, ok, err := c.Get(ctx, blacklistKey(jti))
	return ok, err
}

func blacklistKey(jti string) string {
	return "blacklist:" + jti
}
