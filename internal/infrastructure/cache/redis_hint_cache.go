package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"archie-core-order-ingest/internal/domain"
	"archie-core-order-ingest/internal/ports"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultKeyPrefix = "order-ingest:hint:"
	DefaultHintTTL   = 24 * time.Hour
)

// RedisHintCache stores the integration id that last authenticated a store URL or shop
// domain. Entries expire after ttl so a reassigned domain does not stay pinned.
type RedisHintCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisHintCache connects to the Redis instance at url (redis://...) and pings it
func NewRedisHintCache(ctx context.Context, url string, ttl time.Duration) (*RedisHintCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisHintCacheWithClient(client, "", ttl), nil
}

// NewRedisHintCacheWithClient wraps an existing client. Empty prefix and non-positive ttl
// fall back to the defaults.
func NewRedisHintCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisHintCache {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultHintTTL
	}
	return &RedisHintCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Key returns the Redis key for a provider/discriminator pair
func (c *RedisHintCache) Key(provider domain.Provider, discriminator string) string {
	return c.keyPrefix + provider.String() + ":" + discriminator
}

// Get returns the hinted integration id, or "" when there is none
func (c *RedisHintCache) Get(ctx context.Context, provider domain.Provider, discriminator string) (string, error) {
	if discriminator == "" {
		return "", nil
	}
	id, err := c.client.Get(ctx, c.Key(provider, discriminator)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get candidate hint: %w", err)
	}
	return id, nil
}

// Set records integrationID as the hint for discriminator
func (c *RedisHintCache) Set(ctx context.Context, provider domain.Provider, discriminator string, integrationID string) error {
	if discriminator == "" {
		return nil
	}
	if err := c.client.Set(ctx, c.Key(provider, discriminator), integrationID, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set candidate hint: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisHintCache) Close() error {
	return c.client.Close()
}

var _ ports.CandidateHintCache = (*RedisHintCache)(nil)
