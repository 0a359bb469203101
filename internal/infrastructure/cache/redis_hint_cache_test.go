package cache

import (
	"context"
	"testing"
	"time"

	"archie-core-order-ingest/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableClient points at a port nothing listens on
func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestNewRedisHintCacheWithClient_Defaults(t *testing.T) {
	client := unreachableClient()
	defer client.Close()

	c := NewRedisHintCacheWithClient(client, "", 0)
	assert.Equal(t, DefaultHintTTL, c.ttl)
	assert.Equal(t, "order-ingest:hint:woocommerce:https://shop.example", c.Key(domain.ProviderWooCommerce, "https://shop.example"))

	custom := NewRedisHintCacheWithClient(client, "test:", time.Minute)
	assert.Equal(t, time.Minute, custom.ttl)
	assert.Equal(t, "test:shopify:demo.myshopify.com", custom.Key(domain.ProviderShopify, "demo.myshopify.com"))
}

func TestRedisHintCache_EmptyDiscriminatorSkipsRedis(t *testing.T) {
	client := unreachableClient()
	defer client.Close()
	c := NewRedisHintCacheWithClient(client, "", 0)

	id, err := c.Get(context.Background(), domain.ProviderShopify, "")
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.NoError(t, c.Set(context.Background(), domain.ProviderShopify, "", "abc"))
}

func TestRedisHintCache_ConnectionErrorsAreWrapped(t *testing.T) {
	client := unreachableClient()
	defer client.Close()
	c := NewRedisHintCacheWithClient(client, "", 0)

	_, err := c.Get(context.Background(), domain.ProviderShopify, "demo.myshopify.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get candidate hint")

	err = c.Set(context.Background(), domain.ProviderShopify, "demo.myshopify.com", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set candidate hint")
}

func TestNewRedisHintCache_Errors(t *testing.T) {
	_, err := NewRedisHintCache(context.Background(), "not a url", time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse redis url")

	_, err = NewRedisHintCache(context.Background(), "redis://127.0.0.1:1/0?dial_timeout=50ms&max_retries=-1", time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}
