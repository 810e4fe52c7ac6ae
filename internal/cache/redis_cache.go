package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/forfuturefoundation2024-hash/AIVEX/internal/config"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

const dialTimeout = 5 * time.Second

// RedisProductCache stores product detail pages as JSON strings with a TTL.
type RedisProductCache struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisProductCache dials Redis and fails fast when it is unreachable.
func NewRedisProductCache(cfg config.RedisConfig, prefix string) (*RedisProductCache, error) {
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:       []string{cfg.Address},
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("product cache: ping %s: %w", cfg.Address, err)
	}
	return NewRedisProductCacheWithClient(rdb, prefix), nil
}

// NewRedisProductCacheWithClient wraps an existing client.
func NewRedisProductCacheWithClient(rdb redis.UniversalClient, prefix string) *RedisProductCache {
	return &RedisProductCache{rdb: rdb, prefix: prefix}
}

func (c *RedisProductCache) BuildKeyByID(productID int64) string {
	return fmt.Sprintf("%s:id:%d", c.prefix, productID)
}

func (c *RedisProductCache) Get(ctx context.Context, key string) (*domain.ProductDetail, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrCacheMiss
	case err != nil:
		return nil, fmt.Errorf("product cache: get %s: %w", key, err)
	}

	detail := new(domain.ProductDetail)
	if err := json.Unmarshal(raw, detail); err != nil {
		// An unreadable entry is as good as absent; drop it.
		c.rdb.Del(ctx, key)
		return nil, ErrCacheMiss
	}
	return detail, nil
}

func (c *RedisProductCache) Set(ctx context.Context, key string, detail *domain.ProductDetail, ttl time.Duration) error {
	raw, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("product cache: encode %s: %w", key, err)
	}
	return c.rdb.Set(ctx, key, raw, ttl).Err()
}

// Delete removes keys; a missing key is not an error.
func (c *RedisProductCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *RedisProductCache) Close() error {
	return c.rdb.Close()
}
