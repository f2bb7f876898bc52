package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kindredapp/kindred-backend/internal/config"
)

// counterTTL bounds staleness of cached counters; the DB is the source of
// truth and repopulates on miss.
const counterTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	return c.Client.Del(ctx, keys...).Err()
}

// KeyForUnreadCount generates the Redis key for a user's total unread count.
func (c *RedisCache) KeyForUnreadCount(userID uint64) string {
	return fmt.Sprintf("unread:count:%d", userID)
}

// KeyForAdmirerCount generates the Redis key for a user's admirer count.
func (c *RedisCache) KeyForAdmirerCount(userID uint64) string {
	return fmt.Sprintf("admirers:count:%d", userID)
}

// GetCount reads a cached counter. A miss returns (0, false, nil).
func (c *RedisCache) GetCount(ctx context.Context, key string) (int64, bool, error) {
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, counterTTL).Err()
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil // poisoned value, treat as miss
	}
	return n, true, nil
}

// SetCount stores a counter with the standard TTL.
func (c *RedisCache) SetCount(ctx context.Context, key string, count int64) error {
	return c.Client.Set(ctx, key, count, counterTTL).Err()
}
