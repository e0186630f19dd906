package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// KeyPrefix namespaces page entries inside a shared Redis database.
const KeyPrefix = "landingkit:page:"

const opTimeout = 2 * time.Second

var _ PageCache = (*RedisCache)(nil)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisCache is a Redis-backed PageCache.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
	stats  struct {
		hits   atomic.Int64
		misses atomic.Int64
		sets   atomic.Int64
	}
}

// NewRedisCache connects and pings Redis.
func NewRedisCache(ctx context.Context, cfg RedisConfig, logger *zap.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("connected to redis page cache", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))

	return newRedisCache(client, cfg.TTL, logger), nil
}

func newRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

// Get returns cached HTML for slug.
func (c *RedisCache) Get(ctx context.Context, slug string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	val, err := c.client.Get(ctx, KeyPrefix+slug).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis get failed", zap.String("slug", slug), zap.Error(err))
		}
		c.stats.misses.Add(1)
		return nil, false
	}
	c.stats.hits.Add(1)
	return val, true
}

// Set stores HTML for slug with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, slug string, html []byte) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.client.Set(ctx, KeyPrefix+slug, html, c.ttl).Err(); err != nil {
		c.logger.Warn("redis set failed", zap.String("slug", slug), zap.Error(err))
		return
	}
	c.stats.sets.Add(1)
}

// Invalidate drops the entries for slugs.
func (c *RedisCache) Invalidate(ctx context.Context, slugs ...string) {
	keys := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		if slug != "" {
			keys = append(keys, KeyPrefix+slug)
		}
	}
	if len(keys) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("redis delete failed", zap.Strings("slugs", slugs), zap.Error(err))
	}
}

// Stats returns hit, miss and set counters.
func (c *RedisCache) Stats() Stats {
	return Stats{
		Hits:   c.stats.hits.Load(),
		Misses: c.stats.misses.Load(),
		Sets:   c.stats.sets.Load(),
	}
}

// HealthCheck pings Redis.
func (c *RedisCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
