package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Yamojr001/lip-sub002/internal/platform/metrics"
)

// ErrMiss is returned by GetJSON when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

const keyPrefix = "mch:"

// Cache stores JSON documents in redis under a shared prefix with one TTL.
type Cache struct {
	Client  *redis.Client
	ttl     time.Duration
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// New connects to the redis instance named by redisURL
// (redis://[:password@]host:port/db).
func New(ctx context.Context, redisURL string, ttl time.Duration, logger zerolog.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("connected to Redis")
	return NewFromClient(client, ttl, logger), nil
}

func NewFromClient(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *Cache {
	return &Cache{Client: client, ttl: ttl, logger: logger}
}

// WithMetrics records hit/miss/error counts on m.
func (c *Cache) WithMetrics(m *metrics.Metrics) *Cache {
	c.metrics = m
	return c
}

// Key joins parts into a namespaced cache key.
func Key(parts ...string) string {
	return keyPrefix + strings.Join(parts, ":")
}

func (c *Cache) GetJSON(ctx context.Context, key string, dst any) error {
	raw, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.record("get", "miss")
		return ErrMiss
	}
	if err != nil {
		c.record("get", "error")
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// A document written by an older build; treat as a miss and let the
		// caller overwrite it.
		c.record("get", "miss")
		c.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		return ErrMiss
	}
	c.record("get", "hit")
	return nil
}

func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	if err := c.Client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.record("set", "error")
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	c.record("set", "ok")
	return nil
}

// InvalidatePrefix deletes every key starting with prefix and returns how
// many were removed.
func (c *Cache) InvalidatePrefix(ctx context.Context, prefix string) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.Client.Scan(ctx, cursor, prefix+"*", 200).Result()
		if err != nil {
			return removed, fmt.Errorf("redis scan %s: %w", prefix, err)
		}
		if len(keys) > 0 {
			n, err := c.Client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("redis del: %w", err)
			}
			removed += int(n)
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	c.record("invalidate", "ok")
	return removed, nil
}

// Health checks if Redis is reachable.
func (c *Cache) Health(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	if c.Client != nil {
		c.logger.Info().Msg("Redis connection closed")
		return c.Client.Close()
	}
	return nil
}

func (c *Cache) record(op, result string) {
	if c.metrics != nil {
		c.metrics.RecordCache(op, result)
	}
}
