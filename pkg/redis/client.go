package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrCacheMiss is returned by GetJSON when the key does not exist
var ErrCacheMiss = errors.New("cache miss")

type Client struct {
	rdb        *redis.Client
	KeyBuilder *KeyBuilder
	log        *zap.Logger
}

// Cache key patterns
const (
	KeyPollTally           = "board:post:%s:tally:%d"
	KeyPollTallyGeneration = "board:post:%s:tally:gen"
	KeyPollVoted           = "board:post:%s:voter:%s"
	KeyVoteLock            = "board:post:%s:lock:%s"
	KeyInviteCode          = "club:invite:%s"
	KeyClubSummary         = "club:%s:summary"
	KeyLoginFailures       = "auth:login:%s:%s:failures"
)

// TTL constants
const (
	TTLPollTally     = 30 * time.Second // Tallies change on every vote, keep short
	TTLPollVoted     = 24 * time.Hour   // A vote is never withdrawn
	TTLVoteLock      = 5 * time.Second  // Covers one vote request
	TTLInviteCode    = 15 * time.Minute
	TTLClubSummary   = 1 * time.Minute
	TTLLoginFailures = 15 * time.Minute
)

// NewClient creates a new Redis client
func NewClient(redisURL string, environment string, log *zap.Logger) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = 20
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &Client{rdb: rdb, KeyBuilder: NewKeyBuilder(environment), log: log}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Get retrieves a value from Redis
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	val, err := c.rdb.Get(ctx, key).Result()
	c.trace("redis_get", key, time.Since(start), err)
	return val, err
}

// Set stores a value in Redis with TTL
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	start := time.Now()
	err := c.rdb.Set(ctx, key, value, ttl).Err()
	c.trace("redis_set", key, time.Since(start), err)
	return err
}

// SetNX sets a value only if it doesn't exist
func (c *Client) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	start := time.Now()
	ok, err := c.rdb.SetNX(ctx, key, value, ttl).Result()
	c.trace("redis_setnx", key, time.Since(start), err)
	return ok, err
}

// Delete removes keys from Redis
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	start := time.Now()
	err := c.rdb.Del(ctx, keys...).Err()
	c.log.Debug("redis_del",
		zap.Int("keys", len(keys)),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err))
	return err
}

// Exists returns how many of keys exist
func (c *Client) Exists(ctx context.Context, keys ...string) (int64, error) {
	start := time.Now()
	n, err := c.rdb.Exists(ctx, keys...).Result()
	c.log.Debug("redis_exists",
		zap.Int64("result", n),
		zap.Int("keys", len(keys)),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err))
	return n, err
}

// Incr increments a counter and refreshes its TTL on first use
func (c *Client) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	start := time.Now()
	v, err := c.rdb.Incr(ctx, key).Result()
	if err == nil && v == 1 && ttl > 0 {
		err = c.rdb.Expire(ctx, key, ttl).Err()
	}
	c.trace("redis_incr", key, time.Since(start), err)
	return v, err
}

// GetJSON decodes a cached JSON value into dst. A missing key yields ErrCacheMiss.
func (c *Client) GetJSON(ctx context.Context, key string, dst interface{}) error {
	val, err := c.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(val), dst); err != nil {
		return fmt.Errorf("failed to decode cached value: %w", err)
	}
	return nil
}

// SetJSON encodes value as JSON and stores it with TTL
func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	return c.Set(ctx, key, data, ttl)
}

// Health checks the Redis connection
func (c *Client) Health(ctx context.Context) error {
	start := time.Now()
	err := c.rdb.Ping(ctx).Err()
	c.trace("redis_ping", "", time.Since(start), err)
	return err
}

func (c *Client) trace(op, key string, dur time.Duration, err error) {
	if err != nil && !errors.Is(err, redis.Nil) {
		c.log.Info(op,
			zap.String("key_prefix", prefixForLog(key)),
			zap.Duration("duration", dur),
			zap.Error(err))
		return
	}
	c.log.Debug(op,
		zap.String("key_prefix", prefixForLog(key)),
		zap.Duration("duration", dur))
}

// prefixForLog returns a safe prefix of a key to avoid logging user ids
func prefixForLog(key string) string {
	if len(key) <= 24 {
		return key
	}
	return key[:24] + "…"
}
