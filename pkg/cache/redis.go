package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// RedisClient defines the Redis operations the store uses. The shape
// is compatible with github.com/redis/go-redis/v9 behind a thin
// adapter, so the package carries no client dependency of its own.
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) RedisStatusCmd
	Get(ctx context.Context, key string) RedisStringCmd
	Del(ctx context.Context, keys ...string) RedisIntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) RedisScanCmd
	Close() error
}

// RedisStatusCmd represents a Redis status command result.
type RedisStatusCmd interface {
	Err() error
}

// RedisStringCmd represents a Redis string command result.
type RedisStringCmd interface {
	Bytes() ([]byte, error)
	Err() error
}

// RedisIntCmd represents a Redis int command result.
type RedisIntCmd interface {
	Err() error
}

// RedisScanCmd represents a Redis scan command result.
type RedisScanCmd interface {
	Result() ([]string, uint64, error)
}

// ErrRedisNil is the missing-key error. It should match redis.Nil
// from go-redis.
var ErrRedisNil = errors.New("redis: nil")

// RedisStore is a Redis-backed Store, suitable for multi-server
// deployments that share rendered documents.
type RedisStore struct {
	client RedisClient
	prefix string
	ttl    time.Duration
	closed bool
}

// RedisStoreOption configures RedisStore behavior.
type RedisStoreOption func(*redisStoreConfig)

type redisStoreConfig struct {
	prefix string
	ttl    time.Duration
}

// WithRedisPrefix sets the key prefix. Default: "weft:render:".
func WithRedisPrefix(prefix string) RedisStoreOption {
	return func(c *redisStoreConfig) {
		c.prefix = prefix
	}
}

// WithRedisTTL sets an expiration on stored entries. Zero, the
// default, keeps entries until deleted; freshness is judged at read
// time from the entry's timestamp, so the TTL is a retention bound,
// not the staleness window.
func WithRedisTTL(ttl time.Duration) RedisStoreOption {
	return func(c *redisStoreConfig) {
		c.ttl = ttl
	}
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client RedisClient, opts ...RedisStoreOption) *RedisStore {
	cfg := &redisStoreConfig{
		prefix: "weft:render:",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &RedisStore{
		client: client,
		prefix: cfg.prefix,
		ttl:    cfg.ttl,
	}
}

// key returns the Redis key for a cache key.
func (r *RedisStore) key(k string) string {
	return r.prefix + k
}

// Get retrieves an entry if it exists.
func (r *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	if r.closed {
		return nil, ErrStoreClosed{}
	}

	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if err.Error() == ErrRedisNil.Error() {
			return nil, nil
		}
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Set writes the entry as one JSON value.
func (r *RedisStore) Set(ctx context.Context, key string, entry *Entry) error {
	if r.closed {
		return ErrStoreClosed{}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, r.key(key), data, r.ttl).Err()
}

// Delete removes the entry for key.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if r.closed {
		return ErrStoreClosed{}
	}

	return r.client.Del(ctx, r.key(key)).Err()
}

// Clear removes every key under the store's prefix, scanning in
// batches.
func (r *RedisStore) Clear(ctx context.Context) error {
	if r.closed {
		return ErrStoreClosed{}
	}

	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Close marks the store closed. The underlying client may be shared,
// so it is not closed here.
func (r *RedisStore) Close() error {
	r.closed = true
	return nil
}
