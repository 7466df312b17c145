// Package cache provides the Redis backend of the snapshot store.
// Redis is volatile unless persistence is enabled on the server; run it with AOF
// if the save must survive restarts.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MRamiBalles/furcoin-clicker/internal/infra/storage"
)

// ErrMiss is returned by RedisClient.Get when the key does not exist.
var ErrMiss = errors.New("cache: miss")

// RedisClient is an interface for Redis operations.
// This allows for easy mocking in tests.
type RedisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// RedisStore implements storage.Store on top of a RedisClient.
type RedisStore struct {
	client     RedisClient
	prefix     string
	expiration time.Duration // 0 keeps keys forever
}

// NewRedisStore creates a store that namespaces every key under prefix.
func NewRedisStore(client RedisClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// WithExpiration sets a TTL on every write.
func (s *RedisStore) WithExpiration(d time.Duration) *RedisStore {
	s.expiration = d
	return s
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(key))
	if errors.Is(err, ErrMiss) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return []byte(data), nil
}

func (s *RedisStore) Set(ctx context.Context, key string, blob []byte) error {
	if err := s.client.Set(ctx, s.key(key), blob, s.expiration); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}

var _ storage.Store = (*RedisStore)(nil)

// goRedis adapts *redis.Client to RedisClient.
type goRedis struct {
	rdb *redis.Client
}

// Dial connects to Redis and verifies the connection with a PING.
func Dial(ctx context.Context, addr, password string, db, poolSize int) (RedisClient, func() error, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: poolSize,
	})

	c := &goRedis{rdb: rdb}
	if err := c.Ping(ctx); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return c, rdb.Close, nil
}

func (c *goRedis) Get(ctx context.Context, key string) (string, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return v, err
}

func (c *goRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.rdb.Set(ctx, key, value, expiration).Err()
}

func (c *goRedis) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *goRedis) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
