package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

const storageOpTimeout = 2 * time.Second

// KeyStorage adapts Redis to fiber's Storage interface so middleware state
// such as CSRF tokens survives restarts and is shared between replicas.
type KeyStorage struct {
	client *redis.Client
	prefix string
}

// NewKeyStorage returns a storage that namespaces keys with prefix.
func (r *Redis) NewKeyStorage(prefix string) *KeyStorage {
	return &KeyStorage{client: r.Client, prefix: prefix}
}

func (s *KeyStorage) key(k string) string {
	return s.prefix + k
}

// Get returns nil without error for a missing key.
func (s *KeyStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), storageOpTimeout)
	defer cancel()

	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (s *KeyStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), storageOpTimeout)
	defer cancel()
	return s.client.Set(ctx, s.key(key), val, exp).Err()
}

func (s *KeyStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), storageOpTimeout)
	defer cancel()
	return s.client.Del(ctx, s.key(key)).Err()
}

// Reset removes every key under the prefix.
func (s *KeyStorage) Reset() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*storageOpTimeout)
	defer cancel()

	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close is a no-op; the shared client is closed by Redis.Close.
func (s *KeyStorage) Close() error {
	return nil
}

// NewLimiterStore builds the rate limit store. "redis" uses the shared client
// and falls back to memory when Redis is unreachable.
func NewLimiterStore(kind string, r *Redis, logger *zap.Logger) limiter.Store {
	if kind == "redis" && r != nil && r.Client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), storageOpTimeout)
		defer cancel()
		if err := r.Ping(ctx); err == nil {
			store, err := redisstore.NewStoreWithOptions(r.Client, limiter.StoreOptions{
				Prefix: "portal_limiter",
			})
			if err == nil {
				return store
			}
			logger.Warn("failed to create redis limiter store, falling back to memory", zap.Error(err))
		} else {
			logger.Warn("redis unavailable for rate limiting, falling back to memory", zap.Error(err))
		}
	}
	return memorystore.NewStore()
}
