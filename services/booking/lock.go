package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const seriesLockPrefix = "seriesLock:"

// KeyLock provides key-scoped mutual exclusion for series creation, so two
// concurrent requests sharing an idempotency key never both execute the
// creation path. Scoped across replicas, not just this process.
type KeyLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// RedisKeyLock is the production lock backed by SETNX.
type RedisKeyLock struct {
	Client *redis.Client
}

func NewRedisKeyLock(client *redis.Client) *RedisKeyLock {
	return &RedisKeyLock{Client: client}
}

func (l *RedisKeyLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.Client.SetNX(ctx, seriesLockPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire creation lock: %w", err)
	}
	return ok, nil
}

func (l *RedisKeyLock) Release(ctx context.Context, key string) error {
	return l.Client.Del(ctx, seriesLockPrefix+key).Err()
}
