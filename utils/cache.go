// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"walkly/config"

	"github.com/go-redis/redis/v8"
)

var (
	// TravelCacheClient backs the travel-time oracle's estimate cache.
	TravelCacheClient *redis.Client
	// LocationClient backs the walker live-location store.
	LocationClient *redis.Client
	// LockClient backs idempotency-key creation locks.
	LockClient *redis.Client
)

func newRedisClient(db int) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (db %d): %v", db, err)
	}
	return client
}

// InitTravelCache initializes the Redis client for travel-time caching.
func InitTravelCache() {
	TravelCacheClient = newRedisClient(config.AppConfig.RedisTravelDB)
}

// GetTravelCacheClient returns the travel-time cache client.
func GetTravelCacheClient() *redis.Client {
	if TravelCacheClient == nil {
		InitTravelCache()
	}
	return TravelCacheClient
}

// InitLocationStore initializes the Redis client for walker live locations.
func InitLocationStore() {
	LocationClient = newRedisClient(config.AppConfig.RedisLocationDB)
}

// GetLocationClient returns the live-location store client.
func GetLocationClient() *redis.Client {
	if LocationClient == nil {
		InitLocationStore()
	}
	return LocationClient
}

// InitLockStore initializes the Redis client for creation locks.
func InitLockStore() {
	LockClient = newRedisClient(config.AppConfig.RedisLockDB)
}

// GetLockClient returns the lock store client.
func GetLockClient() *redis.Client {
	if LockClient == nil {
		InitLockStore()
	}
	return LockClient
}
