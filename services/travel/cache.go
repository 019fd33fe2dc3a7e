package travel

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"walkly/models"

	"github.com/go-redis/redis/v8"
)

const cacheKeyPrefix = "travel:"

// EstimateCache stores travel-time entries keyed by the ordered
// (origin, destination) pair. Expired entries are logically absent.
type EstimateCache interface {
	Get(ctx context.Context, key string) (models.TravelTimeCacheEntry, bool)
	Put(ctx context.Context, key string, entry models.TravelTimeCacheEntry, ttl time.Duration)
}

// RedisEstimateCache is the production cache backed by Redis.
type RedisEstimateCache struct {
	Client *redis.Client
}

// NewRedisEstimateCache wraps a Redis client as an estimate cache.
func NewRedisEstimateCache(client *redis.Client) *RedisEstimateCache {
	return &RedisEstimateCache{Client: client}
}

func (c *RedisEstimateCache) Get(ctx context.Context, key string) (models.TravelTimeCacheEntry, bool) {
	data, err := c.Client.Get(ctx, cacheKeyPrefix+key).Result()
	if err != nil {
		return models.TravelTimeCacheEntry{}, false
	}
	var entry models.TravelTimeCacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return models.TravelTimeCacheEntry{}, false
	}
	// Redis TTL handles physical removal; the expires_at check makes entries
	// past their logical TTL absent even if the key lingers.
	if entry.Expired(time.Now()) {
		return models.TravelTimeCacheEntry{}, false
	}
	return entry, true
}

func (c *RedisEstimateCache) Put(ctx context.Context, key string, entry models.TravelTimeCacheEntry, ttl time.Duration) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	c.Client.Set(ctx, cacheKeyPrefix+key, data, ttl)
}

// pairKey builds the directional cache key. (A→B) and (B→A) are independent
// entries; travel time is asymmetric. Locations without a persisted id key on
// their coordinates.
func pairKey(origin, dest models.Location) string {
	return locKey(origin) + "|" + locKey(dest)
}

func locKey(l models.Location) string {
	if l.ID != "" {
		return l.ID
	}
	return fmt.Sprintf("%.5f,%.5f", l.Latitude, l.Longitude)
}
