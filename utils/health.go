package utils

import (
	"context"
	"sync"
	"time"

	"walkly/config"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Mongo     bool      `json:"mongo"`
	Redis     []bool    `json:"redis"`
	CheckedAt time.Time `json:"checkedAt"`
}

var (
	currentHealth HealthStatus
	mu            sync.RWMutex
)

// GetHealthStatus returns latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	mu.RLock()
	defer mu.RUnlock()
	return currentHealth
}

// StartHealthMonitor probes Mongo and every Redis client once immediately and
// then on the configured HEALTH_CHECK_INTERVAL_SEC cadence, keeping an
// in-memory snapshot for the health endpoint.
func StartHealthMonitor(redisClients []*redis.Client, mongoClient *mongo.Client) {
	go func() {
		ctx := context.Background()
		probeDependencies(ctx, redisClients, mongoClient)

		ticker := time.NewTicker(config.HealthCheckInterval())
		defer ticker.Stop()
		for range ticker.C {
			probeDependencies(ctx, redisClients, mongoClient)
		}
	}()
}

func probeDependencies(ctx context.Context, redisClients []*redis.Client, mongoClient *mongo.Client) {
	redisHealth := make([]bool, 0, len(redisClients))
	for _, client := range redisClients {
		redisHealth = append(redisHealth, client.Ping(ctx).Err() == nil)
	}
	mongoHealthy := mongoClient.Ping(ctx, nil) == nil

	mu.Lock()
	currentHealth = HealthStatus{
		Mongo:     mongoHealthy,
		Redis:     redisHealth,
		CheckedAt: time.Now(),
	}
	mu.Unlock()
}
