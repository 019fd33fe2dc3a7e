package location

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"walkly/models"

	"github.com/go-redis/redis/v8"
)

const liveLocationPrefix = "liveLocation:"

// LiveStore reads the walker's last GPS report, applying the staleness gate:
// a report older than the threshold is indistinguishable from no report.
type LiveStore interface {
	Report(ctx context.Context, loc models.WalkerLiveLocation) error
	Get(ctx context.Context, walkerID string) (*models.WalkerLiveLocation, error)
}

// RedisLiveStore keeps one entry per walker (single writer: the walker's
// mobile client). Entries are upserted, never deleted; they age out.
type RedisLiveStore struct {
	Client     *redis.Client
	StaleAfter time.Duration
}

// NewRedisLiveStore builds the production live-location store.
func NewRedisLiveStore(client *redis.Client, staleAfter time.Duration) *RedisLiveStore {
	return &RedisLiveStore{Client: client, StaleAfter: staleAfter}
}

// Report upserts the walker's live location.
func (s *RedisLiveStore) Report(ctx context.Context, loc models.WalkerLiveLocation) error {
	if loc.UpdatedAt.IsZero() {
		loc.UpdatedAt = time.Now()
	}
	data, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("failed to marshal live location: %w", err)
	}
	// Keep the key a little past the staleness threshold; reads gate on
	// updated_at regardless.
	if err := s.Client.Set(ctx, liveLocationPrefix+loc.WalkerID, data, 2*s.StaleAfter).Err(); err != nil {
		return fmt.Errorf("failed to save live location: %w", err)
	}
	return nil
}

// Get returns the walker's live location, or nil when absent or stale.
func (s *RedisLiveStore) Get(ctx context.Context, walkerID string) (*models.WalkerLiveLocation, error) {
	data, err := s.Client.Get(ctx, liveLocationPrefix+walkerID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch live location: %w", err)
	}
	var loc models.WalkerLiveLocation
	if err := json.Unmarshal([]byte(data), &loc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal live location: %w", err)
	}
	if Fresh(loc, time.Now(), s.StaleAfter) {
		return &loc, nil
	}
	return nil, nil
}

// Fresh reports whether a live location is recent enough to trust.
func Fresh(loc models.WalkerLiveLocation, now time.Time, staleAfter time.Duration) bool {
	return now.Sub(loc.UpdatedAt) <= staleAfter
}
