package travel

import (
	"context"
	"strings"
	"time"

	"walkly/models"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// LiveOriginPrefix marks location ids derived from a walker's live GPS
// position. Pairs involving such origins get the short dynamic cache TTL.
const LiveOriginPrefix = "live:"

// Estimator is the travel-time oracle consumed by the slot generator, the
// route optimizer and the warmup worker. Implementations never surface
// provider failures; they degrade to a fallback estimate instead.
type Estimator interface {
	Estimate(ctx context.Context, origin, dest models.Location, departAt time.Time) (models.TravelEstimate, error)
}

// Options carries the oracle's tunables.
type Options struct {
	ProviderTimeout    time.Duration
	DynamicPairTTL     time.Duration // pairs involving a live origin
	FixedPairTTL       time.Duration // two persisted addresses
	FallbackTTL        time.Duration // brief, so the live provider is retried
	FallbackMinPerMile float64
}

// DefaultOracle estimates travel time with a cache-first, single-flight,
// degrade-to-fallback strategy.
type DefaultOracle struct {
	Provider Provider
	Cache    EstimateCache
	Opts     Options
	Logger   *zap.Logger

	group singleflight.Group
}

// NewOracle wires a travel-time oracle.
func NewOracle(provider Provider, cache EstimateCache, opts Options, logger *zap.Logger) *DefaultOracle {
	return &DefaultOracle{Provider: provider, Cache: cache, Opts: opts, Logger: logger}
}

// Estimate returns the travel estimate from origin to dest departing near
// departAt. Cache hits return immediately; on a miss only one provider call
// per (origin, destination) key is in flight, and concurrent callers share
// its result. Provider failures resolve to a great-circle fallback.
func (o *DefaultOracle) Estimate(ctx context.Context, origin, dest models.Location, departAt time.Time) (models.TravelEstimate, error) {
	key := pairKey(origin, dest)

	if entry, ok := o.Cache.Get(ctx, key); ok {
		return entry.Estimate(), nil
	}

	result, err, _ := o.group.Do(key, func() (interface{}, error) {
		// A previous flight may have filled the cache while we queued.
		if entry, ok := o.Cache.Get(ctx, key); ok {
			return entry.Estimate(), nil
		}
		return o.estimateUncached(ctx, key, origin, dest, departAt), nil
	})
	if err != nil {
		return models.TravelEstimate{}, err
	}
	if ctx.Err() != nil {
		return models.TravelEstimate{}, ctx.Err()
	}
	return result.(models.TravelEstimate), nil
}

func (o *DefaultOracle) estimateUncached(ctx context.Context, key string, origin, dest models.Location, departAt time.Time) models.TravelEstimate {
	callCtx, cancel := context.WithTimeout(ctx, o.Opts.ProviderTimeout)
	defer cancel()

	seconds, meters, err := o.Provider.Estimate(callCtx, origin, dest, departAt)
	now := time.Now()

	if err != nil {
		// Transient provider failure: degrade to the straight-line estimate
		// and keep it only briefly so the next call retries the provider.
		est := fallbackEstimate(origin, dest, o.Opts.FallbackMinPerMile)
		o.Logger.Warn("travel oracle degraded to fallback",
			zap.String("pair", key), zap.Error(err))
		o.store(ctx, key, origin, dest, est, now, o.Opts.FallbackTTL)
		return est
	}

	est := models.TravelEstimate{Seconds: seconds, Meters: meters, Source: models.TravelSourceLive}
	o.store(ctx, key, origin, dest, est, now, o.ttlFor(origin, dest))
	return est
}

func (o *DefaultOracle) store(ctx context.Context, key string, origin, dest models.Location, est models.TravelEstimate, now time.Time, ttl time.Duration) {
	o.Cache.Put(ctx, key, models.TravelTimeCacheEntry{
		OriginID:      locKey(origin),
		DestinationID: locKey(dest),
		Seconds:       est.Seconds,
		Meters:        est.Meters,
		Source:        est.Source,
		ComputedAt:    now,
		ExpiresAt:     now.Add(ttl),
	}, ttl)
}

// ttlFor picks the long TTL for two persisted addresses and the short
// dynamic TTL when either endpoint is a moving origin.
func (o *DefaultOracle) ttlFor(origin, dest models.Location) time.Duration {
	if transient(origin) || transient(dest) {
		return o.Opts.DynamicPairTTL
	}
	return o.Opts.FixedPairTTL
}

func transient(l models.Location) bool {
	return l.ID == "" || strings.HasPrefix(l.ID, LiveOriginPrefix)
}
