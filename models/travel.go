package models

import "time"

// Travel estimate sources.
const (
	TravelSourceLive     = "live"
	TravelSourceFallback = "fallback"
)

// TravelEstimate is a point-to-point travel duration and distance.
type TravelEstimate struct {
	Seconds int    `json:"seconds"`
	Meters  int    `json:"meters"`
	Source  string `json:"source"` // "live" or "fallback"
}

// TravelTimeCacheEntry is a cached estimate keyed by the ordered
// (origin, destination) pair. A→B and B→A are independent entries; travel
// time is asymmetric and never interpolated from the reverse direction.
// Entries past ExpiresAt are logically absent and overwritten on read.
type TravelTimeCacheEntry struct {
	OriginID      string    `json:"origin_id"`
	DestinationID string    `json:"destination_id"`
	Seconds       int       `json:"seconds"`
	Meters        int       `json:"meters"`
	Source        string    `json:"source"`
	ComputedAt    time.Time `json:"computed_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Expired reports whether the entry is logically absent at the given time.
func (e TravelTimeCacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Estimate converts the cached entry back into a TravelEstimate.
func (e TravelTimeCacheEntry) Estimate() TravelEstimate {
	return TravelEstimate{Seconds: e.Seconds, Meters: e.Meters, Source: e.Source}
}
