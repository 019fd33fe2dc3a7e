package models

import "time"

// Recurrence frequencies supported in v1.
const (
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
)

// RecurrenceRule describes how a series expands into concrete occurrences.
// Exactly one of Count or Until (an inclusive "2006-01-02" end date)
// terminates the series. StartDate names the first candidate day, TimeOfDay
// is minutes from midnight, Weekday anchors weekly rules, and ExemptDays
// lists weekday names skipped by daily rules.
type RecurrenceRule struct {
	Frequency   string       `bson:"frequency" json:"frequency" binding:"required"`
	Weekday     time.Weekday `bson:"weekday" json:"weekday"`
	StartDate   string       `bson:"start_date" json:"startDate" binding:"required"`
	TimeOfDay   int          `bson:"time_of_day_min" json:"timeOfDayMin"`
	DurationMin int          `bson:"duration_min" json:"durationMin" binding:"required"`
	Count       int          `bson:"count,omitempty" json:"count,omitempty"`
	Until       string       `bson:"until,omitempty" json:"until,omitempty"`
	ExemptDays  []string     `bson:"exempt_days,omitempty" json:"exemptDays,omitempty"`
}

// Series statuses.
const (
	SeriesStatusActive    = "active"
	SeriesStatusCancelled = "cancelled"
)

// RecurringSeries groups bookings created from one recurrence rule.
type RecurringSeries struct {
	ID             string         `bson:"id" json:"id"`
	CustomerID     string         `bson:"customer_id" json:"customer_id"`
	WalkerID       string         `bson:"walker_id" json:"walker_id"`
	ServiceID      string         `bson:"service_id" json:"service_id"`
	Rule           RecurrenceRule `bson:"rule" json:"rule"`
	IdempotencyKey string         `bson:"idempotency_key,omitempty" json:"idempotency_key,omitempty"`
	Status         string         `bson:"status" json:"status"`
	CreatedAt      time.Time      `bson:"created_at" json:"created_at"`
}

// Occurrence is one concrete window expanded from a recurrence rule.
type Occurrence struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Skip reasons reported alongside a partially created series.
const (
	ConflictReasonOverlap      = "overlap"
	ConflictReasonBlock        = "block"
	ConflictReasonTravelBuffer = "travel_buffer"
	ConflictReasonDuplicate    = "duplicate"
)

// SkippedOccurrence records one occurrence that was not created and why.
type SkippedOccurrence struct {
	Index         int       `bson:"index" json:"index"`
	Start         time.Time `bson:"start" json:"start"`
	End           time.Time `bson:"end" json:"end"`
	Reason        string    `bson:"reason" json:"reason"`
	ConflictingID string    `bson:"conflicting_id,omitempty" json:"conflicting_id,omitempty"`
}

// SeriesResult is the outcome of a recurring-series creation: "N of M created".
type SeriesResult struct {
	SeriesID          string              `bson:"series_id" json:"series_id"`
	CreatedBookingIDs []string            `bson:"created_booking_ids" json:"created_booking_ids"`
	Skipped           []SkippedOccurrence `bson:"skipped" json:"skipped"`
}

// Idempotency record statuses.
const (
	IdempotencyStatusPending  = "pending"
	IdempotencyStatusComplete = "complete"
)

// IdempotencyRecord maps a client-generated key to the result it produced, so
// a retried request replays the stored result instead of re-executing writes.
// The key is unique while the record is live; records expire after 24h.
type IdempotencyRecord struct {
	Key         string       `bson:"key" json:"key"`
	RequestedAt time.Time    `bson:"requested_at" json:"requested_at"`
	ExpiresAt   time.Time    `bson:"expires_at" json:"expires_at"`
	Status      string       `bson:"status" json:"status"`
	Result      SeriesResult `bson:"result" json:"result"`
}

// Live reports whether the record is still authoritative at the given time.
func (r IdempotencyRecord) Live(now time.Time) bool {
	return now.Before(r.ExpiresAt)
}
