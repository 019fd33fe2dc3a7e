package models

import "time"

// Booking statuses. Non-cancelled bookings occupy a walker's time exclusively.
const (
	BookingStatusPending    = "pending"
	BookingStatusConfirmed  = "confirmed"
	BookingStatusInProgress = "in_progress"
	BookingStatusCompleted  = "completed"
	BookingStatusCancelled  = "cancelled"
	BookingStatusNoShow     = "no_show"
)

// Booking represents one scheduled appointment. Bookings are never physically
// deleted; cancellation is a status change.
type Booking struct {
	ID         string    `bson:"id" json:"id"`
	SeriesID   string    `bson:"series_id,omitempty" json:"series_id,omitempty"`
	CustomerID string    `bson:"customer_id" json:"customer_id"`
	WalkerID   string    `bson:"walker_id" json:"walker_id"`
	ServiceID  string    `bson:"service_id" json:"service_id"`
	Location   Location  `bson:"location" json:"location"`
	Start      time.Time `bson:"start" json:"start"` // scheduled start
	End        time.Time `bson:"end" json:"end"`     // scheduled end
	Status     string    `bson:"status" json:"status"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// Occupies reports whether the booking holds its time window exclusively.
func (b Booking) Occupies() bool {
	return b.Status != BookingStatusCancelled
}
