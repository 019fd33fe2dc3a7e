package models

// ServiceSpec identifies what is being booked and where.
type ServiceSpec struct {
	ServiceID string   `json:"serviceId" binding:"required"`
	Location  Location `json:"location" binding:"required"`
}

// RecurringBookingRequest is the caller-facing payload for creating a series.
// The idempotency key may also arrive via the Idempotency-Key header.
type RecurringBookingRequest struct {
	CustomerID     string         `json:"customerId" binding:"required"`
	WalkerID       string         `json:"walkerId" binding:"required"`
	Service        ServiceSpec    `json:"service" binding:"required"`
	Rule           RecurrenceRule `json:"rule" binding:"required"`
	IdempotencyKey string         `json:"idempotencyKey"`
}

// ReportLocationRequest is the mobile client's live-location report.
type ReportLocationRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
	Accuracy  float64 `json:"accuracy"`
	OnDuty    bool    `json:"onDuty"`
}

// OptimizeRouteRequest selects the ordering mode and the walker's position.
type OptimizeRouteRequest struct {
	Mode            string    `json:"mode" binding:"required"`
	CurrentLocation *Location `json:"currentLocation"`
}
