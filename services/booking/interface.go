package booking

import (
	"context"

	"walkly/models"
)

// SlotService computes feasible appointment start times for a walker/day.
type SlotService interface {
	Slots(ctx context.Context, q SlotQuery) (*models.AvailabilityResult, error)
}

// SeriesService creates recurring booking series idempotently.
type SeriesService interface {
	Create(ctx context.Context, req models.RecurringBookingRequest) (*models.SeriesResult, error)
}
