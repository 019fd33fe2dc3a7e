package schedulerRepo

import (
	"context"
	"time"

	"walkly/models"
)

// TxResultFn builds the idempotency record persisted in the same transaction
// as the series and its bookings, after unique-constraint violations have
// been resolved into per-occurrence duplicates.
type TxResultFn func(createdIDs []string, duplicateIdx []int) models.IdempotencyRecord

type SchedulerRepository interface {
	GetWalker(ctx context.Context, walkerID string) (*models.Walker, error)
	GetWorkingWindow(ctx context.Context, walkerID string, weekday time.Weekday) (*models.WorkingWindow, error)

	// Range queries. Both return commitments whose interval intersects
	// [from, to); bookings exclude cancelled status.
	GetBookingsInRange(ctx context.Context, walkerID string, from, to time.Time) ([]models.Booking, error)
	GetBlocksInRange(ctx context.Context, walkerID string, from, to time.Time) ([]models.Block, error)

	CreateBooking(ctx context.Context, booking *models.Booking) error
	CreateBlock(ctx context.Context, block *models.Block) error

	GetIdempotencyRecord(ctx context.Context, key string) (*models.IdempotencyRecord, error)

	// InsertSeriesTransactionally persists the series, its bookings and the
	// idempotency record in one all-or-nothing transaction. Bookings whose
	// (customer, service, start) triple already exists non-cancelled are not
	// inserted; their batch indexes are reported in duplicateIdx and the
	// rest of the transaction commits. The idempotency record replaces any
	// previous record stored under the same key.
	InsertSeriesTransactionally(
		ctx context.Context,
		series *models.RecurringSeries,
		bookings []*models.Booking,
		makeRecord TxResultFn,
	) (createdIDs []string, duplicateIdx []int, err error)

	// WalkerIDsWithBookings lists walkers holding non-cancelled bookings in
	// the range, for cache warm-up scheduling.
	WalkerIDsWithBookings(ctx context.Context, from, to time.Time) ([]string, error)
}
