package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"walkly/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testCoordinator(repo *memSchedRepo, locks KeyLock) *DefaultCoordinator {
	return &DefaultCoordinator{
		Repo:     repo,
		Detector: &DefaultConflictDetector{Repo: repo, Buffer: 15 * time.Minute},
		Locks:    locks,
		Opts: CoordinatorOptions{
			IdempotencyTTL: 24 * time.Hour,
			LockTTL:        30 * time.Second,
			PollInterval:   5 * time.Millisecond,
			PollTimeout:    50 * time.Millisecond,
		},
		Logger: zap.NewNop(),
	}
}

func weeklyRequest(count int) models.RecurringBookingRequest {
	start := futureDate(7)
	return models.RecurringBookingRequest{
		CustomerID: "cust-1",
		WalkerID:   "w1",
		Service: models.ServiceSpec{
			ServiceID: "svc-walk-60",
			Location:  models.Location{ID: "loc-y", Latitude: 40.75, Longitude: -74.02},
		},
		Rule: models.RecurrenceRule{
			Frequency:   models.FrequencyWeekly,
			Weekday:     start.Weekday(),
			StartDate:   start.Format("2006-01-02"),
			TimeOfDay:   14 * 60,
			DurationMin: 60,
			Count:       count,
		},
		IdempotencyKey: "key-1",
	}
}

func TestCreateSeriesSkipsBlockedOccurrence(t *testing.T) {
	repo := newMemSchedRepo()
	req := weeklyRequest(52)

	// Block the 7th occurrence's window.
	occ7 := futureDate(7).AddDate(0, 0, 6*7).Add(14 * time.Hour)
	repo.blocks = append(repo.blocks, models.Block{
		ID: "bl-vacation", WalkerID: "w1",
		Start: occ7.Add(-time.Hour), End: occ7.Add(2 * time.Hour),
	})

	c := testCoordinator(repo, newFakeKeyLock())
	result, err := c.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Len(t, result.CreatedBookingIDs, 51)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 6, result.Skipped[0].Index)
	assert.Equal(t, models.ConflictReasonBlock, result.Skipped[0].Reason)
	assert.Equal(t, "bl-vacation", result.Skipped[0].ConflictingID)
	assert.Equal(t, 51, repo.bookingCount())
}

func TestCreateSeriesReplayIsIdentical(t *testing.T) {
	repo := newMemSchedRepo()
	c := testCoordinator(repo, newFakeKeyLock())
	req := weeklyRequest(8)

	first, err := c.Create(context.Background(), req)
	require.NoError(t, err)
	countAfterFirst := repo.bookingCount()

	second, err := c.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second, "replay must return the stored result unchanged")
	assert.Equal(t, countAfterFirst, repo.bookingCount(), "replay must not create bookings")
}

func TestCreateSeriesDistinctKeysDistinctSeries(t *testing.T) {
	repo := newMemSchedRepo()
	c := testCoordinator(repo, newFakeKeyLock())

	first := weeklyRequest(2)
	first.Rule.TimeOfDay = 9 * 60
	second := weeklyRequest(2)
	second.Rule.TimeOfDay = 16 * 60
	second.IdempotencyKey = "key-2"

	r1, err := c.Create(context.Background(), first)
	require.NoError(t, err)
	r2, err := c.Create(context.Background(), second)
	require.NoError(t, err)

	assert.NotEqual(t, r1.SeriesID, r2.SeriesID)
	assert.Equal(t, 4, repo.bookingCount())
}

func TestCreateSeriesTransactionFailureRollsBack(t *testing.T) {
	repo := newMemSchedRepo()
	repo.failTx = errors.New("primary stepped down")
	c := testCoordinator(repo, newFakeKeyLock())

	_, err := c.Create(context.Background(), weeklyRequest(8))
	require.Error(t, err)

	var txErr *StorageTransactionError
	assert.True(t, errors.As(err, &txErr))
	assert.Equal(t, 0, repo.bookingCount(), "no partial series may survive a failed transaction")

	record, getErr := repo.GetIdempotencyRecord(context.Background(), "key-1")
	require.NoError(t, getErr)
	assert.Nil(t, record, "a failed creation must not leave a replayable record")
}

func TestCreateSeriesRetryAfterFailureSucceeds(t *testing.T) {
	repo := newMemSchedRepo()
	repo.failTx = errors.New("primary stepped down")
	c := testCoordinator(repo, newFakeKeyLock())
	req := weeklyRequest(8)

	_, err := c.Create(context.Background(), req)
	require.Error(t, err)

	repo.failTx = nil
	result, err := c.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, result.CreatedBookingIDs, 8)
}

func TestCreateSeriesDuplicateBookingTranslated(t *testing.T) {
	repo := newMemSchedRepo()
	req := weeklyRequest(4)

	// The customer already holds the same service at the second occurrence's
	// start time, booked with a different walker: no schedule conflict for
	// w1, but the uniqueness constraint rejects the insert.
	occ2 := futureDate(7).AddDate(0, 0, 7).Add(14 * time.Hour)
	repo.bookings = append(repo.bookings, models.Booking{
		ID: "bk-other", WalkerID: "w2", CustomerID: "cust-1", ServiceID: "svc-walk-60",
		Status: models.BookingStatusConfirmed,
		Start:  occ2, End: occ2.Add(time.Hour),
	})

	c := testCoordinator(repo, newFakeKeyLock())
	result, err := c.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Len(t, result.CreatedBookingIDs, 3)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 1, result.Skipped[0].Index)
	assert.Equal(t, models.ConflictReasonDuplicate, result.Skipped[0].Reason)
}

func TestCreateSeriesValidatesBeforeTouchingStorage(t *testing.T) {
	repo := newMemSchedRepo()
	c := testCoordinator(repo, newFakeKeyLock())

	req := weeklyRequest(4)
	req.Rule.DurationMin = 0

	_, err := c.Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Equal(t, 0, repo.fetchCalls, "validation failures must not reach the repository")

	req = weeklyRequest(4)
	req.IdempotencyKey = ""
	_, err = c.Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	req = weeklyRequest(4)
	req.Service.ServiceID = ""
	_, err = c.Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestCreateSeriesWaitsOutInFlightDuplicate(t *testing.T) {
	repo := newMemSchedRepo()
	locks := newFakeKeyLock()
	c := testCoordinator(repo, locks)
	req := weeklyRequest(4)

	// Another replica holds the creation lock and finishes shortly after.
	require.NotNil(t, locks)
	_, err := locks.Acquire(context.Background(), req.IdempotencyKey, time.Minute)
	require.NoError(t, err)

	stored := models.IdempotencyRecord{
		Key:         req.IdempotencyKey,
		RequestedAt: time.Now(),
		ExpiresAt:   time.Now().Add(time.Hour),
		Status:      models.IdempotencyStatusComplete,
		Result: models.SeriesResult{
			SeriesID:          "series-elsewhere",
			CreatedBookingIDs: []string{"b1", "b2"},
			Skipped:           []models.SkippedOccurrence{},
		},
	}
	go func() {
		time.Sleep(15 * time.Millisecond)
		repo.mu.Lock()
		repo.records[req.IdempotencyKey] = stored
		repo.mu.Unlock()
	}()

	result, err := c.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "series-elsewhere", result.SeriesID)
	assert.Equal(t, 0, repo.bookingCount())
}

func TestCreateSeriesInFlightTimeout(t *testing.T) {
	repo := newMemSchedRepo()
	locks := newFakeKeyLock()
	locks.deny = true // the other holder never finishes

	c := testCoordinator(repo, locks)
	_, err := c.Create(context.Background(), weeklyRequest(4))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSeriesInFlightTimeout)
}

func TestCreateSeriesAllConflictingStillSucceeds(t *testing.T) {
	repo := newMemSchedRepo()
	req := weeklyRequest(2)

	// Both occurrences land inside standing blocked time.
	for i := 0; i < 2; i++ {
		occ := futureDate(7).AddDate(0, 0, 7*i).Add(14 * time.Hour)
		repo.blocks = append(repo.blocks, models.Block{
			ID: "bl", WalkerID: "w1", Start: occ, End: occ.Add(time.Hour),
		})
	}

	c := testCoordinator(repo, newFakeKeyLock())
	result, err := c.Create(context.Background(), req)
	require.NoError(t, err, "an all-conflict batch is a partial success, not an error")
	assert.Empty(t, result.CreatedBookingIDs)
	assert.Len(t, result.Skipped, 2)
	assert.NotEmpty(t, result.SeriesID)
}

func TestCreateSeriesRetryAfterFirstOccurrencePassed(t *testing.T) {
	repo := newMemSchedRepo()
	c := testCoordinator(repo, newFakeKeyLock())

	req := weeklyRequest(4)
	first, err := c.Create(context.Background(), req)
	require.NoError(t, err)
	countAfterFirst := repo.bookingCount()

	// A client retrying the same key after the first occurrence's start has
	// passed must get the stored result back, not a past-date rejection.
	retry := req
	retry.Rule.StartDate = time.Now().AddDate(0, 0, -7).Format("2006-01-02")
	second, err := c.Create(context.Background(), retry)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, countAfterFirst, repo.bookingCount())
}

func TestCreateSeriesExpiredRecordDoesNotBlockKeyReuse(t *testing.T) {
	repo := newMemSchedRepo()
	// A stale record the TTL sweep has not removed yet.
	repo.records["key-1"] = models.IdempotencyRecord{
		Key:         "key-1",
		RequestedAt: time.Now().Add(-48 * time.Hour),
		ExpiresAt:   time.Now().Add(-24 * time.Hour),
		Status:      models.IdempotencyStatusComplete,
		Result:      models.SeriesResult{SeriesID: "old-series"},
	}

	c := testCoordinator(repo, newFakeKeyLock())
	result, err := c.Create(context.Background(), weeklyRequest(2))
	require.NoError(t, err)

	assert.NotEqual(t, "old-series", result.SeriesID)
	assert.Len(t, result.CreatedBookingIDs, 2)

	stored, ok := repo.records["key-1"]
	require.True(t, ok)
	assert.Equal(t, result.SeriesID, stored.Result.SeriesID, "the stale record must be replaced")
}
