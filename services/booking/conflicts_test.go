package booking

import (
	"context"
	"testing"
	"time"

	"walkly/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(hour, min int) time.Time {
	return time.Date(2026, time.March, 10, hour, min, 0, 0, time.Local)
}

func detectorWith(repo *memSchedRepo) *DefaultConflictDetector {
	return &DefaultConflictDetector{Repo: repo, Buffer: 15 * time.Minute}
}

func TestDetectEmptyBatch(t *testing.T) {
	d := detectorWith(newMemSchedRepo())
	verdicts, err := d.Detect(context.Background(), "w1", nil)
	require.NoError(t, err)
	assert.Empty(t, verdicts)
}

func TestDetectOverlapWithBooking(t *testing.T) {
	repo := newMemSchedRepo()
	repo.bookings = append(repo.bookings, models.Booking{
		ID: "bk-1", WalkerID: "w1", Status: models.BookingStatusConfirmed,
		Start: day(10, 0), End: day(11, 0),
	})
	d := detectorWith(repo)

	verdicts, err := d.Detect(context.Background(), "w1", []models.Occurrence{
		{Start: day(10, 30), End: day(11, 30)},
	})
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.False(t, verdicts[0].OK)
	assert.Equal(t, models.ConflictReasonOverlap, verdicts[0].Reason)
	assert.Equal(t, "bk-1", verdicts[0].ConflictingID)
}

func TestDetectBlockConflict(t *testing.T) {
	repo := newMemSchedRepo()
	repo.blocks = append(repo.blocks, models.Block{
		ID: "bl-1", WalkerID: "w1",
		Start: day(12, 0), End: day(13, 0),
	})
	d := detectorWith(repo)

	verdicts, err := d.Detect(context.Background(), "w1", []models.Occurrence{
		{Start: day(12, 15), End: day(12, 45)},
	})
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.False(t, verdicts[0].OK)
	assert.Equal(t, models.ConflictReasonBlock, verdicts[0].Reason)
	assert.Equal(t, "bl-1", verdicts[0].ConflictingID)
}

func TestDetectTravelBufferViolation(t *testing.T) {
	repo := newMemSchedRepo()
	repo.bookings = append(repo.bookings, models.Booking{
		ID: "bk-1", WalkerID: "w1", Status: models.BookingStatusConfirmed,
		Start: day(10, 0), End: day(11, 0),
	})
	d := detectorWith(repo)

	verdicts, err := d.Detect(context.Background(), "w1", []models.Occurrence{
		// Starts 10 minutes after the booking ends; buffer is 15.
		{Start: day(11, 10), End: day(12, 0)},
		// Ends 10 minutes before the booking starts.
		{Start: day(9, 0), End: day(9, 50)},
		// Clear of the booking on both sides.
		{Start: day(13, 0), End: day(14, 0)},
	})
	require.NoError(t, err)
	require.Len(t, verdicts, 3)

	assert.False(t, verdicts[0].OK)
	assert.Equal(t, models.ConflictReasonTravelBuffer, verdicts[0].Reason)
	assert.Equal(t, "bk-1", verdicts[0].ConflictingID)

	assert.False(t, verdicts[1].OK)
	assert.Equal(t, models.ConflictReasonTravelBuffer, verdicts[1].Reason)

	assert.True(t, verdicts[2].OK)
}

func TestDetectInBatchCollisions(t *testing.T) {
	d := detectorWith(newMemSchedRepo())

	verdicts, err := d.Detect(context.Background(), "w1", []models.Occurrence{
		{Start: day(10, 0), End: day(11, 0)},
		{Start: day(10, 30), End: day(11, 30)}, // overlaps the first
		{Start: day(11, 5), End: day(12, 0)},   // inside the first's buffer
		{Start: day(12, 0), End: day(13, 0)},   // fine against the first
	})
	require.NoError(t, err)
	require.Len(t, verdicts, 4)

	assert.True(t, verdicts[0].OK)

	assert.False(t, verdicts[1].OK)
	assert.Equal(t, models.ConflictReasonOverlap, verdicts[1].Reason)
	assert.Equal(t, "occurrence:0", verdicts[1].ConflictingID)

	assert.False(t, verdicts[2].OK)
	assert.Equal(t, models.ConflictReasonTravelBuffer, verdicts[2].Reason)
	assert.Equal(t, "occurrence:0", verdicts[2].ConflictingID)

	assert.True(t, verdicts[3].OK)
}

func TestDetectPreservesInputOrder(t *testing.T) {
	d := detectorWith(newMemSchedRepo())

	// Out-of-order input; verdicts must come back positionally.
	verdicts, err := d.Detect(context.Background(), "w1", []models.Occurrence{
		{Start: day(15, 0), End: day(16, 0)},
		{Start: day(9, 0), End: day(10, 0)},
		{Start: day(12, 0), End: day(13, 0)},
	})
	require.NoError(t, err)
	require.Len(t, verdicts, 3)
	for i, v := range verdicts {
		assert.Equal(t, i, v.Index)
		assert.True(t, v.OK)
	}
}

func TestDetectSingleFetchPerKind(t *testing.T) {
	repo := newMemSchedRepo()
	d := detectorWith(repo)

	occs := make([]models.Occurrence, 0, 52)
	for i := 0; i < 52; i++ {
		start := day(14, 0).AddDate(0, 0, 7*i)
		occs = append(occs, models.Occurrence{Start: start, End: start.Add(time.Hour)})
	}

	_, err := d.Detect(context.Background(), "w1", occs)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.fetchCalls, "one bookings fetch plus one blocks fetch")
}

func TestDetectRecurringBlock(t *testing.T) {
	repo := newMemSchedRepo()
	// Weekly block every Tuesday noon, created weeks earlier.
	repo.blocks = append(repo.blocks, models.Block{
		ID: "bl-rec", WalkerID: "w1", Recurring: true,
		Start: day(12, 0).AddDate(0, 0, -28), End: day(13, 0).AddDate(0, 0, -28),
	})
	d := detectorWith(repo)

	verdicts, err := d.Detect(context.Background(), "w1", []models.Occurrence{
		{Start: day(12, 0), End: day(12, 30)},
		{Start: day(15, 0), End: day(15, 30)},
	})
	require.NoError(t, err)
	require.Len(t, verdicts, 2)
	assert.False(t, verdicts[0].OK)
	assert.Equal(t, models.ConflictReasonBlock, verdicts[0].Reason)
	assert.True(t, verdicts[1].OK)
}

func TestDetectLongCommitmentBehindShortOne(t *testing.T) {
	repo := newMemSchedRepo()
	// The all-day block starts first; the short one starts later but ends
	// hours earlier, so scanning backwards must not stop at it.
	repo.blocks = append(repo.blocks,
		models.Block{ID: "bl-long", WalkerID: "w1", Start: day(9, 0), End: day(14, 0)},
		models.Block{ID: "bl-short", WalkerID: "w1", Start: day(9, 30), End: day(9, 45)},
	)
	d := detectorWith(repo)

	verdicts, err := d.Detect(context.Background(), "w1", []models.Occurrence{
		{Start: day(9, 50), End: day(10, 0)},
		{Start: day(12, 0), End: day(13, 0)},
	})
	require.NoError(t, err)
	require.Len(t, verdicts, 2)

	assert.False(t, verdicts[0].OK)
	assert.Equal(t, models.ConflictReasonBlock, verdicts[0].Reason)
	assert.Equal(t, "bl-long", verdicts[0].ConflictingID)

	assert.False(t, verdicts[1].OK)
	assert.Equal(t, models.ConflictReasonBlock, verdicts[1].Reason)
	assert.Equal(t, "bl-long", verdicts[1].ConflictingID)
}
