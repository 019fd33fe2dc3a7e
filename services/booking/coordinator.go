package booking

import (
	"context"
	"sort"
	"time"

	schedulerRepo "walkly/database/repository/scheduler"
	"walkly/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CoordinatorOptions tunes idempotency and in-flight waiting.
type CoordinatorOptions struct {
	IdempotencyTTL time.Duration // how long a key maps to its stored result
	LockTTL        time.Duration // creation lock lifetime
	PollInterval   time.Duration // result polling while another caller creates
	PollTimeout    time.Duration // give up waiting on an in-flight creation
}

// DefaultCoordinator orchestrates idempotent, atomic creation of a recurring
// series: replay a live stored result, wait out an in-flight duplicate, or
// expand, conflict-check and persist everything in one transaction.
type DefaultCoordinator struct {
	Repo     schedulerRepo.SchedulerRepository
	Detector ConflictDetector
	Locks    KeyLock
	Opts     CoordinatorOptions
	Logger   *zap.Logger
}

// Create creates a recurring series. Conflicting occurrences are a partial
// success reported in the result, never an error; storage failures roll the
// whole creation back.
func (c *DefaultCoordinator) Create(ctx context.Context, req models.RecurringBookingRequest) (*models.SeriesResult, error) {
	now := time.Now()

	if req.IdempotencyKey == "" {
		return nil, NewValidationError("idempotencyKey", "is required")
	}
	if req.Service.ServiceID == "" {
		return nil, NewValidationError("service.serviceId", "is required")
	}

	// Replay before rule validation: a retry of an already-created series
	// must return the stored result even if the rule's first occurrence has
	// meanwhile slipped into the past.
	if result, ok, err := c.replay(ctx, req.IdempotencyKey, now); err != nil {
		return nil, err
	} else if ok {
		return result, nil
	}

	if err := ValidateRule(req.Rule, now); err != nil {
		return nil, err
	}

	acquired, err := c.Locks.Acquire(ctx, req.IdempotencyKey, c.Opts.LockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		// Someone else is creating with this key; wait for their result.
		return c.awaitResult(ctx, req.IdempotencyKey)
	}
	defer func() {
		if err := c.Locks.Release(context.Background(), req.IdempotencyKey); err != nil {
			c.Logger.Warn("failed to release creation lock",
				zap.String("key", req.IdempotencyKey), zap.Error(err))
		}
	}()

	// The lock may have been acquired just after a completed creation.
	if result, ok, err := c.replay(ctx, req.IdempotencyKey, now); err != nil {
		return nil, err
	} else if ok {
		return result, nil
	}

	occs := ExpandRule(req.Rule)
	verdicts, err := c.Detector.Detect(ctx, req.WalkerID, occs)
	if err != nil {
		return nil, err
	}

	series := &models.RecurringSeries{
		ID:             uuid.New().String(),
		CustomerID:     req.CustomerID,
		WalkerID:       req.WalkerID,
		ServiceID:      req.Service.ServiceID,
		Rule:           req.Rule,
		IdempotencyKey: req.IdempotencyKey,
		Status:         models.SeriesStatusActive,
		CreatedAt:      now,
	}

	var bookings []*models.Booking
	var occIdxByBooking []int
	var skipped []models.SkippedOccurrence
	for i, v := range verdicts {
		occ := occs[i]
		if !v.OK {
			skipped = append(skipped, models.SkippedOccurrence{
				Index:         i,
				Start:         occ.Start,
				End:           occ.End,
				Reason:        v.Reason,
				ConflictingID: v.ConflictingID,
			})
			continue
		}
		bookings = append(bookings, &models.Booking{
			ID:         uuid.New().String(),
			SeriesID:   series.ID,
			CustomerID: req.CustomerID,
			WalkerID:   req.WalkerID,
			ServiceID:  req.Service.ServiceID,
			Location:   req.Service.Location,
			Start:      occ.Start,
			End:        occ.End,
			Status:     models.BookingStatusPending,
			CreatedAt:  now,
		})
		occIdxByBooking = append(occIdxByBooking, i)
	}

	var result models.SeriesResult
	_, _, err = c.Repo.InsertSeriesTransactionally(ctx, series, bookings,
		func(createdIDs []string, duplicateIdx []int) models.IdempotencyRecord {
			finalSkipped := skipped
			for _, bi := range duplicateIdx {
				occIdx := occIdxByBooking[bi]
				finalSkipped = append(finalSkipped, models.SkippedOccurrence{
					Index:  occIdx,
					Start:  occs[occIdx].Start,
					End:    occs[occIdx].End,
					Reason: models.ConflictReasonDuplicate,
				})
			}
			sortSkipped(finalSkipped)
			result = models.SeriesResult{
				SeriesID:          series.ID,
				CreatedBookingIDs: createdIDs,
				Skipped:           finalSkipped,
			}
			return models.IdempotencyRecord{
				Key:         req.IdempotencyKey,
				RequestedAt: now,
				ExpiresAt:   now.Add(c.Opts.IdempotencyTTL),
				Status:      models.IdempotencyStatusComplete,
				Result:      result,
			}
		})
	if err != nil {
		return nil, &StorageTransactionError{Err: err}
	}

	c.Logger.Info("recurring series created",
		zap.String("seriesID", series.ID),
		zap.String("walkerID", req.WalkerID),
		zap.Int("created", len(result.CreatedBookingIDs)),
		zap.Int("skipped", len(result.Skipped)))

	return &result, nil
}

// replay returns the stored result for a live, complete idempotency record.
func (c *DefaultCoordinator) replay(ctx context.Context, key string, now time.Time) (*models.SeriesResult, bool, error) {
	record, err := c.Repo.GetIdempotencyRecord(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if record == nil || !record.Live(now) || record.Status != models.IdempotencyStatusComplete {
		return nil, false, nil
	}
	result := record.Result
	return &result, true, nil
}

// awaitResult polls for the in-flight creation's stored result.
func (c *DefaultCoordinator) awaitResult(ctx context.Context, key string) (*models.SeriesResult, error) {
	deadline := time.Now().Add(c.Opts.PollTimeout)
	ticker := time.NewTicker(c.Opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			if result, ok, err := c.replay(ctx, key, time.Now()); err != nil {
				return nil, err
			} else if ok {
				return result, nil
			}
			if time.Now().After(deadline) {
				return nil, ErrSeriesInFlightTimeout
			}
		}
	}
}

func sortSkipped(s []models.SkippedOccurrence) {
	sort.Slice(s, func(i, j int) bool { return s[i].Index < s[j].Index })
}
