package booking

import (
	"context"
	"fmt"
	"time"

	schedulerRepo "walkly/database/repository/scheduler"
	"walkly/models"
	"walkly/services/location"
	"walkly/services/travel"

	"go.uber.org/zap"
)

// GeneratorOptions tunes slot enumeration.
type GeneratorOptions struct {
	Step        time.Duration // candidate grid step
	Buffer      time.Duration // prep/parking time around travel
	TightMargin time.Duration // feasibility margin below which a slot is flagged tight
	LiveHorizon time.Duration // near-term window in which the live location may serve as origin
}

// SlotQuery describes one availability lookup.
type SlotQuery struct {
	WalkerID        string
	Date            time.Time // local midnight of the requested day
	ServiceLocation models.Location
	ServiceDuration time.Duration
	Now             time.Time
}

// DefaultSlotGenerator produces feasible appointment start times for a
// walker/day using the travel oracle.
type DefaultSlotGenerator struct {
	Repo   schedulerRepo.SchedulerRepository
	Oracle travel.Estimator
	Live   location.LiveStore
	Opts   GeneratorOptions
	Logger *zap.Logger
}

// Slots computes the ordered feasible slot list for the query. Output is
// chronological and deterministic for fixed inputs and cache state.
// Infeasible candidates are dropped entirely. On context cancellation the
// partial result is discarded.
func (g *DefaultSlotGenerator) Slots(ctx context.Context, q SlotQuery) (*models.AvailabilityResult, error) {
	if q.ServiceDuration <= 0 {
		return nil, NewValidationError("durationMin", "must be a positive number of minutes")
	}

	result := &models.AvailabilityResult{
		WalkerID: q.WalkerID,
		Date:     q.Date.Format(dateLayout),
		Slots:    []models.AvailableSlot{},
	}

	window, err := g.Repo.GetWorkingWindow(ctx, q.WalkerID, q.Date.Weekday())
	if err != nil {
		return nil, err
	}
	if window == nil {
		return result, nil
	}
	windowStart := q.Date.Add(time.Duration(window.StartMin) * time.Minute)
	windowEnd := q.Date.Add(time.Duration(window.EndMin) * time.Minute)

	dayEnd := q.Date.AddDate(0, 0, 1)
	bookings, err := g.Repo.GetBookingsInRange(ctx, q.WalkerID, q.Date, dayEnd)
	if err != nil {
		return nil, err
	}
	blocks, err := g.Repo.GetBlocksInRange(ctx, q.WalkerID, q.Date, dayEnd)
	if err != nil {
		return nil, err
	}

	walker, err := g.Repo.GetWalker(ctx, q.WalkerID)
	if err != nil {
		return nil, err
	}
	if walker == nil {
		return nil, NewValidationError("walkerId", "unknown walker")
	}

	// Live location only matters for today's near-term candidates. A stale
	// report silently degrades to the previous-commitment origin rule.
	var live *models.WalkerLiveLocation
	if sameDay(q.Date, q.Now) && g.Live != nil {
		live, err = g.Live.Get(ctx, q.WalkerID)
		if err != nil {
			g.Logger.Warn("live location unavailable, using commitment origins",
				zap.String("walkerID", q.WalkerID), zap.Error(err))
			live = nil
		}
	}

	commitments := collectCommitments(bookings, blocks, q.Date, dayEnd)
	busy := mergeBusy(commitments)
	gaps := freeGaps(busy, windowStart, windowEnd)

	for _, gp := range gaps {
		if err := g.fillGap(ctx, q, walker, gp, live, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// fillGap enumerates candidates within one free gap, starting at the earliest
// feasible time and stepping at the configured grid.
func (g *DefaultSlotGenerator) fillGap(
	ctx context.Context,
	q SlotQuery,
	walker *models.Walker,
	gp gap,
	live *models.WalkerLiveLocation,
	result *models.AvailabilityResult,
) error {
	// prevEnd is when the walker is free to start traveling toward the
	// service location: the preceding commitment's end, or the gap start.
	prevEnd := gp.start

	// Travel out of the gap toward the next commitment is computed lazily,
	// only when a located commitment follows in the same gap.
	nextTravelSeconds := -1

	for cand := gp.start; ; {
		if err := ctx.Err(); err != nil {
			return err
		}

		origin, liveUsed := g.originFor(q, walker, gp, live, cand)
		est, err := g.Oracle.Estimate(ctx, origin, q.ServiceLocation, cand)
		if err != nil {
			return err
		}
		if est.Source == models.TravelSourceFallback {
			result.Degraded = true
		}
		travelDur := time.Duration(est.Seconds) * time.Second

		// With no preceding commitment the walker departs home base early
		// enough; the window start is the only lower bound on future days.
		earliest := gp.start
		if gp.prev != nil {
			earliest = prevEnd.Add(travelDur + g.Opts.Buffer)
		}
		if sameDay(q.Date, q.Now) {
			// Departure cannot predate now, no matter how long ago the
			// previous commitment ended.
			if e := q.Now.Add(travelDur + g.Opts.Buffer); e.After(earliest) {
				earliest = e
			}
		}

		if cand.Before(earliest) {
			// Jump straight to the feasibility threshold; the grid resumes
			// from there.
			if earliest.Add(q.ServiceDuration).After(gp.end) {
				return nil
			}
			cand = earliest
			continue
		}

		candEnd := cand.Add(q.ServiceDuration)
		if candEnd.After(gp.end) {
			return nil
		}

		feasible := true
		margin := cand.Sub(earliest)

		if gp.next != nil {
			if gp.next.hasFirst {
				if nextTravelSeconds < 0 {
					nextEst, err := g.Oracle.Estimate(ctx, q.ServiceLocation, gp.next.firstLoc, candEnd)
					if err != nil {
						return err
					}
					if nextEst.Source == models.TravelSourceFallback {
						result.Degraded = true
					}
					nextTravelSeconds = nextEst.Seconds
				}
			} else if nextTravelSeconds < 0 {
				nextTravelSeconds = 0
			}
			latestEnd := gp.next.start.Add(-time.Duration(nextTravelSeconds)*time.Second - g.Opts.Buffer)
			if candEnd.After(latestEnd) {
				feasible = false
			} else if m := latestEnd.Sub(candEnd); m < margin {
				margin = m
			}
		}

		if feasible {
			if liveUsed {
				result.LiveAdjusted = true
			}
			result.Slots = append(result.Slots, models.AvailableSlot{
				Start:         cand,
				End:           candEnd,
				TravelMinutes: minutesCeil(est.Seconds),
				Tight:         margin < g.Opts.TightMargin,
			})
		}

		cand = cand.Add(g.Opts.Step)
	}
}

// originFor applies the travel-origin rules: a fresh live location for
// today's near-term candidates, otherwise the preceding commitment's
// location, otherwise the walker's home base.
func (g *DefaultSlotGenerator) originFor(
	q SlotQuery,
	walker *models.Walker,
	gp gap,
	live *models.WalkerLiveLocation,
	cand time.Time,
) (models.Location, bool) {
	if live != nil && sameDay(q.Date, q.Now) && cand.Sub(q.Now) <= g.Opts.LiveHorizon && cand.After(q.Now.Add(-time.Minute)) {
		return models.Location{
			ID:        fmt.Sprintf("%s%s", travel.LiveOriginPrefix, q.WalkerID),
			Latitude:  live.Latitude,
			Longitude: live.Longitude,
		}, true
	}
	if gp.prev != nil && gp.prev.hasLast {
		return gp.prev.lastLoc, false
	}
	return walker.HomeBase, false
}

func sameDay(date, now time.Time) bool {
	return date.Year() == now.Year() && date.YearDay() == now.YearDay()
}

func minutesCeil(seconds int) int {
	return (seconds + 59) / 60
}
