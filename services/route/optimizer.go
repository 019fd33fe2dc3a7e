package route

import (
	"context"
	"errors"
	"sort"
	"time"

	schedulerRepo "walkly/database/repository/scheduler"
	"walkly/models"
	"walkly/services/travel"

	"go.uber.org/zap"
)

// ErrUnsupportedMode rejects route modes the optimizer does not implement.
var ErrUnsupportedMode = errors.New("unsupported route mode")

// RemoteOptimizer is an optional external ordering service. When it fails,
// the optimizer falls back to the local nearest-neighbor heuristic.
type RemoteOptimizer interface {
	Optimize(ctx context.Context, current models.Location, stops []models.RouteStop) ([]models.RouteStop, int, error)
}

// RouteService reorders a walker's stops for a day.
type RouteService interface {
	Optimize(ctx context.Context, walkerID string, date time.Time, mode string, current models.Location) (*models.RoutePlan, error)
}

// DefaultOptimizer suggests a visiting order for a walker's existing stops.
// It never mutates a booking's stored scheduled times; the plan is a
// presentation suggestion plus a travel estimate.
type DefaultOptimizer struct {
	Repo   schedulerRepo.SchedulerRepository
	Oracle travel.Estimator
	Remote RemoteOptimizer
	Logger *zap.Logger
}

// Optimize loads the day's non-cancelled bookings and orders them by mode.
// minimize_travel is a greedy nearest-neighbor pass — an approximation, never
// an optimal tour — and its total never exceeds the chronological baseline.
func (o *DefaultOptimizer) Optimize(ctx context.Context, walkerID string, date time.Time, mode string, current models.Location) (*models.RoutePlan, error) {
	plan := &models.RoutePlan{
		WalkerID: walkerID,
		Date:     date.Format("2006-01-02"),
		Mode:     mode,
		Stops:    []models.RouteStop{},
	}

	bookings, err := o.Repo.GetBookingsInRange(ctx, walkerID, date, date.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	chrono := make([]models.RouteStop, 0, len(bookings))
	for _, b := range bookings {
		if !b.Occupies() {
			continue
		}
		chrono = append(chrono, models.RouteStop{
			BookingID:      b.ID,
			Location:       b.Location,
			ScheduledStart: b.Start,
			ScheduledEnd:   b.End,
			Status:         b.Status,
		})
	}
	sort.SliceStable(chrono, func(i, j int) bool {
		return chrono[i].ScheduledStart.Before(chrono[j].ScheduledStart)
	})

	switch mode {
	case models.RouteModePriorityFirst:
		// Stable partition by the priority predicate; relative time order is
		// preserved inside each part. No oracle calls.
		plan.Stops = partitionByPriority(chrono)
		plan.Strategy = "priority_first"
		plan.ComputedLocally = true
		return plan, nil

	case models.RouteModeChronological, models.RouteModeMinimizeTravel:
	default:
		return nil, ErrUnsupportedMode
	}

	baseline, baselineLegs, err := o.travelTotal(ctx, current, chrono, plan)
	if err != nil {
		return nil, err
	}
	plan.BaselineTravelSeconds = baseline

	if mode == models.RouteModeChronological {
		plan.Stops = baselineLegs
		plan.TotalTravelSeconds = baseline
		plan.Strategy = "chronological"
		plan.ComputedLocally = true
		return plan, nil
	}

	if o.Remote != nil {
		stops, total, err := o.Remote.Optimize(ctx, current, chrono)
		if err == nil {
			plan.Stops = stops
			plan.TotalTravelSeconds = total
			plan.Strategy = "remote"
			return plan, nil
		}
		o.Logger.Warn("remote route optimizer failed, using local heuristic",
			zap.String("walkerID", walkerID), zap.Error(err))
	}

	nnStops, nnTotal, err := o.nearestNeighbor(ctx, current, chrono, plan)
	if err != nil {
		return nil, err
	}
	plan.Strategy = "nearest_neighbor"
	plan.ComputedLocally = true

	// The suggestion must never travel more than simply visiting stops in
	// time order; keep whichever ordering travels less.
	if nnTotal <= baseline {
		plan.Stops = nnStops
		plan.TotalTravelSeconds = nnTotal
	} else {
		plan.Stops = baselineLegs
		plan.TotalTravelSeconds = baseline
	}
	return plan, nil
}

// travelTotal estimates per-leg travel for stops in their given order.
func (o *DefaultOptimizer) travelTotal(ctx context.Context, current models.Location, stops []models.RouteStop, plan *models.RoutePlan) (int, []models.RouteStop, error) {
	out := make([]models.RouteStop, len(stops))
	copy(out, stops)

	total := 0
	pos := current
	for i := range out {
		est, err := o.Oracle.Estimate(ctx, pos, out[i].Location, out[i].ScheduledStart)
		if err != nil {
			return 0, nil, err
		}
		if est.Source == models.TravelSourceFallback {
			plan.Degraded = true
		}
		out[i].TravelSeconds = est.Seconds
		total += est.Seconds
		pos = out[i].Location
	}
	return total, out, nil
}

// nearestNeighbor repeatedly appends the unvisited stop with the smallest
// estimated travel time from the current position. O(n²) oracle calls,
// acceptable for typical daily stop counts.
func (o *DefaultOptimizer) nearestNeighbor(ctx context.Context, current models.Location, stops []models.RouteStop, plan *models.RoutePlan) ([]models.RouteStop, int, error) {
	remaining := make([]models.RouteStop, len(stops))
	copy(remaining, stops)

	ordered := make([]models.RouteStop, 0, len(stops))
	total := 0
	pos := current

	for len(remaining) > 0 {
		bestIdx := -1
		bestSeconds := 0
		for i, s := range remaining {
			est, err := o.Oracle.Estimate(ctx, pos, s.Location, s.ScheduledStart)
			if err != nil {
				return nil, 0, err
			}
			if est.Source == models.TravelSourceFallback {
				plan.Degraded = true
			}
			if bestIdx < 0 || est.Seconds < bestSeconds {
				bestIdx = i
				bestSeconds = est.Seconds
			}
		}
		next := remaining[bestIdx]
		next.TravelSeconds = bestSeconds
		ordered = append(ordered, next)
		total += bestSeconds
		pos = next.Location
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return ordered, total, nil
}

// partitionByPriority moves stops awaiting confirmation ahead of the rest,
// preserving relative order inside each partition.
func partitionByPriority(stops []models.RouteStop) []models.RouteStop {
	out := make([]models.RouteStop, 0, len(stops))
	for _, s := range stops {
		if s.Status == models.BookingStatusPending {
			out = append(out, s)
		}
	}
	for _, s := range stops {
		if s.Status != models.BookingStatusPending {
			out = append(out, s)
		}
	}
	return out
}
