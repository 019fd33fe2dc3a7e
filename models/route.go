package models

import "time"

// Route ordering modes.
const (
	RouteModeChronological  = "chronological"
	RouteModeMinimizeTravel = "minimize_travel"
	RouteModePriorityFirst  = "priority_first"
)

// RouteStop is one stop in a suggested visiting order. The booking's stored
// scheduled times are never mutated by route optimization.
type RouteStop struct {
	BookingID      string    `json:"booking_id"`
	Location       Location  `json:"location"`
	ScheduledStart time.Time `json:"scheduled_start"`
	ScheduledEnd   time.Time `json:"scheduled_end"`
	Status         string    `json:"status"`
	TravelSeconds  int       `json:"travelSeconds"` // from the previous stop (or current location)
}

// RoutePlan is an ordering suggestion plus travel totals for a walker's day.
// Strategy names the heuristic used; this is never an exact TSP solution.
type RoutePlan struct {
	WalkerID              string      `json:"walker_id"`
	Date                  string      `json:"date"`
	Mode                  string      `json:"mode"`
	Stops                 []RouteStop `json:"stops"`
	TotalTravelSeconds    int         `json:"totalTravelSeconds"`
	BaselineTravelSeconds int         `json:"baselineTravelSeconds"`
	Strategy              string      `json:"strategy"` // e.g. "nearest_neighbor" — an approximation
	ComputedLocally       bool        `json:"computedLocally"`
	Degraded              bool        `json:"degraded"`
}
