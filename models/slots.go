package models

import "time"

// AvailableSlot is one feasible start time for a new appointment. Infeasible
// candidates are dropped during generation, never returned disabled.
type AvailableSlot struct {
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	TravelMinutes int       `json:"travelMinutes"` // estimate to reach the service location
	Tight         bool      `json:"tight"`         // feasibility margin below the tightness threshold
}

// AvailabilityResult is the slot list for one walker/day, chronologically
// ordered and deterministic for fixed inputs and cache state.
type AvailabilityResult struct {
	WalkerID     string          `json:"walker_id"`
	Date         string          `json:"date"` // "2006-01-02"
	Slots        []AvailableSlot `json:"slots"`
	LiveAdjusted bool            `json:"liveAdjusted"` // at least one origin came from a fresh live location
	Degraded     bool            `json:"degraded"`     // at least one travel estimate fell back
}
