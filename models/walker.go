package models

import "time"

// Walker represents a mobile service provider whose schedule is computed.
type Walker struct {
	ID       string   `bson:"id" json:"id"`
	Name     string   `bson:"name" json:"name"`
	HomeBase Location `bson:"home_base" json:"homeBase"` // travel origin for the first stop of a day
}

// WorkingWindow is a walker's single contiguous working span for one weekday.
// Times are minutes from midnight (e.g., 420 for 7:00 AM). Breaks inside the
// window are modeled as Blocks, not as additional windows.
type WorkingWindow struct {
	WalkerID string       `bson:"walker_id" json:"walker_id"`
	Weekday  time.Weekday `bson:"weekday" json:"weekday"`
	StartMin int          `bson:"start_min" json:"start_min"`
	EndMin   int          `bson:"end_min" json:"end_min"`
}

// Block is walker-initiated unavailability.
type Block struct {
	ID        string    `bson:"id" json:"id"`
	WalkerID  string    `bson:"walker_id" json:"walker_id"`
	Start     time.Time `bson:"start" json:"start"`
	End       time.Time `bson:"end" json:"end"`
	Reason    string    `bson:"reason" json:"reason"`
	Recurring bool      `bson:"recurring" json:"recurring"` // repeats weekly at the same weekday/time
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// WalkerLiveLocation is the single-row, single-writer GPS report for a walker.
// Readers must treat it as absent once it exceeds the staleness threshold.
type WalkerLiveLocation struct {
	WalkerID  string    `bson:"walker_id" json:"walker_id"`
	Latitude  float64   `bson:"latitude" json:"latitude"`
	Longitude float64   `bson:"longitude" json:"longitude"`
	Accuracy  float64   `bson:"accuracy" json:"accuracy"` // meters
	OnDuty    bool      `bson:"on_duty" json:"on_duty"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
