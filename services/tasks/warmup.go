package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TypeTravelWarmup = "travel:warmup"

// WarmupPayload identifies one walker/day whose travel legs should be
// pre-estimated into the cache.
type WarmupPayload struct {
	WalkerID string `json:"walkerId"`
	Date     string `json:"date"` // "2006-01-02"
}

// NewTravelWarmupTask builds the warm-up task for one walker/day. The task id
// makes re-enqueues of the same walker/day no-ops.
func NewTravelWarmupTask(payload WarmupPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeTravelWarmup, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID("warmup:" + payload.Date + ":" + payload.WalkerID),
	}

	return task, opts, nil
}
