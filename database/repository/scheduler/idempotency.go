package schedulerRepo

import (
	"context"
	"fmt"
	"time"

	"walkly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// GetIdempotencyRecord returns the record for a key, or nil when no record
// exists. Expiry is the caller's concern; past-TTL records are handed back
// so the caller can decide whether to replay or recompute.
func (repo *MongoSchedulerRepo) GetIdempotencyRecord(ctx context.Context, key string) (*models.IdempotencyRecord, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var record models.IdempotencyRecord
	err := repo.idemColl.FindOne(ctxWithTimeout, bson.M{"key": key}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching idempotency record: %w", err)
	}
	return &record, nil
}
