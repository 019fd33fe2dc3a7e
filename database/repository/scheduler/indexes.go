package schedulerRepo

import (
	"context"
	"fmt"
	"time"

	"walkly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the scheduling engine relies on.
func (repo *MongoSchedulerRepo) EnsureIndexes(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Range queries by walker and day.
	if _, err := repo.bookingColl.Indexes().CreateOne(ctxWithTimeout, mongo.IndexModel{
		Keys: bson.D{{Key: "walker_id", Value: 1}, {Key: "start", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create booking range index: %w", err)
	}

	// Storage-level backstop: one non-cancelled booking per
	// (customer, service, scheduled start).
	if _, err := repo.bookingColl.Indexes().CreateOne(ctxWithTimeout, mongo.IndexModel{
		Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "service_id", Value: 1}, {Key: "start", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"status": bson.M{"$ne": models.BookingStatusCancelled}}),
	}); err != nil {
		return fmt.Errorf("failed to create booking uniqueness index: %w", err)
	}

	if _, err := repo.blockColl.Indexes().CreateOne(ctxWithTimeout, mongo.IndexModel{
		Keys: bson.D{{Key: "walker_id", Value: 1}, {Key: "start", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create block range index: %w", err)
	}

	if _, err := repo.windowColl.Indexes().CreateOne(ctxWithTimeout, mongo.IndexModel{
		Keys:    bson.D{{Key: "walker_id", Value: 1}, {Key: "weekday", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create working window index: %w", err)
	}

	// One live result per idempotency key, ever. Expired records are swept
	// by Mongo's TTL monitor keyed on expires_at.
	if _, err := repo.idemColl.Indexes().CreateOne(ctxWithTimeout, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create idempotency key index: %w", err)
	}
	if _, err := repo.idemColl.Indexes().CreateOne(ctxWithTimeout, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}); err != nil {
		return fmt.Errorf("failed to create idempotency TTL index: %w", err)
	}

	return nil
}
