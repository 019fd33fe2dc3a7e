package schedulerRepo

import (
	"context"
	"fmt"
	"time"

	"walkly/database"
	"walkly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSchedulerRepo implements SchedulerRepository on MongoDB.
type MongoSchedulerRepo struct {
	walkerColl  *mongo.Collection
	windowColl  *mongo.Collection
	bookingColl *mongo.Collection
	blockColl   *mongo.Collection
	seriesColl  *mongo.Collection
	idemColl    *mongo.Collection
}

// NewMongoSchedulerRepo wires the repo against the default database.
func NewMongoSchedulerRepo() *MongoSchedulerRepo {
	db := database.MongoClient.Database("walkly")
	return &MongoSchedulerRepo{
		walkerColl:  db.Collection("walkers"),
		windowColl:  db.Collection("working_windows"),
		bookingColl: db.Collection("bookings"),
		blockColl:   db.Collection("blocks"),
		seriesColl:  db.Collection("recurring_series"),
		idemColl:    db.Collection("idempotency_keys"),
	}
}

func (repo *MongoSchedulerRepo) GetWalker(ctx context.Context, walkerID string) (*models.Walker, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var walker models.Walker
	err := repo.walkerColl.FindOne(ctxWithTimeout, bson.M{"id": walkerID}).Decode(&walker)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching walker: %w", err)
	}
	return &walker, nil
}

// GetWorkingWindow returns the walker's window for the weekday, or nil when
// the walker does not work that day.
func (repo *MongoSchedulerRepo) GetWorkingWindow(ctx context.Context, walkerID string, weekday time.Weekday) (*models.WorkingWindow, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var window models.WorkingWindow
	err := repo.windowColl.FindOne(ctxWithTimeout, bson.M{"walker_id": walkerID, "weekday": weekday}).Decode(&window)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching working window: %w", err)
	}
	return &window, nil
}

// GetBookingsInRange returns non-cancelled bookings intersecting [from, to),
// sorted by start.
func (repo *MongoSchedulerRepo) GetBookingsInRange(ctx context.Context, walkerID string, from, to time.Time) ([]models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"walker_id": walkerID,
		"status":    bson.M{"$ne": models.BookingStatusCancelled},
		"start":     bson.M{"$lt": to},
		"end":       bson.M{"$gt": from},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})
	cursor, err := repo.bookingColl.Find(ctxWithTimeout, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching bookings: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	var bookings []models.Booking
	if err := cursor.All(ctxWithTimeout, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}

// GetBlocksInRange returns blocks intersecting [from, to), plus all weekly
// recurring blocks for the walker (the caller materializes those onto days).
func (repo *MongoSchedulerRepo) GetBlocksInRange(ctx context.Context, walkerID string, from, to time.Time) ([]models.Block, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"walker_id": walkerID,
		"$or": bson.A{
			bson.M{"start": bson.M{"$lt": to}, "end": bson.M{"$gt": from}},
			bson.M{"recurring": true},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})
	cursor, err := repo.blockColl.Find(ctxWithTimeout, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching blocks: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	var blocks []models.Block
	if err := cursor.All(ctxWithTimeout, &blocks); err != nil {
		return nil, fmt.Errorf("error decoding blocks: %w", err)
	}
	return blocks, nil
}

// CreateBooking inserts a new booking document.
func (repo *MongoSchedulerRepo) CreateBooking(ctx context.Context, booking *models.Booking) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.bookingColl.InsertOne(ctxWithTimeout, booking); err != nil {
		return fmt.Errorf("error creating booking: %w", err)
	}
	return nil
}

// CreateBlock inserts a new unavailability block.
func (repo *MongoSchedulerRepo) CreateBlock(ctx context.Context, block *models.Block) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.blockColl.InsertOne(ctxWithTimeout, block); err != nil {
		return fmt.Errorf("error creating block: %w", err)
	}
	return nil
}

// WalkerIDsWithBookings lists walkers that hold non-cancelled bookings
// intersecting [from, to).
func (repo *MongoSchedulerRepo) WalkerIDsWithBookings(ctx context.Context, from, to time.Time) ([]string, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"status": bson.M{"$ne": models.BookingStatusCancelled},
		"start":  bson.M{"$lt": to},
		"end":    bson.M{"$gt": from},
	}
	raw, err := repo.bookingColl.Distinct(ctxWithTimeout, "walker_id", filter)
	if err != nil {
		return nil, fmt.Errorf("error listing walkers with bookings: %w", err)
	}
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, nil
}
