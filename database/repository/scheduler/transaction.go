package schedulerRepo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"walkly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// maxDuplicateRetries bounds how many times the series transaction is
// re-run when a concurrent writer races a booking insert.
const maxDuplicateRetries = 4

// InsertSeriesTransactionally persists the series row, one booking per
// creatable occurrence, and the idempotency record in a single transaction.
// Any storage failure aborts everything: zero series, zero bookings persist.
//
// Duplicates against existing (customer_id, service_id, start) bookings are
// detected with a read inside the transaction, so the writes and the check
// see the same snapshot. A write error inside a Mongo transaction aborts it
// server-side, so individual inserts are never allowed to fail: the unique
// index only fires when a concurrent writer lands the same triple after our
// snapshot, in which case the whole transaction is retried with that
// occurrence marked duplicate.
func (repo *MongoSchedulerRepo) InsertSeriesTransactionally(
	ctx context.Context,
	series *models.RecurringSeries,
	bookings []*models.Booking,
	makeRecord TxResultFn,
) ([]string, []int, error) {
	client := repo.seriesColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return nil, nil, fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	var createdIDs []string
	var duplicateIdx []int
	raced := make(map[int]bool)

	txnFn := func(sc mongo.SessionContext) error {
		createdIDs = createdIDs[:0]
		duplicateIdx = duplicateIdx[:0]

		existing, err := repo.findExistingTriples(sc, bookings)
		if err != nil {
			return fmt.Errorf("duplicate lookup failed: %w", err)
		}
		dup := duplicateIndexes(existing, bookings)

		if _, err := repo.seriesColl.InsertOne(sc, series); err != nil {
			return fmt.Errorf("insert series failed: %w", err)
		}

		for i, b := range bookings {
			if dup[i] || raced[i] {
				duplicateIdx = append(duplicateIdx, i)
				continue
			}
			if _, err := repo.bookingColl.InsertOne(sc, b); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					return &duplicateRaceError{idx: i, cause: err}
				}
				return fmt.Errorf("insert booking %d failed: %w", i, err)
			}
			createdIDs = append(createdIDs, b.ID)
		}
		sort.Ints(duplicateIdx)

		// The idempotency record commits atomically with the rows it
		// describes, so it is never visible before the result it maps to.
		// Replace-upsert on the key clears any expired record the TTL
		// monitor has not swept yet.
		record := makeRecord(createdIDs, duplicateIdx)
		if _, err := repo.idemColl.ReplaceOne(sc,
			bson.M{"key": record.Key}, &record,
			options.Replace().SetUpsert(true),
		); err != nil {
			return fmt.Errorf("upsert idempotency record failed: %w", err)
		}
		return nil
	}

	for attempt := 0; ; attempt++ {
		err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
			if err := sc.StartTransaction(); err != nil {
				return err
			}
			if err := txnFn(sc); err != nil {
				_ = sc.AbortTransaction(sc)
				return err
			}
			return sc.CommitTransaction(sc)
		})
		if err == nil {
			return createdIDs, duplicateIdx, nil
		}
		var race *duplicateRaceError
		if errors.As(err, &race) && attempt < maxDuplicateRetries {
			raced[race.idx] = true
			continue
		}
		return nil, nil, fmt.Errorf("series transaction failed: %w", err)
	}
}

type duplicateRaceError struct {
	idx   int
	cause error
}

func (e *duplicateRaceError) Error() string {
	return fmt.Sprintf("booking %d raced an existing duplicate: %v", e.idx, e.cause)
}

func (e *duplicateRaceError) Unwrap() error { return e.cause }

// findExistingTriples loads non-cancelled bookings matching any of the
// batch's (customer_id, service_id, start) triples.
func (repo *MongoSchedulerRepo) findExistingTriples(ctx context.Context, bookings []*models.Booking) ([]models.Booking, error) {
	if len(bookings) == 0 {
		return nil, nil
	}
	ors := make(bson.A, 0, len(bookings))
	for _, b := range bookings {
		ors = append(ors, bson.M{
			"customer_id": b.CustomerID,
			"service_id":  b.ServiceID,
			"start":       b.Start,
		})
	}
	filter := bson.M{
		"status": bson.M{"$ne": models.BookingStatusCancelled},
		"$or":    ors,
	}
	cursor, err := repo.bookingColl.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var existing []models.Booking
	if err := cursor.All(ctx, &existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// duplicateIndexes maps each batch index whose (customer, service, start)
// triple already exists among the given bookings.
func duplicateIndexes(existing []models.Booking, batch []*models.Booking) map[int]bool {
	if len(existing) == 0 {
		return nil
	}
	taken := make(map[string]bool, len(existing))
	for _, e := range existing {
		taken[tripleKey(e.CustomerID, e.ServiceID, e.Start.UnixMilli())] = true
	}
	dup := make(map[int]bool)
	for i, b := range batch {
		if taken[tripleKey(b.CustomerID, b.ServiceID, b.Start.UnixMilli())] {
			dup[i] = true
		}
	}
	return dup
}

func tripleKey(customerID, serviceID string, startMillis int64) string {
	return fmt.Sprintf("%s\x00%s\x00%d", customerID, serviceID, startMillis)
}
