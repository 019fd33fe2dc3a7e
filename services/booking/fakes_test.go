package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	schedulerRepo "walkly/database/repository/scheduler"
	"walkly/models"

	"github.com/google/uuid"
)

// memSchedRepo is an in-memory scheduler repository for tests. Its
// transactional insert mimics the partial-unique index: a booking whose
// (customer, service, start) matches an existing non-cancelled booking is
// reported as a duplicate instead of failing the transaction.
type memSchedRepo struct {
	mu sync.Mutex

	walkers  map[string]models.Walker
	windows  map[string]map[time.Weekday]models.WorkingWindow
	bookings []models.Booking
	blocks   []models.Block
	records  map[string]models.IdempotencyRecord

	failTx     error
	fetchCalls int
}

func newMemSchedRepo() *memSchedRepo {
	return &memSchedRepo{
		walkers: make(map[string]models.Walker),
		windows: make(map[string]map[time.Weekday]models.WorkingWindow),
		records: make(map[string]models.IdempotencyRecord),
	}
}

func (r *memSchedRepo) addWindow(w models.WorkingWindow) {
	if r.windows[w.WalkerID] == nil {
		r.windows[w.WalkerID] = make(map[time.Weekday]models.WorkingWindow)
	}
	r.windows[w.WalkerID][w.Weekday] = w
}

func (r *memSchedRepo) GetWalker(ctx context.Context, walkerID string) (*models.Walker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.walkers[walkerID]; ok {
		return &w, nil
	}
	return nil, nil
}

func (r *memSchedRepo) GetWorkingWindow(ctx context.Context, walkerID string, weekday time.Weekday) (*models.WorkingWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.windows[walkerID][weekday]; ok {
		return &w, nil
	}
	return nil, nil
}

func (r *memSchedRepo) GetBookingsInRange(ctx context.Context, walkerID string, from, to time.Time) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchCalls++
	var out []models.Booking
	for _, b := range r.bookings {
		if b.WalkerID != walkerID || b.Status == models.BookingStatusCancelled {
			continue
		}
		if b.Start.Before(to) && b.End.After(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memSchedRepo) GetBlocksInRange(ctx context.Context, walkerID string, from, to time.Time) ([]models.Block, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchCalls++
	var out []models.Block
	for _, bl := range r.blocks {
		if bl.WalkerID != walkerID {
			continue
		}
		if bl.Recurring || (bl.Start.Before(to) && bl.End.After(from)) {
			out = append(out, bl)
		}
	}
	return out, nil
}

func (r *memSchedRepo) CreateBooking(ctx context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings = append(r.bookings, *booking)
	return nil
}

func (r *memSchedRepo) CreateBlock(ctx context.Context, block *models.Block) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocks = append(r.blocks, *block)
	return nil
}

func (r *memSchedRepo) GetIdempotencyRecord(ctx context.Context, key string) (*models.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[key]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (r *memSchedRepo) InsertSeriesTransactionally(
	ctx context.Context,
	series *models.RecurringSeries,
	bookings []*models.Booking,
	makeRecord schedulerRepo.TxResultFn,
) ([]string, []int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failTx != nil {
		return nil, nil, r.failTx
	}

	var createdIDs []string
	var duplicateIdx []int
	var inserted []models.Booking
	for i, b := range bookings {
		if r.hasDuplicateLocked(b) {
			duplicateIdx = append(duplicateIdx, i)
			continue
		}
		if b.ID == "" {
			b.ID = uuid.New().String()
		}
		inserted = append(inserted, *b)
		createdIDs = append(createdIDs, b.ID)
	}

	record := makeRecord(createdIDs, duplicateIdx)
	r.bookings = append(r.bookings, inserted...)
	r.records[record.Key] = record
	return createdIDs, duplicateIdx, nil
}

func (r *memSchedRepo) hasDuplicateLocked(b *models.Booking) bool {
	for _, existing := range r.bookings {
		if existing.Status == models.BookingStatusCancelled {
			continue
		}
		if existing.CustomerID == b.CustomerID &&
			existing.ServiceID == b.ServiceID &&
			existing.Start.Equal(b.Start) {
			return true
		}
	}
	return false
}

func (r *memSchedRepo) WalkerIDsWithBookings(ctx context.Context, from, to time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, b := range r.bookings {
		if b.Status == models.BookingStatusCancelled {
			continue
		}
		if b.Start.Before(to) && b.End.After(from) && !seen[b.WalkerID] {
			seen[b.WalkerID] = true
			out = append(out, b.WalkerID)
		}
	}
	return out, nil
}

func (r *memSchedRepo) bookingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bookings)
}

// fakeEstimator answers from a fixed pair matrix, with a default for pairs
// the test did not set.
type fakeEstimator struct {
	mu       sync.Mutex
	seconds  map[string]int
	fallback bool
	defSecs  int
	calls    int
}

func newFakeEstimator(defSecs int) *fakeEstimator {
	return &fakeEstimator{seconds: make(map[string]int), defSecs: defSecs}
}

func pairOf(origin, dest models.Location) string {
	return estLocKey(origin) + ">" + estLocKey(dest)
}

func estLocKey(l models.Location) string {
	if l.ID != "" {
		return l.ID
	}
	return fmt.Sprintf("%.5f,%.5f", l.Latitude, l.Longitude)
}

func (e *fakeEstimator) set(origin, dest models.Location, secs int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seconds[pairOf(origin, dest)] = secs
}

func (e *fakeEstimator) Estimate(ctx context.Context, origin, dest models.Location, departAt time.Time) (models.TravelEstimate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	source := models.TravelSourceLive
	if e.fallback {
		source = models.TravelSourceFallback
	}
	if secs, ok := e.seconds[pairOf(origin, dest)]; ok {
		return models.TravelEstimate{Seconds: secs, Meters: secs * 10, Source: source}, nil
	}
	return models.TravelEstimate{Seconds: e.defSecs, Meters: e.defSecs * 10, Source: source}, nil
}

// fakeKeyLock is a process-local KeyLock.
type fakeKeyLock struct {
	mu   sync.Mutex
	held map[string]bool
	deny bool
}

func newFakeKeyLock() *fakeKeyLock {
	return &fakeKeyLock{held: make(map[string]bool)}
}

func (l *fakeKeyLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.deny || l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *fakeKeyLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

// fakeLiveStore serves a canned live location.
type fakeLiveStore struct {
	loc *models.WalkerLiveLocation
}

func (s *fakeLiveStore) Report(ctx context.Context, loc models.WalkerLiveLocation) error {
	s.loc = &loc
	return nil
}

func (s *fakeLiveStore) Get(ctx context.Context, walkerID string) (*models.WalkerLiveLocation, error) {
	return s.loc, nil
}
