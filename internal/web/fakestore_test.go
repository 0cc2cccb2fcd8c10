package web

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/JonMunkholm/parkcrm/internal/core"
)

// fakeData is the committed state of a fakeStore.
type fakeData struct {
	customers map[int64]core.Customer
	vehicles  map[string]core.Vehicle
	bookings  map[string]int64
	nextID    int64
}

func (d fakeData) copy() fakeData {
	out := fakeData{
		customers: make(map[int64]core.Customer, len(d.customers)),
		vehicles:  make(map[string]core.Vehicle, len(d.vehicles)),
		bookings:  make(map[string]int64, len(d.bookings)),
		nextID:    d.nextID,
	}
	for k, v := range d.customers {
		out.customers[k] = v
	}
	for k, v := range d.vehicles {
		out.vehicles[k] = v
	}
	for k, v := range d.bookings {
		out.bookings[k] = v
	}
	return out
}

// fakeStore is a small in-memory core.Store for handler tests. Setting
// beginErr makes every transaction fail to open.
type fakeStore struct {
	mu       sync.Mutex
	data     fakeData
	runs     []core.ImportRun
	beginErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: fakeData{}.copy()}
}

func (s *fakeStore) Begin(ctx context.Context) (core.Tx, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return &fakeTx{store: s, data: s.data.copy(), savepoints: map[string]fakeData{}}, nil
}

func (s *fakeStore) RecordImportRun(ctx context.Context, run *core.ImportRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append([]core.ImportRun{*run}, s.runs...)
	return nil
}

func (s *fakeStore) ListImportRuns(ctx context.Context, limit int) ([]core.ImportRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.runs) > limit {
		return append([]core.ImportRun(nil), s.runs[:limit]...), nil
	}
	return append([]core.ImportRun(nil), s.runs...), nil
}

func (s *fakeStore) PruneImportRuns(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (s *fakeStore) bookingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.bookings)
}

type fakeTx struct {
	store      *fakeStore
	data       fakeData
	savepoints map[string]fakeData
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.data = t.data
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error { return nil }

func (t *fakeTx) Savepoint(ctx context.Context, name string) error {
	t.savepoints[name] = t.data.copy()
	return nil
}

func (t *fakeTx) RollbackToSavepoint(ctx context.Context, name string) error {
	sp, ok := t.savepoints[name]
	if !ok {
		return errors.New("no such savepoint")
	}
	t.data = sp.copy()
	return nil
}

func (t *fakeTx) ReleaseSavepoint(ctx context.Context, name string) error {
	delete(t.savepoints, name)
	return nil
}

func (t *fakeTx) next() int64 {
	t.data.nextID++
	return t.data.nextID
}

func (t *fakeTx) findCustomer(match func(core.Customer) bool) (*core.Customer, error) {
	for _, c := range t.data.customers {
		if match(c) {
			c := c
			return &c, nil
		}
	}
	return nil, core.ErrNotFound
}

func (t *fakeTx) CustomerByEmail(ctx context.Context, email string) (*core.Customer, error) {
	return t.findCustomer(func(c core.Customer) bool { return c.Email != nil && *c.Email == email })
}

func (t *fakeTx) CustomerByPhone(ctx context.Context, phone string) (*core.Customer, error) {
	return t.findCustomer(func(c core.Customer) bool { return c.WhatsAppNumber != nil && *c.WhatsAppNumber == phone })
}

func (t *fakeTx) InsertCustomer(ctx context.Context, c *core.Customer) error {
	c.ID = t.next()
	c.CreatedAt = time.Now().UTC()
	t.data.customers[c.ID] = *c
	return nil
}

func (t *fakeTx) VehicleByRegistration(ctx context.Context, registration string) (*core.Vehicle, error) {
	v, ok := t.data.vehicles[registration]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &v, nil
}

func (t *fakeTx) InsertVehicle(ctx context.Context, v *core.Vehicle) error {
	if _, ok := t.data.vehicles[v.Registration]; ok {
		return core.ErrConflict
	}
	v.ID = t.next()
	v.CreatedAt = time.Now().UTC()
	t.data.vehicles[v.Registration] = *v
	return nil
}

func (t *fakeTx) BookingExists(ctx context.Context, source, sourceRowID string) (bool, error) {
	_, ok := t.data.bookings[source+"/"+sourceRowID]
	return ok, nil
}

func (t *fakeTx) InsertBooking(ctx context.Context, b *core.Booking) error {
	key := b.Source + "/" + b.SourceRowID
	if _, ok := t.data.bookings[key]; ok {
		return core.ErrConflict
	}
	b.ID = t.next()
	t.data.bookings[key] = b.ID
	return nil
}

func (t *fakeTx) InsertAuditLog(ctx context.Context, entry *core.AuditLog) error {
	entry.ID = t.next()
	return nil
}
