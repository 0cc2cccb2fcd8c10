package core

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// memState is the full contents of a memStore. Snapshots copy it by value
// plus fresh slices, so savepoints and transactions are isolated.
type memState struct {
	customers []Customer
	vehicles  []Vehicle
	bookings  []Booking
	audits    []AuditLog
	nextID    int64
}

func (s memState) clone() memState {
	return memState{
		customers: append([]Customer(nil), s.customers...),
		vehicles:  append([]Vehicle(nil), s.vehicles...),
		bookings:  append([]Booking(nil), s.bookings...),
		audits:    append([]AuditLog(nil), s.audits...),
		nextID:    s.nextID,
	}
}

// memStore is an in-memory Store. failOn makes the named Tx method return
// errInjected, to exercise infrastructure failures.
type memStore struct {
	mu        sync.Mutex
	committed memState
	runs      []ImportRun
	failOn    string
	commits   int
}

var errInjected = errors.New("injected failure: connection reset by peer")

func newMemStore() *memStore {
	return &memStore{}
}

func (m *memStore) Begin(ctx context.Context) (Tx, error) {
	if m.failOn == "Begin" {
		return nil, errInjected
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return &memTx{store: m, state: m.committed.clone(), savepoints: map[string]memState{}}, nil
}

func (m *memStore) RecordImportRun(ctx context.Context, run *ImportRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *run)
	return nil
}

func (m *memStore) ListImportRuns(ctx context.Context, limit int) ([]ImportRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]ImportRun(nil), m.runs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) PruneImportRuns(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.runs[:0]
	var n int64
	for _, r := range m.runs {
		if r.StartedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.runs = kept
	return n, nil
}

func (m *memStore) snapshot() memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.committed.clone()
}

type memTx struct {
	store      *memStore
	state      memState
	savepoints map[string]memState
	done       bool
}

func (t *memTx) fail(op string) error {
	if t.store.failOn == op {
		return errInjected
	}
	return nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if err := t.fail("Commit"); err != nil {
		return err
	}
	if t.done {
		return errors.New("tx closed")
	}
	t.done = true
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.committed = t.state
	t.store.commits++
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.done = true
	return nil
}

func (t *memTx) Savepoint(ctx context.Context, name string) error {
	t.savepoints[name] = t.state.clone()
	return nil
}

func (t *memTx) RollbackToSavepoint(ctx context.Context, name string) error {
	sp, ok := t.savepoints[name]
	if !ok {
		return errors.New("no such savepoint: " + name)
	}
	t.state = sp.clone()
	return nil
}

func (t *memTx) ReleaseSavepoint(ctx context.Context, name string) error {
	delete(t.savepoints, name)
	return nil
}

func (t *memTx) id() int64 {
	t.state.nextID++
	return t.state.nextID
}

func (t *memTx) CustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	if err := t.fail("CustomerByEmail"); err != nil {
		return nil, err
	}
	for _, c := range t.state.customers {
		if c.Email != nil && *c.Email == email {
			c := c
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) CustomerByPhone(ctx context.Context, phone string) (*Customer, error) {
	for _, c := range t.state.customers {
		if c.WhatsAppNumber != nil && *c.WhatsAppNumber == phone {
			c := c
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) InsertCustomer(ctx context.Context, c *Customer) error {
	if err := t.fail("InsertCustomer"); err != nil {
		return err
	}
	if c.Email != nil {
		if _, err := t.CustomerByEmail(ctx, *c.Email); err == nil {
			return ErrConflict
		}
	}
	c.ID = t.id()
	c.CreatedAt = time.Now().UTC()
	t.state.customers = append(t.state.customers, *c)
	return nil
}

func (t *memTx) VehicleByRegistration(ctx context.Context, registration string) (*Vehicle, error) {
	for _, v := range t.state.vehicles {
		if v.Registration == registration {
			v := v
			return &v, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) InsertVehicle(ctx context.Context, v *Vehicle) error {
	if _, err := t.VehicleByRegistration(ctx, v.Registration); err == nil {
		return ErrConflict
	}
	v.ID = t.id()
	v.CreatedAt = time.Now().UTC()
	t.state.vehicles = append(t.state.vehicles, *v)
	return nil
}

func (t *memTx) BookingExists(ctx context.Context, source, sourceRowID string) (bool, error) {
	for _, b := range t.state.bookings {
		if b.Source == source && b.SourceRowID == sourceRowID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertBooking(ctx context.Context, b *Booking) error {
	if err := t.fail("InsertBooking"); err != nil {
		return err
	}
	if exists, _ := t.BookingExists(ctx, b.Source, b.SourceRowID); exists {
		return ErrConflict
	}
	b.ID = t.id()
	t.state.bookings = append(t.state.bookings, *b)
	return nil
}

func (t *memTx) InsertAuditLog(ctx context.Context, entry *AuditLog) error {
	entry.ID = t.id()
	entry.CreatedAt = time.Now().UTC()
	t.state.audits = append(t.state.audits, *entry)
	return nil
}

// recordingObserver captures Observer calls.
type recordingObserver struct {
	mu       sync.Mutex
	runs     []*Statistics
	runErrs  []error
	webhooks []WebhookOutcome
}

func (o *recordingObserver) ObserveRun(source string, stats *Statistics, err error, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs = append(o.runs, stats)
	o.runErrs = append(o.runErrs, err)
}

func (o *recordingObserver) ObserveWebhook(outcome WebhookOutcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.webhooks = append(o.webhooks, outcome)
}
