package core

import (
	"context"
	"time"
)

// Store is the persistence boundary for ingestion.
// The database package implements it on a pgx pool.
type Store interface {
	// Begin opens the transaction that scopes one ingestion call.
	Begin(ctx context.Context) (Tx, error)

	// RecordImportRun stores the history entry for a finished bulk run.
	RecordImportRun(ctx context.Context, run *ImportRun) error

	// ListImportRuns returns the most recent runs, newest first.
	ListImportRuns(ctx context.Context, limit int) ([]ImportRun, error)

	// PruneImportRuns deletes runs that started before cutoff.
	PruneImportRuns(ctx context.Context, cutoff time.Time) (int64, error)
}

// Tx is a transaction handle passed explicitly to every resolver and
// importer call. Lookups return ErrNotFound on a miss; inserts return
// ErrConflict when a unique key is already taken and fill in ID and
// CreatedAt on success.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// Savepoint, RollbackToSavepoint and ReleaseSavepoint isolate one row
	// so a rejection leaves no partial writes behind.
	Savepoint(ctx context.Context, name string) error
	RollbackToSavepoint(ctx context.Context, name string) error
	ReleaseSavepoint(ctx context.Context, name string) error

	CustomerByEmail(ctx context.Context, email string) (*Customer, error)
	CustomerByPhone(ctx context.Context, phone string) (*Customer, error)
	InsertCustomer(ctx context.Context, c *Customer) error

	VehicleByRegistration(ctx context.Context, registration string) (*Vehicle, error)
	InsertVehicle(ctx context.Context, v *Vehicle) error

	BookingExists(ctx context.Context, source, sourceRowID string) (bool, error)
	InsertBooking(ctx context.Context, b *Booking) error

	InsertAuditLog(ctx context.Context, entry *AuditLog) error
}
