package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/parkcrm/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store implements core.Store on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ core.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Begin opens a read-committed transaction.
func (s *Store) Begin(ctx context.Context) (core.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, q: New(tx)}, nil
}

func (s *Store) RecordImportRun(ctx context.Context, run *core.ImportRun) error {
	return New(s.pool).InsertImportRun(ctx, InsertImportRunParams{
		ID:         ToPgUUID(run.ID),
		Source:     run.Source,
		FileName:   ToPgTextString(run.FileName),
		TotalRows:  int32(run.TotalRows),
		Successful: int32(run.Successful),
		Failed:     int32(run.Failed),
		Skipped:    int32(run.Skipped),
		Error:      ToPgTextString(run.Error),
		RemoteAddr: ToPgTextString(run.RemoteAddr),
		UserAgent:  ToPgTextString(run.UserAgent),
		StartedAt:  ToPgTimestamp(run.StartedAt),
		FinishedAt: ToPgTimestamp(run.FinishedAt),
	})
}

func (s *Store) ListImportRuns(ctx context.Context, limit int) ([]core.ImportRun, error) {
	rows, err := New(s.pool).ListImportRuns(ctx, int32(limit))
	if err != nil {
		return nil, err
	}
	runs := make([]core.ImportRun, len(rows))
	for i, r := range rows {
		runs[i] = core.ImportRun{
			ID:         FromPgUUID(r.ID),
			Source:     r.Source,
			FileName:   r.FileName.String,
			TotalRows:  int(r.TotalRows),
			Successful: int(r.Successful),
			Failed:     int(r.Failed),
			Skipped:    int(r.Skipped),
			Error:      r.Error.String,
			RemoteAddr: r.RemoteAddr.String,
			UserAgent:  r.UserAgent.String,
			StartedAt:  FromPgTimestamp(r.StartedAt),
			FinishedAt: FromPgTimestamp(r.FinishedAt),
		}
	}
	return runs, nil
}

func (s *Store) PruneImportRuns(ctx context.Context, cutoff time.Time) (int64, error) {
	return New(s.pool).DeleteImportRunsBefore(ctx, ToPgTimestamp(cutoff))
}

// Tx implements core.Tx on a pgx transaction.
type Tx struct {
	tx pgx.Tx
	q  *Queries
}

var _ core.Tx = (*Tx)(nil)

func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback is a no-op after Commit.
func (t *Tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// Savepoint names come from the importer ("sp_row_N") and are sanitized
// as identifiers before use.
func (t *Tx) Savepoint(ctx context.Context, name string) error {
	_, err := t.tx.Exec(ctx, "SAVEPOINT "+pgx.Identifier{name}.Sanitize())
	return err
}

func (t *Tx) RollbackToSavepoint(ctx context.Context, name string) error {
	_, err := t.tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+pgx.Identifier{name}.Sanitize())
	return err
}

func (t *Tx) ReleaseSavepoint(ctx context.Context, name string) error {
	_, err := t.tx.Exec(ctx, "RELEASE SAVEPOINT "+pgx.Identifier{name}.Sanitize())
	return err
}

func (t *Tx) CustomerByEmail(ctx context.Context, email string) (*core.Customer, error) {
	c, err := t.q.GetCustomerByEmail(ctx, ToPgTextString(email))
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return toCoreCustomer(c), nil
}

func (t *Tx) CustomerByPhone(ctx context.Context, phone string) (*core.Customer, error) {
	c, err := t.q.GetCustomerByPhone(ctx, ToPgTextString(phone))
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return toCoreCustomer(c), nil
}

func (t *Tx) InsertCustomer(ctx context.Context, c *core.Customer) error {
	row, err := t.q.InsertCustomer(ctx, InsertCustomerParams{
		FullName:       c.FullName,
		Email:          ToPgText(c.Email),
		WhatsappNumber: ToPgText(c.WhatsAppNumber),
	})
	if err != nil {
		return mapInsertErr(err)
	}
	c.ID = row.ID
	c.CreatedAt = FromPgTimestamp(row.CreatedAt)
	return nil
}

func (t *Tx) VehicleByRegistration(ctx context.Context, registration string) (*core.Vehicle, error) {
	v, err := t.q.GetVehicleByRegistration(ctx, registration)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return toCoreVehicle(v), nil
}

func (t *Tx) InsertVehicle(ctx context.Context, v *core.Vehicle) error {
	row, err := t.q.InsertVehicle(ctx, InsertVehicleParams{
		Registration: v.Registration,
		MakeModel:    v.MakeModel,
		Color:        ToPgText(v.Color),
	})
	if err != nil {
		return mapInsertErr(err)
	}
	v.ID = row.ID
	v.CreatedAt = FromPgTimestamp(row.CreatedAt)
	return nil
}

func (t *Tx) BookingExists(ctx context.Context, source, sourceRowID string) (bool, error) {
	return t.q.BookingExists(ctx, BookingExistsParams{Source: source, SourceRowID: sourceRowID})
}

func (t *Tx) InsertBooking(ctx context.Context, b *core.Booking) error {
	id, err := t.q.InsertBooking(ctx, InsertBookingParams{
		Source:              b.Source,
		SourceRowID:         b.SourceRowID,
		CustomerID:          b.CustomerID,
		VehicleID:           b.VehicleID,
		FlightType:          string(b.FlightType),
		DropoffAt:           ToPgTimestamp(b.DropoffAt),
		PickupAt:            ToPgTimestamp(b.PickupAt),
		PaymentMethod:       string(b.PaymentMethod),
		SpecialInstructions: ToPgText(b.SpecialInstructions),
		Cost:                ToPgNumeric(b.Cost),
		Status:              string(b.Status),
		CreatedAt:           ToPgTimestamp(b.CreatedAt),
	})
	if err != nil {
		return mapInsertErr(err)
	}
	b.ID = id
	return nil
}

func (t *Tx) InsertAuditLog(ctx context.Context, entry *core.AuditLog) error {
	row, err := t.q.InsertAuditLog(ctx, InsertAuditLogParams{
		BookingID: entry.BookingID,
		EventType: string(entry.Event),
		Message:   entry.Message,
	})
	if err != nil {
		return err
	}
	entry.ID = row.ID
	entry.CreatedAt = FromPgTimestamp(row.CreatedAt)
	return nil
}

func toCoreCustomer(c Customer) *core.Customer {
	return &core.Customer{
		ID:             c.ID,
		FullName:       c.FullName,
		Email:          FromPgText(c.Email),
		WhatsAppNumber: FromPgText(c.WhatsappNumber),
		CreatedAt:      FromPgTimestamp(c.CreatedAt),
	}
}

func toCoreVehicle(v Vehicle) *core.Vehicle {
	return &core.Vehicle{
		ID:           v.ID,
		Registration: v.Registration,
		MakeModel:    v.MakeModel,
		Color:        FromPgText(v.Color),
		CreatedAt:    FromPgTimestamp(v.CreatedAt),
	}
}

func mapLookupErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}

// mapInsertErr turns the empty RETURNING of ON CONFLICT DO NOTHING, and a
// unique violation from an index the statement does not name, into
// core.ErrConflict.
func mapInsertErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ErrConflict
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", core.ErrConflict, pgErr.ConstraintName)
	}
	return err
}
