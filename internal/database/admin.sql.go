package database

import (
	"context"
)

const resetAuditLogs = `-- name: ResetAuditLogs :exec
TRUNCATE audit_logs RESTART IDENTITY
`

func (q *Queries) ResetAuditLogs(ctx context.Context) error {
	_, err := q.db.Exec(ctx, resetAuditLogs)
	return err
}

const resetBookings = `-- name: ResetBookings :exec
TRUNCATE bookings RESTART IDENTITY CASCADE
`

func (q *Queries) ResetBookings(ctx context.Context) error {
	_, err := q.db.Exec(ctx, resetBookings)
	return err
}

const resetVehicles = `-- name: ResetVehicles :exec
TRUNCATE vehicles RESTART IDENTITY CASCADE
`

func (q *Queries) ResetVehicles(ctx context.Context) error {
	_, err := q.db.Exec(ctx, resetVehicles)
	return err
}

const resetCustomers = `-- name: ResetCustomers :exec
TRUNCATE customers RESTART IDENTITY CASCADE
`

func (q *Queries) ResetCustomers(ctx context.Context) error {
	_, err := q.db.Exec(ctx, resetCustomers)
	return err
}

const resetImportRuns = `-- name: ResetImportRuns :exec
TRUNCATE import_runs
`

func (q *Queries) ResetImportRuns(ctx context.Context) error {
	_, err := q.db.Exec(ctx, resetImportRuns)
	return err
}

const dropTables = `-- name: DropTables :exec
DROP TABLE IF EXISTS audit_logs, bookings, vehicles, customers, import_runs CASCADE
`

func (q *Queries) DropTables(ctx context.Context) error {
	_, err := q.db.Exec(ctx, dropTables)
	return err
}
