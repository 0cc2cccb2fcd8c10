// Package admin provides destructive maintenance of the booking tables.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/parkcrm/internal/database"
	"github.com/jackc/pgx/v5"
)

// ResetTimeout is the maximum duration for one maintenance operation.
const ResetTimeout = 30 * time.Second

// Conn is satisfied by *pgxpool.Pool and *pgx.Conn.
type Conn interface {
	database.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Maintainer runs maintenance statements against one database.
type Maintainer struct {
	DB Conn
}

type resetFn func(ctx context.Context) error

// ResetAll empties every table, children first, in one transaction.
func (m *Maintainer) ResetAll(ctx context.Context) error {
	return m.inTx(ctx, func(q *database.Queries) error {
		return runResets(ctx, []resetFn{
			q.ResetAuditLogs,
			q.ResetBookings,
			q.ResetVehicles,
			q.ResetCustomers,
			q.ResetImportRuns,
		})
	})
}

// Drop removes all tables.
func (m *Maintainer) Drop(ctx context.Context) error {
	return m.inTx(ctx, func(q *database.Queries) error {
		return q.DropTables(ctx)
	})
}

// Create applies the schema. Existing tables are left alone.
func (m *Maintainer) Create(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()
	return database.Migrate(ctx, m.DB)
}

// Recreate drops and recreates every table.
func (m *Maintainer) Recreate(ctx context.Context) error {
	if err := m.Drop(ctx); err != nil {
		return err
	}
	return m.Create(ctx)
}

func (m *Maintainer) inTx(ctx context.Context, fn func(q *database.Queries) error) error {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	start := time.Now()
	err := pgx.BeginFunc(ctx, m.DB, func(tx pgx.Tx) error {
		return fn(database.New(tx))
	})
	if err != nil {
		return fmt.Errorf("maintenance: %w", err)
	}
	slog.Info("maintenance completed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func runResets(ctx context.Context, resets []resetFn) error {
	for _, reset := range resets {
		if err := reset(ctx); err != nil {
			return err
		}
	}
	return nil
}
