package database

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/parkcrm/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPool connects to TEST_DATABASE_URL and applies the schema, or skips.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, PoolOptions{URL: url, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, Migrate(ctx, pool))
	return pool
}

func csvContent(t *testing.T, rows ...map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.Write(core.Columns))
	for _, r := range rows {
		rec := make([]string, len(core.Columns))
		for i, c := range core.Columns {
			rec[i] = r[c]
		}
		require.NoError(t, w.Write(rec))
	}
	w.Flush()
	require.NoError(t, w.Error())
	return buf.String()
}

func bookingRow(tag string) map[string]string {
	return map[string]string{
		core.ColTimestamp:    "3/10/2024 09:15:00",
		core.ColFullName:     "Sipho " + tag,
		core.ColEmail:        tag + "@example.com",
		core.ColFlightType:   "International",
		core.ColDepartDate:   "15/03/2024",
		core.ColDropoffTime:  "06:30",
		core.ColArrivalDate:  "18/03/2024",
		core.ColPickupTime:   "21:10",
		core.ColMakeModel:    "VW Polo",
		core.ColColor:        "White",
		core.ColRegistration: "IT " + tag,
		core.ColPayment:      "Card",
		core.ColCost:         "250",
	}
}

func TestStoreImportRoundTrip(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	store := NewStore(pool)
	svc := core.NewService(store)

	tag := strings.ReplaceAll(uuid.NewString()[:8], "-", "")
	source := "integration_" + tag

	good := bookingRow(tag)
	bad := bookingRow(tag)
	bad[core.ColFlightType] = "Charter"

	content := csvContent(t, good, bad)

	stats, err := svc.ImportFromString(ctx, content, source)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalRows)
	assert.Equal(t, 1, stats.Successful)
	assert.Equal(t, 1, stats.Failed)
	require.Len(t, stats.Errors, 1)
	assert.Equal(t, 3, stats.Errors[0].Row)

	count, err := New(pool).CountBookingsBySource(ctx, source)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// Re-importing is a no-op for rows already ingested.
	stats, err = svc.ImportFromString(ctx, content, source)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Successful)
	assert.Equal(t, 2, stats.Failed)

	count, err = New(pool).CountBookingsBySource(ctx, source)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	runs, err := svc.ListImportRuns(ctx, core.MaxHistoryLimit)
	require.NoError(t, err)
	var mine int
	for _, r := range runs {
		if r.Source == source {
			mine++
		}
	}
	assert.Equal(t, 2, mine)
}

func TestStoreInsertConflicts(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	store := NewStore(pool)

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	email := uuid.NewString() + "@example.com"
	first := &core.Customer{FullName: "First", Email: &email}
	require.NoError(t, tx.InsertCustomer(ctx, first))
	assert.NotZero(t, first.ID)

	second := &core.Customer{FullName: "Second", Email: &email}
	assert.ErrorIs(t, tx.InsertCustomer(ctx, second), core.ErrConflict)

	got, err := tx.CustomerByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = tx.CustomerByEmail(ctx, "missing-"+email)
	assert.ErrorIs(t, err, core.ErrNotFound)

	reg := "CONF " + uuid.NewString()[:8]
	require.NoError(t, tx.InsertVehicle(ctx, &core.Vehicle{Registration: reg, MakeModel: "Ford Ranger"}))
	assert.ErrorIs(t, tx.InsertVehicle(ctx, &core.Vehicle{Registration: reg, MakeModel: "Other"}), core.ErrConflict)
}

func TestStoreSavepointRollback(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	store := NewStore(pool)

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	reg := "SP " + uuid.NewString()[:8]
	require.NoError(t, tx.Savepoint(ctx, "sp_row_2"))
	require.NoError(t, tx.InsertVehicle(ctx, &core.Vehicle{Registration: reg, MakeModel: "Mazda 2"}))
	require.NoError(t, tx.RollbackToSavepoint(ctx, "sp_row_2"))
	require.NoError(t, tx.ReleaseSavepoint(ctx, "sp_row_2"))

	_, err = tx.VehicleByRegistration(ctx, reg)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStorePruneImportRuns(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	store := NewStore(pool)

	old := &core.ImportRun{
		ID:         uuid.New(),
		Source:     "prune_test",
		StartedAt:  time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2001, 1, 1, 0, 0, 1, 0, time.UTC),
	}
	require.NoError(t, store.RecordImportRun(ctx, old))

	n, err := store.PruneImportRuns(ctx, time.Date(2002, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))
}
