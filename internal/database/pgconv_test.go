package database

import (
	"errors"
	"testing"
	"time"

	"github.com/JonMunkholm/parkcrm/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPgText(t *testing.T) {
	assert.False(t, ToPgText(nil).Valid)

	blank := "   "
	assert.False(t, ToPgText(&blank).Valid)

	v := "alice@example.com"
	got := ToPgText(&v)
	assert.True(t, got.Valid)
	assert.Equal(t, v, got.String)

	back := FromPgText(got)
	require.NotNil(t, back)
	assert.Equal(t, v, *back)
	assert.Nil(t, FromPgText(ToPgTextString("")))
}

func TestPgTimestamp(t *testing.T) {
	assert.False(t, ToPgTimestamp(time.Time{}).Valid)
	assert.True(t, FromPgTimestamp(ToPgTimestamp(time.Time{})).IsZero())

	loc := time.FixedZone("SAST", 2*60*60)
	in := time.Date(2024, 3, 15, 10, 30, 0, 0, loc)
	ts := ToPgTimestamp(in)
	require.True(t, ts.Valid)
	assert.Equal(t, time.UTC, ts.Time.Location())
	assert.True(t, in.Equal(FromPgTimestamp(ts)))
}

func TestPgNumeric(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"150", "150.00"},
		{"99.5", "99.50"},
		{"1234.56", "1234.56"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n := ToPgNumeric(decimal.RequireFromString(tt.in))
			require.True(t, n.Valid)
			assert.Equal(t, tt.want, FromPgNumeric(n).StringFixed(2))
		})
	}
}

func TestPgUUID(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, id, FromPgUUID(ToPgUUID(id)))
	assert.Equal(t, uuid.Nil, FromPgUUID(pgtype.UUID{}))
}

func TestMapErrors(t *testing.T) {
	assert.ErrorIs(t, mapLookupErr(pgx.ErrNoRows), core.ErrNotFound)
	assert.ErrorIs(t, mapInsertErr(pgx.ErrNoRows), core.ErrConflict)

	unique := &pgconn.PgError{Code: "23505", ConstraintName: "bookings_source_row_key"}
	err := mapInsertErr(unique)
	assert.ErrorIs(t, err, core.ErrConflict)
	assert.Contains(t, err.Error(), "bookings_source_row_key")

	other := errors.New("connection reset by peer")
	assert.Equal(t, other, mapLookupErr(other))
	assert.Equal(t, other, mapInsertErr(other))
}
