package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func newTestImporter() *Importer {
	return &Importer{now: func() time.Time { return fixedNow }}
}

func validRow() Row {
	return Row{
		ColTimestamp:    "3/10/2024 09:15:00",
		ColFullName:     "Thandi Nkosi",
		ColEmail:        "Thandi@Example.com",
		ColWhatsApp:     "+27 82 555 0101",
		ColFlightType:   "Domestic",
		ColDepartDate:   "15/03/2024",
		ColDropoffTime:  "06:30",
		ColArrivalDate:  "18/03/2024",
		ColPickupTime:   "21:10",
		ColMakeModel:    " Toyota Corolla ",
		ColColor:        " Silver ",
		ColRegistration: "cf 123 gp",
		ColPayment:      "EFT",
		ColInstructions: "Leave keys at desk",
		ColCost:         "125.50",
	}
}

// importOne runs a single row on its own committed transaction.
func importOne(t *testing.T, store *memStore, im *Importer, row Row, rowNumber int, source string) (*Booking, error) {
	t.Helper()
	ctx := context.Background()
	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	b, importErr := im.ImportRow(ctx, tx, row, rowNumber, source)
	require.NoError(t, tx.Commit(ctx))
	return b, importErr
}

func TestImportRow_Success(t *testing.T) {
	store := newMemStore()
	b, err := importOne(t, store, newTestImporter(), validRow(), 2, SourceAPIUpload)
	require.NoError(t, err)

	assert.Equal(t, SourceAPIUpload, b.Source)
	assert.Equal(t, "row_2", b.SourceRowID)
	assert.Equal(t, FlightDomestic, b.FlightType)
	assert.Equal(t, PaymentEFT, b.PaymentMethod)
	assert.Equal(t, StatusBooked, b.Status)
	assert.Equal(t, "125.50", b.Cost.StringFixed(2))
	assert.Equal(t, time.Date(2024, 3, 15, 6, 30, 0, 0, time.UTC), b.DropoffAt)
	assert.Equal(t, time.Date(2024, 3, 18, 21, 10, 0, 0, time.UTC), b.PickupAt)
	assert.Equal(t, time.Date(2024, 3, 10, 9, 15, 0, 0, time.UTC), b.CreatedAt)
	require.NotNil(t, b.SpecialInstructions)
	assert.Equal(t, "Leave keys at desk", *b.SpecialInstructions)

	state := store.snapshot()
	require.Len(t, state.customers, 1)
	assert.Equal(t, "Thandi Nkosi", state.customers[0].FullName)
	assert.Equal(t, strPtr("thandi@example.com"), state.customers[0].Email)
	assert.Equal(t, strPtr("+27825550101"), state.customers[0].WhatsAppNumber)

	require.Len(t, state.vehicles, 1)
	assert.Equal(t, "CF 123 GP", state.vehicles[0].Registration)
	assert.Equal(t, "Toyota Corolla", state.vehicles[0].MakeModel)
	assert.Equal(t, strPtr("Silver"), state.vehicles[0].Color)

	require.Len(t, state.audits, 1)
	assert.Equal(t, AuditSync, state.audits[0].Event)
	assert.Equal(t, b.ID, state.audits[0].BookingID)
	assert.Equal(t, "imported from api_upload row_2", state.audits[0].Message)
}

func TestImportRow_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(Row)
		wantKind RejectKind
		wantMsg  string
	}{
		{
			name:     "missing full name",
			mutate:   func(r Row) { delete(r, ColFullName) },
			wantKind: RejectMissingField,
			wantMsg:  "Full name is required",
		},
		{
			name:     "whitespace full name",
			mutate:   func(r Row) { r[ColFullName] = "   " },
			wantKind: RejectMissingField,
			wantMsg:  "Full name is required",
		},
		{
			name:     "bad dropoff date",
			mutate:   func(r Row) { r[ColDepartDate] = "32/13/2024"; r[ColDropoffTime] = " 06:30 " },
			wantKind: RejectInvalidDate,
			wantMsg:  "Invalid dropoff date/time: 32/13/2024 06:30",
		},
		{
			name:     "missing pickup date",
			mutate:   func(r Row) { r[ColArrivalDate] = "" },
			wantKind: RejectInvalidDate,
			wantMsg:  "Invalid pickup date/time:  21:10",
		},
		{
			name:     "pickup equal to dropoff",
			mutate:   func(r Row) { r[ColArrivalDate] = "15/03/2024"; r[ColPickupTime] = "06:30" },
			wantKind: RejectOrdering,
			wantMsg:  "Pickup time must be after dropoff time",
		},
		{
			name:     "pickup before dropoff",
			mutate:   func(r Row) { r[ColArrivalDate] = "14/03/2024" },
			wantKind: RejectOrdering,
			wantMsg:  "Pickup time must be after dropoff time",
		},
		{
			name:     "unknown flight type",
			mutate:   func(r Row) { r[ColFlightType] = " Regional " },
			wantKind: RejectInvalidFlight,
			wantMsg:  "Invalid flight type: regional",
		},
		{
			name:     "missing registration",
			mutate:   func(r Row) { r[ColRegistration] = " " },
			wantKind: RejectMissingField,
			wantMsg:  "Vehicle registration is required",
		},
		{
			name:     "missing make and model",
			mutate:   func(r Row) { r[ColMakeModel] = "" },
			wantKind: RejectMissingField,
			wantMsg:  "Vehicle make/model is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			row := validRow()
			tt.mutate(row)

			b, err := importOne(t, store, newTestImporter(), row, 2, SourceAPIUpload)
			assert.Nil(t, b)
			require.Error(t, err)

			var re *RowError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.wantKind, re.Kind)
			assert.Equal(t, tt.wantMsg, re.Reason)

			state := store.snapshot()
			assert.Empty(t, state.customers)
			assert.Empty(t, state.vehicles)
			assert.Empty(t, state.bookings)
		})
	}
}

func TestImportRow_Idempotent(t *testing.T) {
	store := newMemStore()
	im := newTestImporter()

	_, err := importOne(t, store, im, validRow(), 7, SourceGoogleSheet)
	require.NoError(t, err)

	_, err = importOne(t, store, im, validRow(), 7, SourceGoogleSheet)
	require.Error(t, err)
	assert.True(t, IsDuplicate(err))
	assert.Equal(t, "Booking already exists (duplicate row)", err.Error())

	state := store.snapshot()
	assert.Len(t, state.bookings, 1)
	assert.Len(t, state.customers, 1)
	assert.Len(t, state.audits, 1)

	t.Run("same row number from another source is not a duplicate", func(t *testing.T) {
		_, err := importOne(t, store, im, validRow(), 7, SourceCSVScript)
		require.NoError(t, err)
		assert.Len(t, store.snapshot().bookings, 2)
	})
}

func TestImportRow_DuplicateLeavesNoNewEntities(t *testing.T) {
	store := newMemStore()
	im := newTestImporter()

	_, err := importOne(t, store, im, validRow(), 3, SourceAPIUpload)
	require.NoError(t, err)

	// Same position, brand new customer and vehicle: the savepoint must undo both.
	row := validRow()
	row[ColEmail] = "someone.else@example.com"
	row[ColWhatsApp] = ""
	row[ColRegistration] = "ND 999 999"
	_, err = importOne(t, store, im, row, 3, SourceAPIUpload)
	require.True(t, IsDuplicate(err))

	state := store.snapshot()
	assert.Len(t, state.customers, 1)
	assert.Len(t, state.vehicles, 1)
}

func TestImportRow_CustomerDedupByEmail(t *testing.T) {
	store := newMemStore()
	im := newTestImporter()

	first := validRow()
	second := validRow()
	second[ColFullName] = "T. Nkosi"
	second[ColEmail] = "  THANDI@example.com "
	second[ColWhatsApp] = "083 000 0000"
	second[ColRegistration] = "GP 456 XY"

	b1, err := importOne(t, store, im, first, 2, SourceAPIUpload)
	require.NoError(t, err)
	b2, err := importOne(t, store, im, second, 3, SourceAPIUpload)
	require.NoError(t, err)

	state := store.snapshot()
	require.Len(t, state.customers, 1)
	assert.Len(t, state.bookings, 2)
	assert.Equal(t, b1.CustomerID, b2.CustomerID)

	// The stored customer is never updated by later rows.
	assert.Equal(t, "Thandi Nkosi", state.customers[0].FullName)
	assert.Equal(t, strPtr("+27825550101"), state.customers[0].WhatsAppNumber)
}

func TestImportRow_CustomerDedupByPhone(t *testing.T) {
	store := newMemStore()
	im := newTestImporter()

	first := validRow()
	first[ColEmail] = "not-an-email"
	second := validRow()
	second[ColEmail] = ""
	second[ColWhatsApp] = "+27-82-555-0101"

	b1, err := importOne(t, store, im, first, 2, SourceAPIUpload)
	require.NoError(t, err)
	b2, err := importOne(t, store, im, second, 3, SourceAPIUpload)
	require.NoError(t, err)

	assert.Equal(t, b1.CustomerID, b2.CustomerID)
	assert.Len(t, store.snapshot().customers, 1)
}

func TestImportRow_CustomerWithoutContact(t *testing.T) {
	store := newMemStore()
	im := newTestImporter()

	row := validRow()
	row[ColEmail] = ""
	row[ColWhatsApp] = "#ERROR!"

	_, err := importOne(t, store, im, row, 2, SourceAPIUpload)
	require.NoError(t, err)
	_, err = importOne(t, store, im, row, 3, SourceAPIUpload)
	require.NoError(t, err)

	// Nothing to match on, so every row creates a customer.
	state := store.snapshot()
	require.Len(t, state.customers, 2)
	assert.Nil(t, state.customers[0].Email)
	assert.Nil(t, state.customers[0].WhatsAppNumber)
}

func TestImportRow_VehicleDedupByRegistration(t *testing.T) {
	store := newMemStore()
	im := newTestImporter()

	first := validRow()
	second := validRow()
	second[ColRegistration] = "CF 123 GP"
	second[ColMakeModel] = "Honda Jazz"
	second[ColColor] = "Red"

	b1, err := importOne(t, store, im, first, 2, SourceAPIUpload)
	require.NoError(t, err)
	b2, err := importOne(t, store, im, second, 3, SourceAPIUpload)
	require.NoError(t, err)

	assert.Equal(t, b1.VehicleID, b2.VehicleID)
	state := store.snapshot()
	require.Len(t, state.vehicles, 1)
	assert.Equal(t, "Toyota Corolla", state.vehicles[0].MakeModel)
	assert.Equal(t, strPtr("Silver"), state.vehicles[0].Color)
}

func TestImportRow_Defaults(t *testing.T) {
	store := newMemStore()

	row := validRow()
	row[ColTimestamp] = "sometime"
	row[ColPayment] = ""
	row[ColInstructions] = "None"
	row[ColCost] = "-50"
	row[ColColor] = "  "
	row[ColDropoffTime] = ""

	b, err := importOne(t, store, newTestImporter(), row, 2, SourceAPIUpload)
	require.NoError(t, err)

	assert.Equal(t, fixedNow, b.CreatedAt)
	assert.Equal(t, PaymentCash, b.PaymentMethod)
	assert.Nil(t, b.SpecialInstructions)
	assert.True(t, b.Cost.IsZero())
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), b.DropoffAt)
	assert.Nil(t, store.snapshot().vehicles[0].Color)
}

func TestImportRow_InfrastructureFailure(t *testing.T) {
	store := newMemStore()
	store.failOn = "InsertBooking"

	b, err := importOne(t, store, newTestImporter(), validRow(), 2, SourceAPIUpload)
	assert.Nil(t, b)
	require.Error(t, err)
	assert.False(t, IsRejection(err))
	assert.ErrorIs(t, err, errInjected)

	// The savepoint rolled back the customer and vehicle too.
	state := store.snapshot()
	assert.Empty(t, state.customers)
	assert.Empty(t, state.vehicles)
}

func TestSourceRowID(t *testing.T) {
	assert.Equal(t, "row_2", SourceRowID(2))
	assert.Equal(t, "row_1048", SourceRowID(1048))
}
