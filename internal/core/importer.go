package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Importer converts single rows into bookings.
// It holds no transaction state; callers pass the Tx for every row.
type Importer struct {
	now func() time.Time
}

// NewImporter creates an Importer that stamps rows without a readable
// Timestamp with the current UTC time.
func NewImporter() *Importer {
	return &Importer{now: func() time.Time { return time.Now().UTC() }}
}

// SourceRowID builds the idempotency key for a row position.
func SourceRowID(rowNumber int) string {
	return fmt.Sprintf("row_%d", rowNumber)
}

// parsedRow holds every field that can be validated without the database.
type parsedRow struct {
	fullName     string
	email        string
	phone        string
	createdAt    time.Time
	dropoffAt    time.Time
	pickupAt     time.Time
	flightType   FlightType
	payment      PaymentMethod
	registration string
	makeModel    string
	color        string
	costRaw      string
	instructions *string
}

// ImportRow validates row and, when it passes, inserts a booking tagged
// with source and "row_<rowNumber>".
//
// A returned *RowError is a validation rejection and leaves nothing written.
// Any other error is an infrastructure failure; the transaction should be
// abandoned.
func (im *Importer) ImportRow(ctx context.Context, tx Tx, row Row, rowNumber int, source string) (*Booking, error) {
	p, rejection := im.parse(row)
	if rejection != nil {
		return nil, rejection
	}

	// Everything past this point writes; isolate it so a late rejection
	// (duplicate row) rolls back the customer and vehicle inserts too.
	sp := fmt.Sprintf("sp_row_%d", rowNumber)
	if err := tx.Savepoint(ctx, sp); err != nil {
		return nil, fmt.Errorf("create savepoint: %w", err)
	}

	booking, err := im.persist(ctx, tx, p, rowNumber, source)
	if err != nil {
		if rbErr := tx.RollbackToSavepoint(ctx, sp); rbErr != nil {
			return nil, fmt.Errorf("rollback savepoint after %q: %w", err.Error(), rbErr)
		}
		return nil, err
	}

	if err := tx.ReleaseSavepoint(ctx, sp); err != nil {
		return nil, fmt.Errorf("release savepoint: %w", err)
	}
	return booking, nil
}

// parse runs every check that needs no database access, in the order the
// rejection messages are documented.
func (im *Importer) parse(row Row) (*parsedRow, *RowError) {
	fullName := strings.TrimSpace(row.Get(ColFullName))
	if fullName == "" {
		return nil, reject(RejectMissingField, ReasonFullNameRequired)
	}

	createdAt, ok := ParseTimestamp(row.Get(ColTimestamp))
	if !ok {
		createdAt = im.now()
	}

	departDate := row.Get(ColDepartDate)
	dropoffTime := strings.TrimSpace(row.Get(ColDropoffTime))
	arrivalDate := row.Get(ColArrivalDate)
	pickupTime := strings.TrimSpace(row.Get(ColPickupTime))

	dropoffAt, ok := ParseDateTime(departDate, dropoffTime)
	if !ok {
		return nil, rejectf(RejectInvalidDate, "Invalid dropoff date/time: %s %s", departDate, dropoffTime)
	}
	pickupAt, ok := ParseDateTime(arrivalDate, pickupTime)
	if !ok {
		return nil, rejectf(RejectInvalidDate, "Invalid pickup date/time: %s %s", arrivalDate, pickupTime)
	}
	if !pickupAt.After(dropoffAt) {
		return nil, reject(RejectOrdering, ReasonPickupBeforeDropoff)
	}

	rawFlight := strings.ToLower(strings.TrimSpace(row.Get(ColFlightType)))
	flightType, ok := ParseFlightType(rawFlight)
	if !ok {
		return nil, rejectf(RejectInvalidFlight, "Invalid flight type: %s", rawFlight)
	}

	registration := strings.TrimSpace(row.Get(ColRegistration))
	if registration == "" {
		return nil, reject(RejectMissingField, ReasonRegistrationRequired)
	}
	makeModel := strings.TrimSpace(row.Get(ColMakeModel))
	if makeModel == "" {
		return nil, reject(RejectMissingField, ReasonMakeModelRequired)
	}

	return &parsedRow{
		fullName:     fullName,
		email:        row.Get(ColEmail),
		phone:        row.Get(ColWhatsApp),
		createdAt:    createdAt,
		dropoffAt:    dropoffAt,
		pickupAt:     pickupAt,
		flightType:   flightType,
		payment:      ParsePaymentMethod(row.Get(ColPayment)),
		registration: registration,
		makeModel:    makeModel,
		color:        row.Get(ColColor),
		costRaw:      row.Get(ColCost),
		instructions: NormalizeInstructions(row.Get(ColInstructions)),
	}, nil
}

func (im *Importer) persist(ctx context.Context, tx Tx, p *parsedRow, rowNumber int, source string) (*Booking, error) {
	customer, err := ResolveCustomer(ctx, tx, p.fullName, p.email, p.phone)
	if err != nil {
		return nil, err
	}

	vehicle, err := ResolveVehicle(ctx, tx, p.registration, p.makeModel, p.color)
	if err != nil {
		return nil, err
	}

	sourceRowID := SourceRowID(rowNumber)
	exists, err := tx.BookingExists(ctx, source, sourceRowID)
	if err != nil {
		return nil, fmt.Errorf("check existing booking: %w", err)
	}
	if exists {
		return nil, reject(RejectDuplicate, ReasonDuplicateRow)
	}

	booking := &Booking{
		Source:              source,
		SourceRowID:         sourceRowID,
		CustomerID:          customer.ID,
		VehicleID:           vehicle.ID,
		FlightType:          p.flightType,
		DropoffAt:           p.dropoffAt,
		PickupAt:            p.pickupAt,
		PaymentMethod:       p.payment,
		SpecialInstructions: p.instructions,
		Cost:                ParseCost(p.costRaw),
		Status:              StatusBooked,
		CreatedAt:           p.createdAt,
	}
	if err := tx.InsertBooking(ctx, booking); err != nil {
		if errors.Is(err, ErrConflict) {
			// A concurrent delivery of the same row committed first.
			return nil, reject(RejectDuplicate, ReasonDuplicateRow)
		}
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	entry := &AuditLog{
		BookingID: booking.ID,
		Event:     AuditSync,
		Message:   fmt.Sprintf("imported from %s %s", source, sourceRowID),
	}
	if err := tx.InsertAuditLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("insert audit log: %w", err)
	}

	return booking, nil
}
