package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const bookingExists = `-- name: BookingExists :one
SELECT EXISTS (
    SELECT 1 FROM bookings WHERE source = $1 AND source_row_id = $2
)
`

type BookingExistsParams struct {
	Source      string `json:"source"`
	SourceRowID string `json:"source_row_id"`
}

func (q *Queries) BookingExists(ctx context.Context, arg BookingExistsParams) (bool, error) {
	row := q.db.QueryRow(ctx, bookingExists, arg.Source, arg.SourceRowID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const insertBooking = `-- name: InsertBooking :one
INSERT INTO bookings (
    source, source_row_id, customer_id, vehicle_id, flight_type,
    dropoff_at, pickup_at, payment_method, special_instructions, cost,
    status, created_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
)
ON CONFLICT (source, source_row_id) DO NOTHING
RETURNING id
`

type InsertBookingParams struct {
	Source              string           `json:"source"`
	SourceRowID         string           `json:"source_row_id"`
	CustomerID          int64            `json:"customer_id"`
	VehicleID           int64            `json:"vehicle_id"`
	FlightType          string           `json:"flight_type"`
	DropoffAt           pgtype.Timestamp `json:"dropoff_at"`
	PickupAt            pgtype.Timestamp `json:"pickup_at"`
	PaymentMethod       string           `json:"payment_method"`
	SpecialInstructions pgtype.Text      `json:"special_instructions"`
	Cost                pgtype.Numeric   `json:"cost"`
	Status              string           `json:"status"`
	CreatedAt           pgtype.Timestamp `json:"created_at"`
}

// InsertBooking returns pgx.ErrNoRows when (source, source_row_id) exists.
func (q *Queries) InsertBooking(ctx context.Context, arg InsertBookingParams) (int64, error) {
	row := q.db.QueryRow(ctx, insertBooking,
		arg.Source,
		arg.SourceRowID,
		arg.CustomerID,
		arg.VehicleID,
		arg.FlightType,
		arg.DropoffAt,
		arg.PickupAt,
		arg.PaymentMethod,
		arg.SpecialInstructions,
		arg.Cost,
		arg.Status,
		arg.CreatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const insertAuditLog = `-- name: InsertAuditLog :one
INSERT INTO audit_logs (booking_id, event_type, message)
VALUES ($1, $2, $3)
RETURNING id, booking_id, event_type, message, created_at
`

type InsertAuditLogParams struct {
	BookingID int64  `json:"booking_id"`
	EventType string `json:"event_type"`
	Message   string `json:"message"`
}

func (q *Queries) InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) (AuditLog, error) {
	row := q.db.QueryRow(ctx, insertAuditLog, arg.BookingID, arg.EventType, arg.Message)
	var i AuditLog
	err := row.Scan(
		&i.ID,
		&i.BookingID,
		&i.EventType,
		&i.Message,
		&i.CreatedAt,
	)
	return i, err
}

const countBookingsBySource = `-- name: CountBookingsBySource :one
SELECT count(*) FROM bookings WHERE source = $1
`

func (q *Queries) CountBookingsBySource(ctx context.Context, source string) (int64, error) {
	row := q.db.QueryRow(ctx, countBookingsBySource, source)
	var count int64
	err := row.Scan(&count)
	return count, err
}
