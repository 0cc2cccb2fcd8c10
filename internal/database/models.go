package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type AuditLog struct {
	ID        int64            `json:"id"`
	BookingID int64            `json:"booking_id"`
	EventType string           `json:"event_type"`
	Message   string           `json:"message"`
	CreatedAt pgtype.Timestamp `json:"created_at"`
}

type Booking struct {
	ID                  int64            `json:"id"`
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

type Customer struct {
	ID             int64            `json:"id"`
	FullName       string           `json:"full_name"`
	Email          pgtype.Text      `json:"email"`
	WhatsappNumber pgtype.Text      `json:"whatsapp_number"`
	CreatedAt      pgtype.Timestamp `json:"created_at"`
}

type ImportRun struct {
	ID         pgtype.UUID      `json:"id"`
	Source     string           `json:"source"`
	FileName   pgtype.Text      `json:"file_name"`
	TotalRows  int32            `json:"total_rows"`
	Successful int32            `json:"successful"`
	Failed     int32            `json:"failed"`
	Skipped    int32            `json:"skipped"`
	Error      pgtype.Text      `json:"error"`
	RemoteAddr pgtype.Text      `json:"remote_addr"`
	UserAgent  pgtype.Text      `json:"user_agent"`
	StartedAt  pgtype.Timestamp `json:"started_at"`
	FinishedAt pgtype.Timestamp `json:"finished_at"`
}

type Vehicle struct {
	ID           int64            `json:"id"`
	Registration string           `json:"registration"`
	MakeModel    string           `json:"make_model"`
	Color        pgtype.Text      `json:"color"`
	CreatedAt    pgtype.Timestamp `json:"created_at"`
}
