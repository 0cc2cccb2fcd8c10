package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Spreadsheet column headers. Names are matched exactly, including case and
// the trailing spaces the Google Form export puts on the two time columns.
const (
	ColTimestamp    = "Timestamp"
	ColFullName     = "Full Names"
	ColEmail        = "Email"
	ColWhatsApp     = "WhatsApp number"
	ColFlightType   = "Type of Flight"
	ColDepartDate   = "Departure Date"
	ColDropoffTime  = "Vehicle Drop off Time "
	ColArrivalDate  = "Arrival Date"
	ColPickupTime   = "Vehicle Pick -up Time "
	ColMakeModel    = "Vehicle Make and Model"
	ColColor        = "Vehicle Color"
	ColRegistration = "Vehicle Registration"
	ColPayment      = "Payment Method"
	ColInstructions = "Special Instructions"
	ColCost         = "cost"
)

// Columns lists the expected headers in spreadsheet order.
var Columns = []string{
	ColTimestamp,
	ColFullName,
	ColEmail,
	ColWhatsApp,
	ColFlightType,
	ColDepartDate,
	ColDropoffTime,
	ColArrivalDate,
	ColPickupTime,
	ColMakeModel,
	ColColor,
	ColRegistration,
	ColPayment,
	ColInstructions,
	ColCost,
}

// Known ingestion sources.
const (
	SourceCSVScript   = "csv_import_script"
	SourceAPIUpload   = "api_upload"
	SourceGoogleSheet = "google_sheet"
)

// Row is one booking record keyed by spreadsheet header.
type Row map[string]string

// Get returns the raw value for a column, or "" when absent.
func (r Row) Get(col string) string {
	return r[col]
}

// FlightType is the kind of flight the customer is taking.
type FlightType string

const (
	FlightDomestic      FlightType = "domestic"
	FlightInternational FlightType = "international"
)

// PaymentMethod is how the customer pays for parking.
type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentEFT   PaymentMethod = "eft"
	PaymentCard  PaymentMethod = "card"
	PaymentOther PaymentMethod = "other"
)

// BookingStatus is the lifecycle state of a booking.
// The importer only ever creates StatusBooked; later transitions belong to
// the operations desk.
type BookingStatus string

const (
	StatusBooked    BookingStatus = "booked"
	StatusOnSite    BookingStatus = "on_site"
	StatusCollected BookingStatus = "collected"
	StatusOverstay  BookingStatus = "overstay"
	StatusCancelled BookingStatus = "cancelled"
	StatusNoShow    BookingStatus = "no_show"
)

// AuditEvent is the type of an audit log entry.
type AuditEvent string

const (
	AuditCreated      AuditEvent = "created"
	AuditCheckIn      AuditEvent = "check_in"
	AuditCheckOut     AuditEvent = "check_out"
	AuditNote         AuditEvent = "note"
	AuditStatusChange AuditEvent = "status_change"
	AuditSync         AuditEvent = "sync"
)

// Customer is deduplicated by normalized email, then by normalized phone.
type Customer struct {
	ID             int64     `json:"id"`
	FullName       string    `json:"full_name"`
	Email          *string   `json:"email,omitempty"`
	WhatsAppNumber *string   `json:"whatsapp_number,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Vehicle is deduplicated by normalized registration.
type Vehicle struct {
	ID           int64     `json:"id"`
	Registration string    `json:"registration"`
	MakeModel    string    `json:"make_model"`
	Color        *string   `json:"color,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Booking is one parking reservation created from an ingested row.
type Booking struct {
	ID                  int64           `json:"id"`
	Source              string          `json:"source"`
	SourceRowID         string          `json:"source_row_id"`
	CustomerID          int64           `json:"customer_id"`
	VehicleID           int64           `json:"vehicle_id"`
	FlightType          FlightType      `json:"flight_type"`
	DropoffAt           time.Time       `json:"dropoff_at"`
	PickupAt            time.Time       `json:"pickup_at"`
	PaymentMethod       PaymentMethod   `json:"payment_method"`
	SpecialInstructions *string         `json:"special_instructions,omitempty"`
	Cost                decimal.Decimal `json:"cost"`
	Status              BookingStatus   `json:"status"`
	CreatedAt           time.Time       `json:"created_at"`
}

// AuditLog is an entry in a booking's history.
type AuditLog struct {
	ID        int64      `json:"id"`
	BookingID int64      `json:"booking_id"`
	Event     AuditEvent `json:"event_type"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
}

// RowFailure describes one rejected row in a bulk import.
type RowFailure struct {
	Row   int               `json:"row"`
	Error string            `json:"error"`
	Data  map[string]string `json:"data"`
}

// Statistics summarizes one bulk import run. It is returned to the caller
// and never persisted as-is (see ImportRun for the history record).
type Statistics struct {
	TotalRows  int          `json:"total_rows"`
	Successful int          `json:"successful"`
	Failed     int          `json:"failed"`
	Skipped    int          `json:"skipped"`
	Errors     []RowFailure `json:"errors"`
}

func newStatistics() *Statistics {
	return &Statistics{Errors: []RowFailure{}}
}
