package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by store lookups that match no row.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned by store inserts that hit a unique key.
	// Resolvers re-read the row written by the concurrent importer.
	ErrConflict = errors.New("unique key conflict")

	// ErrInvalidEncoding is returned when import content is not UTF-8.
	ErrInvalidEncoding = errors.New("encoding error: content is not valid UTF-8")

	// ErrInvalidPayload is returned for webhook payloads missing required fields.
	ErrInvalidPayload = errors.New("invalid webhook payload")
)

// RejectKind classifies why a row was rejected.
type RejectKind string

const (
	RejectMissingField  RejectKind = "missing_field"
	RejectInvalidDate   RejectKind = "invalid_date"
	RejectOrdering      RejectKind = "ordering"
	RejectInvalidFlight RejectKind = "invalid_flight_type"
	RejectDuplicate     RejectKind = "duplicate"
)

// Rejection reasons with fixed wording. Clients match on these strings.
const (
	ReasonFullNameRequired     = "Full name is required"
	ReasonRegistrationRequired = "Vehicle registration is required"
	ReasonMakeModelRequired    = "Vehicle make/model is required"
	ReasonPickupBeforeDropoff  = "Pickup time must be after dropoff time"
	ReasonDuplicateRow         = "Booking already exists (duplicate row)"
)

// RowError is a validation rejection for a single row. It never aborts a
// bulk import; the row is counted as failed and the batch continues.
type RowError struct {
	Kind   RejectKind
	Reason string
}

func (e *RowError) Error() string {
	return e.Reason
}

func reject(kind RejectKind, reason string) *RowError {
	return &RowError{Kind: kind, Reason: reason}
}

func rejectf(kind RejectKind, format string, args ...any) *RowError {
	return &RowError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// IsRejection reports whether err is a row-level validation rejection.
func IsRejection(err error) bool {
	var re *RowError
	return errors.As(err, &re)
}

// IsDuplicate reports whether err rejected a row that was already imported.
func IsDuplicate(err error) bool {
	var re *RowError
	return errors.As(err, &re) && re.Kind == RejectDuplicate
}

// ImportError is an import-level failure. The whole run was rolled back.
type ImportError struct {
	Source string
	Err    error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("failed to import CSV content: %v", e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}
