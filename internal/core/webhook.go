package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// WebhookOutcome is the result of one webhook delivery.
type WebhookOutcome string

const (
	OutcomeImported         WebhookOutcome = "imported"
	OutcomeDuplicateIgnored WebhookOutcome = "duplicate_ignored"
	OutcomeRejected         WebhookOutcome = "rejected"
	OutcomeInvalid          WebhookOutcome = "invalid"
	OutcomeError            WebhookOutcome = "error"
)

// flexString accepts a JSON string, number, boolean or null. Apps Script
// sends numeric cells (cost, row number, phone) as JSON numbers.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if len(b) > 0 && (b[0] == '{' || b[0] == '[') {
		return fmt.Errorf("expected scalar, got %s", b)
	}
	*f = flexString(b)
	return nil
}

// WebhookPayload is the row the Google Sheets trigger posts on form submit.
type WebhookPayload struct {
	Timestamp           flexString `json:"timestamp"`
	FullNames           flexString `json:"fullNames"`
	Email               flexString `json:"email"`
	CellNumber          flexString `json:"cellNumber"`
	TypeOfFlight        flexString `json:"typeOfFlight"`
	DepartureDate       flexString `json:"departureDate"`
	VehicleDropOffTime  flexString `json:"vehicleDropOffTime"`
	ArrivalDate         flexString `json:"arrivalDate"`
	VehiclePickUpTime   flexString `json:"vehiclePickUpTime"`
	VehicleMakeAndModel flexString `json:"vehicleMakeAndModel"`
	VehicleColor        flexString `json:"vehicleColor"`
	VehicleRegistration flexString `json:"vehicleRegistration"`
	PaymentMethod       flexString `json:"paymentMethod"`
	SpecialInstructions flexString `json:"specialInstructions"`
	Cost                flexString `json:"cost"`
	RowNumber           flexString `json:"rowNumber" validate:"required,number"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}

// ParseWebhookPayload decodes and validates a webhook body.
// Errors wrap ErrInvalidPayload.
func ParseWebhookPayload(body []byte) (*WebhookPayload, error) {
	var p WebhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// ParseWebhook is ParseWebhookPayload that also counts and logs invalid
// deliveries.
func (s *Service) ParseWebhook(ctx context.Context, body []byte) (*WebhookPayload, error) {
	p, err := ParseWebhookPayload(body)
	if err != nil {
		s.observer.ObserveWebhook(OutcomeInvalid)
		s.logger(ctx).Warn("invalid webhook payload", "error", err)
		return nil, err
	}
	return p, nil
}

// Validate checks the fields the webhook cannot do without.
func (p *WebhookPayload) Validate() error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			if fe.Tag() == "required" {
				return fmt.Errorf("%w: %s is required", ErrInvalidPayload, fe.Field())
			}
			return fmt.Errorf("%w: %s must be a positive whole number", ErrInvalidPayload, fe.Field())
		}
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if _, err := p.RowNum(); err != nil {
		return err
	}
	return nil
}

// RowNum returns the sheet row the payload came from. Zero counts as missing.
func (p *WebhookPayload) RowNum() (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(string(p.RowNumber)))
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: rowNumber is required", ErrInvalidPayload)
	}
	return n, nil
}

// ToRow reshapes the payload into spreadsheet headers. A missing cost is
// sent as "0".
func (p *WebhookPayload) ToRow() Row {
	cost := string(p.Cost)
	if cost == "" {
		cost = "0"
	}
	return Row{
		ColTimestamp:    string(p.Timestamp),
		ColFullName:     string(p.FullNames),
		ColEmail:        string(p.Email),
		ColWhatsApp:     string(p.CellNumber),
		ColFlightType:   string(p.TypeOfFlight),
		ColDepartDate:   string(p.DepartureDate),
		ColDropoffTime:  string(p.VehicleDropOffTime),
		ColArrivalDate:  string(p.ArrivalDate),
		ColPickupTime:   string(p.VehiclePickUpTime),
		ColMakeModel:    string(p.VehicleMakeAndModel),
		ColColor:        string(p.VehicleColor),
		ColRegistration: string(p.VehicleRegistration),
		ColPayment:      string(p.PaymentMethod),
		ColInstructions: string(p.SpecialInstructions),
		ColCost:         cost,
	}
}

// ImportWebhook imports one webhook row on its own transaction, tagged
// SourceGoogleSheet. A duplicate delivery returns OutcomeDuplicateIgnored
// and a nil error. Other rejections come back as *RowError.
func (s *Service) ImportWebhook(ctx context.Context, p *WebhookPayload) (WebhookOutcome, int, error) {
	rowNumber, err := p.RowNum()
	if err != nil {
		s.observer.ObserveWebhook(OutcomeInvalid)
		return OutcomeInvalid, 0, err
	}

	outcome, err := s.importWebhookRow(ctx, p.ToRow(), rowNumber)
	s.observer.ObserveWebhook(outcome)

	logger := s.logger(ctx).With("row", rowNumber, "outcome", outcome)
	switch outcome {
	case OutcomeError:
		logger.Error("webhook import failed", "error", err)
	case OutcomeRejected:
		logger.Info("webhook row rejected", "reason", err)
	default:
		logger.Info("webhook row processed")
	}
	return outcome, rowNumber, err
}

func (s *Service) importWebhookRow(ctx context.Context, row Row, rowNumber int) (WebhookOutcome, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return OutcomeError, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := s.importer.ImportRow(ctx, tx, row, rowNumber, SourceGoogleSheet); err != nil {
		switch {
		case IsDuplicate(err):
			return OutcomeDuplicateIgnored, nil
		case IsRejection(err):
			return OutcomeRejected, err
		default:
			return OutcomeError, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return OutcomeError, fmt.Errorf("commit: %w", err)
	}
	return OutcomeImported, nil
}
