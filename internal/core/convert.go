package core

// convert.go turns raw spreadsheet cells into typed booking fields.
//
// Sheet data is messy: dates arrive day-first or month-first depending on
// who typed them, phone numbers carry spaces and dashes, and formula errors
// leak through as "#ERROR!". Every function here either returns a usable
// value or reports that the cell is absent; none of them reject a row on
// their own. Rejection decisions live in the importer.

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Date layouts tried in order. Day-first wins for ambiguous dates such as
// 03/04/2024 (3 April). Month-first only catches dates where the day-first
// reading is impossible, e.g. 12/31/2024.
var dateLayouts = []string{
	"2/1/2006",
	"1/2/2006",
	"2006-1-2",
}

// Timestamp layouts tried before the ISO fallback. The form export writes
// creation timestamps month-first, unlike the travel dates.
var timestampLayouts = []string{
	"1/2/2006 15:04:05",
	"2/1/2006 15:04:05",
}

var isoLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// blankInstructions are placeholder answers that mean "nothing to add".
var blankInstructions = map[string]bool{
	"":     true,
	"none": true,
	"no":   true,
	"na":   true,
}

// phoneErrorSentinel is what the sheet shows when a formula breaks.
const phoneErrorSentinel = "#ERROR!"

// ParseDate parses a travel date. Returns false when the cell is blank or
// matches none of the layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseClock parses "H:MM" or "HH:MM" into hour and minute.
func ParseClock(s string) (hour, minute int, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, false
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}

	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

// ParseDateTime combines a date cell and a time cell. A missing or
// unreadable time defaults to midnight; a missing date fails.
func ParseDateTime(dateStr, timeStr string) (time.Time, bool) {
	d, ok := ParseDate(dateStr)
	if !ok {
		return time.Time{}, false
	}

	h, m, ok := ParseClock(timeStr)
	if !ok {
		h, m = 0, 0
	}
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, time.UTC), true
}

// ParseTimestamp parses the form's creation timestamp.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}

	iso := strings.ReplaceAll(s, " ", "T")
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, iso, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// MaxCost is the largest value a bookings.cost NUMERIC(10,2) column holds.
var MaxCost = decimal.RequireFromString("99999999.99")

// Exponent bounds accepted by ParseCost. Rounding a decimal with a huge
// exponent expands every digit.
const (
	maxCostExponent = 8
	minCostExponent = -20
)

// ParseCost parses the cost cell. Blank, unparseable, negative and
// out-of-range values all collapse to zero; the result is rounded to cents.
func ParseCost(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	if exp := d.Exponent(); exp > maxCostExponent || exp < minCostExponent {
		return decimal.Zero
	}

	d = d.Round(2)
	if d.GreaterThan(MaxCost) {
		return decimal.Zero
	}
	return d
}

// ParseFlightType matches international/domestic case-insensitively.
func ParseFlightType(s string) (FlightType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(FlightInternational):
		return FlightInternational, true
	case string(FlightDomestic):
		return FlightDomestic, true
	default:
		return "", false
	}
}

// ParsePaymentMethod maps "eft" to EFT and everything else to cash.
func ParsePaymentMethod(s string) PaymentMethod {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(PaymentEFT):
		return PaymentEFT
	default:
		return PaymentCash
	}
}

// NormalizeEmail lower-cases and trims an address. Returns nil unless the
// address has an "@" followed by a domain containing a ".".
func NormalizeEmail(s string) *string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}

	parts := strings.Split(s, "@")
	if len(parts) < 2 || !strings.Contains(parts[1], ".") {
		return nil
	}
	return &s
}

// NormalizePhone keeps digits and a single leading "+". Blank values, the
// sheet's "#ERROR!" marker and values without digits return nil.
func NormalizePhone(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, phoneErrorSentinel) {
		return nil
	}

	var b strings.Builder
	b.Grow(len(s))
	if strings.HasPrefix(s, "+") {
		b.WriteByte('+')
	}

	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			digits++
		}
	}
	if digits == 0 {
		return nil
	}

	out := b.String()
	return &out
}

// NormalizeRegistration upper-cases a plate and collapses whitespace runs.
func NormalizeRegistration(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), " ")
}

// NormalizeInstructions trims free text and drops placeholder answers.
func NormalizeInstructions(s string) *string {
	s = strings.TrimSpace(s)
	if blankInstructions[strings.ToLower(s)] {
		return nil
	}
	return &s
}

// optionalText trims s and returns nil when it is blank.
func optionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
