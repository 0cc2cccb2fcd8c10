package core

// error_messages.go maps technical errors to messages the CRM can show.
//
// # Error Codes Reference
//
// Each message carries a code that operators can quote to support.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key          Patterns: "duplicate key"
//	DB002 - Unique constraint      Patterns: "unique constraint", "violates unique"
//	DB003 - Check constraint       Patterns: "violates check constraint"
//	DB004 - Connection refused     Patterns: "connection refused"
//	DB005 - Connection reset       Patterns: "connection reset"
//	DB006 - Timeout                Patterns: "timeout"
//	DB007 - Deadlock               Patterns: "deadlock"
//
// # Booking Validation (VAL001-VAL099)
//
//	VAL001 - Unreadable date       Patterns: "date/time"
//	VAL002 - Pickup before dropoff Patterns: "pickup time must be after"
//	VAL003 - Missing field         Patterns: "is required"
//	VAL004 - Flight type           Patterns: "invalid flight type"
//	VAL005 - Duplicate row         Patterns: "duplicate row"
//	VAL006 - Bad webhook payload   Patterns: "invalid webhook payload"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large       Patterns: "file too large", "request body too large"
//	FILE002 - Not a CSV file       Patterns: "must be a csv file"
//	FILE003 - Encoding error       Patterns: "encoding error"
//	FILE004 - No file              Patterns: "no file provided"
//	FILE005 - Malformed CSV        Patterns: "invalid csv"
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - System busy           Patterns: "too many concurrent imports"
//	IMP002 - Request cancelled     Patterns: "context canceled"
//	IMP003 - Request timeout       Patterns: "context deadline exceeded"
//
// # Access (AUTH001-AUTH099, RATE001)
//
//	AUTH001 - Webhook secret       Patterns: "webhook secret"
//	AUTH002 - API key              Patterns: "api key"
//	RATE001 - Rate limited         Patterns: "rate limit"
//
// ERR000 is the fallback; check the logs for the technical error.
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Database constraints
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this key already exists",
			Action:  "Review the failed rows for repeated entries",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check for duplicate entries in your CSV",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A duplicate value was found",
			Action:  "Review your data for duplicate key values",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates check constraint",
		msg: UserMessage{
			Message: "A booking value is out of range",
			Action:  "Check that pickup is after dropoff and cost is not negative",
			Code:    "DB003",
		},
	},

	// Database connectivity
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try importing a smaller file or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},

	// Booking validation
	{
		pattern: "date/time",
		msg: UserMessage{
			Message: "A departure or arrival date could not be read",
			Action:  "Use DD/MM/YYYY or YYYY-MM-DD dates and HH:MM times",
			Code:    "VAL001",
		},
	},
	{
		pattern: "pickup time must be after",
		msg: UserMessage{
			Message: "Pickup is not after dropoff",
			Action:  "Check the arrival date and pickup time",
			Code:    "VAL002",
		},
	},
	{
		pattern: "is required",
		msg: UserMessage{
			Message: "Required field is empty",
			Action:  "Fill in name, vehicle registration and make/model",
			Code:    "VAL003",
		},
	},
	{
		pattern: "invalid flight type",
		msg: UserMessage{
			Message: "Flight type is not recognised",
			Action:  "Use Domestic or International",
			Code:    "VAL004",
		},
	},
	{
		pattern: "duplicate row",
		msg: UserMessage{
			Message: "This row has already been imported",
			Action:  "No action needed",
			Code:    "VAL005",
		},
	},
	{
		pattern: "invalid webhook payload",
		msg: UserMessage{
			Message: "The webhook payload is malformed",
			Action:  "Check the Apps Script sends JSON with a rowNumber",
			Code:    "VAL006",
		},
	},

	// Files
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "must be a csv file",
		msg: UserMessage{
			Message: "File must be a CSV file",
			Action:  "Export the sheet as .csv and upload again",
			Code:    "FILE002",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File encoding error. Please ensure the file is UTF-8 encoded.",
			Action:  "Save file as UTF-8 encoding",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Check quoting and delimiters in the file",
			Code:    "FILE005",
		},
	},

	// Import lifecycle
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "System is busy processing other imports",
			Action:  "Please wait a moment and try again",
			Code:    "IMP001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "IMP002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try importing a smaller file or check your connection",
			Code:    "IMP003",
		},
	},

	// Access
	{
		pattern: "webhook secret",
		msg: UserMessage{
			Message: "Invalid webhook secret",
			Action:  "Check the X-Webhook-Secret header configured in the sheet",
			Code:    "AUTH001",
		},
	},
	{
		pattern: "api key",
		msg: UserMessage{
			Message: "Invalid or missing API key",
			Action:  "Send a valid key in the X-API-Key header",
			Code:    "AUTH002",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Unmatched errors map to ERR000; nil maps to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matched a specific pattern rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error (for logs) with its mapped message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
