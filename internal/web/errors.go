package web

// errors.go writes every failure as JSON. The technical error is logged
// with the request ID; the client gets the mapped user message.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/parkcrm/internal/core"
	"github.com/JonMunkholm/parkcrm/internal/logging"
)

// ErrorResponse is the JSON body of every error. Detail carries the
// message clients of the previous API read.
type ErrorResponse struct {
	Error   string `json:"error"`
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError maps err through core.MapError, logs it and writes the
// mapped message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Detail:  msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// respondDetail writes a client error whose text must reach the caller
// verbatim, such as a row rejection reason.
func respondDetail(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)

	logging.FromContext(r.Context()).Info("request rejected",
		"path", r.URL.Path,
		"status", status,
		"reason", err.Error(),
	)

	writeJSON(w, status, ErrorResponse{
		Error:   err.Error(),
		Detail:  err.Error(),
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// writeError writes an error raised by the web layer itself.
func writeError(w http.ResponseWriter, status int, message string) {
	msg := core.MapError(errors.New(message))
	writeJSON(w, status, ErrorResponse{
		Error:   message,
		Detail:  message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// writeJSON encodes v with the given status. Encoding errors are logged
// since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
