package web

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/parkcrm/internal/core"
)

// maxWebhookBody bounds one webhook delivery. A single sheet row is a few
// hundred bytes.
const maxWebhookBody = 64 << 10

var errBadWebhookSecret = errors.New("Invalid webhook secret")

type webhookResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	RowNumber int    `json:"rowNumber"`
}

// handleGoogleSheetsWebhook imports the row a Google Sheets trigger posts
// when a form response lands. Duplicate deliveries are acknowledged so the
// sheet script does not retry them.
func (s *Server) handleGoogleSheetsWebhook(w http.ResponseWriter, r *http.Request) {
	if secret := s.cfg.Security.WebhookSecret; secret != "" {
		got := r.Header.Get("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			respondDetail(w, r, errBadWebhookSecret, http.StatusUnauthorized)
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		if isTooLarge(err) {
			s.respondError(w, r, fmt.Errorf("request body too large: %w", err), http.StatusRequestEntityTooLarge)
			return
		}
		s.respondError(w, r, fmt.Errorf("read webhook body: %w", err), http.StatusBadRequest)
		return
	}

	payload, err := s.service.ParseWebhook(r.Context(), body)
	if err != nil {
		respondDetail(w, r, err, http.StatusBadRequest)
		return
	}

	outcome, rowNumber, err := s.service.ImportWebhook(r.Context(), payload)
	switch outcome {
	case core.OutcomeImported, core.OutcomeDuplicateIgnored:
		writeJSON(w, http.StatusOK, webhookResponse{
			Status:    "ok",
			Message:   string(outcome),
			RowNumber: rowNumber,
		})
	case core.OutcomeRejected, core.OutcomeInvalid:
		respondDetail(w, r, err, http.StatusBadRequest)
	default:
		s.respondError(w, r, err, http.StatusInternalServerError)
	}
}
