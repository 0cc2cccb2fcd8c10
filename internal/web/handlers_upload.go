package web

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/JonMunkholm/parkcrm/internal/core"
	"github.com/JonMunkholm/parkcrm/internal/logging"
)

var (
	errNoFile     = errors.New("no file provided")
	errNotCSV     = errors.New("File must be a CSV file")
	errFileTooBig = errors.New("file too large")
)

type importStatistics struct {
	TotalRows  int `json:"total_rows"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
}

type importResponse struct {
	Message    string            `json:"message"`
	Filename   string            `json:"filename"`
	Statistics importStatistics  `json:"statistics"`
	Errors     []core.RowFailure `json:"errors"`
	ErrorCount int               `json:"error_count"`
}

// handleImport imports an uploaded CSV of bookings in one transaction.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		if isTooLarge(err) {
			s.respondError(w, r, errFileTooBig, http.StatusRequestEntityTooLarge)
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !strings.HasSuffix(header.Filename, ".csv") && !strings.HasSuffix(header.Filename, ".CSV") {
		respondDetail(w, r, errNotCSV, http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("read upload: %w", err), http.StatusInternalServerError)
		return
	}

	logging.FromContext(r.Context()).Info("upload received",
		"file", header.Filename,
		"bytes", len(data),
	)

	ctx := WithRequestMetadata(r.Context(), r)
	stats, err := s.service.ImportUpload(ctx, header.Filename, data, core.SourceAPIUpload)
	if err != nil {
		s.respondImportError(w, r, err)
		return
	}

	errs := stats.Errors
	if n := s.cfg.Upload.MaxErrors; len(errs) > n {
		errs = errs[:n]
	}

	writeJSON(w, http.StatusOK, importResponse{
		Message:  "Import completed",
		Filename: header.Filename,
		Statistics: importStatistics{
			TotalRows:  stats.TotalRows,
			Successful: stats.Successful,
			Failed:     stats.Failed,
			Skipped:    stats.Skipped,
		},
		Errors:     errs,
		ErrorCount: len(stats.Errors),
	})
}

// isTooLarge reports whether err came from the MaxBytesReader. Some
// multipart paths flatten the error, so the message is checked too.
func isTooLarge(err error) bool {
	var tooBig *http.MaxBytesError
	return errors.As(err, &tooBig) ||
		errors.Is(err, multipart.ErrMessageTooLarge) ||
		strings.Contains(err.Error(), "request body too large")
}

// statusClientClosedRequest is the nginx convention for a request the
// client abandoned before the response was written.
const statusClientClosedRequest = 499

// respondImportError picks the status for an import-level failure. Bad
// input is the caller's fault; anything else is ours.
func (s *Server) respondImportError(w http.ResponseWriter, r *http.Request, err error) {
	var parseErr *csv.ParseError
	switch {
	case errors.Is(err, core.ErrTooManyImports):
		w.Header().Set("Retry-After", "30")
		s.respondError(w, r, err, http.StatusServiceUnavailable)
	case errors.Is(err, core.ErrInvalidEncoding):
		s.respondError(w, r, err, http.StatusBadRequest)
	case errors.As(err, &parseErr):
		respondDetail(w, r, err, http.StatusBadRequest)
	case errors.Is(err, context.DeadlineExceeded):
		s.respondError(w, r, err, http.StatusGatewayTimeout)
	case errors.Is(err, context.Canceled):
		logging.FromContext(r.Context()).Warn("import cancelled by client", "error", err)
		writeError(w, statusClientClosedRequest, "import cancelled by client")
	default:
		s.respondError(w, r, err, http.StatusInternalServerError)
	}
}

// handleImportStatus describes the expected CSV layout.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	cols := make([]string, len(core.Columns))
	for i, c := range core.Columns {
		cols[i] = strings.TrimSpace(c)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":          "CSV import endpoint is available",
		"supported_format": "CSV",
		"required_columns": cols,
		"max_file_size":    s.cfg.Upload.MaxFileSize,
		"imports":          s.service.LimiterStatus(),
	})
}

// handleImportHistory lists recent bulk import runs, newest first.
func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", core.DefaultHistoryLimit)

	runs, err := s.service.ListImportRuns(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []core.ImportRun{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}
