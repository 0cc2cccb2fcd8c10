package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultHistoryLimit and MaxHistoryLimit bound ListImportRuns.
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 200
)

// ImportRun is one bulk import as recorded in the history table.
type ImportRun struct {
	ID         uuid.UUID `json:"id"`
	Source     string    `json:"source"`
	FileName   string    `json:"file_name,omitempty"`
	TotalRows  int       `json:"total_rows"`
	Successful int       `json:"successful"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	Error      string    `json:"error,omitempty"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Succeeded reports whether the run committed.
func (r *ImportRun) Succeeded() bool {
	return r.Error == ""
}

// apply copies the outcome of a run. A failed run rolled back, so its
// successful count is recorded as zero whatever the loop had reached.
func (r *ImportRun) apply(stats *Statistics, err error) {
	if stats != nil {
		r.TotalRows = stats.TotalRows
		r.Successful = stats.Successful
		r.Failed = stats.Failed
		r.Skipped = stats.Skipped
	}
	if err != nil {
		r.Successful = 0
		r.Error = err.Error()
	}
}

// ListImportRuns returns the most recent runs, newest first.
func (s *Service) ListImportRuns(ctx context.Context, limit int) ([]ImportRun, error) {
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}
	return s.store.ListImportRuns(ctx, limit)
}
