package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// SniffSampleSize is how many leading bytes are inspected to pick the
// field delimiter.
var SniffSampleSize = 1024

// ContextCheckInterval is how often (in rows) to check for cancellation.
var ContextCheckInterval = 100

// delimiterCandidates are tried in order; earlier entries win ties.
// ':' is deliberately absent because timestamps contain it.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ImportFromFile imports every row of the CSV file at path.
func (s *Service) ImportFromFile(ctx context.Context, path, source string) (*Statistics, error) {
	return s.importData(ctx, source, path, func() ([]byte, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		return data, nil
	})
}

// ImportFromString imports every row of in-memory CSV content.
func (s *Service) ImportFromString(ctx context.Context, content, source string) (*Statistics, error) {
	return s.importData(ctx, source, "", constData([]byte(content)))
}

// ImportUpload imports an uploaded file body, recording fileName in the
// run history.
func (s *Service) ImportUpload(ctx context.Context, fileName string, data []byte, source string) (*Statistics, error) {
	return s.importData(ctx, source, fileName, constData(data))
}

func constData(data []byte) func() ([]byte, error) {
	return func() ([]byte, error) { return data, nil }
}

// importData wraps one bulk run with concurrency limiting, history and
// metrics. A load failure is recorded like any other failed run.
func (s *Service) importData(ctx context.Context, source, fileName string, load func() ([]byte, error)) (*Statistics, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	run := &ImportRun{
		ID:         uuid.New(),
		Source:     source,
		FileName:   fileName,
		RemoteAddr: RemoteAddrFromContext(ctx),
		UserAgent:  UserAgentFromContext(ctx),
		StartedAt:  time.Now().UTC(),
	}
	logger := s.logger(ctx).With("run_id", run.ID, "source", source, "file", fileName)

	var stats *Statistics
	data, err := load()
	if err != nil {
		stats = newStatistics()
	} else {
		logger.Info("import started", "bytes", len(data))
		stats, err = s.importRecords(ctx, data, source)
	}

	run.FinishedAt = time.Now().UTC()
	run.apply(stats, err)
	s.observer.ObserveRun(source, stats, err, run.FinishedAt.Sub(run.StartedAt))

	// History is written outside the import transaction so a failed run is
	// still recorded.
	if recErr := s.store.RecordImportRun(context.WithoutCancel(ctx), run); recErr != nil {
		logger.Warn("failed to record import run", "error", recErr)
	}

	if err != nil {
		logger.Error("import failed", "error", err, "rows_seen", stats.TotalRows)
		var ie *ImportError
		if !errors.As(err, &ie) {
			err = &ImportError{Source: source, Err: err}
		}
		return nil, err
	}

	logger.Info("import completed",
		"total_rows", stats.TotalRows,
		"successful", stats.Successful,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
		"duration_ms", run.FinishedAt.Sub(run.StartedAt).Milliseconds(),
	)
	return stats, nil
}

// importRecords runs every data row through the importer on one
// transaction. The returned Statistics is never nil, so a failed run can
// still report how far it got.
func (s *Service) importRecords(ctx context.Context, data []byte, source string) (*Statistics, error) {
	stats := newStatistics()

	if !utf8.Valid(data) {
		return stats, ErrInvalidEncoding
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	sample := data
	if len(sample) > SniffSampleSize {
		sample = sample[:SniffSampleSize]
	}
	delimiter := sniffDelimiter(sample, len(data) > SniffSampleSize)

	records, err := parseCSV(data, delimiter)
	if err != nil {
		return stats, fmt.Errorf("invalid csv: %w", err)
	}
	if len(records) == 0 {
		return stats, nil
	}

	header := records[0]
	dataRows := records[1:]

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return stats, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	logger := s.logger(ctx)
	for i, record := range dataRows {
		rowNumber := i + 2 // line 1 is the header

		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return stats, fmt.Errorf("import cancelled at row %d: %w", rowNumber, err)
			}
		}

		stats.TotalRows++

		if isEmptyRow(record) {
			stats.Skipped++
			continue
		}

		row := makeRow(header, record)
		if _, err := s.importer.ImportRow(ctx, tx, row, rowNumber, source); err != nil {
			var re *RowError
			if !errors.As(err, &re) {
				return stats, fmt.Errorf("row %d: %w", rowNumber, err)
			}
			logger.Debug("row rejected", "row", rowNumber, "reason", re.Reason)
			stats.Failed++
			stats.Errors = append(stats.Errors, RowFailure{
				Row:   rowNumber,
				Error: re.Reason,
				Data:  map[string]string(row),
			})
			continue
		}
		stats.Successful++
	}

	if err := tx.Commit(ctx); err != nil {
		return stats, fmt.Errorf("commit: %w", err)
	}
	return stats, nil
}

// parseCSV reads all records with the given delimiter.
func parseCSV(data []byte, delimiter rune) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

// makeRow keys a record by header name. Missing trailing fields become ""
// and fields beyond the header are dropped, as are blank header names.
func makeRow(header, record []string) Row {
	row := make(Row, len(header))
	for i, name := range header {
		if name == "" {
			continue
		}
		if i < len(record) {
			row[name] = record[i]
		} else {
			row[name] = ""
		}
	}
	return row
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// sniffDelimiter picks the candidate that splits every complete sample record
// into the same, non-zero number of fields. The most frequent consistent
// candidate wins; without one the result is ','.
//
// truncated reports whether the sample was cut from a longer input, in which
// case its last record is incomplete and ignored.
func sniffDelimiter(sample []byte, truncated bool) rune {
	records := splitRecords(string(sample))
	if truncated && len(records) > 1 {
		records = records[:len(records)-1]
	}

	var complete []string
	for _, rec := range records {
		if strings.TrimSpace(rec) != "" {
			complete = append(complete, rec)
		}
	}
	if len(complete) == 0 {
		return ','
	}

	best, bestCount := ',', 0
	for _, d := range delimiterCandidates {
		n := countOutsideQuotes(complete[0], d)
		if n == 0 {
			continue
		}
		consistent := true
		for _, rec := range complete[1:] {
			if countOutsideQuotes(rec, d) != n {
				consistent = false
				break
			}
		}
		if consistent && n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// splitRecords splits on line breaks outside double quotes, so a quoted
// field spanning lines stays in one record. A trailing "\r" is dropped.
func splitRecords(sample string) []string {
	var records []string
	quoted := false
	start := 0
	for i, r := range sample {
		switch {
		case r == '"':
			quoted = !quoted
		case r == '\n' && !quoted:
			records = append(records, strings.TrimRight(sample[start:i], "\r"))
			start = i + 1
		}
	}
	return append(records, strings.TrimRight(sample[start:], "\r"))
}

// countOutsideQuotes counts d in record, ignoring double-quoted sections.
func countOutsideQuotes(record string, d rune) int {
	n := 0
	quoted := false
	for _, r := range record {
		switch {
		case r == '"':
			quoted = !quoted
		case r == d && !quoted:
			n++
		}
	}
	return n
}
