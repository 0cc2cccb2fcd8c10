package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertImportRun = `-- name: InsertImportRun :exec
INSERT INTO import_runs (
    id, source, file_name, total_rows, successful, failed, skipped,
    error, remote_addr, user_agent, started_at, finished_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
)
`

type InsertImportRunParams struct {
	ID         pgtype.UUID      `json:"id"`
	Source     string           `json:"source"`
	FileName   pgtype.Text      `json:"file_name"`
	TotalRows  int32            `json:"total_rows"`
	Successful int32            `json:"successful"`
	Failed     int32            `json:"failed"`
	Skipped    int32            `json:"skipped"`
	Error      pgtype.Text      `json:"error"`
	RemoteAddr pgtype.Text      `json:"remote_addr"`
	UserAgent  pgtype.Text      `json:"user_agent"`
	StartedAt  pgtype.Timestamp `json:"started_at"`
	FinishedAt pgtype.Timestamp `json:"finished_at"`
}

func (q *Queries) InsertImportRun(ctx context.Context, arg InsertImportRunParams) error {
	_, err := q.db.Exec(ctx, insertImportRun,
		arg.ID,
		arg.Source,
		arg.FileName,
		arg.TotalRows,
		arg.Successful,
		arg.Failed,
		arg.Skipped,
		arg.Error,
		arg.RemoteAddr,
		arg.UserAgent,
		arg.StartedAt,
		arg.FinishedAt,
	)
	return err
}

const listImportRuns = `-- name: ListImportRuns :many
SELECT id, source, file_name, total_rows, successful, failed, skipped,
       error, remote_addr, user_agent, started_at, finished_at
FROM import_runs
ORDER BY started_at DESC
LIMIT $1
`

func (q *Queries) ListImportRuns(ctx context.Context, limit int32) ([]ImportRun, error) {
	rows, err := q.db.Query(ctx, listImportRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ImportRun
	for rows.Next() {
		var i ImportRun
		if err := rows.Scan(
			&i.ID,
			&i.Source,
			&i.FileName,
			&i.TotalRows,
			&i.Successful,
			&i.Failed,
			&i.Skipped,
			&i.Error,
			&i.RemoteAddr,
			&i.UserAgent,
			&i.StartedAt,
			&i.FinishedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteImportRunsBefore = `-- name: DeleteImportRunsBefore :execrows
DELETE FROM import_runs WHERE started_at < $1
`

func (q *Queries) DeleteImportRunsBefore(ctx context.Context, startedAt pgtype.Timestamp) (int64, error) {
	result, err := q.db.Exec(ctx, deleteImportRunsBefore, startedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
