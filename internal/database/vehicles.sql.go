package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getVehicleByRegistration = `-- name: GetVehicleByRegistration :one
SELECT id, registration, make_model, color, created_at FROM vehicles
WHERE registration = $1
`

func (q *Queries) GetVehicleByRegistration(ctx context.Context, registration string) (Vehicle, error) {
	row := q.db.QueryRow(ctx, getVehicleByRegistration, registration)
	var i Vehicle
	err := row.Scan(
		&i.ID,
		&i.Registration,
		&i.MakeModel,
		&i.Color,
		&i.CreatedAt,
	)
	return i, err
}

const insertVehicle = `-- name: InsertVehicle :one
INSERT INTO vehicles (registration, make_model, color)
VALUES ($1, $2, $3)
ON CONFLICT (registration) DO NOTHING
RETURNING id, registration, make_model, color, created_at
`

type InsertVehicleParams struct {
	Registration string      `json:"registration"`
	MakeModel    string      `json:"make_model"`
	Color        pgtype.Text `json:"color"`
}

// InsertVehicle returns pgx.ErrNoRows when the registration is already taken.
func (q *Queries) InsertVehicle(ctx context.Context, arg InsertVehicleParams) (Vehicle, error) {
	row := q.db.QueryRow(ctx, insertVehicle, arg.Registration, arg.MakeModel, arg.Color)
	var i Vehicle
	err := row.Scan(
		&i.ID,
		&i.Registration,
		&i.MakeModel,
		&i.Color,
		&i.CreatedAt,
	)
	return i, err
}
