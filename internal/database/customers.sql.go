package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getCustomerByEmail = `-- name: GetCustomerByEmail :one
SELECT id, full_name, email, whatsapp_number, created_at FROM customers
WHERE email = $1
LIMIT 1
`

func (q *Queries) GetCustomerByEmail(ctx context.Context, email pgtype.Text) (Customer, error) {
	row := q.db.QueryRow(ctx, getCustomerByEmail, email)
	var i Customer
	err := row.Scan(
		&i.ID,
		&i.FullName,
		&i.Email,
		&i.WhatsappNumber,
		&i.CreatedAt,
	)
	return i, err
}

const getCustomerByPhone = `-- name: GetCustomerByPhone :one
SELECT id, full_name, email, whatsapp_number, created_at FROM customers
WHERE whatsapp_number = $1
ORDER BY id
LIMIT 1
`

func (q *Queries) GetCustomerByPhone(ctx context.Context, whatsappNumber pgtype.Text) (Customer, error) {
	row := q.db.QueryRow(ctx, getCustomerByPhone, whatsappNumber)
	var i Customer
	err := row.Scan(
		&i.ID,
		&i.FullName,
		&i.Email,
		&i.WhatsappNumber,
		&i.CreatedAt,
	)
	return i, err
}

const insertCustomer = `-- name: InsertCustomer :one
INSERT INTO customers (full_name, email, whatsapp_number)
VALUES ($1, $2, $3)
ON CONFLICT (email) WHERE email IS NOT NULL DO NOTHING
RETURNING id, full_name, email, whatsapp_number, created_at
`

type InsertCustomerParams struct {
	FullName       string      `json:"full_name"`
	Email          pgtype.Text `json:"email"`
	WhatsappNumber pgtype.Text `json:"whatsapp_number"`
}

// InsertCustomer returns pgx.ErrNoRows when the email is already taken.
func (q *Queries) InsertCustomer(ctx context.Context, arg InsertCustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx, insertCustomer, arg.FullName, arg.Email, arg.WhatsappNumber)
	var i Customer
	err := row.Scan(
		&i.ID,
		&i.FullName,
		&i.Email,
		&i.WhatsappNumber,
		&i.CreatedAt,
	)
	return i, err
}
