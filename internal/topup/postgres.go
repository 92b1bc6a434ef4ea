package topup

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores topup attempts in PostgreSQL so they survive
// server restarts.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the attempts table if it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS topup_attempts (
        id UUID PRIMARY KEY,
        card_id TEXT NOT NULL,
        amount_usd TEXT NOT NULL,
        order_id TEXT NOT NULL DEFAULT '',
        invoice_address TEXT NOT NULL DEFAULT '',
        payment_hash TEXT NOT NULL DEFAULT '',
        state TEXT NOT NULL,
        failure_reason TEXT NOT NULL DEFAULT '',
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    )`)
	return err
}

// Save inserts an attempt record.
func (r *PostgresRepository) Save(ctx context.Context, attempt Attempt) error {
	_, err := r.db.Exec(ctx, `INSERT INTO topup_attempts
        (id, card_id, amount_usd, order_id, invoice_address, payment_hash, state, failure_reason, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		attempt.ID, attempt.CardID, attempt.AmountUSD, attempt.OrderID, attempt.InvoiceAddress,
		attempt.PaymentHash, string(attempt.State), attempt.FailureReason,
		attempt.CreatedAt.UTC(), attempt.UpdatedAt.UTC())
	return err
}

// Update rewrites the mutable fields of an attempt.
func (r *PostgresRepository) Update(ctx context.Context, attempt Attempt) error {
	tag, err := r.db.Exec(ctx, `UPDATE topup_attempts
        SET order_id = $2, invoice_address = $3, payment_hash = $4, state = $5, failure_reason = $6, updated_at = $7
        WHERE id = $1`,
		attempt.ID, attempt.OrderID, attempt.InvoiceAddress, attempt.PaymentHash,
		string(attempt.State), attempt.FailureReason, attempt.UpdatedAt.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAttemptNotFound
	}
	return nil
}

// Get fetches an attempt by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Attempt, error) {
	row := r.db.QueryRow(ctx, `SELECT id, card_id, amount_usd, order_id, invoice_address, payment_hash, state, failure_reason, created_at, updated_at
        FROM topup_attempts WHERE id = $1`, id)
	attempt, err := scanAttempt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Attempt{}, ErrAttemptNotFound
	}
	return attempt, err
}

// List returns attempts newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]Attempt, error) {
	rows, err := r.db.Query(ctx, `SELECT id, card_id, amount_usd, order_id, invoice_address, payment_hash, state, failure_reason, created_at, updated_at
        FROM topup_attempts ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}
	return attempts, rows.Err()
}

func scanAttempt(row pgx.Row) (Attempt, error) {
	var a Attempt
	var state string
	var createdAt, updatedAt time.Time
	if err := row.Scan(&a.ID, &a.CardID, &a.AmountUSD, &a.OrderID, &a.InvoiceAddress,
		&a.PaymentHash, &state, &a.FailureReason, &createdAt, &updatedAt); err != nil {
		return Attempt{}, err
	}
	a.State = AttemptState(state)
	a.CreatedAt = createdAt.UTC()
	a.UpdatedAt = updatedAt.UTC()
	return a, nil
}
