package payment_record

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/skyvoyage/travelpay/driver"
	"github.com/skyvoyage/travelpay/models"
	"github.com/skyvoyage/travelpay/models/enum"
)

// Repository persists payment attempt rows. Payments are deliberately never
// cached: the row mirrors gateway truth and a stale read here can misdirect a
// refund decision.
type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, payment *models.Payment) error
	GetByID(ctx context.Context, tx pgx.Tx, id string) (*models.Payment, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*models.Payment, error)
	GetByGatewayOrderID(ctx context.Context, tx pgx.Tx, gatewayOrderID string) (*models.Payment, error)
	GetActiveByQuote(ctx context.Context, tx pgx.Tx, quoteID string) (*models.Payment, error)
	ListByStatus(ctx context.Context, tx pgx.Tx, status enum.PaymentStatus, limit uint64) ([]*models.Payment, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, payment *models.Payment) error
}

type repository struct {
	conn driver.PostgresPool
}

func NewRepository(conn driver.PostgresPool) Repository {
	return &repository{conn: conn}
}

const selectPayment = `
    SELECT id, quote_id, gateway_order_id, amount, currency, payment_method, payment_status,
           arc_transaction_id, version, created_at, completed_at, updated_at
    FROM payments
    `

func scanPayment(row pgx.Row, p *models.Payment) error {
	return row.Scan(&p.ID, &p.QuoteID, &p.GatewayOrderID, &p.Amount, &p.Currency,
		&p.PaymentMethod, &p.Status, &p.ArcTransactionID, &p.Version,
		&p.CreatedAt, &p.CompletedAt, &p.UpdatedAt)
}

// Create inserts a new attempt row. Writes are idempotent on
// gateway_order_id: a replayed insert for the same gateway order is a no-op
// rather than a duplicate row.
func (r *repository) Create(ctx context.Context, tx pgx.Tx, payment *models.Payment) error {
	const query = `
    INSERT INTO payments (id, quote_id, gateway_order_id, amount, currency, payment_method,
                          payment_status, arc_transaction_id, version, created_at, updated_at)
    VALUES (@id, @quote_id, @gateway_order_id, @amount, @currency, @payment_method,
            @payment_status, @arc_transaction_id, 1, @created_at, @updated_at)
    ON CONFLICT (gateway_order_id) DO NOTHING
    `

	now := time.Now()
	args := pgx.NamedArgs{
		"id":                 payment.ID,
		"quote_id":           payment.QuoteID,
		"gateway_order_id":   payment.GatewayOrderID,
		"amount":             payment.Amount,
		"currency":           payment.Currency,
		"payment_method":     payment.PaymentMethod,
		"payment_status":     payment.Status,
		"arc_transaction_id": payment.ArcTransactionID,
		"created_at":         now,
		"updated_at":         now,
	}

	if _, err := tx.Exec(ctx, query, args); err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, tx pgx.Tx, id string) (*models.Payment, error) {
	return r.get(ctx, tx, selectPayment+` WHERE id = @arg`, id)
}

// GetByIDForUpdate locks the row for the duration of the transaction so that
// concurrent status checks and cancellations on the same payment serialize.
func (r *repository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*models.Payment, error) {
	return r.get(ctx, tx, selectPayment+` WHERE id = @arg FOR UPDATE`, id)
}

func (r *repository) GetByGatewayOrderID(ctx context.Context, tx pgx.Tx, gatewayOrderID string) (*models.Payment, error) {
	return r.get(ctx, tx, selectPayment+` WHERE gateway_order_id = @arg FOR UPDATE`, gatewayOrderID)
}

// GetActiveByQuote returns the newest non-failed attempt for a quote, or
// ErrNotFound. At most one attempt per quote is active at a time.
func (r *repository) GetActiveByQuote(ctx context.Context, tx pgx.Tx, quoteID string) (*models.Payment, error) {
	const query = selectPayment + `
    WHERE quote_id = @arg AND payment_status != 'failed'
    ORDER BY created_at DESC
    LIMIT 1
    `
	return r.get(ctx, tx, query, quoteID)
}

func (r *repository) get(ctx context.Context, tx pgx.Tx, query, arg string) (*models.Payment, error) {
	payment := models.NewPayment()
	row := tx.QueryRow(ctx, query, pgx.NamedArgs{"arg": arg})
	if err := scanPayment(row, payment); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: payment %s", models.ErrNotFound, arg)
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

func (r *repository) ListByStatus(ctx context.Context, tx pgx.Tx, status enum.PaymentStatus, limit uint64) ([]*models.Payment, error) {
	rows, err := tx.Query(ctx, selectPayment+` WHERE payment_status = @status ORDER BY created_at ASC LIMIT @limit`,
		pgx.NamedArgs{"status": status, "limit": int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		payment := models.NewPayment()
		if err = scanPayment(rows, payment); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}

	return payments, rows.Err()
}

// UpdateStatus writes a status transition using an optimistic version check;
// zero rows affected means another writer got there first.
func (r *repository) UpdateStatus(ctx context.Context, tx pgx.Tx, payment *models.Payment) error {
	const query = `
    UPDATE payments
    SET payment_status = @payment_status,
        arc_transaction_id = @arc_transaction_id,
        completed_at = @completed_at,
        version = version + 1,
        updated_at = @updated_at
    WHERE id = @id AND version = @version
    `

	tag, err := tx.Exec(ctx, query, pgx.NamedArgs{
		"id":                 payment.ID,
		"payment_status":     payment.Status,
		"arc_transaction_id": payment.ArcTransactionID,
		"completed_at":       payment.CompletedAt,
		"version":            payment.Version,
		"updated_at":         time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: payment %s version %d was modified concurrently",
			models.ErrInconsistentState, payment.ID, payment.Version)
	}

	payment.Version++
	return nil
}
