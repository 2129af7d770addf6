package booking

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

type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, record *models.BookingRecord) error
	GetByID(ctx context.Context, tx pgx.Tx, id string) (*models.BookingRecord, error)
	GetByPaymentID(ctx context.Context, tx pgx.Tx, paymentID string) (*models.BookingRecord, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status enum.BookingStatus) error
	SetSupplierOrder(ctx context.Context, tx pgx.Tx, id, supplierOrderID string) error
}

type repository struct {
	conn driver.PostgresPool
}

func NewRepository(conn driver.PostgresPool) Repository {
	return &repository{conn: conn}
}

const selectBooking = `
    SELECT id, payment_id, booking_reference, supplier_order_id, status, created_at, updated_at
    FROM booking_records
    `

func scanBooking(row pgx.Row, b *models.BookingRecord) error {
	return row.Scan(&b.ID, &b.PaymentID, &b.BookingReference, &b.SupplierOrderID,
		&b.Status, &b.CreatedAt, &b.UpdatedAt)
}

// Create inserts a booking record. One record per payment; replays keyed on
// payment_id are no-ops.
func (r *repository) Create(ctx context.Context, tx pgx.Tx, record *models.BookingRecord) error {
	const query = `
    INSERT INTO booking_records (id, payment_id, booking_reference, supplier_order_id, status, created_at, updated_at)
    VALUES (@id, @payment_id, @booking_reference, @supplier_order_id, @status, @created_at, @updated_at)
    ON CONFLICT (payment_id) DO NOTHING
    `

	now := time.Now()
	args := pgx.NamedArgs{
		"id":                record.ID,
		"payment_id":        record.PaymentID,
		"booking_reference": record.BookingReference,
		"supplier_order_id": record.SupplierOrderID,
		"status":            record.Status,
		"created_at":        now,
		"updated_at":        now,
	}

	if _, err := tx.Exec(ctx, query, args); err != nil {
		return fmt.Errorf("failed to create booking record: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, tx pgx.Tx, id string) (*models.BookingRecord, error) {
	return r.get(ctx, tx, selectBooking+` WHERE id = @arg`, id)
}

func (r *repository) GetByPaymentID(ctx context.Context, tx pgx.Tx, paymentID string) (*models.BookingRecord, error) {
	return r.get(ctx, tx, selectBooking+` WHERE payment_id = @arg`, paymentID)
}

func (r *repository) get(ctx context.Context, tx pgx.Tx, query, arg string) (*models.BookingRecord, error) {
	var record models.BookingRecord
	row := tx.QueryRow(ctx, query, pgx.NamedArgs{"arg": arg})
	if err := scanBooking(row, &record); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: booking record %s", models.ErrNotFound, arg)
		}
		return nil, fmt.Errorf("failed to get booking record: %w", err)
	}
	return &record, nil
}

func (r *repository) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status enum.BookingStatus) error {
	const query = `UPDATE booking_records SET status = @status, updated_at = @updated_at WHERE id = @id`

	tag, err := tx.Exec(ctx, query, pgx.NamedArgs{"id": id, "status": status, "updated_at": time.Now()})
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: booking record %s", models.ErrNotFound, id)
	}

	return nil
}

func (r *repository) SetSupplierOrder(ctx context.Context, tx pgx.Tx, id, supplierOrderID string) error {
	const query = `
    UPDATE booking_records
    SET supplier_order_id = @supplier_order_id, updated_at = @updated_at
    WHERE id = @id
    `

	tag, err := tx.Exec(ctx, query, pgx.NamedArgs{
		"id":                id,
		"supplier_order_id": supplierOrderID,
		"updated_at":        time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to set supplier order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: booking record %s", models.ErrNotFound, id)
	}

	return nil
}
