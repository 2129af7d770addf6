package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/skyvoyage/travelpay/driver"
	"github.com/skyvoyage/travelpay/models"
)

var _ Repository = (*repository)(nil)

type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, event *models.Event) error
	GetByID(ctx context.Context, tx pgx.Tx, id string) (*models.Event, error)
	MarkAsProcessed(ctx context.Context, tx pgx.Tx, id string) error
}

type repository struct {
	conn driver.PostgresPool
}

func NewRepository(conn driver.PostgresPool) Repository {
	return &repository{conn: conn}
}

func (r *repository) Create(ctx context.Context, tx pgx.Tx, event *models.Event) error {
	const query = `
    INSERT INTO gateway_events (id, type, processed, created_at, updated_at)
    VALUES (@id, @type, @processed, NOW(), NOW())
    ON CONFLICT (id) DO NOTHING
    `

	if _, err := tx.Exec(ctx, query, pgx.NamedArgs{
		"id":        event.ID,
		"type":      event.Type,
		"processed": event.Processed,
	}); err != nil {
		return fmt.Errorf("failed to create gateway event: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, tx pgx.Tx, id string) (*models.Event, error) {
	const query = `
    SELECT id, type, processed, created_at, updated_at
    FROM gateway_events
    WHERE id = @id
    `

	event := &models.Event{}
	if err := tx.QueryRow(ctx, query, pgx.NamedArgs{"id": id}).Scan(
		&event.ID,
		&event.Type,
		&event.Processed,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("gateway event %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get gateway event: %w", err)
	}
	return event, nil
}

func (r *repository) MarkAsProcessed(ctx context.Context, tx pgx.Tx, id string) error {
	const query = `
    UPDATE gateway_events
    SET processed = TRUE, updated_at = NOW()
    WHERE id = @id
    `

	if _, err := tx.Exec(ctx, query, pgx.NamedArgs{"id": id}); err != nil {
		return fmt.Errorf("failed to mark gateway event as processed: %w", err)
	}
	return nil
}
