package inquiry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"goflare.io/ember"

	"github.com/skyvoyage/travelpay/driver"
	"github.com/skyvoyage/travelpay/models"
	"github.com/skyvoyage/travelpay/models/enum"
)

type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, inquiry *models.Inquiry) error
	GetByID(ctx context.Context, tx pgx.Tx, id string) (*models.Inquiry, error)
	List(ctx context.Context, tx pgx.Tx, limit, offset uint64) ([]*models.Inquiry, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status enum.InquiryStatus) error
}

type repository struct {
	conn   driver.PostgresPool
	logger *zap.Logger
	cache  *ember.MultiCache
}

func NewRepository(conn driver.PostgresPool, logger *zap.Logger, cache *ember.MultiCache) Repository {
	return &repository{
		conn:   conn,
		logger: logger,
		cache:  cache,
	}
}

const selectInquiry = `
    SELECT id, customer_name, customer_email, service_type, subject, status, created_at, updated_at
    FROM inquiries
    `

func scanInquiry(row pgx.Row, inq *models.Inquiry) error {
	return row.Scan(&inq.ID, &inq.CustomerName, &inq.CustomerEmail, &inq.ServiceType,
		&inq.Subject, &inq.Status, &inq.CreatedAt, &inq.UpdatedAt)
}

func (r *repository) Create(ctx context.Context, tx pgx.Tx, inquiry *models.Inquiry) error {
	const query = `
    INSERT INTO inquiries (id, customer_name, customer_email, service_type, subject, status, created_at, updated_at)
    VALUES (@id, @customer_name, @customer_email, @service_type, @subject, @status, @created_at, @updated_at)
    `

	now := time.Now()
	args := pgx.NamedArgs{
		"id":             inquiry.ID,
		"customer_name":  inquiry.CustomerName,
		"customer_email": inquiry.CustomerEmail,
		"service_type":   inquiry.ServiceType,
		"subject":        inquiry.Subject,
		"status":         inquiry.Status,
		"created_at":     now,
		"updated_at":     now,
	}

	if _, err := tx.Exec(ctx, query, args); err != nil {
		return fmt.Errorf("failed to create inquiry: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, tx pgx.Tx, id string) (*models.Inquiry, error) {
	cacheKey := fmt.Sprintf("inquiry:%s", id)

	var inq models.Inquiry
	found, err := r.cache.Get(ctx, cacheKey, &inq)
	if err != nil {
		r.logger.Warn("Failed to get inquiry from cache", zap.Error(err), zap.String("id", id))
	} else if found {
		return &inq, nil
	}

	row := tx.QueryRow(ctx, selectInquiry+` WHERE id = @id`, pgx.NamedArgs{"id": id})
	if err = scanInquiry(row, &inq); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: inquiry %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get inquiry: %w", err)
	}

	if err = r.cache.Set(ctx, cacheKey, &inq); err != nil {
		r.logger.Warn("Failed to cache inquiry", zap.Error(err), zap.String("id", id))
	}

	return &inq, nil
}

func (r *repository) List(ctx context.Context, tx pgx.Tx, limit, offset uint64) ([]*models.Inquiry, error) {
	rows, err := tx.Query(ctx, selectInquiry+` ORDER BY created_at DESC LIMIT @limit OFFSET @offset`,
		pgx.NamedArgs{"limit": int64(limit), "offset": int64(offset)})
	if err != nil {
		return nil, fmt.Errorf("failed to list inquiries: %w", err)
	}
	defer rows.Close()

	var inquiries []*models.Inquiry
	for rows.Next() {
		var inq models.Inquiry
		if err = scanInquiry(rows, &inq); err != nil {
			return nil, fmt.Errorf("failed to scan inquiry: %w", err)
		}
		inquiries = append(inquiries, &inq)
	}

	return inquiries, rows.Err()
}

func (r *repository) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status enum.InquiryStatus) error {
	const query = `UPDATE inquiries SET status = @status, updated_at = @updated_at WHERE id = @id`

	tag, err := tx.Exec(ctx, query, pgx.NamedArgs{"id": id, "status": status, "updated_at": time.Now()})
	if err != nil {
		return fmt.Errorf("failed to update inquiry status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: inquiry %s", models.ErrNotFound, id)
	}

	cacheKey := fmt.Sprintf("inquiry:%s", id)
	if err = r.cache.Delete(ctx, cacheKey); err != nil {
		r.logger.Warn("Failed to invalidate inquiry cache", zap.Error(err), zap.String("id", id))
	}

	return nil
}
