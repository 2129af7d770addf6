package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"goflare.io/ember"
	"goflare.io/ignite"

	"github.com/skyvoyage/travelpay/driver"
	"github.com/skyvoyage/travelpay/models"
	"github.com/skyvoyage/travelpay/models/enum"
)

type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, quote *models.Quote) error
	GetByID(ctx context.Context, tx pgx.Tx, id string) (*models.Quote, error)
	ListByInquiry(ctx context.Context, tx pgx.Tx, inquiryID string) ([]*models.Quote, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status enum.QuoteStatus) error
	MarkSent(ctx context.Context, tx pgx.Tx, id string, sentAt time.Time) error
	UpdatePaymentStatus(ctx context.Context, tx pgx.Tx, id string, status enum.QuotePaymentStatus) error
	ExpireOverdue(ctx context.Context, tx pgx.Tx, now time.Time) (int64, error)
}

type repository struct {
	conn        driver.PostgresPool
	logger      *zap.Logger
	cache       *ember.MultiCache
	poolManager ignite.Manager
}

func NewRepository(conn driver.PostgresPool, logger *zap.Logger, cache *ember.MultiCache, poolManager ignite.Manager) (Repository, error) {
	if err := poolManager.RegisterPool(reflect.TypeOf(&models.Quote{}), ignite.Config[any]{
		InitialSize: 10,
		MaxSize:     100,
		MaxIdleTime: 10 * time.Minute,
		Factory: func() (any, error) {
			return models.NewQuote(), nil
		},
		Reset: func(obj any) error {
			q := obj.(*models.Quote)
			*q = models.Quote{}
			return nil
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to register quote pool: %w", err)
	}

	return &repository{
		conn:        conn,
		logger:      logger,
		cache:       cache,
		poolManager: poolManager,
	}, nil
}

func (r *repository) getFromPool(ctx context.Context) (*models.Quote, func(), error) {
	pool, err := r.poolManager.GetPool(reflect.TypeOf(&models.Quote{}))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get pool: %w", err)
	}

	objWrapper, err := pool.Get(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get object from pool: %w", err)
	}

	quote := objWrapper.Object.(*models.Quote)
	release := func() {
		pool.Put(objWrapper)
	}

	return quote, release, nil
}

func (r *repository) Create(ctx context.Context, tx pgx.Tx, quote *models.Quote) error {
	const query = `
    INSERT INTO quotes (id, inquiry_id, title, breakdown, total_amount, currency, status, payment_status, created_at, expires_at, updated_at)
    VALUES (@id, @inquiry_id, @title, @breakdown, @total_amount, @currency, @status, @payment_status, @created_at, @expires_at, @updated_at)
    `

	breakdown, err := json.Marshal(quote.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal quote breakdown: %w", err)
	}

	now := time.Now()
	args := pgx.NamedArgs{
		"id":             quote.ID,
		"inquiry_id":     quote.InquiryID,
		"title":          quote.Title,
		"breakdown":      breakdown,
		"total_amount":   quote.TotalAmount,
		"currency":       quote.Currency,
		"status":         quote.Status,
		"payment_status": quote.PaymentStatus,
		"created_at":     now,
		"expires_at":     quote.ExpiresAt,
		"updated_at":     now,
	}

	if _, err = tx.Exec(ctx, query, args); err != nil {
		return fmt.Errorf("failed to create quote: %w", err)
	}

	cacheKey := fmt.Sprintf("quote:%s", quote.ID)
	if err = r.cache.Set(ctx, cacheKey, quote); err != nil {
		r.logger.Warn("Failed to cache quote", zap.Error(err), zap.String("id", quote.ID))
	}

	return nil
}

const selectQuote = `
    SELECT id, inquiry_id, title, breakdown, total_amount, currency, status, payment_status, created_at, sent_at, expires_at, updated_at
    FROM quotes
    `

func scanQuote(row pgx.Row, quote *models.Quote) error {
	var breakdown []byte
	if err := row.Scan(&quote.ID, &quote.InquiryID, &quote.Title, &breakdown,
		&quote.TotalAmount, &quote.Currency, &quote.Status, &quote.PaymentStatus,
		&quote.CreatedAt, &quote.SentAt, &quote.ExpiresAt, &quote.UpdatedAt); err != nil {
		return err
	}
	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &quote.Breakdown); err != nil {
			return fmt.Errorf("failed to unmarshal quote breakdown: %w", err)
		}
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, tx pgx.Tx, id string) (*models.Quote, error) {
	cacheKey := fmt.Sprintf("quote:%s", id)

	// The pooled object is scratch space only. The caller gets a copy, so
	// releasing the object back to the pool cannot race a Reset against a
	// quote still in use.
	scratch, release, err := r.getFromPool(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	found, err := r.cache.Get(ctx, cacheKey, scratch)
	if err != nil {
		r.logger.Warn("Failed to get quote from cache", zap.Error(err), zap.String("id", id))
	} else if found {
		quote := models.NewQuote()
		*quote = *scratch
		return quote, nil
	}

	row := tx.QueryRow(ctx, selectQuote+` WHERE id = @id`, pgx.NamedArgs{"id": id})
	if err = scanQuote(row, scratch); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: quote %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	if err = r.cache.Set(ctx, cacheKey, scratch); err != nil {
		r.logger.Warn("Failed to cache quote", zap.Error(err), zap.String("id", id))
	}

	quote := models.NewQuote()
	*quote = *scratch
	return quote, nil
}

func (r *repository) ListByInquiry(ctx context.Context, tx pgx.Tx, inquiryID string) ([]*models.Quote, error) {
	rows, err := tx.Query(ctx, selectQuote+` WHERE inquiry_id = @inquiry_id ORDER BY created_at DESC`,
		pgx.NamedArgs{"inquiry_id": inquiryID})
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	defer rows.Close()

	var quotes []*models.Quote
	for rows.Next() {
		quote := models.NewQuote()
		if err = scanQuote(rows, quote); err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, quote)
	}

	return quotes, rows.Err()
}

func (r *repository) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status enum.QuoteStatus) error {
	return r.exec(ctx, tx, id,
		`UPDATE quotes SET status = @status, updated_at = @updated_at WHERE id = @id`,
		pgx.NamedArgs{"id": id, "status": status, "updated_at": time.Now()},
		"failed to update quote status")
}

func (r *repository) MarkSent(ctx context.Context, tx pgx.Tx, id string, sentAt time.Time) error {
	return r.exec(ctx, tx, id,
		`UPDATE quotes SET status = @status, sent_at = @sent_at, updated_at = @updated_at WHERE id = @id`,
		pgx.NamedArgs{"id": id, "status": enum.QuoteStatusSent, "sent_at": sentAt, "updated_at": time.Now()},
		"failed to mark quote sent")
}

func (r *repository) UpdatePaymentStatus(ctx context.Context, tx pgx.Tx, id string, status enum.QuotePaymentStatus) error {
	return r.exec(ctx, tx, id,
		`UPDATE quotes SET payment_status = @payment_status, updated_at = @updated_at WHERE id = @id`,
		pgx.NamedArgs{"id": id, "payment_status": status, "updated_at": time.Now()},
		"failed to update quote payment status")
}

func (r *repository) ExpireOverdue(ctx context.Context, tx pgx.Tx, now time.Time) (int64, error) {
	const query = `
    UPDATE quotes SET status = @expired, updated_at = @now
    WHERE expires_at IS NOT NULL AND expires_at < @now
      AND status IN (@draft, @sent)
      AND payment_status = @unpaid
    `

	tag, err := tx.Exec(ctx, query, pgx.NamedArgs{
		"expired": enum.QuoteStatusExpired,
		"draft":   enum.QuoteStatusDraft,
		"sent":    enum.QuoteStatusSent,
		"unpaid":  enum.QuotePaymentStatusUnpaid,
		"now":     now,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to expire quotes: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *repository) exec(ctx context.Context, tx pgx.Tx, id, query string, args pgx.NamedArgs, errMsg string) error {
	tag, err := tx.Exec(ctx, query, args)
	if err != nil {
		return fmt.Errorf("%s: %w", errMsg, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: quote %s", models.ErrNotFound, id)
	}

	// The stored row changed; drop the stale cache entry rather than trying
	// to rebuild it here.
	cacheKey := fmt.Sprintf("quote:%s", id)
	if err = r.cache.Delete(ctx, cacheKey); err != nil {
		r.logger.Warn("Failed to invalidate quote cache", zap.Error(err), zap.String("id", id))
	}

	return nil
}
