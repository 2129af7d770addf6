package quote

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/skyvoyage/travelpay/driver"
	"github.com/skyvoyage/travelpay/models"
	"github.com/skyvoyage/travelpay/models/enum"
)

// Service is the quote ledger. A quote's total_amount is immutable once
// created; a re-quote means a new record.
type Service interface {
	Create(ctx context.Context, quote *models.Quote) error
	GetByID(ctx context.Context, id string) (*models.Quote, error)
	ListByInquiry(ctx context.Context, inquiryID string) ([]*models.Quote, error)
	Send(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
	SetPaymentStatus(ctx context.Context, id string, status enum.QuotePaymentStatus) error
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

type service struct {
	repo               Repository
	transactionManager *driver.TransactionManager
	logger             *zap.Logger
}

func NewService(repo Repository, tm *driver.TransactionManager, logger *zap.Logger) Service {
	return &service{
		repo:               repo,
		transactionManager: tm,
		logger:             logger,
	}
}

func (s *service) Create(ctx context.Context, quote *models.Quote) error {
	if quote.ID == "" {
		quote.ID = uuid.NewString()
	}
	if quote.Status == "" {
		quote.Status = enum.QuoteStatusDraft
	}
	if quote.PaymentStatus == "" {
		quote.PaymentStatus = enum.QuotePaymentStatusUnpaid
	}

	if err := quote.Validate(); err != nil {
		return err
	}

	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.repo.Create(ctx, tx, quote)
	}); err != nil {
		return fmt.Errorf("failed to create quote: %w", err)
	}

	s.logger.Info("quote created",
		zap.String("quote_id", quote.ID),
		zap.String("inquiry_id", quote.InquiryID),
		zap.String("total_amount", quote.TotalAmount.String()))

	return nil
}

func (s *service) GetByID(ctx context.Context, id string) (*models.Quote, error) {
	var quote *models.Quote
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		quote, err = s.repo.GetByID(ctx, tx, id)
		return err
	}); err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *service) ListByInquiry(ctx context.Context, inquiryID string) ([]*models.Quote, error) {
	var quotes []*models.Quote
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		quotes, err = s.repo.ListByInquiry(ctx, tx, inquiryID)
		return err
	}); err != nil {
		return nil, err
	}
	return quotes, nil
}

func (s *service) Send(ctx context.Context, id string) error {
	return s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		quote, err := s.repo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if quote.Status != enum.QuoteStatusDraft {
			return fmt.Errorf("%w: only draft quotes can be sent, quote %s is %s",
				models.ErrValidation, id, quote.Status)
		}
		return s.repo.MarkSent(ctx, tx, id, time.Now())
	})
}

func (s *service) Cancel(ctx context.Context, id string) error {
	return s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.repo.UpdateStatus(ctx, tx, id, enum.QuoteStatusCancelled)
	})
}

func (s *service) SetPaymentStatus(ctx context.Context, id string, status enum.QuotePaymentStatus) error {
	return s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.repo.UpdatePaymentStatus(ctx, tx, id, status)
	})
}

func (s *service) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	var expired int64
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		expired, err = s.repo.ExpireOverdue(ctx, tx, now)
		return err
	}); err != nil {
		return 0, err
	}

	if expired > 0 {
		s.logger.Info("expired overdue quotes", zap.Int64("count", expired))
	}

	return expired, nil
}
