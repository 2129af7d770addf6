package payment_record

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/skyvoyage/travelpay/driver"
	"github.com/skyvoyage/travelpay/models"
	"github.com/skyvoyage/travelpay/models/enum"
)

// Service is the payment record store: the local mirror of gateway truth.
// Exactly one terminal write wins per attempt; replayed gateway callbacks
// keyed on the same gateway_order_id are no-ops.
type Service interface {
	RecordAttempt(ctx context.Context, quoteID string, amount decimal.Decimal, currency, gatewayOrderID string) (*models.Payment, error)
	MarkCompleted(ctx context.Context, paymentID, gatewayTransactionID string, completedAt time.Time) error
	MarkFailed(ctx context.Context, paymentID, reason string) error
	MarkRefunded(ctx context.Context, paymentID string, refundAmount decimal.Decimal) error
	MarkRefundPending(ctx context.Context, paymentID string) error
	MarkVoided(ctx context.Context, paymentID string) error
	GetByID(ctx context.Context, paymentID string) (*models.Payment, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error)
	GetActiveByQuote(ctx context.Context, quoteID string) (*models.Payment, error)
	ListPending(ctx context.Context, limit uint64) ([]*models.Payment, error)
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

func (s *service) RecordAttempt(ctx context.Context, quoteID string, amount decimal.Decimal, currency, gatewayOrderID string) (*models.Payment, error) {
	if gatewayOrderID == "" {
		return nil, fmt.Errorf("%w: attempt requires a gateway order id", models.ErrValidation)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: attempt amount must be positive, got %s",
			models.ErrValidation, amount.String())
	}

	payment := &models.Payment{
		ID:             uuid.NewString(),
		QuoteID:        quoteID,
		GatewayOrderID: gatewayOrderID,
		Amount:         amount,
		Currency:       currency,
		PaymentMethod:  "card",
		Status:         enum.PaymentStatusPending,
	}

	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.repo.Create(ctx, tx, payment); err != nil {
			return err
		}
		// Re-read so a replayed attempt returns the original row rather than
		// the candidate we just tried to insert.
		existing, err := s.repo.GetByGatewayOrderID(ctx, tx, gatewayOrderID)
		if err != nil {
			return err
		}
		*payment = *existing
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to record payment attempt: %w", err)
	}

	s.logger.Info("payment attempt recorded",
		zap.String("payment_id", payment.ID),
		zap.String("quote_id", quoteID),
		zap.String("gateway_order_id", gatewayOrderID),
		zap.String("amount", amount.String()))

	return payment, nil
}

func (s *service) MarkCompleted(ctx context.Context, paymentID, gatewayTransactionID string, completedAt time.Time) error {
	return s.transition(ctx, paymentID, enum.PaymentStatusCompleted, func(p *models.Payment) {
		p.ArcTransactionID = gatewayTransactionID
		p.CompletedAt = &completedAt
	})
}

func (s *service) MarkFailed(ctx context.Context, paymentID, reason string) error {
	s.logger.Info("marking payment failed",
		zap.String("payment_id", paymentID),
		zap.String("reason", reason))
	return s.transition(ctx, paymentID, enum.PaymentStatusFailed, nil)
}

func (s *service) MarkRefunded(ctx context.Context, paymentID string, refundAmount decimal.Decimal) error {
	s.logger.Info("marking payment refunded",
		zap.String("payment_id", paymentID),
		zap.String("refund_amount", refundAmount.String()))
	return s.transition(ctx, paymentID, enum.PaymentStatusRefunded, nil)
}

func (s *service) MarkRefundPending(ctx context.Context, paymentID string) error {
	return s.transition(ctx, paymentID, enum.PaymentStatusRefundPending, nil)
}

func (s *service) MarkVoided(ctx context.Context, paymentID string) error {
	return s.transition(ctx, paymentID, enum.PaymentStatusVoided, nil)
}

func (s *service) transition(ctx context.Context, paymentID string, to enum.PaymentStatus, mutate func(*models.Payment)) error {
	return s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		payment, err := s.repo.GetByIDForUpdate(ctx, tx, paymentID)
		if err != nil {
			return err
		}

		// Replayed callbacks land here: the row already carries the target
		// status and there is nothing left to write.
		if payment.Status == to {
			return nil
		}

		if err = payment.Transition(to); err != nil {
			return err
		}
		if mutate != nil {
			mutate(payment)
		}

		return s.repo.UpdateStatus(ctx, tx, payment)
	})
}

func (s *service) GetByID(ctx context.Context, paymentID string) (*models.Payment, error) {
	var payment *models.Payment
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		payment, err = s.repo.GetByID(ctx, tx, paymentID)
		return err
	}); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *service) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error) {
	var payment *models.Payment
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		payment, err = s.repo.GetByGatewayOrderID(ctx, tx, gatewayOrderID)
		return err
	}); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *service) GetActiveByQuote(ctx context.Context, quoteID string) (*models.Payment, error) {
	var payment *models.Payment
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		payment, err = s.repo.GetActiveByQuote(ctx, tx, quoteID)
		return err
	}); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *service) ListPending(ctx context.Context, limit uint64) ([]*models.Payment, error) {
	var payments []*models.Payment
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		payments, err = s.repo.ListByStatus(ctx, tx, enum.PaymentStatusPending, limit)
		return err
	}); err != nil {
		return nil, err
	}
	return payments, nil
}
