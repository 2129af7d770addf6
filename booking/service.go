package booking

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/skyvoyage/travelpay/driver"
	"github.com/skyvoyage/travelpay/models"
	"github.com/skyvoyage/travelpay/models/enum"
)

type Service interface {
	Confirm(ctx context.Context, paymentID string, supplierOrderID *string) (*models.BookingRecord, error)
	GetByID(ctx context.Context, id string) (*models.BookingRecord, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*models.BookingRecord, error)
	SetSupplierOrder(ctx context.Context, id, supplierOrderID string) error
	Cancel(ctx context.Context, id string) error
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

// Confirm records the reservation for a completed payment. Replays for the
// same payment return the existing record.
func (s *service) Confirm(ctx context.Context, paymentID string, supplierOrderID *string) (*models.BookingRecord, error) {
	record := &models.BookingRecord{
		ID:               uuid.NewString(),
		PaymentID:        paymentID,
		BookingReference: newBookingReference(),
		SupplierOrderID:  supplierOrderID,
		Status:           enum.BookingStatusConfirmed,
	}

	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.repo.Create(ctx, tx, record); err != nil {
			return err
		}
		existing, err := s.repo.GetByPaymentID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		*record = *existing
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to confirm booking: %w", err)
	}

	s.logger.Info("booking confirmed",
		zap.String("booking_id", record.ID),
		zap.String("payment_id", paymentID),
		zap.String("booking_reference", record.BookingReference))

	return record, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*models.BookingRecord, error) {
	var record *models.BookingRecord
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		record, err = s.repo.GetByID(ctx, tx, id)
		return err
	}); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *service) GetByPaymentID(ctx context.Context, paymentID string) (*models.BookingRecord, error) {
	var record *models.BookingRecord
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		record, err = s.repo.GetByPaymentID(ctx, tx, paymentID)
		return err
	}); err != nil {
		return nil, err
	}
	return record, nil
}

// SetSupplierOrder attaches the upstream reservation id once staff have
// placed the order with the supplier.
func (s *service) SetSupplierOrder(ctx context.Context, id, supplierOrderID string) error {
	if supplierOrderID == "" {
		return fmt.Errorf("%w: supplier order id is required", models.ErrValidation)
	}
	return s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.repo.SetSupplierOrder(ctx, tx, id, supplierOrderID)
	})
}

func (s *service) Cancel(ctx context.Context, id string) error {
	return s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.repo.UpdateStatus(ctx, tx, id, enum.BookingStatusCancelled)
	})
}

// newBookingReference builds a short human-readable locator in the PNR
// style: the first 8 hex chars of a UUID, uppercased.
func newBookingReference() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
