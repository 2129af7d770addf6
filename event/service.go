package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/skyvoyage/travelpay/driver"
	"github.com/skyvoyage/travelpay/models"
)

// Service records which gateway notifications have been seen and which have
// been fully applied, so redeliveries are absorbed instead of reprocessed.
type Service interface {
	Record(ctx context.Context, id, eventType string) error
	IsProcessed(ctx context.Context, id string) (bool, error)
	MarkProcessed(ctx context.Context, id string) error
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

func (s *service) Record(ctx context.Context, id, eventType string) error {
	if id == "" {
		return fmt.Errorf("%w: event id is required", models.ErrValidation)
	}
	return s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.repo.Create(ctx, tx, &models.Event{
			ID:        id,
			Type:      eventType,
			Processed: false,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		})
	})
}

// IsProcessed reports whether the event has already been applied. An event
// never seen before is simply not processed yet.
func (s *service) IsProcessed(ctx context.Context, id string) (bool, error) {
	var processed bool
	err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		event, err := s.repo.GetByID(ctx, tx, id)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil
			}
			return err
		}
		processed = event.Processed
		return nil
	})
	if err != nil {
		return false, err
	}
	return processed, nil
}

func (s *service) MarkProcessed(ctx context.Context, id string) error {
	return s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.repo.MarkAsProcessed(ctx, tx, id)
	})
}
