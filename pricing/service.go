package pricing

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/skyvoyage/travelpay/driver"
	"github.com/skyvoyage/travelpay/models"
	"github.com/skyvoyage/travelpay/models/enum"
)

// Service owns the staff-mutable pricing policies. Policies are read at
// quote-creation time only; an already-created quote keeps the numbers it
// was priced with.
type Service interface {
	GetPolicy(ctx context.Context, serviceType enum.ServiceType) (*models.PricingPolicy, error)
	UpdatePolicy(ctx context.Context, policy *models.PricingPolicy) error
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

func (s *service) GetPolicy(ctx context.Context, serviceType enum.ServiceType) (*models.PricingPolicy, error) {
	var policy *models.PricingPolicy
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		policy, err = s.repo.Get(ctx, tx, serviceType)
		return err
	}); err != nil {
		return nil, err
	}
	return policy, nil
}

func (s *service) UpdatePolicy(ctx context.Context, policy *models.PricingPolicy) error {
	if err := policy.Validate(); err != nil {
		return err
	}

	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.repo.Upsert(ctx, tx, policy)
	}); err != nil {
		return fmt.Errorf("failed to update pricing policy: %w", err)
	}

	s.logger.Info("pricing policy updated",
		zap.String("service_type", string(policy.ServiceType)),
		zap.String("fixed_fee", policy.FixedFee.String()),
		zap.String("fee_percentage", policy.FeePercentage.String()))

	return nil
}
