package pricing

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
	Get(ctx context.Context, tx pgx.Tx, serviceType enum.ServiceType) (*models.PricingPolicy, error)
	Upsert(ctx context.Context, tx pgx.Tx, policy *models.PricingPolicy) error
}

type repository struct {
	conn driver.PostgresPool
}

func NewRepository(conn driver.PostgresPool) Repository {
	return &repository{conn: conn}
}

func (r *repository) Get(ctx context.Context, tx pgx.Tx, serviceType enum.ServiceType) (*models.PricingPolicy, error) {
	const query = `
    SELECT service_type, fixed_fee, fee_percentage, port_charge, markup_percentage, updated_at
    FROM pricing_policies
    WHERE service_type = @service_type
    `

	row := tx.QueryRow(ctx, query, pgx.NamedArgs{"service_type": serviceType})

	var policy models.PricingPolicy
	if err := row.Scan(&policy.ServiceType, &policy.FixedFee, &policy.FeePercentage,
		&policy.PortCharge, &policy.MarkupPercentage, &policy.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no pricing policy for %s", models.ErrNotFound, serviceType)
		}
		return nil, fmt.Errorf("failed to get pricing policy: %w", err)
	}

	return &policy, nil
}

func (r *repository) Upsert(ctx context.Context, tx pgx.Tx, policy *models.PricingPolicy) error {
	const query = `
    INSERT INTO pricing_policies (service_type, fixed_fee, fee_percentage, port_charge, markup_percentage, updated_at)
    VALUES (@service_type, @fixed_fee, @fee_percentage, @port_charge, @markup_percentage, @updated_at)
    ON CONFLICT (service_type) DO UPDATE SET
        fixed_fee = @fixed_fee,
        fee_percentage = @fee_percentage,
        port_charge = @port_charge,
        markup_percentage = @markup_percentage,
        updated_at = @updated_at
    `

	args := pgx.NamedArgs{
		"service_type":      policy.ServiceType,
		"fixed_fee":         policy.FixedFee,
		"fee_percentage":    policy.FeePercentage,
		"port_charge":       policy.PortCharge,
		"markup_percentage": policy.MarkupPercentage,
		"updated_at":        time.Now(),
	}

	if _, err := tx.Exec(ctx, query, args); err != nil {
		return fmt.Errorf("failed to upsert pricing policy: %w", err)
	}

	return nil
}
