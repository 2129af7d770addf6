package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/skyvoyage/travelpay/models/enum"
)

// PricingPolicy is the staff-configured fee schedule for one service type.
// It is read once at quote-creation time; quotes snapshot the resolved
// numbers so later edits never reprice history.
type PricingPolicy struct {
	ServiceType      enum.ServiceType `json:"service_type"`
	FixedFee         decimal.Decimal  `json:"fixed_fee"`
	FeePercentage    decimal.Decimal  `json:"fee_percentage"`
	PortCharge       decimal.Decimal  `json:"port_charge"`
	MarkupPercentage decimal.Decimal  `json:"markup_percentage"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func (p *PricingPolicy) Validate() error {
	if !p.ServiceType.Valid() {
		return fmt.Errorf("%w: unknown service type %q", ErrValidation, p.ServiceType)
	}
	return p.ValidateFees()
}

// ValidateFees checks only the fee fields. The pricing engine takes the
// service type as its own parameter, so a policy used purely for arithmetic
// does not need one set.
func (p *PricingPolicy) ValidateFees() error {
	if p.FixedFee.IsNegative() || p.FeePercentage.IsNegative() ||
		p.PortCharge.IsNegative() || p.MarkupPercentage.IsNegative() {
		return fmt.Errorf("%w: pricing policy values must not be negative", ErrValidation)
	}
	return nil
}
