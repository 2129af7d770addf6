package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/skyvoyage/travelpay/models"
	"github.com/skyvoyage/travelpay/models/enum"
)

// Breakdown is the resolved result of pricing one base amount against a
// policy. The individual terms are kept unrounded; only Total is rounded.
type Breakdown struct {
	BaseAmount    decimal.Decimal `json:"base_amount"`
	FixedFee      decimal.Decimal `json:"fixed_fee"`
	PercentageFee decimal.Decimal `json:"percentage_fee"`
	PortCharge    decimal.Decimal `json:"port_charge"`
	Total         decimal.Decimal `json:"total"`
}

var oneHundred = decimal.NewFromInt(100)

// ComputeTotal prices a base amount under the given policy. It is pure: no
// storage or network access, and identical inputs always yield identical
// output. Rounding is round-half-up to 2 decimal places, applied exactly once
// on the final total so repeated calls cannot compound rounding drift.
func ComputeTotal(serviceType enum.ServiceType, baseAmount decimal.Decimal, policy *models.PricingPolicy) (*Breakdown, error) {
	if baseAmount.IsNegative() {
		return nil, fmt.Errorf("%w: base amount must not be negative, got %s",
			models.ErrValidation, baseAmount.String())
	}
	if err := policy.ValidateFees(); err != nil {
		return nil, err
	}

	percentageFee := baseAmount.Mul(policy.FeePercentage).Div(oneHundred)

	total := baseAmount.Add(policy.FixedFee).Add(percentageFee)

	portCharge := decimal.Zero
	if serviceType == enum.ServiceTypeCruise {
		portCharge = policy.PortCharge
		total = total.Add(portCharge)
	}

	return &Breakdown{
		BaseAmount:    baseAmount,
		FixedFee:      policy.FixedFee,
		PercentageFee: percentageFee,
		PortCharge:    portCharge,
		Total:         total.Round(2),
	}, nil
}
