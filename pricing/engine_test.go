package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyvoyage/travelpay/models"
	"github.com/skyvoyage/travelpay/models/enum"
)

func policy(fixed, pct, port string) *models.PricingPolicy {
	return &models.PricingPolicy{
		FixedFee:      decimal.RequireFromString(fixed),
		FeePercentage: decimal.RequireFromString(pct),
		PortCharge:    decimal.RequireFromString(port),
	}
}

func TestComputeTotal(t *testing.T) {
	tests := []struct {
		name        string
		serviceType enum.ServiceType
		base        string
		policy      *models.PricingPolicy
		wantTotal   string
	}{
		{
			name:        "100 base with 5 percent and 25 fixed is exactly 130",
			serviceType: enum.ServiceTypeFlight,
			base:        "100.00",
			policy:      policy("25", "5", "0"),
			wantTotal:   "130.00",
		},
		{
			name:        "200 base with 5 percent and 25 fixed is exactly 235",
			serviceType: enum.ServiceTypeFlight,
			base:        "200.00",
			policy:      policy("25", "5", "0"),
			wantTotal:   "235.00",
		},
		{
			name:        "port charge applies to cruise",
			serviceType: enum.ServiceTypeCruise,
			base:        "100.00",
			policy:      policy("25", "5", "40"),
			wantTotal:   "170.00",
		},
		{
			name:        "port charge ignored for non-cruise",
			serviceType: enum.ServiceTypeHotel,
			base:        "100.00",
			policy:      policy("25", "5", "40"),
			wantTotal:   "130.00",
		},
		{
			name:        "half cent rounds up",
			serviceType: enum.ServiceTypeFlight,
			base:        "100.10",
			policy:      policy("0", "5", "0"), // fee 5.005, total 105.105
			wantTotal:   "105.11",
		},
		{
			name:        "zero base is allowed",
			serviceType: enum.ServiceTypeGeneral,
			base:        "0",
			policy:      policy("25", "5", "0"),
			wantTotal:   "25.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeTotal(tt.serviceType, decimal.RequireFromString(tt.base), tt.policy)
			require.NoError(t, err)
			assert.True(t, got.Total.Equal(decimal.RequireFromString(tt.wantTotal)),
				"total = %s, want %s", got.Total.String(), tt.wantTotal)
		})
	}
}

func TestComputeTotalDeterministic(t *testing.T) {
	p := policy("25", "5", "0")
	base := decimal.RequireFromString("123.45")

	first, err := ComputeTotal(enum.ServiceTypeFlight, base, p)
	require.NoError(t, err)
	second, err := ComputeTotal(enum.ServiceTypeFlight, base, p)
	require.NoError(t, err)

	assert.Equal(t, first.Total.String(), second.Total.String())
}

func TestComputeTotalRejectsNegativeBase(t *testing.T) {
	_, err := ComputeTotal(enum.ServiceTypeFlight, decimal.RequireFromString("-1"), policy("25", "5", "0"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestComputeTotalAcceptsPolicyWithoutServiceType(t *testing.T) {
	// The service type is a parameter of the computation, not a property the
	// policy struct has to carry.
	p := policy("25", "5", "0")
	require.Empty(t, p.ServiceType)

	got, err := ComputeTotal(enum.ServiceTypeFlight, decimal.RequireFromString("100.00"), p)
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(decimal.RequireFromString("130.00")))
}

func TestComputeTotalRejectsNegativePolicy(t *testing.T) {
	_, err := ComputeTotal(enum.ServiceTypeFlight, decimal.RequireFromString("100"), policy("-25", "5", "0"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestComputeTotalBreakdownComponents(t *testing.T) {
	got, err := ComputeTotal(enum.ServiceTypeCruise, decimal.RequireFromString("200.00"), policy("25", "5", "40"))
	require.NoError(t, err)

	assert.True(t, got.BaseAmount.Equal(decimal.RequireFromString("200.00")))
	assert.True(t, got.FixedFee.Equal(decimal.RequireFromString("25")))
	assert.True(t, got.PercentageFee.Equal(decimal.RequireFromString("10")))
	assert.True(t, got.PortCharge.Equal(decimal.RequireFromString("40")))
	assert.True(t, got.Total.Equal(decimal.RequireFromString("275.00")))
}
