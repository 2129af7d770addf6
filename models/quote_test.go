package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validQuote() *Quote {
	return &Quote{
		InquiryID: "inq-1",
		Currency:  "USD",
		Breakdown: []QuoteLineItem{
			{Item: "Base fare", Quantity: 1, UnitPrice: decimal.RequireFromString("100"), Amount: decimal.RequireFromString("100")},
			{Item: "Service fee", Quantity: 1, UnitPrice: decimal.RequireFromString("30"), Amount: decimal.RequireFromString("30")},
		},
		TotalAmount: decimal.RequireFromString("130"),
	}
}

func TestQuoteValidate(t *testing.T) {
	require.NoError(t, validQuote().Validate())
}

func TestQuoteValidateTotalMustMatchBreakdown(t *testing.T) {
	q := validQuote()
	q.TotalAmount = decimal.RequireFromString("129.99")

	err := q.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestQuoteValidateRejectsNegativeLine(t *testing.T) {
	q := validQuote()
	q.Breakdown[1].Amount = decimal.RequireFromString("-30")
	q.TotalAmount = decimal.RequireFromString("70")

	assert.ErrorIs(t, q.Validate(), ErrValidation)
}

func TestQuoteValidateRequiresLineItems(t *testing.T) {
	q := validQuote()
	q.Breakdown = nil

	assert.ErrorIs(t, q.Validate(), ErrValidation)
}

func TestQuoteExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.False(t, (&Quote{}).Expired(now))
	assert.False(t, (&Quote{ExpiresAt: &future}).Expired(now))
	assert.True(t, (&Quote{ExpiresAt: &past}).Expired(now))
}
