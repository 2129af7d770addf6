package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/skyvoyage/travelpay/models/enum"
)

// QuoteLineItem is one row of a quote breakdown. Amount is the resolved
// quantity * unit price, stored rather than recomputed so later pricing
// policy edits cannot alter a historical quote.
type QuoteLineItem struct {
	Item      string          `json:"item"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}

type Quote struct {
	ID            string                  `json:"id"`
	InquiryID     string                  `json:"inquiry_id"`
	Title         string                  `json:"title"`
	Breakdown     []QuoteLineItem         `json:"breakdown"`
	TotalAmount   decimal.Decimal         `json:"total_amount"`
	Currency      string                  `json:"currency"`
	Status        enum.QuoteStatus        `json:"status"`
	PaymentStatus enum.QuotePaymentStatus `json:"payment_status"`
	CreatedAt     time.Time               `json:"created_at"`
	SentAt        *time.Time              `json:"sent_at,omitempty"`
	ExpiresAt     *time.Time              `json:"expires_at,omitempty"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

func NewQuote() *Quote {
	return &Quote{}
}

// Validate enforces the creation invariant: total_amount must equal the sum
// of the breakdown amounts, exactly.
func (q *Quote) Validate() error {
	if q.InquiryID == "" {
		return fmt.Errorf("%w: quote requires an inquiry", ErrValidation)
	}
	if q.Currency == "" {
		return fmt.Errorf("%w: quote requires a currency", ErrValidation)
	}
	if len(q.Breakdown) == 0 {
		return fmt.Errorf("%w: quote requires at least one line item", ErrValidation)
	}

	sum := decimal.Zero
	for _, item := range q.Breakdown {
		if item.Amount.IsNegative() || item.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: negative line item amount for %q", ErrValidation, item.Item)
		}
		sum = sum.Add(item.Amount)
	}
	if !sum.Equal(q.TotalAmount) {
		return fmt.Errorf("%w: total %s does not match breakdown sum %s",
			ErrValidation, q.TotalAmount.String(), sum.String())
	}

	return nil
}

// Expired reports whether the quote has passed its expiry at the given time.
func (q *Quote) Expired(now time.Time) bool {
	return q.ExpiresAt != nil && now.After(*q.ExpiresAt)
}
