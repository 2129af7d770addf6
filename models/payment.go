package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/skyvoyage/travelpay/models/enum"
)

// Payment is the local mirror of one checkout attempt at the gateway. The
// gateway remains the only authority on whether money moved; this row may lag
// until explicitly reconciled.
type Payment struct {
	ID               string             `json:"id"`
	QuoteID          string             `json:"quote_id"`
	GatewayOrderID   string             `json:"gateway_order_id"`
	Amount           decimal.Decimal    `json:"amount"`
	Currency         string             `json:"currency"`
	PaymentMethod    string             `json:"payment_method"`
	Status           enum.PaymentStatus `json:"payment_status"`
	ArcTransactionID string             `json:"arc_transaction_id,omitempty"`
	Version          int64              `json:"version"`
	CreatedAt        time.Time          `json:"created_at"`
	CompletedAt      *time.Time         `json:"completed_at,omitempty"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

func NewPayment() *Payment {
	return &Payment{}
}

// CanTransition enforces exactly-one-terminal-write-wins: a payment already
// refunded, voided or failed cannot be re-transitioned except by a brand new
// attempt row. refund_pending may still resolve to refunded or voided once a
// staff retry succeeds.
func (p *Payment) CanTransition(to enum.PaymentStatus) bool {
	if p.Status == to {
		return false
	}
	switch p.Status {
	case enum.PaymentStatusPending:
		return to == enum.PaymentStatusCompleted || to == enum.PaymentStatusFailed
	case enum.PaymentStatusCompleted:
		return to == enum.PaymentStatusRefunded ||
			to == enum.PaymentStatusVoided ||
			to == enum.PaymentStatusRefundPending
	case enum.PaymentStatusRefundPending:
		return to == enum.PaymentStatusRefunded || to == enum.PaymentStatusVoided
	}
	return false
}

// Transition applies a status change, returning ErrInconsistentState when the
// change would violate the terminal-write-wins invariant.
func (p *Payment) Transition(to enum.PaymentStatus) error {
	if !p.CanTransition(to) {
		return fmt.Errorf("%w: payment %s cannot move %s -> %s",
			ErrInconsistentState, p.ID, p.Status, to)
	}
	p.Status = to
	return nil
}
