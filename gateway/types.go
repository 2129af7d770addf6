package gateway

import (
	"time"

	"github.com/shopspring/decimal"
)

// ResultIndicator is the gateway's coarse verdict on an order.
type ResultIndicator string

const (
	ResultSuccess ResultIndicator = "SUCCESS"
	ResultPending ResultIndicator = "PENDING"
	ResultFailure ResultIndicator = "FAILURE"
)

type TransactionType string

const (
	TransactionTypeAuthorization TransactionType = "AUTHORIZATION"
	TransactionTypeCapture       TransactionType = "CAPTURE"
	TransactionTypePayment       TransactionType = "PAYMENT"
	TransactionTypeRefund        TransactionType = "REFUND"
	TransactionTypeVoid          TransactionType = "VOID"
)

type CheckoutSessionRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	OrderID       string          `json:"orderId"`
	Description   string          `json:"description"`
	ReturnURL     string          `json:"returnUrl"`
	CancelURL     string          `json:"cancelUrl"`
	CustomerEmail string          `json:"customerEmail"`
	CustomerName  string          `json:"customerName"`
}

type CheckoutSession struct {
	SessionID   string `json:"sessionId"`
	CheckoutURL string `json:"checkoutUrl"`
}

type Transaction struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	GatewayCode string          `json:"gatewayCode"`
	Timestamp   time.Time       `json:"timestamp"`
}

// OrderStatus is the normalized view of the gateway's order record. It is
// the single source of truth for reconciliation; local payment rows are
// always subordinate to it.
type OrderStatus struct {
	OrderID               string          `json:"orderId"`
	Result                ResultIndicator `json:"result"`
	TotalAuthorizedAmount decimal.Decimal `json:"totalAuthorizedAmount"`
	TotalCapturedAmount   decimal.Decimal `json:"totalCapturedAmount"`
	TotalRefundedAmount   decimal.Decimal `json:"totalRefundedAmount"`
	Transactions          []Transaction   `json:"transactions"`
}

// CaptureTransaction returns the capture (or direct payment) transaction on
// the order, if any.
func (o *OrderStatus) CaptureTransaction() *Transaction {
	for i := range o.Transactions {
		if o.Transactions[i].Type == TransactionTypeCapture || o.Transactions[i].Type == TransactionTypePayment {
			return &o.Transactions[i]
		}
	}
	return nil
}

type RefundResult struct {
	RefundID string `json:"refundId"`
	Status   string `json:"status"`
}

type VoidResult struct {
	Status string `json:"status"`
}
