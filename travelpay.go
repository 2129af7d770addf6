package travelpay

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/skyvoyage/travelpay/gateway"
	"github.com/skyvoyage/travelpay/models"
)

// CreateQuoteInput prices one base amount under the current pricing policy
// and opens a quote for it. The policy is resolved once, here; the quote
// keeps the numbers it was priced with.
type CreateQuoteInput struct {
	InquiryID  string          `json:"inquiry_id"`
	Title      string          `json:"title"`
	BaseAmount decimal.Decimal `json:"base_amount"`
	BaseLabel  string          `json:"base_label"`
	Currency   string          `json:"currency"`
	ExpiresAt  *time.Time      `json:"expires_at,omitempty"`
}

type CheckoutInput struct {
	QuoteID       string          `json:"quote_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	OrderID       string          `json:"order_id"`
	BookingType   string          `json:"booking_type"`
	CustomerEmail string          `json:"customer_email"`
	CustomerName  string          `json:"customer_name"`
	Description   string          `json:"description"`
	ReturnURL     string          `json:"return_url"`
	CancelURL     string          `json:"cancel_url"`
}

type CheckoutResult struct {
	Success     bool   `json:"success"`
	PaymentID   string `json:"payment_id"`
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// PaymentAction names the reversal leg taken during a cancellation. Empty
// when no money movement happened (or none succeeded).
type PaymentAction string

const (
	PaymentActionRefund PaymentAction = "REFUND"
	PaymentActionVoid   PaymentAction = "VOID"
)

type CancellationResult struct {
	RefundAmount      decimal.Decimal `json:"refund_amount"`
	PaymentAction     PaymentAction   `json:"payment_action,omitempty"`
	RefundPending     bool            `json:"refund_pending"`
	SupplierCancelled bool            `json:"supplier_cancelled"`
}

// TravelPayments is the service facade: quote creation, checkout, gateway
// reconciliation, refunds/voids and booking cancellation.
type TravelPayments interface {
	CreateQuote(ctx context.Context, input *CreateQuoteInput) (*models.Quote, error)
	SendQuote(ctx context.Context, quoteID string) error

	CreateCheckout(ctx context.Context, input *CheckoutInput) (*CheckoutResult, error)
	HandleReturn(ctx context.Context, gatewayOrderID string) (*models.Payment, error)
	CheckPaymentStatus(ctx context.Context, paymentID string) (*models.Payment, *gateway.OrderStatus, error)

	RefundPayment(ctx context.Context, paymentID string, amount *decimal.Decimal, reason string) (*models.Payment, error)
	VoidPayment(ctx context.Context, paymentID, reason string) (*models.Payment, error)

	AttachSupplierOrder(ctx context.Context, bookingID, supplierOrderID string) error
	CancelBooking(ctx context.Context, bookingID, reason string) (*CancellationResult, error)

	HandleGatewayWebhook(ctx context.Context, payload []byte) error

	Close()
}
