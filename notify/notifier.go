package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	EventPaymentCompleted = "payment.completed"
	EventPaymentFailed    = "payment.failed"
	EventPaymentRefunded  = "payment.refunded"
	EventPaymentVoided    = "payment.voided"
	EventRefundPending    = "payment.refund_pending"
	EventBookingCancelled = "booking.cancelled"
)

// Event is the notification payload handed to downstream consumers (email
// composition and delivery live outside this service).
type Event struct {
	Type           string          `json:"type"`
	PaymentID      string          `json:"payment_id,omitempty"`
	QuoteID        string          `json:"quote_id,omitempty"`
	BookingID      string          `json:"booking_id,omitempty"`
	GatewayOrderID string          `json:"gateway_order_id,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// Notifier is fire-and-forget: delivery failure is logged, never propagated,
// so a notification outage cannot fail a payment transition.
type Notifier interface {
	Publish(ctx context.Context, event *Event)
}

type natsNotifier struct {
	conn   *nats.Conn
	logger *zap.Logger
}

func NewNatsNotifier(conn *nats.Conn, logger *zap.Logger) Notifier {
	return &natsNotifier{conn: conn, logger: logger}
}

func (n *natsNotifier) Publish(_ context.Context, event *Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("Failed to marshal notification", zap.Error(err), zap.String("type", event.Type))
		return
	}

	subject := fmt.Sprintf("travelpay.notify.%s", event.Type)
	if err = n.conn.Publish(subject, data); err != nil {
		n.logger.Error("Failed to publish notification",
			zap.Error(err),
			zap.String("subject", subject),
			zap.String("payment_id", event.PaymentID))
	}
}
