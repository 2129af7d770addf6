package travelpay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/skyvoyage/travelpay/booking"
	"github.com/skyvoyage/travelpay/event"
	"github.com/skyvoyage/travelpay/gateway"
	"github.com/skyvoyage/travelpay/inquiry"
	"github.com/skyvoyage/travelpay/models"
	"github.com/skyvoyage/travelpay/models/enum"
	"github.com/skyvoyage/travelpay/notify"
	"github.com/skyvoyage/travelpay/payment_record"
	"github.com/skyvoyage/travelpay/pricing"
	"github.com/skyvoyage/travelpay/quote"
	"github.com/skyvoyage/travelpay/supplier"
)

type travelPayments struct {
	gateway      gateway.API
	supplier     supplier.Client
	natsConn     *nats.Conn
	eventManager *EventManager
	workerPool   *WorkerPool
	poller       *Poller
	notifier     notify.Notifier
	logger       *zap.Logger

	inquiries inquiry.Service
	quotes    quote.Service
	payments  payment_record.Service
	bookings  booking.Service
	events    event.Service
	pricing   pricing.Service
}

func NewTravelPayments(
	gw gateway.API,
	sup supplier.Client,
	natsConn *nats.Conn,
	inquiries inquiry.Service,
	quotes quote.Service,
	payments payment_record.Service,
	bookings booking.Service,
	events event.Service,
	pricingService pricing.Service,
	notifier notify.Notifier,
	logger *zap.Logger) TravelPayments {
	tp := &travelPayments{
		gateway:   gw,
		supplier:  sup,
		natsConn:  natsConn,
		inquiries: inquiries,
		quotes:    quotes,
		payments:  payments,
		bookings:  bookings,
		events:    events,
		pricing:   pricingService,
		notifier:  notifier,
		logger:    logger,
	}

	tp.eventManager = NewEventManager(natsConn, logger)
	tp.workerPool = NewWorkerPool(10000, tp, logger)

	tp.registerEventHandlers()
	if err := tp.eventManager.SubscribeToEvents(tp.workerPool); err != nil {
		logger.Error("Failed to subscribe to gateway events", zap.Error(err))
	}

	tp.poller = NewPoller(tp, defaultPollInterval)
	tp.poller.Start()

	return tp
}

// CreateQuote prices the base amount under the pricing policy for the
// inquiry's service type and opens a draft quote. The breakdown keeps the
// priced components so later policy edits cannot alter this quote.
func (tp *travelPayments) CreateQuote(ctx context.Context, input *CreateQuoteInput) (*models.Quote, error) {
	view, err := tp.inquiries.Get(ctx, input.InquiryID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve inquiry: %w", err)
	}

	policy, err := tp.pricing.GetPolicy(ctx, view.Inquiry.ServiceType)
	if err != nil {
		return nil, fmt.Errorf("failed to load pricing policy: %w", err)
	}

	breakdown, err := pricing.ComputeTotal(view.Inquiry.ServiceType, input.BaseAmount, policy)
	if err != nil {
		return nil, err
	}

	baseLabel := input.BaseLabel
	if baseLabel == "" {
		baseLabel = "Base fare"
	}

	lines := []models.QuoteLineItem{{
		Item:      baseLabel,
		Quantity:  1,
		UnitPrice: breakdown.BaseAmount,
		Amount:    breakdown.BaseAmount,
	}}
	if breakdown.FixedFee.IsPositive() {
		lines = append(lines, models.QuoteLineItem{
			Item:      "Booking fee",
			Quantity:  1,
			UnitPrice: breakdown.FixedFee,
			Amount:    breakdown.FixedFee,
		})
	}
	if breakdown.PortCharge.IsPositive() {
		lines = append(lines, models.QuoteLineItem{
			Item:      "Port charge",
			Quantity:  1,
			UnitPrice: breakdown.PortCharge,
			Amount:    breakdown.PortCharge,
		})
	}
	// The service fee line absorbs the final rounding so the breakdown sums
	// exactly to the rounded total.
	serviceFee := breakdown.Total.Sub(breakdown.BaseAmount).
		Sub(breakdown.FixedFee).Sub(breakdown.PortCharge)
	if !serviceFee.IsZero() {
		lines = append(lines, models.QuoteLineItem{
			Item:      "Service fee",
			Quantity:  1,
			UnitPrice: serviceFee,
			Amount:    serviceFee,
		})
	}

	quoteModel := &models.Quote{
		InquiryID:   input.InquiryID,
		Title:       input.Title,
		Breakdown:   lines,
		TotalAmount: breakdown.Total,
		Currency:    input.Currency,
		ExpiresAt:   input.ExpiresAt,
	}
	if err = tp.quotes.Create(ctx, quoteModel); err != nil {
		return nil, err
	}

	return quoteModel, nil
}

func (tp *travelPayments) SendQuote(ctx context.Context, quoteID string) error {
	return tp.quotes.Send(ctx, quoteID)
}

// CreateCheckout opens a hosted-checkout session for a quote. The session is
// created at the gateway first; the local attempt row is only written once
// the gateway has accepted the order, so a gateway failure leaves no local
// state behind. Retries for the same order id land on the same session.
func (tp *travelPayments) CreateCheckout(ctx context.Context, input *CheckoutInput) (*CheckoutResult, error) {
	quoteModel, err := tp.quotes.GetByID(ctx, input.QuoteID)
	if err != nil {
		return nil, err
	}

	if quoteModel.Status == enum.QuoteStatusCancelled || quoteModel.Status == enum.QuoteStatusExpired {
		return nil, fmt.Errorf("%w: quote %s is %s", models.ErrValidation, quoteModel.ID, quoteModel.Status)
	}
	if quoteModel.Expired(time.Now()) {
		return nil, fmt.Errorf("%w: quote %s has expired", models.ErrValidation, quoteModel.ID)
	}
	if quoteModel.PaymentStatus == enum.QuotePaymentStatusPaid {
		return nil, fmt.Errorf("%w: quote %s is already paid", models.ErrValidation, quoteModel.ID)
	}
	if !input.Amount.Equal(quoteModel.TotalAmount) {
		return nil, fmt.Errorf("%w: amount %s does not match quote total %s",
			models.ErrValidation, input.Amount.String(), quoteModel.TotalAmount.String())
	}
	if input.Currency != "" && input.Currency != quoteModel.Currency {
		return nil, fmt.Errorf("%w: currency %s does not match quote currency %s",
			models.ErrValidation, input.Currency, quoteModel.Currency)
	}

	// At most one active attempt per quote. A retry rides the existing
	// pending attempt's order id so the gateway returns the same session
	// instead of opening a second chargeable one.
	orderID := input.OrderID
	active, err := tp.payments.GetActiveByQuote(ctx, quoteModel.ID)
	switch {
	case err == nil && active.Status == enum.PaymentStatusPending:
		if orderID != "" && orderID != active.GatewayOrderID {
			return nil, fmt.Errorf("%w: quote %s already has a pending payment attempt %s",
				models.ErrInconsistentState, quoteModel.ID, active.ID)
		}
		orderID = active.GatewayOrderID
	case err == nil:
		return nil, fmt.Errorf("%w: quote %s already has a %s payment",
			models.ErrInconsistentState, quoteModel.ID, active.Status)
	case !errors.Is(err, models.ErrNotFound):
		return nil, fmt.Errorf("failed to look up active payment: %w", err)
	}
	if orderID == "" {
		orderID = uuid.NewString()
	}

	session, err := tp.gateway.CreateCheckoutSession(ctx, &gateway.CheckoutSessionRequest{
		Amount:        quoteModel.TotalAmount,
		Currency:      quoteModel.Currency,
		OrderID:       orderID,
		Description:   input.Description,
		ReturnURL:     input.ReturnURL,
		CancelURL:     input.CancelURL,
		CustomerEmail: input.CustomerEmail,
		CustomerName:  input.CustomerName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	payment, err := tp.payments.RecordAttempt(ctx, quoteModel.ID, quoteModel.TotalAmount, quoteModel.Currency, orderID)
	if err != nil {
		return nil, err
	}

	tp.logger.Info("Checkout session created",
		zap.String("payment_id", payment.ID),
		zap.String("quote_id", quoteModel.ID),
		zap.String("gateway_order_id", orderID),
		zap.String("session_id", session.SessionID))

	return &CheckoutResult{
		Success:     true,
		PaymentID:   payment.ID,
		SessionID:   session.SessionID,
		CheckoutURL: session.CheckoutURL,
	}, nil
}

// HandleReturn reconciles a payment after the customer comes back from the
// hosted checkout page. The redirect carries no trusted outcome; the gateway
// order record decides everything.
func (tp *travelPayments) HandleReturn(ctx context.Context, gatewayOrderID string) (*models.Payment, error) {
	payment, err := tp.payments.GetByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}

	status, err := tp.gateway.RetrieveOrderStatus(ctx, gatewayOrderID)
	if err != nil {
		// Leave the payment pending; the poller will settle it later.
		return payment, fmt.Errorf("failed to retrieve order status: %w", err)
	}

	if err = tp.applyOrderStatus(ctx, payment, status); err != nil {
		return nil, err
	}

	return tp.payments.GetByID(ctx, payment.ID)
}

func (tp *travelPayments) CheckPaymentStatus(ctx context.Context, paymentID string) (*models.Payment, *gateway.OrderStatus, error) {
	payment, err := tp.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, nil, err
	}

	status, err := tp.gateway.RetrieveOrderStatus(ctx, payment.GatewayOrderID)
	if err != nil {
		return payment, nil, fmt.Errorf("failed to retrieve order status: %w", err)
	}

	if err = tp.applyOrderStatus(ctx, payment, status); err != nil {
		return nil, nil, err
	}

	payment, err = tp.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, nil, err
	}
	return payment, status, nil
}

// applyOrderStatus folds the gateway's order record into the local payment
// and its quote. Transitions rejected by the local state machine are logged
// and skipped: a terminal local status is never overwritten sideways.
func (tp *travelPayments) applyOrderStatus(ctx context.Context, payment *models.Payment, status *gateway.OrderStatus) error {
	switch status.Result {
	case gateway.ResultSuccess:
		if status.TotalRefundedAmount.IsPositive() {
			return tp.settle(ctx, payment, enum.PaymentStatusRefunded, func() error {
				return tp.payments.MarkRefunded(ctx, payment.ID, status.TotalRefundedAmount)
			})
		}
		if !status.TotalCapturedAmount.IsPositive() {
			// Authorized but not yet captured; still in flight.
			return nil
		}

		transactionID := ""
		completedAt := time.Now()
		if capture := status.CaptureTransaction(); capture != nil {
			transactionID = capture.ID
			if !capture.Timestamp.IsZero() {
				completedAt = capture.Timestamp
			}
		}
		return tp.settle(ctx, payment, enum.PaymentStatusCompleted, func() error {
			return tp.payments.MarkCompleted(ctx, payment.ID, transactionID, completedAt)
		})

	case gateway.ResultFailure:
		return tp.settle(ctx, payment, enum.PaymentStatusFailed, func() error {
			return tp.payments.MarkFailed(ctx, payment.ID, "gateway reported failure")
		})

	default:
		return nil
	}
}

// settle applies one payment transition plus its quote projection, booking
// side effect and notification.
func (tp *travelPayments) settle(ctx context.Context, payment *models.Payment, target enum.PaymentStatus, transition func() error) error {
	if payment.Status == target {
		// Replayed callback or poll; already settled, nothing to redo.
		return nil
	}
	if err := transition(); err != nil {
		if errors.Is(err, models.ErrInconsistentState) {
			tp.logger.Warn("Skipping transition rejected by payment state machine",
				zap.String("payment_id", payment.ID),
				zap.String("from", string(payment.Status)),
				zap.String("to", string(target)))
			return nil
		}
		return err
	}

	notification := &notify.Event{
		PaymentID:      payment.ID,
		QuoteID:        payment.QuoteID,
		GatewayOrderID: payment.GatewayOrderID,
		Amount:         payment.Amount,
		Currency:       payment.Currency,
	}

	switch target {
	case enum.PaymentStatusCompleted:
		if err := tp.quotes.SetPaymentStatus(ctx, payment.QuoteID, enum.QuotePaymentStatusPaid); err != nil {
			return err
		}
		record, err := tp.bookings.Confirm(ctx, payment.ID, nil)
		if err != nil {
			return err
		}
		notification.Type = notify.EventPaymentCompleted
		notification.BookingID = record.ID
	case enum.PaymentStatusFailed:
		if err := tp.quotes.SetPaymentStatus(ctx, payment.QuoteID, enum.QuotePaymentStatusFailed); err != nil {
			return err
		}
		notification.Type = notify.EventPaymentFailed
	case enum.PaymentStatusRefunded:
		if err := tp.quotes.SetPaymentStatus(ctx, payment.QuoteID, enum.QuotePaymentStatusRefunded); err != nil {
			return err
		}
		notification.Type = notify.EventPaymentRefunded
	case enum.PaymentStatusVoided:
		if err := tp.quotes.SetPaymentStatus(ctx, payment.QuoteID, enum.QuotePaymentStatusVoided); err != nil {
			return err
		}
		notification.Type = notify.EventPaymentVoided
	case enum.PaymentStatusRefundPending:
		if err := tp.quotes.SetPaymentStatus(ctx, payment.QuoteID, enum.QuotePaymentStatusRefundPending); err != nil {
			return err
		}
		notification.Type = notify.EventRefundPending
	}

	tp.notifier.Publish(ctx, notification)
	return nil
}

// RefundPayment returns captured funds. The gateway order is read first so
// the refundable amount reflects upstream truth, not the local row.
func (tp *travelPayments) RefundPayment(ctx context.Context, paymentID string, amount *decimal.Decimal, reason string) (*models.Payment, error) {
	payment, err := tp.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	status, err := tp.gateway.RetrieveOrderStatus(ctx, payment.GatewayOrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve order status: %w", err)
	}

	capture := status.CaptureTransaction()
	if capture == nil {
		return nil, fmt.Errorf("%w: order %s has no captured transaction to refund",
			models.ErrInconsistentState, payment.GatewayOrderID)
	}

	refundable := status.TotalCapturedAmount.Sub(status.TotalRefundedAmount)
	refundAmount := refundable
	if amount != nil {
		if amount.GreaterThan(refundable) {
			return nil, fmt.Errorf("%w: refund %s exceeds refundable %s",
				models.ErrValidation, amount.String(), refundable.String())
		}
		refundAmount = *amount
	}
	if !refundAmount.IsPositive() {
		return nil, fmt.Errorf("%w: nothing left to refund on order %s",
			models.ErrValidation, payment.GatewayOrderID)
	}

	if _, err = tp.gateway.Refund(ctx, capture.ID, refundAmount, reason); err != nil {
		return nil, fmt.Errorf("failed to refund payment: %w", err)
	}

	if err = tp.settle(ctx, payment, enum.PaymentStatusRefunded, func() error {
		return tp.payments.MarkRefunded(ctx, payment.ID, refundAmount)
	}); err != nil {
		return nil, err
	}

	return tp.payments.GetByID(ctx, paymentID)
}

// VoidPayment cancels the capture before settlement. The gateway rejects
// voids on settled transactions; callers fall back to RefundPayment then.
func (tp *travelPayments) VoidPayment(ctx context.Context, paymentID, reason string) (*models.Payment, error) {
	payment, err := tp.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	status, err := tp.gateway.RetrieveOrderStatus(ctx, payment.GatewayOrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve order status: %w", err)
	}

	capture := status.CaptureTransaction()
	if capture == nil {
		return nil, fmt.Errorf("%w: order %s has no captured transaction to void",
			models.ErrInconsistentState, payment.GatewayOrderID)
	}

	if _, err = tp.gateway.Void(ctx, capture.ID, reason); err != nil {
		return nil, fmt.Errorf("failed to void payment: %w", err)
	}

	if err = tp.settle(ctx, payment, enum.PaymentStatusVoided, func() error {
		return tp.payments.MarkVoided(ctx, payment.ID)
	}); err != nil {
		return nil, err
	}

	return tp.payments.GetByID(ctx, paymentID)
}

func (tp *travelPayments) AttachSupplierOrder(ctx context.Context, bookingID, supplierOrderID string) error {
	return tp.bookings.SetSupplierOrder(ctx, bookingID, supplierOrderID)
}

// CancelBooking unwinds a confirmed booking: it reverses the money (void if
// the capture has not settled, refund otherwise), cancels the booking record
// and asks the supplier to cancel the upstream order. The local cancellation
// always goes through; a failed reversal parks the payment as refund_pending
// for manual follow-up, and a failed supplier call is only reported.
func (tp *travelPayments) CancelBooking(ctx context.Context, bookingID, reason string) (*CancellationResult, error) {
	record, err := tp.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if record.Status == enum.BookingStatusCancelled {
		return nil, fmt.Errorf("%w: booking %s is already cancelled", models.ErrValidation, bookingID)
	}

	payment, err := tp.payments.GetByID(ctx, record.PaymentID)
	if err != nil {
		return nil, err
	}

	result := &CancellationResult{RefundAmount: decimal.Zero}

	switch payment.Status {
	case enum.PaymentStatusCompleted:
		tp.reverseFunds(ctx, payment, reason, result)
	case enum.PaymentStatusRefundPending:
		result.RefundPending = true
	}

	if err = tp.bookings.Cancel(ctx, bookingID); err != nil {
		return nil, err
	}

	tp.notifier.Publish(ctx, &notify.Event{
		Type:      notify.EventBookingCancelled,
		PaymentID: payment.ID,
		QuoteID:   payment.QuoteID,
		BookingID: bookingID,
		Amount:    result.RefundAmount,
		Currency:  payment.Currency,
	})

	if record.SupplierOrderID != nil {
		if err = tp.supplier.CancelOrder(ctx, *record.SupplierOrderID, reason); err != nil {
			tp.logger.Warn("Supplier cancellation failed, needs manual follow-up",
				zap.Error(err),
				zap.String("booking_id", bookingID),
				zap.String("supplier_order_id", *record.SupplierOrderID))
		} else {
			result.SupplierCancelled = true
		}
	}

	return result, nil
}

// reverseFunds tries void first, then refund, then parks the payment as
// refund_pending. It never returns an error: money reversal must not block
// the cancellation itself.
func (tp *travelPayments) reverseFunds(ctx context.Context, payment *models.Payment, reason string, result *CancellationResult) {
	markPending := func() {
		result.RefundPending = true
		if err := tp.settle(ctx, payment, enum.PaymentStatusRefundPending, func() error {
			return tp.payments.MarkRefundPending(ctx, payment.ID)
		}); err != nil {
			tp.logger.Error("Failed to park payment as refund_pending",
				zap.Error(err), zap.String("payment_id", payment.ID))
		}
	}

	status, err := tp.gateway.RetrieveOrderStatus(ctx, payment.GatewayOrderID)
	if err != nil {
		tp.logger.Warn("Gateway unreachable during cancellation",
			zap.Error(err), zap.String("payment_id", payment.ID))
		markPending()
		return
	}

	capture := status.CaptureTransaction()
	refundable := status.TotalCapturedAmount.Sub(status.TotalRefundedAmount)
	if capture == nil || !refundable.IsPositive() {
		// Nothing left upstream to reverse.
		return
	}

	if _, err = tp.gateway.Void(ctx, capture.ID, reason); err == nil {
		result.PaymentAction = PaymentActionVoid
		result.RefundAmount = refundable
		if err = tp.settle(ctx, payment, enum.PaymentStatusVoided, func() error {
			return tp.payments.MarkVoided(ctx, payment.ID)
		}); err != nil {
			tp.logger.Error("Failed to record void", zap.Error(err), zap.String("payment_id", payment.ID))
		}
		return
	} else if gateway.IsUnavailable(err) {
		markPending()
		return
	}

	// Void rejected, the capture has settled. Refund instead.
	if _, err = tp.gateway.Refund(ctx, capture.ID, refundable, reason); err != nil {
		tp.logger.Warn("Refund failed during cancellation",
			zap.Error(err), zap.String("payment_id", payment.ID))
		markPending()
		return
	}

	result.PaymentAction = PaymentActionRefund
	result.RefundAmount = refundable
	if err = tp.settle(ctx, payment, enum.PaymentStatusRefunded, func() error {
		return tp.payments.MarkRefunded(ctx, payment.ID, refundable)
	}); err != nil {
		tp.logger.Error("Failed to record refund", zap.Error(err), zap.String("payment_id", payment.ID))
	}
}

// HandleGatewayWebhook accepts a pushed gateway notification, deduplicates
// it and queues it for asynchronous processing.
func (tp *travelPayments) HandleGatewayWebhook(ctx context.Context, payload []byte) error {
	var gatewayEvent GatewayEvent
	if err := json.Unmarshal(payload, &gatewayEvent); err != nil {
		return fmt.Errorf("failed to decode gateway event: %w", err)
	}
	if gatewayEvent.ID == "" || gatewayEvent.OrderID == "" {
		return fmt.Errorf("%w: gateway event requires id and orderId", models.ErrValidation)
	}

	processed, err := tp.events.IsProcessed(ctx, gatewayEvent.ID)
	if err != nil {
		return err
	}
	if processed {
		tp.logger.Info("Event is already processed", zap.String("event_id", gatewayEvent.ID))
		return nil
	}

	if err = tp.eventManager.PublishEvent(&gatewayEvent); err != nil {
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	if err = tp.events.Record(ctx, gatewayEvent.ID, gatewayEvent.Type); err != nil {
		tp.logger.Error("Failed to record gateway event", zap.Error(err))
		return err
	}

	return nil
}

func (tp *travelPayments) ProcessEvent(ctx context.Context, gatewayEvent *GatewayEvent) error {
	handler, exists := tp.eventManager.GetHandler(gatewayEvent.Type)
	if !exists {
		return fmt.Errorf("no handler registered for event type: %s", gatewayEvent.Type)
	}

	if err := handler(ctx, gatewayEvent); err != nil {
		return err
	}

	if err := tp.events.MarkProcessed(context.Background(), gatewayEvent.ID); err != nil {
		tp.logger.Error("Failed to mark event as processed", zap.Error(err))
		return err
	}

	tp.logger.Info("Gateway event applied", zap.String("event_id", gatewayEvent.ID))

	return nil
}

// handleOrderEvent reconciles the order named by the notification. The
// notification type is not trusted; the order record is re-read and applied
// as a whole.
func (tp *travelPayments) handleOrderEvent(ctx context.Context, gatewayEvent *GatewayEvent) error {
	payment, err := tp.payments.GetByGatewayOrderID(ctx, gatewayEvent.OrderID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			tp.logger.Warn("Gateway event for unknown order",
				zap.String("event_id", gatewayEvent.ID),
				zap.String("order_id", gatewayEvent.OrderID))
			return nil
		}
		return err
	}

	status, err := tp.gateway.RetrieveOrderStatus(ctx, gatewayEvent.OrderID)
	if err != nil {
		return fmt.Errorf("failed to retrieve order status: %w", err)
	}

	return tp.applyOrderStatus(ctx, payment, status)
}

func (tp *travelPayments) Close() {
	tp.logger.Info("Initiating graceful shutdown of poller and workers")
	tp.poller.Stop()
	tp.natsConn.Close()
	tp.workerPool.Shutdown()
	tp.logger.Info("TravelPayments successfully shutdown")
}
