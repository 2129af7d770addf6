package travelpay

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skyvoyage/travelpay/gateway"
	"github.com/skyvoyage/travelpay/inquiry"
	"github.com/skyvoyage/travelpay/models"
	"github.com/skyvoyage/travelpay/models/enum"
	"github.com/skyvoyage/travelpay/notify"
)

type fakeGateway struct {
	createFn   func(ctx context.Context, req *gateway.CheckoutSessionRequest) (*gateway.CheckoutSession, error)
	retrieveFn func(ctx context.Context, orderID string) (*gateway.OrderStatus, error)
	refundFn   func(ctx context.Context, txnID string, amount decimal.Decimal, reason string) (*gateway.RefundResult, error)
	voidFn     func(ctx context.Context, txnID string, reason string) (*gateway.VoidResult, error)

	createCalls, retrieveCalls, refundCalls, voidCalls int
}

func (f *fakeGateway) CreateCheckoutSession(ctx context.Context, req *gateway.CheckoutSessionRequest) (*gateway.CheckoutSession, error) {
	f.createCalls++
	return f.createFn(ctx, req)
}

func (f *fakeGateway) RetrieveOrderStatus(ctx context.Context, orderID string) (*gateway.OrderStatus, error) {
	f.retrieveCalls++
	return f.retrieveFn(ctx, orderID)
}

func (f *fakeGateway) Refund(ctx context.Context, txnID string, amount decimal.Decimal, reason string) (*gateway.RefundResult, error) {
	f.refundCalls++
	return f.refundFn(ctx, txnID, amount, reason)
}

func (f *fakeGateway) Void(ctx context.Context, txnID string, reason string) (*gateway.VoidResult, error) {
	f.voidCalls++
	return f.voidFn(ctx, txnID, reason)
}

type fakeQuotes struct {
	quotes map[string]*models.Quote
}

func (f *fakeQuotes) Create(_ context.Context, q *models.Quote) error {
	if q.ID == "" {
		q.ID = fmt.Sprintf("quote-%d", len(f.quotes)+1)
	}
	q.Status = enum.QuoteStatusDraft
	q.PaymentStatus = enum.QuotePaymentStatusUnpaid
	if err := q.Validate(); err != nil {
		return err
	}
	f.quotes[q.ID] = q
	return nil
}

func (f *fakeQuotes) GetByID(_ context.Context, id string) (*models.Quote, error) {
	q, ok := f.quotes[id]
	if !ok {
		return nil, fmt.Errorf("%w: quote %s", models.ErrNotFound, id)
	}
	return q, nil
}

func (f *fakeQuotes) ListByInquiry(_ context.Context, inquiryID string) ([]*models.Quote, error) {
	var out []*models.Quote
	for _, q := range f.quotes {
		if q.InquiryID == inquiryID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQuotes) Send(_ context.Context, id string) error {
	f.quotes[id].Status = enum.QuoteStatusSent
	return nil
}

func (f *fakeQuotes) Cancel(_ context.Context, id string) error {
	f.quotes[id].Status = enum.QuoteStatusCancelled
	return nil
}

func (f *fakeQuotes) SetPaymentStatus(_ context.Context, id string, status enum.QuotePaymentStatus) error {
	f.quotes[id].PaymentStatus = status
	return nil
}

func (f *fakeQuotes) ExpireOverdue(context.Context, time.Time) (int64, error) { return 0, nil }

// fakePayments drives the real Payment state machine so transition guards
// behave exactly as production does.
type fakePayments struct {
	byID    map[string]*models.Payment
	byOrder map[string]*models.Payment
}

func newFakePayments() *fakePayments {
	return &fakePayments{
		byID:    make(map[string]*models.Payment),
		byOrder: make(map[string]*models.Payment),
	}
}

func (f *fakePayments) RecordAttempt(_ context.Context, quoteID string, amount decimal.Decimal, currency, gatewayOrderID string) (*models.Payment, error) {
	if existing, ok := f.byOrder[gatewayOrderID]; ok {
		return existing, nil
	}
	p := &models.Payment{
		ID:             fmt.Sprintf("pay-%d", len(f.byID)+1),
		QuoteID:        quoteID,
		GatewayOrderID: gatewayOrderID,
		Amount:         amount,
		Currency:       currency,
		Status:         enum.PaymentStatusPending,
		CreatedAt:      time.Now(),
	}
	f.byID[p.ID] = p
	f.byOrder[gatewayOrderID] = p
	return p, nil
}

func (f *fakePayments) transition(paymentID string, to enum.PaymentStatus) error {
	p, ok := f.byID[paymentID]
	if !ok {
		return fmt.Errorf("%w: payment %s", models.ErrNotFound, paymentID)
	}
	if p.Status == to {
		return nil
	}
	return p.Transition(to)
}

func (f *fakePayments) MarkCompleted(_ context.Context, paymentID, txnID string, completedAt time.Time) error {
	if err := f.transition(paymentID, enum.PaymentStatusCompleted); err != nil {
		return err
	}
	f.byID[paymentID].ArcTransactionID = txnID
	f.byID[paymentID].CompletedAt = &completedAt
	return nil
}

func (f *fakePayments) MarkFailed(_ context.Context, paymentID, _ string) error {
	return f.transition(paymentID, enum.PaymentStatusFailed)
}

func (f *fakePayments) MarkRefunded(_ context.Context, paymentID string, _ decimal.Decimal) error {
	return f.transition(paymentID, enum.PaymentStatusRefunded)
}

func (f *fakePayments) MarkRefundPending(_ context.Context, paymentID string) error {
	return f.transition(paymentID, enum.PaymentStatusRefundPending)
}

func (f *fakePayments) MarkVoided(_ context.Context, paymentID string) error {
	return f.transition(paymentID, enum.PaymentStatusVoided)
}

func (f *fakePayments) GetByID(_ context.Context, paymentID string) (*models.Payment, error) {
	p, ok := f.byID[paymentID]
	if !ok {
		return nil, fmt.Errorf("%w: payment %s", models.ErrNotFound, paymentID)
	}
	return p, nil
}

func (f *fakePayments) GetByGatewayOrderID(_ context.Context, orderID string) (*models.Payment, error) {
	p, ok := f.byOrder[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: payment for order %s", models.ErrNotFound, orderID)
	}
	return p, nil
}

func (f *fakePayments) GetActiveByQuote(_ context.Context, quoteID string) (*models.Payment, error) {
	for _, p := range f.byID {
		if p.QuoteID == quoteID && p.Status != enum.PaymentStatusFailed {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: no active payment for quote %s", models.ErrNotFound, quoteID)
}

func (f *fakePayments) ListPending(context.Context, uint64) ([]*models.Payment, error) {
	var out []*models.Payment
	for _, p := range f.byID {
		if p.Status == enum.PaymentStatusPending {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeBookings struct {
	byID map[string]*models.BookingRecord
}

func (f *fakeBookings) Confirm(_ context.Context, paymentID string, supplierOrderID *string) (*models.BookingRecord, error) {
	for _, b := range f.byID {
		if b.PaymentID == paymentID {
			return b, nil
		}
	}
	b := &models.BookingRecord{
		ID:               fmt.Sprintf("bkg-%d", len(f.byID)+1),
		PaymentID:        paymentID,
		BookingReference: "ABCD1234",
		SupplierOrderID:  supplierOrderID,
		Status:           enum.BookingStatusConfirmed,
	}
	f.byID[b.ID] = b
	return b, nil
}

func (f *fakeBookings) GetByID(_ context.Context, id string) (*models.BookingRecord, error) {
	b, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: booking %s", models.ErrNotFound, id)
	}
	return b, nil
}

func (f *fakeBookings) GetByPaymentID(_ context.Context, paymentID string) (*models.BookingRecord, error) {
	for _, b := range f.byID {
		if b.PaymentID == paymentID {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: booking for payment %s", models.ErrNotFound, paymentID)
}

func (f *fakeBookings) SetSupplierOrder(_ context.Context, id, supplierOrderID string) error {
	f.byID[id].SupplierOrderID = &supplierOrderID
	return nil
}

func (f *fakeBookings) Cancel(_ context.Context, id string) error {
	f.byID[id].Status = enum.BookingStatusCancelled
	return nil
}

type fakeSupplier struct {
	err   error
	calls []string
}

func (f *fakeSupplier) CancelOrder(_ context.Context, supplierOrderID, _ string) error {
	f.calls = append(f.calls, supplierOrderID)
	return f.err
}

type fakeNotifier struct {
	events []*notify.Event
}

func (f *fakeNotifier) Publish(_ context.Context, event *notify.Event) {
	f.events = append(f.events, event)
}

func (f *fakeNotifier) types() []string {
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeEvents struct {
	processed map[string]bool
	recorded  []string
}

func (f *fakeEvents) Record(_ context.Context, id, _ string) error {
	f.recorded = append(f.recorded, id)
	return nil
}

func (f *fakeEvents) IsProcessed(_ context.Context, id string) (bool, error) {
	return f.processed[id], nil
}

func (f *fakeEvents) MarkProcessed(_ context.Context, id string) error {
	f.processed[id] = true
	return nil
}

type fakeInquiries struct {
	view *inquiry.View
}

func (f *fakeInquiries) Create(context.Context, *models.Inquiry) error { return nil }
func (f *fakeInquiries) Get(context.Context, string) (*inquiry.View, error) {
	return f.view, nil
}
func (f *fakeInquiries) List(context.Context, uint64, uint64) ([]*inquiry.View, error) {
	return nil, nil
}
func (f *fakeInquiries) UpdateStatus(context.Context, string, enum.InquiryStatus) error { return nil }

type fakePricing struct {
	policy *models.PricingPolicy
}

func (f *fakePricing) GetPolicy(context.Context, enum.ServiceType) (*models.PricingPolicy, error) {
	return f.policy, nil
}
func (f *fakePricing) UpdatePolicy(context.Context, *models.PricingPolicy) error { return nil }

type fixture struct {
	tp       *travelPayments
	gateway  *fakeGateway
	quotes   *fakeQuotes
	payments *fakePayments
	bookings *fakeBookings
	supplier *fakeSupplier
	notifier *fakeNotifier
	events   *fakeEvents
}

func newFixture() *fixture {
	f := &fixture{
		gateway:  &fakeGateway{},
		quotes:   &fakeQuotes{quotes: make(map[string]*models.Quote)},
		payments: newFakePayments(),
		bookings: &fakeBookings{byID: make(map[string]*models.BookingRecord)},
		supplier: &fakeSupplier{},
		notifier: &fakeNotifier{},
		events:   &fakeEvents{processed: make(map[string]bool)},
	}
	f.tp = &travelPayments{
		gateway:  f.gateway,
		supplier: f.supplier,
		quotes:   f.quotes,
		payments: f.payments,
		bookings: f.bookings,
		events:   f.events,
		notifier: f.notifier,
		inquiries: &fakeInquiries{view: &inquiry.View{
			Inquiry: &models.Inquiry{ID: "inq-1", ServiceType: enum.ServiceTypeFlight},
		}},
		pricing: &fakePricing{policy: &models.PricingPolicy{
			FixedFee:      decimal.RequireFromString("25"),
			FeePercentage: decimal.RequireFromString("5"),
		}},
		logger: zap.NewNop(),
	}
	return f
}

func (f *fixture) seedQuote(t *testing.T, total string) *models.Quote {
	t.Helper()
	q := &models.Quote{
		InquiryID: "inq-1",
		Currency:  "USD",
		Breakdown: []models.QuoteLineItem{{
			Item: "Base fare", Quantity: 1,
			UnitPrice: decimal.RequireFromString(total),
			Amount:    decimal.RequireFromString(total),
		}},
		TotalAmount: decimal.RequireFromString(total),
	}
	require.NoError(t, f.quotes.Create(context.Background(), q))
	return q
}

func successOrder(orderID, txnID, captured string) *gateway.OrderStatus {
	return &gateway.OrderStatus{
		OrderID:               orderID,
		Result:                gateway.ResultSuccess,
		TotalAuthorizedAmount: decimal.RequireFromString(captured),
		TotalCapturedAmount:   decimal.RequireFromString(captured),
		TotalRefundedAmount:   decimal.Zero,
		Transactions: []gateway.Transaction{{
			ID:     txnID,
			Type:   gateway.TransactionTypeCapture,
			Amount: decimal.RequireFromString(captured),
		}},
	}
}

func TestCreateQuotePricesFromPolicy(t *testing.T) {
	f := newFixture()

	q, err := f.tp.CreateQuote(context.Background(), &CreateQuoteInput{
		InquiryID:  "inq-1",
		Title:      "LAX-NRT return",
		BaseAmount: decimal.RequireFromString("200.00"),
		Currency:   "USD",
	})
	require.NoError(t, err)

	assert.True(t, q.TotalAmount.Equal(decimal.RequireFromString("235.00")),
		"total = %s", q.TotalAmount.String())
	require.NoError(t, q.Validate())
	assert.Equal(t, enum.QuoteStatusDraft, q.Status)
}

func TestCreateCheckoutRejectsAmountMismatchBeforeGateway(t *testing.T) {
	f := newFixture()
	q := f.seedQuote(t, "230.00")

	_, err := f.tp.CreateCheckout(context.Background(), &CheckoutInput{
		QuoteID: q.ID,
		Amount:  decimal.RequireFromString("229.99"),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Zero(t, f.gateway.createCalls, "gateway must not be contacted on amount mismatch")
}

func TestCreateCheckoutRecordsAttemptAfterSession(t *testing.T) {
	f := newFixture()
	q := f.seedQuote(t, "230.00")
	f.gateway.createFn = func(_ context.Context, req *gateway.CheckoutSessionRequest) (*gateway.CheckoutSession, error) {
		return &gateway.CheckoutSession{SessionID: "sess-1", CheckoutURL: "https://pay.example/sess-1"}, nil
	}

	result, err := f.tp.CreateCheckout(context.Background(), &CheckoutInput{
		QuoteID: q.ID,
		Amount:  decimal.RequireFromString("230.00"),
		OrderID: "order-1",
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "sess-1", result.SessionID)

	p, err := f.payments.GetByGatewayOrderID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, enum.PaymentStatusPending, p.Status)
	assert.True(t, p.Amount.Equal(q.TotalAmount))
}

func TestCreateCheckoutGatewayFailureLeavesNoPayment(t *testing.T) {
	f := newFixture()
	q := f.seedQuote(t, "230.00")
	f.gateway.createFn = func(context.Context, *gateway.CheckoutSessionRequest) (*gateway.CheckoutSession, error) {
		return nil, &gateway.Error{Kind: gateway.KindUnavailable, Message: "down"}
	}

	_, err := f.tp.CreateCheckout(context.Background(), &CheckoutInput{
		QuoteID: q.ID,
		Amount:  decimal.RequireFromString("230.00"),
		OrderID: "order-1",
	})

	require.Error(t, err)
	_, err = f.payments.GetByGatewayOrderID(context.Background(), "order-1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

// Replaying a checkout with the same order id must land on the same session
// and the same payment row, never a second chargeable session.
func TestCreateCheckoutReplaySameOrderReturnsSameSession(t *testing.T) {
	f := newFixture()
	q := f.seedQuote(t, "230.00")
	f.gateway.createFn = func(_ context.Context, req *gateway.CheckoutSessionRequest) (*gateway.CheckoutSession, error) {
		return &gateway.CheckoutSession{SessionID: "sess-" + req.OrderID, CheckoutURL: "https://pay.example/" + req.OrderID}, nil
	}

	input := &CheckoutInput{
		QuoteID: q.ID,
		Amount:  decimal.RequireFromString("230.00"),
		OrderID: "order-1",
	}
	first, err := f.tp.CreateCheckout(context.Background(), input)
	require.NoError(t, err)
	second, err := f.tp.CreateCheckout(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, first.PaymentID, second.PaymentID)
	assert.Len(t, f.payments.byID, 1, "replay must not create a second payment row")
}

// A retry that omits the order id rides the pending attempt's order id
// instead of opening a fresh one.
func TestCreateCheckoutRetryReusesPendingOrderID(t *testing.T) {
	f := newFixture()
	q := f.seedQuote(t, "230.00")
	var orderIDs []string
	f.gateway.createFn = func(_ context.Context, req *gateway.CheckoutSessionRequest) (*gateway.CheckoutSession, error) {
		orderIDs = append(orderIDs, req.OrderID)
		return &gateway.CheckoutSession{SessionID: "sess-" + req.OrderID}, nil
	}

	first, err := f.tp.CreateCheckout(context.Background(), &CheckoutInput{
		QuoteID: q.ID,
		Amount:  decimal.RequireFromString("230.00"),
		OrderID: "order-A",
	})
	require.NoError(t, err)

	second, err := f.tp.CreateCheckout(context.Background(), &CheckoutInput{
		QuoteID: q.ID,
		Amount:  decimal.RequireFromString("230.00"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"order-A", "order-A"}, orderIDs)
	assert.Equal(t, first.PaymentID, second.PaymentID)
	assert.Len(t, f.payments.byID, 1)
}

// A quote carries at most one active payment. A second checkout under a
// different order id is rejected while the first attempt is still pending.
func TestCreateCheckoutRejectsSecondOrderWhilePending(t *testing.T) {
	f := newFixture()
	q := f.seedQuote(t, "230.00")
	f.gateway.createFn = func(_ context.Context, req *gateway.CheckoutSessionRequest) (*gateway.CheckoutSession, error) {
		return &gateway.CheckoutSession{SessionID: "sess-" + req.OrderID}, nil
	}

	_, err := f.tp.CreateCheckout(context.Background(), &CheckoutInput{
		QuoteID: q.ID,
		Amount:  decimal.RequireFromString("230.00"),
		OrderID: "order-A",
	})
	require.NoError(t, err)

	_, err = f.tp.CreateCheckout(context.Background(), &CheckoutInput{
		QuoteID: q.ID,
		Amount:  decimal.RequireFromString("230.00"),
		OrderID: "order-B",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInconsistentState)
	assert.Equal(t, 1, f.gateway.createCalls, "no second session may be opened")
	assert.Len(t, f.payments.byID, 1)
}

func TestHandleReturnCompletesPaymentAndConfirmsBooking(t *testing.T) {
	f := newFixture()
	q := f.seedQuote(t, "230.00")
	p, err := f.payments.RecordAttempt(context.Background(), q.ID, q.TotalAmount, "USD", "order-1")
	require.NoError(t, err)

	f.gateway.retrieveFn = func(_ context.Context, orderID string) (*gateway.OrderStatus, error) {
		return successOrder(orderID, "txn-1", "230.00"), nil
	}

	updated, err := f.tp.HandleReturn(context.Background(), "order-1")
	require.NoError(t, err)

	assert.Equal(t, enum.PaymentStatusCompleted, updated.Status)
	assert.Equal(t, "txn-1", updated.ArcTransactionID)
	assert.Equal(t, enum.QuotePaymentStatusPaid, q.PaymentStatus)

	booked, err := f.bookings.GetByPaymentID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.BookingStatusConfirmed, booked.Status)
	assert.Contains(t, f.notifier.types(), notify.EventPaymentCompleted)
}

func TestHandleReturnFailureMarksFailed(t *testing.T) {
	f := newFixture()
	q := f.seedQuote(t, "230.00")
	_, err := f.payments.RecordAttempt(context.Background(), q.ID, q.TotalAmount, "USD", "order-1")
	require.NoError(t, err)

	f.gateway.retrieveFn = func(_ context.Context, orderID string) (*gateway.OrderStatus, error) {
		return &gateway.OrderStatus{OrderID: orderID, Result: gateway.ResultFailure}, nil
	}

	updated, err := f.tp.HandleReturn(context.Background(), "order-1")
	require.NoError(t, err)

	assert.Equal(t, enum.PaymentStatusFailed, updated.Status)
	assert.Equal(t, enum.QuotePaymentStatusFailed, q.PaymentStatus)
	assert.Contains(t, f.notifier.types(), notify.EventPaymentFailed)
}

// A replayed notification after the payment settled must not re-run the
// completion side effects.
func TestDuplicateReconciliationIsIdempotent(t *testing.T) {
	f := newFixture()
	q := f.seedQuote(t, "230.00")
	_, err := f.payments.RecordAttempt(context.Background(), q.ID, q.TotalAmount, "USD", "order-1")
	require.NoError(t, err)

	f.gateway.retrieveFn = func(_ context.Context, orderID string) (*gateway.OrderStatus, error) {
		return successOrder(orderID, "txn-1", "230.00"), nil
	}

	_, err = f.tp.HandleReturn(context.Background(), "order-1")
	require.NoError(t, err)
	_, err = f.tp.HandleReturn(context.Background(), "order-1")
	require.NoError(t, err)

	assert.Len(t, f.bookings.byID, 1)
	completions := 0
	for _, typ := range f.notifier.types() {
		if typ == notify.EventPaymentCompleted {
			completions++
		}
	}
	assert.Equal(t, 1, completions, "completion side effects must run once")
}

// Gateway truth overwrites a locally stale status during a manual check.
func TestCheckPaymentStatusRepairsDrift(t *testing.T) {
	f := newFixture()
	q := f.seedQuote(t, "230.00")
	p, err := f.payments.RecordAttempt(context.Background(), q.ID, q.TotalAmount, "USD", "order-1")
	require.NoError(t, err)

	f.gateway.retrieveFn = func(_ context.Context, orderID string) (*gateway.OrderStatus, error) {
		return &gateway.OrderStatus{OrderID: orderID, Result: gateway.ResultFailure}, nil
	}

	updated, orderStatus, err := f.tp.CheckPaymentStatus(context.Background(), p.ID)
	require.NoError(t, err)

	assert.Equal(t, gateway.ResultFailure, orderStatus.Result)
	assert.Equal(t, enum.PaymentStatusFailed, updated.Status)
}

func TestRefundPaymentRejectsExcessAmount(t *testing.T) {
	f := newFixture()
	q := f.seedQuote(t, "230.00")
	p, err := f.payments.RecordAttempt(context.Background(), q.ID, q.TotalAmount, "USD", "order-1")
	require.NoError(t, err)
	require.NoError(t, f.payments.MarkCompleted(context.Background(), p.ID, "txn-1", time.Now()))

	f.gateway.retrieveFn = func(_ context.Context, orderID string) (*gateway.OrderStatus, error) {
		return successOrder(orderID, "txn-1", "230.00"), nil
	}

	excess := decimal.RequireFromString("500.00")
	_, err = f.tp.RefundPayment(context.Background(), p.ID, &excess, "test")

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Zero(t, f.gateway.refundCalls)
}

func TestCancelBookingVoidPath(t *testing.T) {
	f := newFixture()
	q := f.seedQuote(t, "230.00")
	p, err := f.payments.RecordAttempt(context.Background(), q.ID, q.TotalAmount, "USD", "order-1")
	require.NoError(t, err)
	require.NoError(t, f.payments.MarkCompleted(context.Background(), p.ID, "txn-1", time.Now()))
	booked, err := f.bookings.Confirm(context.Background(), p.ID, nil)
	require.NoError(t, err)

	f.gateway.retrieveFn = func(_ context.Context, orderID string) (*gateway.OrderStatus, error) {
		return successOrder(orderID, "txn-1", "230.00"), nil
	}
	f.gateway.voidFn = func(context.Context, string, string) (*gateway.VoidResult, error) {
		return &gateway.VoidResult{Status: "VOIDED"}, nil
	}

	result, err := f.tp.CancelBooking(context.Background(), booked.ID, "customer cancelled")
	require.NoError(t, err)

	assert.Equal(t, PaymentActionVoid, result.PaymentAction)
	assert.True(t, result.RefundAmount.Equal(decimal.RequireFromString("230.00")))
	assert.False(t, result.RefundPending)
	assert.Equal(t, enum.PaymentStatusVoided, p.Status)
	assert.Equal(t, enum.QuotePaymentStatusVoided, q.PaymentStatus)
	assert.Equal(t, enum.BookingStatusCancelled, booked.Status)
	assert.Zero(t, f.gateway.refundCalls, "no refund issued when void succeeds")
}

func TestCancelBookingSettledRefundPath(t *testing.T) {
	f := newFixture()
	q := f.seedQuote(t, "230.00")
	p, err := f.payments.RecordAttempt(context.Background(), q.ID, q.TotalAmount, "USD", "order-1")
	require.NoError(t, err)
	require.NoError(t, f.payments.MarkCompleted(context.Background(), p.ID, "txn-1", time.Now()))
	booked, err := f.bookings.Confirm(context.Background(), p.ID, nil)
	require.NoError(t, err)

	f.gateway.retrieveFn = func(_ context.Context, orderID string) (*gateway.OrderStatus, error) {
		return successOrder(orderID, "txn-1", "230.00"), nil
	}
	f.gateway.voidFn = func(context.Context, string, string) (*gateway.VoidResult, error) {
		return nil, &gateway.Error{Kind: gateway.KindRejected, Code: "ALREADY_SETTLED", Message: "transaction has settled"}
	}
	f.gateway.refundFn = func(_ context.Context, _ string, amount decimal.Decimal, _ string) (*gateway.RefundResult, error) {
		assert.True(t, amount.Equal(decimal.RequireFromString("230.00")))
		return &gateway.RefundResult{RefundID: "ref-1", Status: "REFUNDED"}, nil
	}

	result, err := f.tp.CancelBooking(context.Background(), booked.ID, "customer cancelled")
	require.NoError(t, err)

	assert.Equal(t, PaymentActionRefund, result.PaymentAction)
	assert.Equal(t, enum.PaymentStatusRefunded, p.Status)
	assert.Equal(t, enum.QuotePaymentStatusRefunded, q.PaymentStatus)
	assert.Equal(t, enum.BookingStatusCancelled, booked.Status)
}

// Cancellation must never block on the refund: when both reversal legs fail
// the booking is still cancelled and the payment parked for manual follow-up.
func TestCancelBookingBothLegsFailParksRefundPending(t *testing.T) {
	f := newFixture()
	q := f.seedQuote(t, "230.00")
	p, err := f.payments.RecordAttempt(context.Background(), q.ID, q.TotalAmount, "USD", "order-1")
	require.NoError(t, err)
	require.NoError(t, f.payments.MarkCompleted(context.Background(), p.ID, "txn-1", time.Now()))
	supplierOrder := "AMA-1"
	booked, err := f.bookings.Confirm(context.Background(), p.ID, &supplierOrder)
	require.NoError(t, err)

	f.gateway.retrieveFn = func(_ context.Context, orderID string) (*gateway.OrderStatus, error) {
		return successOrder(orderID, "txn-1", "230.00"), nil
	}
	f.gateway.voidFn = func(context.Context, string, string) (*gateway.VoidResult, error) {
		return nil, &gateway.Error{Kind: gateway.KindRejected, Code: "ALREADY_SETTLED", Message: "settled"}
	}
	f.gateway.refundFn = func(context.Context, string, decimal.Decimal, string) (*gateway.RefundResult, error) {
		return nil, &gateway.Error{Kind: gateway.KindUnavailable, Message: "gateway down"}
	}

	result, err := f.tp.CancelBooking(context.Background(), booked.ID, "customer cancelled")
	require.NoError(t, err, "cancellation itself must succeed")

	assert.True(t, result.RefundPending)
	assert.Empty(t, result.PaymentAction)
	assert.Equal(t, enum.PaymentStatusRefundPending, p.Status)
	assert.Equal(t, enum.QuotePaymentStatusRefundPending, q.PaymentStatus)
	assert.Equal(t, enum.BookingStatusCancelled, booked.Status)
	assert.Contains(t, f.notifier.types(), notify.EventRefundPending)
	assert.Equal(t, []string{"AMA-1"}, f.supplier.calls, "supplier still asked to cancel")
	assert.True(t, result.SupplierCancelled)
}

func TestCancelBookingSupplierFailureOnlyReported(t *testing.T) {
	f := newFixture()
	q := f.seedQuote(t, "230.00")
	p, err := f.payments.RecordAttempt(context.Background(), q.ID, q.TotalAmount, "USD", "order-1")
	require.NoError(t, err)
	require.NoError(t, f.payments.MarkCompleted(context.Background(), p.ID, "txn-1", time.Now()))
	supplierOrder := "AMA-2"
	booked, err := f.bookings.Confirm(context.Background(), p.ID, &supplierOrder)
	require.NoError(t, err)

	f.gateway.retrieveFn = func(_ context.Context, orderID string) (*gateway.OrderStatus, error) {
		return successOrder(orderID, "txn-1", "230.00"), nil
	}
	f.gateway.voidFn = func(context.Context, string, string) (*gateway.VoidResult, error) {
		return &gateway.VoidResult{Status: "VOIDED"}, nil
	}
	f.supplier.err = fmt.Errorf("supplier timeout")

	result, err := f.tp.CancelBooking(context.Background(), booked.ID, "customer cancelled")
	require.NoError(t, err)

	assert.False(t, result.SupplierCancelled)
	assert.Equal(t, enum.BookingStatusCancelled, booked.Status)
}

func TestHandleOrderEventReconcilesByOrderID(t *testing.T) {
	f := newFixture()
	q := f.seedQuote(t, "230.00")
	p, err := f.payments.RecordAttempt(context.Background(), q.ID, q.TotalAmount, "USD", "order-1")
	require.NoError(t, err)

	f.gateway.retrieveFn = func(_ context.Context, orderID string) (*gateway.OrderStatus, error) {
		return successOrder(orderID, "txn-1", "230.00"), nil
	}

	err = f.tp.handleOrderEvent(context.Background(), &GatewayEvent{
		ID:      "evt-1",
		Type:    EventTypeOrderCompleted,
		OrderID: "order-1",
	})
	require.NoError(t, err)
	assert.Equal(t, enum.PaymentStatusCompleted, p.Status)
}

func TestHandleOrderEventUnknownOrderIsAbsorbed(t *testing.T) {
	f := newFixture()

	err := f.tp.handleOrderEvent(context.Background(), &GatewayEvent{
		ID:      "evt-2",
		Type:    EventTypeOrderCompleted,
		OrderID: "no-such-order",
	})
	assert.NoError(t, err)
	assert.Zero(t, f.gateway.retrieveCalls)
}
