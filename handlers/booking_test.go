package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyvoyage/travelpay"
	"github.com/skyvoyage/travelpay/models"
)

type stubFacade struct {
	travelpay.TravelPayments

	cancelFn func(ctx context.Context, bookingID, reason string) (*travelpay.CancellationResult, error)
}

func (s *stubFacade) CancelBooking(ctx context.Context, bookingID, reason string) (*travelpay.CancellationResult, error) {
	return s.cancelFn(ctx, bookingID, reason)
}

type stubBookings struct {
	record *models.BookingRecord
	err    error
}

func (s *stubBookings) Confirm(context.Context, string, *string) (*models.BookingRecord, error) {
	return s.record, s.err
}
func (s *stubBookings) GetByID(context.Context, string) (*models.BookingRecord, error) {
	return s.record, s.err
}
func (s *stubBookings) GetByPaymentID(context.Context, string) (*models.BookingRecord, error) {
	return s.record, s.err
}
func (s *stubBookings) SetSupplierOrder(context.Context, string, string) error { return s.err }
func (s *stubBookings) Cancel(context.Context, string) error                   { return s.err }

func TestCancelBookingEndpoint(t *testing.T) {
	facade := &stubFacade{
		cancelFn: func(_ context.Context, bookingID, reason string) (*travelpay.CancellationResult, error) {
			assert.Equal(t, "bkg-1", bookingID)
			assert.Equal(t, "plans changed", reason)
			return &travelpay.CancellationResult{
				RefundAmount:  decimal.RequireFromString("230.00"),
				PaymentAction: travelpay.PaymentActionRefund,
			}, nil
		},
	}
	handler := NewBookingHandler(facade, &stubBookings{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/bookings/bkg-1/cancel",
		strings.NewReader(`{"reason":"plans changed"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/bookings/:id/cancel")
	c.SetParamNames("id")
	c.SetParamValues("bkg-1")

	require.NoError(t, handler.CancelBooking(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Cancellation struct {
			RefundAmount  string `json:"refund_amount"`
			PaymentAction string `json:"payment_action"`
			RefundPending bool   `json:"refund_pending"`
		} `json:"cancellation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "230", body.Cancellation.RefundAmount)
	assert.Equal(t, "REFUND", body.Cancellation.PaymentAction)
	assert.False(t, body.Cancellation.RefundPending)
}

func TestCancelBookingEndpointNotFound(t *testing.T) {
	facade := &stubFacade{
		cancelFn: func(context.Context, string, string) (*travelpay.CancellationResult, error) {
			return nil, models.ErrNotFound
		},
	}
	handler := NewBookingHandler(facade, &stubBookings{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/bookings/missing/cancel",
		strings.NewReader(`{"reason":"x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("missing")

	require.NoError(t, handler.CancelBooking(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
