package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/skyvoyage/travelpay"
	"github.com/skyvoyage/travelpay/booking"
)

type BookingHandler interface {
	GetBooking(c echo.Context) error
	CancelBooking(c echo.Context) error
	AttachSupplierOrder(c echo.Context) error
}

type bookingHandler struct {
	TravelPay travelpay.TravelPayments
	Booking   booking.Service
}

func NewBookingHandler(TravelPay travelpay.TravelPayments, Booking booking.Service) BookingHandler {
	return &bookingHandler{
		TravelPay: TravelPay,
		Booking:   Booking,
	}
}

// GetBooking handles GET /bookings/:id
func (bh *bookingHandler) GetBooking(c echo.Context) error {
	record, err := bh.Booking.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, record)
}

// CancelBooking handles POST /bookings/:id/cancel
func (bh *bookingHandler) CancelBooking(c echo.Context) error {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	result, err := bh.TravelPay.CancelBooking(c.Request().Context(), c.Param("id"), req.Reason)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{"cancellation": result})
}

// AttachSupplierOrder handles PUT /bookings/:id/supplier-order
func (bh *bookingHandler) AttachSupplierOrder(c echo.Context) error {
	var req struct {
		SupplierOrderID string `json:"supplierOrderId"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	if err := bh.TravelPay.AttachSupplierOrder(c.Request().Context(), c.Param("id"), req.SupplierOrderID); err != nil {
		return errorJSON(c, err)
	}

	return c.NoContent(http.StatusOK)
}
