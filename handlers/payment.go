package handlers

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/skyvoyage/travelpay"
)

type PaymentHandler interface {
	PostPayments(c echo.Context) error
	GetPayments(c echo.Context) error
	HandleReturn(c echo.Context) error
	HandleWebhook(c echo.Context) error
}

type paymentHandler struct {
	TravelPay travelpay.TravelPayments
}

func NewPaymentHandler(TravelPay travelpay.TravelPayments) PaymentHandler {
	return &paymentHandler{
		TravelPay: TravelPay,
	}
}

// PostPayments handles POST /payments. Without an action query parameter it
// opens a checkout session; action=payment-refund and action=payment-void
// select the reversal operations.
func (ph *paymentHandler) PostPayments(c echo.Context) error {
	switch c.QueryParam("action") {
	case "":
		return ph.createCheckout(c)
	case "payment-refund":
		return ph.refund(c)
	case "payment-void":
		return ph.void(c)
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown action"})
	}
}

func (ph *paymentHandler) createCheckout(c echo.Context) error {
	var req travelpay.CheckoutInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	result, err := ph.TravelPay.CreateCheckout(c.Request().Context(), &req)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusCreated, result)
}

func (ph *paymentHandler) refund(c echo.Context) error {
	var req struct {
		PaymentID string           `json:"paymentId"`
		Amount    *decimal.Decimal `json:"amount,omitempty"`
		Reason    string           `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	payment, err := ph.TravelPay.RefundPayment(c.Request().Context(), req.PaymentID, req.Amount, req.Reason)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, payment)
}

func (ph *paymentHandler) void(c echo.Context) error {
	var req struct {
		PaymentID string `json:"paymentId"`
		Reason    string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	payment, err := ph.TravelPay.VoidPayment(c.Request().Context(), req.PaymentID, req.Reason)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, payment)
}

// GetPayments handles GET /payments?action=payment-retrieve&paymentId=...,
// reconciling the payment against the gateway before answering.
func (ph *paymentHandler) GetPayments(c echo.Context) error {
	if c.QueryParam("action") != "payment-retrieve" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown action"})
	}

	paymentID := c.QueryParam("paymentId")
	if paymentID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "paymentId is required"})
	}

	payment, orderStatus, err := ph.TravelPay.CheckPaymentStatus(c.Request().Context(), paymentID)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"payment":     payment,
		"orderStatus": orderStatus,
	})
}

// HandleReturn handles GET /payments/return?orderId=..., the redirect back
// from the hosted checkout page.
func (ph *paymentHandler) HandleReturn(c echo.Context) error {
	orderID := c.QueryParam("orderId")
	if orderID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "orderId is required"})
	}

	payment, err := ph.TravelPay.HandleReturn(c.Request().Context(), orderID)
	if err != nil && payment == nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, payment)
}

// HandleWebhook handles POST /webhook, the gateway's push notifications.
func (ph *paymentHandler) HandleWebhook(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Failed to read request body"})
	}

	if err = ph.TravelPay.HandleGatewayWebhook(c.Request().Context(), payload); err != nil {
		return errorJSON(c, err)
	}

	return c.NoContent(http.StatusOK)
}
