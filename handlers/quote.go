package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/skyvoyage/travelpay"
	"github.com/skyvoyage/travelpay/quote"
)

type QuoteHandler interface {
	CreateQuote(c echo.Context) error
	GetQuote(c echo.Context) error
	SendQuote(c echo.Context) error
	CancelQuote(c echo.Context) error
}

type quoteHandler struct {
	TravelPay travelpay.TravelPayments
	Quote     quote.Service
}

func NewQuoteHandler(TravelPay travelpay.TravelPayments, Quote quote.Service) QuoteHandler {
	return &quoteHandler{
		TravelPay: TravelPay,
		Quote:     Quote,
	}
}

// CreateQuote handles POST /quotes. Pricing happens server-side from the
// inquiry's service type and the current policy; the caller supplies only
// the base amount.
func (qh *quoteHandler) CreateQuote(c echo.Context) error {
	var req travelpay.CreateQuoteInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	quoteModel, err := qh.TravelPay.CreateQuote(c.Request().Context(), &req)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusCreated, quoteModel)
}

// GetQuote handles GET /quotes/:id
func (qh *quoteHandler) GetQuote(c echo.Context) error {
	quoteModel, err := qh.Quote.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, quoteModel)
}

// SendQuote handles POST /quotes/:id/send
func (qh *quoteHandler) SendQuote(c echo.Context) error {
	if err := qh.TravelPay.SendQuote(c.Request().Context(), c.Param("id")); err != nil {
		return errorJSON(c, err)
	}

	return c.NoContent(http.StatusOK)
}

// CancelQuote handles POST /quotes/:id/cancel
func (qh *quoteHandler) CancelQuote(c echo.Context) error {
	if err := qh.Quote.Cancel(c.Request().Context(), c.Param("id")); err != nil {
		return errorJSON(c, err)
	}

	return c.NoContent(http.StatusOK)
}
