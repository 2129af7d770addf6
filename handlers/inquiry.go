package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/skyvoyage/travelpay/inquiry"
	"github.com/skyvoyage/travelpay/models"
	"github.com/skyvoyage/travelpay/models/enum"
)

type InquiryHandler interface {
	CreateInquiry(c echo.Context) error
	GetInquiry(c echo.Context) error
	ListInquiries(c echo.Context) error
	UpdateInquiryStatus(c echo.Context) error
}

type inquiryHandler struct {
	Inquiry inquiry.Service
}

func NewInquiryHandler(Inquiry inquiry.Service) InquiryHandler {
	return &inquiryHandler{
		Inquiry: Inquiry,
	}
}

// CreateInquiry handles POST /inquiries
func (ih *inquiryHandler) CreateInquiry(c echo.Context) error {
	var inquiryModel models.Inquiry
	if err := c.Bind(&inquiryModel); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	if err := ih.Inquiry.Create(c.Request().Context(), &inquiryModel); err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusCreated, inquiryModel)
}

// GetInquiry handles GET /inquiries/:id. The response carries the effective
// status projected from payment facts, not the stored field alone.
func (ih *inquiryHandler) GetInquiry(c echo.Context) error {
	view, err := ih.Inquiry.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, view)
}

// ListInquiries handles GET /inquiries
func (ih *inquiryHandler) ListInquiries(c echo.Context) error {
	limit, _ := strconv.ParseUint(c.QueryParam("limit"), 10, 64)
	offset, _ := strconv.ParseUint(c.QueryParam("offset"), 10, 64)
	if limit == 0 {
		limit = 20
	}

	views, err := ih.Inquiry.List(c.Request().Context(), limit, offset)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, views)
}

// UpdateInquiryStatus handles PUT /inquiries/:id/status
func (ih *inquiryHandler) UpdateInquiryStatus(c echo.Context) error {
	var req struct {
		Status enum.InquiryStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	if err := ih.Inquiry.UpdateStatus(c.Request().Context(), c.Param("id"), req.Status); err != nil {
		return errorJSON(c, err)
	}

	return c.NoContent(http.StatusOK)
}
