package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/skyvoyage/travelpay/models"
	"github.com/skyvoyage/travelpay/models/enum"
	"github.com/skyvoyage/travelpay/pricing"
)

type PricingHandler interface {
	GetPolicy(c echo.Context) error
	UpdatePolicy(c echo.Context) error
}

type pricingHandler struct {
	Pricing pricing.Service
}

func NewPricingHandler(Pricing pricing.Service) PricingHandler {
	return &pricingHandler{
		Pricing: Pricing,
	}
}

// GetPolicy handles GET /pricing/:serviceType
func (ph *pricingHandler) GetPolicy(c echo.Context) error {
	serviceType := enum.ServiceType(c.Param("serviceType"))
	if !serviceType.Valid() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown service type"})
	}

	policy, err := ph.Pricing.GetPolicy(c.Request().Context(), serviceType)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, policy)
}

// UpdatePolicy handles PUT /pricing/:serviceType. Existing quotes keep the
// numbers they were priced with; only future quotes see the new policy.
func (ph *pricingHandler) UpdatePolicy(c echo.Context) error {
	serviceType := enum.ServiceType(c.Param("serviceType"))
	if !serviceType.Valid() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown service type"})
	}

	var policy models.PricingPolicy
	if err := c.Bind(&policy); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}
	policy.ServiceType = serviceType

	if err := ph.Pricing.UpdatePolicy(c.Request().Context(), &policy); err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, policy)
}
