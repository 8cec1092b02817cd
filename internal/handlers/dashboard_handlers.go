package handlers

import (
	"net/http"

	"luthier/internal/analytics"
	"luthier/internal/common"

	"github.com/labstack/echo/v4"
)

type DashboardHandlers struct {
	analyticsService *analytics.Service
}

func NewDashboardHandlers(analyticsService *analytics.Service) *DashboardHandlers {
	return &DashboardHandlers{analyticsService: analyticsService}
}

// GetDashboard returns the tenant's cached overview numbers.
func (h *DashboardHandlers) GetDashboard(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	dashboard, err := h.analyticsService.TenantDashboard(ctx, tenantID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to compute dashboard")
	}

	return c.JSON(http.StatusOK, dashboard)
}
