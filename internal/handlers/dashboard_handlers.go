package handlers

import (
	"log"
	"net/http"

	"freshkeeper/internal/common"
	"freshkeeper/internal/services"

	"github.com/labstack/echo/v4"
)

// DashboardHandlers serves the aggregated inventory summary.
type DashboardHandlers struct {
	dashboardService services.DashboardService
}

func NewDashboardHandlers(dashboardService services.DashboardService) *DashboardHandlers {
	return &DashboardHandlers{dashboardService: dashboardService}
}

// Summary returns item counts per location and the expiring-soon list.
// GET /api/dashboard
func (h *DashboardHandlers) Summary(c echo.Context) error {
	userID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	summary, err := h.dashboardService.Summary(c.Request().Context(), userID)
	if err != nil {
		log.Printf("dashboard summary failed for user %s: %v", userID, err)
		return common.SendServerError(c, "Failed to build dashboard")
	}

	return c.JSON(http.StatusOK, summary)
}
