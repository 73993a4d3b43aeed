package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/findingu/multinivel_backend/controllers"
	"github.com/findingu/multinivel_backend/middleware"
)

// RegisterCommissionRoutes sets up commission, payout and rewards config routes.
func RegisterCommissionRoutes(e *echo.Echo, protected *echo.Group, commissionController *controllers.CommissionController) {
	protected.GET("/associates/:id/commissions", commissionController.GetAssociateCommissions)
	protected.GET("/associates/:id/month/:monthKey", commissionController.GetAssociateMonth)
	protected.POST("/commissions/payout-request", commissionController.RequestPayout)
	protected.GET("/associates/:id/payout-requests", commissionController.ListPayoutRequests)

	// Storefront reads the tier table without authentication
	e.GET("/api/config/rewards", commissionController.GetRewardsConfig)
	protected.PUT("/config/rewards", commissionController.PutRewardsConfig, middleware.AdminOnly())
}
