package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/findingu/multinivel_backend/controllers"
	"github.com/findingu/multinivel_backend/middleware"
)

// RegisterAdminRoutes sets up admin-only routes.
func RegisterAdminRoutes(e *echo.Echo, adminController *controllers.AdminController, commissionController *controllers.CommissionController) {
	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.AdminOnly())

	admin.GET("/dashboard", adminController.GetDashboard)
	admin.GET("/associates/:id/payout-requests", commissionController.ListPayoutRequests)
}
