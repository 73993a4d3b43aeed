package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/findingu/multinivel_backend/controllers"
)

// RegisterNetworkRoutes sets up network tree and dashboard routes.
func RegisterNetworkRoutes(e *echo.Echo, protected *echo.Group, networkController *controllers.NetworkController) {
	// Dashboard degrades to a guest shell without a token
	e.GET("/api/user-dashboard", networkController.GetUserDashboard)

	protected.GET("/network/:id", networkController.GetNetwork)
}
