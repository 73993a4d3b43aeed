package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/findingu/multinivel_backend/controllers"
)

// RegisterOrderRoutes sets up order creation and lifecycle routes.
func RegisterOrderRoutes(e *echo.Echo, protected *echo.Group, orderController *controllers.OrderController) {
	// Guests place orders without an account, so creation stays public.
	e.POST("/api/orders", orderController.CreateOrder)
	e.GET("/api/orders/:id", orderController.GetOrder)

	protected.GET("/orders", orderController.ListOrders)
	protected.PATCH("/orders/:id/status", orderController.UpdateOrderStatus)
	protected.POST("/orders/:id/cancel", orderController.CancelOrder)
	protected.POST("/orders/:id/refund", orderController.RefundOrder)
}
