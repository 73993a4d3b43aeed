package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/findingu/multinivel_backend/controllers"
	"github.com/findingu/multinivel_backend/middleware"
	"github.com/findingu/multinivel_backend/services"
	"github.com/findingu/multinivel_backend/websocket"
)

// SetupRoutes configures all API routes by calling individual route registration functions.
func SetupRoutes(e *echo.Echo, db *mongo.Client, hub *websocket.Hub,
	rewards *services.RewardsService, network *services.NetworkService, tracker *services.ActivationTracker) {

	authController := controllers.NewAuthController(db)
	orderController := controllers.NewOrderController(db, rewards, hub)
	commissionController := controllers.NewCommissionController(db, rewards, tracker)
	networkController := controllers.NewNetworkController(db, network, rewards)
	adminController := controllers.NewAdminController(db)

	// Authenticated group shared by the route files
	protected := e.Group("/api")
	protected.Use(middleware.JWTMiddleware())

	RegisterAuthRoutes(e, protected, db, hub, authController)
	RegisterOrderRoutes(e, protected, orderController)
	RegisterCommissionRoutes(e, protected, commissionController)
	RegisterNetworkRoutes(e, protected, networkController)
	RegisterAdminRoutes(e, adminController, commissionController)
}
