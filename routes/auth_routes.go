package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/findingu/multinivel_backend/controllers"
	"github.com/findingu/multinivel_backend/websocket"
)

// RegisterAuthRoutes sets up authentication and other public routes.
func RegisterAuthRoutes(e *echo.Echo, protected *echo.Group, db *mongo.Client, hub *websocket.Hub, authController *controllers.AuthController) {
	referralController := controllers.NewReferralController(db)

	// Public authentication routes
	e.POST("/api/auth/signup", authController.Signup)
	e.POST("/api/auth/login", authController.Login)

	// Public referral QR routes (scanned before the visitor has an account)
	e.GET("/api/qrcode/referral/:code", referralController.GetReferralQR)
	e.GET("/api/qrcode/referral/:code/base64", referralController.GetReferralQRBase64)

	// WebSocket endpoint; clients authenticate after connecting
	e.GET("/api/ws", func(c echo.Context) error {
		return websocket.HandleWebSocket(c, hub, primitive.NilObjectID)
	})

	// Authenticated profile and referral link routes
	protected.GET("/auth/profile", authController.GetProfile)
	protected.GET("/referral/:id/link", referralController.GetReferralLink)
}
