package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/findingu/multinivel_backend/config"
	"github.com/findingu/multinivel_backend/middleware"
	"github.com/findingu/multinivel_backend/repositories"
	"github.com/findingu/multinivel_backend/routes"
	"github.com/findingu/multinivel_backend/services"
	"github.com/findingu/multinivel_backend/websocket"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	// Connect to Redis (rewards config cache)
	config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()

	// Create WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Initialize repositories
	customerRepo := repositories.NewCustomerRepository(client)
	orderRepo := repositories.NewOrderRepository(client)
	monthRepo := repositories.NewAssociateMonthRepository(client)
	ledgerRepo := repositories.NewCommissionMonthRepository(client)
	configRepo := repositories.NewRewardsConfigRepository(client, config.GetRedisClient())

	// Initialize the rewards engine
	tracker := services.NewActivationTracker(monthRepo)
	resolver := services.NewUplineResolver(customerRepo)
	gate := services.NewBlockGate(resolver)
	ledger := services.NewCommissionLedger(ledgerRepo, gate)
	rewards := services.NewRewardsService(customerRepo, orderRepo, tracker, resolver, gate, ledger, configRepo, wsHub)
	network := services.NewNetworkService(customerRepo, tracker, configRepo)

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	customValidator := &CustomValidator{validator: validator.New()}
	e.Validator = customValidator

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeadersWithConfig(middleware.SecurityConfig{
		AllowedDomains: []string{"*"}, // Configure this based on your needs
		AllowInlineJS:  true,          // Set to false in production
		AllowEval:      false,
	}))

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "Multinivel Backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	e.Use(httpsRedirect())

	// Setup routes
	routes.SetupRoutes(e, client, wsHub, rewards, network, tracker)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}

func httpsRedirect() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("X-Forwarded-Proto") == "http" {
				return c.Redirect(301, "https://"+c.Request().Host+c.Request().RequestURI)
			}
			return next(c)
		}
	}
}
