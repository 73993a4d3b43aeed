package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/findingu/multinivel_backend/middleware"
	"github.com/findingu/multinivel_backend/models"
	"github.com/findingu/multinivel_backend/repositories"
	"github.com/findingu/multinivel_backend/services"
	"github.com/findingu/multinivel_backend/utils"
)

// NetworkController serves the referral subtree view and the user dashboard.
type NetworkController struct {
	DB        *mongo.Client
	network   *services.NetworkService
	rewards   *services.RewardsService
	customers *repositories.CustomerRepository
	logger    *log.Logger
}

func NewNetworkController(db *mongo.Client, network *services.NetworkService, rewards *services.RewardsService) *NetworkController {
	return &NetworkController{
		DB:        db,
		network:   network,
		rewards:   rewards,
		customers: repositories.NewCustomerRepository(db),
		logger:    log.New(os.Stdout, "[NETWORK] ", log.LstdFlags),
	}
}

// GetNetwork returns the subtree below a customer, trimmed to the requested
// depth (default 3).
func (nc *NetworkController) GetNetwork(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	rootID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid customer ID format",
		})
	}

	depth := 3
	if d := c.QueryParam("depth"); d != "" {
		if parsed, err := strconv.Atoi(d); err == nil && parsed > 0 {
			depth = parsed
		}
	}
	monthKey := c.QueryParam("month")
	if monthKey == "" {
		monthKey = utils.CurrentMonthKey()
	}

	tree, err := nc.network.BuildTree(ctx, rootID, monthKey, depth)
	if err != nil {
		nc.logger.Printf("Failed to build network for %s: %v", rootID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to build network",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Network retrieved successfully",
		Data:    map[string]interface{}{"network": tree},
	})
}

// GetUserDashboard assembles the member home screen: goals, network member
// table, and the commission summary with payout metadata. Guests get an
// empty shell.
func (nc *NetworkController) GetUserDashboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	userID := userIDFromRequest(c)
	isGuest := userID == ""

	payload := map[string]interface{}{
		"isGuest":        isGuest,
		"goals":          []models.Goal{},
		"networkMembers": []models.NetworkMember{},
		"commissions":    nil,
	}
	if isGuest {
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Dashboard retrieved successfully",
			Data:    payload,
		})
	}

	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID format",
		})
	}
	customer, err := nc.customers.GetByID(ctx, objID)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Customer not found",
		})
	}

	monthKey := utils.CurrentMonthKey()

	tree, err := nc.network.BuildTree(ctx, objID, monthKey, -1)
	if err != nil {
		nc.logger.Printf("Failed to build dashboard tree for %s: %v", userID, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to build dashboard",
		})
	}
	goals, err := nc.network.BuildGoals(ctx, customer, tree, monthKey)
	if err != nil {
		nc.logger.Printf("Failed to build goals for %s: %v", userID, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to build dashboard",
		})
	}

	cfg, err := nc.rewards.GetOrCreateConfig(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load rewards config",
		})
	}
	view, err := nc.rewards.GetBeneficiaryLedger(ctx, objID, monthKey, "")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to read commissions",
		})
	}

	clabeLast4 := ""
	if len(customer.Clabe) >= 4 {
		clabeLast4 = customer.Clabe[len(customer.Clabe)-4:]
	}

	payload["userCode"] = customer.ReferralCode
	payload["goals"] = goals
	payload["networkMembers"] = nc.network.Members(tree, 30)
	payload["commissions"] = map[string]interface{}{
		"monthKey":       monthKey,
		"totalPending":   view.TotalPending,
		"totalConfirmed": view.TotalConfirmed,
		"totalBlocked":   view.TotalBlocked,
		"ledger":         view.Rows,
		"hasPending":     view.TotalPending > 0,
		"hasConfirmed":   view.TotalConfirmed > 0,
		"clabeOnFile":    customer.Clabe != "",
		"clabeLast4":     clabeLast4,
		"payoutDay":      cfg.PayoutDay,
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Dashboard retrieved successfully",
		Data:    payload,
	})
}

// userIDFromRequest resolves the caller's id on routes that accept both
// authenticated and anonymous traffic. The JWT middleware does not run on
// those routes, so the bearer token is parsed here when present.
func userIDFromRequest(c echo.Context) string {
	if id, err := utils.GetUserIDFromToken(c); err == nil {
		return id
	}

	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	claims := &middleware.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(middleware.GetJWTSecret()), nil
	})
	if err != nil || !token.Valid {
		return ""
	}
	return claims.UserID
}
