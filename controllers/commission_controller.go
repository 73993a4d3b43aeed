package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/findingu/multinivel_backend/models"
	"github.com/findingu/multinivel_backend/repositories"
	"github.com/findingu/multinivel_backend/services"
	"github.com/findingu/multinivel_backend/utils"
)

// CommissionController exposes the ledger read API, month state readouts,
// payout requests, and the rewards rules document.
type CommissionController struct {
	DB        *mongo.Client
	rewards   *services.RewardsService
	tracker   *services.ActivationTracker
	customers *repositories.CustomerRepository
	payouts   *repositories.PayoutRequestRepository
	logger    *log.Logger
}

func NewCommissionController(db *mongo.Client, rewards *services.RewardsService, tracker *services.ActivationTracker) *CommissionController {
	return &CommissionController{
		DB:        db,
		rewards:   rewards,
		tracker:   tracker,
		customers: repositories.NewCustomerRepository(db),
		payouts:   repositories.NewPayoutRequestRepository(db),
		logger:    log.New(os.Stdout, "[COMMISSION] ", log.LstdFlags),
	}
}

// GetAssociateCommissions returns a beneficiary's ledger for a month, with
// an optional status filter.
func (cc *CommissionController) GetAssociateCommissions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	associateID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid associate ID format",
		})
	}

	monthKey := c.QueryParam("month")
	if monthKey == "" {
		monthKey = utils.CurrentMonthKey()
	}
	statusFilter := strings.ToLower(c.QueryParam("status"))

	view, err := cc.rewards.GetBeneficiaryLedger(ctx, associateID, monthKey, statusFilter)
	if err != nil {
		cc.logger.Printf("Failed to read ledger for %s %s: %v", associateID.Hex(), monthKey, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve commissions",
		})
	}

	// Optional row cap; totals still reflect the full ledger.
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if n, convErr := strconv.Atoi(limitStr); convErr == nil && n >= 0 && n < len(view.Rows) {
			view.Rows = view.Rows[:n]
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commissions retrieved successfully",
		Data:    view,
	})
}

// GetAssociateMonth returns the activation state for one associate month.
// A month with no purchases reads as zero volume, inactive.
func (cc *CommissionController) GetAssociateMonth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	associateID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid associate ID format",
		})
	}
	monthKey := c.Param("monthKey")

	net, err := cc.tracker.NetVolume(ctx, associateID, monthKey)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve month state",
		})
	}
	active, err := cc.tracker.IsActive(ctx, associateID, monthKey)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve month state",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Month state retrieved successfully",
		Data: map[string]interface{}{
			"associateId": associateID.Hex(),
			"monthKey":    monthKey,
			"netVolume":   net,
			"isActive":    active,
		},
	})
}

// PayoutRequestBody is the payload for requesting a commission deposit.
type PayoutRequestBody struct {
	CustomerID string `json:"customerId" validate:"required"`
	Clabe      string `json:"clabe,omitempty"`
	MonthKey   string `json:"monthKey,omitempty"`
}

// RequestPayout records a deposit request for the month's confirmed total.
// A CLABE must be supplied or already on file; a new one is saved for next
// time. The payouts mailbox is notified by email, best-effort.
func (cc *CommissionController) RequestPayout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req PayoutRequestBody
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed",
			Data:    err.Error(),
		})
	}

	customerID, err := primitive.ObjectIDFromHex(req.CustomerID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid customer ID format",
		})
	}
	customer, err := cc.customers.GetByID(ctx, customerID)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Customer not found",
		})
	}

	clabe := strings.TrimSpace(req.Clabe)
	existing := strings.TrimSpace(customer.Clabe)
	if clabe == "" && existing == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "CLABE is required",
		})
	}
	if clabe != "" && len(clabe) < 10 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid CLABE",
		})
	}

	monthKey := req.MonthKey
	if monthKey == "" {
		monthKey = utils.CurrentMonthKey()
	}

	view, err := cc.rewards.GetBeneficiaryLedger(ctx, customerID, monthKey, "")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to read commission totals",
		})
	}
	if view.TotalConfirmed <= 0 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "No confirmed commissions to pay out",
		})
	}

	if clabe != "" {
		if err := cc.customers.SetClabe(ctx, customerID, clabe); err != nil {
			cc.logger.Printf("Failed to save CLABE for %s: %v", customerID.Hex(), err)
		}
	}
	clabeFinal := clabe
	if clabeFinal == "" {
		clabeFinal = existing
	}

	now := time.Now()
	request := &models.PayoutRequest{
		ID:            uuid.New().String(),
		BeneficiaryID: customerID,
		MonthKey:      monthKey,
		Amount:        view.TotalConfirmed,
		Status:        "requested",
		ClabeLast4:    clabeFinal[len(clabeFinal)-4:],
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := cc.payouts.Create(ctx, request); err != nil {
		cc.logger.Printf("Failed to store payout request for %s: %v", customerID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to store payout request",
		})
	}

	go utils.SendPayoutRequestEmail(customer.Name, customer.Email, monthKey, request.ClabeLast4, request.Amount)

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Payout requested successfully",
		Data: map[string]interface{}{
			"request": request,
			"summary": map[string]interface{}{
				"monthKey":       monthKey,
				"totalPending":   view.TotalPending,
				"totalConfirmed": view.TotalConfirmed,
			},
		},
	})
}

// ListPayoutRequests returns an associate's payout history.
func (cc *CommissionController) ListPayoutRequests(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	associateID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid associate ID format",
		})
	}

	requests, err := cc.payouts.ListByBeneficiary(ctx, associateID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve payout requests",
		})
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payout requests retrieved successfully",
		Data:    requests,
	})
}

// GetRewardsConfig returns the active rules, seeding defaults if none exist.
func (cc *CommissionController) GetRewardsConfig(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := cc.rewards.GetOrCreateConfig(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load rewards config",
		})
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Rewards config retrieved successfully",
		Data:    cfg,
	})
}

// PutRewardsConfig replaces the rules document. Missing sections are filled
// from defaults so a sparse payload cannot strip rules the engine needs.
func (cc *CommissionController) PutRewardsConfig(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var cfg models.RewardsConfig
	if err := c.Bind(&cfg); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	cfg.Normalize()

	if err := cc.rewards.SaveConfig(ctx, &cfg); err != nil {
		cc.logger.Printf("Failed to save rewards config: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to save rewards config",
		})
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Rewards config saved successfully",
		Data:    cfg,
	})
}
