package controllers

import (
	"context"
	"errors"
	"log"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/findingu/multinivel_backend/models"
	"github.com/findingu/multinivel_backend/repositories"
	"github.com/findingu/multinivel_backend/services"
	"github.com/findingu/multinivel_backend/utils"
)

// AuthController handles signup and login for network members.
type AuthController struct {
	DB        *mongo.Client
	customers *repositories.CustomerRepository
	upline    *services.UplineResolver
	logger    *log.Logger
}

func NewAuthController(db *mongo.Client) *AuthController {
	customers := repositories.NewCustomerRepository(db)
	return &AuthController{
		DB:        db,
		customers: customers,
		upline:    services.NewUplineResolver(customers),
		logger:    log.New(os.Stdout, "[AUTH] ", log.LstdFlags),
	}
}

// resolveLeaderAndLevel assigns the new member's position in the tree. A top
// leader sponsors mid members, a mid leader sponsors base members, and a
// base leader cannot sponsor directly: the nearest mid ancestor becomes the
// leader instead. No leader (or no eligible ancestor) makes the member a top.
func (ac *AuthController) resolveLeaderAndLevel(ctx context.Context, leaderID *primitive.ObjectID) (*primitive.ObjectID, string) {
	if leaderID == nil {
		return nil, models.LevelTop
	}

	leader, err := ac.customers.GetByID(ctx, *leaderID)
	if err != nil {
		return nil, models.LevelTop
	}

	switch leader.Level {
	case models.LevelTop:
		return leaderID, models.LevelMid
	case models.LevelMid:
		return leaderID, models.LevelBase
	}

	chain, err := ac.upline.Resolve(ctx, *leaderID, -1)
	if err != nil {
		ac.logger.Printf("Failed to walk upline for leader %s: %v", leaderID.Hex(), err)
	}
	for _, ancestorID := range chain {
		ancestor, err := ac.customers.GetByID(ctx, ancestorID)
		if err != nil {
			continue
		}
		if ancestor.Level == models.LevelMid {
			id := ancestorID
			return &id, models.LevelBase
		}
	}
	return nil, models.LevelTop
}

// Signup creates a network member account. The leader is resolved from a
// referral code or an explicit leader id; the member's level follows from
// the leader's.
func (ac *AuthController) Signup(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.SignupRequest
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
	if req.Password != req.ConfirmPassword {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Passwords do not match",
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := ac.customers.GetByEmail(ctx, email); err == nil {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Email is already registered",
		})
	}

	var leaderID *primitive.ObjectID
	if req.ReferralCode != "" {
		leader, err := ac.customers.GetByReferralCode(ctx, strings.TrimSpace(req.ReferralCode))
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Unknown referral code",
			})
		}
		leaderID = &leader.ID
	} else if req.LeaderID != "" {
		id, err := primitive.ObjectIDFromHex(req.LeaderID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid leader ID format",
			})
		}
		leaderID = &id
	}

	resolvedLeader, level := ac.resolveLeaderAndLevel(ctx, leaderID)

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process password",
		})
	}

	referralCode, err := utils.GenerateCustomerReferralCode()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate referral code",
		})
	}

	now := time.Now()
	customer := &models.Customer{
		ID:           primitive.NewObjectID(),
		Name:         req.Name,
		Email:        email,
		Phone:        req.Phone,
		Address:      req.Address,
		City:         req.City,
		PasswordHash: string(hash),
		ReferralCode: referralCode,
		LeaderID:     resolvedLeader,
		Level:        level,
		IsAssociate:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := ac.customers.Create(ctx, customer); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Email is already registered",
			})
		}
		ac.logger.Printf("Failed to create customer: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create account",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Account created successfully",
		Data:    customer,
	})
}

// Login authenticates by email and password and returns a JWT plus the
// display fields the storefront shows without a second round trip.
func (ac *AuthController) Login(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.LoginRequest
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

	email := strings.ToLower(strings.TrimSpace(req.Email))
	customer, err := ac.customers.GetByEmail(ctx, email)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid credentials",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(req.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid credentials",
		})
	}

	token, err := utils.GenerateJWT(customer.ID.Hex(), customer.Email, "customer")
	if err != nil {
		ac.logger.Printf("Failed to generate token for %s: %v", customer.ID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data: models.LoginResponse{
			Token:           token,
			UserID:          customer.ID.Hex(),
			Name:            customer.Name,
			Level:           customer.Level,
			DiscountPercent: int(math.Round(customer.DiscountRate * 100)),
			DiscountActive:  customer.ActiveBuyer || customer.DiscountRate > 0,
			Commissions:     customer.Commissions,
		},
	})
}

// GetProfile returns the authenticated customer's record.
func (ac *AuthController) GetProfile(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID format",
		})
	}

	customer, err := ac.customers.GetByID(ctx, objID)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Customer not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Profile retrieved successfully",
		Data:    customer,
	})
}
