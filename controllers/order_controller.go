package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/findingu/multinivel_backend/models"
	"github.com/findingu/multinivel_backend/repositories"
	"github.com/findingu/multinivel_backend/services"
	"github.com/findingu/multinivel_backend/utils"
)

// orderIDAttempts bounds the retry loop for order id collisions.
const orderIDAttempts = 6

// OrderController handles order creation, reads, and status transitions.
// Every transition is delegated to the rewards service so commission
// consequences are never skipped.
type OrderController struct {
	DB        *mongo.Client
	orders    *repositories.OrderRepository
	customers *repositories.CustomerRepository
	rewards   *services.RewardsService
	notifier  services.Notifier
	logger    *log.Logger
}

func NewOrderController(db *mongo.Client, rewards *services.RewardsService, notifier services.Notifier) *OrderController {
	return &OrderController{
		DB:        db,
		orders:    repositories.NewOrderRepository(db),
		customers: repositories.NewCustomerRepository(db),
		rewards:   rewards,
		notifier:  notifier,
		logger:    log.New(os.Stdout, "[ORDER] ", log.LstdFlags),
	}
}

// CreateOrder stores a pending order. The buyer's current discount rate is
// applied as a preview; the paid transition fixes the money fields for good.
func (oc *OrderController) CreateOrder(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.CreateOrderRequest
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

	var customerID *primitive.ObjectID
	var customer *models.Customer
	if req.CustomerID != "" {
		id, err := primitive.ObjectIDFromHex(req.CustomerID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid customer ID format",
			})
		}
		customerID = &id
		customer, err = oc.customers.GetByID(ctx, id)
		if err != nil {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Customer not found",
			})
		}
	}

	buyerType := strings.ToLower(req.BuyerType)
	if buyerType == "" {
		if customerID == nil {
			buyerType = models.BuyerTypeGuest
		} else {
			buyerType = models.BuyerTypeRegistered
		}
	}

	var referrerID *primitive.ObjectID
	if req.ReferrerAssociateID != "" {
		id, err := primitive.ObjectIDFromHex(req.ReferrerAssociateID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid referrer ID format",
			})
		}
		referrerID = &id
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	var gross float64
	for _, item := range req.Items {
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		items = append(items, item)
		gross += item.Price * float64(item.Quantity)
	}
	gross = utils.Round2(gross)

	var discountRate float64
	if customer != nil && (buyerType == models.BuyerTypeAssociate || buyerType == models.BuyerTypeRegistered) {
		discountRate = customer.DiscountRate
	}
	discountAmount := utils.Round2(gross * discountRate)

	now := time.Now()
	order := &models.Order{
		CustomerID:          customerID,
		CustomerName:        req.CustomerName,
		BuyerType:           buyerType,
		ReferrerAssociateID: referrerID,
		Items:               items,
		GrossSubtotal:       gross,
		DiscountRate:        discountRate,
		DiscountAmount:      discountAmount,
		NetTotal:            utils.Round2(gross - discountAmount),
		Status:              models.OrderStatusPending,
		MonthKey:            utils.MonthKey(now),
		ShippingType:        req.ShippingType,
		RecipientName:       req.RecipientName,
		Phone:               req.Phone,
		Address:             req.Address,
		PostalCode:          req.PostalCode,
		State:               req.State,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	created := false
	for attempt := 0; attempt < orderIDAttempts; attempt++ {
		order.ID = utils.NewOrderID(now, 6)
		err := oc.orders.Create(ctx, order)
		if err == nil {
			created = true
			break
		}
		if !errors.Is(err, repositories.ErrDuplicate) {
			oc.logger.Printf("Failed to create order: %v", err)
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to create order",
			})
		}
	}
	if !created {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to allocate order ID",
		})
	}

	// Keep the shipping profile on the customer fresh; losing this update
	// never fails the order.
	if customerID != nil {
		if err := oc.customers.UpdateShippingProfile(ctx, *customerID, req.Address, req.PostalCode, req.State, req.Phone); err != nil {
			oc.logger.Printf("Failed to update shipping profile for %s: %v", customerID.Hex(), err)
		}
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Order created successfully",
		Data:    order,
	})
}

// GetOrder returns one order by id.
func (oc *OrderController) GetOrder(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	order, err := oc.orders.GetByID(ctx, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Order not found",
		})
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Order retrieved successfully",
		Data:    order,
	})
}

// ListOrders returns a customer's orders, newest first.
func (oc *OrderController) ListOrders(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	customerID := c.QueryParam("customerId")
	if customerID == "" {
		var err error
		customerID, err = utils.GetUserIDFromToken(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "customerId is required",
			})
		}
	}
	objID, err := primitive.ObjectIDFromHex(customerID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid customer ID format",
		})
	}

	orders, err := oc.orders.ListByCustomer(ctx, objID)
	if err != nil {
		oc.logger.Printf("Failed to list orders for %s: %v", customerID, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve orders",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Orders retrieved successfully",
		Data:    orders,
	})
}

// UpdateOrderStatus moves an order through its lifecycle. Paid and delivered
// edges run the rewards engine; repeats are no-ops.
func (oc *OrderController) UpdateOrderStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var req models.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))

	return oc.applyTransition(c, ctx, c.Param("id"), req, "")
}

// CancelOrder cancels an order and voids any commissions it generated.
func (oc *OrderController) CancelOrder(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.Bind(&body)
	if body.Reason == "" {
		body.Reason = "canceled"
	}

	return oc.applyTransition(c, ctx, c.Param("id"),
		models.UpdateOrderStatusRequest{Status: models.OrderStatusCanceled}, body.Reason)
}

// RefundOrder refunds an order, including delivered ones, and voids its
// commissions.
func (oc *OrderController) RefundOrder(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.Bind(&body)
	if body.Reason == "" {
		body.Reason = "refund"
	}

	return oc.applyTransition(c, ctx, c.Param("id"),
		models.UpdateOrderStatusRequest{Status: models.OrderStatusRefunded}, body.Reason)
}

func (oc *OrderController) applyTransition(c echo.Context, ctx context.Context, orderID string, req models.UpdateOrderStatusRequest, reason string) error {
	outcome, err := oc.rewards.ApplyTransition(ctx, orderID, req, reason)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Order not found",
			})
		case errors.Is(err, services.ErrInvalidStatus):
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid order status",
			})
		case errors.Is(err, services.ErrInvalidTransition):
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Status transition not allowed",
			})
		}
		oc.logger.Printf("Transition failed for order %s: %v", orderID, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update order status",
		})
	}

	if !outcome.NoOp && oc.notifier != nil && outcome.Order.CustomerID != nil {
		oc.notifier.NotifyUser(outcome.Order.CustomerID.Hex(), "order_status", map[string]interface{}{
			"orderId": outcome.Order.ID,
			"status":  outcome.Order.Status,
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Order status updated",
		Data:    outcome,
	})
}
