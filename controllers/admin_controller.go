package controllers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/findingu/multinivel_backend/models"
	"github.com/findingu/multinivel_backend/repositories"
	"github.com/findingu/multinivel_backend/utils"
)

// AdminController serves the back-office dashboard.
type AdminController struct {
	DB        *mongo.Client
	customers *repositories.CustomerRepository
	orders    *repositories.OrderRepository
	ledgers   *repositories.CommissionMonthRepository
	logger    *log.Logger
}

func NewAdminController(db *mongo.Client) *AdminController {
	return &AdminController{
		DB:        db,
		customers: repositories.NewCustomerRepository(db),
		orders:    repositories.NewOrderRepository(db),
		ledgers:   repositories.NewCommissionMonthRepository(db),
		logger:    log.New(os.Stdout, "[ADMIN] ", log.LstdFlags),
	}
}

type adminWarning struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Severity string `json:"severity"`
}

func buildAdminWarnings(paidCount, pendingCount, commissionsCount int) []adminWarning {
	warnings := []adminWarning{}
	if commissionsCount > 0 {
		warnings = append(warnings, adminWarning{
			Type:     "commissions",
			Text:     fmt.Sprintf("%d associates with commissions awaiting deposit", commissionsCount),
			Severity: "high",
		})
	}
	if paidCount > 0 {
		warnings = append(warnings, adminWarning{
			Type:     "shipping",
			Text:     fmt.Sprintf("%d paid orders not yet shipped", paidCount),
			Severity: "medium",
		})
	}
	if pendingCount > 0 {
		warnings = append(warnings, adminWarning{
			Type:     "payments",
			Text:     fmt.Sprintf("%d orders awaiting payment", pendingCount),
			Severity: "low",
		})
	}
	return warnings
}

// paidCommissionsSummary flattens every confirmed ledger row of the month
// with the beneficiary's name resolved.
func (ac *AdminController) paidCommissionsSummary(ctx context.Context, monthKey string, customers []models.Customer) (map[string]interface{}, error) {
	months, err := ac.ledgers.ListByMonth(ctx, monthKey)
	if err != nil {
		return nil, err
	}

	nameByID := make(map[string]string, len(customers))
	for _, c := range customers {
		nameByID[c.ID.Hex()] = c.Name
	}

	var total float64
	rows := []map[string]interface{}{}
	for _, month := range months {
		for _, row := range month.Ledger {
			if row.Status != models.CommissionStatusConfirmed {
				continue
			}
			total += row.Amount
			rows = append(rows, map[string]interface{}{
				"beneficiaryId":   month.BeneficiaryID.Hex(),
				"beneficiaryName": nameByID[month.BeneficiaryID.Hex()],
				"orderId":         row.OrderID,
				"amount":          row.Amount,
				"createdAt":       row.CreatedAt,
			})
		}
	}

	return map[string]interface{}{
		"monthKey": monthKey,
		"count":    len(rows),
		"total":    total,
		"rows":     rows,
	}, nil
}

// GetDashboard returns the back-office overview: sales KPIs, order status
// counts, member distribution, operational warnings, and the month's
// confirmed commissions.
func (ac *AdminController) GetDashboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	customers, err := ac.customers.List(ctx)
	if err != nil {
		ac.logger.Printf("Failed to list customers: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load dashboard",
		})
	}
	orders, err := ac.orders.List(ctx)
	if err != nil {
		ac.logger.Printf("Failed to list orders: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load dashboard",
		})
	}

	customersByLevel := map[string]int{}
	commissionsCount := 0
	var commissionsTotal float64
	customerRows := []map[string]interface{}{}
	for _, customer := range customers {
		level := customer.Level
		if level == "" {
			level = "unassigned"
		}
		customersByLevel[level]++
		if customer.Commissions > 0 {
			commissionsCount++
			commissionsTotal += customer.Commissions
		}
		customerRows = append(customerRows, map[string]interface{}{
			"id":          customer.ID.Hex(),
			"name":        customer.Name,
			"email":       customer.Email,
			"level":       customer.Level,
			"activeBuyer": customer.ActiveBuyer,
			"commissions": customer.Commissions,
		})
	}

	statusCounts := map[string]int{
		models.OrderStatusPending:   0,
		models.OrderStatusPaid:      0,
		models.OrderStatusShipped:   0,
		models.OrderStatusDelivered: 0,
		models.OrderStatusCanceled:  0,
		models.OrderStatusRefunded:  0,
	}
	var salesTotal float64
	orderRows := []map[string]interface{}{}
	for _, order := range orders {
		if _, ok := statusCounts[order.Status]; ok {
			statusCounts[order.Status]++
		}
		salesTotal += order.NetTotal
		orderRows = append(orderRows, map[string]interface{}{
			"id":        order.ID,
			"customer":  order.CustomerName,
			"total":     order.NetTotal,
			"status":    order.Status,
			"createdAt": order.CreatedAt,
		})
	}

	averageTicket := 0.0
	if len(orders) > 0 {
		averageTicket = salesTotal / float64(len(orders))
	}

	monthKey := utils.CurrentMonthKey()
	paidSummary, err := ac.paidCommissionsSummary(ctx, monthKey, customers)
	if err != nil {
		ac.logger.Printf("Failed to summarize commissions for %s: %v", monthKey, err)
		paidSummary = map[string]interface{}{"monthKey": monthKey, "count": 0, "total": 0.0, "rows": []interface{}{}}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Dashboard retrieved successfully",
		Data: map[string]interface{}{
			"kpis": map[string]interface{}{
				"salesTotal":              salesTotal,
				"averageTicket":           averageTicket,
				"customersTotal":          len(customers),
				"commissionsTotalCached":  commissionsTotal,
				"commissionsBeneficiaries": commissionsCount,
			},
			"statusCounts":            statusCounts,
			"customersByLevel":        customersByLevel,
			"warnings":                buildAdminWarnings(statusCounts[models.OrderStatusPaid], statusCounts[models.OrderStatusPending], commissionsCount),
			"commissionsPaidSummary":  paidSummary,
			"customers":               customerRows,
			"orders":                  orderRows,
		},
	})
}
