package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/findingu/multinivel_backend/models"
)

// The engine addresses its collaborators through narrow store interfaces so
// the rules can be exercised against in-memory fakes. The repositories
// package provides the MongoDB implementations.

// CustomerDirectory reads leader pointers and syncs the engine-owned
// projections (discount rate, active flag, cached commissions total).
type CustomerDirectory interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error)
	List(ctx context.Context) ([]models.Customer, error)
	UpdateRewardsFields(ctx context.Context, id primitive.ObjectID, discountRate float64, activeBuyer bool) error
	IncrementCommissions(ctx context.Context, id primitive.ObjectID, delta float64) error
}

// OrderStore reads and writes order status and the money fields computed at
// the paid transition.
type OrderStore interface {
	GetByID(ctx context.Context, id string) (*models.Order, error)
	SetStatus(ctx context.Context, id, status string, extra bson.M) error
	SetMoneyFields(ctx context.Context, id string, gross, discountRate, discountAmount, net float64, monthKey string) error
}

// MonthStateStore holds per-associate monthly activation records.
type MonthStateStore interface {
	Get(ctx context.Context, associateID primitive.ObjectID, monthKey string) (*models.AssociateMonth, error)
	Put(ctx context.Context, month *models.AssociateMonth) error
}

// LedgerStore holds per-beneficiary monthly commission ledgers. Put must be
// a version-guarded write returning repositories.ErrVersionConflict when the
// record changed underneath the caller.
type LedgerStore interface {
	Get(ctx context.Context, beneficiaryID primitive.ObjectID, monthKey string) (*models.CommissionMonth, error)
	Put(ctx context.Context, month *models.CommissionMonth) error
}

// ConfigStore loads and saves the rewards rules document.
type ConfigStore interface {
	GetOrCreate(ctx context.Context) (*models.RewardsConfig, error)
	Save(ctx context.Context, cfg *models.RewardsConfig) error
}

// Notifier publishes realtime events to connected clients. Delivery is
// best-effort; the engine never blocks on it.
type Notifier interface {
	NotifyUser(userID string, event string, data interface{})
}
