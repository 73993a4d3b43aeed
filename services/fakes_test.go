package services

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/findingu/multinivel_backend/models"
	"github.com/findingu/multinivel_backend/repositories"
)

// In-memory store fakes. They honor the same error contracts as the
// repositories package, including the version guard on ledger writes.

type fakeCustomers struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Customer
}

func newFakeCustomers(customers ...*models.Customer) *fakeCustomers {
	f := &fakeCustomers{byID: make(map[primitive.ObjectID]*models.Customer)}
	for _, c := range customers {
		f.byID[c.ID] = c
	}
	return f
}

func (f *fakeCustomers) GetByID(_ context.Context, id primitive.ObjectID) (*models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (f *fakeCustomers) List(_ context.Context) ([]models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Customer, 0, len(f.byID))
	for _, c := range f.byID {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCustomers) UpdateRewardsFields(_ context.Context, id primitive.ObjectID, discountRate float64, activeBuyer bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return repositories.ErrNotFound
	}
	c.DiscountRate = discountRate
	c.ActiveBuyer = activeBuyer
	return nil
}

func (f *fakeCustomers) IncrementCommissions(_ context.Context, id primitive.ObjectID, delta float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return repositories.ErrNotFound
	}
	c.Commissions += delta
	return nil
}

func (f *fakeCustomers) commissions(id primitive.ObjectID) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id].Commissions
}

type fakeOrders struct {
	mu   sync.Mutex
	byID map[string]*models.Order
}

func newFakeOrders(orders ...*models.Order) *fakeOrders {
	f := &fakeOrders{byID: make(map[string]*models.Order)}
	for _, o := range orders {
		f.byID[o.ID] = o
	}
	return f
}

func (f *fakeOrders) GetByID(_ context.Context, id string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *o
	return &clone, nil
}

func (f *fakeOrders) SetStatus(_ context.Context, id, status string, extra bson.M) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok {
		return repositories.ErrNotFound
	}
	o.Status = status
	if v, ok := extra["trackingNumber"].(string); ok {
		o.TrackingNumber = v
	}
	if v, ok := extra["cancelReason"].(string); ok {
		o.CancelReason = v
	}
	if v, ok := extra["refundReason"].(string); ok {
		o.RefundReason = v
	}
	return nil
}

func (f *fakeOrders) SetMoneyFields(_ context.Context, id string, gross, discountRate, discountAmount, net float64, monthKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok {
		return repositories.ErrNotFound
	}
	o.GrossSubtotal = gross
	o.DiscountRate = discountRate
	o.DiscountAmount = discountAmount
	o.NetTotal = net
	o.MonthKey = monthKey
	return nil
}

type fakeMonths struct {
	mu   sync.Mutex
	byID map[string]models.AssociateMonth
}

func newFakeMonths() *fakeMonths {
	return &fakeMonths{byID: make(map[string]models.AssociateMonth)}
}

func (f *fakeMonths) Get(_ context.Context, associateID primitive.ObjectID, monthKey string) (*models.AssociateMonth, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[models.AssociateMonthID(associateID, monthKey)]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := m
	return &clone, nil
}

func (f *fakeMonths) Put(_ context.Context, month *models.AssociateMonth) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	month.ID = models.AssociateMonthID(month.AssociateID, month.MonthKey)
	f.byID[month.ID] = *month
	return nil
}

// fakeLedgers mirrors the conditional-write contract of the Mongo
// repository: a write only lands when the stored version still equals the
// version the caller read. conflictsLeft injects artificial lost races.
type fakeLedgers struct {
	mu            sync.Mutex
	byID          map[string]models.CommissionMonth
	conflictsLeft int
	putCalls      int
}

func newFakeLedgers() *fakeLedgers {
	return &fakeLedgers{byID: make(map[string]models.CommissionMonth)}
}

func (f *fakeLedgers) Get(_ context.Context, beneficiaryID primitive.ObjectID, monthKey string) (*models.CommissionMonth, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[models.CommissionMonthID(beneficiaryID, monthKey)]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := m
	clone.Ledger = append([]models.CommissionRow(nil), m.Ledger...)
	return &clone, nil
}

func (f *fakeLedgers) Put(_ context.Context, month *models.CommissionMonth) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++

	month.ID = models.CommissionMonthID(month.BeneficiaryID, month.MonthKey)
	readVersion := month.Version

	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		return repositories.ErrVersionConflict
	}

	stored, exists := f.byID[month.ID]
	if readVersion == 0 && exists {
		return repositories.ErrVersionConflict
	}
	if readVersion != 0 && (!exists || stored.Version != readVersion) {
		return repositories.ErrVersionConflict
	}

	month.Version = readVersion + 1
	clone := *month
	clone.Ledger = append([]models.CommissionRow(nil), month.Ledger...)
	f.byID[month.ID] = clone
	return nil
}

func (f *fakeLedgers) stored(beneficiaryID primitive.ObjectID, monthKey string) (models.CommissionMonth, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[models.CommissionMonthID(beneficiaryID, monthKey)]
	return m, ok
}

type fakeConfigs struct {
	cfg *models.RewardsConfig
}

func newFakeConfigs() *fakeConfigs {
	return &fakeConfigs{cfg: models.DefaultRewardsConfig()}
}

func (f *fakeConfigs) GetOrCreate(_ context.Context) (*models.RewardsConfig, error) {
	clone := *f.cfg
	return &clone, nil
}

func (f *fakeConfigs) Save(_ context.Context, cfg *models.RewardsConfig) error {
	f.cfg = cfg
	return nil
}

type notifierEvent struct {
	UserID string
	Event  string
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []notifierEvent
}

func (f *fakeNotifier) NotifyUser(userID string, event string, _ interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, notifierEvent{UserID: userID, Event: event})
}

func (f *fakeNotifier) count(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

// member builds a network customer for tests. leader may be nil for roots.
func member(level string, leader *models.Customer) *models.Customer {
	c := &models.Customer{
		ID:          primitive.NewObjectID(),
		Level:       level,
		IsAssociate: true,
	}
	if leader != nil {
		id := leader.ID
		c.LeaderID = &id
	}
	return c
}
