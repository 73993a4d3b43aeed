package services

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/findingu/multinivel_backend/models"
	"github.com/findingu/multinivel_backend/utils"
)

// RewardsService drives the rewards engine off order status transitions.
// Transitions are edge-triggered against the previously stored status, so a
// replayed event is a no-op rather than a double payout.
type RewardsService struct {
	customers CustomerDirectory
	orders    OrderStore
	tracker   *ActivationTracker
	upline    *UplineResolver
	gate      *BlockGate
	ledger    *CommissionLedger
	configs   ConfigStore
	notifier  Notifier
}

func NewRewardsService(customers CustomerDirectory, orders OrderStore, tracker *ActivationTracker, upline *UplineResolver, gate *BlockGate, ledger *CommissionLedger, configs ConfigStore, notifier Notifier) *RewardsService {
	return &RewardsService{
		customers: customers,
		orders:    orders,
		tracker:   tracker,
		upline:    upline,
		gate:      gate,
		ledger:    ledger,
		configs:   configs,
		notifier:  notifier,
	}
}

// TransitionOutcome reports what a status transition did.
type TransitionOutcome struct {
	Order         *models.Order               `json:"order"`
	Rewards       *models.RewardsResult       `json:"rewards,omitempty"`
	Confirmations []models.ConfirmationAction `json:"confirmations,omitempty"`
	Voids         []models.VoidAction         `json:"voids,omitempty"`
	NoOp          bool                        `json:"noop,omitempty"`
}

// forward progression ranks; cancel and refund are handled separately.
var statusRank = map[string]int{
	models.OrderStatusPending:   0,
	models.OrderStatusPaid:      1,
	models.OrderStatusShipped:   2,
	models.OrderStatusDelivered: 3,
}

func validTransition(from, to string) bool {
	if models.TerminalOrderStatus(from) {
		return false
	}
	if to == models.OrderStatusCanceled || to == models.OrderStatusRefunded {
		return true
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

// ApplyTransition validates and persists a status change, then runs the
// rewards consequences for the edge that fired. Repeating the stored status
// is a benign no-op.
func (s *RewardsService) ApplyTransition(ctx context.Context, orderID string, req models.UpdateOrderStatusRequest, reason string) (*TransitionOutcome, error) {
	if !models.ValidOrderStatus(req.Status) {
		return nil, ErrInvalidStatus
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status == req.Status {
		return &TransitionOutcome{Order: order, NoOp: true}, nil
	}
	if !validTransition(order.Status, req.Status) {
		return nil, ErrInvalidTransition
	}

	extra := bson.M{}
	if req.ShippingType != "" {
		extra["shippingType"] = req.ShippingType
	}
	if req.TrackingNumber != "" {
		extra["trackingNumber"] = req.TrackingNumber
	}
	if req.DeliveryPlace != "" {
		extra["deliveryPlace"] = req.DeliveryPlace
	}
	if req.DeliveryDate != "" {
		extra["deliveryDate"] = req.DeliveryDate
	}
	switch req.Status {
	case models.OrderStatusCanceled:
		extra["cancelReason"] = reason
	case models.OrderStatusRefunded:
		extra["refundReason"] = reason
	}

	if err := s.orders.SetStatus(ctx, orderID, req.Status, extra); err != nil {
		return nil, err
	}

	prev := order.Status
	order.Status = req.Status
	outcome := &TransitionOutcome{Order: order}

	switch req.Status {
	case models.OrderStatusPaid:
		if prev != models.OrderStatusPaid {
			rewards, err := s.ApplyPaidOrder(ctx, order)
			if err != nil {
				return nil, err
			}
			outcome.Rewards = rewards
		}
	case models.OrderStatusDelivered:
		if prev != models.OrderStatusDelivered {
			confirmations, err := s.ConfirmDeliveredOrder(ctx, order)
			if err != nil {
				return nil, err
			}
			outcome.Confirmations = confirmations
		}
	case models.OrderStatusCanceled, models.OrderStatusRefunded:
		voids, err := s.voidOrderRows(ctx, order, reason)
		if err != nil {
			return nil, err
		}
		outcome.Voids = voids
	}

	return outcome, nil
}

// ApplyPaidOrder runs the full paid-edge pipeline: fix the discount and net
// on the order, feed the buyer's monthly volume, sweep unblocks if the buyer
// just activated, and write one commission row per eligible upline depth.
func (s *RewardsService) ApplyPaidOrder(ctx context.Context, order *models.Order) (*models.RewardsResult, error) {
	cfg, err := s.configs.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}

	gross := order.GrossSubtotal
	if gross <= 0 {
		for _, item := range order.Items {
			qty := item.Quantity
			if qty < 1 {
				qty = 1
			}
			gross += item.Price * float64(qty)
		}
		gross = utils.Round2(gross)
	}

	monthKey := order.MonthKey
	if monthKey == "" {
		monthKey = utils.CurrentMonthKey()
	}

	memberBuyer := order.CustomerID != nil &&
		(order.BuyerType == models.BuyerTypeAssociate || order.BuyerType == models.BuyerTypeRegistered)

	// A discount already fixed at order creation is kept; otherwise the
	// tier engine prices this order's gross.
	discountRate := order.DiscountRate
	if discountRate <= 0 && memberBuyer {
		discountRate = DiscountRateFor(gross, cfg.DiscountTiers)
	}
	if !memberBuyer {
		discountRate = 0
	}

	discountAmount := utils.Round2(gross * discountRate)
	net := utils.Round2(gross - discountAmount)

	if err := s.orders.SetMoneyFields(ctx, order.ID, gross, discountRate, discountAmount, net, monthKey); err != nil {
		return nil, err
	}
	order.GrossSubtotal = gross
	order.DiscountRate = discountRate
	order.DiscountAmount = discountAmount
	order.NetTotal = net
	order.MonthKey = monthKey

	result := &models.RewardsResult{
		OrderID:        order.ID,
		MonthKey:       monthKey,
		GrossSubtotal:  gross,
		DiscountRate:   discountRate,
		DiscountAmount: discountAmount,
		NetTotal:       net,
		Mode:           models.RewardsModeNone,
		RowsCreated:    []models.CreatedRow{},
	}

	if order.BuyerType == models.BuyerTypeGuest {
		return s.applyGuestReferral(ctx, order, cfg, net, monthKey, result)
	}
	if !memberBuyer {
		return result, nil
	}

	buyerID := *order.CustomerID
	result.Mode = models.RewardsModeMultilevel

	month, becameActive, err := s.tracker.AddVolume(ctx, buyerID, monthKey, net, cfg.ActivationNetMin)
	if err != nil {
		return nil, err
	}
	result.BecameActive = becameActive

	// Projection sync on the customer document is advisory; the month
	// record already holds the truth.
	newDiscount := DiscountRateFor(month.NetVolume, cfg.DiscountTiers)
	if err := s.customers.UpdateRewardsFields(ctx, buyerID, newDiscount, month.IsActive); err != nil {
		log.Printf("Failed to sync rewards fields for customer %s: %v", buyerID.Hex(), err)
	}

	lookup := s.tracker.ActiveLookupForMonth(monthKey)

	if becameActive {
		if err := s.unblockSweep(ctx, buyerID, monthKey, lookup); err != nil {
			return nil, err
		}
	}

	chain, err := s.upline.Resolve(ctx, buyerID, 3)
	if err != nil {
		return nil, err
	}
	for _, ancestorID := range chain {
		result.UplineChain = append(result.UplineChain, ancestorID.Hex())
	}

	for idx, beneficiaryID := range chain {
		level := idx + 1
		rate := cfg.DepthRate(level)
		if rate <= 0 {
			continue
		}
		amount := utils.Round2(net * rate)
		if amount <= 0 {
			continue
		}

		blocked, blockingID, err := s.gate.ShouldBlock(ctx, buyerID, level, lookup)
		if err != nil {
			return nil, err
		}

		sourceID := buyerID
		row := models.CommissionRow{
			RowID:         models.CommissionRowID(order.ID, level),
			OrderID:       order.ID,
			SourceBuyerID: &sourceID,
			Level:         level,
			Rate:          rate,
			Amount:        amount,
			Status:        models.CommissionStatusPending,
		}
		if blocked {
			row.Status = models.CommissionStatusBlocked
			row.BlockedBy = blockingID
			row.BlockedStatus = models.CommissionStatusPending
			result.Cut = true
		}

		delta, err := s.ledger.UpsertRow(ctx, beneficiaryID, monthKey, row)
		if err != nil {
			return nil, err
		}
		if delta != 0 {
			if err := s.customers.IncrementCommissions(ctx, beneficiaryID, delta); err != nil {
				log.Printf("Failed to update cached commissions for %s: %v", beneficiaryID.Hex(), err)
			}
		}

		result.RowsCreated = append(result.RowsCreated, models.CreatedRow{
			BeneficiaryID: beneficiaryID.Hex(),
			MonthKey:      monthKey,
			Row:           row,
		})
		s.notify(beneficiaryID, "commission_created", row)
	}

	return result, nil
}

// applyGuestReferral pays the one-shot referral row for guest purchases.
// There is no upline walk and no activation gate: the referrer earns a flat
// rate at depth 0 or nothing.
func (s *RewardsService) applyGuestReferral(ctx context.Context, order *models.Order, cfg *models.RewardsConfig, net float64, monthKey string, result *models.RewardsResult) (*models.RewardsResult, error) {
	if order.ReferrerAssociateID == nil {
		return result, nil
	}

	rate := cfg.GuestReferralRate
	amount := utils.Round2(net * rate)
	if amount <= 0 {
		return result, nil
	}

	result.Mode = models.RewardsModeGuestOneShot
	referrerID := *order.ReferrerAssociateID

	row := models.CommissionRow{
		RowID:         models.CommissionRowID(order.ID, 0),
		OrderID:       order.ID,
		SourceBuyerID: order.CustomerID,
		Level:         0,
		Rate:          rate,
		Amount:        amount,
		Status:        models.CommissionStatusPending,
	}

	delta, err := s.ledger.UpsertRow(ctx, referrerID, monthKey, row)
	if err != nil {
		return nil, err
	}
	if delta != 0 {
		if err := s.customers.IncrementCommissions(ctx, referrerID, delta); err != nil {
			log.Printf("Failed to update cached commissions for %s: %v", referrerID.Hex(), err)
		}
	}

	result.RowsCreated = append(result.RowsCreated, models.CreatedRow{
		BeneficiaryID: referrerID.Hex(),
		MonthKey:      monthKey,
		Row:           row,
	})
	s.notify(referrerID, "commission_created", row)
	return result, nil
}

// unblockSweep releases rows previously blocked by an associate who just
// became active: their own ledger first, then every ancestor's, since
// higher-depth rows traverse through the newly active node.
func (s *RewardsService) unblockSweep(ctx context.Context, causingID primitive.ObjectID, monthKey string, lookup ActiveLookup) error {
	if _, err := s.ledger.UnblockIfEligible(ctx, causingID, monthKey, causingID, lookup); err != nil {
		return err
	}

	ancestors, err := s.upline.Resolve(ctx, causingID, -1)
	if err != nil {
		return err
	}
	for _, ancestorID := range ancestors {
		released, err := s.ledger.UnblockIfEligible(ctx, ancestorID, monthKey, causingID, lookup)
		if err != nil {
			return err
		}
		if released > 0 {
			s.notify(ancestorID, "commission_unblocked", map[string]interface{}{
				"monthKey": monthKey,
				"released": released,
			})
		}
	}
	return nil
}

// ConfirmDeliveredOrder flips the order's pending rows to confirmed in every
// beneficiary ledger that might hold one. No rows are created or removed.
func (s *RewardsService) ConfirmDeliveredOrder(ctx context.Context, order *models.Order) ([]models.ConfirmationAction, error) {
	monthKey := order.MonthKey
	if monthKey == "" {
		monthKey = utils.CurrentMonthKey()
	}

	beneficiaries, err := s.orderBeneficiaries(ctx, order)
	if err != nil {
		return nil, err
	}

	actions := []models.ConfirmationAction{}
	for _, beneficiaryID := range beneficiaries {
		action, err := s.ledger.ConfirmForOrder(ctx, beneficiaryID, monthKey, order.ID)
		if err != nil {
			return nil, err
		}
		if action == nil {
			continue
		}
		actions = append(actions, *action)
		s.notify(beneficiaryID, "commission_confirmed", action)
	}
	return actions, nil
}

// VoidOrder removes the order's rows from every beneficiary ledger and
// rolls the removed amounts out of the cached display totals.
func (s *RewardsService) VoidOrder(ctx context.Context, orderID, reason string) ([]models.VoidAction, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.voidOrderRows(ctx, order, reason)
}

func (s *RewardsService) voidOrderRows(ctx context.Context, order *models.Order, reason string) ([]models.VoidAction, error) {
	monthKey := order.MonthKey
	if monthKey == "" {
		monthKey = utils.CurrentMonthKey()
	}

	beneficiaries, err := s.orderBeneficiaries(ctx, order)
	if err != nil {
		return nil, err
	}

	actions := []models.VoidAction{}
	for _, beneficiaryID := range beneficiaries {
		action, err := s.ledger.VoidForOrder(ctx, beneficiaryID, monthKey, order.ID, reason)
		if err != nil {
			return nil, err
		}
		if action == nil {
			continue
		}

		removed := action.PendingRemoved + action.ConfirmedRemoved + action.BlockedRemoved
		if removed > 0 {
			if err := s.customers.IncrementCommissions(ctx, beneficiaryID, -removed); err != nil {
				log.Printf("Failed to roll back cached commissions for %s: %v", beneficiaryID.Hex(), err)
			}
		}

		actions = append(actions, *action)
		s.notify(beneficiaryID, "commission_voided", action)
	}
	return actions, nil
}

// orderBeneficiaries lists every ledger owner that may hold rows for an
// order: the guest referrer first, then the buyer's full upline.
func (s *RewardsService) orderBeneficiaries(ctx context.Context, order *models.Order) ([]primitive.ObjectID, error) {
	var beneficiaries []primitive.ObjectID
	if order.BuyerType == models.BuyerTypeGuest && order.ReferrerAssociateID != nil {
		beneficiaries = append(beneficiaries, *order.ReferrerAssociateID)
	}
	if order.CustomerID != nil {
		chain, err := s.upline.Resolve(ctx, *order.CustomerID, -1)
		if err != nil {
			return nil, err
		}
		beneficiaries = append(beneficiaries, chain...)
	}
	return beneficiaries, nil
}

// GetBeneficiaryLedger exposes the ledger read model.
func (s *RewardsService) GetBeneficiaryLedger(ctx context.Context, beneficiaryID primitive.ObjectID, monthKey, statusFilter string) (*models.LedgerView, error) {
	return s.ledger.View(ctx, beneficiaryID, monthKey, statusFilter)
}

// GetOrCreateConfig returns the current rules.
func (s *RewardsService) GetOrCreateConfig(ctx context.Context) (*models.RewardsConfig, error) {
	return s.configs.GetOrCreate(ctx)
}

// SaveConfig persists updated rules.
func (s *RewardsService) SaveConfig(ctx context.Context, cfg *models.RewardsConfig) error {
	return s.configs.Save(ctx, cfg)
}

func (s *RewardsService) notify(userID primitive.ObjectID, event string, data interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyUser(userID.Hex(), event, data)
}
