package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Commission row statuses. A blocked row remembers which upline node blocked
// it and what status it should resume once that node activates.
const (
	CommissionStatusPending   = "pending"
	CommissionStatusConfirmed = "confirmed"
	CommissionStatusBlocked   = "blocked"
)

// CommissionRowID builds the deterministic identity of a ledger row. One
// order pays at most one row per depth, so (orderId, level) is the
// idempotency key for retried paid-transition events.
func CommissionRowID(orderID string, level int) string {
	return fmt.Sprintf("%s#L%d", orderID, level)
}

// CommissionRow is one commission entry: a specific order paying a specific
// depth of the source buyer's upline. Level 0 is the guest one-shot referral.
type CommissionRow struct {
	RowID         string              `bson:"rowId" json:"rowId"`
	OrderID       string              `bson:"orderId" json:"orderId"`
	SourceBuyerID *primitive.ObjectID `bson:"sourceBuyerId,omitempty" json:"sourceBuyerId,omitempty"`
	Level         int                 `bson:"level" json:"level"`
	Rate          float64             `bson:"rate" json:"rate"`
	Amount        float64             `bson:"amount" json:"amount"`
	Status        string              `bson:"status" json:"status"`
	BlockedBy     *primitive.ObjectID `bson:"blockedBy,omitempty" json:"blockedBy,omitempty"`
	BlockedStatus string              `bson:"blockedStatus,omitempty" json:"blockedStatus,omitempty"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
}

// AssociateMonth tracks one associate's accumulated net sales volume within
// a calendar month. IsActive is derived from the configured activation
// minimum, never set directly.
type AssociateMonth struct {
	ID          string             `bson:"_id" json:"id"`
	AssociateID primitive.ObjectID `bson:"associateId" json:"associateId"`
	MonthKey    string             `bson:"monthKey" json:"monthKey"`
	NetVolume   float64            `bson:"netVolume" json:"netVolume"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// AssociateMonthID is the storage key for an associate's month record.
func AssociateMonthID(associateID primitive.ObjectID, monthKey string) string {
	return associateID.Hex() + "#" + monthKey
}

// CommissionMonth holds every commission row earned by one beneficiary in
// one month plus cached totals. The totals are a pure function of the row
// list; Recompute is the only way they change.
type CommissionMonth struct {
	ID             string             `bson:"_id" json:"id"`
	BeneficiaryID  primitive.ObjectID `bson:"beneficiaryId" json:"beneficiaryId"`
	MonthKey       string             `bson:"monthKey" json:"monthKey"`
	Ledger         []CommissionRow    `bson:"ledger" json:"ledger"`
	TotalPending   float64            `bson:"totalPending" json:"totalPending"`
	TotalConfirmed float64            `bson:"totalConfirmed" json:"totalConfirmed"`
	TotalBlocked   float64            `bson:"totalBlocked" json:"totalBlocked"`

	// Version guards the read-recompute-write cycle: the repository only
	// persists when the stored version still matches.
	Version   int64     `bson:"version" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// CommissionMonthID is the storage key for a beneficiary's month ledger.
func CommissionMonthID(beneficiaryID primitive.ObjectID, monthKey string) string {
	return beneficiaryID.Hex() + "#" + monthKey
}

// Recompute resets the cached totals by resumming the row list partitioned
// by status.
func (m *CommissionMonth) Recompute() {
	var pending, confirmed, blocked float64
	for _, row := range m.Ledger {
		switch row.Status {
		case CommissionStatusPending:
			pending += row.Amount
		case CommissionStatusConfirmed:
			confirmed += row.Amount
		case CommissionStatusBlocked:
			blocked += row.Amount
		}
	}
	m.TotalPending = pending
	m.TotalConfirmed = confirmed
	m.TotalBlocked = blocked
}

// RowsForOrder returns the rows belonging to the given order.
func (m *CommissionMonth) RowsForOrder(orderID string) []CommissionRow {
	var out []CommissionRow
	for _, row := range m.Ledger {
		if row.OrderID == orderID {
			out = append(out, row)
		}
	}
	return out
}

// PayoutRequest records an associate asking for their confirmed commissions
// to be deposited.
type PayoutRequest struct {
	ID            string             `bson:"_id" json:"id"`
	BeneficiaryID primitive.ObjectID `bson:"beneficiaryId" json:"beneficiaryId"`
	MonthKey      string             `bson:"monthKey" json:"monthKey"`
	Amount        float64            `bson:"amount" json:"amount"`
	Status        string             `bson:"status" json:"status"`
	ClabeLast4    string             `bson:"clabeLast4" json:"clabeLast4"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
