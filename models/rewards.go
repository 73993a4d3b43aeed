package models

// RewardsResult reports everything the paid transition computed: the money
// breakdown persisted on the order, the upline chain walked, whether the
// chain was cut by an inactive node, and every ledger row written.
type RewardsResult struct {
	OrderID        string          `json:"orderId"`
	MonthKey       string          `json:"monthKey"`
	GrossSubtotal  float64         `json:"grossSubtotal"`
	DiscountRate   float64         `json:"discountRate"`
	DiscountAmount float64         `json:"discountAmount"`
	NetTotal       float64         `json:"netTotal"`
	Mode           string          `json:"mode"`
	UplineChain    []string        `json:"uplineChain,omitempty"`
	Cut            bool            `json:"cut"`
	BecameActive   bool            `json:"becameActive"`
	RowsCreated    []CreatedRow    `json:"rowsCreated"`
}

// Reward application modes.
const (
	RewardsModeMultilevel   = "multilevel"
	RewardsModeGuestOneShot = "guest_one_shot"
	RewardsModeNone         = "none"
)

// CreatedRow is one ledger row written during the paid transition, tagged
// with the beneficiary who owns it.
type CreatedRow struct {
	BeneficiaryID string        `json:"beneficiaryId"`
	MonthKey      string        `json:"monthKey"`
	Row           CommissionRow `json:"row"`
}

// ConfirmationAction reports, per beneficiary, what the delivered transition
// confirmed.
type ConfirmationAction struct {
	BeneficiaryID  string  `json:"beneficiaryId"`
	OrderID        string  `json:"orderId"`
	ConfirmedCount int     `json:"confirmedCount"`
	MarkedCount    int     `json:"markedCount"`
	Amount         float64 `json:"amount"`
}

// VoidAction reports, per beneficiary, the row amounts removed when an order
// was canceled or refunded, partitioned by their prior status.
type VoidAction struct {
	BeneficiaryID    string  `json:"beneficiaryId"`
	OrderID          string  `json:"orderId"`
	PendingRemoved   float64 `json:"pendingRemoved"`
	ConfirmedRemoved float64 `json:"confirmedRemoved"`
	BlockedRemoved   float64 `json:"blockedRemoved"`
	Reason           string  `json:"reason"`
}

// LedgerView is the read model for a beneficiary's month ledger.
type LedgerView struct {
	BeneficiaryID  string          `json:"beneficiaryId"`
	MonthKey       string          `json:"monthKey"`
	Rows           []CommissionRow `json:"rows"`
	Count          int             `json:"count"`
	Total          float64         `json:"total"`
	TotalPending   float64         `json:"totalPending"`
	TotalConfirmed float64         `json:"totalConfirmed"`
	TotalBlocked   float64         `json:"totalBlocked"`
}
