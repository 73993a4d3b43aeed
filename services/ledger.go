package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/findingu/multinivel_backend/models"
	"github.com/findingu/multinivel_backend/repositories"
)

// ledgerWriteAttempts bounds the re-read/retry loop around version-guarded
// ledger writes.
const ledgerWriteAttempts = 3

// CommissionLedger owns every mutation of a beneficiary's monthly commission
// rows. Row identity is (orderId, level), making each mutation safe to
// replay, and cached totals are recomputed from the full row list after
// every change.
type CommissionLedger struct {
	store LedgerStore
	gate  *BlockGate
}

func NewCommissionLedger(store LedgerStore, gate *BlockGate) *CommissionLedger {
	return &CommissionLedger{store: store, gate: gate}
}

func (l *CommissionLedger) load(ctx context.Context, beneficiaryID primitive.ObjectID, monthKey string) (*models.CommissionMonth, error) {
	month, err := l.store.Get(ctx, beneficiaryID, monthKey)
	if errors.Is(err, repositories.ErrNotFound) {
		return &models.CommissionMonth{
			BeneficiaryID: beneficiaryID,
			MonthKey:      monthKey,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return month, nil
}

// mutate runs fn against the current ledger state and persists the result
// when fn reports a change. A lost version race re-reads and replays fn, so
// fn must be pure against the record it is given.
func (l *CommissionLedger) mutate(ctx context.Context, beneficiaryID primitive.ObjectID, monthKey, op string, fn func(month *models.CommissionMonth) (bool, error)) error {
	var lastErr error
	for attempt := 0; attempt < ledgerWriteAttempts; attempt++ {
		month, err := l.load(ctx, beneficiaryID, monthKey)
		if err != nil {
			return &LedgerError{Op: op, Err: err}
		}

		changed, err := fn(month)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}

		month.Recompute()
		err = l.store.Put(ctx, month)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repositories.ErrVersionConflict) {
			return &LedgerError{Op: op, Err: err}
		}
		lastErr = err
	}
	return &LedgerError{Op: op, Err: lastErr}
}

// UpsertRow writes one commission row. An existing row with the same
// (orderId, level) identity is replaced in place so retried paid events
// cannot duplicate commissions. The returned delta (new amount minus old) is
// what the caller applies to the beneficiary's cached display total.
func (l *CommissionLedger) UpsertRow(ctx context.Context, beneficiaryID primitive.ObjectID, monthKey string, row models.CommissionRow) (float64, error) {
	if row.RowID == "" {
		row.RowID = models.CommissionRowID(row.OrderID, row.Level)
	}
	if row.Status == "" {
		row.Status = models.CommissionStatusPending
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}

	var delta float64
	err := l.mutate(ctx, beneficiaryID, monthKey, "upsert", func(month *models.CommissionMonth) (bool, error) {
		for i := range month.Ledger {
			if month.Ledger[i].RowID == row.RowID {
				delta = row.Amount - month.Ledger[i].Amount
				row.CreatedAt = month.Ledger[i].CreatedAt
				month.Ledger[i] = row
				return true, nil
			}
		}
		delta = row.Amount
		month.Ledger = append(month.Ledger, row)
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	return delta, nil
}

// ConfirmForOrder flips the order's pending rows to confirmed. Blocked rows
// are not released: they record that their eventual status is confirmed and
// stay blocked until the unblock sweep clears them. No rows are added or
// removed and no amounts change.
func (l *CommissionLedger) ConfirmForOrder(ctx context.Context, beneficiaryID primitive.ObjectID, monthKey, orderID string) (*models.ConfirmationAction, error) {
	var action *models.ConfirmationAction
	err := l.mutate(ctx, beneficiaryID, monthKey, "confirm", func(month *models.CommissionMonth) (bool, error) {
		action = nil
		confirmed := 0
		marked := 0
		var amount float64

		for i := range month.Ledger {
			row := &month.Ledger[i]
			if row.OrderID != orderID {
				continue
			}
			switch row.Status {
			case models.CommissionStatusPending:
				row.Status = models.CommissionStatusConfirmed
				confirmed++
				amount += row.Amount
			case models.CommissionStatusBlocked:
				if row.BlockedStatus != models.CommissionStatusConfirmed {
					row.BlockedStatus = models.CommissionStatusConfirmed
					marked++
				}
			}
		}

		if confirmed == 0 && marked == 0 {
			return false, nil
		}
		action = &models.ConfirmationAction{
			BeneficiaryID:  beneficiaryID.Hex(),
			OrderID:        orderID,
			ConfirmedCount: confirmed,
			MarkedCount:    marked,
			Amount:         amount,
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return action, nil
}

// VoidForOrder removes every row belonging to the order regardless of status
// and reports the removed amounts partitioned by their prior status, so the
// caller can decrement the beneficiary's cached total by the full sum.
func (l *CommissionLedger) VoidForOrder(ctx context.Context, beneficiaryID primitive.ObjectID, monthKey, orderID, reason string) (*models.VoidAction, error) {
	var action *models.VoidAction
	err := l.mutate(ctx, beneficiaryID, monthKey, "void", func(month *models.CommissionMonth) (bool, error) {
		action = nil
		kept := month.Ledger[:0:0]
		var pending, confirmed, blocked float64
		removed := 0

		for _, row := range month.Ledger {
			if row.OrderID != orderID {
				kept = append(kept, row)
				continue
			}
			removed++
			switch row.Status {
			case models.CommissionStatusPending:
				pending += row.Amount
			case models.CommissionStatusConfirmed:
				confirmed += row.Amount
			case models.CommissionStatusBlocked:
				blocked += row.Amount
			}
		}

		if removed == 0 {
			return false, nil
		}
		month.Ledger = kept
		action = &models.VoidAction{
			BeneficiaryID:    beneficiaryID.Hex(),
			OrderID:          orderID,
			PendingRemoved:   pending,
			ConfirmedRemoved: confirmed,
			BlockedRemoved:   blocked,
			Reason:           reason,
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return action, nil
}

// UnblockIfEligible re-evaluates every row blocked by causingID now that its
// activation state changed. Rows the gate clears resume their recorded
// blocked status (pending unless delivery already confirmed them); rows
// still blocked are re-attributed to whichever node blocks them now.
// Returns the number of rows released.
func (l *CommissionLedger) UnblockIfEligible(ctx context.Context, beneficiaryID primitive.ObjectID, monthKey string, causingID primitive.ObjectID, lookup ActiveLookup) (int, error) {
	released := 0
	err := l.mutate(ctx, beneficiaryID, monthKey, "unblock", func(month *models.CommissionMonth) (bool, error) {
		released = 0
		changed := false

		for i := range month.Ledger {
			row := &month.Ledger[i]
			if row.Status != models.CommissionStatusBlocked || row.BlockedBy == nil || *row.BlockedBy != causingID {
				continue
			}
			if row.SourceBuyerID == nil {
				continue
			}

			blocked, blockingID, err := l.gate.ShouldBlock(ctx, *row.SourceBuyerID, row.Level, lookup)
			if err != nil {
				return false, err
			}
			if blocked {
				if blockingID != nil && *blockingID != causingID {
					row.BlockedBy = blockingID
					changed = true
				}
				continue
			}

			restored := row.BlockedStatus
			if restored == "" {
				restored = models.CommissionStatusPending
			}
			row.Status = restored
			row.BlockedBy = nil
			row.BlockedStatus = ""
			released++
			changed = true
		}

		return changed, nil
	})
	if err != nil {
		return 0, err
	}
	return released, nil
}

// View returns the rows of a beneficiary's month, optionally filtered by
// status, together with the cached totals. A missing ledger is an empty
// view, not an error.
func (l *CommissionLedger) View(ctx context.Context, beneficiaryID primitive.ObjectID, monthKey, statusFilter string) (*models.LedgerView, error) {
	month, err := l.load(ctx, beneficiaryID, monthKey)
	if err != nil {
		return nil, err
	}

	view := &models.LedgerView{
		BeneficiaryID:  beneficiaryID.Hex(),
		MonthKey:       monthKey,
		Rows:           []models.CommissionRow{},
		TotalPending:   month.TotalPending,
		TotalConfirmed: month.TotalConfirmed,
		TotalBlocked:   month.TotalBlocked,
	}
	for _, row := range month.Ledger {
		if statusFilter != "" && row.Status != statusFilter {
			continue
		}
		view.Rows = append(view.Rows, row)
		view.Total += row.Amount
	}
	view.Count = len(view.Rows)
	return view, nil
}
