package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/findingu/multinivel_backend/models"
)

func newLedgerForTest(store LedgerStore) *CommissionLedger {
	gate := NewBlockGate(NewUplineResolver(newFakeCustomers()))
	return NewCommissionLedger(store, gate)
}

func pendingRow(orderID string, level int, amount float64, source primitive.ObjectID) models.CommissionRow {
	return models.CommissionRow{
		OrderID:       orderID,
		SourceBuyerID: &source,
		Level:         level,
		Rate:          0.10,
		Amount:        amount,
		Status:        models.CommissionStatusPending,
	}
}

func TestUpsertRowCreatesAndRecomputes(t *testing.T) {
	store := newFakeLedgers()
	ledger := newLedgerForTest(store)
	beneficiary := primitive.NewObjectID()
	source := primitive.NewObjectID()

	delta, err := ledger.UpsertRow(context.Background(), beneficiary, "2026-08", pendingRow("O1", 1, 100, source))
	require.NoError(t, err)
	assert.Equal(t, 100.0, delta)

	stored, ok := store.stored(beneficiary, "2026-08")
	require.True(t, ok)
	require.Len(t, stored.Ledger, 1)
	assert.Equal(t, "O1#L1", stored.Ledger[0].RowID)
	assert.Equal(t, 100.0, stored.TotalPending)
	assert.Equal(t, 0.0, stored.TotalConfirmed)
	assert.Equal(t, 0.0, stored.TotalBlocked)
}

func TestUpsertRowReplayIsIdempotent(t *testing.T) {
	store := newFakeLedgers()
	ledger := newLedgerForTest(store)
	beneficiary := primitive.NewObjectID()
	source := primitive.NewObjectID()
	ctx := context.Background()

	_, err := ledger.UpsertRow(ctx, beneficiary, "2026-08", pendingRow("O1", 1, 100, source))
	require.NoError(t, err)

	delta, err := ledger.UpsertRow(ctx, beneficiary, "2026-08", pendingRow("O1", 1, 100, source))
	require.NoError(t, err)
	assert.Equal(t, 0.0, delta, "replaying the same row changes nothing")

	stored, _ := store.stored(beneficiary, "2026-08")
	assert.Len(t, stored.Ledger, 1)
	assert.Equal(t, 100.0, stored.TotalPending)
}

func TestUpsertRowReplaceReportsDelta(t *testing.T) {
	store := newFakeLedgers()
	ledger := newLedgerForTest(store)
	beneficiary := primitive.NewObjectID()
	source := primitive.NewObjectID()
	ctx := context.Background()

	_, err := ledger.UpsertRow(ctx, beneficiary, "2026-08", pendingRow("O1", 1, 100, source))
	require.NoError(t, err)

	delta, err := ledger.UpsertRow(ctx, beneficiary, "2026-08", pendingRow("O1", 1, 140, source))
	require.NoError(t, err)
	assert.Equal(t, 40.0, delta)

	stored, _ := store.stored(beneficiary, "2026-08")
	require.Len(t, stored.Ledger, 1)
	assert.Equal(t, 140.0, stored.Ledger[0].Amount)
	assert.Equal(t, 140.0, stored.TotalPending)
}

func TestUpsertRowSeparateLevelsCoexist(t *testing.T) {
	store := newFakeLedgers()
	ledger := newLedgerForTest(store)
	beneficiary := primitive.NewObjectID()
	source := primitive.NewObjectID()
	ctx := context.Background()

	_, err := ledger.UpsertRow(ctx, beneficiary, "2026-08", pendingRow("O1", 1, 100, source))
	require.NoError(t, err)
	_, err = ledger.UpsertRow(ctx, beneficiary, "2026-08", pendingRow("O2", 2, 50, source))
	require.NoError(t, err)

	stored, _ := store.stored(beneficiary, "2026-08")
	assert.Len(t, stored.Ledger, 2)
	assert.Equal(t, 150.0, stored.TotalPending)
}

func TestConfirmForOrderFlipsPendingOnly(t *testing.T) {
	store := newFakeLedgers()
	ledger := newLedgerForTest(store)
	beneficiary := primitive.NewObjectID()
	source := primitive.NewObjectID()
	blocker := primitive.NewObjectID()
	ctx := context.Background()

	_, err := ledger.UpsertRow(ctx, beneficiary, "2026-08", pendingRow("O1", 1, 100, source))
	require.NoError(t, err)

	blockedRow := pendingRow("O1", 2, 50, source)
	blockedRow.Status = models.CommissionStatusBlocked
	blockedRow.BlockedBy = &blocker
	blockedRow.BlockedStatus = models.CommissionStatusPending
	_, err = ledger.UpsertRow(ctx, beneficiary, "2026-08", blockedRow)
	require.NoError(t, err)

	_, err = ledger.UpsertRow(ctx, beneficiary, "2026-08", pendingRow("O2", 1, 70, source))
	require.NoError(t, err)

	action, err := ledger.ConfirmForOrder(ctx, beneficiary, "2026-08", "O1")
	require.NoError(t, err)
	require.NotNil(t, action)
	assert.Equal(t, 1, action.ConfirmedCount)
	assert.Equal(t, 1, action.MarkedCount)
	assert.Equal(t, 100.0, action.Amount)

	stored, _ := store.stored(beneficiary, "2026-08")
	assert.Equal(t, 70.0, stored.TotalPending, "other order untouched")
	assert.Equal(t, 100.0, stored.TotalConfirmed)
	assert.Equal(t, 50.0, stored.TotalBlocked, "blocked row stays blocked")

	for _, row := range stored.Ledger {
		if row.RowID == "O1#L2" {
			assert.Equal(t, models.CommissionStatusBlocked, row.Status)
			assert.Equal(t, models.CommissionStatusConfirmed, row.BlockedStatus)
		}
	}

	// Replaying the confirmation is a no-op.
	action, err = ledger.ConfirmForOrder(ctx, beneficiary, "2026-08", "O1")
	require.NoError(t, err)
	assert.Nil(t, action)
}

func TestVoidForOrderRemovesExactlyItsRows(t *testing.T) {
	store := newFakeLedgers()
	ledger := newLedgerForTest(store)
	beneficiary := primitive.NewObjectID()
	source := primitive.NewObjectID()
	blocker := primitive.NewObjectID()
	ctx := context.Background()

	_, err := ledger.UpsertRow(ctx, beneficiary, "2026-08", pendingRow("O1", 1, 100, source))
	require.NoError(t, err)

	blockedRow := pendingRow("O1", 2, 50, source)
	blockedRow.Status = models.CommissionStatusBlocked
	blockedRow.BlockedBy = &blocker
	_, err = ledger.UpsertRow(ctx, beneficiary, "2026-08", blockedRow)
	require.NoError(t, err)

	_, err = ledger.UpsertRow(ctx, beneficiary, "2026-08", pendingRow("O2", 1, 70, source))
	require.NoError(t, err)
	_, err = ledger.ConfirmForOrder(ctx, beneficiary, "2026-08", "O2")
	require.NoError(t, err)

	action, err := ledger.VoidForOrder(ctx, beneficiary, "2026-08", "O1", "canceled")
	require.NoError(t, err)
	require.NotNil(t, action)
	assert.Equal(t, 100.0, action.PendingRemoved)
	assert.Equal(t, 0.0, action.ConfirmedRemoved)
	assert.Equal(t, 50.0, action.BlockedRemoved)

	stored, _ := store.stored(beneficiary, "2026-08")
	require.Len(t, stored.Ledger, 1)
	assert.Equal(t, "O2#L1", stored.Ledger[0].RowID)
	assert.Equal(t, 0.0, stored.TotalPending)
	assert.Equal(t, 70.0, stored.TotalConfirmed)
	assert.Equal(t, 0.0, stored.TotalBlocked)

	// Voiding again finds nothing.
	action, err = ledger.VoidForOrder(ctx, beneficiary, "2026-08", "O1", "canceled")
	require.NoError(t, err)
	assert.Nil(t, action)
}

func TestUnblockReleasesWhenGateClears(t *testing.T) {
	d := member(models.LevelTop, nil)
	c := member(models.LevelMid, d)
	b := member(models.LevelMid, c)
	a := member(models.LevelBase, b)
	gate := NewBlockGate(NewUplineResolver(newFakeCustomers(a, b, c, d)))
	store := newFakeLedgers()
	ledger := NewCommissionLedger(store, gate)
	ctx := context.Background()

	row := pendingRow("O1", 2, 50, a.ID)
	row.Status = models.CommissionStatusBlocked
	row.BlockedBy = &c.ID
	row.BlockedStatus = models.CommissionStatusConfirmed
	_, err := ledger.UpsertRow(ctx, c.ID, "2026-08", row)
	require.NoError(t, err)

	released, err := ledger.UnblockIfEligible(ctx, c.ID, "2026-08", c.ID, activeSet(b.ID, c.ID))
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	stored, _ := store.stored(c.ID, "2026-08")
	require.Len(t, stored.Ledger, 1)
	got := stored.Ledger[0]
	assert.Equal(t, models.CommissionStatusConfirmed, got.Status, "delivery already confirmed this row")
	assert.Nil(t, got.BlockedBy)
	assert.Empty(t, got.BlockedStatus)
	assert.Equal(t, 50.0, stored.TotalConfirmed)
	assert.Equal(t, 0.0, stored.TotalBlocked)
}

func TestUnblockReattributesWhenStillBlocked(t *testing.T) {
	d := member(models.LevelTop, nil)
	c := member(models.LevelMid, d)
	b := member(models.LevelMid, c)
	a := member(models.LevelBase, b)
	gate := NewBlockGate(NewUplineResolver(newFakeCustomers(a, b, c, d)))
	store := newFakeLedgers()
	ledger := NewCommissionLedger(store, gate)
	ctx := context.Background()

	row := pendingRow("O1", 2, 50, a.ID)
	row.Status = models.CommissionStatusBlocked
	row.BlockedBy = &c.ID
	row.BlockedStatus = models.CommissionStatusPending
	_, err := ledger.UpsertRow(ctx, c.ID, "2026-08", row)
	require.NoError(t, err)

	// C activated but B did not: the row stays blocked, now charged to B.
	released, err := ledger.UnblockIfEligible(ctx, c.ID, "2026-08", c.ID, activeSet(c.ID))
	require.NoError(t, err)
	assert.Equal(t, 0, released)

	stored, _ := store.stored(c.ID, "2026-08")
	got := stored.Ledger[0]
	assert.Equal(t, models.CommissionStatusBlocked, got.Status)
	require.NotNil(t, got.BlockedBy)
	assert.Equal(t, b.ID, *got.BlockedBy)
}

func TestMutateRetriesOnVersionConflict(t *testing.T) {
	store := newFakeLedgers()
	ledger := newLedgerForTest(store)
	beneficiary := primitive.NewObjectID()
	source := primitive.NewObjectID()
	ctx := context.Background()

	store.conflictsLeft = 1
	delta, err := ledger.UpsertRow(ctx, beneficiary, "2026-08", pendingRow("O1", 1, 100, source))
	require.NoError(t, err)
	assert.Equal(t, 100.0, delta)

	stored, ok := store.stored(beneficiary, "2026-08")
	require.True(t, ok)
	assert.Len(t, stored.Ledger, 1)
}

func TestMutateGivesUpAfterRepeatedConflicts(t *testing.T) {
	store := newFakeLedgers()
	ledger := newLedgerForTest(store)
	ctx := context.Background()

	store.conflictsLeft = ledgerWriteAttempts
	_, err := ledger.UpsertRow(ctx, primitive.NewObjectID(), "2026-08", pendingRow("O1", 1, 100, primitive.NewObjectID()))
	require.Error(t, err)

	var ledgerErr *LedgerError
	require.ErrorAs(t, err, &ledgerErr)
	assert.Equal(t, "upsert", ledgerErr.Op)
}

func TestViewFiltersByStatus(t *testing.T) {
	store := newFakeLedgers()
	ledger := newLedgerForTest(store)
	beneficiary := primitive.NewObjectID()
	source := primitive.NewObjectID()
	ctx := context.Background()

	_, err := ledger.UpsertRow(ctx, beneficiary, "2026-08", pendingRow("O1", 1, 100, source))
	require.NoError(t, err)
	_, err = ledger.UpsertRow(ctx, beneficiary, "2026-08", pendingRow("O2", 1, 70, source))
	require.NoError(t, err)
	_, err = ledger.ConfirmForOrder(ctx, beneficiary, "2026-08", "O2")
	require.NoError(t, err)

	view, err := ledger.View(ctx, beneficiary, "2026-08", "")
	require.NoError(t, err)
	assert.Equal(t, 2, view.Count)
	assert.Equal(t, 170.0, view.Total)
	assert.Equal(t, 100.0, view.TotalPending)
	assert.Equal(t, 70.0, view.TotalConfirmed)

	view, err = ledger.View(ctx, beneficiary, "2026-08", models.CommissionStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Count)
	assert.Equal(t, 70.0, view.Total)
}

func TestViewMissingLedgerIsEmpty(t *testing.T) {
	ledger := newLedgerForTest(newFakeLedgers())

	view, err := ledger.View(context.Background(), primitive.NewObjectID(), "2026-08", "")
	require.NoError(t, err)
	assert.Equal(t, 0, view.Count)
	assert.Empty(t, view.Rows)
}
