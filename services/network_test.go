package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findingu/multinivel_backend/models"
	"github.com/findingu/multinivel_backend/utils"
)

func newNetworkFixture(customers *fakeCustomers) (*NetworkService, *ActivationTracker) {
	tracker := NewActivationTracker(newFakeMonths())
	return NewNetworkService(customers, tracker, newFakeConfigs()), tracker
}

func TestBuildTreeSortsChildrenBySpend(t *testing.T) {
	root := member(models.LevelTop, nil)
	low := member(models.LevelMid, root)
	high := member(models.LevelMid, root)
	svc, tracker := newNetworkFixture(newFakeCustomers(root, low, high))
	ctx := context.Background()

	_, _, err := tracker.AddVolume(ctx, low.ID, "2026-08", 500, 2500)
	require.NoError(t, err)
	_, _, err = tracker.AddVolume(ctx, high.ID, "2026-08", 4000, 2500)
	require.NoError(t, err)

	tree, err := svc.BuildTree(ctx, root.ID, "2026-08", -1)
	require.NoError(t, err)
	require.Len(t, tree.Children, 2)
	assert.Equal(t, high.ID.Hex(), tree.Children[0].ID)
	assert.Equal(t, 4000.0, tree.Children[0].MonthSpend)
	assert.True(t, tree.Children[0].IsActive)
	assert.Equal(t, low.ID.Hex(), tree.Children[1].ID)
	assert.False(t, tree.Children[1].IsActive)
}

func TestBuildTreeTrimsDepth(t *testing.T) {
	root := member(models.LevelTop, nil)
	mid := member(models.LevelMid, root)
	leaf := member(models.LevelBase, mid)
	svc, _ := newNetworkFixture(newFakeCustomers(root, mid, leaf))

	tree, err := svc.BuildTree(context.Background(), root.ID, "2026-08", 1)
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	assert.Empty(t, tree.Children[0].Children, "grandchildren trimmed at depth 1")
}

func TestBuildTreeUnknownRoot(t *testing.T) {
	other := member(models.LevelTop, nil)
	svc, _ := newNetworkFixture(newFakeCustomers(other))

	ghost := member(models.LevelTop, nil)
	tree, err := svc.BuildTree(context.Background(), ghost.ID, "2026-08", -1)
	require.NoError(t, err)
	assert.Equal(t, ghost.ID.Hex(), tree.ID)
	assert.Empty(t, tree.Children)
}

func TestMembersFlattensWithStatuses(t *testing.T) {
	root := member(models.LevelTop, nil)
	active := member(models.LevelMid, root)
	progress := member(models.LevelMid, root)
	idle := member(models.LevelBase, active)
	svc, tracker := newNetworkFixture(newFakeCustomers(root, active, progress, idle))
	ctx := context.Background()

	_, _, err := tracker.AddVolume(ctx, active.ID, "2026-08", 3000, 2500)
	require.NoError(t, err)
	_, _, err = tracker.AddVolume(ctx, progress.ID, "2026-08", 800, 2500)
	require.NoError(t, err)

	tree, err := svc.BuildTree(ctx, root.ID, "2026-08", -1)
	require.NoError(t, err)

	rows := svc.Members(tree, 30)
	require.Len(t, rows, 3)

	byID := make(map[string]models.NetworkMember)
	for _, row := range rows {
		byID[row.ID] = row
	}
	assert.Equal(t, "Activa", byID[active.ID.Hex()].Status)
	assert.Equal(t, "L1", byID[active.ID.Hex()].Level)
	assert.Equal(t, "En progreso", byID[progress.ID.Hex()].Status)
	assert.Equal(t, "Inactiva", byID[idle.ID.Hex()].Status)
	assert.Equal(t, "L2", byID[idle.ID.Hex()].Level)
}

func TestMembersRowCap(t *testing.T) {
	root := member(models.LevelTop, nil)
	customers := newFakeCustomers(root)
	for i := 0; i < 10; i++ {
		c := member(models.LevelMid, root)
		customers.byID[c.ID] = c
	}
	svc, _ := newNetworkFixture(customers)

	tree, err := svc.BuildTree(context.Background(), root.ID, "2026-08", -1)
	require.NoError(t, err)
	assert.Len(t, svc.Members(tree, 4), 4)
}

func TestBuildGoalsPrimarySelection(t *testing.T) {
	root := member(models.LevelMid, nil)
	root.CreatedAt = time.Now().AddDate(0, -2, 0)
	svc, tracker := newNetworkFixture(newFakeCustomers(root))
	ctx := context.Background()

	// Inactive, no network: the activation goal leads.
	tree, err := svc.BuildTree(ctx, root.ID, "2026-08", -1)
	require.NoError(t, err)
	goals, err := svc.BuildGoals(ctx, root, tree, "2026-08")
	require.NoError(t, err)
	require.Len(t, goals, 8)

	assert.Equal(t, models.GoalKeyActive, goals[0].Key)
	assert.True(t, goals[0].Primary)
	primaries := 0
	for _, g := range goals {
		if g.Primary {
			primaries++
		} else {
			assert.True(t, g.Secondary)
		}
	}
	assert.Equal(t, 1, primaries)

	// Once active, the primary moves to the next open goal.
	_, _, err = tracker.AddVolume(ctx, root.ID, "2026-08", 3000, 2500)
	require.NoError(t, err)
	tree, err = svc.BuildTree(ctx, root.ID, "2026-08", -1)
	require.NoError(t, err)
	goals, err = svc.BuildGoals(ctx, root, tree, "2026-08")
	require.NoError(t, err)
	assert.True(t, goals[0].Achieved)
	assert.False(t, goals[0].Primary)
	assert.True(t, goals[1].Primary)
}

func TestBuildGoalsLockedForNonReferringLevel(t *testing.T) {
	leader := member(models.LevelMid, nil)
	base := member(models.LevelBase, leader)
	svc, _ := newNetworkFixture(newFakeCustomers(leader, base))
	ctx := context.Background()

	tree, err := svc.BuildTree(ctx, base.ID, "2026-08", -1)
	require.NoError(t, err)
	goals, err := svc.BuildGoals(ctx, base, tree, "2026-08")
	require.NoError(t, err)

	byKey := make(map[string]models.Goal)
	for _, g := range goals {
		byKey[g.Key] = g
	}
	assert.True(t, byKey[models.GoalKeyInvite].Locked)
	assert.True(t, byKey[models.GoalKeyNetworkReplicated].Locked)
	assert.True(t, byKey[models.GoalKeyDirectAllActive].Locked, "no direct members yet")
}

func TestBuildGoalsCountsNewDirectsThisMonth(t *testing.T) {
	root := member(models.LevelMid, nil)
	root.CreatedAt = time.Now().AddDate(0, -3, 0)
	fresh := member(models.LevelBase, root)
	fresh.CreatedAt = time.Now()
	old := member(models.LevelBase, root)
	old.CreatedAt = time.Now().AddDate(0, -2, 0)
	svc, _ := newNetworkFixture(newFakeCustomers(root, fresh, old))
	ctx := context.Background()

	tree, err := svc.BuildTree(ctx, root.ID, "2026-08", -1)
	require.NoError(t, err)
	goals, err := svc.BuildGoals(ctx, root, tree, utils.CurrentMonthKey())
	require.NoError(t, err)

	var invite models.Goal
	for _, g := range goals {
		if g.Key == models.GoalKeyInvite {
			invite = g
		}
	}
	assert.Equal(t, 1.0, invite.Base, "only this month's signup counts")
	assert.True(t, invite.Achieved)
}
