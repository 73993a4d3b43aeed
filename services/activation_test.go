package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAddVolumeCreatesMonthLazily(t *testing.T) {
	tracker := NewActivationTracker(newFakeMonths())
	id := primitive.NewObjectID()

	month, became, err := tracker.AddVolume(context.Background(), id, "2026-08", 1000, 2500)
	require.NoError(t, err)
	assert.False(t, became)
	assert.Equal(t, 1000.0, month.NetVolume)
	assert.False(t, month.IsActive)
}

func TestAddVolumeReportsActivationEdgeOnce(t *testing.T) {
	tracker := NewActivationTracker(newFakeMonths())
	id := primitive.NewObjectID()
	ctx := context.Background()

	_, became, err := tracker.AddVolume(ctx, id, "2026-08", 2000, 2500)
	require.NoError(t, err)
	assert.False(t, became)

	_, became, err = tracker.AddVolume(ctx, id, "2026-08", 600, 2500)
	require.NoError(t, err)
	assert.True(t, became, "crossing the threshold reports the flip")

	month, became, err := tracker.AddVolume(ctx, id, "2026-08", 100, 2500)
	require.NoError(t, err)
	assert.False(t, became, "already active, no second edge")
	assert.Equal(t, 2700.0, month.NetVolume)
	assert.True(t, month.IsActive)
}

func TestAddVolumeMonthsAreIndependent(t *testing.T) {
	tracker := NewActivationTracker(newFakeMonths())
	id := primitive.NewObjectID()
	ctx := context.Background()

	_, _, err := tracker.AddVolume(ctx, id, "2026-08", 3000, 2500)
	require.NoError(t, err)

	active, err := tracker.IsActive(ctx, id, "2026-09")
	require.NoError(t, err)
	assert.False(t, active, "activation does not carry into the next month")

	net, err := tracker.NetVolume(ctx, id, "2026-09")
	require.NoError(t, err)
	assert.Equal(t, 0.0, net)
}

func TestIsActiveMissingMonth(t *testing.T) {
	tracker := NewActivationTracker(newFakeMonths())

	active, err := tracker.IsActive(context.Background(), primitive.NewObjectID(), "2026-08")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestActiveLookupMemoizes(t *testing.T) {
	months := newFakeMonths()
	tracker := NewActivationTracker(months)
	id := primitive.NewObjectID()
	ctx := context.Background()

	lookup := tracker.ActiveLookupForMonth("2026-08")
	active, err := lookup(ctx, id)
	require.NoError(t, err)
	assert.False(t, active)

	// The associate activates after the lookup cached the answer; the
	// cached result stays, a fresh lookup sees the new state.
	_, _, err = tracker.AddVolume(ctx, id, "2026-08", 3000, 2500)
	require.NoError(t, err)

	active, err = lookup(ctx, id)
	require.NoError(t, err)
	assert.False(t, active)

	fresh := tracker.ActiveLookupForMonth("2026-08")
	active, err = fresh(ctx, id)
	require.NoError(t, err)
	assert.True(t, active)
}
