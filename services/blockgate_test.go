package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/findingu/multinivel_backend/models"
)

func alwaysActive(_ context.Context, _ primitive.ObjectID) (bool, error) {
	return true, nil
}

func activeSet(active ...primitive.ObjectID) ActiveLookup {
	set := make(map[primitive.ObjectID]bool, len(active))
	for _, id := range active {
		set[id] = true
	}
	return func(_ context.Context, id primitive.ObjectID) (bool, error) {
		return set[id], nil
	}
}

func TestShouldBlockLevelZero(t *testing.T) {
	gate := NewBlockGate(NewUplineResolver(newFakeCustomers()))

	blocked, _, err := gate.ShouldBlock(context.Background(), primitive.NewObjectID(), 0, alwaysActive)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestShouldBlockShortChain(t *testing.T) {
	top := member(models.LevelTop, nil)
	base := member(models.LevelBase, top)
	gate := NewBlockGate(NewUplineResolver(newFakeCustomers(top, base)))

	blocked, blockingID, err := gate.ShouldBlock(context.Background(), base.ID, 2, alwaysActive)
	require.NoError(t, err)
	assert.True(t, blocked, "no ancestor exists at depth 2")
	assert.Nil(t, blockingID)
}

func TestShouldBlockFirstInactiveWins(t *testing.T) {
	// D <- C <- B <- A: A buys, C is inactive.
	d := member(models.LevelTop, nil)
	c := member(models.LevelMid, d)
	b := member(models.LevelMid, c)
	a := member(models.LevelBase, b)
	gate := NewBlockGate(NewUplineResolver(newFakeCustomers(a, b, c, d)))
	lookup := activeSet(b.ID, d.ID)
	ctx := context.Background()

	blocked, _, err := gate.ShouldBlock(ctx, a.ID, 1, lookup)
	require.NoError(t, err)
	assert.False(t, blocked, "level 1 beneficiary B is active")

	blocked, blockingID, err := gate.ShouldBlock(ctx, a.ID, 2, lookup)
	require.NoError(t, err)
	assert.True(t, blocked)
	require.NotNil(t, blockingID)
	assert.Equal(t, c.ID, *blockingID)

	// D is active but sits above the cut: still blocked, attributed to C.
	blocked, blockingID, err = gate.ShouldBlock(ctx, a.ID, 3, lookup)
	require.NoError(t, err)
	assert.True(t, blocked)
	require.NotNil(t, blockingID)
	assert.Equal(t, c.ID, *blockingID)
}

func TestShouldBlockAllActivePasses(t *testing.T) {
	d := member(models.LevelTop, nil)
	c := member(models.LevelMid, d)
	b := member(models.LevelMid, c)
	a := member(models.LevelBase, b)
	gate := NewBlockGate(NewUplineResolver(newFakeCustomers(a, b, c, d)))
	ctx := context.Background()

	for level := 1; level <= 3; level++ {
		blocked, _, err := gate.ShouldBlock(ctx, a.ID, level, alwaysActive)
		require.NoError(t, err)
		assert.False(t, blocked, "level %d", level)
	}
}
