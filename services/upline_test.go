package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/findingu/multinivel_backend/models"
)

func TestResolveWalksNearestLeaderFirst(t *testing.T) {
	top := member(models.LevelTop, nil)
	mid := member(models.LevelMid, top)
	base := member(models.LevelBase, mid)
	resolver := NewUplineResolver(newFakeCustomers(top, mid, base))

	chain, err := resolver.Resolve(context.Background(), base.ID, 3)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, mid.ID, chain[0])
	assert.Equal(t, top.ID, chain[1])
}

func TestResolveHonorsMaxLevels(t *testing.T) {
	top := member(models.LevelTop, nil)
	mid := member(models.LevelMid, top)
	base := member(models.LevelBase, mid)
	resolver := NewUplineResolver(newFakeCustomers(top, mid, base))

	chain, err := resolver.Resolve(context.Background(), base.ID, 1)
	require.NoError(t, err)
	require.Len(t, chain, 1)
	assert.Equal(t, mid.ID, chain[0])
}

func TestResolveStopsOnMissingCustomer(t *testing.T) {
	ghost := primitive.NewObjectID()
	orphan := &models.Customer{ID: primitive.NewObjectID(), LeaderID: &ghost}
	resolver := NewUplineResolver(newFakeCustomers(orphan))

	chain, err := resolver.Resolve(context.Background(), orphan.ID, 3)
	require.NoError(t, err)
	// The dangling leader id is still reported; the walk stops there.
	require.Len(t, chain, 1)
	assert.Equal(t, ghost, chain[0])
}

func TestResolveTerminatesOnCycle(t *testing.T) {
	a := &models.Customer{ID: primitive.NewObjectID()}
	b := &models.Customer{ID: primitive.NewObjectID()}
	a.LeaderID = &b.ID
	b.LeaderID = &a.ID
	resolver := NewUplineResolver(newFakeCustomers(a, b))

	chain, err := resolver.Resolve(context.Background(), a.ID, -1)
	require.NoError(t, err)
	require.Len(t, chain, 1)
	assert.Equal(t, b.ID, chain[0])
}

func TestResolveUnboundedCapped(t *testing.T) {
	customers := newFakeCustomers()
	var prev *models.Customer
	var leaf *models.Customer
	for i := 0; i < UplineSafetyCap+10; i++ {
		c := member(models.LevelMid, prev)
		customers.byID[c.ID] = c
		prev = c
		leaf = c
	}
	resolver := NewUplineResolver(customers)

	chain, err := resolver.Resolve(context.Background(), leaf.ID, -1)
	require.NoError(t, err)
	assert.Len(t, chain, UplineSafetyCap)
}
