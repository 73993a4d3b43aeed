package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/findingu/multinivel_backend/models"
	"github.com/findingu/multinivel_backend/repositories"
)

// ActivationTracker maintains each associate's monthly net volume and the
// derived active flag.
type ActivationTracker struct {
	months MonthStateStore
}

func NewActivationTracker(months MonthStateStore) *ActivationTracker {
	return &ActivationTracker{months: months}
}

// AddVolume accumulates a net order total into the associate's month record,
// recomputes the active flag against activationMin and reports whether this
// call flipped the associate from inactive to active. The month record is
// created lazily on first contribution.
func (t *ActivationTracker) AddVolume(ctx context.Context, associateID primitive.ObjectID, monthKey string, delta, activationMin float64) (*models.AssociateMonth, bool, error) {
	month, err := t.months.Get(ctx, associateID, monthKey)
	if errors.Is(err, repositories.ErrNotFound) {
		month = &models.AssociateMonth{
			AssociateID: associateID,
			MonthKey:    monthKey,
		}
	} else if err != nil {
		return nil, false, err
	}

	wasActive := month.IsActive
	month.NetVolume += delta
	month.IsActive = month.NetVolume >= activationMin

	if err := t.months.Put(ctx, month); err != nil {
		return nil, false, err
	}

	return month, !wasActive && month.IsActive, nil
}

// IsActive reports the stored active flag; a missing month record means the
// associate has not contributed this month and is inactive.
func (t *ActivationTracker) IsActive(ctx context.Context, associateID primitive.ObjectID, monthKey string) (bool, error) {
	month, err := t.months.Get(ctx, associateID, monthKey)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return month.IsActive, nil
}

// NetVolume returns the accumulated volume for dashboard readouts.
func (t *ActivationTracker) NetVolume(ctx context.Context, associateID primitive.ObjectID, monthKey string) (float64, error) {
	month, err := t.months.Get(ctx, associateID, monthKey)
	if errors.Is(err, repositories.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return month.NetVolume, nil
}

// ActiveLookup answers "is this associate active this month". The block
// gate and the unblock sweep take one so repeated checks within a single
// request can share a cache.
type ActiveLookup func(ctx context.Context, associateID primitive.ObjectID) (bool, error)

// ActiveLookupForMonth returns a memoizing lookup bound to one month. The
// cache lives for the lookup's lifetime only, so a fresh request always
// re-reads.
func (t *ActivationTracker) ActiveLookupForMonth(monthKey string) ActiveLookup {
	cache := make(map[primitive.ObjectID]bool)
	return func(ctx context.Context, associateID primitive.ObjectID) (bool, error) {
		if active, ok := cache[associateID]; ok {
			return active, nil
		}
		active, err := t.IsActive(ctx, associateID, monthKey)
		if err != nil {
			return false, err
		}
		cache[associateID] = active
		return active, nil
	}
}
