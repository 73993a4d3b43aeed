package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/findingu/multinivel_backend/repositories"
)

// UplineSafetyCap bounds every upline walk regardless of the requested
// depth, so corrupt leader data can never stall a request.
const UplineSafetyCap = 50

// UplineResolver walks leader pointers to produce a customer's ordered
// ancestor chain.
type UplineResolver struct {
	customers CustomerDirectory
}

func NewUplineResolver(customers CustomerDirectory) *UplineResolver {
	return &UplineResolver{customers: customers}
}

// Resolve returns the ancestor chain of startID, nearest leader first.
// maxLevels < 0 means unbounded (used by confirm and void sweeps); the walk
// always stops at the safety cap, at a missing customer, at a customer with
// no leader, or when an id repeats (cyclic data is truncated, not an error).
func (r *UplineResolver) Resolve(ctx context.Context, startID primitive.ObjectID, maxLevels int) ([]primitive.ObjectID, error) {
	limit := UplineSafetyCap
	if maxLevels >= 0 && maxLevels < limit {
		limit = maxLevels
	}

	chain := make([]primitive.ObjectID, 0, 4)
	seen := map[primitive.ObjectID]bool{startID: true}
	currentID := startID

	for len(chain) < limit {
		customer, err := r.customers.GetByID(ctx, currentID)
		if errors.Is(err, repositories.ErrNotFound) {
			break
		}
		if err != nil {
			return chain, err
		}
		if customer.LeaderID == nil {
			break
		}

		leaderID := *customer.LeaderID
		if seen[leaderID] {
			break
		}
		seen[leaderID] = true

		chain = append(chain, leaderID)
		currentID = leaderID
	}

	return chain, nil
}
