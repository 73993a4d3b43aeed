package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BlockGate decides whether a commission row at a given upline depth must be
// blocked. The rule is "hard cut, no pass": the first inactive node in the
// chain prefix blocks its own depth and every depth above it, while
// shallower beneficiaries below the cut are paid independently.
type BlockGate struct {
	upline *UplineResolver
}

func NewBlockGate(upline *UplineResolver) *BlockGate {
	return &BlockGate{upline: upline}
}

// ShouldBlock reports whether the row paying depth `level` of buyerID's
// upline is blocked, and by whom. A chain shorter than the requested level
// blocks the row with no blocking id: there is no legitimate beneficiary at
// that depth.
func (g *BlockGate) ShouldBlock(ctx context.Context, buyerID primitive.ObjectID, level int, lookup ActiveLookup) (bool, *primitive.ObjectID, error) {
	if level < 1 {
		return false, nil, nil
	}

	chain, err := g.upline.Resolve(ctx, buyerID, level)
	if err != nil {
		return false, nil, err
	}
	if len(chain) < level {
		return true, nil, nil
	}

	for i := 0; i < level; i++ {
		active, err := lookup(ctx, chain[i])
		if err != nil {
			return false, nil, err
		}
		if !active {
			blocking := chain[i]
			return true, &blocking, nil
		}
	}

	return false, nil, nil
}
