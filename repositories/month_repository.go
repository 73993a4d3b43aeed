package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/findingu/multinivel_backend/config"
	"github.com/findingu/multinivel_backend/models"
)

// AssociateMonthRepository stores per-associate monthly activation state.
type AssociateMonthRepository struct {
	collection *mongo.Collection
}

func NewAssociateMonthRepository(client *mongo.Client) *AssociateMonthRepository {
	return &AssociateMonthRepository{
		collection: config.GetCollection(client, "associate_months"),
	}
}

func (r *AssociateMonthRepository) Get(ctx context.Context, associateID primitive.ObjectID, monthKey string) (*models.AssociateMonth, error) {
	var month models.AssociateMonth
	err := r.collection.FindOne(ctx, bson.M{"_id": models.AssociateMonthID(associateID, monthKey)}).Decode(&month)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &month, nil
}

// Put upserts the whole month record. Month records are created lazily on
// first contribution and never deleted.
func (r *AssociateMonthRepository) Put(ctx context.Context, month *models.AssociateMonth) error {
	now := time.Now()
	if month.CreatedAt.IsZero() {
		month.CreatedAt = now
	}
	month.UpdatedAt = now
	month.ID = models.AssociateMonthID(month.AssociateID, month.MonthKey)

	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": month.ID}, month, opts)
	return err
}
