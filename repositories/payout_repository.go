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

type PayoutRequestRepository struct {
	collection *mongo.Collection
}

func NewPayoutRequestRepository(client *mongo.Client) *PayoutRequestRepository {
	return &PayoutRequestRepository{
		collection: config.GetCollection(client, "payout_requests"),
	}
}

func (r *PayoutRequestRepository) Create(ctx context.Context, request *models.PayoutRequest) error {
	now := time.Now()
	request.CreatedAt = now
	request.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, request)
	return err
}

func (r *PayoutRequestRepository) ListByBeneficiary(ctx context.Context, beneficiaryID primitive.ObjectID) ([]models.PayoutRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"beneficiaryId": beneficiaryID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var requests []models.PayoutRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}
