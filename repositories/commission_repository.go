package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/findingu/multinivel_backend/config"
	"github.com/findingu/multinivel_backend/models"
)

// CommissionMonthRepository stores per-beneficiary monthly commission
// ledgers. Writes are version-guarded: the ledger mutation cycle is
// read-recompute-write, and a concurrent writer must not be silently
// overwritten.
type CommissionMonthRepository struct {
	collection *mongo.Collection
}

func NewCommissionMonthRepository(client *mongo.Client) *CommissionMonthRepository {
	return &CommissionMonthRepository{
		collection: config.GetCollection(client, "commission_months"),
	}
}

func (r *CommissionMonthRepository) Get(ctx context.Context, beneficiaryID primitive.ObjectID, monthKey string) (*models.CommissionMonth, error) {
	var month models.CommissionMonth
	err := r.collection.FindOne(ctx, bson.M{"_id": models.CommissionMonthID(beneficiaryID, monthKey)}).Decode(&month)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &month, nil
}

// Put persists the ledger tuple (rows plus recomputed totals) only if the
// stored version still matches the one the caller read. A fresh record
// (version 0) is inserted; anything else is a conditional replace.
func (r *CommissionMonthRepository) Put(ctx context.Context, month *models.CommissionMonth) error {
	now := time.Now()
	month.ID = models.CommissionMonthID(month.BeneficiaryID, month.MonthKey)
	readVersion := month.Version
	month.Version = readVersion + 1
	month.UpdatedAt = now

	if readVersion == 0 {
		month.CreatedAt = now
		_, err := r.collection.InsertOne(ctx, month)
		if mongo.IsDuplicateKeyError(err) {
			month.Version = readVersion
			return ErrVersionConflict
		}
		if err != nil {
			month.Version = readVersion
		}
		return err
	}

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": month.ID, "version": readVersion}, month)
	if err != nil {
		month.Version = readVersion
		return err
	}
	if res.MatchedCount == 0 {
		month.Version = readVersion
		return ErrVersionConflict
	}
	return nil
}

// ListByMonth returns every beneficiary ledger for a month, for the admin
// paid-commissions summary.
func (r *CommissionMonthRepository) ListByMonth(ctx context.Context, monthKey string) ([]models.CommissionMonth, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"monthKey": monthKey})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var months []models.CommissionMonth
	if err := cursor.All(ctx, &months); err != nil {
		return nil, err
	}
	return months, nil
}
