package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/findingu/multinivel_backend/config"
	"github.com/findingu/multinivel_backend/models"
)

type CustomerRepository struct {
	collection *mongo.Collection
}

func NewCustomerRepository(client *mongo.Client) *CustomerRepository {
	return &CustomerRepository{
		collection: config.GetCollection(client, "customers"),
	}
}

func (r *CustomerRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	var customer models.Customer
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&customer)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&customer)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *CustomerRepository) GetByReferralCode(ctx context.Context, code string) (*models.Customer, error) {
	var customer models.Customer
	err := r.collection.FindOne(ctx, bson.M{"referralCode": code}).Decode(&customer)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// List returns the whole customer directory. The network tree and the admin
// dashboard both consume the flat set.
func (r *CustomerRepository) List(ctx context.Context) ([]models.Customer, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var customers []models.Customer
	if err := cursor.All(ctx, &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *CustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	if customer.ID.IsZero() {
		customer.ID = primitive.NewObjectID()
	}
	now := time.Now()
	customer.CreatedAt = now
	customer.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, customer)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

// UpdateRewardsFields syncs the engine-owned projections on the customer
// document.
func (r *CustomerRepository) UpdateRewardsFields(ctx context.Context, id primitive.ObjectID, discountRate float64, activeBuyer bool) error {
	_, err := r.collection.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"discountRate": discountRate,
			"activeBuyer":  activeBuyer,
			"updatedAt":    time.Now(),
		},
	})
	return err
}

// IncrementCommissions adjusts the cached commissions display total. The
// ledger remains the source of truth; callers treat failures as advisory.
func (r *CustomerRepository) IncrementCommissions(ctx context.Context, id primitive.ObjectID, delta float64) error {
	_, err := r.collection.UpdateByID(ctx, id, bson.M{
		"$inc": bson.M{"commissions": delta},
		"$set": bson.M{"updatedAt": time.Now()},
	})
	return err
}

// UpdateShippingProfile stores the address fields from the latest order.
func (r *CustomerRepository) UpdateShippingProfile(ctx context.Context, id primitive.ObjectID, address, postalCode, state, phone string) error {
	fields := bson.M{"updatedAt": time.Now()}
	if address != "" {
		fields["address"] = address
	}
	if postalCode != "" {
		fields["postalCode"] = postalCode
	}
	if state != "" {
		fields["state"] = state
	}
	if phone != "" {
		fields["phone"] = phone
	}
	_, err := r.collection.UpdateByID(ctx, id, bson.M{"$set": fields})
	return err
}

// SetClabe stores the payout account for a customer.
func (r *CustomerRepository) SetClabe(ctx context.Context, id primitive.ObjectID, clabe string) error {
	_, err := r.collection.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"clabe": clabe, "updatedAt": time.Now()},
	})
	return err
}
