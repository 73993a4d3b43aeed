package repositories

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/findingu/multinivel_backend/config"
	"github.com/findingu/multinivel_backend/models"
)

const (
	rewardsConfigID       = "rewards-v1"
	rewardsConfigCacheKey = "rewards:config"
	rewardsConfigCacheTTL = 5 * time.Minute
)

// RewardsConfigRepository loads and saves the rules document. Reads go
// through a short-lived Redis projection; a save deletes the cached copy so
// the next request reloads. There is no in-process shared cache.
type RewardsConfigRepository struct {
	collection *mongo.Collection
	redis      *redis.Client
}

func NewRewardsConfigRepository(client *mongo.Client, redisClient *redis.Client) *RewardsConfigRepository {
	return &RewardsConfigRepository{
		collection: config.GetCollection(client, "rewards_configs"),
		redis:      redisClient,
	}
}

type rewardsConfigDoc struct {
	ID        string               `bson:"_id"`
	Config    models.RewardsConfig `bson:"config"`
	CreatedAt time.Time            `bson:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt"`
}

// GetOrCreate returns the stored config, creating the documented default
// when absent. A malformed or unreachable store degrades to the default
// rather than failing the request.
func (r *RewardsConfigRepository) GetOrCreate(ctx context.Context) (*models.RewardsConfig, error) {
	if cached := r.fromCache(ctx); cached != nil {
		return cached, nil
	}

	var doc rewardsConfigDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": rewardsConfigID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		cfg := models.DefaultRewardsConfig()
		now := time.Now()
		doc = rewardsConfigDoc{ID: rewardsConfigID, Config: *cfg, CreatedAt: now, UpdatedAt: now}
		opts := options.Replace().SetUpsert(true)
		if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": rewardsConfigID}, doc, opts); err != nil {
			log.Printf("Failed to seed default rewards config: %v", err)
		}
		r.toCache(ctx, cfg)
		return cfg, nil
	}
	if err != nil {
		log.Printf("Failed to load rewards config, using defaults: %v", err)
		return models.DefaultRewardsConfig(), nil
	}

	cfg := doc.Config
	cfg.Normalize()
	r.toCache(ctx, &cfg)
	return &cfg, nil
}

// Save replaces the rules document and drops the cached projection so the
// next read reloads from the store.
func (r *RewardsConfigRepository) Save(ctx context.Context, cfg *models.RewardsConfig) error {
	cfg.Normalize()
	cfg.UpdatedAt = time.Now()

	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateByID(ctx, rewardsConfigID, bson.M{
		"$set":         bson.M{"config": cfg, "updatedAt": cfg.UpdatedAt},
		"$setOnInsert": bson.M{"createdAt": cfg.UpdatedAt},
	}, opts)
	if err != nil {
		return err
	}

	if r.redis != nil {
		if err := r.redis.Del(ctx, rewardsConfigCacheKey).Err(); err != nil {
			log.Printf("Failed to invalidate rewards config cache: %v", err)
		}
	}
	return nil
}

func (r *RewardsConfigRepository) fromCache(ctx context.Context) *models.RewardsConfig {
	if r.redis == nil {
		return nil
	}
	raw, err := r.redis.Get(ctx, rewardsConfigCacheKey).Bytes()
	if err != nil {
		return nil
	}
	var cfg models.RewardsConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil
	}
	cfg.Normalize()
	return &cfg
}

func (r *RewardsConfigRepository) toCache(ctx context.Context, cfg *models.RewardsConfig) {
	if r.redis == nil {
		return
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	if err := r.redis.Set(ctx, rewardsConfigCacheKey, raw, rewardsConfigCacheTTL).Err(); err != nil {
		log.Printf("Failed to cache rewards config: %v", err)
	}
}
