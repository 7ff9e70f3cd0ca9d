package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	ProductsCollection   = "products"
	CategoriesCollection = "categories"
)

// Unique index names, mapped back to logical field names by TranslateError.
const (
	IndexProductSKU        = "products_sku_unique"
	IndexCategoryName      = "categories_name_unique"
	IndexCategorySKUPrefix = "categories_prefix_unique"
)

type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// NewMongo connects, pings the primary and ensures the unique indexes. The
// repositories detect SKU and category races only through those indexes, so
// a database is never handed out without them.
func NewMongo(ctx context.Context, cfg *Config) (*mongo.Client, *mongo.Database, error) {
	opts := options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(cfg.Database)
	if err := EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, err
	}
	return client, db, nil
}

// indexes lists the indexes of each collection. Creating them is idempotent.
func indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		ProductsCollection: {
			{
				Keys:    bson.D{{Key: "sku", Value: 1}},
				Options: options.Index().SetName(IndexProductSKU).SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "category_id", Value: 1}},
			},
		},
		CategoriesCollection: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetName(IndexCategoryName).SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "sku_prefix", Value: 1}},
				Options: options.Index().SetName(IndexCategorySKUPrefix).SetUnique(true),
			},
		},
	}
}

// EnsureIndexes creates the unique indexes the repositories rely on to turn
// duplicate writes into detectable failures.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, collection := range []string{ProductsCollection, CategoriesCollection} {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, indexes()[collection]); err != nil {
			return fmt.Errorf("create %s indexes: %w", collection, err)
		}
	}
	return nil
}
