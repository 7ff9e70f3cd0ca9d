package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/database/mongodb"
	"github.com/fekuna/omnipos-inventory-service/internal/product/dto"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type productDocument struct {
	ID         string               `bson:"_id"`
	CategoryID string               `bson:"category_id"`
	SKU        string               `bson:"sku"`
	Name       string               `bson:"name"`
	Price      primitive.Decimal128 `bson:"price"`
	Stock      int64                `bson:"stock"`
	CreatedAt  time.Time            `bson:"created_at"`
	UpdatedAt  time.Time            `bson:"updated_at"`
}

func toDocument(p *model.Product) (*productDocument, error) {
	price, err := toDecimal128(p.Price)
	if err != nil {
		return nil, err
	}
	return &productDocument{
		ID:         p.ID,
		CategoryID: p.CategoryID,
		SKU:        p.SKU,
		Name:       p.Name,
		Price:      price,
		Stock:      p.Stock,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}, nil
}

func (d *productDocument) toModel() (*model.Product, error) {
	price, err := decimal.NewFromString(d.Price.String())
	if err != nil {
		return nil, err
	}
	return &model.Product{
		BaseModel:  model.BaseModel{ID: d.ID, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
		CategoryID: d.CategoryID,
		SKU:        d.SKU,
		Name:       d.Name,
		Price:      price,
		Stock:      d.Stock,
	}, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

type MongoRepository struct {
	Collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		Collection: db.Collection(mongodb.ProductsCollection),
	}
}

func (r *MongoRepository) Create(ctx context.Context, p *model.Product) error {
	doc, err := toDocument(p)
	if err != nil {
		return err
	}
	_, err = r.Collection.InsertOne(ctx, doc)
	return mongodb.TranslateError(err)
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var doc productDocument
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, mongodb.TranslateError(err)
	}
	return doc.toModel()
}

func (r *MongoRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	filter := bson.M{}
	if f.CategoryID != "" {
		filter["category_id"] = f.CategoryID
	}
	if f.SearchQuery != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.SearchQuery), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"sku": pattern},
		}
	}

	count, err := r.Collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, mongodb.TranslateError(err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		opts.SetSkip(int64((page - 1) * f.PageSize)).SetLimit(int64(f.PageSize))
	}

	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, mongodb.TranslateError(err)
	}

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, mongodb.TranslateError(err)
	}

	products := make([]model.Product, 0, len(docs))
	for i := range docs {
		p, err := docs[i].toModel()
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	return products, int(count), nil
}

func (r *MongoRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	n, err := r.Collection.CountDocuments(ctx, bson.M{"sku": sku}, options.Count().SetLimit(1))
	if err != nil {
		return false, mongodb.TranslateError(err)
	}
	return n > 0, nil
}

func (r *MongoRepository) Update(ctx context.Context, id string, patch *dto.ProductPatch) (*model.Product, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Price != nil {
		price, err := toDecimal128(*patch.Price)
		if err != nil {
			return nil, err
		}
		set["price"] = price
	}
	if patch.Stock != nil {
		set["stock"] = *patch.Stock
	}
	if patch.CategoryID != nil {
		set["category_id"] = *patch.CategoryID
	}
	if patch.SKU != nil {
		set["sku"] = *patch.SKU
	}

	filter := bson.M{"_id": id}
	if patch.ExpectCategoryID != nil {
		filter["category_id"] = *patch.ExpectCategoryID
	}

	return r.findOneAndUpdate(ctx, filter, bson.M{"$set": set})
}

func (r *MongoRepository) DecrementStock(ctx context.Context, id string, qty int64) (*model.Product, error) {
	filter := bson.M{"_id": id, "stock": bson.M{"$gte": qty}}
	update := bson.M{
		"$inc": bson.M{"stock": -qty},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *MongoRepository) IncrementStock(ctx context.Context, id string, qty int64) (*model.Product, error) {
	update := bson.M{
		"$inc": bson.M{"stock": qty},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	return r.findOneAndUpdate(ctx, bson.M{"_id": id}, update)
}

func (r *MongoRepository) BulkUpdatePrices(ctx context.Context, updates []dto.PriceUpdate) (int64, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	ops := make([]mongo.WriteModel, 0, len(updates))
	for _, u := range updates {
		price, err := toDecimal128(u.NewPrice)
		if err != nil {
			return 0, err
		}
		ops = append(ops, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": u.ProductID, "price": bson.M{"$ne": price}}).
			SetUpdate(bson.M{"$set": bson.M{"price": price, "updated_at": now}}))
	}

	res, err := r.Collection.BulkWrite(ctx, ops)
	if err != nil {
		return 0, mongodb.TranslateError(err)
	}
	return res.ModifiedCount, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mongodb.TranslateError(err)
	}
	if res.DeletedCount == 0 {
		return model.ErrProductNotFound
	}
	return nil
}

// findOneAndUpdate applies update atomically when filter matches and returns
// the post-update document; no match maps to model.ErrNoMatch.
func (r *MongoRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*model.Product, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc productDocument
	err := r.Collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrNoMatch
		}
		return nil, mongodb.TranslateError(err)
	}
	return doc.toModel()
}
