package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/category/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/database/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type categoryDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	SKUPrefix string    `bson:"sku_prefix"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d *categoryDocument) toModel() *model.Category {
	return &model.Category{
		BaseModel: model.BaseModel{ID: d.ID, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
		Name:      d.Name,
		SKUPrefix: d.SKUPrefix,
	}
}

type MongoRepository struct {
	Collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		Collection: db.Collection(mongodb.CategoriesCollection),
	}
}

func (r *MongoRepository) Create(ctx context.Context, c *model.Category) error {
	_, err := r.Collection.InsertOne(ctx, categoryDocument{
		ID:        c.ID,
		Name:      c.Name,
		SKUPrefix: c.SKUPrefix,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	})
	return mongodb.TranslateError(err)
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*model.Category, error) {
	var doc categoryDocument
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, mongodb.TranslateError(err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) FindAll(ctx context.Context, f *dto.CategoryFilters) ([]model.Category, int, error) {
	count, err := r.Collection.CountDocuments(ctx, bson.M{})
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

	cursor, err := r.Collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, mongodb.TranslateError(err)
	}

	var docs []categoryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, mongodb.TranslateError(err)
	}

	categories := make([]model.Category, 0, len(docs))
	for i := range docs {
		categories = append(categories, *docs[i].toModel())
	}
	return categories, int(count), nil
}

func (r *MongoRepository) Update(ctx context.Context, id string, patch *dto.CategoryPatch) (*model.Category, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.SKUPrefix != nil {
		set["sku_prefix"] = *patch.SKUPrefix
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc categoryDocument
	err := r.Collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrNoMatch
		}
		return nil, mongodb.TranslateError(err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mongodb.TranslateError(err)
	}
	if res.DeletedCount == 0 {
		return model.ErrCategoryNotFound
	}
	return nil
}
