package db

import (
	"context"
	"fmt"
	"time"

	"github.com/loggier/app-corte/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BrandCollection defines the interface for brand data operations.
type BrandCollection interface {
	FindBrands(ctx context.Context) ([]models.Brand, error)
	FindBrandByID(ctx context.Context, id string) (*models.Brand, error)
}

// ModelCollection defines the interface for model data operations.
type ModelCollection interface {
	FindModelsByBrand(ctx context.Context, brandID string) ([]models.Model, error)
	InsertModel(ctx context.Context, model models.Model) (string, error)
}

// MongoBrandCollection implements BrandCollection for MongoDB.
type MongoBrandCollection struct {
	Collection *mongo.Collection
}

// FindBrands returns all brands sorted by name ascending.
func (c *MongoBrandCollection) FindBrands(ctx context.Context) ([]models.Brand, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := c.Collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var brands []models.Brand
	if err := cursor.All(ctx, &brands); err != nil {
		return nil, err
	}
	return brands, nil
}

// FindBrandByID finds a brand by its ID.
func (c *MongoBrandCollection) FindBrandByID(ctx context.Context, id string) (*models.Brand, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid brand ID: %w", err)
	}
	var brand models.Brand
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&brand)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &brand, nil
}

// MongoModelCollection implements ModelCollection for MongoDB.
type MongoModelCollection struct {
	Collection *mongo.Collection
}

// FindModelsByBrand returns the models of a brand sorted by name. An empty
// brandID yields an empty slice without touching the database.
func (c *MongoModelCollection) FindModelsByBrand(ctx context.Context, brandID string) ([]models.Model, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	if brandID == "" {
		return []models.Model{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := c.Collection.Find(ctx, bson.M{"brandId": brandID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	result := []models.Model{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// InsertModel inserts a model record and returns the generated id.
func (c *MongoModelCollection) InsertModel(ctx context.Context, model models.Model) (string, error) {
	if c.Collection == nil {
		return "", fmt.Errorf("mongo collection is nil")
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now()
	}
	result, err := c.Collection.InsertOne(ctx, model)
	if err != nil {
		return "", err
	}
	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", result.InsertedID)
	}
	return oid.Hex(), nil
}
