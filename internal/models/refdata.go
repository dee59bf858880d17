package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Brand is a document in the "brands" collection.
type Brand struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name string             `bson:"name" json:"name"`
}

// Model is a document in the "models" collection. Model names are unique per
// brand, compared case-insensitively; inserting a duplicate name returns the
// existing document instead.
type Model struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	BrandID   string             `bson:"brandId" json:"brandId"`
	CreatedAt time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}
