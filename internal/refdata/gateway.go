// Package refdata serves the brand and model reference entities that
// vehicle forms are built from.
package refdata

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/loggier/app-corte/internal/db"
	"github.com/loggier/app-corte/internal/form"
	"github.com/loggier/app-corte/internal/models"
)

// Gateway fetches brands and models and can append a new model to a brand.
type Gateway struct {
	brands db.BrandCollection
	models db.ModelCollection
}

// NewGateway creates a reference data gateway over the two collections.
func NewGateway(brands db.BrandCollection, modelColl db.ModelCollection) *Gateway {
	return &Gateway{brands: brands, models: modelColl}
}

// ListBrands returns every brand sorted by name ascending.
func (g *Gateway) ListBrands(ctx context.Context) ([]models.Brand, error) {
	brands, err := g.brands.FindBrands(ctx)
	if err != nil {
		log.WithError(err).Error("failed to fetch brands")
		return nil, &form.DataAccessError{Op: "list brands", Err: err}
	}
	return brands, nil
}

// ListModelsForBrand returns the brand's models sorted by name. An empty
// brandID yields an empty list.
func (g *Gateway) ListModelsForBrand(ctx context.Context, brandID string) ([]models.Model, error) {
	if brandID == "" {
		return []models.Model{}, nil
	}
	result, err := g.models.FindModelsByBrand(ctx, brandID)
	if err != nil {
		log.WithError(err).WithField("brand_id", brandID).Error("failed to fetch models")
		return nil, &form.DataAccessError{Op: "list models", Err: err}
	}
	return result, nil
}

// FindBrand resolves a brand reference by id.
func (g *Gateway) FindBrand(ctx context.Context, id string) (*models.Brand, error) {
	brand, err := g.brands.FindBrandByID(ctx, id)
	if err != nil {
		if err == db.ErrNotFound {
			return nil, &form.NotFoundError{Entity: "brand", Key: id}
		}
		return nil, &form.DataAccessError{Op: "find brand", Err: err}
	}
	return brand, nil
}

// AddModel appends a model to a brand. Names are trimmed and compared
// case-insensitively against the brand's current models; when a match exists
// the existing model is returned and nothing is inserted.
func (g *Gateway) AddModel(ctx context.Context, brandID, name string) (*models.Model, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &form.ValidationError{Fields: map[string]string{"name": "Model name is required."}}
	}
	if brandID == "" {
		return nil, &form.ValidationError{Fields: map[string]string{"brandId": "Brand is required."}}
	}

	current, err := g.ListModelsForBrand(ctx, brandID)
	if err != nil {
		return nil, err
	}
	for i := range current {
		if strings.EqualFold(current[i].Name, name) {
			return &current[i], nil
		}
	}

	model := models.Model{
		ID:        primitive.NewObjectID(),
		Name:      name,
		BrandID:   brandID,
		CreatedAt: time.Now(),
	}
	if _, err := g.models.InsertModel(ctx, model); err != nil {
		log.WithError(err).WithField("brand_id", brandID).Error("failed to insert model")
		return nil, &form.DataAccessError{Op: "add model", Err: err}
	}
	log.WithFields(log.Fields{"brand_id": brandID, "model": name}).Info("model added")
	return &model, nil
}
