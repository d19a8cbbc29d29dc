package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Spottie97/PP-Food-Fair/internal/costing"
	"github.com/Spottie97/PP-Food-Fair/models"
)

// Resolver is the GORM-backed ingredient cost lookup used by the calculation
// pipeline. Lookups are read-only and tenant-scoped: an ingredient resolves
// when it is owned by the requesting user or shared publicly.
type Resolver struct {
	db      *gorm.DB
	ownerID uint
}

// NewResolver builds a Resolver scoped to the given owner.
func NewResolver(db *gorm.DB, ownerID uint) *Resolver {
	return &Resolver{db: db, ownerID: ownerID}
}

// Resolve implements costing.Resolver against the ingredient catalog.
func (r *Resolver) Resolve(ctx context.Context, ingredientID uint) (costing.IngredientCost, error) {
	if r.db == nil {
		return costing.IngredientCost{}, gorm.ErrInvalidDB
	}

	var ingredient models.Ingredient
	err := r.db.WithContext(ctx).
		Where("id = ? AND (owner_id = ? OR public = ?)", ingredientID, r.ownerID, true).
		First(&ingredient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return costing.IngredientCost{}, &costing.NotFoundError{IngredientID: ingredientID}
		}
		return costing.IngredientCost{}, fmt.Errorf("resolve ingredient %d: %w", ingredientID, err)
	}

	return costing.IngredientCost{
		UnitOfMeasure: ingredient.UnitOfMeasure,
		CostPerUnit:   ingredient.CostPerUnit,
	}, nil
}

// Snapshot loads every ingredient visible to the owner into an in-memory
// resolver. The bulk importer uses this so each imported row resolves against
// one consistent read of the catalog.
func Snapshot(ctx context.Context, db *gorm.DB, ownerID uint) (costing.MapResolver, error) {
	if db == nil {
		return nil, gorm.ErrInvalidDB
	}

	var ingredients []models.Ingredient
	if err := db.WithContext(ctx).
		Where("owner_id = ? OR public = ?", ownerID, true).
		Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("load ingredient catalog: %w", err)
	}

	resolver := make(costing.MapResolver, len(ingredients))
	for _, ingredient := range ingredients {
		resolver[ingredient.ID] = costing.IngredientCost{
			UnitOfMeasure: ingredient.UnitOfMeasure,
			CostPerUnit:   ingredient.CostPerUnit,
		}
	}
	return resolver, nil
}
