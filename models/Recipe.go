package models

import (
	"gorm.io/gorm"
)

// Recipe is the aggregate root for one costed product. The (PieName, Variant)
// pair is unique per owner: "Chicken Pie"/"Standard" and "Chicken Pie"/"Mini"
// are distinct recipes with independent cost profiles.
//
// The five derived figures are never accepted from callers. They are
// recomputed through the costing engine on every create, update, and bulk
// import before the record is persisted, so stored values always reflect the
// ingredient costs that were current at calculation time.
type Recipe struct {
	gorm.Model
	PieName          string             `gorm:"not null;uniqueIndex:idx_recipes_pie_variant" json:"pie_name"`
	Variant          string             `gorm:"not null;default:Standard;uniqueIndex:idx_recipes_pie_variant" json:"variant"`
	BatchSize        int                `gorm:"not null;default:1" json:"batch_size"`
	LaborHourlyRate  float64            `gorm:"not null" json:"labor_hourly_rate"`
	MarkupPercentage float64            `gorm:"not null" json:"markup_percentage"`
	Ingredients      []RecipeIngredient `gorm:"foreignKey:RecipeID" json:"ingredients"`
	LaborInputs      []RecipeLaborInput `gorm:"foreignKey:RecipeID" json:"labor_inputs"`

	// Derived, engine-owned figures (2dp, half-up).
	TotalIngredientCost float64 `gorm:"not null" json:"total_ingredient_cost"`
	TotalLaborCost      float64 `gorm:"not null" json:"total_labor_cost"`
	TotalBatchCost      float64 `gorm:"not null" json:"total_batch_cost"`
	CostPerPie          float64 `gorm:"not null" json:"cost_per_pie"`
	SellingPrice        float64 `gorm:"not null" json:"selling_price"`

	OwnerID uint  `gorm:"not null;uniqueIndex:idx_recipes_pie_variant" json:"owner_id"`
	Owner   *User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

// RecipeIngredient is one ingredient line embedded in a recipe. Unit is
// expected to match the referenced catalog ingredient's unit of measure; the
// costing engine rejects mismatches rather than converting.
type RecipeIngredient struct {
	gorm.Model
	RecipeID     uint    `gorm:"not null" json:"recipe_id"`
	IngredientID uint    `gorm:"not null" json:"ingredient_id"`
	Quantity     float64 `gorm:"not null" json:"quantity"`
	Unit         string  `gorm:"not null" json:"unit"`

	Ingredient *Ingredient `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`
}

// RecipeLaborInput is one (workers, hours-per-worker) pair contributing to a
// batch's labor hours. The recipe-level hourly rate applies uniformly across
// all entries.
type RecipeLaborInput struct {
	gorm.Model
	RecipeID       uint    `gorm:"not null" json:"recipe_id"`
	Workers        int     `gorm:"not null" json:"workers"`
	HoursPerWorker float64 `gorm:"not null" json:"hours_per_worker"`
}
