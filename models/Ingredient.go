package models

import (
	"gorm.io/gorm"
)

// Ingredient is a catalog record holding the current purchase cost for one
// unit of measure. Recipes reference ingredients but never own them; cost
// changes here flow into recipes on their next recalculation.
type Ingredient struct {
	gorm.Model
	Name          string            `gorm:"uniqueIndex;not null" json:"name"`
	UnitOfMeasure string            `gorm:"not null" json:"unit_of_measure"`
	CostPerUnit   float64           `gorm:"not null" json:"cost_per_unit"`
	Aliases       []IngredientAlias `gorm:"foreignKey:IngredientID" json:"aliases"`
	OwnerID       uint              `gorm:"not null" json:"owner_id"`
	Owner         *User             `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Public        bool              `gorm:"not null;default:false" json:"public"`
}

// IngredientAlias holds an alternative spreadsheet/display name for an
// ingredient. The bulk importer resolves rows through these before falling
// back to the canonical name.
type IngredientAlias struct {
	gorm.Model
	Name         string `gorm:"not null" json:"name"`
	IngredientID uint
}
