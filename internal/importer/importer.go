package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"gorm.io/gorm"

	"github.com/Spottie97/PP-Food-Fair/internal/catalog"
	"github.com/Spottie97/PP-Food-Fair/internal/costing"
	applog "github.com/Spottie97/PP-Food-Fair/internal/log"
	"github.com/Spottie97/PP-Food-Fair/models"
)

// recipeRow is one spreadsheet line of the bulk recipe import. Ingredient
// lines use "name:quantity[:unit]" entries separated by semicolons; labor
// inputs use "workersxhours" entries (for example "2x2.5; 1x0.75").
type recipeRow struct {
	PieName          string  `csv:"Pie Name"`
	Variant          string  `csv:"Variant"`
	BatchSize        int     `csv:"Batch Size"`
	LaborHourlyRate  float64 `csv:"Labor Hourly Rate"`
	MarkupPercentage float64 `csv:"Markup %"`
	Ingredients      string  `csv:"Ingredients"`
	LaborInputs      string  `csv:"Labor Inputs"`
}

// laborRow is one spreadsheet line of the legacy labor record import.
type laborRow struct {
	PieName       string  `csv:"Pie Name"`
	CostPerHour   float64 `csv:"Cost Per Hour"`
	MinutesPerPie float64 `csv:"Minutes Per Pie"`
}

// Summary reports what an import run changed.
type Summary struct {
	Created int
	Updated int
}

// UnknownIngredientError reports a spreadsheet name that resolved through
// neither a canonical ingredient name nor a registered alias.
type UnknownIngredientError struct {
	Name string
}

func (e *UnknownIngredientError) Error() string {
	return fmt.Sprintf("ingredient %q not found in catalog or alias table", e.Name)
}

// StorageError marks a database failure during an import run, as opposed to a
// bad spreadsheet. Callers answer these with a server fault, not a rejection.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

// ImportRecipes loads recipes from a CSV stream. Each row runs through the
// same validate-resolve-calculate pipeline as manual entry, so imported
// figures are identical to what the recipe editor would produce. Rows upsert
// by (pie name, variant); a failing row aborts the run with the row number in
// the error.
func ImportRecipes(ctx context.Context, db *gorm.DB, reader io.Reader, ownerID uint) (Summary, error) {
	if db == nil {
		return Summary{}, &StorageError{Err: gorm.ErrInvalidDB}
	}

	var rows []*recipeRow
	if err := gocsv.Unmarshal(reader, &rows); err != nil {
		return Summary{}, fmt.Errorf("parse recipe csv: %w", err)
	}

	aliases, err := BuildAliasTable(ctx, db, ownerID)
	if err != nil {
		return Summary{}, err
	}

	resolver, err := catalog.Snapshot(ctx, db, ownerID)
	if err != nil {
		return Summary{}, &StorageError{Err: err}
	}

	summary := Summary{}
	for idx, row := range rows {
		created, err := importRecipeRow(ctx, db, row, aliases, resolver, ownerID)
		if err != nil {
			return summary, fmt.Errorf("row %d (%s): %w", idx+1, strings.TrimSpace(row.PieName), err)
		}
		if created {
			summary.Created++
		} else {
			summary.Updated++
		}
	}

	applog.Info(ctx, "recipe import finished", "created", summary.Created, "updated", summary.Updated)
	return summary, nil
}

func importRecipeRow(
	ctx context.Context,
	db *gorm.DB,
	row *recipeRow,
	aliases AliasTable,
	resolver costing.Resolver,
	ownerID uint,
) (bool, error) {
	pieName := strings.TrimSpace(row.PieName)
	if pieName == "" {
		return false, errors.New("pie name is required")
	}
	variant := strings.TrimSpace(row.Variant)
	if variant == "" {
		variant = "Standard"
	}

	lines, err := parseIngredientList(row.Ingredients, aliases)
	if err != nil {
		return false, err
	}
	laborInputs, err := parseLaborList(row.LaborInputs)
	if err != nil {
		return false, err
	}

	request := costing.Request{
		LaborHourlyRate:  row.LaborHourlyRate,
		BatchSize:        row.BatchSize,
		MarkupPercentage: row.MarkupPercentage,
		LaborInputs:      laborInputs,
	}
	for _, line := range lines {
		request.Ingredients = append(request.Ingredients, costing.Line{
			IngredientID: line.IngredientID,
			Quantity:     line.Quantity,
			Unit:         line.Unit,
		})
	}

	if err := costing.Validate(request); err != nil {
		return false, err
	}

	breakdown, err := costing.Calculate(ctx, request, resolver)
	if err != nil {
		return false, err
	}

	created := false
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Recipe
		err := tx.Where("pie_name = ? AND variant = ? AND owner_id = ?", pieName, variant, ownerID).
			First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
		case err != nil:
			return fmt.Errorf("find recipe: %w", err)
		}

		recipe := models.Recipe{
			PieName:             pieName,
			Variant:             variant,
			BatchSize:           request.BatchSize,
			LaborHourlyRate:     request.LaborHourlyRate,
			MarkupPercentage:    request.MarkupPercentage,
			TotalIngredientCost: breakdown.TotalIngredientCost,
			TotalLaborCost:      breakdown.TotalLaborCost,
			TotalBatchCost:      breakdown.TotalBatchCost,
			CostPerPie:          breakdown.CostPerPie,
			SellingPrice:        breakdown.SellingPrice,
			OwnerID:             ownerID,
		}

		if !created {
			recipe.ID = existing.ID
			if err := tx.Where("recipe_id = ?", existing.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
				return fmt.Errorf("clear recipe ingredients: %w", err)
			}
			if err := tx.Where("recipe_id = ?", existing.ID).Delete(&models.RecipeLaborInput{}).Error; err != nil {
				return fmt.Errorf("clear recipe labor inputs: %w", err)
			}
			if err := tx.Model(&existing).Updates(map[string]any{
				"batch_size":            recipe.BatchSize,
				"labor_hourly_rate":     recipe.LaborHourlyRate,
				"markup_percentage":     recipe.MarkupPercentage,
				"total_ingredient_cost": recipe.TotalIngredientCost,
				"total_labor_cost":      recipe.TotalLaborCost,
				"total_batch_cost":      recipe.TotalBatchCost,
				"cost_per_pie":          recipe.CostPerPie,
				"selling_price":         recipe.SellingPrice,
			}).Error; err != nil {
				return fmt.Errorf("update recipe: %w", err)
			}
		} else {
			if err := tx.Create(&recipe).Error; err != nil {
				return fmt.Errorf("create recipe: %w", err)
			}
		}

		recipeID := recipe.ID
		for _, line := range lines {
			entry := models.RecipeIngredient{
				RecipeID:     recipeID,
				IngredientID: line.IngredientID,
				Quantity:     line.Quantity,
				Unit:         line.Unit,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return fmt.Errorf("create recipe ingredient: %w", err)
			}
		}
		for _, input := range laborInputs {
			entry := models.RecipeLaborInput{
				RecipeID:       recipeID,
				Workers:        input.Workers,
				HoursPerWorker: input.HoursPerWorker,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return fmt.Errorf("create recipe labor input: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return false, &StorageError{Err: err}
	}
	return created, nil
}

// ImportLaborRecords loads the legacy per-product labor sheet, recomputing
// the derived labor cost per pie for every row.
func ImportLaborRecords(ctx context.Context, db *gorm.DB, reader io.Reader, ownerID uint) (Summary, error) {
	if db == nil {
		return Summary{}, &StorageError{Err: gorm.ErrInvalidDB}
	}

	var rows []*laborRow
	if err := gocsv.Unmarshal(reader, &rows); err != nil {
		return Summary{}, fmt.Errorf("parse labor csv: %w", err)
	}

	summary := Summary{}
	for idx, row := range rows {
		pieName := strings.TrimSpace(row.PieName)
		if pieName == "" {
			return summary, fmt.Errorf("row %d: pie name is required", idx+1)
		}

		record := models.LaborRecord{
			PieName:         pieName,
			CostPerHour:     row.CostPerHour,
			MinutesPerPie:   row.MinutesPerPie,
			LaborCostPerPie: costing.LaborCostPerPie(row.CostPerHour, row.MinutesPerPie),
			OwnerID:         ownerID,
		}

		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var existing models.LaborRecord
			err := tx.Where("pie_name = ? AND owner_id = ?", pieName, ownerID).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				summary.Created++
				return tx.Create(&record).Error
			}
			if err != nil {
				return err
			}
			summary.Updated++
			return tx.Model(&existing).Updates(map[string]any{
				"cost_per_hour":      record.CostPerHour,
				"minutes_per_pie":    record.MinutesPerPie,
				"labor_cost_per_pie": record.LaborCostPerPie,
			}).Error
		})
		if err != nil {
			return summary, fmt.Errorf("row %d (%s): %w", idx+1, pieName, &StorageError{Err: err})
		}
	}

	applog.Info(ctx, "labor record import finished", "created", summary.Created, "updated", summary.Updated)
	return summary, nil
}

type parsedLine struct {
	IngredientID uint
	Quantity     float64
	Unit         string
}

func parseIngredientList(value string, aliases AliasTable) ([]parsedLine, error) {
	entries := splitEntries(value)
	if len(entries) == 0 {
		return nil, errors.New("ingredient list is empty")
	}

	lines := make([]parsedLine, 0, len(entries))
	for _, entry := range entries {
		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("malformed ingredient entry %q, want name:quantity[:unit]", entry)
		}

		name := strings.TrimSpace(parts[0])
		id, ok := aliases.Resolve(name)
		if !ok {
			return nil, &UnknownIngredientError{Name: name}
		}

		quantity, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("malformed quantity in entry %q: %w", entry, err)
		}

		unit := ""
		if len(parts) == 3 {
			unit = strings.TrimSpace(parts[2])
		}

		lines = append(lines, parsedLine{IngredientID: id, Quantity: quantity, Unit: unit})
	}
	return lines, nil
}

func parseLaborList(value string) ([]costing.LaborInput, error) {
	entries := splitEntries(value)
	if len(entries) == 0 {
		return nil, errors.New("labor input list is empty")
	}

	inputs := make([]costing.LaborInput, 0, len(entries))
	for _, entry := range entries {
		parts := strings.SplitN(strings.ToLower(entry), "x", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed labor entry %q, want workersxhours", entry)
		}

		workers, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("malformed worker count in entry %q: %w", entry, err)
		}
		hours, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("malformed hours in entry %q: %w", entry, err)
		}

		inputs = append(inputs, costing.LaborInput{Workers: workers, HoursPerWorker: hours})
	}
	return inputs, nil
}

func splitEntries(value string) []string {
	parts := strings.Split(value, ";")
	entries := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		entries = append(entries, trimmed)
	}
	return entries
}
