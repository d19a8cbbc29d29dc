package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Spottie97/PP-Food-Fair/internal/catalog"
	"github.com/Spottie97/PP-Food-Fair/internal/costing"
	applog "github.com/Spottie97/PP-Food-Fair/internal/log"
	"github.com/Spottie97/PP-Food-Fair/models"
)

type recipeLineResponse struct {
	IngredientID   uint    `json:"ingredient_id"`
	IngredientName string  `json:"ingredient_name,omitempty"`
	Quantity       float64 `json:"quantity"`
	Unit           string  `json:"unit"`
}

type laborInputResponse struct {
	Workers        int     `json:"workers"`
	HoursPerWorker float64 `json:"hours_per_worker"`
}

type recipeResponse struct {
	ID               uint                 `json:"id"`
	PieName          string               `json:"pie_name"`
	Variant          string               `json:"variant"`
	BatchSize        int                  `json:"batch_size"`
	LaborHourlyRate  float64              `json:"labor_hourly_rate"`
	MarkupPercentage float64              `json:"markup_percentage"`
	Ingredients      []recipeLineResponse `json:"ingredients"`
	LaborInputs      []laborInputResponse `json:"labor_inputs"`

	TotalIngredientCost float64 `json:"total_ingredient_cost"`
	TotalLaborCost      float64 `json:"total_labor_cost"`
	TotalBatchCost      float64 `json:"total_batch_cost"`
	CostPerPie          float64 `json:"cost_per_pie"`
	SellingPrice        float64 `json:"selling_price"`

	OwnerID   uint      `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type recipeRequest struct {
	PieName          string               `json:"pie_name"`
	Variant          string               `json:"variant"`
	BatchSize        int                  `json:"batch_size"`
	LaborHourlyRate  float64              `json:"labor_hourly_rate"`
	MarkupPercentage float64              `json:"markup_percentage"`
	Ingredients      []costing.Line       `json:"ingredients"`
	LaborInputs      []costing.LaborInput `json:"labor_inputs"`
}

// RecipeResource handles REST-style interactions for recipes. Every write
// runs the full validate-resolve-calculate pipeline before anything is
// persisted, so stored breakdowns never drift from their inputs.
func RecipeResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "recipe request without database")
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		applog.Debug(r.Context(), "recipe request missing authenticated user")
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/app/api/recipes")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listRecipes(w, r, userID)
		case http.MethodPost:
			createRecipe(w, r, userID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	segments := strings.Split(path, "/")
	idValue, err := strconv.ParseUint(segments[0], 10, 64)
	if err != nil {
		applog.Debug(r.Context(), "invalid recipe identifier", "identifier", segments[0], "error", err)
		http.NotFound(w, r)
		return
	}
	recipeID := uint(idValue)

	if len(segments) > 1 && segments[1] == "recalculate" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		recalculateRecipe(w, r, recipeID, userID)
		return
	}

	switch r.Method {
	case http.MethodGet:
		showRecipe(w, r, recipeID, userID)
	case http.MethodPut:
		updateRecipe(w, r, recipeID, userID)
	case http.MethodDelete:
		deleteRecipe(w, r, recipeID, userID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listRecipes(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()
	var results []models.Recipe
	err := database.WithContext(ctx).
		Preload("Ingredients").
		Preload("Ingredients.Ingredient").
		Preload("LaborInputs").
		Where("owner_id = ?", userID).
		Order("pie_name asc, variant asc").
		Find(&results).Error
	if err != nil {
		applog.Error(ctx, "failed to list recipes", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load recipes")
		return
	}

	responses := make([]recipeResponse, 0, len(results))
	for _, recipe := range results {
		responses = append(responses, projectRecipe(recipe))
	}
	writeJSON(w, http.StatusOK, responses)
}

func showRecipe(w http.ResponseWriter, r *http.Request, recipeID, userID uint) {
	recipe, ok := loadOwnedRecipe(w, r, recipeID, userID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, projectRecipe(*recipe))
}

func createRecipe(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()

	var payload recipeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid recipe payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	pieName := strings.TrimSpace(payload.PieName)
	if pieName == "" {
		writeJSONError(w, http.StatusBadRequest, "pie_name is required")
		return
	}
	variant := strings.TrimSpace(payload.Variant)
	if variant == "" {
		variant = "Standard"
	}

	var count int64
	if err := database.WithContext(ctx).Model(&models.Recipe{}).
		Where("pie_name = ? AND variant = ? AND owner_id = ?", pieName, variant, userID).
		Count(&count).Error; err != nil {
		applog.Error(ctx, "failed to check recipe uniqueness", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create recipe")
		return
	}
	if count > 0 {
		writeJSONError(w, http.StatusConflict, fmt.Sprintf("recipe %q (%s) already exists", pieName, variant))
		return
	}

	breakdown, ok := calculateForRequest(w, r, payload, userID)
	if !ok {
		return
	}

	recipe := models.Recipe{
		PieName:             pieName,
		Variant:             variant,
		BatchSize:           payload.BatchSize,
		LaborHourlyRate:     payload.LaborHourlyRate,
		MarkupPercentage:    payload.MarkupPercentage,
		TotalIngredientCost: breakdown.TotalIngredientCost,
		TotalLaborCost:      breakdown.TotalLaborCost,
		TotalBatchCost:      breakdown.TotalBatchCost,
		CostPerPie:          breakdown.CostPerPie,
		SellingPrice:        breakdown.SellingPrice,
		OwnerID:             userID,
	}
	for _, line := range payload.Ingredients {
		recipe.Ingredients = append(recipe.Ingredients, models.RecipeIngredient{
			IngredientID: line.IngredientID,
			Quantity:     line.Quantity,
			Unit:         line.Unit,
		})
	}
	for _, input := range payload.LaborInputs {
		recipe.LaborInputs = append(recipe.LaborInputs, models.RecipeLaborInput{
			Workers:        input.Workers,
			HoursPerWorker: input.HoursPerWorker,
		})
	}

	if err := database.WithContext(ctx).Create(&recipe).Error; err != nil {
		applog.Error(ctx, "failed to create recipe", "error", err, "pie", pieName)
		writeJSONError(w, http.StatusInternalServerError, "unable to create recipe")
		return
	}

	applog.Info(ctx, "recipe created", "id", recipe.ID, "pie", pieName, "variant", variant)
	writeJSON(w, http.StatusCreated, projectRecipe(recipe))
}

func updateRecipe(w http.ResponseWriter, r *http.Request, recipeID, userID uint) {
	ctx := r.Context()
	recipe, ok := loadOwnedRecipe(w, r, recipeID, userID)
	if !ok {
		return
	}

	var payload recipeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid recipe update payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	pieName := strings.TrimSpace(payload.PieName)
	if pieName == "" {
		pieName = recipe.PieName
	}
	variant := strings.TrimSpace(payload.Variant)
	if variant == "" {
		variant = recipe.Variant
	}

	if pieName != recipe.PieName || variant != recipe.Variant {
		var count int64
		if err := database.WithContext(ctx).Model(&models.Recipe{}).
			Where("pie_name = ? AND variant = ? AND owner_id = ? AND id <> ?", pieName, variant, userID, recipe.ID).
			Count(&count).Error; err != nil {
			applog.Error(ctx, "failed to check recipe uniqueness", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "unable to update recipe")
			return
		}
		if count > 0 {
			writeJSONError(w, http.StatusConflict, fmt.Sprintf("recipe %q (%s) already exists", pieName, variant))
			return
		}
	}

	breakdown, ok := calculateForRequest(w, r, payload, userID)
	if !ok {
		return
	}

	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("clear recipe ingredients: %w", err)
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeLaborInput{}).Error; err != nil {
			return fmt.Errorf("clear recipe labor inputs: %w", err)
		}
		if err := tx.Model(recipe).Updates(map[string]any{
			"pie_name":              pieName,
			"variant":               variant,
			"batch_size":            payload.BatchSize,
			"labor_hourly_rate":     payload.LaborHourlyRate,
			"markup_percentage":     payload.MarkupPercentage,
			"total_ingredient_cost": breakdown.TotalIngredientCost,
			"total_labor_cost":      breakdown.TotalLaborCost,
			"total_batch_cost":      breakdown.TotalBatchCost,
			"cost_per_pie":          breakdown.CostPerPie,
			"selling_price":         breakdown.SellingPrice,
		}).Error; err != nil {
			return fmt.Errorf("update recipe: %w", err)
		}
		for _, line := range payload.Ingredients {
			entry := models.RecipeIngredient{
				RecipeID:     recipe.ID,
				IngredientID: line.IngredientID,
				Quantity:     line.Quantity,
				Unit:         line.Unit,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return fmt.Errorf("create recipe ingredient: %w", err)
			}
		}
		for _, input := range payload.LaborInputs {
			entry := models.RecipeLaborInput{
				RecipeID:       recipe.ID,
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
		applog.Error(ctx, "failed to update recipe", "error", err, "id", recipe.ID)
		writeJSONError(w, http.StatusInternalServerError, "unable to update recipe")
		return
	}

	reloaded, ok := loadOwnedRecipe(w, r, recipe.ID, userID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, projectRecipe(*reloaded))
}

func deleteRecipe(w http.ResponseWriter, r *http.Request, recipeID, userID uint) {
	ctx := r.Context()
	recipe, ok := loadOwnedRecipe(w, r, recipeID, userID)
	if !ok {
		return
	}

	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeLaborInput{}).Error; err != nil {
			return err
		}
		return tx.Delete(recipe).Error
	})
	if err != nil {
		applog.Error(ctx, "failed to delete recipe", "error", err, "id", recipe.ID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete recipe")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// recalculateRecipe reprices a stored recipe against the current catalog
// without changing any of its inputs.
func recalculateRecipe(w http.ResponseWriter, r *http.Request, recipeID, userID uint) {
	ctx := r.Context()
	recipe, ok := loadOwnedRecipe(w, r, recipeID, userID)
	if !ok {
		return
	}

	request := costing.Request{
		LaborHourlyRate:  recipe.LaborHourlyRate,
		BatchSize:        recipe.BatchSize,
		MarkupPercentage: recipe.MarkupPercentage,
	}
	for _, line := range recipe.Ingredients {
		request.Ingredients = append(request.Ingredients, costing.Line{
			IngredientID: line.IngredientID,
			Quantity:     line.Quantity,
			Unit:         line.Unit,
		})
	}
	for _, input := range recipe.LaborInputs {
		request.LaborInputs = append(request.LaborInputs, costing.LaborInput{
			Workers:        input.Workers,
			HoursPerWorker: input.HoursPerWorker,
		})
	}

	breakdown, ok := calculateForRequest(w, r, recipeRequest{
		BatchSize:        request.BatchSize,
		LaborHourlyRate:  request.LaborHourlyRate,
		MarkupPercentage: request.MarkupPercentage,
		Ingredients:      request.Ingredients,
		LaborInputs:      request.LaborInputs,
	}, userID)
	if !ok {
		return
	}

	if err := database.WithContext(ctx).Model(recipe).Updates(map[string]any{
		"total_ingredient_cost": breakdown.TotalIngredientCost,
		"total_labor_cost":      breakdown.TotalLaborCost,
		"total_batch_cost":      breakdown.TotalBatchCost,
		"cost_per_pie":          breakdown.CostPerPie,
		"selling_price":         breakdown.SellingPrice,
	}).Error; err != nil {
		applog.Error(ctx, "failed to store recalculated breakdown", "error", err, "id", recipe.ID)
		writeJSONError(w, http.StatusInternalServerError, "unable to recalculate recipe")
		return
	}

	reloaded, ok := loadOwnedRecipe(w, r, recipe.ID, userID)
	if !ok {
		return
	}
	applog.Info(ctx, "recipe recalculated", "id", recipe.ID)
	writeJSON(w, http.StatusOK, projectRecipe(*reloaded))
}

// calculateForRequest validates the draft and prices it against the catalog.
// On failure it writes the error response and returns ok=false; nothing has
// been persisted at that point.
func calculateForRequest(w http.ResponseWriter, r *http.Request, payload recipeRequest, userID uint) (costing.Breakdown, bool) {
	ctx := r.Context()

	request := costing.Request{
		Ingredients:      payload.Ingredients,
		LaborInputs:      payload.LaborInputs,
		LaborHourlyRate:  payload.LaborHourlyRate,
		BatchSize:        payload.BatchSize,
		MarkupPercentage: payload.MarkupPercentage,
	}

	if err := costing.Validate(request); err != nil {
		applog.Debug(ctx, "recipe validation failed", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return costing.Breakdown{}, false
	}

	resolver := catalog.NewResolver(database, userID)
	breakdown, err := costing.Calculate(ctx, request, resolver)
	if err != nil {
		writeCostingError(w, r, err)
		return costing.Breakdown{}, false
	}
	return breakdown, true
}

func writeCostingError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var notFound *costing.NotFoundError
	if errors.As(err, &notFound) {
		applog.Debug(ctx, "recipe references unknown ingredient", "ingredientID", notFound.IngredientID)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	var mismatch *costing.UnitMismatchError
	if errors.As(err, &mismatch) {
		applog.Debug(ctx, "recipe line unit mismatch", "ingredientID", mismatch.IngredientID)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	var badCost *costing.CostError
	if errors.As(err, &badCost) {
		applog.Error(ctx, "catalog holds unusable ingredient cost", "ingredientID", badCost.IngredientID)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	applog.Error(ctx, "recipe calculation failed", "error", err)
	writeJSONError(w, http.StatusInternalServerError, "unable to calculate recipe cost")
}

func loadOwnedRecipe(w http.ResponseWriter, r *http.Request, recipeID, userID uint) (*models.Recipe, bool) {
	ctx := r.Context()
	var recipe models.Recipe
	err := database.WithContext(ctx).
		Preload("Ingredients").
		Preload("Ingredients.Ingredient").
		Preload("LaborInputs").
		Where("id = ? AND owner_id = ?", recipeID, userID).
		First(&recipe).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "recipe not found or not owned", "id", recipeID, "user", userID)
			http.NotFound(w, r)
			return nil, false
		}
		applog.Error(ctx, "failed to load recipe", "error", err, "id", recipeID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load recipe")
		return nil, false
	}
	return &recipe, true
}

func projectRecipe(recipe models.Recipe) recipeResponse {
	lines := make([]recipeLineResponse, 0, len(recipe.Ingredients))
	for _, line := range recipe.Ingredients {
		entry := recipeLineResponse{
			IngredientID: line.IngredientID,
			Quantity:     line.Quantity,
			Unit:         line.Unit,
		}
		if line.Ingredient != nil {
			entry.IngredientName = line.Ingredient.Name
			if entry.Unit == "" {
				entry.Unit = line.Ingredient.UnitOfMeasure
			}
		}
		lines = append(lines, entry)
	}

	labor := make([]laborInputResponse, 0, len(recipe.LaborInputs))
	for _, input := range recipe.LaborInputs {
		labor = append(labor, laborInputResponse{
			Workers:        input.Workers,
			HoursPerWorker: input.HoursPerWorker,
		})
	}

	return recipeResponse{
		ID:                  recipe.ID,
		PieName:             recipe.PieName,
		Variant:             recipe.Variant,
		BatchSize:           recipe.BatchSize,
		LaborHourlyRate:     recipe.LaborHourlyRate,
		MarkupPercentage:    recipe.MarkupPercentage,
		Ingredients:         lines,
		LaborInputs:         labor,
		TotalIngredientCost: recipe.TotalIngredientCost,
		TotalLaborCost:      recipe.TotalLaborCost,
		TotalBatchCost:      recipe.TotalBatchCost,
		CostPerPie:          recipe.CostPerPie,
		SellingPrice:        recipe.SellingPrice,
		OwnerID:             recipe.OwnerID,
		CreatedAt:           recipe.CreatedAt,
		UpdatedAt:           recipe.UpdatedAt,
	}
}
