package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Spottie97/PP-Food-Fair/internal/importer"
	applog "github.com/Spottie97/PP-Food-Fair/internal/log"
	"github.com/Spottie97/PP-Food-Fair/models"
)

type ingredientResponse struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	UnitOfMeasure string    `json:"unit_of_measure"`
	CostPerUnit   float64   `json:"cost_per_unit"`
	Aliases       []string  `json:"aliases"`
	OwnerID       uint      `json:"owner_id"`
	Public        bool      `json:"public"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	CanEdit       bool      `json:"can_edit"`
}

type ingredientRequest struct {
	Name          string   `json:"name"`
	UnitOfMeasure string   `json:"unit_of_measure"`
	CostPerUnit   float64  `json:"cost_per_unit"`
	Aliases       []string `json:"aliases"`
	Public        bool     `json:"public"`
}

// IngredientResource handles REST-style interactions for catalog ingredients.
func IngredientResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "ingredient request without database")
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		applog.Debug(r.Context(), "ingredient request missing authenticated user")
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/app/api/ingredients")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listIngredients(w, r, userID)
		case http.MethodPost:
			createIngredient(w, r, userID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	idValue, err := strconv.ParseUint(path, 10, 64)
	if err != nil {
		applog.Debug(r.Context(), "invalid ingredient identifier", "identifier", path, "error", err)
		http.NotFound(w, r)
		return
	}
	ingredientID := uint(idValue)

	switch r.Method {
	case http.MethodGet:
		showIngredient(w, r, ingredientID, userID)
	case http.MethodPut:
		updateIngredient(w, r, ingredientID, userID)
	case http.MethodDelete:
		deleteIngredient(w, r, ingredientID, userID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listIngredients(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()
	var results []models.Ingredient
	err := database.WithContext(ctx).
		Preload("Aliases").
		Where("owner_id = ? OR public = ?", userID, true).
		Order("name asc").
		Find(&results).Error
	if err != nil {
		applog.Error(ctx, "failed to list ingredients", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load ingredients")
		return
	}

	responses := make([]ingredientResponse, 0, len(results))
	for _, ingredient := range results {
		responses = append(responses, projectIngredient(ingredient, userID))
	}
	writeJSON(w, http.StatusOK, responses)
}

func showIngredient(w http.ResponseWriter, r *http.Request, ingredientID, userID uint) {
	ctx := r.Context()
	var ingredient models.Ingredient
	if err := database.WithContext(ctx).Preload("Aliases").First(&ingredient, ingredientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "ingredient not found", "id", ingredientID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load ingredient", "error", err, "id", ingredientID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load ingredient")
		return
	}

	if ingredient.OwnerID != userID && !ingredient.Public {
		applog.Debug(ctx, "ingredient access denied", "id", ingredientID, "owner", ingredient.OwnerID, "user", userID)
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, projectIngredient(ingredient, userID))
}

func createIngredient(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()

	var payload ingredientRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid ingredient payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}
	unit := strings.TrimSpace(payload.UnitOfMeasure)
	if unit == "" {
		writeJSONError(w, http.StatusBadRequest, "unit_of_measure is required")
		return
	}
	if payload.CostPerUnit < 0 {
		writeJSONError(w, http.StatusBadRequest, "cost_per_unit must not be negative")
		return
	}

	taken, err := ingredientNameTaken(ctx, name, 0, userID)
	if err != nil {
		applog.Error(ctx, "failed to check ingredient name", "error", err, "name", name)
		writeJSONError(w, http.StatusInternalServerError, "unable to create ingredient")
		return
	}
	if taken {
		writeJSONError(w, http.StatusConflict, "an ingredient with that name already exists")
		return
	}

	ingredient := models.Ingredient{
		Name:          name,
		UnitOfMeasure: unit,
		CostPerUnit:   payload.CostPerUnit,
		OwnerID:       userID,
		Public:        payload.Public,
		Aliases:       sanitizeAliases(payload.Aliases),
	}

	if err := database.WithContext(ctx).Create(&ingredient).Error; err != nil {
		applog.Error(ctx, "failed to create ingredient", "error", err, "name", name)
		writeJSONError(w, http.StatusInternalServerError, "unable to create ingredient")
		return
	}

	writeJSON(w, http.StatusCreated, projectIngredient(ingredient, userID))
}

func updateIngredient(w http.ResponseWriter, r *http.Request, ingredientID, userID uint) {
	ctx := r.Context()
	var ingredient models.Ingredient
	if err := database.WithContext(ctx).Preload("Aliases").
		Where("id = ? AND owner_id = ?", ingredientID, userID).
		First(&ingredient).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "update denied: ingredient not found or not owned", "id", ingredientID, "user", userID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load ingredient for update", "error", err, "id", ingredientID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load ingredient")
		return
	}

	var payload ingredientRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid ingredient update payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}
	unit := strings.TrimSpace(payload.UnitOfMeasure)
	if unit == "" {
		writeJSONError(w, http.StatusBadRequest, "unit_of_measure is required")
		return
	}
	if payload.CostPerUnit < 0 {
		writeJSONError(w, http.StatusBadRequest, "cost_per_unit must not be negative")
		return
	}

	taken, err := ingredientNameTaken(ctx, name, ingredient.ID, userID)
	if err != nil {
		applog.Error(ctx, "failed to check ingredient name", "error", err, "name", name)
		writeJSONError(w, http.StatusInternalServerError, "unable to update ingredient")
		return
	}
	if taken {
		writeJSONError(w, http.StatusConflict, "an ingredient with that name already exists")
		return
	}

	updates := map[string]any{
		"name":            name,
		"unit_of_measure": unit,
		"cost_per_unit":   payload.CostPerUnit,
		"public":          payload.Public,
	}
	if err := database.WithContext(ctx).Model(&ingredient).Updates(updates).Error; err != nil {
		applog.Error(ctx, "failed to update ingredient", "error", err, "id", ingredientID)
		writeJSONError(w, http.StatusInternalServerError, "unable to update ingredient")
		return
	}

	if err := replaceAliases(ctx, &ingredient, payload.Aliases); err != nil {
		applog.Error(ctx, "failed to update ingredient aliases", "error", err, "id", ingredientID)
		writeJSONError(w, http.StatusInternalServerError, "unable to update aliases")
		return
	}

	if err := database.WithContext(ctx).Preload("Aliases").First(&ingredient, ingredientID).Error; err != nil {
		applog.Error(ctx, "failed to reload ingredient after update", "error", err, "id", ingredientID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load updated record")
		return
	}

	writeJSON(w, http.StatusOK, projectIngredient(ingredient, userID))
}

func deleteIngredient(w http.ResponseWriter, r *http.Request, ingredientID, userID uint) {
	ctx := r.Context()
	var ingredient models.Ingredient
	if err := database.WithContext(ctx).Where("id = ? AND owner_id = ?", ingredientID, userID).First(&ingredient).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "delete denied: ingredient not found or not owned", "id", ingredientID, "user", userID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load ingredient for delete", "error", err, "id", ingredientID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load ingredient")
		return
	}

	// Recipes reference ingredients by id; deleting a referenced ingredient
	// would orphan their cost breakdowns.
	var references int64
	if err := database.WithContext(ctx).Model(&models.RecipeIngredient{}).
		Where("ingredient_id = ?", ingredientID).
		Count(&references).Error; err != nil {
		applog.Error(ctx, "failed to count ingredient references", "error", err, "id", ingredientID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete ingredient")
		return
	}
	if references > 0 {
		applog.Debug(ctx, "delete blocked: ingredient referenced by recipes", "id", ingredientID, "references", references)
		writeJSONError(w, http.StatusConflict, "ingredient is used by existing recipes")
		return
	}

	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ingredient_id = ?", ingredientID).Delete(&models.IngredientAlias{}).Error; err != nil {
			return err
		}
		return tx.Delete(&ingredient).Error
	})
	if err != nil {
		applog.Error(ctx, "failed to delete ingredient", "error", err, "id", ingredientID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete ingredient")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ingredientNameTaken reports whether another visible ingredient already uses
// the name, compared case-insensitively.
func ingredientNameTaken(ctx context.Context, name string, excludeID, userID uint) (bool, error) {
	normalized := importer.NormalizeName(name)
	query := database.WithContext(ctx).Model(&models.Ingredient{}).
		Where("lower(name) = ?", normalized).
		Where("owner_id = ? OR public = ?", userID, true)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func sanitizeAliases(names []string) []models.IngredientAlias {
	aliases := make([]models.IngredientAlias, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		key := importer.NormalizeName(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		aliases = append(aliases, models.IngredientAlias{Name: trimmed})
	}
	return aliases
}

func replaceAliases(ctx context.Context, ingredient *models.Ingredient, names []string) error {
	sanitized := sanitizeAliases(names)
	assoc := database.WithContext(ctx).Model(ingredient).Association("Aliases")
	if len(sanitized) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(sanitized)
}

func projectIngredient(ingredient models.Ingredient, userID uint) ingredientResponse {
	aliases := make([]string, 0, len(ingredient.Aliases))
	for _, alias := range ingredient.Aliases {
		trimmed := strings.TrimSpace(alias.Name)
		if trimmed == "" {
			continue
		}
		aliases = append(aliases, trimmed)
	}

	return ingredientResponse{
		ID:            ingredient.ID,
		Name:          ingredient.Name,
		UnitOfMeasure: ingredient.UnitOfMeasure,
		CostPerUnit:   ingredient.CostPerUnit,
		Aliases:       aliases,
		OwnerID:       ingredient.OwnerID,
		Public:        ingredient.Public,
		CreatedAt:     ingredient.CreatedAt,
		UpdatedAt:     ingredient.UpdatedAt,
		CanEdit:       ingredient.OwnerID == userID,
	}
}
