package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/360EntSecGroup-Skylar/excelize"

	applog "github.com/Spottie97/PP-Food-Fair/internal/log"
	"github.com/Spottie97/PP-Food-Fair/models"
)

const exportSheetName = "Recipes"

// ExportRecipes streams the caller's full price list as an xlsx workbook, one
// row per recipe with the stored cost breakdown.
func ExportRecipes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx := r.Context()
	var recipes []models.Recipe
	if err := database.WithContext(ctx).
		Where("owner_id = ?", userID).
		Order("pie_name asc, variant asc").
		Find(&recipes).Error; err != nil {
		applog.Error(ctx, "failed to load recipes for export", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to export recipes")
		return
	}

	workbook := buildRecipeWorkbook(recipes)

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="recipes.xlsx"`)
	if err := workbook.Write(w); err != nil {
		applog.Error(ctx, "failed to write workbook", "error", err)
		return
	}
	applog.Info(ctx, "recipe export generated", "recipes", len(recipes))
}

func buildRecipeWorkbook(recipes []models.Recipe) *excelize.File {
	workbook := excelize.NewFile()
	workbook.SetSheetName("Sheet1", exportSheetName)

	headers := []string{
		"Pie Name", "Variant", "Batch Size", "Labor Hourly Rate", "Markup %",
		"Ingredient Cost", "Labor Cost", "Batch Cost", "Cost Per Pie", "Selling Price",
	}
	columns := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"}
	for i, header := range headers {
		workbook.SetCellValue(exportSheetName, fmt.Sprintf("%s1", columns[i]), header)
	}

	for i, recipe := range recipes {
		row := i + 2
		values := []any{
			recipe.PieName,
			recipe.Variant,
			recipe.BatchSize,
			recipe.LaborHourlyRate,
			recipe.MarkupPercentage,
			recipe.TotalIngredientCost,
			recipe.TotalLaborCost,
			recipe.TotalBatchCost,
			recipe.CostPerPie,
			recipe.SellingPrice,
		}
		for col, value := range values {
			workbook.SetCellValue(exportSheetName, fmt.Sprintf("%s%d", columns[col], row), value)
		}
	}

	return workbook
}

type priceSheetRequest struct {
	To string `json:"to"`
}

// EmailPriceSheet sends the caller's current price list as a plain-text
// summary to the requested address.
func EmailPriceSheet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	if mailer == nil || !mailer.Enabled() {
		writeJSONError(w, http.StatusServiceUnavailable, "outbound mail is not configured")
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var payload priceSheetRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	to := strings.TrimSpace(payload.To)
	if to == "" || !strings.Contains(to, "@") {
		writeJSONError(w, http.StatusBadRequest, "a valid recipient address is required")
		return
	}

	ctx := r.Context()
	var recipes []models.Recipe
	if err := database.WithContext(ctx).
		Where("owner_id = ?", userID).
		Order("pie_name asc, variant asc").
		Find(&recipes).Error; err != nil {
		applog.Error(ctx, "failed to load recipes for price sheet", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to build price sheet")
		return
	}

	var body strings.Builder
	body.WriteString("Current pie prices:\n\n")
	for _, recipe := range recipes {
		fmt.Fprintf(&body, "%s (%s): cost per pie R%.2f, selling price R%.2f\n",
			recipe.PieName, recipe.Variant, recipe.CostPerPie, recipe.SellingPrice)
	}
	if len(recipes) == 0 {
		body.WriteString("No recipes on file yet.\n")
	}

	if err := mailer.SendPriceSheet(ctx, to, "PP Food Fair price sheet", body.String()); err != nil {
		applog.Error(ctx, "failed to send price sheet", "error", err, "to", to)
		writeJSONError(w, http.StatusInternalServerError, "unable to send price sheet")
		return
	}

	applog.Info(ctx, "price sheet sent", "to", to, "recipes", len(recipes))
	writeJSON(w, http.StatusOK, map[string]any{"status": "sent", "recipes": len(recipes)})
}
