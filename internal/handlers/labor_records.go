package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Spottie97/PP-Food-Fair/internal/costing"
	applog "github.com/Spottie97/PP-Food-Fair/internal/log"
	"github.com/Spottie97/PP-Food-Fair/models"
)

type laborRecordResponse struct {
	ID              uint      `json:"id"`
	PieName         string    `json:"pie_name"`
	CostPerHour     float64   `json:"cost_per_hour"`
	MinutesPerPie   float64   `json:"minutes_per_pie"`
	LaborCostPerPie float64   `json:"labor_cost_per_pie"`
	OwnerID         uint      `json:"owner_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type laborRecordRequest struct {
	PieName       string  `json:"pie_name"`
	CostPerHour   float64 `json:"cost_per_hour"`
	MinutesPerPie float64 `json:"minutes_per_pie"`
}

// LaborRecordResource handles REST-style interactions for the legacy
// per-product labor sheet. The derived labor cost per pie is recomputed on
// every write; it is never accepted from the caller.
func LaborRecordResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "labor record request without database")
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		applog.Debug(r.Context(), "labor record request missing authenticated user")
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/app/api/labor-records")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listLaborRecords(w, r, userID)
		case http.MethodPost:
			createLaborRecord(w, r, userID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	idValue, err := strconv.ParseUint(path, 10, 64)
	if err != nil {
		applog.Debug(r.Context(), "invalid labor record identifier", "identifier", path, "error", err)
		http.NotFound(w, r)
		return
	}
	recordID := uint(idValue)

	switch r.Method {
	case http.MethodGet:
		showLaborRecord(w, r, recordID, userID)
	case http.MethodPut:
		updateLaborRecord(w, r, recordID, userID)
	case http.MethodDelete:
		deleteLaborRecord(w, r, recordID, userID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listLaborRecords(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()
	var results []models.LaborRecord
	err := database.WithContext(ctx).
		Where("owner_id = ?", userID).
		Order("pie_name asc").
		Find(&results).Error
	if err != nil {
		applog.Error(ctx, "failed to list labor records", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load labor records")
		return
	}

	responses := make([]laborRecordResponse, 0, len(results))
	for _, record := range results {
		responses = append(responses, projectLaborRecord(record))
	}
	writeJSON(w, http.StatusOK, responses)
}

func showLaborRecord(w http.ResponseWriter, r *http.Request, recordID, userID uint) {
	record, ok := loadOwnedLaborRecord(w, r, recordID, userID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, projectLaborRecord(*record))
}

func createLaborRecord(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()

	payload, ok := decodeLaborRecordRequest(w, r)
	if !ok {
		return
	}

	var count int64
	if err := database.WithContext(ctx).Model(&models.LaborRecord{}).
		Where("pie_name = ? AND owner_id = ?", payload.PieName, userID).
		Count(&count).Error; err != nil {
		applog.Error(ctx, "failed to check labor record uniqueness", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create labor record")
		return
	}
	if count > 0 {
		writeJSONError(w, http.StatusConflict, "a labor record for that pie already exists")
		return
	}

	record := models.LaborRecord{
		PieName:         payload.PieName,
		CostPerHour:     payload.CostPerHour,
		MinutesPerPie:   payload.MinutesPerPie,
		LaborCostPerPie: costing.LaborCostPerPie(payload.CostPerHour, payload.MinutesPerPie),
		OwnerID:         userID,
	}

	if err := database.WithContext(ctx).Create(&record).Error; err != nil {
		applog.Error(ctx, "failed to create labor record", "error", err, "pie", payload.PieName)
		writeJSONError(w, http.StatusInternalServerError, "unable to create labor record")
		return
	}

	writeJSON(w, http.StatusCreated, projectLaborRecord(record))
}

func updateLaborRecord(w http.ResponseWriter, r *http.Request, recordID, userID uint) {
	ctx := r.Context()
	record, ok := loadOwnedLaborRecord(w, r, recordID, userID)
	if !ok {
		return
	}

	payload, ok := decodeLaborRecordRequest(w, r)
	if !ok {
		return
	}

	if err := database.WithContext(ctx).Model(record).Updates(map[string]any{
		"pie_name":           payload.PieName,
		"cost_per_hour":      payload.CostPerHour,
		"minutes_per_pie":    payload.MinutesPerPie,
		"labor_cost_per_pie": costing.LaborCostPerPie(payload.CostPerHour, payload.MinutesPerPie),
	}).Error; err != nil {
		applog.Error(ctx, "failed to update labor record", "error", err, "id", recordID)
		writeJSONError(w, http.StatusInternalServerError, "unable to update labor record")
		return
	}

	reloaded, ok := loadOwnedLaborRecord(w, r, recordID, userID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, projectLaborRecord(*reloaded))
}

func deleteLaborRecord(w http.ResponseWriter, r *http.Request, recordID, userID uint) {
	ctx := r.Context()
	record, ok := loadOwnedLaborRecord(w, r, recordID, userID)
	if !ok {
		return
	}

	if err := database.WithContext(ctx).Delete(record).Error; err != nil {
		applog.Error(ctx, "failed to delete labor record", "error", err, "id", recordID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete labor record")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func decodeLaborRecordRequest(w http.ResponseWriter, r *http.Request) (laborRecordRequest, bool) {
	var payload laborRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(r.Context(), "invalid labor record payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return payload, false
	}

	payload.PieName = strings.TrimSpace(payload.PieName)
	if payload.PieName == "" {
		writeJSONError(w, http.StatusBadRequest, "pie_name is required")
		return payload, false
	}
	return payload, true
}

func loadOwnedLaborRecord(w http.ResponseWriter, r *http.Request, recordID, userID uint) (*models.LaborRecord, bool) {
	ctx := r.Context()
	var record models.LaborRecord
	err := database.WithContext(ctx).
		Where("id = ? AND owner_id = ?", recordID, userID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "labor record not found or not owned", "id", recordID, "user", userID)
			http.NotFound(w, r)
			return nil, false
		}
		applog.Error(ctx, "failed to load labor record", "error", err, "id", recordID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load labor record")
		return nil, false
	}
	return &record, true
}

func projectLaborRecord(record models.LaborRecord) laborRecordResponse {
	return laborRecordResponse{
		ID:              record.ID,
		PieName:         record.PieName,
		CostPerHour:     record.CostPerHour,
		MinutesPerPie:   record.MinutesPerPie,
		LaborCostPerPie: record.LaborCostPerPie,
		OwnerID:         record.OwnerID,
		CreatedAt:       record.CreatedAt,
		UpdatedAt:       record.UpdatedAt,
	}
}
