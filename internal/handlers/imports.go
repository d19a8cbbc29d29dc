package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"gorm.io/gorm"

	"github.com/Spottie97/PP-Food-Fair/internal/importer"
	applog "github.com/Spottie97/PP-Food-Fair/internal/log"
)

type importResponse struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

type importFunc func(ctx context.Context, db *gorm.DB, reader io.Reader, ownerID uint) (importer.Summary, error)

// ImportRecipes accepts a CSV body and bulk-loads recipes through the same
// calculation pipeline as manual entry. A bad row aborts the run.
func ImportRecipes(w http.ResponseWriter, r *http.Request) {
	runImport(w, r, importer.ImportRecipes)
}

// ImportLaborRecords accepts a CSV body of the legacy per-product labor sheet.
func ImportLaborRecords(w http.ResponseWriter, r *http.Request) {
	runImport(w, r, importer.ImportLaborRecords)
}

func runImport(w http.ResponseWriter, r *http.Request, run importFunc) {
	if r.Method != http.MethodPost {
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

	summary, err := run(r.Context(), database, r.Body, userID)
	if err != nil {
		var storage *importer.StorageError
		if errors.As(err, &storage) {
			applog.Error(r.Context(), "import failed", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "unable to complete import")
			return
		}
		applog.Debug(r.Context(), "import rejected", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, importResponse{Created: summary.Created, Updated: summary.Updated})
}
