package server

import (
	"context"
	"net/http"

	"github.com/Spottie97/PP-Food-Fair/internal/handlers"
	applog "github.com/Spottie97/PP-Food-Fair/internal/log"
	"github.com/Spottie97/PP-Food-Fair/models"
)

func newRouter() http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")

	mux.HandleFunc("/healthz", handlers.Health)
	mux.HandleFunc("/login", handlers.Login)
	mux.HandleFunc("/signup", handlers.Signup)
	mux.HandleFunc("/logout", handlers.Logout)

	protect := func(h http.HandlerFunc) http.Handler {
		return handlers.RequireAuthentication(h)
	}

	mux.Handle("/app/api/ingredients", protect(handlers.IngredientResource))
	mux.Handle("/app/api/ingredients/", protect(handlers.IngredientResource))
	mux.Handle("/app/api/recipes", protect(handlers.RecipeResource))
	mux.Handle("/app/api/recipes/", protect(handlers.RecipeResource))
	mux.Handle("/app/api/labor-records", protect(handlers.LaborRecordResource))
	mux.Handle("/app/api/labor-records/", protect(handlers.LaborRecordResource))
	mux.Handle("/app/api/export/recipes", protect(handlers.ExportRecipes))
	mux.Handle("/app/api/export/recipes/email", protect(handlers.EmailPriceSheet))

	// Bulk imports rewrite whole sections of the catalog, so they stay
	// admin-only.
	mux.Handle("/app/api/import/recipes", handlers.RequireRole(models.RoleAdmin, http.HandlerFunc(handlers.ImportRecipes)))
	mux.Handle("/app/api/import/labor-records", handlers.RequireRole(models.RoleAdmin, http.HandlerFunc(handlers.ImportLaborRecords)))

	applog.Debug(context.Background(), "routes registered")
	return mux
}
