package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/alexedwards/scs/v2"
	"gorm.io/gorm"

	"github.com/Spottie97/PP-Food-Fair/models"
)

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func seedUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	user := models.User{Email: email, PasswordHash: "hash", Role: models.RoleMember}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedIngredient(t *testing.T, db *gorm.DB, ownerID uint, name, unit string, cost float64) models.Ingredient {
	t.Helper()
	ingredient := models.Ingredient{Name: name, UnitOfMeasure: unit, CostPerUnit: cost, OwnerID: ownerID}
	if err := db.Create(&ingredient).Error; err != nil {
		t.Fatalf("failed to seed ingredient %q: %v", name, err)
	}
	return ingredient
}

func authedJSONRequest(t *testing.T, sm *scs.SessionManager, userID uint, method, target string, payload any) *http.Request {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to encode payload: %v", err)
		}
		body = bytes.NewBuffer(encoded)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, target, body)
	ctx, err := sm.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session context: %v", err)
	}
	req = req.WithContext(ctx)
	signInAs(t, sm, req, userID, models.RoleMember)
	return req
}

func TestIngredientCreateAndDuplicate(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	db, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	user := seedUser(t, db, "baker@example.com")

	payload := ingredientRequest{
		Name:          "Cake Flour",
		UnitOfMeasure: "kg",
		CostPerUnit:   1.50,
		Aliases:       []string{"White Flour", " white flour ", ""},
	}
	req := authedJSONRequest(t, sm, user.ID, http.MethodPost, "/app/api/ingredients", payload)
	w := httptest.NewRecorder()
	IngredientResource(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created ingredientResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(created.Aliases) != 1 {
		t.Fatalf("expected duplicate and blank aliases dropped, got %v", created.Aliases)
	}

	// Same name in a different case must be rejected.
	payload.Name = "CAKE flour"
	req = authedJSONRequest(t, sm, user.ID, http.MethodPost, "/app/api/ingredients", payload)
	w = httptest.NewRecorder()
	IngredientResource(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate name, got %d", w.Code)
	}
}

func TestIngredientDeleteBlockedWhileReferenced(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	db, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	user := seedUser(t, db, "baker@example.com")
	flour := seedIngredient(t, db, user.ID, "Cake Flour", "kg", 1.50)

	recipe := models.Recipe{
		PieName:   "Chicken Pie",
		Variant:   "Standard",
		BatchSize: 10,
		OwnerID:   user.ID,
		Ingredients: []models.RecipeIngredient{
			{IngredientID: flour.ID, Quantity: 2, Unit: "kg"},
		},
	}
	if err := db.Create(&recipe).Error; err != nil {
		t.Fatalf("failed to seed recipe: %v", err)
	}

	req := authedJSONRequest(t, sm, user.ID, http.MethodDelete, "/app/api/ingredients/"+itoa(flour.ID), nil)
	w := httptest.NewRecorder()
	IngredientResource(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 while referenced, got %d: %s", w.Code, w.Body.String())
	}

	if err := db.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		t.Fatalf("failed to clear references: %v", err)
	}

	req = authedJSONRequest(t, sm, user.ID, http.MethodDelete, "/app/api/ingredients/"+itoa(flour.ID), nil)
	w = httptest.NewRecorder()
	IngredientResource(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 once unreferenced, got %d: %s", w.Code, w.Body.String())
	}
}

func TestIngredientVisibilityScopedToOwnerAndPublic(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	db, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	owner := seedUser(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")

	private := seedIngredient(t, db, owner.ID, "Secret Spice", "g", 0.20)
	shared := models.Ingredient{Name: "Butter", UnitOfMeasure: "kg", CostPerUnit: 8.75, OwnerID: owner.ID, Public: true}
	if err := db.Create(&shared).Error; err != nil {
		t.Fatalf("failed to seed public ingredient: %v", err)
	}

	req := authedJSONRequest(t, sm, other.ID, http.MethodGet, "/app/api/ingredients", nil)
	w := httptest.NewRecorder()
	IngredientResource(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var listed []ingredientResponse
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(listed) != 1 || listed[0].Name != "Butter" {
		t.Fatalf("expected only the public ingredient, got %+v", listed)
	}

	req = authedJSONRequest(t, sm, other.ID, http.MethodGet, "/app/api/ingredients/"+itoa(private.ID), nil)
	w = httptest.NewRecorder()
	IngredientResource(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign private ingredient, got %d", w.Code)
	}
}
