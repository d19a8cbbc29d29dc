package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Spottie97/PP-Food-Fair/internal/costing"
	"github.com/Spottie97/PP-Food-Fair/models"
)

func openTestDatabase(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:catalog_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Ingredient{}, &models.IngredientAlias{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedCatalog(t *testing.T, db *gorm.DB) (owner, other models.User, private, public models.Ingredient) {
	t.Helper()

	owner = models.User{Email: "owner@example.com", PasswordHash: "hash"}
	other = models.User{Email: "other@example.com", PasswordHash: "hash"}
	for _, user := range []*models.User{&owner, &other} {
		if err := db.Create(user).Error; err != nil {
			t.Fatalf("failed to seed user: %v", err)
		}
	}

	private = models.Ingredient{Name: "Secret Spice", UnitOfMeasure: "g", CostPerUnit: 0.20, OwnerID: owner.ID}
	public = models.Ingredient{Name: "Butter", UnitOfMeasure: "kg", CostPerUnit: 8.75, OwnerID: owner.ID, Public: true}
	for _, ingredient := range []*models.Ingredient{&private, &public} {
		if err := db.Create(ingredient).Error; err != nil {
			t.Fatalf("failed to seed ingredient: %v", err)
		}
	}
	return owner, other, private, public
}

func TestResolverScopesToOwnerAndPublic(t *testing.T) {
	db := openTestDatabase(t, "resolver_scope")
	ctx := context.Background()
	owner, other, private, public := seedCatalog(t, db)

	resolver := NewResolver(db, owner.ID)
	cost, err := resolver.Resolve(ctx, private.ID)
	if err != nil {
		t.Fatalf("owner should resolve own ingredient: %v", err)
	}
	if cost.UnitOfMeasure != "g" || cost.CostPerUnit != 0.20 {
		t.Fatalf("unexpected resolved cost %+v", cost)
	}

	foreign := NewResolver(db, other.ID)
	if _, err := foreign.Resolve(ctx, public.ID); err != nil {
		t.Fatalf("public ingredient should resolve for any user: %v", err)
	}

	_, err = foreign.Resolve(ctx, private.ID)
	var notFound *costing.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError for foreign private ingredient, got %v", err)
	}
	if notFound.IngredientID != private.ID {
		t.Fatalf("expected error to carry ingredient id %d, got %d", private.ID, notFound.IngredientID)
	}
	if !errors.Is(err, costing.ErrNotFound) {
		t.Fatal("expected NotFoundError to match ErrNotFound sentinel")
	}
}

func TestSnapshotMatchesLiveResolver(t *testing.T) {
	db := openTestDatabase(t, "snapshot")
	ctx := context.Background()
	owner, _, private, public := seedCatalog(t, db)

	snapshot, err := Snapshot(ctx, db, owner.ID)
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if len(snapshot) != 2 {
		t.Fatalf("expected both visible ingredients in snapshot, got %d", len(snapshot))
	}

	live := NewResolver(db, owner.ID)
	for _, id := range []uint{private.ID, public.ID} {
		fromSnapshot, err := snapshot.Resolve(ctx, id)
		if err != nil {
			t.Fatalf("snapshot resolve failed: %v", err)
		}
		fromLive, err := live.Resolve(ctx, id)
		if err != nil {
			t.Fatalf("live resolve failed: %v", err)
		}
		if fromSnapshot != fromLive {
			t.Fatalf("snapshot %+v differs from live %+v for ingredient %d", fromSnapshot, fromLive, id)
		}
	}
}
