package mock

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Spottie97/PP-Food-Fair/internal/catalog"
	"github.com/Spottie97/PP-Food-Fair/internal/costing"
	applog "github.com/Spottie97/PP-Food-Fair/internal/log"
	"github.com/Spottie97/PP-Food-Fair/models"
)

var instance atomic.Uint64

// New returns an in-memory sqlite database seeded with a representative
// bakery catalog: two users, a handful of ingredients, legacy labor records,
// and recipes whose stored breakdowns come from the real costing engine.
// Each call opens a fresh database so repeated seeding cannot collide.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	dsn := fmt.Sprintf("file:foodfair-mock-%d?mode=memory&cache=shared", instance.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Ingredient{},
		&models.IngredientAlias{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.RecipeLaborInput{},
		&models.LaborRecord{},
	); err != nil {
		return nil, err
	}

	if err := seed(ctx, db); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return db, nil
}

func seed(ctx context.Context, db *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	password, err := bcrypt.GenerateFromPassword([]byte("foodfair"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	baker := &models.User{
		Name:         "Petra Pienaar",
		Email:        "petra@ppfoodfair.app",
		PasswordHash: string(password),
		Role:         models.RoleAdmin,
	}
	if err := db.WithContext(ctx).Create(baker).Error; err != nil {
		return err
	}

	assistant := &models.User{
		Name:         "Sipho Dlamini",
		Email:        "sipho@ppfoodfair.app",
		PasswordHash: string(password),
		Role:         models.RoleMember,
	}
	if err := db.WithContext(ctx).Create(assistant).Error; err != nil {
		return err
	}

	flour := models.Ingredient{
		Name:          "Cake Flour",
		UnitOfMeasure: "kg",
		CostPerUnit:   1.50,
		OwnerID:       baker.ID,
		Public:        true,
		Aliases: []models.IngredientAlias{
			{Name: "White Flour"},
			{Name: "Flour (Cake)"},
		},
	}
	butter := models.Ingredient{
		Name:          "Butter",
		UnitOfMeasure: "kg",
		CostPerUnit:   8.75,
		OwnerID:       baker.ID,
		Public:        true,
	}
	chicken := models.Ingredient{
		Name:          "Chicken Fillet",
		UnitOfMeasure: "kg",
		CostPerUnit:   6.40,
		OwnerID:       baker.ID,
	}
	apples := models.Ingredient{
		Name:          "Granny Smith Apples",
		UnitOfMeasure: "kg",
		CostPerUnit:   2.20,
		OwnerID:       baker.ID,
		Aliases: []models.IngredientAlias{
			{Name: "Apples"},
		},
	}

	for _, ingredient := range []*models.Ingredient{&flour, &butter, &chicken, &apples} {
		if err := db.WithContext(ctx).Create(ingredient).Error; err != nil {
			return err
		}
	}

	laborRecords := []models.LaborRecord{
		{
			PieName:         "Chicken Pie",
			CostPerHour:     25,
			MinutesPerPie:   12,
			LaborCostPerPie: costing.LaborCostPerPie(25, 12),
			OwnerID:         baker.ID,
		},
		{
			PieName:         "Apple Pie",
			CostPerHour:     25,
			MinutesPerPie:   9,
			LaborCostPerPie: costing.LaborCostPerPie(25, 9),
			OwnerID:         baker.ID,
		},
	}
	for _, record := range laborRecords {
		recordCopy := record
		if err := db.WithContext(ctx).Create(&recordCopy).Error; err != nil {
			return err
		}
	}

	resolver, err := catalog.Snapshot(ctx, db, baker.ID)
	if err != nil {
		return err
	}

	seeds := []struct {
		recipe models.Recipe
		lines  []models.RecipeIngredient
		labor  []models.RecipeLaborInput
	}{
		{
			recipe: models.Recipe{
				PieName:          "Chicken Pie",
				Variant:          "Standard",
				BatchSize:        24,
				LaborHourlyRate:  25,
				MarkupPercentage: 35,
				OwnerID:          baker.ID,
			},
			lines: []models.RecipeIngredient{
				{IngredientID: flour.ID, Quantity: 3, Unit: "kg"},
				{IngredientID: butter.ID, Quantity: 1.5, Unit: "kg"},
				{IngredientID: chicken.ID, Quantity: 4, Unit: "kg"},
			},
			labor: []models.RecipeLaborInput{
				{Workers: 2, HoursPerWorker: 2.5},
			},
		},
		{
			recipe: models.Recipe{
				PieName:          "Apple Pie",
				Variant:          "Mini",
				BatchSize:        36,
				LaborHourlyRate:  25,
				MarkupPercentage: 40,
				OwnerID:          baker.ID,
			},
			lines: []models.RecipeIngredient{
				{IngredientID: flour.ID, Quantity: 2, Unit: "kg"},
				{IngredientID: butter.ID, Quantity: 1, Unit: "kg"},
				{IngredientID: apples.ID, Quantity: 3.5, Unit: "kg"},
			},
			labor: []models.RecipeLaborInput{
				{Workers: 1, HoursPerWorker: 3},
				{Workers: 1, HoursPerWorker: 1.25},
			},
		},
	}

	for _, entry := range seeds {
		request := costing.Request{
			LaborHourlyRate:  entry.recipe.LaborHourlyRate,
			BatchSize:        entry.recipe.BatchSize,
			MarkupPercentage: entry.recipe.MarkupPercentage,
		}
		for _, line := range entry.lines {
			request.Ingredients = append(request.Ingredients, costing.Line{
				IngredientID: line.IngredientID,
				Quantity:     line.Quantity,
				Unit:         line.Unit,
			})
		}
		for _, input := range entry.labor {
			request.LaborInputs = append(request.LaborInputs, costing.LaborInput{
				Workers:        input.Workers,
				HoursPerWorker: input.HoursPerWorker,
			})
		}

		breakdown, err := costing.Calculate(ctx, request, resolver)
		if err != nil {
			return err
		}

		recipe := entry.recipe
		recipe.Ingredients = entry.lines
		recipe.LaborInputs = entry.labor
		recipe.TotalIngredientCost = breakdown.TotalIngredientCost
		recipe.TotalLaborCost = breakdown.TotalLaborCost
		recipe.TotalBatchCost = breakdown.TotalBatchCost
		recipe.CostPerPie = breakdown.CostPerPie
		recipe.SellingPrice = breakdown.SellingPrice

		if err := db.WithContext(ctx).Create(&recipe).Error; err != nil {
			return err
		}
	}

	applog.Debug(ctx, "mock database seeded")
	return nil
}
