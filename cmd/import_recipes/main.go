package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"github.com/Spottie97/PP-Food-Fair/internal/config"
	"github.com/Spottie97/PP-Food-Fair/internal/db"
	"github.com/Spottie97/PP-Food-Fair/internal/importer"
	"github.com/Spottie97/PP-Food-Fair/models"
)

func main() {
	laborSheet := flag.Bool("labor", false, "treat the csv as the legacy per-product labor sheet")
	flag.Parse()

	csvPath := "recipes.csv"
	if flag.NArg() > 0 {
		csvPath = flag.Arg(0)
	}

	if err := run(csvPath, *laborSheet); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(csvPath string, laborSheet bool) error {
	if strings.TrimSpace(csvPath) == "" {
		return fmt.Errorf("csv path must not be empty")
	}

	if _, err := os.Stat(csvPath); err != nil {
		return fmt.Errorf("locate csv: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	ownerID, err := resolveImportOwner(database)
	if err != nil {
		return fmt.Errorf("resolve owner: %w", err)
	}

	file, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	ctx := context.Background()
	var summary importer.Summary
	if laborSheet {
		summary, err = importer.ImportLaborRecords(ctx, database, file, ownerID)
	} else {
		summary, err = importer.ImportRecipes(ctx, database, file, ownerID)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Imported %s: %d created, %d updated\n",
		filepath.Base(csvPath), summary.Created, summary.Updated)
	return nil
}

// resolveImportOwner picks the account the imported rows belong to:
// FOODFAIR_IMPORT_OWNER_EMAIL when set, otherwise the oldest account.
func resolveImportOwner(db *gorm.DB) (uint, error) {
	if db == nil {
		return 0, fmt.Errorf("database handle is nil")
	}

	ctx := context.Background()
	email := strings.TrimSpace(os.Getenv("FOODFAIR_IMPORT_OWNER_EMAIL"))
	if email != "" {
		var user models.User
		if err := db.WithContext(ctx).Where("lower(email) = ?", strings.ToLower(email)).First(&user).Error; err != nil {
			return 0, fmt.Errorf("find owner by email %q: %w", strings.ToLower(email), err)
		}
		return user.ID, nil
	}

	var user models.User
	if err := db.WithContext(ctx).Order("id asc").First(&user).Error; err != nil {
		return 0, fmt.Errorf("find default owner: %w", err)
	}
	return user.ID, nil
}
