package importer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/Spottie97/PP-Food-Fair/models"
)

var cleanWhitespace = regexp.MustCompile(`\s+`)

// NormalizeName canonicalizes a free-text ingredient name for alias lookup:
// trimmed, lowercased, inner whitespace collapsed.
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return cleanWhitespace.ReplaceAllString(name, " ")
}

// AliasTable maps normalized ingredient names (canonical names and registered
// aliases) to catalog ingredient IDs. It is built and validated once, ahead
// of an import run, so bad alias data fails the run up front instead of
// miscosting individual rows.
type AliasTable map[string]uint

// DuplicateAliasError reports a normalized name claimed by two different
// catalog ingredients.
type DuplicateAliasError struct {
	Name     string
	FirstID  uint
	SecondID uint
}

func (e *DuplicateAliasError) Error() string {
	return fmt.Sprintf("alias %q maps to both ingredient %d and ingredient %d", e.Name, e.FirstID, e.SecondID)
}

// BuildAliasTable loads every ingredient visible to the owner and assembles
// the validated name-to-ID table from canonical names and aliases.
func BuildAliasTable(ctx context.Context, db *gorm.DB, ownerID uint) (AliasTable, error) {
	if db == nil {
		return nil, gorm.ErrInvalidDB
	}

	var ingredients []models.Ingredient
	if err := db.WithContext(ctx).
		Preload("Aliases").
		Where("owner_id = ? OR public = ?", ownerID, true).
		Find(&ingredients).Error; err != nil {
		return nil, &StorageError{Err: fmt.Errorf("load ingredients for alias table: %w", err)}
	}

	table := make(AliasTable, len(ingredients))
	add := func(name string, id uint) error {
		key := NormalizeName(name)
		if key == "" {
			return nil
		}
		if existing, ok := table[key]; ok {
			if existing == id {
				return nil
			}
			return &DuplicateAliasError{Name: key, FirstID: existing, SecondID: id}
		}
		table[key] = id
		return nil
	}

	for _, ingredient := range ingredients {
		if err := add(ingredient.Name, ingredient.ID); err != nil {
			return nil, err
		}
		for _, alias := range ingredient.Aliases {
			if err := add(alias.Name, ingredient.ID); err != nil {
				return nil, err
			}
		}
	}

	return table, nil
}

// Resolve returns the catalog ID for a free-text name.
func (t AliasTable) Resolve(name string) (uint, bool) {
	id, ok := t[NormalizeName(name)]
	return id, ok
}
