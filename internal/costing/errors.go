package costing

import (
	"errors"
	"fmt"
)

// ErrNotFound is the sentinel wrapped by NotFoundError so callers can use
// errors.Is without caring which ingredient was missing.
var ErrNotFound = errors.New("costing: ingredient not found")

// NotFoundError reports an ingredient reference that did not resolve to a
// catalog record at calculation time. It is client-correctable input data,
// not a system fault.
type NotFoundError struct {
	IngredientID uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("ingredient %d not found", e.IngredientID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError identifies the field that made a calculation request
// unacceptable, so the caller can surface a specific corrective action.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// UnitMismatchError reports a recipe line whose unit differs from the
// referenced ingredient's catalog unit. No conversion is attempted; the line
// must be corrected instead of being silently miscosted.
type UnitMismatchError struct {
	IngredientID uint
	LineUnit     string
	CatalogUnit  string
}

func (e *UnitMismatchError) Error() string {
	return fmt.Sprintf("ingredient %d unit mismatch: recipe line uses %q, catalog uses %q", e.IngredientID, e.LineUnit, e.CatalogUnit)
}

// CostError reports a resolved unit cost that is unusable (negative, NaN, or
// infinite). Partial results are never produced once one is seen.
type CostError struct {
	IngredientID uint
	CostPerUnit  float64
}

func (e *CostError) Error() string {
	return fmt.Sprintf("ingredient %d has invalid unit cost %v", e.IngredientID, e.CostPerUnit)
}
