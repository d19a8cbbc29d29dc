package costing

import (
	"context"
	"math"
	"strings"
)

// Line is one ingredient requirement inside a calculation request.
type Line struct {
	IngredientID uint    `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
}

// LaborInput is one (workers, hours-per-worker) pair. Total labor hours for a
// batch is the sum of workers x hoursPerWorker across all entries.
type LaborInput struct {
	Workers        int     `json:"workers"`
	HoursPerWorker float64 `json:"hours_per_worker"`
}

// Request is a fully-specified recipe draft handed to the calculator.
type Request struct {
	Ingredients      []Line       `json:"ingredients"`
	LaborInputs      []LaborInput `json:"labor_inputs"`
	LaborHourlyRate  float64      `json:"labor_hourly_rate"`
	BatchSize        int          `json:"batch_size"`
	MarkupPercentage float64      `json:"markup_percentage"`
}

// Breakdown is the complete cost/price result. Every figure is rounded to two
// decimal places with half-up rounding at finalization.
type Breakdown struct {
	TotalIngredientCost float64 `json:"total_ingredient_cost"`
	TotalLaborCost      float64 `json:"total_labor_cost"`
	TotalBatchCost      float64 `json:"total_batch_cost"`
	CostPerPie          float64 `json:"cost_per_pie"`
	SellingPrice        float64 `json:"selling_price"`
}

// IngredientCost is a resolved catalog entry: the current purchase cost for
// one unit of measure.
type IngredientCost struct {
	UnitOfMeasure string
	CostPerUnit   float64
}

// Resolver looks up the current unit cost for an ingredient reference.
// Implementations are read-only; a failed lookup must surface as a
// NotFoundError (or a wrapped ErrNotFound).
type Resolver interface {
	Resolve(ctx context.Context, ingredientID uint) (IngredientCost, error)
}

// MapResolver is an in-memory Resolver keyed by ingredient ID. Used by tests
// and by the bulk importer after it has loaded the catalog once.
type MapResolver map[uint]IngredientCost

func (m MapResolver) Resolve(_ context.Context, ingredientID uint) (IngredientCost, error) {
	cost, ok := m[ingredientID]
	if !ok {
		return IngredientCost{}, &NotFoundError{IngredientID: ingredientID}
	}
	return cost, nil
}

// Validate checks a request at the data-entry boundary. Errors name the
// offending field. The calculator assumes a validated request except for the
// guards it applies itself (zero batch size, unresolvable references,
// unusable resolved costs).
func Validate(req Request) error {
	if len(req.Ingredients) == 0 {
		return &ValidationError{Field: "ingredients", Message: "at least one ingredient is required"}
	}
	for _, line := range req.Ingredients {
		if line.IngredientID == 0 {
			return &ValidationError{Field: "ingredients.ingredient_id", Message: "ingredient reference is required"}
		}
		if line.Quantity < 0 || math.IsNaN(line.Quantity) || math.IsInf(line.Quantity, 0) {
			return &ValidationError{Field: "ingredients.quantity", Message: "quantity must be a non-negative number"}
		}
	}
	if len(req.LaborInputs) == 0 {
		return &ValidationError{Field: "labor_inputs", Message: "at least one labor input is required"}
	}
	for _, input := range req.LaborInputs {
		if input.Workers < 1 {
			return &ValidationError{Field: "labor_inputs.workers", Message: "workers must be a positive integer"}
		}
		if input.HoursPerWorker < 0 || math.IsNaN(input.HoursPerWorker) || math.IsInf(input.HoursPerWorker, 0) {
			return &ValidationError{Field: "labor_inputs.hours_per_worker", Message: "hours per worker must be a non-negative number"}
		}
	}
	if req.LaborHourlyRate < 0 || math.IsNaN(req.LaborHourlyRate) || math.IsInf(req.LaborHourlyRate, 0) {
		return &ValidationError{Field: "labor_hourly_rate", Message: "labor hourly rate must be a non-negative number"}
	}
	if req.BatchSize < 1 {
		return &ValidationError{Field: "batch_size", Message: "batch size must be a positive integer"}
	}
	if req.MarkupPercentage < 0 || math.IsNaN(req.MarkupPercentage) || math.IsInf(req.MarkupPercentage, 0) {
		return &ValidationError{Field: "markup_percentage", Message: "markup percentage must be a non-negative number"}
	}
	return nil
}

// Calculate derives the complete cost/price breakdown for a recipe draft. It
// is a pure function of its inputs: no state survives between calls and
// identical inputs produce bit-identical outputs.
//
// Intermediate stage subtotals carry four decimal places; output figures are
// rounded to two decimal places half-up at finalization, with the selling
// price derived from the already-rounded per-pie cost. A failed ingredient
// lookup aborts the whole calculation; partial breakdowns are never returned.
func Calculate(ctx context.Context, req Request, resolver Resolver) (Breakdown, error) {
	ingredientCost := 0.0
	for _, line := range req.Ingredients {
		resolved, err := resolver.Resolve(ctx, line.IngredientID)
		if err != nil {
			return Breakdown{}, err
		}
		if resolved.CostPerUnit < 0 || math.IsNaN(resolved.CostPerUnit) || math.IsInf(resolved.CostPerUnit, 0) {
			return Breakdown{}, &CostError{IngredientID: line.IngredientID, CostPerUnit: resolved.CostPerUnit}
		}
		if !unitsMatch(line.Unit, resolved.UnitOfMeasure) {
			return Breakdown{}, &UnitMismatchError{
				IngredientID: line.IngredientID,
				LineUnit:     line.Unit,
				CatalogUnit:  resolved.UnitOfMeasure,
			}
		}
		ingredientCost += line.Quantity * resolved.CostPerUnit
	}
	ingredientCost = roundTo(ingredientCost, 4)

	laborCost := roundTo(LaborCost(req.LaborInputs, req.LaborHourlyRate), 4)

	batchCost := ingredientCost + laborCost

	// BatchSize is validated to be >= 1 at the boundary; this branch is a
	// defensive fallback, not a normal path.
	costPerPie := 0.0
	if req.BatchSize > 0 {
		costPerPie = RoundCurrency(batchCost / float64(req.BatchSize))
	}

	// The listed price is derived from the rounded per-pie cost so it always
	// agrees with the unit cost shown to the user.
	sellingPrice := RoundCurrency(costPerPie * (1 + req.MarkupPercentage/100))

	return Breakdown{
		TotalIngredientCost: RoundCurrency(ingredientCost),
		TotalLaborCost:      RoundCurrency(laborCost),
		TotalBatchCost:      RoundCurrency(batchCost),
		CostPerPie:          costPerPie,
		SellingPrice:        sellingPrice,
	}, nil
}

// LaborCost applies the itemized labor strategy: the sum of
// workers x hoursPerWorker across all inputs, priced at the recipe-level
// hourly rate. No rounding is applied here.
func LaborCost(inputs []LaborInput, hourlyRate float64) float64 {
	hours := 0.0
	for _, input := range inputs {
		hours += float64(input.Workers) * input.HoursPerWorker
	}
	return hours * hourlyRate
}

// LaborCostPerPie applies the legacy per-product rate strategy:
// costPerHour x (minutesPerPie / 60), rounded to two decimal places. Negative
// inputs clamp the result to zero; a negative labor cost must never reach
// downstream pricing.
func LaborCostPerPie(costPerHour, minutesPerPie float64) float64 {
	if costPerHour < 0 || minutesPerPie < 0 {
		return 0
	}
	if math.IsNaN(costPerHour) || math.IsNaN(minutesPerPie) {
		return 0
	}
	return RoundCurrency(costPerHour * minutesPerPie / 60)
}

// RoundCurrency rounds a non-negative monetary figure to two decimal places
// using half-up rounding (7.205 -> 7.21).
func RoundCurrency(value float64) float64 {
	return roundTo(value, 2)
}

func roundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	// The nudge keeps quotients that land exactly on a decimal half boundary
	// (65.50/20 = 3.275) rounding up even when their float64 form sits a few
	// ulps below it.
	return math.Floor(value*factor+0.5+1e-9) / factor
}

func unitsMatch(lineUnit, catalogUnit string) bool {
	trimmed := strings.TrimSpace(lineUnit)
	if trimmed == "" {
		// Lines without an explicit unit inherit the catalog unit.
		return true
	}
	return strings.EqualFold(trimmed, strings.TrimSpace(catalogUnit))
}
