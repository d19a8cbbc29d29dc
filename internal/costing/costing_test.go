package costing

import (
	"context"
	"errors"
	"testing"
)

func testResolver() MapResolver {
	return MapResolver{
		1: {UnitOfMeasure: "kg", CostPerUnit: 1.50},
		2: {UnitOfMeasure: "kg", CostPerUnit: 4.25},
		3: {UnitOfMeasure: "l", CostPerUnit: 12.00},
	}
}

func baseRequest() Request {
	return Request{
		Ingredients:      []Line{{IngredientID: 1, Quantity: 2, Unit: "kg"}},
		LaborInputs:      []LaborInput{{Workers: 1, HoursPerWorker: 2.5}},
		LaborHourlyRate:  25,
		BatchSize:        10,
		MarkupPercentage: 10,
	}
}

func TestCalculateScenarios(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Request)
		want   Breakdown
	}{
		{
			name:   "standard batch with ten percent markup",
			mutate: func(r *Request) {},
			want: Breakdown{
				TotalIngredientCost: 3.00,
				TotalLaborCost:      62.50,
				TotalBatchCost:      65.50,
				CostPerPie:          6.55,
				SellingPrice:        7.21,
			},
		},
		{
			name:   "twenty percent markup",
			mutate: func(r *Request) { r.MarkupPercentage = 20 },
			want: Breakdown{
				TotalIngredientCost: 3.00,
				TotalLaborCost:      62.50,
				TotalBatchCost:      65.50,
				CostPerPie:          6.55,
				SellingPrice:        7.86,
			},
		},
		{
			name:   "doubled batch size",
			mutate: func(r *Request) { r.BatchSize = 20 },
			want: Breakdown{
				TotalIngredientCost: 3.00,
				TotalLaborCost:      62.50,
				TotalBatchCost:      65.50,
				CostPerPie:          3.28,
				SellingPrice:        3.61,
			},
		},
		{
			name: "itemized labor change",
			mutate: func(r *Request) {
				r.LaborInputs = []LaborInput{{Workers: 2, HoursPerWorker: 1.5}}
				r.LaborHourlyRate = 30
			},
			want: Breakdown{
				TotalIngredientCost: 3.00,
				TotalLaborCost:      90.00,
				TotalBatchCost:      93.00,
				CostPerPie:          9.30,
				SellingPrice:        10.23,
			},
		},
	}

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := baseRequest()
			tt.mutate(&req)
			got, err := Calculate(context.Background(), req, testResolver())
			if err != nil {
				t.Fatalf("Calculate returned error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Calculate = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCalculateIdempotent(t *testing.T) {
	t.Parallel()

	req := baseRequest()
	req.Ingredients = append(req.Ingredients, Line{IngredientID: 2, Quantity: 0.75, Unit: "kg"})

	first, err := Calculate(context.Background(), req, testResolver())
	if err != nil {
		t.Fatalf("first calculation failed: %v", err)
	}
	second, err := Calculate(context.Background(), req, testResolver())
	if err != nil {
		t.Fatalf("second calculation failed: %v", err)
	}
	if first != second {
		t.Fatalf("expected bit-identical breakdowns, got %+v then %+v", first, second)
	}
}

func TestCalculateMarkupMonotonic(t *testing.T) {
	t.Parallel()

	previous := 0.0
	for _, markup := range []float64{0, 5, 10, 25, 50, 100} {
		req := baseRequest()
		req.MarkupPercentage = markup
		got, err := Calculate(context.Background(), req, testResolver())
		if err != nil {
			t.Fatalf("Calculate(markup=%v) returned error: %v", markup, err)
		}
		if got.SellingPrice <= previous {
			t.Fatalf("selling price %v at markup %v is not above previous %v", got.SellingPrice, markup, previous)
		}
		previous = got.SellingPrice
	}
}

func TestCalculateBatchSizeInverse(t *testing.T) {
	t.Parallel()

	req := baseRequest()
	single, err := Calculate(context.Background(), req, testResolver())
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}

	req.BatchSize = 20
	doubled, err := Calculate(context.Background(), req, testResolver())
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}

	half := RoundCurrency(single.CostPerPie / 2)
	if diff := doubled.CostPerPie - half; diff > 0.01 || diff < -0.01 {
		t.Fatalf("doubling batch size: cost per pie %v, want about %v", doubled.CostPerPie, half)
	}
}

func TestCalculateZeroBatchGuard(t *testing.T) {
	t.Parallel()

	req := baseRequest()
	req.BatchSize = 0

	got, err := Calculate(context.Background(), req, testResolver())
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	if got.CostPerPie != 0 || got.SellingPrice != 0 {
		t.Fatalf("expected zero cost per pie and selling price, got %+v", got)
	}
	if got.TotalBatchCost != 65.50 {
		t.Fatalf("batch cost should still be computed, got %v", got.TotalBatchCost)
	}
}

func TestCalculateUnresolvableIngredient(t *testing.T) {
	t.Parallel()

	req := baseRequest()
	req.Ingredients = append(req.Ingredients, Line{IngredientID: 99, Quantity: 1, Unit: "kg"})

	got, err := Calculate(context.Background(), req, testResolver())
	if err == nil {
		t.Fatalf("expected error for unresolvable ingredient, got %+v", got)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var notFound *NotFoundError
	if !errors.As(err, &notFound) || notFound.IngredientID != 99 {
		t.Fatalf("expected error to identify ingredient 99, got %v", err)
	}
	if got != (Breakdown{}) {
		t.Fatalf("expected empty breakdown on failure, got %+v", got)
	}
}

func TestCalculateUnitMismatch(t *testing.T) {
	t.Parallel()

	req := baseRequest()
	req.Ingredients = []Line{{IngredientID: 1, Quantity: 2, Unit: "l"}}

	_, err := Calculate(context.Background(), req, testResolver())
	var mismatch *UnitMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected UnitMismatchError, got %v", err)
	}
	if mismatch.IngredientID != 1 || mismatch.LineUnit != "l" || mismatch.CatalogUnit != "kg" {
		t.Fatalf("unexpected mismatch details: %+v", mismatch)
	}
}

func TestCalculateBlankLineUnitInheritsCatalogUnit(t *testing.T) {
	t.Parallel()

	req := baseRequest()
	req.Ingredients = []Line{{IngredientID: 1, Quantity: 2}}

	got, err := Calculate(context.Background(), req, testResolver())
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	if got.TotalIngredientCost != 3.00 {
		t.Fatalf("expected ingredient cost 3.00, got %v", got.TotalIngredientCost)
	}
}

func TestCalculateRejectsInvalidResolvedCost(t *testing.T) {
	t.Parallel()

	resolver := MapResolver{1: {UnitOfMeasure: "kg", CostPerUnit: -1.50}}
	req := baseRequest()

	_, err := Calculate(context.Background(), req, resolver)
	var costErr *CostError
	if !errors.As(err, &costErr) {
		t.Fatalf("expected CostError for negative unit cost, got %v", err)
	}
	if costErr.IngredientID != 1 {
		t.Fatalf("expected error to identify ingredient 1, got %+v", costErr)
	}
}

func TestCalculateLinearIngredientCost(t *testing.T) {
	t.Parallel()

	req := baseRequest()
	req.Ingredients = []Line{
		{IngredientID: 1, Quantity: 2, Unit: "kg"},
		{IngredientID: 2, Quantity: 0.5, Unit: "kg"},
		{IngredientID: 3, Quantity: 1.25, Unit: "l"},
	}

	got, err := Calculate(context.Background(), req, testResolver())
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}

	want := RoundCurrency(2*1.50 + 0.5*4.25 + 1.25*12.00)
	if got.TotalIngredientCost != want {
		t.Fatalf("ingredient cost %v, want %v", got.TotalIngredientCost, want)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Request)
		field  string
	}{
		{"valid", func(r *Request) {}, ""},
		{"no ingredients", func(r *Request) { r.Ingredients = nil }, "ingredients"},
		{"missing ingredient ref", func(r *Request) { r.Ingredients[0].IngredientID = 0 }, "ingredients.ingredient_id"},
		{"negative quantity", func(r *Request) { r.Ingredients[0].Quantity = -1 }, "ingredients.quantity"},
		{"no labor inputs", func(r *Request) { r.LaborInputs = nil }, "labor_inputs"},
		{"zero workers", func(r *Request) { r.LaborInputs[0].Workers = 0 }, "labor_inputs.workers"},
		{"negative hours", func(r *Request) { r.LaborInputs[0].HoursPerWorker = -0.5 }, "labor_inputs.hours_per_worker"},
		{"negative rate", func(r *Request) { r.LaborHourlyRate = -25 }, "labor_hourly_rate"},
		{"zero batch size", func(r *Request) { r.BatchSize = 0 }, "batch_size"},
		{"negative markup", func(r *Request) { r.MarkupPercentage = -10 }, "markup_percentage"},
	}

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := baseRequest()
			tt.mutate(&req)
			err := Validate(req)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected valid request, got %v", err)
				}
				return
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Field != tt.field {
				t.Fatalf("expected field %q, got %q (%v)", tt.field, vErr.Field, vErr)
			}
		})
	}
}

func TestLaborCostPerPie(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		costPerHour   float64
		minutesPerPie float64
		want          float64
	}{
		{"typical", 25, 15, 6.25},
		{"whole hour", 30, 60, 30.00},
		{"rounding", 22.50, 7, 2.63},
		{"zero minutes", 40, 0, 0},
		{"negative rate clamps", -25, 15, 0},
		{"negative minutes clamps", 25, -15, 0},
	}

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := LaborCostPerPie(tt.costPerHour, tt.minutesPerPie); got != tt.want {
				t.Fatalf("LaborCostPerPie(%v, %v) = %v, want %v", tt.costPerHour, tt.minutesPerPie, got, tt.want)
			}
		})
	}
}

func TestLaborCost(t *testing.T) {
	t.Parallel()

	inputs := []LaborInput{
		{Workers: 2, HoursPerWorker: 1.5},
		{Workers: 1, HoursPerWorker: 0.75},
	}
	if got := LaborCost(inputs, 20); got != 75 {
		t.Fatalf("LaborCost = %v, want 75", got)
	}
	if got := LaborCost(nil, 20); got != 0 {
		t.Fatalf("LaborCost with no inputs = %v, want 0", got)
	}
}

func TestRoundCurrencyHalfUp(t *testing.T) {
	t.Parallel()

	cases := []struct {
		value float64
		want  float64
	}{
		{7.205, 7.21},
		{3.275, 3.28},
		{2.344, 2.34},
		{2.345, 2.35},
		{0, 0},
		{10.999, 11.00},
	}

	for _, tt := range cases {
		if got := RoundCurrency(tt.value); got != tt.want {
			t.Fatalf("RoundCurrency(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
