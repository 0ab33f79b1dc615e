package feature

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/sipkit/sipkit/core"
)

func testDrink(id string, mutate func(*core.Drink)) *core.Drink {
	d := &core.Drink{
		ID:         id,
		Name:       "drink " + id,
		Category:   "coffee",
		PriceTier:  core.PriceTierMid,
		Sweetness:  5,
		CaffeineMg: 100,
		SugarG:     20,
		Calories:   150,
		UpdatedAt:  time.Unix(1700000000, 0),
	}
	if mutate != nil {
		mutate(d)
	}
	return d
}

func TestBuilder_Normalization(t *testing.T) {
	catalog := []*core.Drink{
		testDrink("d1", func(d *core.Drink) {
			d.Sweetness = 1
			d.CaffeineMg = 0
			d.SugarG = 0
			d.Calories = 0
			d.PriceTier = core.PriceTierLow
		}),
		testDrink("d2", func(d *core.Drink) {
			d.Sweetness = 10
			d.CaffeineMg = 200
			d.SugarG = 50
			d.Calories = 300
			d.PriceTier = core.PriceTierHigh
			d.IsAlcoholic = true
			d.AlcoholPct = 40
		}),
	}

	b := NewBuilder(catalog)

	v1, err := b.Build(catalog[0])
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	v2, err := b.Build(catalog[1])
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"d1 sweetness (1-1)/9", v1.Numeric[DimSweetness], 0.0},
		{"d2 sweetness (10-1)/9", v2.Numeric[DimSweetness], 1.0},
		{"d1 caffeine at catalog min", v1.Numeric[DimCaffeine], 0.0},
		{"d2 caffeine at catalog max", v2.Numeric[DimCaffeine], 1.0},
		{"d1 price tier $", v1.Numeric[DimPrice], 0.0},
		{"d2 price tier $$$", v2.Numeric[DimPrice], 1.0},
		{"d1 alcohol 0/100", v1.Numeric[DimAlcohol], 0.0},
		{"d2 alcohol 40/100", v2.Numeric[DimAlcohol], 0.4},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-9 {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestBuilder_MidRangeValue(t *testing.T) {
	catalog := []*core.Drink{
		testDrink("d1", func(d *core.Drink) { d.CaffeineMg = 0 }),
		testDrink("d2", func(d *core.Drink) { d.CaffeineMg = 200 }),
		testDrink("d3", func(d *core.Drink) { d.CaffeineMg = 50 }),
	}
	b := NewBuilder(catalog)

	v, err := b.Build(catalog[2])
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := v.Numeric[DimCaffeine]; math.Abs(got-0.25) > 1e-9 {
		t.Errorf("caffeine 50 in [0,200] = %v, want 0.25", got)
	}
}

func TestBuilder_SingleDistinctValue(t *testing.T) {
	// Catalog where every drink has the same caffeine: normalized value
	// must be the neutral 0.5, not a division by zero.
	catalog := []*core.Drink{
		testDrink("d1", nil),
		testDrink("d2", nil),
	}
	b := NewBuilder(catalog)

	v, err := b.Build(catalog[0])
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for _, dim := range []string{DimCaffeine, DimSugar, DimCalories} {
		if got := v.Numeric[dim]; got != 0.5 {
			t.Errorf("degenerate range dim %s = %v, want 0.5", dim, got)
		}
	}
}

func TestBuilder_ClipsOutOfSnapshotValues(t *testing.T) {
	catalog := []*core.Drink{
		testDrink("d1", func(d *core.Drink) { d.CaffeineMg = 50 }),
		testDrink("d2", func(d *core.Drink) { d.CaffeineMg = 100 }),
	}
	b := NewBuilder(catalog)

	// A drink outside the stats snapshot range gets clipped, not rejected.
	outside := testDrink("d3", func(d *core.Drink) { d.CaffeineMg = 400 })
	v, err := b.Build(outside)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := v.Numeric[DimCaffeine]; got != 1.0 {
		t.Errorf("out-of-range caffeine = %v, want clipped 1.0", got)
	}
}

func TestBuilder_ValidationErrors(t *testing.T) {
	b := NewBuilder([]*core.Drink{testDrink("d1", nil)})

	tests := []struct {
		name      string
		drink     *core.Drink
		wantField string
	}{
		{
			name:      "negative caffeine",
			drink:     testDrink("x", func(d *core.Drink) { d.CaffeineMg = -1 }),
			wantField: "caffeine_mg",
		},
		{
			name:      "sweetness below domain",
			drink:     testDrink("x", func(d *core.Drink) { d.Sweetness = 0 }),
			wantField: "sweetness",
		},
		{
			name:      "sweetness above domain",
			drink:     testDrink("x", func(d *core.Drink) { d.Sweetness = 11 }),
			wantField: "sweetness",
		},
		{
			name:      "alcohol content without flag",
			drink:     testDrink("x", func(d *core.Drink) { d.AlcoholPct = 5 }),
			wantField: "is_alcoholic",
		},
		{
			name:      "unknown price tier",
			drink:     testDrink("x", func(d *core.Drink) { d.PriceTier = "$$$$" }),
			wantField: "price_tier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Build(tt.drink)
			if err == nil {
				t.Fatalf("Build() expected validation error, got nil")
			}
			if !core.IsInvalidInput(err) {
				t.Fatalf("Build() error = %v, want INVALID_INPUT", err)
			}
			de := core.GetDomainError(err)
			if de.Field != tt.wantField {
				t.Errorf("error field = %q, want %q", de.Field, tt.wantField)
			}
		})
	}
}

func TestBuilder_CategoryOneHot(t *testing.T) {
	catalog := []*core.Drink{
		testDrink("d1", func(d *core.Drink) { d.Category = "coffee" }),
		testDrink("d2", func(d *core.Drink) { d.Category = "tea" }),
	}
	b := NewBuilder(catalog)

	v1, _ := b.Build(catalog[0])
	if v1.Onehot["cat_coffee"] != 1.0 {
		t.Errorf("cat_coffee = %v, want 1.0", v1.Onehot["cat_coffee"])
	}
	if _, ok := v1.Onehot["cat_tea"]; ok {
		t.Errorf("cat_tea should be absent for a coffee drink")
	}

	// Unseen category falls into the lazily added "other" bucket.
	unseen := testDrink("d3", func(d *core.Drink) { d.Category = "kombucha" })
	v3, err := b.Build(unseen)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if v3.Onehot[CategoryOtherDim] != 1.0 {
		t.Errorf("unseen category: %s = %v, want 1.0", CategoryOtherDim, v3.Onehot[CategoryOtherDim])
	}
}

func TestBuilder_TagDims(t *testing.T) {
	d := testDrink("d1", func(d *core.Drink) { d.Tags = []string{"iced", "seasonal"} })
	b := NewBuilder([]*core.Drink{d})

	v, _ := b.Build(d)
	if v.Onehot["tag_iced"] != 1.0 || v.Onehot["tag_seasonal"] != 1.0 {
		t.Errorf("tag dims = %v, want tag_iced and tag_seasonal set", v.Onehot)
	}
}

func TestBuilder_AllergenBitset(t *testing.T) {
	milk := core.Ingredient{Name: "milk", IsAllergen: true}
	soy := core.Ingredient{Name: "soy", IsAllergen: true}
	water := core.Ingredient{Name: "water"}

	catalog := []*core.Drink{
		testDrink("d1", func(d *core.Drink) { d.Ingredients = []core.Ingredient{milk, water} }),
		testDrink("d2", func(d *core.Drink) { d.Ingredients = []core.Ingredient{soy} }),
		testDrink("d3", func(d *core.Drink) { d.Ingredients = []core.Ingredient{water} }),
	}
	b := NewBuilder(catalog)

	// Fixed order is the sorted catalog-wide allergen list: [milk soy].
	if got := b.Stats().AllergenOrder; len(got) != 2 || got[0] != "milk" || got[1] != "soy" {
		t.Fatalf("AllergenOrder = %v, want [milk soy]", got)
	}

	v1, _ := b.Build(catalog[0])
	v2, _ := b.Build(catalog[1])
	v3, _ := b.Build(catalog[2])

	if !v1.Allergens.Test(0) || v1.Allergens.Test(1) {
		t.Errorf("d1 bitset = %v, want milk bit only", v1.Allergens)
	}
	if v1.Allergens.Intersects(v2.Allergens) {
		t.Errorf("d1 and d2 share no allergen, Intersects should be false")
	}
	if v3.Allergens.Any() {
		t.Errorf("d3 has no allergens, bitset should be empty")
	}
}

func TestBuilder_BuildAllMatchesBuild(t *testing.T) {
	catalog := []*core.Drink{
		testDrink("a", func(d *core.Drink) { d.CaffeineMg = 10 }),
		testDrink("b", func(d *core.Drink) { d.CaffeineMg = 90 }),
		testDrink("c", func(d *core.Drink) { d.CaffeineMg = 50 }),
	}
	b := NewBuilder(catalog, WithParallelism(2))

	all, err := b.BuildAll(context.Background(), catalog)
	if err != nil {
		t.Fatalf("BuildAll() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("BuildAll() returned %d vectors, want 3", len(all))
	}
	for _, d := range catalog {
		single, _ := b.Build(d)
		got := all[d.ID]
		for _, dim := range NumericDims() {
			if got.Numeric[dim] != single.Numeric[dim] {
				t.Errorf("drink %s dim %s: BuildAll %v != Build %v", d.ID, dim, got.Numeric[dim], single.Numeric[dim])
			}
		}
	}
}

func TestBuilder_BuildAllPropagatesValidation(t *testing.T) {
	bad := testDrink("bad", func(d *core.Drink) { d.SugarG = -2 })
	b := NewBuilder([]*core.Drink{testDrink("ok", nil)})

	_, err := b.BuildAll(context.Background(), []*core.Drink{testDrink("ok", nil), bad})
	if !core.IsInvalidInput(err) {
		t.Fatalf("BuildAll() error = %v, want INVALID_INPUT", err)
	}
}
