package factories

import (
	"testing"

	"github.com/chrisdamba/dishrank/internal/engine"
	"github.com/chrisdamba/dishrank/internal/models"
)

func TestGenerateSizes(t *testing.T) {
	ds, err := Generate(GenerateConfig{Seed: 7, Dishes: 40, Ingredients: 25, Zones: 7})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(ds.Dishes) != 40 || len(ds.Ingredients) != 25 || len(ds.Zones) != 7 {
		t.Fatalf("got %d dishes, %d ingredients, %d zones", len(ds.Dishes), len(ds.Ingredients), len(ds.Zones))
	}
	if ds.Zones[0].ID != "EU" || ds.Zones[6].ID != "Z7" {
		t.Errorf("zones = %+v", ds.Zones)
	}

	known := make(map[string]bool)
	for _, rec := range ds.Ingredients {
		if known[rec.Name] {
			t.Errorf("duplicate ingredient name %q", rec.Name)
		}
		known[rec.Name] = true
		for zone, price := range rec.Prices {
			if price <= 0 {
				t.Errorf("%s has price %v in %s", rec.Name, price, zone)
			}
			if rec.UnavailableIn(zone) {
				t.Errorf("%s is both priced and unavailable in %s", rec.Name, zone)
			}
		}
	}

	ids := make(map[string]bool)
	for _, d := range ds.Dishes {
		if d.ID == "" || ids[d.ID] {
			t.Errorf("bad dish id %q", d.ID)
		}
		ids[d.ID] = true
		if len(d.Ingredients) < 2 {
			t.Errorf("%s has %d ingredients", d.Name, len(d.Ingredients))
		}
		var grams float64
		for _, line := range d.Ingredients {
			if !known[line.Name] {
				t.Errorf("%s uses unknown ingredient %q", d.Name, line.Name)
			}
			if _, ok := ds.Coefficients[line.State]; !ok {
				t.Errorf("%s uses state %q without coefficient", d.Name, line.State)
			}
			grams += line.Grams
		}
		if d.ServingGrams != grams {
			t.Errorf("%s serving grams %v, ingredient sum %v", d.Name, d.ServingGrams, grams)
		}
	}
}

func TestGenerateSeedIsReproducible(t *testing.T) {
	cfg := GenerateConfig{Seed: 42, Dishes: 10, Ingredients: 10, Zones: 2}
	a, err := Generate(cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(cfg)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Dishes {
		if a.Dishes[i].Name != b.Dishes[i].Name || a.Dishes[i].Calories != b.Dishes[i].Calories {
			t.Errorf("dish %d differs: %q vs %q", i, a.Dishes[i].Name, b.Dishes[i].Name)
		}
	}
	for i := range a.Ingredients {
		if a.Ingredients[i].Name != b.Ingredients[i].Name {
			t.Errorf("ingredient %d differs", i)
		}
	}
}

func TestGenerateRejectsEmptySizes(t *testing.T) {
	if _, err := Generate(GenerateConfig{Dishes: 0, Ingredients: 1, Zones: 1}); err == nil {
		t.Error("expected error for zero dishes")
	}
}

func TestGeneratedDatasetRanks(t *testing.T) {
	ds, err := Generate(GenerateConfig{Seed: 3, Dishes: 30, Ingredients: 20, Zones: 2})
	if err != nil {
		t.Fatal(err)
	}
	eng, err := engine.New(ds, engine.Options{})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}

	for _, unit := range models.PriceUnits {
		res, err := eng.Compute(engine.Params{
			Zone:       "US",
			PriceUnit:  unit,
			Priorities: models.Priorities{Taste: 5, Cheapness: 8, Speed: -2},
		})
		if err != nil {
			t.Fatalf("Compute(%s): %v", unit, err)
		}
		if len(res.Dishes) != 30 {
			t.Fatalf("ranked %d dishes", len(res.Dishes))
		}
		for i, d := range res.Dishes {
			if d.Rank != i+1 || d.Score < 0 || d.Score > 100 {
				t.Errorf("%s rank %d score %v", d.ID, d.Rank, d.Score)
			}
			if i > 0 && d.Score > res.Dishes[i-1].Score {
				t.Errorf("dishes out of order at %d", i)
			}
		}
	}
}
