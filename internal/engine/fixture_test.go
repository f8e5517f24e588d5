package engine

import (
	"testing"

	"github.com/chrisdamba/dishrank/internal/ingredients"
	"github.com/chrisdamba/dishrank/internal/models"
)

func f(v float64) *float64 { return &v }

// testDataset prices in EU at rice 2.00/8.00 per dish and leaves the third
// dish with a missing price, a missing ingredient and a zone where one
// ingredient is unavailable.
func testDataset() *models.Dataset {
	return &models.Dataset{
		Zones: []models.EconomicZone{
			{ID: "EU", Name: "Europe", Currency: "EUR", Symbol: "€"},
			{ID: "US", Name: "United States", Currency: "USD", Symbol: "$"},
		},
		Coefficients: models.CookingCoefficients{"raw": 1, "boiled": 0.9, "fried": 0.5},
		Ingredients: []models.IngredientRecord{
			{Name: "Rice", Health: f(6), Ethics: f(8), Prices: map[string]float64{"EU": 10, "US": 12}},
			{Name: "Beef", Health: f(5), Ethics: f(2), EthicsReason: "high emissions",
				Prices: map[string]float64{"EU": 20}, Unavailable: []string{"US"}},
			{Name: "Saffron", Health: f(7), Prices: map[string]float64{"US": 1000}},
		},
		Dishes: []models.Dish{
			{
				ID: "a", Name: "Rice bowl",
				Ingredients:  []models.IngredientLine{{Name: "rice", Grams: 200, State: "boiled"}},
				PrepMinutes:  5,
				CookMinutes:  15,
				Taste:        6,
				Satiety:      f(4),
				Calories:     300,
				ServingGrams: 250,
			},
			{
				ID: "b", Name: "Rice feast",
				Ingredients:          []models.IngredientLine{{Name: "RICE ", Grams: 800, State: "boiled"}},
				PrepMinutes:          10,
				CookMinutes:          30,
				CookMinutesOptimized: f(10),
				PassiveHours:         2,
				Taste:                7,
				TasteScores:          map[string]float64{"critics": 3},
				Satiety:              f(8),
				Calories:             900,
				ServingGrams:         800,
			},
			{
				ID: "c", Name: "Saffron beef",
				Ingredients: []models.IngredientLine{
					{Name: "Beef", Grams: 100, State: "fried"},
					{Name: "saffron", Grams: 1},
					{Name: "Unicorn", Grams: 50},
				},
				PrepMinutes:  20,
				CookMinutes:  40,
				Taste:        8,
				Calories:     500,
				ServingGrams: 200,
			},
		},
	}
}

func testIndex() *ingredients.Index {
	return ingredients.Build(testDataset().Ingredients)
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(testDataset(), Options{Policy: OverridePolicy{Epsilon: 1e-6}, CacheSize: 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func dishByID(t *testing.T, dishes []AnalyzedDish, id string) AnalyzedDish {
	t.Helper()
	for _, d := range dishes {
		if d.ID == id {
			return d
		}
	}
	t.Fatalf("dish %q not in result", id)
	return AnalyzedDish{}
}
