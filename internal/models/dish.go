package models

// IngredientLine is one ingredient as used by a dish.
type IngredientLine struct {
	Name  string  `json:"name"`
	Grams float64 `json:"grams"`
	State string  `json:"state,omitempty"` // raw, boiled, fried, ...
}

// Dish is an immutable source record from the dish dataset.
type Dish struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Ingredients []IngredientLine `json:"ingredients"`

	PrepMinutes          float64  `json:"prep_minutes"`
	CookMinutes          float64  `json:"cook_minutes"`
	PrepMinutesOptimized *float64 `json:"prep_minutes_optimized,omitempty"`
	CookMinutesOptimized *float64 `json:"cook_minutes_optimized,omitempty"`
	PassiveHours         float64  `json:"passive_hours"`

	Taste       float64            `json:"taste"`
	TasteScores map[string]float64 `json:"taste_scores,omitempty"` // keyed by taste scoring method
	Health      *float64           `json:"health,omitempty"`
	Ethics      *float64           `json:"ethics,omitempty"`
	Satiety     *float64           `json:"satiety,omitempty"`

	Calories     float64 `json:"calories"`      // kcal per serving
	ServingGrams float64 `json:"serving_grams"` // serving weight
}

// TasteFor returns the taste score of the given scoring method, falling back
// to the dish's default taste index when the method has no entry.
func (d *Dish) TasteFor(method string) float64 {
	if v, ok := d.TasteScores[method]; ok {
		return v
	}
	return d.Taste
}
