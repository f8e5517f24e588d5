package models

import "strings"

// IngredientRecord is one entry of the ingredient dataset.
type IngredientRecord struct {
	Name         string             `json:"name"`
	Health       *float64           `json:"health,omitempty"`
	Ethics       *float64           `json:"ethics,omitempty"`
	EthicsReason string             `json:"ethics_reason,omitempty"`
	Prices       map[string]float64 `json:"prices,omitempty"`      // zone id -> unit price per kg
	Unavailable  []string           `json:"unavailable,omitempty"` // zones that cannot supply it
	Yield        float64            `json:"yield,omitempty"`       // usable fraction of the purchased mass, 0 means 1
}

// PriceIn returns the unit price for the zone and whether one is known.
func (r *IngredientRecord) PriceIn(zone string) (float64, bool) {
	p, ok := r.Prices[zone]
	return p, ok
}

// UnavailableIn reports whether the zone explicitly cannot supply the ingredient.
func (r *IngredientRecord) UnavailableIn(zone string) bool {
	for _, z := range r.Unavailable {
		if z == zone {
			return true
		}
	}
	return false
}

// CookingCoefficients maps a preparation state to the multiplier applied to
// an ingredient's health index. Unknown states use 1.
type CookingCoefficients map[string]float64

func (c CookingCoefficients) For(state string) float64 {
	if v, ok := c[state]; ok {
		return v
	}
	if v, ok := c[strings.ToLower(strings.TrimSpace(state))]; ok {
		return v
	}
	return 1
}
