package models

import "strings"

// EconomicZone is one partition of the ingredient price table.
type EconomicZone struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Symbol   string `json:"symbol,omitempty"`
	Region   string `json:"region,omitempty"`
	// PriceColumn is the ingredient dataset column holding this zone's prices.
	PriceColumn string `json:"price_column,omitempty"`
}

// Column returns the price column for the zone, defaulting to price_<id>.
func (z EconomicZone) Column() string {
	if z.PriceColumn != "" {
		return z.PriceColumn
	}
	return "price_" + strings.ToLower(z.ID)
}

// Dataset bundles the static inputs consumed by the ranking engine.
type Dataset struct {
	Dishes       []Dish              `json:"dishes"`
	Ingredients  []IngredientRecord  `json:"ingredients"`
	Coefficients CookingCoefficients `json:"coefficients"`
	Zones        []EconomicZone      `json:"zones"`
}

// Zone looks up a zone by id.
func (d *Dataset) Zone(id string) (EconomicZone, bool) {
	for _, z := range d.Zones {
		if z.ID == id {
			return z, true
		}
	}
	return EconomicZone{}, false
}
