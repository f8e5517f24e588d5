package engine

import (
	"math"

	"github.com/chrisdamba/dishrank/internal/ingredients"
	"github.com/chrisdamba/dishrank/internal/models"
)

// CostLine is one priced ingredient of a dish.
type CostLine struct {
	Name    string  `json:"name"`
	Grams   float64 `json:"grams"`
	Cost    float64 `json:"cost"`
	Percent float64 `json:"percent"`
}

// CostResult is the priced dish in one zone. Ingredients that could not be
// priced are listed but never fail the dish.
type CostResult struct {
	Total              float64    `json:"totalCost"`
	Breakdown          []CostLine `json:"breakdown"`
	MissingIngredients []string   `json:"missingIngredients,omitempty"`
	MissingPrices      []string   `json:"missingPrices,omitempty"`
	Unavailable        []string   `json:"unavailableIngredients,omitempty"`
}

// Preparable reports whether every ingredient can be sourced in the zone.
func (c CostResult) Preparable() bool {
	return len(c.Unavailable) == 0
}

// CalculateCost prices a dish in a zone. The unit price is per kilogram of
// purchased mass; a record's yield ratio inflates the purchased mass.
func CalculateCost(d *models.Dish, zone string, ix *ingredients.Index) CostResult {
	res := CostResult{Breakdown: make([]CostLine, 0, len(d.Ingredients))}

	for _, line := range d.Ingredients {
		rec, ok := ix.Lookup(line.Name)
		if !ok {
			res.MissingIngredients = append(res.MissingIngredients, line.Name)
			continue
		}
		if rec.UnavailableIn(zone) {
			res.Unavailable = append(res.Unavailable, line.Name)
			continue
		}
		price, ok := rec.PriceIn(zone)
		if !ok || math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
			res.MissingPrices = append(res.MissingPrices, line.Name)
			continue
		}

		grams := math.Max(line.Grams, 0)
		if rec.Yield > 0 && rec.Yield < 1 {
			grams /= rec.Yield
		}
		cost := price * grams / 1000
		res.Total += cost
		res.Breakdown = append(res.Breakdown, CostLine{Name: line.Name, Grams: line.Grams, Cost: cost})
	}

	return res
}

// WithPercentages fills the percentage share of each breakdown line relative
// to total. The input slice is not modified.
func WithPercentages(lines []CostLine, total float64) []CostLine {
	out := make([]CostLine, len(lines))
	copy(out, lines)
	if total <= 0 {
		return out
	}
	for i := range out {
		out[i].Percent = out[i].Cost / total * 100
	}
	return out
}

// UnitCost converts a per-serving cost into the requested price unit. It
// returns NaN when the dish lacks the serving weight or calories needed.
func UnitCost(total float64, unit models.PriceUnit, servingGrams, calories float64) float64 {
	switch unit {
	case models.PricePerKg:
		if servingGrams <= 0 {
			return math.NaN()
		}
		return total / servingGrams * 1000
	case models.PricePer1000Kcal:
		if calories <= 0 {
			return math.NaN()
		}
		return total / calories * 1000
	default:
		return total
	}
}
