package engine

import (
	"github.com/chrisdamba/dishrank/internal/ingredients"
	"github.com/chrisdamba/dishrank/internal/models"
)

// IndexAggregate is the mass-weighted health and ethics of a dish. A nil
// value means no ingredient carried that index.
type IndexAggregate struct {
	Health        *float64
	Ethics        *float64
	EthicsReasons []string
}

// AggregateIndices combines per-ingredient health and ethics indices weighted
// by mass. Health is adjusted by the cooking coefficient of the ingredient's
// preparation state and clamped to [0,10]. Ingredients without an index are
// left out of both numerator and denominator.
func AggregateIndices(d *models.Dish, ix *ingredients.Index, coeffs models.CookingCoefficients) IndexAggregate {
	var (
		healthSum, healthMass float64
		ethicsSum, ethicsMass float64
		agg                   IndexAggregate
	)

	for _, line := range d.Ingredients {
		if line.Grams <= 0 {
			continue
		}
		rec, ok := ix.Lookup(line.Name)
		if !ok {
			continue
		}
		if rec.Health != nil {
			h := clamp(*rec.Health*coeffs.For(line.State), 0, 10)
			healthSum += h * line.Grams
			healthMass += line.Grams
		}
		if rec.Ethics != nil {
			ethicsSum += clamp(*rec.Ethics, 0, 10) * line.Grams
			ethicsMass += line.Grams
		}
		if rec.EthicsReason != "" {
			agg.EthicsReasons = append(agg.EthicsReasons, rec.EthicsReason)
		}
	}

	if healthMass > 0 {
		h := healthSum / healthMass
		agg.Health = &h
	}
	if ethicsMass > 0 {
		e := ethicsSum / ethicsMass
		agg.Ethics = &e
	}
	return agg
}
