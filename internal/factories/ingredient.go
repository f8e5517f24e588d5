package factories

import (
	"math"

	"github.com/chrisdamba/dishrank/internal/models"
)

var ethicsReasons = []string{
	"high emissions",
	"water intensive",
	"deforestation risk",
	"long supply chain",
	"animal welfare concerns",
}

// CreateIngredient generates one ingredient with a price in most zones. Roughly
// one zone price in ten is missing and one in twenty is marked unavailable.
func (g *Generator) CreateIngredient(zones []models.EconomicZone) models.IngredientRecord {
	var name string
	if g.fake.Bool() {
		name = g.fake.Food().Vegetable()
	} else {
		name = g.fake.Food().Fruit()
	}

	rec := models.IngredientRecord{
		Name:   g.uniqueName(name),
		Health: ptr(g.fake.Float64(1, 1, 10)),
		Prices: make(map[string]float64, len(zones)),
	}
	ethics := g.fake.Float64(1, 1, 10)
	rec.Ethics = &ethics
	if ethics < 4 {
		rec.EthicsReason = g.fake.RandomStringElement(ethicsReasons)
	}
	if g.fake.IntBetween(1, 4) == 1 {
		rec.Yield = g.fake.Float64(2, 60, 95) / 100
	}

	base := g.fake.Float64(2, 50, 4000) / 100 // per kg in the reference zone
	for _, z := range zones {
		switch roll := g.fake.IntBetween(1, 20); {
		case roll == 1:
			rec.Unavailable = append(rec.Unavailable, z.ID)
		case roll <= 3:
			// no price for this zone
		default:
			jitter := g.fake.Float64(2, 80, 120) / 100
			rec.Prices[z.ID] = math.Round(base*zoneScale(z.ID)*jitter*100) / 100
		}
	}
	return rec
}

func ptr(v float64) *float64 { return &v }
