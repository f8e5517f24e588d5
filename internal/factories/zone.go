package factories

import (
	"fmt"

	"github.com/chrisdamba/dishrank/internal/models"
)

type zoneTemplate struct {
	zone  models.EconomicZone
	scale float64 // price level relative to EU
}

var knownZones = []zoneTemplate{
	{models.EconomicZone{ID: "EU", Name: "Eurozone", Currency: "EUR", Symbol: "€", Region: "Europe"}, 1},
	{models.EconomicZone{ID: "US", Name: "United States", Currency: "USD", Symbol: "$", Region: "North America"}, 1.15},
	{models.EconomicZone{ID: "UK", Name: "United Kingdom", Currency: "GBP", Symbol: "£", Region: "Europe"}, 0.9},
	{models.EconomicZone{ID: "JP", Name: "Japan", Currency: "JPY", Symbol: "¥", Region: "Asia"}, 160},
	{models.EconomicZone{ID: "IN", Name: "India", Currency: "INR", Symbol: "₹", Region: "Asia"}, 45},
}

// CreateZones returns n zones. The first ones come from a fixed list of
// real currencies, the rest are synthetic.
func (g *Generator) CreateZones(n int) []models.EconomicZone {
	zones := make([]models.EconomicZone, n)
	for i := range zones {
		if i < len(knownZones) {
			zones[i] = knownZones[i].zone
			continue
		}
		id := fmt.Sprintf("Z%d", i+1)
		zones[i] = models.EconomicZone{
			ID:       id,
			Name:     g.fake.Address().Country(),
			Currency: g.fake.Currency().Code(),
			Region:   "Synthetic",
		}
	}
	return zones
}

func zoneScale(id string) float64 {
	for _, t := range knownZones {
		if t.zone.ID == id {
			return t.scale
		}
	}
	return 1
}
