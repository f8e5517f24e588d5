package models

import "fmt"

// PriceUnit selects how a dish's cost is expressed before normalization.
type PriceUnit string

const (
	PricePerServing  PriceUnit = "serving"
	PricePerKg       PriceUnit = "per1kg"
	PricePer1000Kcal PriceUnit = "per1000kcal"
)

// PriceUnits lists the units in variant order.
var PriceUnits = []PriceUnit{PricePerServing, PricePerKg, PricePer1000Kcal}

// Index returns the variant slot of the unit.
func (u PriceUnit) Index() (int, error) {
	for i, p := range PriceUnits {
		if p == u {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown price unit %q", string(u))
}

// Priority keys, also used as metric names in responses.
const (
	MetricTaste      = "taste"
	MetricHealth     = "health"
	MetricCheapness  = "cheapness"
	MetricSpeed      = "speed"
	MetricLowCalorie = "lowCalorie"
	MetricEthics     = "ethics"
	MetricSatiety    = "satiety"
)

// Override keys. Each has a multiplier twin with the "Mul" suffix.
const (
	OverrideTaste    = "taste"
	OverrideHealth   = "health"
	OverrideEthics   = "ethics"
	OverrideSatiety  = "satiety"
	OverrideCost     = "cost"
	OverrideCalories = "calories"
	OverrideTime     = "time"
	OverridePassive  = "passive"

	MulSuffix = "Mul"
)

// OverrideKeys lists the absolute override keys.
var OverrideKeys = []string{
	OverrideTaste, OverrideHealth, OverrideEthics, OverrideSatiety,
	OverrideCost, OverrideCalories, OverrideTime, OverridePassive,
}

const (
	MinWeight = -10.0
	MaxWeight = 10.0

	DefaultTasteMethod = "default"
)
