package models

import "math"

// Priorities holds the signed user weight of each ranking criterion.
// A negative weight rewards the opposite pole of the criterion; zero disables it.
type Priorities struct {
	Taste      float64 `json:"taste"`
	Health     float64 `json:"health"`
	Cheapness  float64 `json:"cheapness"`
	Speed      float64 `json:"speed"`
	LowCalorie float64 `json:"lowCalorie"`
	Ethics     float64 `json:"ethics"`
}

// Clamped returns a copy with every weight limited to [MinWeight, MaxWeight]
// and non-finite weights set to zero.
func (p Priorities) Clamped() Priorities {
	c := func(v float64) float64 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return math.Max(MinWeight, math.Min(MaxWeight, v))
	}
	return Priorities{
		Taste:      c(p.Taste),
		Health:     c(p.Health),
		Cheapness:  c(p.Cheapness),
		Speed:      c(p.Speed),
		LowCalorie: c(p.LowCalorie),
		Ethics:     c(p.Ethics),
	}
}

// Set assigns the weight for a priority key. Unknown keys return false.
func (p *Priorities) Set(key string, v float64) bool {
	switch key {
	case MetricTaste:
		p.Taste = v
	case MetricHealth:
		p.Health = v
	case MetricCheapness:
		p.Cheapness = v
	case MetricSpeed:
		p.Speed = v
	case MetricLowCalorie:
		p.LowCalorie = v
	case MetricEthics:
		p.Ethics = v
	default:
		return false
	}
	return true
}
