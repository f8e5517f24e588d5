package engine

import (
	"math"
	"sort"

	"github.com/chrisdamba/dishrank/internal/models"
)

// NeutralFinalScore is every dish's score when all priorities are zero.
const NeutralFinalScore = 50.0

type weighted struct {
	weight float64
	value  float64
}

func weightedTerms(m Metrics, p models.Priorities) [6]weighted {
	return [6]weighted{
		{p.Taste, m.Taste},
		{p.Health, m.Health},
		{p.Cheapness, m.Cheapness},
		{p.Speed, m.Speed},
		{p.LowCalorie, m.LowCalorie},
		{p.Ethics, m.Ethics},
	}
}

// FinalScore combines the normalized metrics under signed priority weights
// into a 0-100 score. A negative weight scores the metric as 10 - value.
func FinalScore(m Metrics, p models.Priorities) float64 {
	p = p.Clamped()

	var sum, totalWeight float64
	for _, t := range weightedTerms(m, p) {
		if t.weight == 0 {
			continue
		}
		v := clamp(t.value, 0, 10)
		if t.weight < 0 {
			v = 10 - v
		}
		w := math.Abs(t.weight)
		sum += w * v
		totalWeight += w
	}
	if totalWeight == 0 {
		return NeutralFinalScore
	}
	return clamp(10*sum/totalWeight, 0, 100)
}

// Rank scores a copy of the dishes and sorts it by descending score. Ties
// keep dataset order. The input slice is not modified.
func Rank(dishes []AnalyzedDish, p models.Priorities) []AnalyzedDish {
	ranked := make([]AnalyzedDish, len(dishes))
	copy(ranked, dishes)
	for i := range ranked {
		ranked[i].Score = FinalScore(ranked[i].Metrics, p)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].position < ranked[j].position
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
