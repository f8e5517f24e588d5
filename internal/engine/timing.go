package engine

import (
	"math"

	"github.com/chrisdamba/dishrank/internal/models"
)

// ActiveMinutes returns prep plus cook time for the cooking mode. Optimized
// times fall back to the normal ones and never exceed them.
func ActiveMinutes(d *models.Dish, optimized bool) float64 {
	normal := math.Max(d.PrepMinutes, 0) + math.Max(d.CookMinutes, 0)
	if !optimized {
		return normal
	}
	prep, cook := d.PrepMinutes, d.CookMinutes
	if d.PrepMinutesOptimized != nil {
		prep = *d.PrepMinutesOptimized
	}
	if d.CookMinutesOptimized != nil {
		cook = *d.CookMinutesOptimized
	}
	return math.Min(math.Max(prep, 0)+math.Max(cook, 0), normal)
}

// PassivePenalty maps passive waiting hours to a speed point deduction using
// the first band whose MaxHours exceeds hours.
func PassivePenalty(hours float64, bands []models.PenaltyBand) float64 {
	if hours <= 0 || math.IsNaN(hours) {
		return 0
	}
	for _, b := range bands {
		if b.MaxHours <= 0 || hours < b.MaxHours {
			return b.Penalty
		}
	}
	if len(bands) == 0 {
		return 0
	}
	return bands[len(bands)-1].Penalty
}

// SpeedScore applies the passive penalty to a percentile-derived score.
func SpeedScore(percentileScore, penalty float64) float64 {
	return clamp(percentileScore-penalty, 0, 10)
}
