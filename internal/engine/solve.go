package engine

import (
	"fmt"

	"github.com/chrisdamba/dishrank/internal/models"
)

// Solution is the raw value that realizes a target score for one dish in
// the current variant.
type Solution struct {
	DishID string  `json:"dishId"`
	Metric string  `json:"metric"`
	Target float64 `json:"target"`
	// Raw is the effective raw value in the metric's own unit: the 0-10
	// index for taste, health, ethics and satiety, active minutes for speed,
	// calories for lowCalorie and the unit cost for cheapness.
	Raw        float64     `json:"raw"`
	Baseline   *float64    `json:"baseline,omitempty"`
	Multiplier *float64    `json:"multiplier,omitempty"`
	Patch      Override    `json:"patch"`
	Overrides  OverrideSet `json:"overrides"`
}

// Solve back-solves the override that moves dish's metric to target under
// the parameters' zone, mode and unit. The population statistics are those
// of the current override state, so the realized score may drift slightly
// when the dish sits at an end of the population.
func (e *Engine) Solve(p Params, dishID, metric string, target float64) (*Solution, error) {
	if !finite(target) {
		return nil, fmt.Errorf("%w: target must be finite", ErrInverseUnavailable)
	}
	target = clamp(target, 0, 10)

	r, err := e.prepare(p)
	if err != nil {
		return nil, err
	}
	i, ok := e.dishIndex(dishID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDish, dishID)
	}
	set, _ := e.variants(r)
	v, err := set.pick(p.Optimized, r.unit)
	if err != nil {
		return nil, err
	}
	b, eff := &set.bases[i], &set.effs[i]
	grams := b.dish.ServingGrams

	sol := &Solution{DishID: dishID, Metric: metric, Target: target}
	var (
		key      string
		baseline *float64
	)

	switch metric {
	case models.MetricTaste:
		key, baseline, sol.Raw = models.OverrideTaste, b.taste, target
	case models.MetricHealth:
		key, baseline, sol.Raw = models.OverrideHealth, b.health, target
	case models.MetricEthics:
		key, baseline, sol.Raw = models.OverrideEthics, b.ethics, target
	case models.MetricSatiety:
		key, baseline = models.OverrideSatiety, b.satiety
		if sol.Raw, err = v.Stats.Satiety.Inverse(target); err != nil {
			return nil, err
		}
	case models.MetricLowCalorie:
		key, baseline = models.OverrideCalories, ptr(b.dish.Calories)
		density, err := v.Stats.LowCalorie.Inverse(target)
		if err != nil {
			return nil, err
		}
		if grams <= 0 {
			return nil, fmt.Errorf("%w: dish %q has no serving weight", ErrInverseUnavailable, dishID)
		}
		sol.Raw = density * grams / 100
	case models.MetricSpeed:
		key = models.OverrideTime
		baseline = ptr(b.activeNormal)
		if p.Optimized {
			baseline = ptr(b.activeOptimized)
		}
		penalty := PassivePenalty(eff.passive, e.opts.PenaltyBands)
		if sol.Raw, err = v.Stats.Speed.Inverse(clamp(target+penalty, 0, 10)); err != nil {
			return nil, err
		}
	case models.MetricCheapness:
		key = models.OverrideCost
		unitCost, err := v.Stats.Cost.Inverse(target)
		if err != nil {
			return nil, err
		}
		sol.Raw = unitCost
		// The multiplier applies to the baseline total; unit conversion uses
		// the effective calories.
		baseUnit := UnitCost(b.cost.Total, r.unit, grams, eff.calories)
		if finite(baseUnit) && baseUnit > 0 {
			sol.Baseline = ptr(baseUnit)
			sol.Multiplier = ptr(unitCost / baseUnit)
			sol.Patch = Override{key + models.MulSuffix: *sol.Multiplier}
		} else {
			total := unitCost
			if back := UnitCost(1, r.unit, grams, eff.calories); finite(back) && back > 0 {
				total = unitCost / back
			}
			sol.Patch = Override{key: total}
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}

	if sol.Patch == nil {
		sol.Baseline = baseline
		if baseline != nil && finite(*baseline) && *baseline > 0 {
			sol.Multiplier = ptr(sol.Raw / *baseline)
		}
		switch {
		case metric == models.MetricTaste || metric == models.MetricHealth || metric == models.MetricEthics:
			sol.Patch = Override{key: sol.Raw}
		case sol.Multiplier != nil:
			sol.Patch = Override{key + models.MulSuffix: *sol.Multiplier}
		default:
			sol.Patch = Override{key: sol.Raw}
		}
	}

	sol.Overrides = e.opts.Policy.Apply(r.overrides, dishID, sol.Patch)
	return sol, nil
}
