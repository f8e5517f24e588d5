package engine

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/chrisdamba/dishrank/internal/models"
)

// Override holds per-metric adjustments for one dish. A key is either an
// absolute value ("cost") or a multiplier on the dish's baseline ("costMul").
type Override map[string]float64

// OverrideSet maps dish ids to their overrides.
type OverrideSet map[string]Override

// OverridePolicy bounds how overrides are sanitized.
type OverridePolicy struct {
	// Epsilon prunes multipliers within this distance of 1.
	Epsilon float64
	// MaxMultiplier caps multipliers when positive.
	MaxMultiplier float64
}

func isOverrideKey(key string) bool {
	base := strings.TrimSuffix(key, models.MulSuffix)
	for _, k := range models.OverrideKeys {
		if k == base {
			return true
		}
	}
	return false
}

// Sanitize drops unknown keys and non-finite values, removes the multiplier
// of any metric that also has an absolute value, clamps multipliers to the
// policy and prunes near-identity multipliers. It returns nil when nothing
// remains.
func (p OverridePolicy) Sanitize(ov Override) Override {
	out := make(Override, len(ov))
	for k, v := range ov {
		if !isOverrideKey(k) || !finite(v) {
			continue
		}
		out[k] = v
	}
	for _, k := range models.OverrideKeys {
		mulKey := k + models.MulSuffix
		if _, hasAbs := out[k]; hasAbs {
			delete(out, mulKey)
			continue
		}
		m, ok := out[mulKey]
		if !ok {
			continue
		}
		m = math.Max(m, 0)
		if p.MaxMultiplier > 0 {
			m = math.Min(m, p.MaxMultiplier)
		}
		if math.Abs(m-1) <= p.Epsilon {
			delete(out, mulKey)
			continue
		}
		out[mulKey] = m
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SanitizeSet sanitizes every dish's overrides and drops empty entries.
func (p OverridePolicy) SanitizeSet(set OverrideSet) OverrideSet {
	out := make(OverrideSet, len(set))
	for id, ov := range set {
		if clean := p.Sanitize(ov); clean != nil {
			out[id] = clean
		}
	}
	return out
}

// Apply merges a patch into the dish's overrides and returns the new set; the
// receiver is not modified. Setting an absolute value clears the paired
// multiplier and vice versa, and an identity multiplier resets the metric.
// An empty patch clears all overrides of the dish.
func (p OverridePolicy) Apply(set OverrideSet, dishID string, patch Override) OverrideSet {
	next := make(OverrideSet, len(set)+1)
	for id, ov := range set {
		next[id] = ov
	}
	if len(patch) == 0 {
		delete(next, dishID)
		return next
	}

	merged := make(Override, len(set[dishID])+len(patch))
	for k, v := range set[dishID] {
		merged[k] = v
	}
	for _, k := range models.OverrideKeys {
		mulKey := k + models.MulSuffix
		if v, ok := patch[k]; ok && finite(v) {
			delete(merged, mulKey)
			merged[k] = v
		} else if m, ok := patch[mulKey]; ok && finite(m) {
			delete(merged, k)
			merged[mulKey] = m
		}
	}

	if clean := p.Sanitize(merged); clean != nil {
		next[dishID] = clean
	} else {
		delete(next, dishID)
	}
	return next
}

// Key returns a canonical serialization of the set, stable across map
// iteration order.
func (s OverrideSet) Key() string {
	if len(s) == 0 {
		return "{}"
	}
	// encoding/json sorts map keys.
	b, err := json.Marshal(s)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// metricRule resolves one metric's effective raw value.
type metricRule struct {
	key      string
	lo, hi   float64
	fallback float64
}

var (
	tasteRule    = metricRule{key: models.OverrideTaste, lo: 0, hi: 10, fallback: NeutralScore}
	healthRule   = metricRule{key: models.OverrideHealth, lo: 0, hi: 10, fallback: NeutralScore}
	ethicsRule   = metricRule{key: models.OverrideEthics, lo: 0, hi: 10, fallback: NeutralScore}
	satietyRule  = metricRule{key: models.OverrideSatiety, lo: 0, hi: 10, fallback: NeutralScore}
	costRule     = metricRule{key: models.OverrideCost, lo: 0, hi: math.Inf(1)}
	caloriesRule = metricRule{key: models.OverrideCalories, lo: 0, hi: math.Inf(1)}
	timeRule     = metricRule{key: models.OverrideTime, lo: 0, hi: math.Inf(1)}
	passiveRule  = metricRule{key: models.OverridePassive, lo: 0, hi: math.Inf(1)}
)

// resolve applies the precedence baseline, override absolute, override
// multiplier, dataset default. An unknown baseline ignores the multiplier
// and falls back to the rule default.
func (r metricRule) resolve(baseline *float64, ov Override) float64 {
	if v, ok := ov[r.key]; ok {
		return clamp(v, r.lo, r.hi)
	}
	if baseline == nil || !finite(*baseline) {
		return r.fallback
	}
	if m, ok := ov[r.key+models.MulSuffix]; ok {
		return clamp(*baseline*m, r.lo, r.hi)
	}
	return clamp(*baseline, r.lo, r.hi)
}
