package engine

import (
	"math"

	"github.com/chrisdamba/dishrank/internal/models"
)

// Metrics are a dish's criteria on the common 0-10 scale.
type Metrics struct {
	Taste      float64 `json:"taste"`
	Health     float64 `json:"health"`
	Cheapness  float64 `json:"cheapness"`
	Speed      float64 `json:"speed"`
	LowCalorie float64 `json:"lowCalorie"`
	Ethics     float64 `json:"ethics"`
	Satiety    float64 `json:"satiety"`
}

// RawValues are the effective (override-applied) inputs to normalization.
type RawValues struct {
	TotalCost      float64  `json:"totalCost"`
	UnitCost       *float64 `json:"unitCost"` // nil when the unit cannot be computed
	ActiveMinutes  float64  `json:"activeMinutes"`
	PassiveHours   float64  `json:"passiveHours"`
	PassivePenalty float64  `json:"passivePenalty"`
	Calories       float64  `json:"calories"`
	CalorieDensity *float64 `json:"calorieDensity"` // kcal per 100 g
	ServingGrams   float64  `json:"servingGrams"`
	Taste          float64  `json:"taste"`
	Health         float64  `json:"health"`
	Ethics         float64  `json:"ethics"`
	Satiety        float64  `json:"satiety"`
}

// AnalyzedDish is one dish after the full pipeline.
type AnalyzedDish struct {
	ID                     string     `json:"id"`
	Name                   string     `json:"name"`
	Rank                   int        `json:"rank"`
	Score                  float64    `json:"score"`
	Metrics                Metrics    `json:"metrics"`
	Raw                    RawValues  `json:"raw"`
	Breakdown              []CostLine `json:"breakdown"`
	MissingIngredients     []string   `json:"missingIngredients,omitempty"`
	MissingPrices          []string   `json:"missingPrices,omitempty"`
	UnavailableIngredients []string   `json:"unavailableIngredients,omitempty"`
	Preparable             bool       `json:"preparable"`
	HasOverride            bool       `json:"hasOverride"`
	EthicsReasons          []string   `json:"ethicsReasons,omitempty"`

	position int
}

// DatasetStats holds the population aggregates a variant was normalized with.
type DatasetStats struct {
	Cost       *LogScale
	Speed      *Percentile
	LowCalorie *Percentile
	Satiety    *Percentile
}

// Variant is the analyzed population for one cooking mode and price unit.
type Variant struct {
	Optimized bool
	Unit      models.PriceUnit
	Dishes    []AnalyzedDish
	Stats     DatasetStats

	byID map[string]int
}

// baseline carries the pre-override values of one dish. Nil pointers mark
// criteria the dataset does not provide.
type baseline struct {
	dish            *models.Dish
	cost            CostResult
	reasons         []string
	taste           *float64
	health          *float64
	ethics          *float64
	satiety         *float64
	activeNormal    float64
	activeOptimized float64
}

// effective carries the override-applied raw values of one dish.
type effective struct {
	taste, health, ethics, satiety float64
	cost, calories, passive        float64
	activeNormal, activeOptimized  float64
	// costKnown is false when no ingredient line could be priced and no
	// absolute cost was given.
	costKnown  bool
	overridden bool
}

func ptr(v float64) *float64 { return &v }

func known(v float64) *float64 {
	if !finite(v) {
		return nil
	}
	return &v
}

func (e *Engine) baselines(zone, tasteMethod string) []baseline {
	out := make([]baseline, len(e.data.Dishes))
	for i := range e.data.Dishes {
		d := &e.data.Dishes[i]
		agg := AggregateIndices(d, e.index, e.data.Coefficients)

		b := baseline{
			dish:            d,
			cost:            CalculateCost(d, zone, e.index),
			reasons:         agg.EthicsReasons,
			taste:           ptr(d.TasteFor(tasteMethod)),
			health:          agg.Health,
			ethics:          agg.Ethics,
			satiety:         d.Satiety,
			activeNormal:    ActiveMinutes(d, false),
			activeOptimized: ActiveMinutes(d, true),
		}
		if b.health == nil {
			b.health = d.Health
		}
		if b.ethics == nil {
			b.ethics = d.Ethics
		}
		out[i] = b
	}
	return out
}

// reconcile applies a dish's overrides. A dish is only marked overridden
// when an override changes one of its effective values.
func reconcile(b *baseline, ov Override) effective {
	eff := resolveEffective(b, ov)
	if len(ov) > 0 {
		eff.overridden = eff != resolveEffective(b, nil)
	}
	return eff
}

// resolveEffective resolves every metric. Calories resolve before anything
// that converts cost into a per-calorie unit.
func resolveEffective(b *baseline, ov Override) effective {
	var cost *float64
	if len(b.cost.Breakdown) > 0 {
		cost = ptr(b.cost.Total)
	}
	_, absCost := ov[models.OverrideCost]

	eff := effective{costKnown: cost != nil || absCost}
	eff.calories = caloriesRule.resolve(ptr(b.dish.Calories), ov)
	eff.cost = costRule.resolve(cost, ov)
	eff.taste = tasteRule.resolve(b.taste, ov)
	eff.health = healthRule.resolve(b.health, ov)
	eff.ethics = ethicsRule.resolve(b.ethics, ov)
	eff.satiety = satietyRule.resolve(b.satiety, ov)
	eff.passive = passiveRule.resolve(ptr(b.dish.PassiveHours), ov)
	eff.activeNormal = timeRule.resolve(ptr(b.activeNormal), ov)
	eff.activeOptimized = math.Min(timeRule.resolve(ptr(b.activeOptimized), ov), eff.activeNormal)
	return eff
}

func calorieDensity(calories, servingGrams float64) float64 {
	if servingGrams <= 0 {
		return math.NaN()
	}
	return calories / servingGrams * 100
}

func (e *Engine) buildVariant(bases []baseline, effs []effective, optimized bool, unit models.PriceUnit) *Variant {
	n := len(bases)
	active := make([]float64, n)
	density := make([]float64, n)
	satiety := make([]float64, n)
	unitCost := make([]float64, n)

	for i := range bases {
		eff := &effs[i]
		active[i] = eff.activeNormal
		if optimized {
			active[i] = eff.activeOptimized
		}
		density[i] = calorieDensity(eff.calories, bases[i].dish.ServingGrams)
		satiety[i] = eff.satiety
		unitCost[i] = math.NaN()
		if eff.costKnown {
			unitCost[i] = UnitCost(eff.cost, unit, bases[i].dish.ServingGrams, eff.calories)
		}
	}

	v := &Variant{
		Optimized: optimized,
		Unit:      unit,
		Dishes:    make([]AnalyzedDish, n),
		byID:      make(map[string]int, n),
		Stats: DatasetStats{
			Cost:       NewLogScale(unitCost),
			Speed:      NewPercentile(active, false),
			LowCalorie: NewPercentile(density, false),
			Satiety:    NewPercentile(satiety, true),
		},
	}

	for i := range bases {
		b, eff := &bases[i], &effs[i]
		penalty := PassivePenalty(eff.passive, e.opts.PenaltyBands)

		v.Dishes[i] = AnalyzedDish{
			ID:   b.dish.ID,
			Name: b.dish.Name,
			Metrics: Metrics{
				Taste:      clamp(eff.taste, 0, 10),
				Health:     clamp(eff.health, 0, 10),
				Cheapness:  v.Stats.Cost.Score(unitCost[i]),
				Speed:      SpeedScore(v.Stats.Speed.Score(active[i]), penalty),
				LowCalorie: v.Stats.LowCalorie.Score(density[i]),
				Ethics:     clamp(eff.ethics, 0, 10),
				Satiety:    v.Stats.Satiety.Score(satiety[i]),
			},
			Raw: RawValues{
				TotalCost:      eff.cost,
				UnitCost:       known(unitCost[i]),
				ActiveMinutes:  active[i],
				PassiveHours:   eff.passive,
				PassivePenalty: penalty,
				Calories:       eff.calories,
				CalorieDensity: known(density[i]),
				ServingGrams:   b.dish.ServingGrams,
				Taste:          eff.taste,
				Health:         eff.health,
				Ethics:         eff.ethics,
				Satiety:        eff.satiety,
			},
			Breakdown:              WithPercentages(b.cost.Breakdown, b.cost.Total),
			MissingIngredients:     b.cost.MissingIngredients,
			MissingPrices:          b.cost.MissingPrices,
			UnavailableIngredients: b.cost.Unavailable,
			Preparable:             b.cost.Preparable(),
			HasOverride:            eff.overridden,
			EthicsReasons:          b.reasons,
			position:               i,
		}
		v.byID[b.dish.ID] = i
	}

	return v
}

// Dish returns the analyzed dish with the given id.
func (v *Variant) Dish(id string) (*AnalyzedDish, bool) {
	i, ok := v.byID[id]
	if !ok {
		return nil, false
	}
	return &v.Dishes[i], true
}
