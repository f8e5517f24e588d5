// Package engine ranks a dish catalog by a signed blend of normalized
// criteria and back-solves raw values for target scores.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/chrisdamba/dishrank/internal/ingredients"
	"github.com/chrisdamba/dishrank/internal/models"
	"go.uber.org/zap"
)

var (
	ErrDatasetNotLoaded = errors.New("dataset not loaded")
	ErrInvalidDataset   = errors.New("invalid dataset")
	ErrUnknownZone      = errors.New("unknown economic zone")
	ErrUnknownDish      = errors.New("unknown dish")
	ErrUnknownMetric    = errors.New("unknown metric")
)

// Options tune an Engine. Zero values fall back to the defaults.
type Options struct {
	PenaltyBands       []models.PenaltyBand
	Policy             OverridePolicy
	CacheSize          int
	DefaultTasteMethod string
	Logger             *zap.Logger
}

// OptionsFromConfig maps the engine configuration section to Options.
func OptionsFromConfig(cfg models.EngineConfig, logger *zap.Logger) Options {
	return Options{
		PenaltyBands: cfg.PassivePenalty,
		Policy: OverridePolicy{
			Epsilon:       cfg.MultiplierEpsilon,
			MaxMultiplier: cfg.MaxMultiplier,
		},
		CacheSize:          cfg.CacheSize,
		DefaultTasteMethod: cfg.DefaultTasteMethod,
		Logger:             logger,
	}
}

// Engine runs the ranking pipeline over one immutable dataset. It owns its
// variant cache and must only be used by one goroutine at a time.
type Engine struct {
	data   *models.Dataset
	index  *ingredients.Index
	dishes map[string]int
	cache  *VariantCache
	opts   Options
	logger *zap.Logger
}

// New validates the dataset and builds the ingredient index.
func New(data *models.Dataset, opts Options) (*Engine, error) {
	if data == nil || len(data.Dishes) == 0 {
		return nil, ErrDatasetNotLoaded
	}
	dishes := make(map[string]int, len(data.Dishes))
	for i, d := range data.Dishes {
		if d.ID == "" {
			return nil, fmt.Errorf("%w: dish %q has no id", ErrInvalidDataset, d.Name)
		}
		if _, dup := dishes[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate dish id %q", ErrInvalidDataset, d.ID)
		}
		dishes[d.ID] = i
	}
	if len(data.Zones) == 0 {
		return nil, fmt.Errorf("%w: no economic zones", ErrInvalidDataset)
	}

	if opts.PenaltyBands == nil {
		opts.PenaltyBands = models.DefaultPenaltyBands()
	}
	if opts.DefaultTasteMethod == "" {
		opts.DefaultTasteMethod = models.DefaultTasteMethod
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	e := &Engine{
		data:   data,
		index:  ingredients.Build(data.Ingredients),
		dishes: dishes,
		cache:  NewVariantCache(opts.CacheSize),
		opts:   opts,
		logger: opts.Logger,
	}
	e.logger.Info("engine ready",
		zap.Int("dishes", len(data.Dishes)),
		zap.Int("ingredients", e.index.Len()),
		zap.Int("zones", len(data.Zones)),
	)
	return e, nil
}

// Params select one ranking.
type Params struct {
	Zone        string            `json:"selectedZone"`
	Overrides   OverrideSet       `json:"overrides"`
	Optimized   bool              `json:"isOptimized"`
	PriceUnit   models.PriceUnit  `json:"priceUnit"`
	Priorities  models.Priorities `json:"priorities"`
	TasteMethod string            `json:"tasteScoreMethod"`
}

// RankingMeta exposes the statistics of the selected variant for inverse
// mapping and percentile context.
type RankingMeta struct {
	Zone                 string           `json:"zone"`
	Currency             string           `json:"currency"`
	CurrencySymbol       string           `json:"currencySymbol,omitempty"`
	PriceUnit            models.PriceUnit `json:"priceUnit"`
	Optimized            bool             `json:"isOptimized"`
	TasteMethod          string           `json:"tasteScoreMethod"`
	CostMin              float64          `json:"costMin"`
	CostMax              float64          `json:"costMax"`
	CostScaleValid       bool             `json:"costScaleValid"`
	SortedActiveMinutes  []float64        `json:"sortedActiveMinutes"`
	SortedCalorieDensity []float64        `json:"sortedCalorieDensity"`
	SortedSatiety        []float64        `json:"sortedSatiety"`
	HigherIsBetter       map[string]bool  `json:"higherIsBetter"`
	DishCount            int              `json:"dishCount"`
	OverriddenDishes     int              `json:"overriddenDishes"`
}

// Result is a ranked dish list with its metadata.
type Result struct {
	Dishes   []AnalyzedDish `json:"rankedDishes"`
	Meta     RankingMeta    `json:"rankingMeta"`
	CacheHit bool           `json:"-"`
}

type request struct {
	zone        models.EconomicZone
	unit        models.PriceUnit
	tasteMethod string
	overrides   OverrideSet
}

func (e *Engine) prepare(p Params) (request, error) {
	zone, ok := e.data.Zone(p.Zone)
	if !ok {
		return request{}, fmt.Errorf("%w: %q", ErrUnknownZone, p.Zone)
	}
	unit := p.PriceUnit
	if unit == "" {
		unit = models.PricePerServing
	}
	if _, err := unit.Index(); err != nil {
		return request{}, err
	}
	method := p.TasteMethod
	if method == "" {
		method = e.opts.DefaultTasteMethod
	}

	overrides := e.opts.Policy.SanitizeSet(p.Overrides)
	for id := range overrides {
		if _, ok := e.dishIndex(id); !ok {
			e.logger.Debug("dropping override for unknown dish", zap.String("dish_id", id))
			delete(overrides, id)
		}
	}
	return request{zone: zone, unit: unit, tasteMethod: method, overrides: overrides}, nil
}

func (e *Engine) dishIndex(id string) (int, bool) {
	i, ok := e.dishes[id]
	return i, ok
}

// variants returns the cached variant set for the request, building all six
// variants on a miss.
func (e *Engine) variants(r request) (*variantSet, bool) {
	key := cacheKey{zone: r.zone.ID, overrides: r.overrides.Key(), tasteMethod: r.tasteMethod}
	if set, ok := e.cache.get(key); ok {
		return set, true
	}

	start := time.Now()
	set := &variantSet{bases: e.baselines(r.zone.ID, r.tasteMethod)}
	set.effs = make([]effective, len(set.bases))
	for i := range set.bases {
		set.effs[i] = reconcile(&set.bases[i], r.overrides[set.bases[i].dish.ID])
	}
	for m, optimized := range []bool{false, true} {
		for u, unit := range models.PriceUnits {
			set.variants[m][u] = e.buildVariant(set.bases, set.effs, optimized, unit)
		}
	}
	e.cache.put(key, set)

	e.logger.Debug("variant cache miss",
		zap.String("zone", r.zone.ID),
		zap.String("taste_method", r.tasteMethod),
		zap.Int("overridden", len(r.overrides)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return set, false
}

// Compute ranks the dataset for the given parameters.
func (e *Engine) Compute(p Params) (*Result, error) {
	r, err := e.prepare(p)
	if err != nil {
		return nil, err
	}
	set, hit := e.variants(r)
	v, err := set.pick(p.Optimized, r.unit)
	if err != nil {
		return nil, err
	}

	return &Result{
		Dishes:   Rank(v.Dishes, p.Priorities),
		Meta:     e.meta(r, v),
		CacheHit: hit,
	}, nil
}

func (e *Engine) meta(r request, v *Variant) RankingMeta {
	overridden := 0
	for i := range v.Dishes {
		if v.Dishes[i].HasOverride {
			overridden++
		}
	}
	return RankingMeta{
		Zone:                 r.zone.ID,
		Currency:             r.zone.Currency,
		CurrencySymbol:       r.zone.Symbol,
		PriceUnit:            v.Unit,
		Optimized:            v.Optimized,
		TasteMethod:          r.tasteMethod,
		CostMin:              v.Stats.Cost.Min,
		CostMax:              v.Stats.Cost.Max,
		CostScaleValid:       v.Stats.Cost.Valid(),
		SortedActiveMinutes:  v.Stats.Speed.Sorted,
		SortedCalorieDensity: v.Stats.LowCalorie.Sorted,
		SortedSatiety:        v.Stats.Satiety.Sorted,
		HigherIsBetter: map[string]bool{
			models.MetricTaste:      true,
			models.MetricHealth:     true,
			models.MetricCheapness:  false,
			models.MetricSpeed:      v.Stats.Speed.HigherIsBetter,
			models.MetricLowCalorie: v.Stats.LowCalorie.HigherIsBetter,
			models.MetricEthics:     true,
			models.MetricSatiety:    v.Stats.Satiety.HigherIsBetter,
		},
		DishCount:        len(v.Dishes),
		OverriddenDishes: overridden,
	}
}

// Zones returns the economic zone enumeration.
func (e *Engine) Zones() []models.EconomicZone {
	out := make([]models.EconomicZone, len(e.data.Zones))
	copy(out, e.data.Zones)
	return out
}

// Dataset returns the dataset the engine was built with.
func (e *Engine) Dataset() *models.Dataset { return e.data }

// CacheStats returns the variant cache size, hits and misses.
func (e *Engine) CacheStats() (size, hits, misses int) {
	hits, misses = e.cache.Stats()
	return e.cache.Len(), hits, misses
}
