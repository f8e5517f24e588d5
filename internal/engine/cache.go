package engine

import (
	"github.com/chrisdamba/dishrank/internal/models"
	lru "github.com/hashicorp/golang-lru/v2"
)

// variantSet holds the six precomputed analyses for one cache key, indexed
// by [optimized][price unit], together with the per-dish values they were
// built from.
type variantSet struct {
	variants [2][3]*Variant
	bases    []baseline
	effs     []effective
}

func (s *variantSet) pick(optimized bool, unit models.PriceUnit) (*Variant, error) {
	u, err := unit.Index()
	if err != nil {
		return nil, err
	}
	m := 0
	if optimized {
		m = 1
	}
	return s.variants[m][u], nil
}

// cacheKey identifies a variant set.
type cacheKey struct {
	zone        string
	overrides   string
	tasteMethod string
}

// VariantCache memoizes variant sets per zone, override set and taste method.
// It belongs to a single Engine; a worker handles one request at a time, so
// the hit and miss counters are not synchronized.
type VariantCache struct {
	entries *lru.Cache[cacheKey, *variantSet]

	hits, misses int
}

// NewVariantCache creates a cache holding at most capacity variant sets.
// A non-positive capacity keeps a single entry.
func NewVariantCache(capacity int) *VariantCache {
	if capacity <= 0 {
		capacity = 1
	}
	entries, err := lru.New[cacheKey, *variantSet](capacity)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &VariantCache{entries: entries}
}

func (c *VariantCache) get(k cacheKey) (*variantSet, bool) {
	set, ok := c.entries.Get(k)
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	return set, true
}

func (c *VariantCache) put(k cacheKey, set *variantSet) {
	c.entries.Add(k, set)
}

// Len returns the number of cached variant sets.
func (c *VariantCache) Len() int { return c.entries.Len() }

// Stats returns the hit and miss counts since creation or the last Reset.
func (c *VariantCache) Stats() (hits, misses int) { return c.hits, c.misses }

// Reset drops every entry.
func (c *VariantCache) Reset() {
	c.entries.Purge()
	c.hits, c.misses = 0, 0
}
