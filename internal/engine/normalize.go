package engine

import (
	"errors"
	"math"
	"sort"
)

// NeutralScore is returned whenever a population cannot be normalized.
const NeutralScore = 5.0

// ErrInverseUnavailable is returned by inverse mappings over degenerate populations.
var ErrInverseUnavailable = errors.New("inverse normalization unavailable")

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Percentile maps a raw value to its position in a sorted population,
// linearly rescaled to [0,10]. When HigherIsBetter is false the scale is
// flipped so that the smallest raw value scores 10.
type Percentile struct {
	Sorted         []float64 `json:"sorted"`
	HigherIsBetter bool      `json:"higherIsBetter"`
	distinct       bool
}

// NewPercentile sorts the finite values of the population once.
func NewPercentile(values []float64, higherIsBetter bool) *Percentile {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if finite(v) {
			sorted = append(sorted, v)
		}
	}
	sort.Float64s(sorted)
	return &Percentile{
		Sorted:         sorted,
		HigherIsBetter: higherIsBetter,
		distinct:       len(sorted) >= 2 && sorted[0] != sorted[len(sorted)-1],
	}
}

// Valid reports whether the population has at least two distinct values.
func (p *Percentile) Valid() bool {
	return p != nil && p.distinct
}

// position returns the fractional index of x in the sorted sequence. Exact
// ties resolve to the middle of the tied run; values between two entries are
// interpolated.
func (p *Percentile) position(x float64) float64 {
	n := len(p.Sorted)
	lo := sort.SearchFloat64s(p.Sorted, x)
	hi := sort.Search(n, func(i int) bool { return p.Sorted[i] > x })
	switch {
	case lo < hi:
		return float64(lo+hi-1) / 2
	case lo == 0:
		return 0
	case lo == n:
		return float64(n - 1)
	}
	a, b := p.Sorted[lo-1], p.Sorted[lo]
	return float64(lo-1) + (x-a)/(b-a)
}

// Score returns the normalized 0-10 score of x. Degenerate populations or
// non-finite inputs yield NeutralScore.
func (p *Percentile) Score(x float64) float64 {
	if !p.Valid() || !finite(x) {
		return NeutralScore
	}
	s := p.position(x) / float64(len(p.Sorted)-1) * 10
	if !p.HigherIsBetter {
		s = 10 - s
	}
	return clamp(s, 0, 10)
}

// Inverse reconstructs the raw value whose score is the target by
// interpolating between the two bracketing sorted entries.
func (p *Percentile) Inverse(score float64) (float64, error) {
	if !p.Valid() || !finite(score) {
		return 0, ErrInverseUnavailable
	}
	score = clamp(score, 0, 10)
	if !p.HigherIsBetter {
		score = 10 - score
	}
	n := len(p.Sorted)
	pos := score / 10 * float64(n-1)
	i := int(math.Floor(pos))
	if i >= n-1 {
		return p.Sorted[n-1], nil
	}
	frac := pos - float64(i)
	return p.Sorted[i] + frac*(p.Sorted[i+1]-p.Sorted[i]), nil
}

// LogScale normalizes costs on a logarithmic axis: the cheapest dish scores
// 10 and the most expensive 0.
type LogScale struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	valid bool
}

// NewLogScale takes the bounds from the positive finite values.
func NewLogScale(values []float64) *LogScale {
	ls := &LogScale{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range values {
		if !finite(v) || v <= 0 {
			continue
		}
		ls.Min = math.Min(ls.Min, v)
		ls.Max = math.Max(ls.Max, v)
	}
	ls.valid = finite(ls.Min) && finite(ls.Max) && ls.Min > 0 && ls.Max > ls.Min
	if !finite(ls.Min) || !finite(ls.Max) {
		ls.Min, ls.Max = 0, 0
	}
	return ls
}

// NewLogScaleBounds builds a scale from explicit bounds.
func NewLogScaleBounds(lo, hi float64) *LogScale {
	return &LogScale{Min: lo, Max: hi, valid: finite(lo) && finite(hi) && lo > 0 && hi > lo}
}

func (l *LogScale) Valid() bool {
	return l != nil && l.valid
}

// Score returns the cheapness of cost. Free dishes score 10; invalid bounds
// or non-finite costs, including dishes that could not be priced, yield
// NeutralScore.
func (l *LogScale) Score(cost float64) float64 {
	if !l.Valid() || !finite(cost) {
		return NeutralScore
	}
	if cost <= 0 {
		return 10
	}
	lmin, lmax := math.Log(l.Min), math.Log(l.Max)
	return clamp(10*(lmax-math.Log(cost))/(lmax-lmin), 0, 10)
}

// Inverse returns the cost whose cheapness is the target score.
func (l *LogScale) Inverse(score float64) (float64, error) {
	if !l.Valid() || !finite(score) {
		return 0, ErrInverseUnavailable
	}
	score = clamp(score, 0, 10)
	lmin, lmax := math.Log(l.Min), math.Log(l.Max)
	return math.Exp(lmax - score/10*(lmax-lmin)), nil
}
