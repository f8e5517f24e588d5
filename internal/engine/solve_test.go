package engine

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/chrisdamba/dishrank/internal/models"
)

func TestSolve(t *testing.T) {
	tests := []struct {
		name      string
		params    Params
		dish      string
		metric    string
		target    float64
		wantRaw   float64
		wantMul   *float64
		wantPatch Override
	}{
		{
			name:   "cheapness halfway between log bounds",
			params: Params{Zone: "EU"}, dish: "b", metric: models.MetricCheapness, target: 5,
			wantRaw: 4, wantMul: f(0.5), wantPatch: Override{"costMul": 0.5},
		},
		{
			name:   "taste is absolute",
			params: Params{Zone: "EU"}, dish: "a", metric: models.MetricTaste, target: 9,
			wantRaw: 9, wantMul: f(1.5), wantPatch: Override{"taste": 9},
		},
		{
			name:   "satiety without baseline",
			params: Params{Zone: "EU"}, dish: "c", metric: models.MetricSatiety, target: 10,
			wantRaw: 8, wantPatch: Override{"satiety": 8},
		},
		{
			name:   "low calorie converts density to calories",
			params: Params{Zone: "EU"}, dish: "c", metric: models.MetricLowCalorie, target: 10,
			wantRaw: 225, wantMul: f(0.45), wantPatch: Override{"caloriesMul": 0.45},
		},
		{
			name:   "speed adds back the passive penalty",
			params: Params{Zone: "EU"}, dish: "b", metric: models.MetricSpeed, target: 7.5,
			wantRaw: 24, wantMul: f(0.6), wantPatch: Override{"timeMul": 0.6},
		},
		{
			name:   "target clamped",
			params: Params{Zone: "EU"}, dish: "a", metric: models.MetricHealth, target: 42,
			wantRaw: 10, wantMul: f(10 / 5.4), wantPatch: Override{"health": 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			sol, err := e.Solve(tt.params, tt.dish, tt.metric, tt.target)
			if err != nil {
				t.Fatalf("Solve: %v", err)
			}
			if math.Abs(sol.Raw-tt.wantRaw) > 1e-9 {
				t.Errorf("raw = %v, want %v", sol.Raw, tt.wantRaw)
			}
			assertPtr(t, "multiplier", sol.Multiplier, tt.wantMul)
			if len(sol.Patch) != len(tt.wantPatch) {
				t.Fatalf("patch = %v, want %v", sol.Patch, tt.wantPatch)
			}
			for k, want := range tt.wantPatch {
				if got, ok := sol.Patch[k]; !ok || math.Abs(got-want) > 1e-9 {
					t.Errorf("patch[%s] = %v, want %v", k, got, want)
				}
			}
			if _, ok := sol.Overrides[tt.dish]; !ok {
				t.Errorf("expected merged overrides for %s, got %v", tt.dish, sol.Overrides)
			}
		})
	}
}

func TestSolveMergesWithExistingOverrides(t *testing.T) {
	e := newTestEngine(t)
	params := Params{Zone: "EU", Overrides: OverrideSet{"b": {"cost": 20, "taste": 1}}}

	sol, err := e.Solve(params, "b", models.MetricTaste, 4)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	want := OverrideSet{"b": {"cost": 20, "taste": 4}}
	if !reflect.DeepEqual(sol.Overrides, want) {
		t.Errorf("overrides = %v, want %v", sol.Overrides, want)
	}
}

func TestSolveErrors(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name   string
		params Params
		dish   string
		metric string
		target float64
		want   error
	}{
		{"unknown dish", Params{Zone: "EU"}, "zz", models.MetricTaste, 5, ErrUnknownDish},
		{"unknown metric", Params{Zone: "EU"}, "a", "umami", 5, ErrUnknownMetric},
		{"unknown zone", Params{Zone: "??"}, "a", models.MetricTaste, 5, ErrUnknownZone},
		{"non-finite target", Params{Zone: "EU"}, "a", models.MetricTaste, math.NaN(), ErrInverseUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.Solve(tt.params, tt.dish, tt.metric, tt.target); !errors.Is(err, tt.want) {
				t.Errorf("Solve error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSolveDegeneratePopulation(t *testing.T) {
	ds := testDataset()
	for i := range ds.Dishes {
		ds.Dishes[i].Satiety = f(6)
	}
	e, err := New(ds, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := e.Solve(Params{Zone: "EU"}, "a", models.MetricSatiety, 8); !errors.Is(err, ErrInverseUnavailable) {
		t.Errorf("expected ErrInverseUnavailable, got %v", err)
	}
}
