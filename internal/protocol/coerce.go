package protocol

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chrisdamba/dishrank/internal/engine"
	"github.com/chrisdamba/dishrank/internal/models"
	"github.com/mitchellh/mapstructure"
)

// number coerces the numeric shapes produced by the JSON and CBOR decoders,
// plus numeric strings.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedRequest, fmt.Sprintf(format, args...))
}

func optionalString(payload map[string]any, key string) (string, error) {
	v, ok := payload[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", malformed("%s must be a string", key)
	}
	return s, nil
}

func requiredString(payload map[string]any, key string) (string, error) {
	s, err := optionalString(payload, key)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", malformed("%s is required", key)
	}
	return s, nil
}

// parseOverrides keeps numeric fields and drops everything else. Non-finite
// values are left for the engine's sanitizer to drop.
func parseOverrides(v any) (engine.OverrideSet, error) {
	if v == nil {
		return nil, nil
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, malformed("overrides must be an object")
	}
	set := make(engine.OverrideSet, len(raw))
	for dishID, entry := range raw {
		fields, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		ov := make(engine.Override, len(fields))
		for k, fv := range fields {
			if n, ok := number(fv); ok {
				ov[k] = n
			}
		}
		if len(ov) > 0 {
			set[dishID] = ov
		}
	}
	return set, nil
}

func parsePriorities(v any) (models.Priorities, error) {
	var p models.Priorities
	if v == nil {
		return p, nil
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return p, malformed("priorities must be an object")
	}
	for k, fv := range raw {
		n, ok := number(fv)
		if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
			continue
		}
		p.Set(k, n)
	}
	return p.Clamped(), nil
}

// ParseCompute validates a compute payload.
func ParseCompute(payload map[string]any) (engine.Params, error) {
	var (
		p   engine.Params
		err error
	)
	if payload == nil {
		return p, malformed("missing payload")
	}
	if p.Zone, err = requiredString(payload, "selectedZone"); err != nil {
		return p, err
	}
	if p.Overrides, err = parseOverrides(payload["overrides"]); err != nil {
		return p, err
	}
	if v, ok := payload["isOptimized"]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return p, malformed("isOptimized must be a boolean")
		}
		p.Optimized = b
	}
	unit, err := optionalString(payload, "priceUnit")
	if err != nil {
		return p, err
	}
	if unit != "" {
		p.PriceUnit = models.PriceUnit(unit)
		if _, err := p.PriceUnit.Index(); err != nil {
			return p, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
		}
	}
	if p.Priorities, err = parsePriorities(payload["priorities"]); err != nil {
		return p, err
	}
	if p.TasteMethod, err = optionalString(payload, "tasteScoreMethod"); err != nil {
		return p, err
	}
	return p, nil
}

// ParseSolve validates a solve payload: the compute fields plus the dish,
// metric and target score.
func ParseSolve(payload map[string]any) (SolveRequest, error) {
	var (
		req SolveRequest
		err error
	)
	if req.Params, err = ParseCompute(payload); err != nil {
		return req, err
	}
	if req.DishID, err = requiredString(payload, "dishId"); err != nil {
		return req, err
	}
	if req.Metric, err = requiredString(payload, "metric"); err != nil {
		return req, err
	}
	target, ok := number(payload["target"])
	if !ok || math.IsNaN(target) || math.IsInf(target, 0) {
		return req, malformed("target must be a finite number")
	}
	req.Target = target
	return req, nil
}

// ParseInit validates an init payload. The dataset is either inline
// (dishes, ingredients, coefficients, zones) or referenced by location.
func ParseInit(payload map[string]any) (InitRequest, error) {
	var req InitRequest
	if payload == nil {
		return req, malformed("missing payload")
	}
	loc, err := optionalString(payload, "location")
	if err != nil {
		return req, err
	}
	if loc != "" {
		req.Location = loc
		return req, nil
	}
	if _, ok := payload["dishes"]; !ok {
		return req, malformed("init needs a location or inline dishes")
	}

	var ds models.Dataset
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &ds,
	})
	if err != nil {
		return req, err
	}
	if err := dec.Decode(payload); err != nil {
		return req, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	req.Dataset = &ds
	return req, nil
}
