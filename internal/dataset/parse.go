package dataset

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/chrisdamba/dishrank/internal/models"
	"github.com/tidwall/gjson"
)

var ErrInvalidFormat = errors.New("invalid dataset format")

// unavailableMarkers are price cells meaning the zone cannot supply the ingredient.
var unavailableMarkers = map[string]bool{
	"unavailable": true,
	"n/a":         true,
	"none":        true,
	"-":           true,
}

// priceCell interprets one price column value. A missing or empty cell is a
// missing price; a marker string makes the ingredient unavailable.
func priceCell(raw string) (price float64, unavailable, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false, false
	}
	if unavailableMarkers[strings.ToLower(raw)] {
		return 0, true, false
	}
	p, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, false
	}
	return p, false, true
}

func addPrice(rec *models.IngredientRecord, zone, raw string) {
	price, unavailable, ok := priceCell(raw)
	switch {
	case unavailable:
		if !rec.UnavailableIn(zone) {
			rec.Unavailable = append(rec.Unavailable, zone)
		}
	case ok:
		if rec.Prices == nil {
			rec.Prices = make(map[string]float64)
		}
		rec.Prices[zone] = price
		rec.Unavailable = slices.DeleteFunc(rec.Unavailable, func(z string) bool { return z == zone })
	}
}

// unwrap returns the array under key when data is an object wrapping it, or
// data itself when it is already an array.
func unwrap(data []byte, key string) (gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("%w: invalid JSON", ErrInvalidFormat)
	}
	root := gjson.ParseBytes(data)
	if root.IsObject() {
		root = root.Get(key)
	}
	if !root.IsArray() {
		return gjson.Result{}, fmt.Errorf("%w: expected a %s array", ErrInvalidFormat, key)
	}
	return root, nil
}

func optionalFloat(v gjson.Result) *float64 {
	if v.Type != gjson.Number {
		return nil
	}
	f := v.Float()
	return &f
}

// ParseIngredientsJSON reads ingredient records. Prices come from a nested
// "prices" object and from flat per-zone columns (price_<zone>), the latter
// taking precedence.
func ParseIngredientsJSON(data []byte, zones []models.EconomicZone) ([]models.IngredientRecord, error) {
	arr, err := unwrap(data, "ingredients")
	if err != nil {
		return nil, err
	}

	var records []models.IngredientRecord
	arr.ForEach(func(_, v gjson.Result) bool {
		rec := models.IngredientRecord{
			Name:         v.Get("name").String(),
			Health:       optionalFloat(v.Get("health")),
			Ethics:       optionalFloat(v.Get("ethics")),
			EthicsReason: v.Get("ethics_reason").String(),
			Yield:        v.Get("yield").Float(),
		}
		v.Get("prices").ForEach(func(zone, price gjson.Result) bool {
			addPrice(&rec, zone.String(), price.String())
			return true
		})
		v.Get("unavailable").ForEach(func(_, zone gjson.Result) bool {
			if !rec.UnavailableIn(zone.String()) {
				rec.Unavailable = append(rec.Unavailable, zone.String())
			}
			return true
		})
		for _, z := range zones {
			cell := v.Get(gjsonEscape(z.Column()))
			if !cell.Exists() || cell.Type == gjson.Null {
				continue
			}
			addPrice(&rec, z.ID, cell.String())
		}
		records = append(records, rec)
		return true
	})
	return records, nil
}

func gjsonEscape(key string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`)
	return r.Replace(key)
}

// ParseIngredientsCSV reads a header-first CSV with columns name, health,
// ethics, ethics_reason, yield and one price column per zone.
func ParseIngredientsCSV(r io.Reader, zones []models.EconomicZone) ([]models.IngredientRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: missing CSV header: %v", ErrInvalidFormat, err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := col["name"]; !ok {
		return nil, fmt.Errorf("%w: CSV has no name column", ErrInvalidFormat)
	}

	cell := func(row []string, key string) string {
		i, ok := col[key]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	float := func(row []string, key string) *float64 {
		f, err := strconv.ParseFloat(cell(row, key), 64)
		if err != nil {
			return nil
		}
		return &f
	}

	var records []models.IngredientRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidFormat, line, err)
		}
		rec := models.IngredientRecord{
			Name:         cell(row, "name"),
			Health:       float(row, "health"),
			Ethics:       float(row, "ethics"),
			EthicsReason: cell(row, "ethics_reason"),
		}
		if y := float(row, "yield"); y != nil {
			rec.Yield = *y
		}
		for _, z := range zones {
			addPrice(&rec, z.ID, cell(row, strings.ToLower(z.Column())))
		}
		records = append(records, rec)
	}
	return records, nil
}

// ParseDishes reads a dish array, optionally wrapped in {"dishes": [...]}.
func ParseDishes(data []byte) ([]models.Dish, error) {
	arr, err := unwrap(data, "dishes")
	if err != nil {
		return nil, err
	}
	var dishes []models.Dish
	if err := json.Unmarshal([]byte(arr.Raw), &dishes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return dishes, nil
}

// ParseZones reads the economic zone enumeration.
func ParseZones(data []byte) ([]models.EconomicZone, error) {
	arr, err := unwrap(data, "zones")
	if err != nil {
		return nil, err
	}
	var zones []models.EconomicZone
	if err := json.Unmarshal([]byte(arr.Raw), &zones); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return zones, nil
}

// ParseCoefficients reads a state to multiplier object. Non-numeric entries
// are skipped.
func ParseCoefficients(data []byte) (models.CookingCoefficients, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrInvalidFormat)
	}
	root := gjson.ParseBytes(data)
	if nested := root.Get("coefficients"); nested.IsObject() {
		root = nested
	}
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: expected a coefficients object", ErrInvalidFormat)
	}
	coeffs := make(models.CookingCoefficients)
	root.ForEach(func(state, v gjson.Result) bool {
		if v.Type == gjson.Number {
			coeffs[strings.ToLower(state.String())] = v.Float()
		}
		return true
	})
	return coeffs, nil
}
