package dataset

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/chrisdamba/dishrank/internal/models"
	"github.com/chrisdamba/dishrank/internal/repositories"
)

var testZones = []models.EconomicZone{
	{ID: "EU", Currency: "EUR"},
	{ID: "US", Currency: "USD"},
	{ID: "JP", Currency: "JPY", PriceColumn: "price_japan"},
}

const ingredientsJSON = `[
  {"name": "Rice", "health": 6, "ethics": 8, "ethics_reason": "low water", "price_eu": 2.5, "price_us": "3.1", "price_japan": "unavailable"},
  {"name": "Saffron", "health": 7, "prices": {"EU": 900}, "unavailable": ["US"], "yield": 0.9},
  {"name": "Mystery", "price_eu": null, "price_us": "call us"}
]`

func TestParseIngredientsJSON(t *testing.T) {
	records, err := ParseIngredientsJSON([]byte(ingredientsJSON), testZones)
	if err != nil {
		t.Fatalf("ParseIngredientsJSON: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records", len(records))
	}

	rice := records[0]
	if !reflect.DeepEqual(rice.Prices, map[string]float64{"EU": 2.5, "US": 3.1}) {
		t.Errorf("rice prices = %v", rice.Prices)
	}
	if !rice.UnavailableIn("JP") || rice.EthicsReason != "low water" || *rice.Health != 6 {
		t.Errorf("rice = %+v", rice)
	}

	saffron := records[1]
	if saffron.Prices["EU"] != 900 || !saffron.UnavailableIn("US") || saffron.Yield != 0.9 || saffron.Ethics != nil {
		t.Errorf("saffron = %+v", saffron)
	}

	mystery := records[2]
	if len(mystery.Prices) != 0 || len(mystery.Unavailable) != 0 || mystery.Health != nil {
		t.Errorf("mystery = %+v", mystery)
	}
}

func TestParseIngredientsJSONFlatColumnOverridesMarker(t *testing.T) {
	data := `[
  {"name": "Beef", "prices": {"EU": 20, "US": "n/a"}, "price_us": 24},
  {"name": "Tuna", "unavailable": ["EU"], "price_eu": "15.5"}
]`
	records, err := ParseIngredientsJSON([]byte(data), testZones)
	if err != nil {
		t.Fatalf("ParseIngredientsJSON: %v", err)
	}

	beef := records[0]
	if beef.UnavailableIn("US") {
		t.Errorf("flat price column must clear the unavailable marker, got %v", beef.Unavailable)
	}
	if p, ok := beef.PriceIn("US"); !ok || p != 24 {
		t.Errorf("beef US price = %v, %v", p, ok)
	}

	tuna := records[1]
	if tuna.UnavailableIn("EU") || tuna.Prices["EU"] != 15.5 {
		t.Errorf("tuna = %+v", tuna)
	}
}

func TestParseIngredientsJSONWrapped(t *testing.T) {
	records, err := ParseIngredientsJSON([]byte(`{"ingredients": [{"name": "Salt", "price_eu": 1}]}`), testZones)
	if err != nil {
		t.Fatalf("ParseIngredientsJSON: %v", err)
	}
	if len(records) != 1 || records[0].Prices["EU"] != 1 {
		t.Errorf("records = %+v", records)
	}

	if _, err := ParseIngredientsJSON([]byte(`{"ingredients": 3}`), testZones); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
	if _, err := ParseIngredientsJSON([]byte(`[{`), testZones); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestParseIngredientsCSV(t *testing.T) {
	csv := "Name,Health,Ethics,Ethics_Reason,Yield,price_eu,price_us,PRICE_JAPAN\n" +
		"Rice,6,8,low water,,2.5,3.1,n/a\n" +
		"Beef,5,,,0.8,20,,\n" +
		"Short row,4\n"

	records, err := ParseIngredientsCSV(strings.NewReader(csv), testZones)
	if err != nil {
		t.Fatalf("ParseIngredientsCSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records", len(records))
	}
	if records[0].Prices["US"] != 3.1 || !records[0].UnavailableIn("JP") || records[0].EthicsReason != "low water" {
		t.Errorf("rice = %+v", records[0])
	}
	if records[1].Ethics != nil || records[1].Yield != 0.8 || len(records[1].Prices) != 1 {
		t.Errorf("beef = %+v", records[1])
	}
	if records[2].Health == nil || *records[2].Health != 4 || len(records[2].Prices) != 0 {
		t.Errorf("short row = %+v", records[2])
	}

	if _, err := ParseIngredientsCSV(strings.NewReader("health,ethics\n1,2\n"), testZones); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat without name column, got %v", err)
	}
}

func TestParseCoefficients(t *testing.T) {
	coeffs, err := ParseCoefficients([]byte(`{"Raw": 1, "fried": 0.7, "note": "x"}`))
	if err != nil {
		t.Fatalf("ParseCoefficients: %v", err)
	}
	if !reflect.DeepEqual(coeffs, models.CookingCoefficients{"raw": 1, "fried": 0.7}) {
		t.Errorf("coefficients = %v", coeffs)
	}
	if coeffs.For("Fried") != 0.7 {
		t.Error("state lookup should be case-insensitive")
	}

	wrapped, err := ParseCoefficients([]byte(`{"coefficients": {"boiled": 0.9}}`))
	if err != nil || wrapped["boiled"] != 0.9 {
		t.Errorf("wrapped = %v, %v", wrapped, err)
	}
}

func writeDataset(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func datasetFiles() map[string]string {
	return map[string]string{
		"zones.json":        `[{"id": "EU", "name": "Europe", "currency": "EUR"}, {"id": "US", "name": "USA", "currency": "USD"}]`,
		"coefficients.json": `{"raw": 1, "fried": 0.6}`,
		"ingredients.json":  ingredientsJSON,
		"dishes.json": `{"dishes": [
			{"id": "d1", "name": "Rice", "ingredients": [{"name": "rice", "grams": 150}], "prep_minutes": 2, "cook_minutes": 18, "taste": 5, "calories": 200, "serving_grams": 150}
		]}`,
	}
}

func TestLoadFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, datasetFiles())

	ds, err := Load(context.Background(), FileSource{Dir: dir}, DefaultPaths())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Zones) != 2 || len(ds.Ingredients) != 3 || len(ds.Dishes) != 1 || ds.Coefficients["fried"] != 0.6 {
		t.Errorf("unexpected dataset %+v", ds)
	}
	if ds.Dishes[0].Ingredients[0].Grams != 150 {
		t.Errorf("dish = %+v", ds.Dishes[0])
	}
}

func TestLoadCSVIngredients(t *testing.T) {
	dir := t.TempDir()
	files := datasetFiles()
	delete(files, "ingredients.json")
	files["ingredients.csv"] = "name,health,price_eu\nRice,6,2\n"
	writeDataset(t, dir, files)

	paths := DefaultPaths()
	paths.Ingredients = "ingredients.csv"
	ds, err := Load(context.Background(), FileSource{Dir: dir}, paths)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Ingredients) != 1 || ds.Ingredients[0].Prices["EU"] != 2 {
		t.Errorf("ingredients = %+v", ds.Ingredients)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	files := datasetFiles()
	delete(files, "dishes.json")
	writeDataset(t, dir, files)

	_, err := Load(context.Background(), FileSource{Dir: dir}, DefaultPaths())
	if err == nil || !strings.Contains(err.Error(), "dishes") {
		t.Errorf("expected dishes load error, got %v", err)
	}
}

type mockS3Client struct {
	objects map[string]string
	keys    []string
}

func (m *mockS3Client) GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := *input.Key
	m.keys = append(m.keys, *input.Bucket+"/"+key)
	body, ok := m.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte(body)))}, nil
}

func TestLoadFromS3(t *testing.T) {
	objects := make(map[string]string)
	for name, content := range datasetFiles() {
		objects["datasets/v1/"+name] = content
	}
	client := &mockS3Client{objects: objects}

	ds, err := Load(context.Background(), NewS3Source(client, "food", "datasets/v1"), DefaultPaths())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Dishes) != 1 {
		t.Errorf("dishes = %d", len(ds.Dishes))
	}
	if len(client.keys) != 4 || client.keys[0] != "food/datasets/v1/zones.json" {
		t.Errorf("fetched keys = %v", client.keys)
	}

	_, err = Load(context.Background(), NewS3Source(client, "food", "missing"), DefaultPaths())
	if err == nil || !strings.Contains(err.Error(), "s3://food/missing/zones.json") {
		t.Errorf("expected s3 fetch error, got %v", err)
	}
}

type fakeRepos struct {
	dishes      []*models.Dish
	ingredients []*models.IngredientRecord
	zones       []*models.EconomicZone
	coeffs      models.CookingCoefficients
}

type fakeDishRepo struct{ *fakeRepos }

func (f fakeDishRepo) BulkCreate(_ context.Context, d []*models.Dish) error {
	f.dishes = append(f.dishes, d...)
	return nil
}
func (f fakeDishRepo) Create(_ context.Context, d *models.Dish) error {
	f.dishes = append(f.dishes, d)
	return nil
}
func (f fakeDishRepo) GetAll(context.Context) ([]*models.Dish, error) { return f.dishes, nil }
func (f fakeDishRepo) Count(context.Context) (int, error)             { return len(f.dishes), nil }
func (f fakeDishRepo) DeleteAll(context.Context) error                { f.dishes = nil; return nil }

type fakeIngredientRepo struct{ *fakeRepos }

func (f fakeIngredientRepo) BulkCreate(_ context.Context, r []*models.IngredientRecord) error {
	f.ingredients = append(f.ingredients, r...)
	return nil
}
func (f fakeIngredientRepo) Create(_ context.Context, r *models.IngredientRecord) error {
	f.ingredients = append(f.ingredients, r)
	return nil
}
func (f fakeIngredientRepo) GetAll(context.Context) ([]*models.IngredientRecord, error) {
	return f.ingredients, nil
}
func (f fakeIngredientRepo) Count(context.Context) (int, error) { return len(f.ingredients), nil }
func (f fakeIngredientRepo) DeleteAll(context.Context) error    { f.ingredients = nil; return nil }

type fakeZoneRepo struct{ *fakeRepos }

func (f fakeZoneRepo) BulkCreate(_ context.Context, z []*models.EconomicZone) error {
	f.zones = append(f.zones, z...)
	return nil
}
func (f fakeZoneRepo) GetAll(context.Context) ([]*models.EconomicZone, error) { return f.zones, nil }
func (f fakeZoneRepo) Count(context.Context) (int, error)                     { return len(f.zones), nil }
func (f fakeZoneRepo) DeleteAll(context.Context) error                        { f.zones = nil; return nil }

type fakeCoefficientRepo struct{ *fakeRepos }

func (f fakeCoefficientRepo) BulkCreate(_ context.Context, c models.CookingCoefficients) error {
	f.coeffs = c
	return nil
}
func (f fakeCoefficientRepo) GetAll(context.Context) (models.CookingCoefficients, error) {
	return f.coeffs, nil
}
func (f fakeCoefficientRepo) DeleteAll(context.Context) error { f.coeffs = nil; return nil }

func newFakeSet() repositories.Set {
	state := &fakeRepos{}
	return repositories.Set{
		Dishes:       fakeDishRepo{state},
		Ingredients:  fakeIngredientRepo{state},
		Zones:        fakeZoneRepo{state},
		Coefficients: fakeCoefficientRepo{state},
	}
}

func TestLoadFromRepositories(t *testing.T) {
	ctx := context.Background()
	repos := newFakeSet()

	_ = repos.Zones.BulkCreate(ctx, []*models.EconomicZone{{ID: "EU"}})
	_ = repos.Coefficients.BulkCreate(ctx, models.CookingCoefficients{"raw": 1})
	_ = repos.Ingredients.BulkCreate(ctx, []*models.IngredientRecord{{Name: "rice"}})
	_ = repos.Dishes.BulkCreate(ctx, []*models.Dish{{ID: "a"}, {ID: "b"}})

	ds, err := LoadFromRepositories(ctx, repos)
	if err != nil {
		t.Fatalf("LoadFromRepositories: %v", err)
	}
	if len(ds.Dishes) != 2 || ds.Dishes[1].ID != "b" || len(ds.Zones) != 1 || len(ds.Ingredients) != 1 {
		t.Errorf("unexpected dataset %+v", ds)
	}
}

func TestLoaderLocation(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, datasetFiles())

	l := NewLoader(&models.Config{}, nil, nil)
	ds, err := l.LoadLocation(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	if len(ds.Dishes) != 1 {
		t.Errorf("dishes = %d", len(ds.Dishes))
	}

	cfg := &models.Config{Dataset: models.DatasetConfig{Source: "postgres"}}
	if _, err := NewLoader(cfg, nil, nil).LoadConfigured(context.Background()); err == nil {
		t.Error("postgres source without repositories should fail")
	}
	cfg.Dataset.Source = "ftp"
	if _, err := NewLoader(cfg, nil, nil).LoadConfigured(context.Background()); err == nil {
		t.Error("unknown source should fail")
	}
}
