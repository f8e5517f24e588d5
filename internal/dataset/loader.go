// Package dataset loads the dish, ingredient, coefficient and zone inputs
// from files, S3 or Postgres.
package dataset

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chrisdamba/dishrank/internal/models"
	"github.com/chrisdamba/dishrank/internal/repositories"
	"go.uber.org/zap"
)

// Paths names the four dataset files within a Source.
type Paths struct {
	Dishes       string
	Ingredients  string
	Coefficients string
	Zones        string
}

func PathsFromConfig(cfg models.DatasetConfig) Paths {
	return Paths{
		Dishes:       cfg.DishesPath,
		Ingredients:  cfg.IngredientsPath,
		Coefficients: cfg.CoefficientsPath,
		Zones:        cfg.ZonesPath,
	}
}

// DefaultPaths are the file names inside a dataset directory or prefix.
func DefaultPaths() Paths {
	return Paths{
		Dishes:       "dishes.json",
		Ingredients:  "ingredients.json",
		Coefficients: "coefficients.json",
		Zones:        "zones.json",
	}
}

// Load reads the dataset from src. Zones load first because they name the
// ingredient price columns. The coefficients file is optional.
func Load(ctx context.Context, src Source, paths Paths) (*models.Dataset, error) {
	ds := &models.Dataset{}

	data, err := readAll(ctx, src, paths.Zones)
	if err != nil {
		return nil, fmt.Errorf("failed to load zones: %w", err)
	}
	if ds.Zones, err = ParseZones(data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", paths.Zones, err)
	}

	if paths.Coefficients != "" {
		data, err = readAll(ctx, src, paths.Coefficients)
		if err != nil {
			return nil, fmt.Errorf("failed to load coefficients: %w", err)
		}
		if ds.Coefficients, err = ParseCoefficients(data); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", paths.Coefficients, err)
		}
	}

	data, err = readAll(ctx, src, paths.Ingredients)
	if err != nil {
		return nil, fmt.Errorf("failed to load ingredients: %w", err)
	}
	if strings.EqualFold(filepath.Ext(paths.Ingredients), ".csv") {
		ds.Ingredients, err = ParseIngredientsCSV(bytes.NewReader(data), ds.Zones)
	} else {
		ds.Ingredients, err = ParseIngredientsJSON(data, ds.Zones)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", paths.Ingredients, err)
	}

	data, err = readAll(ctx, src, paths.Dishes)
	if err != nil {
		return nil, fmt.Errorf("failed to load dishes: %w", err)
	}
	if ds.Dishes, err = ParseDishes(data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", paths.Dishes, err)
	}

	return ds, nil
}

// LoadFromRepositories reads the dataset from the database.
func LoadFromRepositories(ctx context.Context, repos repositories.Set) (*models.Dataset, error) {
	zones, err := repos.Zones.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load zones: %w", err)
	}
	coeffs, err := repos.Coefficients.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load coefficients: %w", err)
	}
	ingredients, err := repos.Ingredients.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ingredients: %w", err)
	}
	dishes, err := repos.Dishes.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dishes: %w", err)
	}

	ds := &models.Dataset{
		Coefficients: coeffs,
		Zones:        make([]models.EconomicZone, len(zones)),
		Ingredients:  make([]models.IngredientRecord, len(ingredients)),
		Dishes:       make([]models.Dish, len(dishes)),
	}
	for i, z := range zones {
		ds.Zones[i] = *z
	}
	for i, rec := range ingredients {
		ds.Ingredients[i] = *rec
	}
	for i, d := range dishes {
		ds.Dishes[i] = *d
	}
	return ds, nil
}

// Loader resolves dataset locations for the configured backend.
type Loader struct {
	cfg    *models.Config
	repos  *repositories.Set
	logger *zap.Logger
}

func NewLoader(cfg *models.Config, repos *repositories.Set, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{cfg: cfg, repos: repos, logger: logger}
}

// LoadConfigured loads the dataset named by the configuration.
func (l *Loader) LoadConfigured(ctx context.Context) (*models.Dataset, error) {
	switch l.cfg.Dataset.Source {
	case "", "file":
		return l.load(ctx, FileSource{}, PathsFromConfig(l.cfg.Dataset), "file")
	case "s3":
		src, err := NewS3SourceFromRegion(ctx, l.cfg.S3.Region, l.cfg.S3.Bucket, l.cfg.S3.Prefix)
		if err != nil {
			return nil, err
		}
		return l.load(ctx, src, PathsFromConfig(l.cfg.Dataset), "s3")
	case "postgres":
		if l.repos == nil {
			return nil, fmt.Errorf("dataset source postgres needs a database connection")
		}
		ds, err := LoadFromRepositories(ctx, *l.repos)
		if err == nil {
			l.logLoaded(ds, "postgres")
		}
		return ds, err
	}
	return nil, fmt.Errorf("unknown dataset source %q", l.cfg.Dataset.Source)
}

// LoadLocation loads a dataset from a directory or an s3://bucket/prefix URL
// holding the default file names.
func (l *Loader) LoadLocation(ctx context.Context, location string) (*models.Dataset, error) {
	if rest, ok := strings.CutPrefix(location, "s3://"); ok {
		bucket, prefix, _ := strings.Cut(rest, "/")
		src, err := NewS3SourceFromRegion(ctx, l.cfg.S3.Region, bucket, prefix)
		if err != nil {
			return nil, err
		}
		return l.load(ctx, src, DefaultPaths(), "s3")
	}
	return l.load(ctx, FileSource{Dir: location}, DefaultPaths(), "file")
}

func (l *Loader) load(ctx context.Context, src Source, paths Paths, kind string) (*models.Dataset, error) {
	ds, err := Load(ctx, src, paths)
	if err != nil {
		return nil, err
	}
	l.logLoaded(ds, kind)
	return ds, nil
}

func (l *Loader) logLoaded(ds *models.Dataset, kind string) {
	l.logger.Info("dataset loaded",
		zap.String("source", kind),
		zap.Int("dishes", len(ds.Dishes)),
		zap.Int("ingredients", len(ds.Ingredients)),
		zap.Int("zones", len(ds.Zones)),
		zap.Int("coefficients", len(ds.Coefficients)),
	)
}
