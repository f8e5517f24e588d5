package repositories

import (
	"context"

	"github.com/chrisdamba/dishrank/internal/models"
)

type DishRepository interface {
	BulkCreate(ctx context.Context, dishes []*models.Dish) error
	Create(ctx context.Context, dish *models.Dish) error
	GetAll(ctx context.Context) ([]*models.Dish, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

type IngredientRepository interface {
	BulkCreate(ctx context.Context, ingredients []*models.IngredientRecord) error
	Create(ctx context.Context, ingredient *models.IngredientRecord) error
	GetAll(ctx context.Context) ([]*models.IngredientRecord, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

type ZoneRepository interface {
	BulkCreate(ctx context.Context, zones []*models.EconomicZone) error
	GetAll(ctx context.Context) ([]*models.EconomicZone, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

type CoefficientRepository interface {
	BulkCreate(ctx context.Context, coefficients models.CookingCoefficients) error
	GetAll(ctx context.Context) (models.CookingCoefficients, error)
	DeleteAll(ctx context.Context) error
}

// Set groups the repositories backing one dataset.
type Set struct {
	Dishes       DishRepository
	Ingredients  IngredientRepository
	Zones        ZoneRepository
	Coefficients CoefficientRepository
}
