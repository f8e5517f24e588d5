package postgres

import (
	"context"
	"fmt"

	"github.com/chrisdamba/dishrank/internal/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS economic_zones (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    currency     TEXT NOT NULL,
    symbol       TEXT,
    region       TEXT,
    price_column TEXT
);

CREATE TABLE IF NOT EXISTS ingredients (
    name          TEXT PRIMARY KEY,
    health        DOUBLE PRECISION,
    ethics        DOUBLE PRECISION,
    ethics_reason TEXT,
    prices        JSONB NOT NULL DEFAULT '{}',
    unavailable   TEXT[] NOT NULL DEFAULT '{}',
    yield         DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS dishes (
    id                     TEXT PRIMARY KEY,
    position               SERIAL,
    name                   TEXT NOT NULL,
    ingredients            JSONB NOT NULL,
    prep_minutes           DOUBLE PRECISION NOT NULL,
    cook_minutes           DOUBLE PRECISION NOT NULL,
    prep_minutes_optimized DOUBLE PRECISION,
    cook_minutes_optimized DOUBLE PRECISION,
    passive_hours          DOUBLE PRECISION NOT NULL DEFAULT 0,
    taste                  DOUBLE PRECISION NOT NULL,
    taste_scores           JSONB,
    health                 DOUBLE PRECISION,
    ethics                 DOUBLE PRECISION,
    satiety                DOUBLE PRECISION,
    calories               DOUBLE PRECISION NOT NULL,
    serving_grams          DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS cooking_coefficients (
    state       TEXT PRIMARY KEY,
    coefficient DOUBLE PRECISION NOT NULL
);
`

// EnsureSchema creates the dataset tables when they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// NewRepositorySet wires the pgx repositories for one pool.
func NewRepositorySet(pool *pgxpool.Pool) repositories.Set {
	return repositories.Set{
		Dishes:       NewDishRepository(pool),
		Ingredients:  NewIngredientRepository(pool),
		Zones:        NewZoneRepository(pool),
		Coefficients: NewCoefficientRepository(pool),
	}
}
