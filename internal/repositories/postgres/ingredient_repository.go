package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chrisdamba/dishrank/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IngredientRepository struct {
	pool *pgxpool.Pool
}

func NewIngredientRepository(pool *pgxpool.Pool) *IngredientRepository {
	return &IngredientRepository{pool: pool}
}

func ingredientValues(rec *models.IngredientRecord) ([]interface{}, error) {
	prices := rec.Prices
	if prices == nil {
		prices = map[string]float64{}
	}
	b, err := json.Marshal(prices)
	if err != nil {
		return nil, fmt.Errorf("ingredient %s: %w", rec.Name, err)
	}
	unavailable := rec.Unavailable
	if unavailable == nil {
		unavailable = []string{}
	}
	return []interface{}{
		rec.Name,
		rec.Health,
		rec.Ethics,
		rec.EthicsReason,
		string(b),
		unavailable,
		rec.Yield,
	}, nil
}

func (r *IngredientRepository) BulkCreate(ctx context.Context, ingredients []*models.IngredientRecord) error {
	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"ingredients"},
		[]string{"name", "health", "ethics", "ethics_reason", "prices", "unavailable", "yield"},
		pgx.CopyFromSlice(len(ingredients), func(i int) ([]interface{}, error) {
			return ingredientValues(ingredients[i])
		}),
	)
	return err
}

func (r *IngredientRepository) Create(ctx context.Context, ingredient *models.IngredientRecord) error {
	query := `
        INSERT INTO ingredients (
            name, health, ethics, ethics_reason, prices, unavailable, yield
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7
        )
    `
	values, err := ingredientValues(ingredient)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, query, values...)
	return err
}

func (r *IngredientRepository) GetAll(ctx context.Context) ([]*models.IngredientRecord, error) {
	query := `
        SELECT name, health, ethics, COALESCE(ethics_reason, ''), prices, unavailable, yield
        FROM ingredients
        ORDER BY name
    `
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.IngredientRecord
	for rows.Next() {
		rec := &models.IngredientRecord{}
		var prices []byte
		err := rows.Scan(
			&rec.Name,
			&rec.Health,
			&rec.Ethics,
			&rec.EthicsReason,
			&prices,
			&rec.Unavailable,
			&rec.Yield,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(prices, &rec.Prices); err != nil {
			return nil, fmt.Errorf("ingredient %s prices: %w", rec.Name, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *IngredientRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM ingredients").Scan(&count)
	return count, err
}

func (r *IngredientRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, "TRUNCATE TABLE ingredients")
	return err
}
