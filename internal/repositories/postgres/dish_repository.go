package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chrisdamba/dishrank/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var dishColumns = []string{
	"id", "name", "ingredients", "prep_minutes", "cook_minutes",
	"prep_minutes_optimized", "cook_minutes_optimized", "passive_hours",
	"taste", "taste_scores", "health", "ethics", "satiety",
	"calories", "serving_grams",
}

type DishRepository struct {
	pool *pgxpool.Pool
}

func NewDishRepository(pool *pgxpool.Pool) *DishRepository {
	return &DishRepository{pool: pool}
}

// dishValues flattens a dish into column order. Ingredient lines and taste
// scores are stored as JSONB text.
func dishValues(d *models.Dish) ([]interface{}, error) {
	lines, err := json.Marshal(d.Ingredients)
	if err != nil {
		return nil, fmt.Errorf("dish %s: %w", d.ID, err)
	}
	var scores *string
	if len(d.TasteScores) > 0 {
		b, err := json.Marshal(d.TasteScores)
		if err != nil {
			return nil, fmt.Errorf("dish %s: %w", d.ID, err)
		}
		s := string(b)
		scores = &s
	}
	return []interface{}{
		d.ID,
		d.Name,
		string(lines),
		d.PrepMinutes,
		d.CookMinutes,
		d.PrepMinutesOptimized,
		d.CookMinutesOptimized,
		d.PassiveHours,
		d.Taste,
		scores,
		d.Health,
		d.Ethics,
		d.Satiety,
		d.Calories,
		d.ServingGrams,
	}, nil
}

func (r *DishRepository) BulkCreate(ctx context.Context, dishes []*models.Dish) error {
	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"dishes"},
		dishColumns,
		pgx.CopyFromSlice(len(dishes), func(i int) ([]interface{}, error) {
			return dishValues(dishes[i])
		}),
	)
	return err
}

func (r *DishRepository) Create(ctx context.Context, dish *models.Dish) error {
	query := `
        INSERT INTO dishes (
            id, name, ingredients, prep_minutes, cook_minutes,
            prep_minutes_optimized, cook_minutes_optimized, passive_hours,
            taste, taste_scores, health, ethics, satiety, calories, serving_grams
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
        )
    `
	values, err := dishValues(dish)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, query, values...)
	return err
}

// GetAll returns the dishes in insertion order, which is the ranking's
// tie-break order.
func (r *DishRepository) GetAll(ctx context.Context) ([]*models.Dish, error) {
	query := `
        SELECT
            id, name, ingredients, prep_minutes, cook_minutes,
            prep_minutes_optimized, cook_minutes_optimized, passive_hours,
            taste, taste_scores, health, ethics, satiety, calories, serving_grams
        FROM dishes
        ORDER BY position
    `
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dishes []*models.Dish
	for rows.Next() {
		dish := &models.Dish{}
		var lines, scores []byte
		err := rows.Scan(
			&dish.ID,
			&dish.Name,
			&lines,
			&dish.PrepMinutes,
			&dish.CookMinutes,
			&dish.PrepMinutesOptimized,
			&dish.CookMinutesOptimized,
			&dish.PassiveHours,
			&dish.Taste,
			&scores,
			&dish.Health,
			&dish.Ethics,
			&dish.Satiety,
			&dish.Calories,
			&dish.ServingGrams,
		)
		if err != nil {
			return nil, err
		}
		if err := decodeDishJSON(dish, lines, scores); err != nil {
			return nil, err
		}
		dishes = append(dishes, dish)
	}
	return dishes, rows.Err()
}

func decodeDishJSON(dish *models.Dish, lines, scores []byte) error {
	if err := json.Unmarshal(lines, &dish.Ingredients); err != nil {
		return fmt.Errorf("dish %s ingredients: %w", dish.ID, err)
	}
	if len(scores) > 0 {
		if err := json.Unmarshal(scores, &dish.TasteScores); err != nil {
			return fmt.Errorf("dish %s taste scores: %w", dish.ID, err)
		}
	}
	return nil
}

func (r *DishRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM dishes").Scan(&count)
	return count, err
}

func (r *DishRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, "TRUNCATE TABLE dishes RESTART IDENTITY")
	return err
}
