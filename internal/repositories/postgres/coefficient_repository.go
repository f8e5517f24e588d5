package postgres

import (
	"context"
	"sort"

	"github.com/chrisdamba/dishrank/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CoefficientRepository struct {
	pool *pgxpool.Pool
}

func NewCoefficientRepository(pool *pgxpool.Pool) *CoefficientRepository {
	return &CoefficientRepository{pool: pool}
}

func (r *CoefficientRepository) BulkCreate(ctx context.Context, coefficients models.CookingCoefficients) error {
	states := make([]string, 0, len(coefficients))
	for state := range coefficients {
		states = append(states, state)
	}
	sort.Strings(states)

	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"cooking_coefficients"},
		[]string{"state", "coefficient"},
		pgx.CopyFromSlice(len(states), func(i int) ([]interface{}, error) {
			return []interface{}{states[i], coefficients[states[i]]}, nil
		}),
	)
	return err
}

func (r *CoefficientRepository) GetAll(ctx context.Context) (models.CookingCoefficients, error) {
	rows, err := r.pool.Query(ctx, "SELECT state, coefficient FROM cooking_coefficients")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	coefficients := make(models.CookingCoefficients)
	for rows.Next() {
		var (
			state string
			value float64
		)
		if err := rows.Scan(&state, &value); err != nil {
			return nil, err
		}
		coefficients[state] = value
	}
	return coefficients, rows.Err()
}

func (r *CoefficientRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, "TRUNCATE TABLE cooking_coefficients")
	return err
}
