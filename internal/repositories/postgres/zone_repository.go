package postgres

import (
	"context"

	"github.com/chrisdamba/dishrank/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ZoneRepository struct {
	pool *pgxpool.Pool
}

func NewZoneRepository(pool *pgxpool.Pool) *ZoneRepository {
	return &ZoneRepository{pool: pool}
}

// BulkCreate upserts zones in one transaction; the set is small and fixed.
func (r *ZoneRepository) BulkCreate(ctx context.Context, zones []*models.EconomicZone) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	stmt := `
        INSERT INTO economic_zones (id, name, currency, symbol, region, price_column)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            currency = EXCLUDED.currency,
            symbol = EXCLUDED.symbol,
            region = EXCLUDED.region,
            price_column = EXCLUDED.price_column`

	for _, zone := range zones {
		_, err = tx.Exec(ctx, stmt,
			zone.ID,
			zone.Name,
			zone.Currency,
			zone.Symbol,
			zone.Region,
			zone.PriceColumn,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *ZoneRepository) GetAll(ctx context.Context) ([]*models.EconomicZone, error) {
	query := `
        SELECT id, name, currency, COALESCE(symbol, ''), COALESCE(region, ''), COALESCE(price_column, '')
        FROM economic_zones
        ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []*models.EconomicZone
	for rows.Next() {
		zone := &models.EconomicZone{}
		err := rows.Scan(
			&zone.ID,
			&zone.Name,
			&zone.Currency,
			&zone.Symbol,
			&zone.Region,
			&zone.PriceColumn,
		)
		if err != nil {
			return nil, err
		}
		zones = append(zones, zone)
	}
	return zones, rows.Err()
}

func (r *ZoneRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM economic_zones").Scan(&count)
	return count, err
}

func (r *ZoneRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, "TRUNCATE TABLE economic_zones")
	return err
}
