package output

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const rankingsTable = `
CREATE TABLE IF NOT EXISTS dish_rankings (
    run_id       TEXT NOT NULL,
    generated_at TIMESTAMPTZ NOT NULL,
    zone         TEXT NOT NULL,
    currency     TEXT,
    price_unit   TEXT NOT NULL,
    optimized    BOOLEAN NOT NULL,
    rank         INTEGER NOT NULL,
    dish_id      TEXT NOT NULL,
    dish_name    TEXT,
    score        DOUBLE PRECISION NOT NULL,
    taste        DOUBLE PRECISION,
    health       DOUBLE PRECISION,
    cheapness    DOUBLE PRECISION,
    speed        DOUBLE PRECISION,
    low_calorie  DOUBLE PRECISION,
    ethics       DOUBLE PRECISION,
    satiety      DOUBLE PRECISION,
    total_cost   DOUBLE PRECISION,
    unit_cost    DOUBLE PRECISION,
    preparable   BOOLEAN,
    has_override BOOLEAN,
    PRIMARY KEY (run_id, zone, price_unit, optimized, dish_id)
)`

var rankingColumns = []string{
	"run_id", "generated_at", "zone", "currency", "price_unit", "optimized",
	"rank", "dish_id", "dish_name", "score",
	"taste", "health", "cheapness", "speed", "low_calorie", "ethics", "satiety",
	"total_cost", "unit_cost", "preparable", "has_override",
}

// PostgresOutput bulk loads rankings with COPY.
type PostgresOutput struct {
	db  *sql.DB
	ctx context.Context
}

func NewPostgresOutput(ctx context.Context, url string) (*PostgresOutput, error) {
	if url == "" {
		return nil, errors.New("postgres output needs database.url")
	}
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	if _, err := db.ExecContext(ctx, rankingsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create dish_rankings: %w", err)
	}
	return &PostgresOutput{db: db, ctx: ctx}, nil
}

func nullableFloat64(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func rankingValues(row RankingRow) []any {
	return []any{
		row.RunID,
		time.UnixMilli(row.GeneratedAt).UTC(),
		row.Zone,
		row.Currency,
		row.PriceUnit,
		row.Optimized,
		row.Rank,
		row.DishID,
		row.DishName,
		row.Score,
		row.Taste,
		row.Health,
		row.Cheapness,
		row.Speed,
		row.LowCalorie,
		row.Ethics,
		row.Satiety,
		row.TotalCost,
		nullableFloat64(row.UnitCost),
		row.Preparable,
		row.HasOverride,
	}
}

func (p *PostgresOutput) WriteRanking(r Ranking) error {
	return p.ExecTxWithRetry(func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(p.ctx, pq.CopyIn("dish_rankings", rankingColumns...))
		if err != nil {
			return err
		}
		for _, row := range r.Rows {
			if _, err := stmt.ExecContext(p.ctx, rankingValues(row)...); err != nil {
				stmt.Close()
				return err
			}
		}
		if _, err := stmt.ExecContext(p.ctx); err != nil {
			stmt.Close()
			return err
		}
		return stmt.Close()
	}, 3)
}

func (p *PostgresOutput) ExecTx(fn func(*sql.Tx) error) error {
	tx, err := p.db.BeginTx(p.ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx failed: %v, rollback failed: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (p *PostgresOutput) ExecTxWithRetry(fn func(*sql.Tx) error, maxRetries int) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		if err = p.ExecTx(fn); err == nil {
			return nil
		}
		if !isRetryableError(err) {
			return err
		}
		time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
	}
	return fmt.Errorf("failed after %d retries: %w", maxRetries, err)
}

func (p *PostgresOutput) Close() error {
	return p.db.Close()
}

func isRetryableError(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code {
	case "40001", // serialization_failure
		"40P01", // deadlock_detected
		"55P03": // lock_not_available
		return true
	}
	return false
}
