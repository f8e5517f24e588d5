// Package output writes ranked dish lists to files, object storage, Kafka or
// Postgres.
package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/chrisdamba/dishrank/internal/cloudwriter"
	"github.com/chrisdamba/dishrank/internal/engine"
	"github.com/chrisdamba/dishrank/internal/models"
	"go.uber.org/zap"
)

type OutputDestination interface {
	WriteRanking(r Ranking) error
	Close() error
}

// Ranking is one computed ranking ready to be persisted.
type Ranking struct {
	Topic       string
	RunID       string
	GeneratedAt time.Time
	Zone        string
	PriceUnit   models.PriceUnit
	Optimized   bool
	Rows        []RankingRow
}

// RankingRow is the flat record written by every destination.
type RankingRow struct {
	RunID       string   `json:"run_id" parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	GeneratedAt int64    `json:"generated_at" parquet:"name=generated_at, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Zone        string   `json:"zone" parquet:"name=zone, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Currency    string   `json:"currency" parquet:"name=currency, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	PriceUnit   string   `json:"price_unit" parquet:"name=price_unit, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Optimized   bool     `json:"optimized" parquet:"name=optimized, type=BOOLEAN"`
	Rank        int32    `json:"rank" parquet:"name=rank, type=INT32"`
	DishID      string   `json:"dish_id" parquet:"name=dish_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	DishName    string   `json:"dish_name" parquet:"name=dish_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Score       float64  `json:"score" parquet:"name=score, type=DOUBLE"`
	Taste       float64  `json:"taste" parquet:"name=taste, type=DOUBLE"`
	Health      float64  `json:"health" parquet:"name=health, type=DOUBLE"`
	Cheapness   float64  `json:"cheapness" parquet:"name=cheapness, type=DOUBLE"`
	Speed       float64  `json:"speed" parquet:"name=speed, type=DOUBLE"`
	LowCalorie  float64  `json:"low_calorie" parquet:"name=low_calorie, type=DOUBLE"`
	Ethics      float64  `json:"ethics" parquet:"name=ethics, type=DOUBLE"`
	Satiety     float64  `json:"satiety" parquet:"name=satiety, type=DOUBLE"`
	TotalCost   float64  `json:"total_cost" parquet:"name=total_cost, type=DOUBLE"`
	UnitCost    *float64 `json:"unit_cost" parquet:"name=unit_cost, type=DOUBLE, repetitiontype=OPTIONAL"`
	Preparable  bool     `json:"preparable" parquet:"name=preparable, type=BOOLEAN"`
	HasOverride bool     `json:"has_override" parquet:"name=has_override, type=BOOLEAN"`
}

// NewRanking flattens a compute result.
func NewRanking(topic, runID string, at time.Time, res *engine.Result) Ranking {
	r := Ranking{
		Topic:       topic,
		RunID:       runID,
		GeneratedAt: at,
		Zone:        res.Meta.Zone,
		PriceUnit:   res.Meta.PriceUnit,
		Optimized:   res.Meta.Optimized,
		Rows:        make([]RankingRow, len(res.Dishes)),
	}
	for i, d := range res.Dishes {
		r.Rows[i] = RankingRow{
			RunID:       runID,
			GeneratedAt: at.UnixMilli(),
			Zone:        res.Meta.Zone,
			Currency:    res.Meta.Currency,
			PriceUnit:   string(res.Meta.PriceUnit),
			Optimized:   res.Meta.Optimized,
			Rank:        int32(d.Rank),
			DishID:      d.ID,
			DishName:    d.Name,
			Score:       d.Score,
			Taste:       d.Metrics.Taste,
			Health:      d.Metrics.Health,
			Cheapness:   d.Metrics.Cheapness,
			Speed:       d.Metrics.Speed,
			LowCalorie:  d.Metrics.LowCalorie,
			Ethics:      d.Metrics.Ethics,
			Satiety:     d.Metrics.Satiety,
			TotalCost:   d.Raw.TotalCost,
			UnitCost:    d.Raw.UnitCost,
			Preparable:  d.Preparable,
			HasOverride: d.HasOverride,
		}
	}
	return r
}

func mode(optimized bool) string {
	if optimized {
		return "optimized"
	}
	return "standard"
}

// PartitionPath is the hive-style directory of a ranking below its topic.
func (r Ranking) PartitionPath() string {
	return fmt.Sprintf("zone=%s/unit=%s/mode=%s", r.Zone, r.PriceUnit, mode(r.Optimized))
}

// store creates the files of the file-based destinations, either on the
// local disk or as cloud objects.
type store interface {
	Create(relPath string) (io.WriteCloser, error)
	Local() bool
	Path(relPath string) string
}

type localStore struct {
	base string
}

func (s localStore) Path(relPath string) string {
	return filepath.Join(s.base, filepath.FromSlash(relPath))
}
func (s localStore) Local() bool { return true }

func (s localStore) Create(relPath string) (io.WriteCloser, error) {
	full := s.Path(relPath)
	if err := os.MkdirAll(filepath.Dir(full), os.ModePerm); err != nil {
		return nil, err
	}
	return os.Create(full)
}

type cloudStore struct {
	factory cloudwriter.CloudWriterFactory
	bucket  string
	prefix  string
}

func (s cloudStore) Path(relPath string) string { return path.Join(s.prefix, relPath) }
func (s cloudStore) Local() bool                { return false }

func (s cloudStore) Create(relPath string) (io.WriteCloser, error) {
	w, err := s.factory.NewWriter(s.bucket, s.Path(relPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud file writer: %w", err)
	}
	return w, nil
}

func newStore(ctx context.Context, cfg *models.Config) (store, error) {
	switch cfg.Output.Destination {
	case "", "local":
		return localStore{base: filepath.Join(cfg.Output.Path, cfg.Output.Folder)}, nil
	case "s3":
		factory, err := cloudwriter.NewS3WriterFactory(ctx, cfg.S3.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud writer factory: %w", err)
		}
		return cloudStore{factory: factory, bucket: cfg.S3.Bucket, prefix: path.Join(cfg.S3.Prefix, cfg.Output.Folder)}, nil
	}
	return nil, fmt.Errorf("unsupported output destination: %s", cfg.Output.Destination)
}

// New builds the destination named by the output configuration. Kafka, when
// enabled, takes precedence over the file format.
func New(ctx context.Context, cfg *models.Config, logger *zap.Logger) (OutputDestination, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Kafka.Enabled {
		return NewKafkaOutput(cfg.Kafka, logger)
	}

	switch cfg.Output.Format {
	case "", "console":
		return NewConsoleOutput(os.Stdout), nil
	case "postgres":
		return NewPostgresOutput(ctx, cfg.Database.URL)
	}

	st, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	switch cfg.Output.Format {
	case "json":
		return NewJSONOutput(st), nil
	case "csv":
		return NewCSVOutput(st), nil
	case "parquet":
		return NewParquetOutput(st, logger), nil
	}
	return nil, fmt.Errorf("unsupported output format: %s", cfg.Output.Format)
}
