package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/chrisdamba/dishrank/internal/engine"
	"github.com/chrisdamba/dishrank/internal/models"
	"github.com/chrisdamba/dishrank/internal/output"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank the dataset for one or all zones and write the rankings to the configured output",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()
		ctx := cmd.Context()

		loader, cleanup, err := newLoader(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()
		data, err := loader.LoadConfigured(ctx)
		if err != nil {
			return err
		}
		eng, err := engine.New(data, engineOptions(cfg, logger))
		if err != nil {
			return err
		}

		jobs, err := rankJobs(cmd, eng)
		if err != nil {
			return err
		}

		dest, err := output.New(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}

		runID := uuid.New().String()
		topic, _ := cmd.Flags().GetString("topic")
		bar := progressbar.NewOptions(len(jobs),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("ranking"),
			progressbar.OptionShowCount(),
		)

		for _, p := range jobs {
			res, err := eng.Compute(p)
			if err != nil {
				dest.Close()
				return fmt.Errorf("failed to rank zone %s: %w", p.Zone, err)
			}
			if err := dest.WriteRanking(output.NewRanking(topic, runID, time.Now(), res)); err != nil {
				dest.Close()
				return fmt.Errorf("failed to write ranking: %w", err)
			}
			_ = bar.Add(1)
		}
		_ = bar.Finish()

		if err := dest.Close(); err != nil {
			return fmt.Errorf("failed to close output: %w", err)
		}
		size, hits, misses := eng.CacheStats()
		logger.Info("rankings written",
			zap.String("run_id", runID),
			zap.Int("rankings", len(jobs)),
			zap.Int("cached_variants", size),
			zap.Int("cache_hits", hits),
			zap.Int("cache_misses", misses),
		)
		return nil
	},
}

// rankJobs expands the zone, unit and mode flags into compute parameters.
// Empty zone or unit flags mean all of them.
func rankJobs(cmd *cobra.Command, eng *engine.Engine) ([]engine.Params, error) {
	flags := cmd.Flags()

	var p models.Priorities
	for _, key := range []string{
		models.MetricTaste, models.MetricHealth, models.MetricCheapness,
		models.MetricSpeed, models.MetricLowCalorie, models.MetricEthics,
	} {
		v, _ := flags.GetFloat64(key)
		p.Set(key, v)
	}
	method, _ := flags.GetString("taste-method")

	var zones []string
	if z, _ := flags.GetString("zone"); z != "" {
		zones = []string{z}
	} else {
		for _, z := range eng.Zones() {
			zones = append(zones, z.ID)
		}
	}

	units := models.PriceUnits
	if u, _ := flags.GetString("unit"); u != "" {
		unit := models.PriceUnit(u)
		if _, err := unit.Index(); err != nil {
			return nil, err
		}
		units = []models.PriceUnit{unit}
	}

	modes := []bool{false}
	if both, _ := flags.GetBool("both-modes"); both {
		modes = []bool{false, true}
	} else if opt, _ := flags.GetBool("optimized"); opt {
		modes = []bool{true}
	}

	var jobs []engine.Params
	for _, zone := range zones {
		for _, unit := range units {
			for _, optimized := range modes {
				jobs = append(jobs, engine.Params{
					Zone:        zone,
					PriceUnit:   unit,
					Optimized:   optimized,
					Priorities:  p.Clamped(),
					TasteMethod: method,
				})
			}
		}
	}
	return jobs, nil
}

func init() {
	f := rankCmd.Flags()
	f.String("zone", "", "Economic zone to rank (default all zones)")
	f.String("unit", "", "Price unit: serving, per1kg or per1000kcal (default all units)")
	f.Bool("optimized", false, "Use optimized preparation times")
	f.Bool("both-modes", false, "Rank both standard and optimized preparation times")
	f.String("taste-method", "", "Taste scoring method")
	f.String("topic", "dish_rankings", "Topic or folder name of the written rankings")
	f.Float64(models.MetricTaste, 5, "Taste weight")
	f.Float64(models.MetricHealth, 5, "Health weight")
	f.Float64(models.MetricCheapness, 5, "Cheapness weight")
	f.Float64(models.MetricSpeed, 5, "Speed weight")
	f.Float64(models.MetricLowCalorie, 0, "Low calorie weight")
	f.Float64(models.MetricEthics, 0, "Ethics weight")
	f.String("format", "console", "Output format: console, json, csv, parquet or postgres")
	f.String("output-path", "out", "Local output base path")
	f.String("destination", "local", "Output destination: local or s3")
	f.Bool("kafka-enabled", false, "Publish rankings to Kafka")
	f.String("kafka-broker-list", "localhost:9092", "Kafka broker list")

	_ = viper.BindPFlag("output.format", f.Lookup("format"))
	_ = viper.BindPFlag("output.path", f.Lookup("output-path"))
	_ = viper.BindPFlag("output.destination", f.Lookup("destination"))
	_ = viper.BindPFlag("kafka.enabled", f.Lookup("kafka-enabled"))
	_ = viper.BindPFlag("kafka.broker_list", f.Lookup("kafka-broker-list"))
	rootCmd.AddCommand(rankCmd)
}
