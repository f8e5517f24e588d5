package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/chrisdamba/dishrank/internal/dataset"
	"github.com/chrisdamba/dishrank/internal/factories"
	"github.com/chrisdamba/dishrank/internal/models"
	"github.com/chrisdamba/dishrank/internal/repositories"
	"github.com/chrisdamba/dishrank/internal/repositories/postgres"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const seedBatchSize = 500

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a dataset into Postgres",
	Long: `seed creates the schema and replaces the stored dataset with the files from --from
or, with --generate, a synthetic dataset.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()
		ctx := cmd.Context()

		var data *models.Dataset
		if gen, _ := cmd.Flags().GetBool("generate"); gen {
			dishes, _ := cmd.Flags().GetInt("dishes")
			gc := factories.DefaultGenerateConfig()
			gc.Dishes = dishes
			gc.Seed, _ = cmd.Flags().GetInt64("seed")
			data, err = factories.Generate(gc)
		} else {
			from, _ := cmd.Flags().GetString("from")
			data, err = dataset.NewLoader(cfg, nil, logger).LoadLocation(ctx, from)
		}
		if err != nil {
			return err
		}

		pool, repos, err := openRepositories(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		if err := seedRepositories(ctx, repos, data); err != nil {
			return err
		}
		logger.Info("database seeded",
			zap.Int("dishes", len(data.Dishes)),
			zap.Int("ingredients", len(data.Ingredients)),
			zap.Int("zones", len(data.Zones)),
		)
		return nil
	},
}

func seedRepositories(ctx context.Context, repos repositories.Set, data *models.Dataset) error {
	if err := repos.Dishes.DeleteAll(ctx); err != nil {
		return err
	}
	if err := repos.Ingredients.DeleteAll(ctx); err != nil {
		return err
	}
	if err := repos.Zones.DeleteAll(ctx); err != nil {
		return err
	}
	if err := repos.Coefficients.DeleteAll(ctx); err != nil {
		return err
	}

	zones := make([]*models.EconomicZone, len(data.Zones))
	for i := range data.Zones {
		zones[i] = &data.Zones[i]
	}
	if err := repos.Zones.BulkCreate(ctx, zones); err != nil {
		return fmt.Errorf("failed to seed zones: %w", err)
	}
	if err := repos.Coefficients.BulkCreate(ctx, data.Coefficients); err != nil {
		return fmt.Errorf("failed to seed coefficients: %w", err)
	}

	bar := progressbar.NewOptions(len(data.Ingredients)+len(data.Dishes),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("seeding"),
		progressbar.OptionShowCount(),
	)
	defer bar.Finish()

	for start := 0; start < len(data.Ingredients); start += seedBatchSize {
		end := min(start+seedBatchSize, len(data.Ingredients))
		batch := make([]*models.IngredientRecord, 0, end-start)
		for i := start; i < end; i++ {
			batch = append(batch, &data.Ingredients[i])
		}
		if err := repos.Ingredients.BulkCreate(ctx, batch); err != nil {
			return fmt.Errorf("failed to seed ingredients: %w", err)
		}
		_ = bar.Add(len(batch))
	}
	for start := 0; start < len(data.Dishes); start += seedBatchSize {
		end := min(start+seedBatchSize, len(data.Dishes))
		batch := make([]*models.Dish, 0, end-start)
		for i := start; i < end; i++ {
			batch = append(batch, &data.Dishes[i])
		}
		if err := repos.Dishes.BulkCreate(ctx, batch); err != nil {
			return fmt.Errorf("failed to seed dishes: %w", err)
		}
		_ = bar.Add(len(batch))
	}
	return nil
}

func init() {
	f := seedCmd.Flags()
	f.String("from", "data", "Dataset directory or s3://bucket/prefix to seed from")
	f.Bool("generate", false, "Seed a generated dataset instead of files")
	f.Int("dishes", 100, "Number of generated dishes")
	f.Int64("seed", 42, "Random seed for generated data")
	rootCmd.AddCommand(seedCmd)
}
