package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/chrisdamba/dishrank/internal/dataset"
	"github.com/chrisdamba/dishrank/internal/engine"
	"github.com/chrisdamba/dishrank/internal/models"
	"github.com/chrisdamba/dishrank/internal/repositories"
	"github.com/chrisdamba/dishrank/internal/repositories/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "dishrank",
	Short: "Ranks dishes by weighted taste, health, cost, speed, calorie and ethics criteria",
	Long: `dishrank computes per-dish metrics (cost per economic zone, health, ethics, preparation time,
calorie density, satiety), normalizes them to a common 0-10 scale and ranks dishes by a signed,
user-weighted score. It runs as an HTTP/websocket service, a stdin/stdout worker or a batch job.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./dishrank.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-development", false, "Human readable development logging")
	rootCmd.PersistentFlags().String("dataset-source", "file", "Dataset source: file, s3 or postgres")
	rootCmd.PersistentFlags().String("database-url", "", "Postgres connection URL")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.development", rootCmd.PersistentFlags().Lookup("log-development"))
	_ = viper.BindPFlag("dataset.source", rootCmd.PersistentFlags().Lookup("dataset-source"))
	_ = viper.BindPFlag("database.url", rootCmd.PersistentFlags().Lookup("database-url"))
}

func initConfig() {
	if os.Getenv("DISHRANK_ENV") != "production" {
		_ = godotenv.Load()
	}
}

// setup loads the configuration and builds the logger shared by a command.
func setup() (*models.Config, *zap.Logger, error) {
	cfg, err := models.LoadConfig(viper.GetViper(), cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading config: %w", err)
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Info("using config file", zap.String("path", used))
	}
	return cfg, logger, nil
}

func newLogger(cfg models.LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zc.Level = level
	}
	return zc.Build()
}

// openRepositories connects to Postgres. The caller closes the pool.
func openRepositories(ctx context.Context, cfg *models.Config) (*pgxpool.Pool, repositories.Set, error) {
	if cfg.Database.URL == "" {
		return nil, repositories.Set{}, fmt.Errorf("database.url is not set")
	}
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, repositories.Set{}, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, repositories.Set{}, fmt.Errorf("unable to reach database: %w", err)
	}
	return pool, postgres.NewRepositorySet(pool), nil
}

// newLoader builds the dataset loader for the configured source. The returned
// cleanup closes any database pool.
func newLoader(ctx context.Context, cfg *models.Config, logger *zap.Logger) (*dataset.Loader, func(), error) {
	if cfg.Dataset.Source != "postgres" {
		return dataset.NewLoader(cfg, nil, logger), func() {}, nil
	}
	pool, repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return dataset.NewLoader(cfg, &repos, logger), pool.Close, nil
}

func engineOptions(cfg *models.Config, logger *zap.Logger) engine.Options {
	return engine.OptionsFromConfig(cfg.Engine, logger)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
