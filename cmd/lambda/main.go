//go:build lambda

// Command lambda runs the message worker as an AWS Lambda function. Each
// invocation carries one protocol message; the dataset is loaded once per
// cold start from the configured source.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/chrisdamba/dishrank/internal/dataset"
	"github.com/chrisdamba/dishrank/internal/engine"
	"github.com/chrisdamba/dishrank/internal/models"
	"github.com/chrisdamba/dishrank/internal/protocol"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	cfg, err := models.LoadConfig(viper.New(), "")
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("error creating logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	loader := dataset.NewLoader(cfg, nil, logger)
	data, err := loader.LoadConfigured(ctx)
	if err != nil {
		logger.Fatal("failed to load dataset", zap.Error(err))
	}
	opts := engine.OptionsFromConfig(cfg.Engine, logger)
	eng, err := engine.New(data, opts)
	if err != nil {
		logger.Fatal("failed to create engine", zap.Error(err))
	}

	w := protocol.NewWorker(eng,
		protocol.WithLogger(logger),
		protocol.WithLoader(loader.LoadLocation),
		protocol.WithEngineOptions(opts),
	)
	lambda.Start(func(ctx context.Context, msg protocol.Message) (protocol.Response, error) {
		return w.Handle(ctx, msg), nil
	})
}
