package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/chrisdamba/dishrank/internal/models"
	"github.com/chrisdamba/dishrank/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ranking API over HTTP and websockets",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		loader, cleanup, err := newLoader(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		var data *models.Dataset
		if lazy, _ := cmd.Flags().GetBool("lazy"); !lazy {
			if data, err = loader.LoadConfigured(ctx); err != nil {
				return err
			}
		}

		srv, err := server.New(cfg.Server, data,
			server.WithLogger(logger),
			server.WithLoader(loader.LoadLocation),
			server.WithEngineOptions(engineOptions(cfg, logger)),
		)
		if err != nil {
			return err
		}
		if err := srv.Run(ctx); err != nil {
			logger.Error("server stopped", zap.Error(err))
			return err
		}
		logger.Info("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "HTTP listen address")
	serveCmd.Flags().Bool("lazy", false, "Start without a dataset and wait for an init request")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)
}
