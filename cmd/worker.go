package cmd

import (
	"os"

	"github.com/chrisdamba/dishrank/internal/engine"
	"github.com/chrisdamba/dishrank/internal/protocol"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the message worker over newline-delimited JSON on stdin and stdout",
	Long: `worker reads one JSON message per line from stdin and writes one response per line to stdout.
Logs go to stderr. Without --preload the worker waits for an init message.`,
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

		opts := engineOptions(cfg, logger)
		var eng *engine.Engine
		if preload, _ := cmd.Flags().GetBool("preload"); preload {
			data, err := loader.LoadConfigured(ctx)
			if err != nil {
				return err
			}
			if eng, err = engine.New(data, opts); err != nil {
				return err
			}
		}

		w := protocol.NewWorker(eng,
			protocol.WithLogger(logger),
			protocol.WithLoader(loader.LoadLocation),
			protocol.WithEngineOptions(opts),
		)
		return w.Serve(ctx, os.Stdin, os.Stdout)
	},
}

func init() {
	workerCmd.Flags().Bool("preload", false, "Load the configured dataset before reading messages")
	rootCmd.AddCommand(workerCmd)
}
