package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"assembleia/internal/app/bootstrap"
	"assembleia/internal/platform/config"
	"assembleia/internal/platform/logging"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

// Worker process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring.
// 3) Run the session closer and outbox relay until SIGINT/SIGTERM.
func main() {
	var (
		configFile string
		once       bool
	)

	rootCmd := &cobra.Command{
		Use:           "assembleia-worker",
		Short:         "Assembly voting background worker",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := logging.New(cfg.LogLevel, nil)
			if _, err := maxprocs.Set(maxprocs.Logger(logging.Printf(logger))); err != nil {
				return fmt.Errorf("set maxprocs: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := bootstrap.BuildWorker(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("bootstrap worker: %w", err)
			}
			defer func() {
				if err := app.Close(); err != nil {
					logger.Error("worker shutdown close failed", "error", err.Error())
				}
			}()
			if once {
				return app.RunOnce(ctx)
			}
			return app.Run(ctx)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", os.Getenv("ASSEMBLEIA_CONFIG"), "path to YAML config file")
	rootCmd.Flags().BoolVar(&once, "once", false, "run a single closer and relay cycle, then exit")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "assembleia worker stopped with error: %v\n", err)
		os.Exit(1)
	}
}
