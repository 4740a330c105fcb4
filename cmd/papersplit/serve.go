package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/markdave123-py/PaperSplit/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// SIGINT/SIGTERM stop the server and let workers finish their current page.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(cfg, logger)
	if err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}

	logger.Info().
		Str("port", cfg.Port).
		Str("data_dir", cfg.DataDir).
		Int("workers", cfg.Workers).
		Msg("PaperSplit is running")
	return application.Run(ctx)
}
