package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/dulcehogar/internal/app"
	"github.com/Skotchmaster/dulcehogar/internal/config"
	"github.com/Skotchmaster/dulcehogar/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "dulcehogar",
	Short:         "Dulce Hogar bakery back office",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, setPasswordCmd)
}

// open loads the configuration and connects the store. Startup stops here
// when the database is unreachable.
func open(ctx context.Context) (*app.App, context.Context, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, ctx, fmt.Errorf("config: %w", err)
	}

	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: cfg.ServiceName})
	slog.SetDefault(logger)

	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup_failed", "error", err)
		return nil, ctx, err
	}
	return a, a.WithLogger(ctx), nil
}
