package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the schema and serve the web interface",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, ctx, err := open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Setup(ctx); err != nil {
		a.Logger.Error("startup_failed", "error", err)
		return err
	}
	return a.Serve(ctx)
}
