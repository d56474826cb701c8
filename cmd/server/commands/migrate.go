package commands

import (
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/dulcehogar/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, ctx, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := db.Migrate(ctx, a.DB); err != nil {
			return err
		}
		a.Logger.Info("migrate_done", "driver", a.Cfg.Database.Driver)
		return nil
	},
}
