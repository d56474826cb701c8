package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/dulcehogar/internal/db"
)

var (
	pwEmail    string
	pwPassword string
)

// setPasswordCmd rotates a credential out of band, e.g. the bootstrap admin's.
var setPasswordCmd = &cobra.Command{
	Use:   "set-password",
	Short: "Replace a user's password and revoke their sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if pwEmail == "" || pwPassword == "" {
			return errors.New("--email and --password are required")
		}
		a, ctx, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := db.Migrate(ctx, a.DB); err != nil {
			return err
		}
		if err := a.Users.SetPassword(ctx, pwEmail, pwPassword); err != nil {
			return fmt.Errorf("set password: %w", err)
		}
		a.Logger.Info("password_changed", "email", pwEmail)
		return nil
	},
}

func init() {
	setPasswordCmd.Flags().StringVar(&pwEmail, "email", "", "account email")
	setPasswordCmd.Flags().StringVar(&pwPassword, "password", "", "new password")
}
