package commands

import (
	"restaurant-service/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update tables and seed the staff groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		if err := database.Migrate(rt.db); err != nil {
			return err
		}
		rt.log.Info("Migrations applied")
		return nil
	},
}
