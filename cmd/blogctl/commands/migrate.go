package commands

import (
	"fmt"

	"github.com/VitaminP8/blog/internal/storage/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		fmt.Fprintf(cmd.OutOrStdout(), "schema is up to date (%s)\n", db.Dialect().GetName())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
