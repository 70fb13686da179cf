package commands

import (
	"errors"
	"fmt"

	"github.com/VitaminP8/blog/internal/storage/database"
	"github.com/spf13/cobra"
)

var (
	// user create flags
	userEmail    string
	userPassword string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Register a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if userPassword == "" {
			return errors.New("--password is required")
		}

		db, logger, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		user, err := database.NewUserStorage(db, logger).RegisterUser(args[0], userEmail, userPassword)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d, uuid %s)\n", user.Username, user.ID, user.UUID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd)

	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "Optional email")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "Password")
}
