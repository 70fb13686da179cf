package commands

import (
	"fmt"
	"os"

	"github.com/VitaminP8/blog/internal/config"
	"github.com/VitaminP8/blog/internal/storage/database"
	"github.com/jinzhu/gorm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	storageType string
	verbose     bool
)

// rootCmd - административные команды поверх тех же хранилищ, что и у сервера
var rootCmd = &cobra.Command{
	Use:   "blogctl",
	Short: "Blog administration tool",
	Long: `blogctl manages the blog database without starting the HTTP server.

Connection settings are read from the environment (and .env) exactly as the server does.

Examples:
  blogctl migrate --storage sqlite
  blogctl user create alice --password secret`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storageType, "storage", "", "Storage type: postgres or sqlite (default STORAGE from env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

// openDB читает конфиг, открывает базу и применяет миграции
func openDB() (*gorm.DB, *zap.Logger, error) {
	config.LoadEnv()
	cfg := config.Load(storageType)

	logger := zap.NewNop()
	if verbose {
		var err error
		if logger, err = config.NewLogger("development"); err != nil {
			return nil, nil, err
		}
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	database.UseLogger(db, logger)
	if err = database.Migrate(db); err != nil {
		database.Close(db)
		return nil, nil, err
	}

	return db, logger, nil
}
