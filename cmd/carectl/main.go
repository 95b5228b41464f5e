package main

import (
	"fmt"
	"os"

	"github.com/carecircle/backend/internal/config"
	"github.com/carecircle/backend/internal/database"
	"github.com/carecircle/backend/internal/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	dsn      string
	logLevel string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "carectl",
	Short: "CareCircle operations CLI",
	Long: `carectl runs maintenance tasks directly against the CareCircle database:
migrations, development seed data, and account administration.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Initialize(logLevel, logger.NoFile)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = database.Close()
		_ = logger.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "Database DSN (defaults to DATABASE_URL or DB_* variables)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log SQL statements")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(promoteCmd)
	rootCmd.AddCommand(approveDoctorCmd)
}

// openDB connects with --dsn or the environment
func openDB() (*gorm.DB, error) {
	target := dsn
	if target == "" {
		target = config.LoadDatabase().DSN()
	}
	if err := database.Initialize(target, verbose); err != nil {
		return nil, err
	}
	return database.DB, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
