package main

import (
	"fmt"
	"strconv"

	"github.com/sadhana-path/backend/internal/config"
	"github.com/sadhana-path/backend/internal/database"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if err := database.Migrate(cfg.Database); err != nil {
			return err
		}
		return logVersion(logger, cfg.Database)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations (default 1)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("steps must be an integer: %w", err)
			}
			steps = n
		}

		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if err := database.MigrateDown(cfg.Database, steps); err != nil {
			return err
		}
		return logVersion(logger, cfg.Database)
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}

func logVersion(logger *zap.Logger, cfg config.DatabaseConfig) error {
	version, dirty, err := database.MigrationVersion(cfg)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	logger.Info("schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
