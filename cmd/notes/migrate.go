package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"notechan/internal/notes/config"
	"notechan/internal/notes/db"
	"notechan/pkg/logger"
)

const (
	LogMigrationsApplied    = "migrations applied"
	LogMigrationsRolledBack = "migrations rolled back"

	ErrMigrateNotPostgres = "migrations are only supported for the postgres driver"
	ErrInvalidSteps       = "steps must be positive"
)

var rollbackSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage Postgres schema migrations",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		if cfg.Storage.Driver != config.DriverPostgres {
			return fmt.Errorf("%s: %q", ErrMigrateNotPostgres, cfg.Storage.Driver)
		}
		return nil
	},
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := db.Migrate(ctx, &cfg.Postgres); err != nil {
			return err
		}
		logger.Log(ctx).Info(ctx, LogMigrationsApplied, zap.String("path", cfg.Postgres.MigrationsPath))
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if rollbackSteps < 1 {
			return fmt.Errorf("%s: %d", ErrInvalidSteps, rollbackSteps)
		}
		ctx := cmd.Context()
		if err := db.Rollback(ctx, &cfg.Postgres, rollbackSteps); err != nil {
			return err
		}
		logger.Log(ctx).Info(ctx, LogMigrationsRolledBack, zap.Int("steps", rollbackSteps))
		return nil
	},
}

func init() {
	migrateDownCmd.Flags().IntVarP(&rollbackSteps, "steps", "n", 1, "number of migrations to roll back")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}
