package main

import (
	"fmt"
	"strconv"

	"conduit/internal/database"
	"conduit/internal/middleware"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Run schema operations",
	}
	migrateUpCmd = &cobra.Command{
		Use:   "up",
		Short: "Apply pending SQL migrations",
		Args:  cobra.NoArgs,
		RunE: withSchemaDB(func(cmd *cobra.Command, db *gorm.DB, _ []string) error {
			if err := database.RunMigrations(cmd.Context(), db); err != nil {
				return fmt.Errorf("sql migrations failed: %w", err)
			}
			middleware.Logger.Info("sql migrations applied")
			return nil
		}),
	}
	migrateAutoCmd = &cobra.Command{
		Use:   "auto",
		Short: "Apply the model schema with AutoMigrate",
		Args:  cobra.NoArgs,
		RunE: withSchemaDB(func(cmd *cobra.Command, db *gorm.DB, _ []string) error {
			if err := database.AutoMigrate(db.WithContext(cmd.Context())); err != nil {
				return fmt.Errorf("auto schema apply failed: %w", err)
			}
			middleware.Logger.Info("automigrations applied")
			return nil
		}),
	}
	migrateStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: withSchemaDB(func(cmd *cobra.Command, db *gorm.DB, _ []string) error {
			status, err := database.GetSchemaStatus(cmd.Context(), db, cfg)
			if err != nil {
				return fmt.Errorf("schema status failed: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mode=%s env=%s run_sql=%t run_auto=%t applied=%d pending=%d\n",
				status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate,
				len(status.AppliedVersions), len(status.PendingMigrations))
			for _, m := range status.PendingMigrations {
				fmt.Fprintf(out, "pending: %s\n", m.String())
			}
			return nil
		}),
	}
	migrateDownCmd = &cobra.Command{
		Use:   "down <version>",
		Short: "Roll back one applied migration",
		Args:  cobra.ExactArgs(1),
		RunE: withSchemaDB(func(cmd *cobra.Command, db *gorm.DB, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			if err := database.RollbackMigration(cmd.Context(), db, version); err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			middleware.Logger.Info("rolled back migration", "version", version)
			return nil
		}),
	}
)

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateAutoCmd, migrateStatusCmd, migrateDownCmd)
}

// withSchemaDB opens the primary database without applying the schema policy.
func withSchemaDB(run func(cmd *cobra.Command, db *gorm.DB, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{SkipSchema: true})
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}()
		return run(cmd, db, args)
	}
}
