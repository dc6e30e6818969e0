package main

import (
	"fmt"
	"strconv"

	"tether/internal/config"
	"tether/internal/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run schema operations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending SQL migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(func(_ *config.Config, db *gorm.DB) error {
					if err := database.RunMigrations(cmd.Context(), db); err != nil {
						return fmt.Errorf("sql migrations failed: %w", err)
					}
					fmt.Println("sql migrations applied")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "auto",
			Short: "Apply GORM automigrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(func(cfg *config.Config, db *gorm.DB) error {
					cfg.DBSchemaMode = database.SchemaModeAuto
					if err := database.ApplySchema(cmd.Context(), db, cfg); err != nil {
						return fmt.Errorf("auto schema apply failed: %w", err)
					}
					fmt.Println("automigrations applied")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(func(cfg *config.Config, db *gorm.DB) error {
					status, err := database.GetSchemaStatus(cmd.Context(), db, cfg)
					if err != nil {
						return fmt.Errorf("schema status failed: %w", err)
					}
					fmt.Printf("mode=%s env=%s run_sql=%t run_auto=%t applied=%d pending=%d\n",
						status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate,
						len(status.AppliedVersions), len(status.PendingMigrations))
					for _, m := range status.PendingMigrations {
						fmt.Printf("pending: %06d_%s\n", m.Version, m.Name)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down <version>",
			Short: "Roll back one migration",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				return withDB(func(_ *config.Config, db *gorm.DB) error {
					if err := database.RollbackMigration(cmd.Context(), db, version); err != nil {
						return fmt.Errorf("rollback failed: %w", err)
					}
					fmt.Printf("rolled back migration %d\n", version)
					return nil
				})
			},
		},
	)
	return cmd
}
