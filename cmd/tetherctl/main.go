// Command tetherctl is the operator CLI for the tether backend: schema
// migrations, demo data, certificate lookups and admin accounts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tether/internal/config"
	"tether/internal/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var version = "0.1.0-dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tetherctl",
		Short:         "Operate the tether relationship backend",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newMigrateCmd(),
		newSeedCmd(),
		newCertificateCmd(),
		newAdminCmd(),
		newOpenAPICmd(),
		newNukeCmd(),
	)
	return rootCmd
}

// withDB loads configuration and connects without touching the schema.
func withDB(fn func(cfg *config.Config, db *gorm.DB) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	return fn(cfg, db)
}
