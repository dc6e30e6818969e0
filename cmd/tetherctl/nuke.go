package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"tether/internal/config"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type nukeFlags struct {
	force bool
}

func newNukeCmd() *cobra.Command {
	var flags nukeFlags

	cmd := &cobra.Command{
		Use:   "nuke",
		Short: "Drop and recreate the public schema",
		Long: `Nuke drops every table in the public schema, including the
migration log. Run "tetherctl migrate up" afterwards to rebuild it.
Refused in production.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(func(cfg *config.Config, db *gorm.DB) error {
				if cfg.IsProduction() {
					return errors.New("refusing to nuke a production database")
				}
				if !flags.force && !confirmAction(cmd.InOrStdin(), cmd.OutOrStdout(),
					fmt.Sprintf("Drop every table in database %q?", cfg.DBName)) {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
				if err := nukeSchema(db); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Database nuked.")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "skip confirmation")
	return cmd
}

func nukeSchema(db *gorm.DB) error {
	if err := db.Exec("DROP SCHEMA public CASCADE; CREATE SCHEMA public;").Error; err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	if err := db.Exec("GRANT ALL ON SCHEMA public TO public;").Error; err != nil {
		return fmt.Errorf("grant schema permissions: %w", err)
	}
	return nil
}

func confirmAction(in io.Reader, out io.Writer, prompt string) bool {
	reader := bufio.NewReader(in)
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	response, _ := reader.ReadString('\n') // EOF counts as "no"
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
