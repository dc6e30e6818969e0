package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"tether/internal/config"
	"tether/internal/models"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "promote <user-id>",
			Short: "Grant admin rights to a user",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return adminToggle(cmd, args[0], true)
			},
		},
		&cobra.Command{
			Use:   "demote <user-id>",
			Short: "Revoke admin rights from a user",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return adminToggle(cmd, args[0], false)
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List administrator accounts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(func(_ *config.Config, db *gorm.DB) error {
					return listAdmins(cmd.Context(), db, cmd.OutOrStdout())
				})
			},
		},
	)
	return cmd
}

func adminToggle(cmd *cobra.Command, rawID string, admin bool) error {
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil || id == 0 {
		return fmt.Errorf("invalid user id %q", rawID)
	}
	return withDB(func(_ *config.Config, db *gorm.DB) error {
		user, changed, err := setAdmin(cmd.Context(), db, uint(id), admin)
		if err != nil {
			return err
		}
		verb := "promoted to"
		if !admin {
			verb = "demoted from"
		}
		if !changed {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (ID: %d) is already in that role\n", user.Username, user.ID)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s (ID: %d) %s admin\n", user.Username, user.ID, verb)
		return nil
	})
}

// setAdmin sets the admin flag and reports whether it changed.
func setAdmin(ctx context.Context, db *gorm.DB, id uint, admin bool) (*models.User, bool, error) {
	var user models.User
	if err := db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("user with ID %d not found", id)
		}
		return nil, false, fmt.Errorf("load user: %w", err)
	}
	if user.IsAdmin == admin {
		return &user, false, nil
	}
	if err := db.WithContext(ctx).Model(&user).Update("is_admin", admin).Error; err != nil {
		return nil, false, fmt.Errorf("update user: %w", err)
	}
	return &user, true, nil
}

func listAdmins(ctx context.Context, db *gorm.DB, w io.Writer) error {
	var admins []models.User
	if err := db.WithContext(ctx).Where("is_admin = ?", true).Order("id").Find(&admins).Error; err != nil {
		return fmt.Errorf("fetch admins: %w", err)
	}
	if len(admins) == 0 {
		fmt.Fprintln(w, "No admins found")
		return nil
	}
	for _, a := range admins {
		fmt.Fprintf(w, "%d\t%s\t%s\n", a.ID, a.Username, a.Email)
	}
	return nil
}
