// Package bootstrap opens the runtime dependencies shared by the server and
// the command-line tools.
package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tether/internal/cache"
	"tether/internal/config"
	"tether/internal/database"
	"tether/internal/middleware"
	"tether/internal/models"
	"tether/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemoUsers upserts the demo accounts after connecting.
	SeedDemoUsers bool
	// SkipSchema connects without applying migrations.
	SkipSchema bool
}

// InitRuntime connects to DB and Redis and optionally runs built-in seeding.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: !opts.SkipSchema})
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := EnsureDevRootUser(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development root user: %w", err)
	}

	if opts.SeedDemoUsers {
		if err := seed.DemoUsers(db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo users: %w", err)
		}
	}

	return db, r, nil
}

// EnsureDevRootUser creates or promotes user 1 as an admin when
// DEV_BOOTSTRAP_ROOT is set in the development environment.
func EnsureDevRootUser(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapRoot {
		return nil
	}

	username := strings.TrimSpace(cfg.DevRootUsername)
	if username == "" {
		username = "tether_root"
	}
	email := models.NormalizeEmail(cfg.DevRootEmail)
	if email == "" {
		email = "root@tether.local"
	}
	password := cfg.DevRootPassword
	if password == "" {
		return fmt.Errorf("DEV_ROOT_PASSWORD must be set when DEV_BOOTSTRAP_ROOT is enabled")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		var root models.User
		findErr := tx.First(&root, 1).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			root = models.User{
				ID:          1,
				Username:    username,
				Email:       email,
				DisplayName: "Root",
				Password:    string(hashedPassword),
				IsAdmin:     true,
			}
			if err := tx.Create(&root).Error; err != nil {
				return err
			}
		case findErr != nil:
			return findErr
		default:
			updates := map[string]any{"is_admin": true}
			if cfg.DevRootForceCredentials {
				updates["username"] = username
				updates["email"] = email
				updates["password"] = string(hashedPassword)
			}
			if err := tx.Model(&models.User{}).Where("id = ?", 1).Updates(updates).Error; err != nil {
				return err
			}
		}

		// Explicit ID inserts leave the postgres sequence behind.
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec(`
				SELECT setval(
					pg_get_serial_sequence('users', 'id'),
					GREATEST((SELECT COALESCE(MAX(id), 1) FROM users), 1),
					true
				)
			`).Error; err != nil {
				return fmt.Errorf("failed to reset users sequence: %w", err)
			}
		}

		return nil
	}); err != nil {
		return err
	}

	middleware.Logger.Info("development root user ensured", slog.Uint64("user_id", 1), slog.String("email", email))
	return nil
}
