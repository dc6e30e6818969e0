package seed

import (
	"fmt"

	"tether/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DemoAccount is a fixed development login.
type DemoAccount struct {
	Username    string
	Email       string
	DisplayName string
}

// DemoAccounts are created on every development boot and at the start of
// every seeding run. They all use DefaultPassword.
var DemoAccounts = []DemoAccount{
	{Username: "demo", Email: "demo@tether.local", DisplayName: "Demo User"},
	{Username: "alex", Email: "alex@tether.local", DisplayName: "Alex Rivera"},
	{Username: "sam", Email: "sam@tether.local", DisplayName: "Sam Okafor"},
}

// DemoUsers upserts the demo accounts. Existing rows keep their password.
func DemoUsers(db *gorm.DB) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	for _, item := range DemoAccounts {
		user := models.User{
			Username:    item.Username,
			Email:       item.Email,
			DisplayName: item.DisplayName,
			Password:    string(hashed),
		}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "display_name", "updated_at"}),
		}).Create(&user).Error; err != nil {
			return fmt.Errorf("seed demo user %s: %w", item.Username, err)
		}
	}
	return nil
}
