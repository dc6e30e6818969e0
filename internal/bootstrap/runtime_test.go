package bootstrap

import (
	"testing"

	"tether/internal/config"
	"tether/internal/models"
	"tether/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestEnsureDevRootUser_SkippedOutsideDevelopment(t *testing.T) {
	db := testutil.NewTestDB(t)
	cfg := &config.Config{Env: "production", DevBootstrapRoot: true, DevRootPassword: "pw"}

	require.NoError(t, EnsureDevRootUser(cfg, db))

	var n int64
	db.Model(&models.User{}).Count(&n)
	assert.Zero(t, n)
}

func TestEnsureDevRootUser_RequiresPassword(t *testing.T) {
	db := testutil.NewTestDB(t)
	cfg := &config.Config{Env: "development", DevBootstrapRoot: true}

	assert.Error(t, EnsureDevRootUser(cfg, db))
}

func TestEnsureDevRootUser_CreatesRoot(t *testing.T) {
	db := testutil.NewTestDB(t)
	cfg := &config.Config{
		Env:              "development",
		DevBootstrapRoot: true,
		DevRootEmail:     "Root@Example.com",
		DevRootPassword:  "s3cret",
	}

	require.NoError(t, EnsureDevRootUser(cfg, db))

	var root models.User
	require.NoError(t, db.First(&root, 1).Error)
	assert.True(t, root.IsAdmin)
	assert.Equal(t, "root@example.com", root.Email)
	assert.Equal(t, "tether_root", root.Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(root.Password), []byte("s3cret")))
}

func TestEnsureDevRootUser_PromotesExisting(t *testing.T) {
	db := testutil.NewTestDB(t)
	existing := testutil.CreateUser(t, db, "first")
	require.Equal(t, uint(1), existing.ID)

	cfg := &config.Config{Env: "development", DevBootstrapRoot: true, DevRootPassword: "pw"}
	require.NoError(t, EnsureDevRootUser(cfg, db))

	var root models.User
	require.NoError(t, db.First(&root, 1).Error)
	assert.True(t, root.IsAdmin)
	assert.Equal(t, existing.Email, root.Email)
}
