// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"tether/internal/database"
	"tether/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var userSeq atomic.Uint64

// NewTestDB opens an in-memory sqlite database with the full schema.
// The pool is pinned to one connection because every sqlite :memory:
// connection is a separate database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(sqlite.Open(":memory:"))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateUser inserts a user with a unique username and email derived from name.
func CreateUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()

	n := userSeq.Add(1)
	handle := fmt.Sprintf("%s%d", strings.ToLower(name), n)
	user := &models.User{
		Username:    handle,
		Email:       handle + "@example.com",
		DisplayName: gofakeit.Name(),
		Password:    "hashed",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// RecordingDispatcher collects dispatched notifications instead of delivering them.
type RecordingDispatcher struct {
	mu   sync.Mutex
	sent []*models.Notification
}

// Dispatch records the notifications.
func (d *RecordingDispatcher) Dispatch(_ context.Context, notes ...*models.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, n := range notes {
		if n != nil {
			d.sent = append(d.sent, n)
		}
	}
}

// Sent returns a copy of everything dispatched so far.
func (d *RecordingDispatcher) Sent() []*models.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*models.Notification, len(d.sent))
	copy(out, d.sent)
	return out
}

// OfType returns the dispatched notifications with the given type.
func (d *RecordingDispatcher) OfType(notificationType string) []*models.Notification {
	var out []*models.Notification
	for _, n := range d.Sent() {
		if n.Type == notificationType {
			out = append(out, n)
		}
	}
	return out
}

// Reset forgets everything dispatched so far.
func (d *RecordingDispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = nil
}
