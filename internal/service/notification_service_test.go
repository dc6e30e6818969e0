package service

import (
	"context"
	"testing"

	"tether/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_Mailbox(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewNotificationService(f.store.Notifications)

	for i := 0; i < 3; i++ {
		require.NoError(t, f.store.Notifications.Create(ctx,
			draft(f.bob.ID, f.alice.ID, models.NotificationTermProposed, models.NotificationCategoryTerm, "t", "m")))
	}
	require.NoError(t, f.store.Notifications.Create(ctx,
		draft(f.alice.ID, f.bob.ID, models.NotificationTermAgreed, models.NotificationCategoryTerm, "t", "m")))

	count, err := svc.UnreadCount(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	list, err := svc.ListNotifications(ctx, f.bob.ID, true, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)

	require.NoError(t, svc.MarkRead(ctx, f.bob.ID, list[0].ID))
	err = svc.MarkRead(ctx, f.alice.ID, list[1].ID)
	assertCode(t, err, models.CodeNotFound)

	changed, err := svc.MarkAllRead(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)

	count, err = svc.UnreadCount(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = svc.UnreadCount(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUserService_FindByEmail(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.store.Users)

	u, err := svc.FindByEmail(context.Background(), "  "+f.carol.Email)
	require.NoError(t, err)
	assert.Equal(t, f.carol.ID, u.ID)

	_, err = svc.FindByEmail(context.Background(), "ghost@example.com")
	assertCode(t, err, models.CodeNotFound)
}
