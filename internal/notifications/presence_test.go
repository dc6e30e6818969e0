package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresence_MirrorsToRedis(t *testing.T) {
	mr, rdb := setupRedis(t)
	p := NewPresence(rdb)
	defer p.Stop()
	ctx := context.Background()

	p.Register(ctx, 8)
	ok, err := mr.SIsMember(presenceOnlineSetKey, "8")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists(presenceLastSeenNS+"8"))

	// Another instance sees the user through Redis only.
	other := NewPresence(rdb)
	defer other.Stop()
	assert.True(t, other.IsOnline(ctx, 8))

	p.Unregister(ctx, 8)
	assert.False(t, p.IsOnline(ctx, 8))
	assert.False(t, other.IsOnline(ctx, 8))
}

func TestPresence_ReapRemovesStaleMembers(t *testing.T) {
	mr, rdb := setupRedis(t)
	p := NewPresence(rdb)
	defer p.Stop()
	ctx := context.Background()

	_, err := mr.SAdd(presenceOnlineSetKey, "44")
	require.NoError(t, err)
	p.Register(ctx, 45)

	assert.Equal(t, 1, p.reapOnce(ctx))
	stale, err := mr.SIsMember(presenceOnlineSetKey, "44")
	require.NoError(t, err)
	assert.False(t, stale)
	live, err := mr.SIsMember(presenceOnlineSetKey, "45")
	require.NoError(t, err)
	assert.True(t, live)
}
