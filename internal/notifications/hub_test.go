package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func TestHub_RegisterEnforcesPerUserLimit(t *testing.T) {
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(3, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(3, nil)
	assert.ErrorIs(t, err, ErrUserConnLimit)

	_, err = hub.Register(4, nil)
	assert.NoError(t, err)
	assert.Equal(t, maxConnsPerUser+1, hub.ConnectionCount())
}

func TestHub_BroadcastTargetsUser(t *testing.T) {
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	a, err := hub.Register(1, nil)
	require.NoError(t, err)
	b, err := hub.Register(2, nil)
	require.NoError(t, err)

	hub.Broadcast(1, "for-one")
	assert.Equal(t, "for-one", string(<-a.Send))
	assert.Empty(t, b.Send)

	hub.BroadcastAll("everyone")
	assert.Equal(t, "everyone", string(<-a.Send))
	assert.Equal(t, "everyone", string(<-b.Send))
}

func TestHub_UnregisterUpdatesPresence(t *testing.T) {
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()
	ctx := context.Background()

	a, err := hub.Register(10, nil)
	require.NoError(t, err)
	b, err := hub.Register(10, nil)
	require.NoError(t, err)
	assert.True(t, hub.IsOnline(ctx, 10))

	hub.UnregisterClient(a)
	assert.True(t, hub.IsOnline(ctx, 10))
	hub.UnregisterClient(b)
	assert.False(t, hub.IsOnline(ctx, 10))

	// A second unregister of the same client is ignored.
	hub.UnregisterClient(b)
	assert.Zero(t, hub.ConnectionCount())
}

func TestHub_WiringRoutesRedisMessages(t *testing.T) {
	_, rdb := setupRedis(t)
	hub := NewHub(rdb)
	defer func() { _ = hub.Shutdown(context.Background()) }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := NewNotifier(rdb)
	require.NoError(t, hub.StartWiring(ctx, n))

	client, err := hub.Register(42, nil)
	require.NoError(t, err)
	assert.True(t, hub.IsOnline(ctx, 42))

	require.NoError(t, n.PublishUser(ctx, 42, `{"type":"notification"}`))
	assert.Eventually(t, func() bool { return len(client.Send) == 1 }, testEventuallyTimeout, testPollInterval)

	require.NoError(t, n.PublishBroadcast(ctx, "all"))
	assert.Eventually(t, func() bool { return len(client.Send) == 2 }, testEventuallyTimeout, testPollInterval)
}

func TestHub_ShutdownRejectsNewClients(t *testing.T) {
	hub := NewHub()
	_, err := hub.Register(1, nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Zero(t, hub.ConnectionCount())

	_, err = hub.Register(1, nil)
	assert.ErrorIs(t, err, ErrServerConnLimit)
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()
	c := NewClient(hub, nil, 5)
	c.Send = make(chan []byte, 1)

	assert.NoError(t, c.TrySend([]byte("one")))
	assert.ErrorIs(t, c.TrySend([]byte("two")), errClientFull)

	close(c.Send)
	assert.ErrorIs(t, c.TrySend([]byte("three")), errClientClosed)
}
