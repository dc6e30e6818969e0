package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"tether/internal/events"
	"tether/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	mu       sync.Mutex
	failures int
	calls    int
	saved    []*models.Notification
	block    chan struct{}
}

func (s *memorySink) Create(_ context.Context, n *models.Notification) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return errors.New("database is locked")
	}
	n.ID = uint(len(s.saved) + 1)
	s.saved = append(s.saved, n)
	return nil
}

func (s *memorySink) snapshot() (int, []*models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls, append([]*models.Notification(nil), s.saved...)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *eventRecorder) Close() error { return nil }

func (r *eventRecorder) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

func note(recipient uint, kind string) *models.Notification {
	sender := uint(99)
	return &models.Notification{
		RecipientID: recipient,
		SenderID:    &sender,
		Type:        kind,
		Category:    models.NotificationCategoryRelationship,
		Title:       "New request",
		Message:     "Someone wants to connect",
		Metadata:    map[string]any{"relationship_id": uint(5)},
	}
}

func TestDispatcher_PersistsPublishesAndEmits(t *testing.T) {
	_, rdb := setupRedis(t)
	notifier := NewNotifier(rdb)
	sink := &memorySink{}
	recorder := &eventRecorder{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	frames := make(chan string, 1)
	require.NoError(t, notifier.StartPatternSubscriber(ctx, func(_ string, payload string) {
		frames <- payload
	}))

	d := NewDispatcher(sink, notifier, recorder, DispatcherConfig{Workers: 1})

	// A cancelled request context must not stop delivery.
	reqCtx, reqCancel := context.WithCancel(context.Background())
	d.Dispatch(reqCtx, note(1, models.NotificationRelationshipRequest))
	reqCancel()
	require.NoError(t, d.Close(context.Background()))

	_, saved := sink.snapshot()
	require.Len(t, saved, 1)
	assert.Equal(t, uint(1), saved[0].ID)

	select {
	case payload := <-frames:
		var env struct {
			Type    string              `json:"type"`
			Payload models.Notification `json:"payload"`
		}
		require.NoError(t, json.Unmarshal([]byte(payload), &env))
		assert.Equal(t, frameNotification, env.Type)
		assert.Equal(t, uint(1), env.Payload.RecipientID)
		assert.Equal(t, "New request", env.Payload.Title)
	case <-time.After(time.Second):
		t.Fatal("no realtime frame published")
	}

	evs := recorder.all()
	require.Len(t, evs, 1)
	assert.Equal(t, "notifications."+models.NotificationRelationshipRequest, evs[0].Type)
	assert.Equal(t, uint(5), evs[0].RelationshipID)
	assert.Equal(t, uint(99), evs[0].ActorID)
}

func TestDispatcher_RetriesPersist(t *testing.T) {
	sink := &memorySink{failures: 2}
	d := NewDispatcher(sink, nil, nil, DispatcherConfig{Workers: 1, Backoff: time.Millisecond})

	d.Dispatch(context.Background(), note(1, models.NotificationTermProposed))
	require.NoError(t, d.Close(context.Background()))

	calls, saved := sink.snapshot()
	assert.Equal(t, 3, calls)
	assert.Len(t, saved, 1)
}

func TestDispatcher_PersistFailureIsSwallowed(t *testing.T) {
	sink := &memorySink{failures: 10}
	recorder := &eventRecorder{}
	d := NewDispatcher(sink, nil, recorder, DispatcherConfig{Workers: 1, MaxAttempts: 2, Backoff: time.Millisecond})

	assert.NotPanics(t, func() {
		d.Dispatch(context.Background(), note(1, models.NotificationTermProposed), nil)
	})
	require.NoError(t, d.Close(context.Background()))

	calls, saved := sink.snapshot()
	assert.Equal(t, 2, calls)
	assert.Empty(t, saved)
	assert.Empty(t, recorder.all())
}

func TestDispatcher_DropsWhenQueueFullOrClosed(t *testing.T) {
	sink := &memorySink{block: make(chan struct{})}
	d := NewDispatcher(sink, nil, nil, DispatcherConfig{Workers: 1, QueueSize: 1})

	// The worker holds the first draft, the queue holds the second and the
	// rest are dropped without blocking.
	d.Dispatch(context.Background(), note(1, "a"))
	require.Eventually(t, func() bool { return len(d.queue) == 0 }, time.Second, time.Millisecond)
	d.Dispatch(context.Background(), note(1, "b"), note(1, "c"), note(1, "d"))

	close(sink.block)
	require.NoError(t, d.Close(context.Background()))
	d.Dispatch(context.Background(), note(1, "late"))

	_, saved := sink.snapshot()
	require.Len(t, saved, 2)
	assert.Equal(t, "a", saved[0].Type)
	assert.Equal(t, "b", saved[1].Type)
}

func TestDispatcher_CloseHonoursDeadline(t *testing.T) {
	sink := &memorySink{block: make(chan struct{})}
	d := NewDispatcher(sink, nil, nil, DispatcherConfig{Workers: 1})
	d.Dispatch(context.Background(), note(1, "stuck"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)

	close(sink.block)
	require.NoError(t, d.Close(context.Background()))
}

func TestMetaUint(t *testing.T) {
	meta := map[string]any{"a": uint(3), "b": 4, "c": float64(5), "d": "6", "e": -1}
	assert.Equal(t, uint(3), metaUint(meta, "a"))
	assert.Equal(t, uint(4), metaUint(meta, "b"))
	assert.Equal(t, uint(5), metaUint(meta, "c"))
	assert.Zero(t, metaUint(meta, "d"))
	assert.Zero(t, metaUint(meta, "e"))
	assert.Zero(t, metaUint(meta, "missing"))
}
