package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tether/internal/events"
	"tether/internal/models"
	"tether/internal/observability"
)

const (
	defaultWorkers     = 4
	defaultQueueSize   = 1024
	defaultMaxAttempts = 3
	defaultBackoff     = 100 * time.Millisecond
	deliverTimeout     = 10 * time.Second

	frameNotification = "notification"
)

// Sink persists notification drafts. repository.NotificationRepository satisfies it.
type Sink interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// DispatcherConfig tunes the outbox.
type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	// Backoff is multiplied by the attempt number between persist retries.
	Backoff time.Duration
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.Backoff <= 0 {
		c.Backoff = defaultBackoff
	}
	return c
}

type job struct {
	ctx  context.Context
	note *models.Notification
}

// Dispatcher is the notification outbox. Drafts are queued on a bounded
// channel and delivered by a fixed worker pool: persisted to the sink, then
// fanned out over Redis and the event broker. Nothing is reported back to
// the caller.
type Dispatcher struct {
	sink      Sink
	notifier  *Notifier
	publisher events.Publisher
	cfg       DispatcherConfig

	mu     sync.RWMutex
	closed bool
	queue  chan job
	wg     sync.WaitGroup
}

// NewDispatcher starts the worker pool. notifier and publisher may be nil.
func NewDispatcher(sink Sink, notifier *Notifier, publisher events.Publisher, cfg DispatcherConfig) *Dispatcher {
	cfg = cfg.withDefaults()
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	d := &Dispatcher{
		sink:      sink,
		notifier:  notifier,
		publisher: publisher,
		cfg:       cfg,
		queue:     make(chan job, cfg.QueueSize),
	}
	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

// Dispatch queues drafts for delivery. It never blocks; when the queue is
// full or the dispatcher is closed the draft is dropped and counted.
func (d *Dispatcher) Dispatch(ctx context.Context, notes ...*models.Notification) {
	// Request cancellation must not abort delivery; tracing values are kept.
	ctx = context.WithoutCancel(ctx)

	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, n := range notes {
		if n == nil {
			continue
		}
		if d.closed {
			d.drop(ctx, n, "closed")
			continue
		}
		select {
		case d.queue <- job{ctx: ctx, note: n}:
			observability.NotificationQueueDepth.Inc()
		default:
			d.drop(ctx, n, "queue_full")
		}
	}
}

func (d *Dispatcher) drop(ctx context.Context, n *models.Notification, reason string) {
	observability.NotificationFailures.WithLabelValues("enqueue").Inc()
	observability.NotificationsDelivered.WithLabelValues("dropped").Inc()
	observability.GlobalLogger.WarnContext(ctx, "notification dropped",
		slog.String("reason", reason),
		slog.String("type", n.Type),
		slog.Uint64("recipient_id", uint64(n.RecipientID)),
	)
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for j := range d.queue {
		observability.NotificationQueueDepth.Dec()
		d.deliver(j.ctx, j.note)
	}
}

// deliver persists one draft with retries, then publishes it. Publish
// failures are logged; the notification stays in the recipient's mailbox.
func (d *Dispatcher) deliver(parent context.Context, n *models.Notification) {
	ctx, cancel := context.WithTimeout(parent, deliverTimeout)
	defer cancel()

	fields := map[string]interface{}{
		"type":         n.Type,
		"recipient_id": n.RecipientID,
	}
	observability.LogAsyncOperationStart(ctx, "notification_deliver", fields)

	if err := d.persist(ctx, n); err != nil {
		observability.NotificationFailures.WithLabelValues("persist").Inc()
		observability.NotificationsDelivered.WithLabelValues("failed").Inc()
		observability.LogAsyncOperationError(ctx, "notification_deliver", err, fields)
		return
	}
	observability.NotificationsDelivered.WithLabelValues("persisted").Inc()

	if err := d.notifier.PublishUserJSON(ctx, n.RecipientID, frameNotification, n); err != nil {
		observability.NotificationFailures.WithLabelValues("realtime").Inc()
		observability.LogAsyncOperationError(ctx, "notification_realtime", err, fields)
	} else {
		observability.NotificationsDelivered.WithLabelValues("published").Inc()
	}

	var sender uint
	if n.SenderID != nil {
		sender = *n.SenderID
	}
	event := events.NewEvent("notifications."+n.Type, metaUint(n.Metadata, "relationship_id"), n.ID, sender)
	event.Data = map[string]any{
		"recipient_id": n.RecipientID,
		"category":     n.Category,
	}
	if err := d.publisher.Publish(ctx, event); err != nil {
		observability.NotificationFailures.WithLabelValues("event").Inc()
		observability.LogAsyncOperationError(ctx, "notification_event", err, fields)
	}

	fields["notification_id"] = n.ID
	observability.LogAsyncOperationEnd(ctx, "notification_deliver", fields)
}

func (d *Dispatcher) persist(ctx context.Context, n *models.Notification) error {
	var err error
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		if err = d.sink.Create(ctx, n); err == nil {
			return nil
		}
		if attempt == d.cfg.MaxAttempts {
			break
		}
		n.ID = 0
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.cfg.Backoff * time.Duration(attempt)):
		}
	}
	return err
}

// Close stops accepting drafts and waits for queued ones to be delivered or
// for ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func metaUint(meta map[string]any, key string) uint {
	switch v := meta[key].(type) {
	case uint:
		return v
	case int:
		if v > 0 {
			return uint(v)
		}
	case float64:
		if v > 0 {
			return uint(v)
		}
	}
	return 0
}
