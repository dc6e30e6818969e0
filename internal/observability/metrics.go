package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tether_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tether_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// LifecycleTransitions counts successful state transitions by entity and transition.
	LifecycleTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tether_lifecycle_transitions_total",
		Help: "Total number of committed lifecycle transitions",
	}, []string{"entity", "transition"})

	// NotificationsDelivered counts notification drafts by outcome (persisted, published, dropped).
	NotificationsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tether_notifications_total",
		Help: "Total notification drafts handled by the outbox, by outcome",
	}, []string{"outcome"})

	// NotificationFailures counts notification drafts that could not be delivered.
	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tether_notification_failures_total",
		Help: "Total number of notification delivery failures by stage",
	}, []string{"stage"})

	// NotificationQueueDepth is the number of drafts waiting in the outbox.
	NotificationQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tether_notification_queue_depth",
		Help: "Number of notification drafts waiting for a worker",
	})

	// CertificatesIssued counts issued certificates by level and subject kind.
	CertificatesIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tether_certificates_issued_total",
		Help: "Total number of issued certificates",
	}, []string{"level", "subject"})

	// CertificatesRevoked counts revoked certificates.
	CertificatesRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tether_certificates_revoked_total",
		Help: "Total number of revoked certificates",
	})

	// EventsPublished counts lifecycle events published to the broker by outcome.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tether_events_published_total",
		Help: "Total lifecycle events published to the broker",
	}, []string{"outcome"})

	// WebSocketConnectionsTotal is the gauge of active notification websocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tether_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tether_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// RecordTransition increments the lifecycle transition counter.
func RecordTransition(entity, transition string) {
	LifecycleTransitions.WithLabelValues(entity, transition).Inc()
}

const queryStartKey = "observability:query_start"

// RegisterQueryMetrics installs GORM callbacks that observe query latency per table.
func RegisterQueryMetrics(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	steps := []func() error{
		func() error {
			if err := cb.Create().Before("gorm:create").Register("metrics:before_create", before); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register("metrics:after_create", after("create"))
		},
		func() error {
			if err := cb.Query().Before("gorm:query").Register("metrics:before_query", before); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register("metrics:after_query", after("query"))
		},
		func() error {
			if err := cb.Update().Before("gorm:update").Register("metrics:before_update", before); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register("metrics:after_update", after("update"))
		},
		func() error {
			if err := cb.Delete().Before("gorm:delete").Register("metrics:before_delete", before); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register("metrics:after_delete", after("delete"))
		},
	}
	for _, register := range steps {
		if err := register(); err != nil {
			return err
		}
	}
	return nil
}
