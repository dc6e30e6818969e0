// Package events publishes committed lifecycle transitions to NATS JetStream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tether/internal/observability"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	StreamName     = "TETHER"
	SubjectPattern = "tether.>"

	publishTimeout = 3 * time.Second
)

// Event is the envelope of every published lifecycle transition.
type Event struct {
	ID             string         `json:"id"`
	Type           string         `json:"type"`
	RelationshipID uint           `json:"relationship_id,omitempty"`
	EntityID       uint           `json:"entity_id,omitempty"`
	ActorID        uint           `json:"actor_id,omitempty"`
	OccurredAt     time.Time      `json:"occurred_at"`
	Data           map[string]any `json:"data,omitempty"`
}

// NewEvent stamps an event of the given type, e.g. "relationship.accepted".
func NewEvent(eventType string, relationshipID, entityID, actorID uint) Event {
	return Event{
		ID:             uuid.NewString(),
		Type:           eventType,
		RelationshipID: relationshipID,
		EntityID:       entityID,
		ActorID:        actorID,
		OccurredAt:     time.Now().UTC(),
	}
}

// Subject returns the broker subject an event type is published on.
func Subject(eventType string) string {
	return "tether." + strings.ToLower(strings.TrimSpace(eventType))
}

// Publisher sends events to the broker. Publishing is best effort: callers
// log failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher discards events. It is used when NATS_URL is unset.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// JetStreamPublisher publishes events to the TETHER stream.
type JetStreamPublisher struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// NewJetStreamPublisher connects to url and makes sure the stream exists.
func NewJetStreamPublisher(url string) (*JetStreamPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("tether-api"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{SubjectPattern},
		Storage:  jetstream.FileStorage,
		Replicas: 1,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create stream: %w", err)
	}

	return &JetStreamPublisher{nc: nc, js: js}, nil
}

// Publish waits for the stream acknowledgement.
func (p *JetStreamPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := buildMsg(ctx, event)
	if err != nil {
		observability.EventsPublished.WithLabelValues("invalid").Inc()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	ack, err := p.js.PublishMsg(ctx, msg)
	if err != nil {
		observability.EventsPublished.WithLabelValues("failed").Inc()
		return fmt.Errorf("nats publish: %w", err)
	}
	observability.EventsPublished.WithLabelValues("published").Inc()
	slog.Debug("event published", "subject", msg.Subject, "stream", ack.Stream, "seq", ack.Sequence)
	return nil
}

// Close drains the connection so in-flight publishes finish.
func (p *JetStreamPublisher) Close() error {
	return p.nc.Drain()
}

// buildMsg encodes the event and carries the trace context and a dedupe id
// in the headers.
func buildMsg(ctx context.Context, event Event) (*nats.Msg, error) {
	if event.Type == "" {
		return nil, fmt.Errorf("event type is required")
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	msg := &nats.Msg{
		Subject: Subject(event.Type),
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set(nats.MsgIdHdr, event.ID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))
	return msg, nil
}
