package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tether/internal/events"
	"tether/internal/models"
	"tether/internal/observability"
)

// Dispatcher delivers notification drafts after the triggering transition
// has committed. Delivery is best effort and never reports back.
type Dispatcher interface {
	Dispatch(ctx context.Context, notes ...*models.Notification)
}

// RelationshipGate is the membership check every coordinator runs before it
// touches a dependent record.
type RelationshipGate interface {
	RequireParty(ctx context.Context, actorID, relationshipID uint) (*models.Relationship, error)
	RequireActiveParty(ctx context.Context, actorID, relationshipID uint) (*models.Relationship, error)
}

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(context.Context, ...*models.Notification) {}

// sideEffects carries the post-commit hooks shared by all services.
type sideEffects struct {
	dispatcher Dispatcher
	publisher  events.Publisher
	now        func() time.Time
}

func newSideEffects(dispatcher Dispatcher, publisher events.Publisher) sideEffects {
	if dispatcher == nil {
		dispatcher = nopDispatcher{}
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return sideEffects{
		dispatcher: dispatcher,
		publisher:  publisher,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (e sideEffects) notify(ctx context.Context, notes ...*models.Notification) {
	e.dispatcher.Dispatch(ctx, notes...)
}

// committed records a transition that has been durably applied.
func (e sideEffects) committed(ctx context.Context, entity, transition string, relationshipID, entityID, actorID uint) {
	observability.RecordTransition(entity, transition)

	event := events.NewEvent(entity+"."+transition, relationshipID, entityID, actorID)
	if err := e.publisher.Publish(ctx, event); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "failed to publish lifecycle event",
			slog.String("event_type", event.Type),
			slog.Uint64("relationship_id", uint64(relationshipID)),
			slog.String("error", err.Error()),
		)
	}
}

// draft builds an unsaved notification from sender to recipient.
func draft(recipient, sender uint, notificationType string, category models.NotificationCategory, title, message string) *models.Notification {
	n := &models.Notification{
		RecipientID: recipient,
		Type:        notificationType,
		Title:       title,
		Message:     message,
		Category:    category,
		Metadata:    map[string]any{},
	}
	if sender != 0 {
		s := sender
		n.SenderID = &s
	}
	return n
}

func withMeta(n *models.Notification, key string, value any) *models.Notification {
	n.Metadata[key] = value
	return n
}

func withActions(n *models.Notification, actions ...models.NotificationAction) *models.Notification {
	n.ActionRequired = len(actions) > 0
	n.Actions = actions
	return n
}

func action(label, name, method, format string, args ...any) models.NotificationAction {
	return models.NotificationAction{
		Label:  label,
		Action: name,
		Method: method,
		URL:    fmt.Sprintf(format, args...),
	}
}

func displayName(u *models.User) string {
	if u == nil {
		return "Someone"
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
