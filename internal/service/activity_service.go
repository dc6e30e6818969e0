package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tether/internal/events"
	"tether/internal/models"
	"tether/internal/repository"
)

const entityActivity = "activity"

// CreateActivityInput logs an activity against an active relationship.
// TrustChange is applied to the relationship trust level and clamped there.
type CreateActivityInput struct {
	ActorID        uint
	RelationshipID uint
	Title          string
	Description    string
	Type           models.ActivityType
	Category       models.ActivityCategory
	Mood           models.Mood
	TrustChange    int
	Location       string
	OccurredAt     *time.Time
}

// UpdateActivityInput lists the editable fields of an activity. The trust
// impact is fixed once logged.
type UpdateActivityInput struct {
	Title       *string
	Description *string
	Type        *models.ActivityType
	Category    *models.ActivityCategory
	Mood        *models.Mood
	Location    *string
	OccurredAt  *time.Time
}

// ActivityService logs shared activities and their social feedback.
type ActivityService struct {
	store *repository.Store
	gate  RelationshipGate
	sideEffects
}

// NewActivityService returns a new ActivityService.
func NewActivityService(store *repository.Store, gate RelationshipGate, dispatcher Dispatcher, publisher events.Publisher) *ActivityService {
	return &ActivityService{
		store:       store,
		gate:        gate,
		sideEffects: newSideEffects(dispatcher, publisher),
	}
}

// CreateActivity inserts the activity and applies its impact to the
// relationship stats in one transaction.
func (s *ActivityService) CreateActivity(ctx context.Context, in CreateActivityInput) (*models.Activity, error) {
	rel, err := s.gate.RequireActiveParty(ctx, in.ActorID, in.RelationshipID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if !in.Type.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("Unknown activity type %q", in.Type))
	}
	if in.Category == "" {
		in.Category = models.ActivityCategoryOther
	}
	if !in.Category.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("Unknown activity category %q", in.Category))
	}
	if in.Mood != "" && !in.Mood.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("Unknown mood %q", in.Mood))
	}

	now := s.now()
	occurredAt := now
	if in.OccurredAt != nil {
		occurredAt = in.OccurredAt.UTC()
	}
	activity := &models.Activity{
		RelationshipID: rel.ID,
		CreatedBy:      in.ActorID,
		Title:          title,
		Description:    in.Description,
		Type:           in.Type,
		Category:       in.Category,
		Mood:           in.Mood,
		TrustChange:    in.TrustChange,
		Location:       strings.TrimSpace(in.Location),
		OccurredAt:     occurredAt,
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Activities.Create(ctx, activity); err != nil {
			return err
		}
		return tx.Relationships.ApplyActivity(ctx, rel.ID, in.TrustChange, now)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, withMeta(withMeta(
		draft(rel.OtherParty(in.ActorID), in.ActorID, models.NotificationActivityLogged, models.NotificationCategoryActivity,
			"New activity", fmt.Sprintf("%s logged an activity: %s", displayName(s.user(ctx, in.ActorID)), activity.Title)),
		"relationship_id", rel.ID), "activity_id", activity.ID))
	s.committed(ctx, entityActivity, "created", rel.ID, activity.ID, in.ActorID)

	return s.store.Activities.GetByID(ctx, activity.ID)
}

// UpdateActivity edits an activity owned by the actor.
func (s *ActivityService) UpdateActivity(ctx context.Context, actorID, id uint, in UpdateActivityInput) (*models.Activity, error) {
	activity, rel, err := s.load(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if activity.CreatedBy != actorID {
		return nil, models.NewForbiddenError("Only the creator can edit this activity")
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, models.NewValidationError("Title cannot be empty")
		}
		updates["title"] = title
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Type != nil {
		if !in.Type.Valid() {
			return nil, models.NewValidationError(fmt.Sprintf("Unknown activity type %q", *in.Type))
		}
		updates["type"] = *in.Type
	}
	if in.Category != nil {
		if !in.Category.Valid() {
			return nil, models.NewValidationError(fmt.Sprintf("Unknown activity category %q", *in.Category))
		}
		updates["category"] = *in.Category
	}
	if in.Mood != nil {
		if *in.Mood != "" && !in.Mood.Valid() {
			return nil, models.NewValidationError(fmt.Sprintf("Unknown mood %q", *in.Mood))
		}
		updates["mood"] = *in.Mood
	}
	if in.Location != nil {
		updates["location"] = strings.TrimSpace(*in.Location)
	}
	if in.OccurredAt != nil {
		updates["occurred_at"] = in.OccurredAt.UTC()
	}
	if len(updates) == 0 {
		return nil, models.NewValidationError("No updatable fields supplied")
	}

	ok, err := s.store.Activities.UpdateWhere(ctx, id, updates, repository.CreatedBy(actorID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewNotFoundError("Activity", id)
	}
	s.committed(ctx, entityActivity, "updated", rel.ID, id, actorID)

	return s.store.Activities.GetByID(ctx, id)
}

// DeleteActivity removes an activity owned by the actor and decrements the
// relationship activity count. The trust impact is not reverted.
func (s *ActivityService) DeleteActivity(ctx context.Context, actorID, id uint) error {
	activity, rel, err := s.load(ctx, actorID, id)
	if err != nil {
		return err
	}
	if activity.CreatedBy != actorID {
		return models.NewForbiddenError("Only the creator can delete this activity")
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		ok, err := tx.Activities.DeleteWhere(ctx, id, repository.CreatedBy(actorID))
		if err != nil {
			return err
		}
		if !ok {
			return models.NewNotFoundError("Activity", id)
		}
		return tx.Relationships.RevertActivity(ctx, rel.ID)
	})
	if err != nil {
		return err
	}
	s.committed(ctx, entityActivity, "deleted", rel.ID, id, actorID)
	return nil
}

// AddReaction sets the actor's reaction, replacing any earlier one.
func (s *ActivityService) AddReaction(ctx context.Context, actorID, id uint, reaction models.ReactionType) (*models.Activity, error) {
	activity, rel, err := s.load(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if !reaction.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("Unknown reaction %q", reaction))
	}

	if err := s.store.Activities.UpsertReaction(ctx, &models.ActivityReaction{
		ActivityID: id,
		UserID:     actorID,
		Reaction:   reaction,
	}); err != nil {
		return nil, err
	}

	if activity.CreatedBy != actorID {
		s.notify(ctx, withMeta(withMeta(withMeta(
			draft(activity.CreatedBy, actorID, models.NotificationActivityReaction, models.NotificationCategoryActivity,
				"New reaction", fmt.Sprintf("Someone reacted to %s", activity.Title)),
			"relationship_id", rel.ID), "activity_id", id), "reaction", string(reaction)))
	}
	s.committed(ctx, entityActivity, "reacted", rel.ID, id, actorID)

	return s.store.Activities.GetByID(ctx, id)
}

// AddComment appends a comment from any party.
func (s *ActivityService) AddComment(ctx context.Context, actorID, id uint, content string) (*models.ActivityComment, error) {
	activity, rel, err := s.load(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("Comment cannot be empty")
	}

	comment := &models.ActivityComment{
		ActivityID: id,
		UserID:     actorID,
		Content:    content,
	}
	if err := s.store.Activities.AddComment(ctx, comment); err != nil {
		return nil, err
	}

	if activity.CreatedBy != actorID {
		s.notify(ctx, withMeta(withMeta(
			draft(activity.CreatedBy, actorID, models.NotificationActivityComment, models.NotificationCategoryActivity,
				"New comment", fmt.Sprintf("New comment on %s", activity.Title)),
			"relationship_id", rel.ID), "activity_id", id))
	}
	s.committed(ctx, entityActivity, "commented", rel.ID, id, actorID)

	return comment, nil
}

// GetActivity returns an activity visible to the actor.
func (s *ActivityService) GetActivity(ctx context.Context, actorID, id uint) (*models.Activity, error) {
	activity, _, err := s.load(ctx, actorID, id)
	return activity, err
}

// ListActivities returns the activities of a relationship the actor belongs to.
func (s *ActivityService) ListActivities(ctx context.Context, actorID, relationshipID uint, limit, offset int) ([]models.Activity, error) {
	if _, err := s.gate.RequireParty(ctx, actorID, relationshipID); err != nil {
		return nil, err
	}
	return s.store.Activities.ListByRelationship(ctx, relationshipID, limit, offset)
}

func (s *ActivityService) load(ctx context.Context, actorID, id uint) (*models.Activity, *models.Relationship, error) {
	activity, err := s.store.Activities.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rel, err := s.gate.RequireParty(ctx, actorID, activity.RelationshipID)
	if err != nil {
		return nil, nil, err
	}
	return activity, rel, nil
}

// user is a best-effort directory lookup for notification text.
func (s *ActivityService) user(ctx context.Context, id uint) *models.User {
	u, err := s.store.Users.GetByID(ctx, id)
	if err != nil {
		return nil
	}
	return u
}
