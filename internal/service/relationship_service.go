package service

import (
	"context"
	"fmt"
	"strings"

	"tether/internal/events"
	"tether/internal/models"
	"tether/internal/repository"
)

const entityRelationship = "relationship"

// ProposeRelationshipInput carries a new relationship proposal.
type ProposeRelationshipInput struct {
	ActorID      uint
	PartnerEmail string
	Title        string
	Type         models.RelationshipType
	Description  string
	Visibility   models.RelationshipVisibility
}

// UpdateRelationshipInput lists the fields a party may change on an active
// relationship. Nil fields are left alone.
type UpdateRelationshipInput struct {
	Title       *string
	Description *string
	Type        *models.RelationshipType
	Visibility  *models.RelationshipVisibility
}

// ListRelationshipsInput selects a page of the actor's relationships.
type ListRelationshipsInput struct {
	ActorID uint
	Status  models.RelationshipStatus
	Limit   int
	Offset  int
}

// RelationshipService owns the relationship state machine. Every transition
// is a guarded write; a write that matches no row is reported as an error.
type RelationshipService struct {
	store *repository.Store
	sideEffects
}

// NewRelationshipService returns a new RelationshipService.
func NewRelationshipService(store *repository.Store, dispatcher Dispatcher, publisher events.Publisher) *RelationshipService {
	return &RelationshipService{
		store:       store,
		sideEffects: newSideEffects(dispatcher, publisher),
	}
}

// ProposeRelationship creates a pending relationship and invites the partner.
func (s *RelationshipService) ProposeRelationship(ctx context.Context, in ProposeRelationshipInput) (*models.Relationship, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if !in.Type.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("Unknown relationship type %q", in.Type))
	}
	if in.Visibility != "" && !in.Visibility.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("Unknown visibility %q", in.Visibility))
	}

	partner, err := s.store.Users.GetByEmail(ctx, in.PartnerEmail)
	if err != nil {
		return nil, err
	}
	if partner == nil {
		return nil, models.NewNotFoundError("User", in.PartnerEmail)
	}
	if partner.ID == in.ActorID {
		return nil, models.NewSelfReferenceError("You cannot start a relationship with yourself")
	}

	existing, err := s.store.Relationships.FindByPair(ctx, in.ActorID, partner.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("A relationship between these users already exists")
	}

	rel := &models.Relationship{
		Title:       title,
		Description: in.Description,
		Type:        in.Type,
		Visibility:  in.Visibility,
		Status:      models.RelationshipStatusPending,
		InitiatorID: in.ActorID,
		PartnerID:   partner.ID,
		StartDate:   s.now(),
	}
	// Concurrent proposals for the same pair race past the check above; the
	// unique pair index turns the loser into a conflict.
	if err := s.store.Relationships.Create(ctx, rel); err != nil {
		return nil, err
	}

	initiator, _ := s.store.Users.GetByID(ctx, in.ActorID)
	s.notify(ctx, withActions(
		withMeta(draft(partner.ID, in.ActorID, models.NotificationRelationshipRequest, models.NotificationCategoryRelationship,
			"New relationship request",
			fmt.Sprintf("%s wants to start a %s relationship: %s", displayName(initiator), strings.ReplaceAll(string(rel.Type), "_", " "), rel.Title),
		), "relationship_id", rel.ID),
		action("Accept", "accept", "POST", "/api/relationships/%d/accept", rel.ID),
		action("Decline", "decline", "POST", "/api/relationships/%d/decline", rel.ID),
	))
	s.committed(ctx, entityRelationship, "proposed", rel.ID, rel.ID, in.ActorID)

	return s.store.Relationships.GetWithParties(ctx, rel.ID)
}

// AcceptRelationship activates a pending relationship. Only the partner may accept.
func (s *RelationshipService) AcceptRelationship(ctx context.Context, actorID, id uint) (*models.Relationship, error) {
	rel, err := s.RequireParty(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if rel.PartnerID != actorID {
		return nil, models.NewForbiddenError("Only the invited partner can accept this relationship")
	}

	ok, err := s.store.Relationships.UpdateWhere(ctx, id, map[string]interface{}{
		"status":        models.RelationshipStatusActive,
		"accepted_date": s.now(),
	}, repository.StatusIn(models.RelationshipStatusPending), repository.PartnerIs(actorID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.transitionFailed(ctx, id, "accept")
	}

	s.notify(ctx, withMeta(
		draft(rel.InitiatorID, actorID, models.NotificationRelationshipAccepted, models.NotificationCategoryRelationship,
			"Relationship accepted", fmt.Sprintf("Your relationship request %q was accepted", rel.Title)),
		"relationship_id", id))
	s.committed(ctx, entityRelationship, "accepted", id, id, actorID)

	return s.store.Relationships.GetWithParties(ctx, id)
}

// DeclineRelationship deletes a pending relationship. Only the partner may decline.
func (s *RelationshipService) DeclineRelationship(ctx context.Context, actorID, id uint) (*models.Relationship, error) {
	rel, err := s.RequireParty(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if rel.PartnerID != actorID {
		return nil, models.NewForbiddenError("Only the invited partner can decline this relationship")
	}

	ok, err := s.store.Relationships.DeleteWhere(ctx, id,
		repository.StatusIn(models.RelationshipStatusPending), repository.PartnerIs(actorID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.transitionFailed(ctx, id, "decline")
	}

	s.notify(ctx, withMeta(
		draft(rel.InitiatorID, actorID, models.NotificationRelationshipDeclined, models.NotificationCategoryRelationship,
			"Relationship declined", fmt.Sprintf("Your relationship request %q was declined", rel.Title)),
		"relationship_id", id))
	s.committed(ctx, entityRelationship, "declined", id, id, actorID)

	return rel, nil
}

// RequestBreakup asks the other party to confirm ending an active relationship.
func (s *RelationshipService) RequestBreakup(ctx context.Context, actorID, id uint) (*models.Relationship, error) {
	rel, err := s.RequireParty(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.store.Relationships.UpdateWhere(ctx, id, map[string]interface{}{
		"status":               models.RelationshipStatusRequestedBreakup,
		"breakup_requested_by": actorID,
	}, repository.StatusIn(models.RelationshipStatusActive), repository.PartyOf(actorID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.transitionFailed(ctx, id, "request a breakup of")
	}

	s.notify(ctx, withActions(
		withMeta(draft(rel.OtherParty(actorID), actorID, models.NotificationBreakupRequested, models.NotificationCategoryRelationship,
			"Breakup requested", fmt.Sprintf("A breakup of %q was requested and needs your confirmation", rel.Title)),
			"relationship_id", id),
		action("Confirm", "confirm_breakup", "POST", "/api/relationships/%d/breakup/confirm", id),
		action("Cancel", "cancel_breakup", "POST", "/api/relationships/%d/breakup/cancel", id),
	))
	s.committed(ctx, entityRelationship, "breakup_requested", id, id, actorID)

	return s.store.Relationships.GetWithParties(ctx, id)
}

// ConfirmBreakup ends the relationship. The requester cannot confirm their own request.
func (s *RelationshipService) ConfirmBreakup(ctx context.Context, actorID, id uint) (*models.Relationship, error) {
	rel, err := s.RequireParty(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.store.Relationships.UpdateWhere(ctx, id, map[string]interface{}{
		"status":               models.RelationshipStatusEnded,
		"end_date":             s.now(),
		"breakup_requested_by": nil,
	},
		repository.StatusIn(models.RelationshipStatusRequestedBreakup),
		repository.PartyOf(actorID),
		repository.BreakupNotRequestedBy(actorID),
	)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.store.Relationships.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Status == models.RelationshipStatusRequestedBreakup &&
			current.BreakupRequestedBy != nil && *current.BreakupRequestedBy == actorID {
			return nil, models.NewForbiddenError("The party who requested the breakup cannot confirm it")
		}
		return nil, stateError("confirm a breakup of", current.Status)
	}

	requester := rel.OtherParty(actorID)
	s.notify(ctx, withMeta(
		draft(requester, actorID, models.NotificationBreakupConfirmed, models.NotificationCategoryRelationship,
			"Breakup confirmed", fmt.Sprintf("Your breakup request for %q was confirmed", rel.Title)),
		"relationship_id", id))
	s.committed(ctx, entityRelationship, "ended", id, id, actorID)

	return s.store.Relationships.GetWithParties(ctx, id)
}

// CancelBreakupRequest reactivates the relationship. Only the requester may cancel.
func (s *RelationshipService) CancelBreakupRequest(ctx context.Context, actorID, id uint) (*models.Relationship, error) {
	rel, err := s.RequireParty(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.store.Relationships.UpdateWhere(ctx, id, map[string]interface{}{
		"status":               models.RelationshipStatusActive,
		"breakup_requested_by": nil,
	}, repository.StatusIn(models.RelationshipStatusRequestedBreakup), repository.BreakupRequestedBy(actorID))
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.store.Relationships.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Status == models.RelationshipStatusRequestedBreakup {
			return nil, models.NewForbiddenError("Only the party who requested the breakup can cancel it")
		}
		return nil, stateError("cancel a breakup request of", current.Status)
	}

	s.notify(ctx, withMeta(
		draft(rel.OtherParty(actorID), actorID, models.NotificationBreakupCancelled, models.NotificationCategoryRelationship,
			"Breakup request cancelled", fmt.Sprintf("The breakup request for %q was withdrawn", rel.Title)),
		"relationship_id", id))
	s.committed(ctx, entityRelationship, "breakup_cancelled", id, id, actorID)

	return s.store.Relationships.GetWithParties(ctx, id)
}

// ArchiveOrDeleteRelationship deletes a pending relationship or archives an
// active one. It reports whether the row was deleted.
func (s *RelationshipService) ArchiveOrDeleteRelationship(ctx context.Context, actorID, id uint) (*models.Relationship, bool, error) {
	rel, err := s.RequireParty(ctx, actorID, id)
	if err != nil {
		return nil, false, err
	}

	if rel.Status == models.RelationshipStatusPending {
		deleted, err := s.store.Relationships.DeleteWhere(ctx, id,
			repository.StatusIn(models.RelationshipStatusPending), repository.PartyOf(actorID))
		if err != nil {
			return nil, false, err
		}
		if deleted {
			s.notify(ctx, withMeta(
				draft(rel.OtherParty(actorID), actorID, models.NotificationRelationshipDeleted, models.NotificationCategoryRelationship,
					"Relationship removed", fmt.Sprintf("The relationship request %q was withdrawn", rel.Title)),
				"relationship_id", id))
			s.committed(ctx, entityRelationship, "deleted", id, id, actorID)
			return rel, true, nil
		}
		// Accepted in the meantime; fall through to archiving.
	}

	ok, err := s.store.Relationships.UpdateWhere(ctx, id, map[string]interface{}{
		"status":   models.RelationshipStatusArchived,
		"end_date": s.now(),
	}, repository.StatusIn(models.RelationshipStatusActive), repository.PartyOf(actorID))
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, s.transitionFailed(ctx, id, "archive")
	}

	s.notify(ctx, withMeta(
		draft(rel.OtherParty(actorID), actorID, models.NotificationRelationshipArchived, models.NotificationCategoryRelationship,
			"Relationship archived", fmt.Sprintf("%q was archived", rel.Title)),
		"relationship_id", id))
	s.committed(ctx, entityRelationship, "archived", id, id, actorID)

	archived, err := s.store.Relationships.GetWithParties(ctx, id)
	return archived, false, err
}

// UpdateRelationship merges whitelisted descriptive fields into an active relationship.
func (s *RelationshipService) UpdateRelationship(ctx context.Context, actorID, id uint, in UpdateRelationshipInput) (*models.Relationship, error) {
	if _, err := s.RequireParty(ctx, actorID, id); err != nil {
		return nil, err
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
			return nil, models.NewValidationError(fmt.Sprintf("Unknown relationship type %q", *in.Type))
		}
		updates["type"] = *in.Type
	}
	if in.Visibility != nil {
		if !in.Visibility.Valid() {
			return nil, models.NewValidationError(fmt.Sprintf("Unknown visibility %q", *in.Visibility))
		}
		updates["visibility"] = *in.Visibility
	}
	if len(updates) == 0 {
		return nil, models.NewValidationError("No updatable fields supplied")
	}

	ok, err := s.store.Relationships.UpdateWhere(ctx, id, updates,
		repository.StatusIn(models.RelationshipStatusActive), repository.PartyOf(actorID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.transitionFailed(ctx, id, "update")
	}
	return s.store.Relationships.GetWithParties(ctx, id)
}

// ListRelationships returns the actor's relationships, newest first.
func (s *RelationshipService) ListRelationships(ctx context.Context, in ListRelationshipsInput) ([]models.Relationship, error) {
	return s.store.Relationships.ListForUser(ctx, in.ActorID, in.Status, in.Limit, in.Offset)
}

// GetRelationship returns the relationship with both parties loaded.
func (s *RelationshipService) GetRelationship(ctx context.Context, actorID, id uint) (*models.Relationship, error) {
	rel, err := s.store.Relationships.GetWithParties(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rel.IsParty(actorID) {
		return nil, models.NewForbiddenError("You are not a party to this relationship")
	}
	return rel, nil
}

// RequireParty loads the relationship and checks that actorID belongs to it.
func (s *RelationshipService) RequireParty(ctx context.Context, actorID, relationshipID uint) (*models.Relationship, error) {
	rel, err := s.store.Relationships.GetByID(ctx, relationshipID)
	if err != nil {
		return nil, err
	}
	if !rel.IsParty(actorID) {
		return nil, models.NewForbiddenError("You are not a party to this relationship")
	}
	return rel, nil
}

// RequireActiveParty is RequireParty plus an active status check.
func (s *RelationshipService) RequireActiveParty(ctx context.Context, actorID, relationshipID uint) (*models.Relationship, error) {
	rel, err := s.RequireParty(ctx, actorID, relationshipID)
	if err != nil {
		return nil, err
	}
	if rel.Status != models.RelationshipStatusActive {
		return nil, models.NewInvalidStateError(fmt.Sprintf("Relationship is %s, not active", rel.Status))
	}
	return rel, nil
}

// transitionFailed explains a guarded write that matched no row.
func (s *RelationshipService) transitionFailed(ctx context.Context, id uint, verb string) error {
	current, err := s.store.Relationships.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return stateError(verb, current.Status)
}

func stateError(verb string, status models.RelationshipStatus) error {
	return models.NewInvalidStateError(fmt.Sprintf("Cannot %s a relationship that is %s", verb, status))
}
