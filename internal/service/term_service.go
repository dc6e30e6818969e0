package service

import (
	"context"
	"fmt"
	"strings"

	"tether/internal/events"
	"tether/internal/models"
	"tether/internal/repository"
)

const entityTerm = "term"

// ProposeTermInput carries a new term for an active relationship.
type ProposeTermInput struct {
	ActorID        uint
	RelationshipID uint
	Title          string
	Description    string
	Category       models.TermCategory
	Priority       models.Priority
}

// UpdateTermInput lists the editable fields of a term. Nil fields are left alone.
type UpdateTermInput struct {
	Title       *string
	Description *string
	Category    *models.TermCategory
	Priority    *models.Priority
}

// ReportViolationInput describes a reported breach of a term.
type ReportViolationInput struct {
	Description string
	Severity    models.ViolationSeverity
}

// TermService tracks agreement on relationship terms.
type TermService struct {
	store *repository.Store
	gate  RelationshipGate
	sideEffects
}

// NewTermService returns a new TermService.
func NewTermService(store *repository.Store, gate RelationshipGate, dispatcher Dispatcher, publisher events.Publisher) *TermService {
	return &TermService{
		store:       store,
		gate:        gate,
		sideEffects: newSideEffects(dispatcher, publisher),
	}
}

// ProposeTerm adds a proposed term to an active relationship.
func (s *TermService) ProposeTerm(ctx context.Context, in ProposeTermInput) (*models.Term, error) {
	rel, err := s.gate.RequireActiveParty(ctx, in.ActorID, in.RelationshipID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if !in.Category.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("Unknown term category %q", in.Category))
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("Unknown priority %q", in.Priority))
	}

	term := &models.Term{
		RelationshipID: rel.ID,
		CreatedBy:      in.ActorID,
		Title:          title,
		Description:    in.Description,
		Category:       in.Category,
		Priority:       in.Priority,
		Status:         models.TermStatusProposed,
	}
	if err := s.store.Terms.Create(ctx, term); err != nil {
		return nil, err
	}

	s.notify(ctx, withActions(
		withMeta(withMeta(draft(rel.OtherParty(in.ActorID), in.ActorID, models.NotificationTermProposed, models.NotificationCategoryTerm,
			"New term proposed", fmt.Sprintf("A new term was proposed: %s", term.Title)),
			"relationship_id", rel.ID), "term_id", term.ID),
		action("Agree", "agree", "POST", "/api/terms/%d/agree", term.ID),
	))
	s.committed(ctx, entityTerm, "proposed", rel.ID, term.ID, in.ActorID)

	return s.store.Terms.GetByID(ctx, term.ID)
}

// UpdateTerm edits a term owned by the actor. Any edit resets the term to
// modified and clears the agreements collected so far.
func (s *TermService) UpdateTerm(ctx context.Context, actorID, termID uint, in UpdateTermInput) (*models.Term, error) {
	term, rel, err := s.load(ctx, actorID, termID)
	if err != nil {
		return nil, err
	}
	if term.CreatedBy != actorID {
		return nil, models.NewForbiddenError("Only the creator can edit this term")
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
	if in.Category != nil {
		if !in.Category.Valid() {
			return nil, models.NewValidationError(fmt.Sprintf("Unknown term category %q", *in.Category))
		}
		updates["category"] = *in.Category
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return nil, models.NewValidationError(fmt.Sprintf("Unknown priority %q", *in.Priority))
		}
		updates["priority"] = *in.Priority
	}
	if len(updates) == 0 {
		return nil, models.NewValidationError("No updatable fields supplied")
	}
	updates["status"] = models.TermStatusModified
	updates["agreed_at"] = nil

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		ok, err := tx.Terms.UpdateWhere(ctx, termID, updates,
			repository.CreatedBy(actorID),
			repository.StatusNotIn(models.TermStatusAgreed, models.TermStatusArchived))
		if err != nil {
			return err
		}
		if !ok {
			current, err := tx.Terms.GetByID(ctx, termID)
			if err != nil {
				return err
			}
			return models.NewInvalidStateError(fmt.Sprintf("Cannot edit a term that is %s", current.Status))
		}
		return tx.Terms.ClearAgreements(ctx, termID)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, withMeta(withMeta(
		draft(rel.OtherParty(actorID), actorID, models.NotificationTermUpdated, models.NotificationCategoryTerm,
			"Term updated", fmt.Sprintf("A term was changed and needs your agreement again: %s", term.Title)),
		"relationship_id", rel.ID), "term_id", termID))
	s.committed(ctx, entityTerm, "modified", rel.ID, termID, actorID)

	return s.store.Terms.GetByID(ctx, termID)
}

// AgreeTerm records the actor's agreement. The term becomes agreed once both
// parties, and only they, have agreed.
func (s *TermService) AgreeTerm(ctx context.Context, actorID, termID uint, signature string) (*models.Term, error) {
	_, rel, err := s.load(ctx, actorID, termID)
	if err != nil {
		return nil, err
	}

	var fullyAgreed bool
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		term, err := tx.Terms.GetForUpdate(ctx, termID)
		if err != nil {
			return err
		}
		if term.HasAgreed(actorID) {
			return models.NewAlreadyDoneError(models.CodeAlreadyAgreed, "You have already agreed to this term")
		}
		if !term.Status.Open() {
			return models.NewInvalidStateError(fmt.Sprintf("Cannot agree to a term that is %s", term.Status))
		}

		if err := tx.Terms.AddAgreement(ctx, &models.TermAgreement{
			TermID:    termID,
			UserID:    actorID,
			Signature: signature,
			AgreedAt:  s.now(),
		}); err != nil {
			return err
		}

		agreements, err := tx.Terms.ListAgreements(ctx, termID)
		if err != nil {
			return err
		}
		if !agreedByBothParties(agreements, rel) {
			return nil
		}

		ok, err := tx.Terms.UpdateWhere(ctx, termID, map[string]interface{}{
			"status":    models.TermStatusAgreed,
			"agreed_at": s.now(),
		}, repository.StatusIn(models.TermStatusProposed, models.TermStatusModified))
		if err != nil {
			return err
		}
		if !ok {
			return models.NewInvalidStateError("Term changed while agreeing")
		}
		fullyAgreed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	message := "Your partner signed a term"
	if fullyAgreed {
		message = "Both of you have agreed to a term"
	}
	s.notify(ctx, withMeta(withMeta(
		draft(rel.OtherParty(actorID), actorID, models.NotificationTermAgreed, models.NotificationCategoryTerm, "Term agreed", message),
		"relationship_id", rel.ID), "term_id", termID))
	if fullyAgreed {
		s.committed(ctx, entityTerm, "agreed", rel.ID, termID, actorID)
	} else {
		s.committed(ctx, entityTerm, "signed", rel.ID, termID, actorID)
	}

	return s.store.Terms.GetByID(ctx, termID)
}

// agreedByBothParties reports whether the agreements are exactly the two
// distinct parties of rel.
func agreedByBothParties(agreements []models.TermAgreement, rel *models.Relationship) bool {
	if len(agreements) != 2 {
		return false
	}
	seen := make(map[uint]struct{}, 2)
	for _, a := range agreements {
		if !rel.IsParty(a.UserID) {
			return false
		}
		seen[a.UserID] = struct{}{}
	}
	return len(seen) == 2
}

// RejectTerm lets the party who did not propose the term turn it down.
func (s *TermService) RejectTerm(ctx context.Context, actorID, termID uint) (*models.Term, error) {
	term, rel, err := s.load(ctx, actorID, termID)
	if err != nil {
		return nil, err
	}
	if term.CreatedBy == actorID {
		return nil, models.NewForbiddenError("You cannot reject your own term")
	}

	ok, err := s.store.Terms.UpdateWhere(ctx, termID, map[string]interface{}{
		"status": models.TermStatusRejected,
	}, repository.StatusIn(models.TermStatusProposed, models.TermStatusModified))
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.store.Terms.GetByID(ctx, termID)
		if err != nil {
			return nil, err
		}
		return nil, models.NewInvalidStateError(fmt.Sprintf("Cannot reject a term that is %s", current.Status))
	}

	s.notify(ctx, withMeta(withMeta(
		draft(term.CreatedBy, actorID, models.NotificationTermRejected, models.NotificationCategoryTerm,
			"Term rejected", fmt.Sprintf("Your term was rejected: %s", term.Title)),
		"relationship_id", rel.ID), "term_id", termID))
	s.committed(ctx, entityTerm, "rejected", rel.ID, termID, actorID)

	return s.store.Terms.GetByID(ctx, termID)
}

// ReportViolation appends a violation report. It is allowed in every term status.
func (s *TermService) ReportViolation(ctx context.Context, actorID, termID uint, in ReportViolationInput) (*models.TermViolation, error) {
	term, rel, err := s.load(ctx, actorID, termID)
	if err != nil {
		return nil, err
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, models.NewValidationError("Description is required")
	}
	if in.Severity == "" {
		in.Severity = models.ViolationSeverityMinor
	}
	if !in.Severity.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("Unknown severity %q", in.Severity))
	}

	violation := &models.TermViolation{
		TermID:      termID,
		ReporterID:  actorID,
		Description: description,
		Severity:    in.Severity,
		ReportedAt:  s.now(),
	}
	if err := s.store.Terms.AddViolation(ctx, violation); err != nil {
		return nil, err
	}

	s.notify(ctx, withMeta(withMeta(withMeta(
		draft(rel.OtherParty(actorID), actorID, models.NotificationTermViolation, models.NotificationCategoryTerm,
			"Term violation reported", fmt.Sprintf("A %s violation of %q was reported", violation.Severity, term.Title)),
		"relationship_id", rel.ID), "term_id", termID), "severity", string(violation.Severity)))
	s.committed(ctx, entityTerm, "violation_reported", rel.ID, termID, actorID)

	return violation, nil
}

// ResolveViolation marks a violation resolved. It can only happen once.
func (s *TermService) ResolveViolation(ctx context.Context, actorID, termID, violationID uint) (*models.Term, error) {
	term, rel, err := s.load(ctx, actorID, termID)
	if err != nil {
		return nil, err
	}

	var found *models.TermViolation
	for i := range term.Violations {
		if term.Violations[i].ID == violationID {
			found = &term.Violations[i]
			break
		}
	}
	if found == nil {
		return nil, models.NewNotFoundError("Violation", violationID)
	}

	ok, err := s.store.Terms.ResolveViolation(ctx, termID, violationID, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewInvalidStateError("Violation is already resolved")
	}
	s.committed(ctx, entityTerm, "violation_resolved", rel.ID, termID, actorID)

	return s.store.Terms.GetByID(ctx, termID)
}

// DeleteTerm removes a term owned by the actor unless it has been agreed.
func (s *TermService) DeleteTerm(ctx context.Context, actorID, termID uint) error {
	term, rel, err := s.load(ctx, actorID, termID)
	if err != nil {
		return err
	}
	if term.CreatedBy != actorID {
		return models.NewForbiddenError("Only the creator can delete this term")
	}

	ok, err := s.store.Terms.DeleteWhere(ctx, termID,
		repository.CreatedBy(actorID), repository.StatusNotIn(models.TermStatusAgreed))
	if err != nil {
		return err
	}
	if !ok {
		return models.NewInvalidStateError("Agreed terms cannot be deleted")
	}
	s.committed(ctx, entityTerm, "deleted", rel.ID, termID, actorID)
	return nil
}

// GetTerm returns a term visible to the actor.
func (s *TermService) GetTerm(ctx context.Context, actorID, termID uint) (*models.Term, error) {
	term, _, err := s.load(ctx, actorID, termID)
	return term, err
}

// ListTerms returns the terms of a relationship the actor belongs to.
func (s *TermService) ListTerms(ctx context.Context, actorID, relationshipID uint, status models.TermStatus, limit, offset int) ([]models.Term, error) {
	if _, err := s.gate.RequireParty(ctx, actorID, relationshipID); err != nil {
		return nil, err
	}
	return s.store.Terms.ListByRelationship(ctx, relationshipID, status, limit, offset)
}

func (s *TermService) load(ctx context.Context, actorID, termID uint) (*models.Term, *models.Relationship, error) {
	term, err := s.store.Terms.GetByID(ctx, termID)
	if err != nil {
		return nil, nil, err
	}
	rel, err := s.gate.RequireParty(ctx, actorID, term.RelationshipID)
	if err != nil {
		return nil, nil, err
	}
	return term, rel, nil
}
