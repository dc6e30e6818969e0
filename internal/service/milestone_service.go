package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tether/internal/events"
	"tether/internal/models"
	"tether/internal/repository"
	"tether/internal/validation"
)

const entityMilestone = "milestone"

// CertificateIssuer issues certificates inside a caller's transaction.
type CertificateIssuer interface {
	IssueTx(ctx context.Context, tx *repository.Store, in IssueCertificateInput) (*models.Certificate, error)
}

// CreateMilestoneInput carries a new milestone for an active relationship.
type CreateMilestoneInput struct {
	ActorID           uint
	RelationshipID    uint
	Title             string
	Description       string
	Category          models.MilestoneCategory
	Difficulty        models.Difficulty
	TargetDate        *time.Time
	Criteria          []string
	RewardCertificate bool
	RewardPoints      int
}

// UpdateMilestoneInput lists the editable fields of a milestone.
type UpdateMilestoneInput struct {
	Title             *string
	Description       *string
	Category          *models.MilestoneCategory
	Difficulty        *models.Difficulty
	TargetDate        *time.Time
	RewardCertificate *bool
	RewardPoints      *int
}

// AddEvidenceInput is proof attached to a milestone.
type AddEvidenceInput struct {
	Description string
	URL         string
}

// MilestoneService tracks relationship goals and their completion.
type MilestoneService struct {
	store  *repository.Store
	gate   RelationshipGate
	issuer CertificateIssuer
	sideEffects
}

// NewMilestoneService returns a new MilestoneService.
func NewMilestoneService(store *repository.Store, gate RelationshipGate, issuer CertificateIssuer, dispatcher Dispatcher, publisher events.Publisher) *MilestoneService {
	return &MilestoneService{
		store:       store,
		gate:        gate,
		issuer:      issuer,
		sideEffects: newSideEffects(dispatcher, publisher),
	}
}

// CreateMilestone adds a pending milestone with the actor as its first participant.
func (s *MilestoneService) CreateMilestone(ctx context.Context, in CreateMilestoneInput) (*models.Milestone, error) {
	rel, err := s.gate.RequireActiveParty(ctx, in.ActorID, in.RelationshipID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if in.Category == "" {
		in.Category = models.MilestoneCategoryCustom
	}
	if !in.Category.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("Unknown milestone category %q", in.Category))
	}
	if in.Difficulty == "" {
		in.Difficulty = models.DifficultyMedium
	}
	if !in.Difficulty.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("Unknown difficulty %q", in.Difficulty))
	}
	if in.RewardPoints < 0 {
		return nil, models.NewValidationError("Reward points cannot be negative")
	}

	now := s.now()
	milestone := &models.Milestone{
		RelationshipID:    rel.ID,
		CreatedBy:         in.ActorID,
		Title:             title,
		Description:       in.Description,
		Category:          in.Category,
		Difficulty:        in.Difficulty,
		Status:            models.MilestoneStatusPending,
		TargetDate:        in.TargetDate,
		RewardCertificate: in.RewardCertificate,
		RewardPoints:      in.RewardPoints,
		Participants: []models.MilestoneParticipant{{
			UserID:   in.ActorID,
			Role:     models.ParticipantRoleCreator,
			JoinedAt: now,
		}},
	}
	for _, name := range in.Criteria {
		if name = strings.TrimSpace(name); name != "" {
			milestone.Criteria = append(milestone.Criteria, models.MilestoneCriterion{Name: name})
		}
	}
	if err := s.store.Milestones.Create(ctx, milestone); err != nil {
		return nil, err
	}

	s.notify(ctx, withMeta(withMeta(
		draft(rel.OtherParty(in.ActorID), in.ActorID, models.NotificationMilestoneCreated, models.NotificationCategoryMilestone,
			"New milestone", fmt.Sprintf("A new milestone was set: %s", milestone.Title)),
		"relationship_id", rel.ID), "milestone_id", milestone.ID))
	s.committed(ctx, entityMilestone, "created", rel.ID, milestone.ID, in.ActorID)

	return s.store.Milestones.GetByID(ctx, milestone.ID)
}

// UpdateMilestone edits a milestone owned by the actor until it is completed.
func (s *MilestoneService) UpdateMilestone(ctx context.Context, actorID, id uint, in UpdateMilestoneInput) (*models.Milestone, error) {
	milestone, rel, err := s.load(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if milestone.CreatedBy != actorID {
		return nil, models.NewForbiddenError("Only the creator can edit this milestone")
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
			return nil, models.NewValidationError(fmt.Sprintf("Unknown milestone category %q", *in.Category))
		}
		updates["category"] = *in.Category
	}
	if in.Difficulty != nil {
		if !in.Difficulty.Valid() {
			return nil, models.NewValidationError(fmt.Sprintf("Unknown difficulty %q", *in.Difficulty))
		}
		updates["difficulty"] = *in.Difficulty
	}
	if in.TargetDate != nil {
		updates["target_date"] = *in.TargetDate
	}
	if in.RewardCertificate != nil {
		updates["reward_certificate"] = *in.RewardCertificate
	}
	if in.RewardPoints != nil {
		if *in.RewardPoints < 0 {
			return nil, models.NewValidationError("Reward points cannot be negative")
		}
		updates["reward_points"] = *in.RewardPoints
	}
	if len(updates) == 0 {
		return nil, models.NewValidationError("No updatable fields supplied")
	}

	ok, err := s.store.Milestones.UpdateWhere(ctx, id, updates,
		repository.CreatedBy(actorID), repository.StatusNotIn(models.MilestoneStatusCompleted))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewInvalidStateError("Completed milestones cannot be edited")
	}
	s.committed(ctx, entityMilestone, "updated", rel.ID, id, actorID)

	return s.store.Milestones.GetByID(ctx, id)
}

// AddEvidence appends proof to an unfinished milestone and marks it in progress.
func (s *MilestoneService) AddEvidence(ctx context.Context, actorID, id uint, in AddEvidenceInput) (*models.Milestone, error) {
	_, rel, err := s.load(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	description := strings.TrimSpace(in.Description)
	if description == "" && strings.TrimSpace(in.URL) == "" {
		return nil, models.NewValidationError("Evidence needs a description or a URL")
	}
	if err := validation.ValidateLinkURL(in.URL); err != nil {
		return nil, models.NewValidationError("Evidence " + err.Error())
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		ok, err := tx.Milestones.UpdateWhere(ctx, id, map[string]interface{}{
			"status": models.MilestoneStatusInProgress,
		}, repository.StatusIn(models.MilestoneStatusPending, models.MilestoneStatusInProgress))
		if err != nil {
			return err
		}
		if !ok {
			current, err := tx.Milestones.GetByID(ctx, id)
			if err != nil {
				return err
			}
			return models.NewInvalidStateError(fmt.Sprintf("Cannot add evidence to a milestone that is %s", current.Status))
		}
		return tx.Milestones.AddEvidence(ctx, &models.MilestoneEvidence{
			MilestoneID: id,
			SubmittedBy: actorID,
			Description: description,
			URL:         strings.TrimSpace(in.URL),
			SubmittedAt: s.now(),
		})
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, entityMilestone, "evidence_added", rel.ID, id, actorID)

	return s.store.Milestones.GetByID(ctx, id)
}

// CompleteCriterion marks one custom criterion of an unfinished milestone done.
func (s *MilestoneService) CompleteCriterion(ctx context.Context, actorID, id, criterionID uint) (*models.Milestone, error) {
	milestone, rel, err := s.load(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if !milestone.Editable() {
		return nil, models.NewInvalidStateError("Milestone is already completed")
	}

	var found bool
	for _, c := range milestone.Criteria {
		if c.ID == criterionID {
			found = true
			break
		}
	}
	if !found {
		return nil, models.NewNotFoundError("Criterion", criterionID)
	}

	ok, err := s.store.Milestones.CompleteCriterion(ctx, id, criterionID, actorID, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewInvalidStateError("Criterion is already completed")
	}
	s.committed(ctx, entityMilestone, "criterion_completed", rel.ID, id, actorID)

	return s.store.Milestones.GetByID(ctx, id)
}

// CompleteMilestone completes a milestone exactly once. In one transaction it
// records the completer, bumps the relationship counter and, when the
// milestone carries a certificate reward, issues it to both parties.
func (s *MilestoneService) CompleteMilestone(ctx context.Context, actorID, id uint) (*models.Milestone, *models.Certificate, error) {
	_, rel, err := s.load(ctx, actorID, id)
	if err != nil {
		return nil, nil, err
	}

	var (
		completed *models.Milestone
		cert      *models.Certificate
	)
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		now := s.now()
		ok, err := tx.Milestones.UpdateWhere(ctx, id, map[string]interface{}{
			"status":       models.MilestoneStatusCompleted,
			"completed_at": now,
			"completed_by": actorID,
		}, repository.StatusIn(models.MilestoneStatusPending, models.MilestoneStatusInProgress))
		if err != nil {
			return err
		}
		if !ok {
			current, err := tx.Milestones.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if current.Status == models.MilestoneStatusCompleted {
				return models.NewAlreadyDoneError(models.CodeAlreadyCompleted, "Milestone is already completed")
			}
			return models.NewInvalidStateError(fmt.Sprintf("Cannot complete a milestone that is %s", current.Status))
		}

		if err := tx.Milestones.AddParticipant(ctx, &models.MilestoneParticipant{
			MilestoneID: id,
			UserID:      actorID,
			Role:        models.ParticipantRoleCompleter,
			JoinedAt:    now,
		}); err != nil {
			return err
		}
		if err := tx.Relationships.IncrementMilestones(ctx, rel.ID, now); err != nil {
			return err
		}

		// Re-read under the completion write so the reward flag cannot race an edit.
		completed, err = tx.Milestones.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !completed.RewardCertificate || s.issuer == nil {
			return nil
		}

		parties := rel.Parties()
		cert, err = s.issuer.IssueTx(ctx, tx, IssueCertificateInput{
			Subject:        models.MilestoneRef{MilestoneID: id},
			RelationshipID: rel.ID,
			Title:          completed.Title,
			Description:    completed.Description,
			Recipients:     parties[:],
			Level:          completed.Difficulty.CertificateLevel(),
			IssuedBy:       actorID,
		})
		if err != nil {
			return err
		}
		if _, err := tx.Milestones.UpdateWhere(ctx, id, map[string]interface{}{"certificate_id": cert.ID}); err != nil {
			return err
		}
		return tx.Relationships.SetLatestCertificate(ctx, rel.ID, cert.ID)
	})
	if err != nil {
		return nil, nil, err
	}

	var notes []*models.Notification
	for _, party := range rel.Parties() {
		notes = append(notes, withMeta(withMeta(
			draft(party, actorID, models.NotificationMilestoneCompleted, models.NotificationCategoryMilestone,
				"Milestone completed", fmt.Sprintf("Milestone achieved: %s", completed.Title)),
			"relationship_id", rel.ID), "milestone_id", id))
		if cert != nil {
			notes = append(notes, certificateAwarded(cert, party, actorID))
		}
	}
	s.notify(ctx, notes...)
	s.committed(ctx, entityMilestone, "completed", rel.ID, id, actorID)
	if cert != nil {
		s.committed(ctx, entityCertificate, "issued", rel.ID, cert.ID, actorID)
	}

	milestone, err := s.store.Milestones.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return milestone, cert, nil
}

// DeleteMilestone removes a milestone owned by the actor unless it is completed.
func (s *MilestoneService) DeleteMilestone(ctx context.Context, actorID, id uint) error {
	milestone, rel, err := s.load(ctx, actorID, id)
	if err != nil {
		return err
	}
	if milestone.CreatedBy != actorID {
		return models.NewForbiddenError("Only the creator can delete this milestone")
	}

	ok, err := s.store.Milestones.DeleteWhere(ctx, id,
		repository.CreatedBy(actorID), repository.StatusNotIn(models.MilestoneStatusCompleted))
	if err != nil {
		return err
	}
	if !ok {
		return models.NewInvalidStateError("Completed milestones cannot be deleted")
	}
	s.committed(ctx, entityMilestone, "deleted", rel.ID, id, actorID)
	return nil
}

// GetMilestone returns a milestone visible to the actor.
func (s *MilestoneService) GetMilestone(ctx context.Context, actorID, id uint) (*models.Milestone, error) {
	milestone, _, err := s.load(ctx, actorID, id)
	return milestone, err
}

// ListMilestones returns the milestones of a relationship the actor belongs to.
func (s *MilestoneService) ListMilestones(ctx context.Context, actorID, relationshipID uint, status models.MilestoneStatus, limit, offset int) ([]models.Milestone, error) {
	if _, err := s.gate.RequireParty(ctx, actorID, relationshipID); err != nil {
		return nil, err
	}
	return s.store.Milestones.ListByRelationship(ctx, relationshipID, status, limit, offset)
}

func (s *MilestoneService) load(ctx context.Context, actorID, id uint) (*models.Milestone, *models.Relationship, error) {
	milestone, err := s.store.Milestones.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rel, err := s.gate.RequireParty(ctx, actorID, milestone.RelationshipID)
	if err != nil {
		return nil, nil, err
	}
	return milestone, rel, nil
}
