package repository

import (
	"context"
	"errors"
	"time"

	"tether/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MilestoneRepository persists milestones with their criteria, evidence and participants.
type MilestoneRepository interface {
	Create(ctx context.Context, milestone *models.Milestone) error
	GetByID(ctx context.Context, id uint) (*models.Milestone, error)
	ListByRelationship(ctx context.Context, relationshipID uint, status models.MilestoneStatus, limit, offset int) ([]models.Milestone, error)
	UpdateWhere(ctx context.Context, id uint, updates map[string]interface{}, guards ...Guard) (bool, error)
	DeleteWhere(ctx context.Context, id uint, guards ...Guard) (bool, error)

	AddEvidence(ctx context.Context, evidence *models.MilestoneEvidence) error
	AddParticipant(ctx context.Context, participant *models.MilestoneParticipant) error
	CompleteCriterion(ctx context.Context, milestoneID, criterionID, userID uint, at time.Time) (bool, error)
}

type milestoneRepository struct {
	db   *gorm.DB
	read *gorm.DB
}

// NewMilestoneRepository returns a new MilestoneRepository implementation.
func NewMilestoneRepository(db *gorm.DB) MilestoneRepository {
	return &milestoneRepository{db: db, read: readDB(db)}
}

// Create inserts the milestone together with its initial criteria and participants.
func (r *milestoneRepository) Create(ctx context.Context, milestone *models.Milestone) error {
	if err := r.db.WithContext(ctx).Create(milestone).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *milestoneRepository) GetByID(ctx context.Context, id uint) (*models.Milestone, error) {
	var milestone models.Milestone
	err := r.db.WithContext(ctx).
		Preload("Criteria", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Evidence", func(db *gorm.DB) *gorm.DB { return db.Order("submitted_at ASC, id ASC") }).
		Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("joined_at ASC, id ASC") }).
		First(&milestone, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Milestone", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &milestone, nil
}

func (r *milestoneRepository) ListByRelationship(ctx context.Context, relationshipID uint, status models.MilestoneStatus, limit, offset int) ([]models.Milestone, error) {
	var milestones []models.Milestone
	limit, offset = normalizePage(limit, offset)

	q := r.read.WithContext(ctx).
		Preload("Criteria").
		Preload("Participants").
		Where("relationship_id = ?", relationshipID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&milestones).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return milestones, nil
}

func (r *milestoneRepository) UpdateWhere(ctx context.Context, id uint, updates map[string]interface{}, guards ...Guard) (bool, error) {
	return updateWhere(ctx, r.db, &models.Milestone{}, id, updates, guards)
}

// DeleteWhere removes the milestone and its children when the guards hold.
func (r *milestoneRepository) DeleteWhere(ctx context.Context, id uint, guards ...Guard) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := deleteWhere(ctx, tx, &models.Milestone{}, id, guards)
		if err != nil || !ok {
			return err
		}
		for _, child := range []interface{}{
			&models.MilestoneCriterion{},
			&models.MilestoneEvidence{},
			&models.MilestoneParticipant{},
		} {
			if err := tx.Where("milestone_id = ?", id).Delete(child).Error; err != nil {
				return models.NewInternalError(err)
			}
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

func (r *milestoneRepository) AddEvidence(ctx context.Context, evidence *models.MilestoneEvidence) error {
	if err := r.db.WithContext(ctx).Create(evidence).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// AddParticipant records a participant unless the user is already one.
func (r *milestoneRepository) AddParticipant(ctx context.Context, participant *models.MilestoneParticipant) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "milestone_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(participant).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// CompleteCriterion marks an open criterion of milestoneID as done.
func (r *milestoneRepository) CompleteCriterion(ctx context.Context, milestoneID, criterionID, userID uint, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.MilestoneCriterion{}).
		Where("id = ? AND milestone_id = ? AND completed = ?", criterionID, milestoneID, false).
		Updates(map[string]interface{}{
			"completed":    true,
			"completed_at": at,
			"completed_by": userID,
		})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}
