package repository

import (
	"context"
	"errors"

	"tether/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActivityRepository persists activities with their reactions and comments.
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	GetByID(ctx context.Context, id uint) (*models.Activity, error)
	ListByRelationship(ctx context.Context, relationshipID uint, limit, offset int) ([]models.Activity, error)
	UpdateWhere(ctx context.Context, id uint, updates map[string]interface{}, guards ...Guard) (bool, error)
	DeleteWhere(ctx context.Context, id uint, guards ...Guard) (bool, error)

	UpsertReaction(ctx context.Context, reaction *models.ActivityReaction) error
	AddComment(ctx context.Context, comment *models.ActivityComment) error
}

type activityRepository struct {
	db   *gorm.DB
	read *gorm.DB
}

// NewActivityRepository returns a new ActivityRepository implementation.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db, read: readDB(db)}
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if err := r.db.WithContext(ctx).Create(activity).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *activityRepository) GetByID(ctx context.Context, id uint) (*models.Activity, error) {
	var activity models.Activity
	err := r.db.WithContext(ctx).
		Preload("Reactions", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		First(&activity, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Activity", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &activity, nil
}

func (r *activityRepository) ListByRelationship(ctx context.Context, relationshipID uint, limit, offset int) ([]models.Activity, error) {
	var activities []models.Activity
	limit, offset = normalizePage(limit, offset)
	if err := r.read.WithContext(ctx).
		Preload("Reactions").
		Where("relationship_id = ?", relationshipID).
		Order("occurred_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&activities).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return activities, nil
}

func (r *activityRepository) UpdateWhere(ctx context.Context, id uint, updates map[string]interface{}, guards ...Guard) (bool, error) {
	return updateWhere(ctx, r.db, &models.Activity{}, id, updates, guards)
}

// DeleteWhere removes the activity and its children when the guards hold.
func (r *activityRepository) DeleteWhere(ctx context.Context, id uint, guards ...Guard) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := deleteWhere(ctx, tx, &models.Activity{}, id, guards)
		if err != nil || !ok {
			return err
		}
		if err := tx.Where("activity_id = ?", id).Delete(&models.ActivityReaction{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Where("activity_id = ?", id).Delete(&models.ActivityComment{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// UpsertReaction stores the user's reaction, replacing any earlier one.
func (r *activityRepository) UpsertReaction(ctx context.Context, reaction *models.ActivityReaction) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "activity_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"reaction", "updated_at"}),
		}).
		Create(reaction).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *activityRepository) AddComment(ctx context.Context, comment *models.ActivityComment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
