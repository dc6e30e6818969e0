package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tether/internal/models"
	"tether/internal/observability"

	"gorm.io/gorm"
)

var relationshipLog = observability.NewRepoLogger("relationships")

// trustClampSQL adds a signed delta to the trust level and bounds the result
// in the same statement.
var trustClampSQL = fmt.Sprintf(
	"CASE WHEN stats_trust_level + ? < %d THEN %d WHEN stats_trust_level + ? > %d THEN %d ELSE stats_trust_level + ? END",
	models.MinTrustLevel, models.MinTrustLevel, models.MaxTrustLevel, models.MaxTrustLevel,
)

// RelationshipRepository persists relationships. All state changes go through
// guarded writes so concurrent transitions cannot both succeed.
type RelationshipRepository interface {
	Create(ctx context.Context, rel *models.Relationship) error
	GetByID(ctx context.Context, id uint) (*models.Relationship, error)
	GetWithParties(ctx context.Context, id uint) (*models.Relationship, error)
	FindByPair(ctx context.Context, a, b uint) (*models.Relationship, error)
	ListForUser(ctx context.Context, userID uint, status models.RelationshipStatus, limit, offset int) ([]models.Relationship, error)
	UpdateWhere(ctx context.Context, id uint, updates map[string]interface{}, guards ...Guard) (bool, error)
	DeleteWhere(ctx context.Context, id uint, guards ...Guard) (bool, error)

	ApplyActivity(ctx context.Context, id uint, trustChange int, at time.Time) error
	RevertActivity(ctx context.Context, id uint) error
	IncrementMilestones(ctx context.Context, id uint, at time.Time) error
	SetLatestCertificate(ctx context.Context, id, certificateID uint) error
}

type relationshipRepository struct {
	db   *gorm.DB
	read *gorm.DB
	log  *observability.RepoLogger
}

// NewRelationshipRepository returns a new RelationshipRepository implementation.
func NewRelationshipRepository(db *gorm.DB) RelationshipRepository {
	return &relationshipRepository{db: db, read: readDB(db), log: relationshipLog}
}

// Create inserts a pending relationship. A second row for the same unordered
// pair is rejected by idx_relationship_pair and reported as a conflict.
func (r *relationshipRepository) Create(ctx context.Context, rel *models.Relationship) error {
	if err := r.db.WithContext(ctx).Omit("Initiator", "Partner").Create(rel).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("A relationship between these users already exists")
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{
		"relationship_id": rel.ID,
		"initiator_id":    rel.InitiatorID,
		"partner_id":      rel.PartnerID,
	})
	return nil
}

// GetByID reads from the primary so a reload after a guarded write sees it.
func (r *relationshipRepository) GetByID(ctx context.Context, id uint) (*models.Relationship, error) {
	var rel models.Relationship
	if err := r.db.WithContext(ctx).First(&rel, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Relationship", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &rel, nil
}

func (r *relationshipRepository) GetWithParties(ctx context.Context, id uint) (*models.Relationship, error) {
	var rel models.Relationship
	if err := r.db.WithContext(ctx).
		Preload("Initiator").
		Preload("Partner").
		First(&rel, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Relationship", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &rel, nil
}

// FindByPair returns the relationship between a and b in either order, or
// nil, nil when there is none.
func (r *relationshipRepository) FindByPair(ctx context.Context, a, b uint) (*models.Relationship, error) {
	low, high := models.OrderedPair(a, b)
	var rel models.Relationship
	err := r.db.WithContext(ctx).
		Where("pair_low_id = ? AND pair_high_id = ?", low, high).
		First(&rel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &rel, nil
}

func (r *relationshipRepository) ListForUser(ctx context.Context, userID uint, status models.RelationshipStatus, limit, offset int) ([]models.Relationship, error) {
	var rels []models.Relationship
	limit, offset = normalizePage(limit, offset)

	q := r.read.WithContext(ctx).
		Preload("Initiator").
		Preload("Partner").
		Where("(initiator_id = ? OR partner_id = ?)", userID, userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&rels).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return rels, nil
}

func (r *relationshipRepository) UpdateWhere(ctx context.Context, id uint, updates map[string]interface{}, guards ...Guard) (bool, error) {
	ok, err := updateWhere(ctx, r.db, &models.Relationship{}, id, updates, guards)
	if err != nil {
		r.log.LogError(ctx, err, "update")
		return false, err
	}
	if ok {
		r.log.LogUpdate(ctx, map[string]interface{}{"relationship_id": id, "status": updates["status"]})
	}
	return ok, nil
}

func (r *relationshipRepository) DeleteWhere(ctx context.Context, id uint, guards ...Guard) (bool, error) {
	ok, err := deleteWhere(ctx, r.db, &models.Relationship{}, id, guards)
	if err != nil {
		r.log.LogError(ctx, err, "delete")
		return false, err
	}
	if ok {
		r.log.LogDelete(ctx, map[string]interface{}{"relationship_id": id})
	}
	return ok, nil
}

// ApplyActivity folds one new activity into the stats: the trust delta is
// added and clamped, the activity counter incremented.
func (r *relationshipRepository) ApplyActivity(ctx context.Context, id uint, trustChange int, at time.Time) error {
	return r.updateStats(ctx, id, map[string]interface{}{
		"stats_trust_level":      gorm.Expr(trustClampSQL, trustChange, trustChange, trustChange),
		"stats_total_activities": gorm.Expr("stats_total_activities + 1"),
		"stats_last_interaction": at,
	})
}

// RevertActivity decrements the activity counter, never below zero.
func (r *relationshipRepository) RevertActivity(ctx context.Context, id uint) error {
	return r.updateStats(ctx, id, map[string]interface{}{
		"stats_total_activities": gorm.Expr("CASE WHEN stats_total_activities > 0 THEN stats_total_activities - 1 ELSE 0 END"),
	})
}

func (r *relationshipRepository) IncrementMilestones(ctx context.Context, id uint, at time.Time) error {
	return r.updateStats(ctx, id, map[string]interface{}{
		"stats_milestones_achieved": gorm.Expr("stats_milestones_achieved + 1"),
		"stats_last_interaction":    at,
	})
}

func (r *relationshipRepository) SetLatestCertificate(ctx context.Context, id, certificateID uint) error {
	return r.updateStats(ctx, id, map[string]interface{}{
		"latest_certificate_id": certificateID,
	})
}

func (r *relationshipRepository) updateStats(ctx context.Context, id uint, updates map[string]interface{}) error {
	ok, err := updateWhere(ctx, r.db, &models.Relationship{}, id, updates, nil)
	if err != nil {
		r.log.LogError(ctx, err, "update_stats")
		return err
	}
	if !ok {
		return models.NewNotFoundError("Relationship", id)
	}
	return nil
}
