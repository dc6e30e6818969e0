package repository

import (
	"context"
	"errors"
	"time"

	"tether/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TermRepository persists terms with their agreements and violations.
type TermRepository interface {
	Create(ctx context.Context, term *models.Term) error
	GetByID(ctx context.Context, id uint) (*models.Term, error)
	GetForUpdate(ctx context.Context, id uint) (*models.Term, error)
	ListByRelationship(ctx context.Context, relationshipID uint, status models.TermStatus, limit, offset int) ([]models.Term, error)
	UpdateWhere(ctx context.Context, id uint, updates map[string]interface{}, guards ...Guard) (bool, error)
	DeleteWhere(ctx context.Context, id uint, guards ...Guard) (bool, error)

	AddAgreement(ctx context.Context, agreement *models.TermAgreement) error
	ListAgreements(ctx context.Context, termID uint) ([]models.TermAgreement, error)
	ClearAgreements(ctx context.Context, termID uint) error
	AddViolation(ctx context.Context, violation *models.TermViolation) error
	ResolveViolation(ctx context.Context, termID, violationID uint, at time.Time) (bool, error)
}

type termRepository struct {
	db   *gorm.DB
	read *gorm.DB
}

// NewTermRepository returns a new TermRepository implementation.
func NewTermRepository(db *gorm.DB) TermRepository {
	return &termRepository{db: db, read: readDB(db)}
}

func (r *termRepository) Create(ctx context.Context, term *models.Term) error {
	if err := r.db.WithContext(ctx).Create(term).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *termRepository) GetByID(ctx context.Context, id uint) (*models.Term, error) {
	return r.get(ctx, r.db.WithContext(ctx), id)
}

// GetForUpdate loads the term holding a row lock until the surrounding
// transaction ends. Only meaningful inside Store.Transaction.
func (r *termRepository) GetForUpdate(ctx context.Context, id uint) (*models.Term, error) {
	return r.get(ctx, r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *termRepository) get(_ context.Context, q *gorm.DB, id uint) (*models.Term, error) {
	var term models.Term
	err := q.
		Preload("AgreedBy", func(db *gorm.DB) *gorm.DB {
			return db.Order("agreed_at ASC, id ASC")
		}).
		Preload("Violations", func(db *gorm.DB) *gorm.DB {
			return db.Order("reported_at ASC, id ASC")
		}).
		First(&term, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Term", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &term, nil
}

func (r *termRepository) ListByRelationship(ctx context.Context, relationshipID uint, status models.TermStatus, limit, offset int) ([]models.Term, error) {
	var terms []models.Term
	limit, offset = normalizePage(limit, offset)

	q := r.read.WithContext(ctx).
		Preload("AgreedBy").
		Where("relationship_id = ?", relationshipID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&terms).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return terms, nil
}

func (r *termRepository) UpdateWhere(ctx context.Context, id uint, updates map[string]interface{}, guards ...Guard) (bool, error) {
	return updateWhere(ctx, r.db, &models.Term{}, id, updates, guards)
}

// DeleteWhere removes the term and its children when the guards hold.
func (r *termRepository) DeleteWhere(ctx context.Context, id uint, guards ...Guard) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := deleteWhere(ctx, tx, &models.Term{}, id, guards)
		if err != nil || !ok {
			return err
		}
		if err := tx.Where("term_id = ?", id).Delete(&models.TermAgreement{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Where("term_id = ?", id).Delete(&models.TermViolation{}).Error; err != nil {
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

// AddAgreement records a signature. The (term, user) unique index turns a
// concurrent duplicate into ALREADY_AGREED.
func (r *termRepository) AddAgreement(ctx context.Context, agreement *models.TermAgreement) error {
	if err := r.db.WithContext(ctx).Create(agreement).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewAlreadyDoneError(models.CodeAlreadyAgreed, "You have already agreed to this term")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *termRepository) ListAgreements(ctx context.Context, termID uint) ([]models.TermAgreement, error) {
	var agreements []models.TermAgreement
	if err := r.db.WithContext(ctx).
		Where("term_id = ?", termID).
		Order("agreed_at ASC, id ASC").
		Find(&agreements).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return agreements, nil
}

func (r *termRepository) ClearAgreements(ctx context.Context, termID uint) error {
	if err := r.db.WithContext(ctx).Where("term_id = ?", termID).Delete(&models.TermAgreement{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *termRepository) AddViolation(ctx context.Context, violation *models.TermViolation) error {
	if err := r.db.WithContext(ctx).Create(violation).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ResolveViolation marks an unresolved violation of termID as resolved.
func (r *termRepository) ResolveViolation(ctx context.Context, termID, violationID uint, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.TermViolation{}).
		Where("id = ? AND term_id = ? AND resolved = ?", violationID, termID, false).
		Updates(map[string]interface{}{"resolved": true, "resolved_at": at})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}
