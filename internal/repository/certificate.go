package repository

import (
	"context"
	"errors"
	"time"

	"tether/internal/models"
	"tether/internal/observability"

	"gorm.io/gorm"
)

var certificateLog = observability.NewRepoLogger("certificates")

// CertificateCounter names one of the engagement counters of a certificate.
type CertificateCounter string

const (
	CounterView     CertificateCounter = "view_count"
	CounterDownload CertificateCounter = "download_count"
	CounterShare    CertificateCounter = "share_count"
)

func (c CertificateCounter) valid() bool {
	return c == CounterView || c == CounterDownload || c == CounterShare
}

// CertificateRepository persists certificates. Rows are append-only apart
// from revocation and the engagement counters.
type CertificateRepository interface {
	Create(ctx context.Context, cert *models.Certificate) error
	NumberExists(ctx context.Context, number string) (bool, error)
	GetByID(ctx context.Context, id uint) (*models.Certificate, error)
	GetByNumber(ctx context.Context, number string) (*models.Certificate, error)
	ListForUser(ctx context.Context, userID uint, limit, offset int) ([]models.Certificate, error)
	ListBySubject(ctx context.Context, subject models.CertificateSubject) ([]models.Certificate, error)
	Revoke(ctx context.Context, id uint, reason string, at time.Time) (bool, error)
	Increment(ctx context.Context, id uint, counter CertificateCounter) error
}

type certificateRepository struct {
	db   *gorm.DB
	read *gorm.DB
	log  *observability.RepoLogger
}

// NewCertificateRepository returns a new CertificateRepository implementation.
func NewCertificateRepository(db *gorm.DB) CertificateRepository {
	return &certificateRepository{db: db, read: readDB(db), log: certificateLog}
}

// Create inserts the certificate with its recipients. A duplicate
// certificate number surfaces as a conflict so the issuer can retry.
func (r *certificateRepository) Create(ctx context.Context, cert *models.Certificate) error {
	if err := r.db.WithContext(ctx).Create(cert).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("Certificate number already in use")
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{
		"certificate_id":     cert.ID,
		"certificate_number": cert.CertificateNumber,
		"related_to":         cert.RelatedTo,
		"related_id":         cert.RelatedID,
	})
	return nil
}

func (r *certificateRepository) NumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Certificate{}).
		Where("certificate_number = ?", number).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *certificateRepository) GetByID(ctx context.Context, id uint) (*models.Certificate, error) {
	var cert models.Certificate
	if err := r.db.WithContext(ctx).Preload("Recipients").First(&cert, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Certificate", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &cert, nil
}

func (r *certificateRepository) GetByNumber(ctx context.Context, number string) (*models.Certificate, error) {
	var cert models.Certificate
	if err := r.read.WithContext(ctx).
		Preload("Recipients").
		Where("certificate_number = ?", number).
		First(&cert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Certificate", number)
		}
		return nil, models.NewInternalError(err)
	}
	return &cert, nil
}

func (r *certificateRepository) ListForUser(ctx context.Context, userID uint, limit, offset int) ([]models.Certificate, error) {
	var certs []models.Certificate
	limit, offset = normalizePage(limit, offset)
	if err := r.read.WithContext(ctx).
		Preload("Recipients").
		Where("id IN (?)", r.read.Model(&models.CertificateRecipient{}).Select("certificate_id").Where("user_id = ?", userID)).
		Order("issued_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&certs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return certs, nil
}

func (r *certificateRepository) ListBySubject(ctx context.Context, subject models.CertificateSubject) ([]models.Certificate, error) {
	var certs []models.Certificate
	if err := r.db.WithContext(ctx).
		Preload("Recipients").
		Where("related_to = ? AND related_id = ?", subject.Kind(), subject.ID()).
		Order("id ASC").
		Find(&certs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return certs, nil
}

// Revoke flips an unrevoked certificate to revoked. It reports false when the
// certificate was already revoked or does not exist.
func (r *certificateRepository) Revoke(ctx context.Context, id uint, reason string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Certificate{}).
		Where("id = ? AND is_revoked = ?", id, false).
		Updates(map[string]interface{}{
			"is_revoked":     true,
			"revoked_at":     at,
			"revoked_reason": reason,
		})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "revoke")
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		r.log.LogUpdate(ctx, map[string]interface{}{"certificate_id": id, "revoked": true})
	}
	return res.RowsAffected > 0, nil
}

// Increment bumps one engagement counter in place.
func (r *certificateRepository) Increment(ctx context.Context, id uint, counter CertificateCounter) error {
	if !counter.valid() {
		return models.NewValidationError("unknown certificate counter")
	}
	res := r.db.WithContext(ctx).
		Model(&models.Certificate{}).
		Where("id = ?", id).
		UpdateColumn(string(counter), gorm.Expr(string(counter)+" + 1"))
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Certificate", id)
	}
	return nil
}
