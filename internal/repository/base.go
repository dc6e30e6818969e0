package repository

import (
	"context"
	"errors"
	"strings"

	"tether/internal/database"
	"tether/internal/models"

	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// normalizePage clamps paging arguments to sane bounds.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// isUniqueViolation reports whether err is a unique index violation.
// TranslateError covers postgres and sqlite; the string match catches
// drivers that slip through untranslated.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// Guard narrows a conditional write. A write guarded this way affects zero
// rows when the precondition no longer holds, which callers must treat as a
// failed transition rather than a success.
type Guard = func(*gorm.DB) *gorm.DB

// StatusIn requires the row's status to be one of statuses.
func StatusIn[S ~string](statuses ...S) Guard {
	return func(db *gorm.DB) *gorm.DB {
		if len(statuses) == 1 {
			return db.Where("status = ?", string(statuses[0]))
		}
		values := make([]string, len(statuses))
		for i, s := range statuses {
			values[i] = string(s)
		}
		return db.Where("status IN ?", values)
	}
}

// StatusNotIn requires the row's status to be none of statuses.
func StatusNotIn[S ~string](statuses ...S) Guard {
	return func(db *gorm.DB) *gorm.DB {
		if len(statuses) == 1 {
			return db.Where("status <> ?", string(statuses[0]))
		}
		values := make([]string, len(statuses))
		for i, s := range statuses {
			values[i] = string(s)
		}
		return db.Where("status NOT IN ?", values)
	}
}

// CreatedBy requires the row to be owned by userID.
func CreatedBy(userID uint) Guard {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("created_by = ?", userID)
	}
}

// PartyOf requires userID to be one of the relationship's two parties.
func PartyOf(userID uint) Guard {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("(initiator_id = ? OR partner_id = ?)", userID, userID)
	}
}

// PartnerIs requires userID to be the invited partner.
func PartnerIs(userID uint) Guard {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("partner_id = ?", userID)
	}
}

// BreakupRequestedBy requires userID to be the pending breakup requester.
func BreakupRequestedBy(userID uint) Guard {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("breakup_requested_by = ?", userID)
	}
}

// BreakupNotRequestedBy requires a breakup requester other than userID.
func BreakupNotRequestedBy(userID uint) Guard {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("breakup_requested_by <> ?", userID)
	}
}

// updateWhere runs a guarded UPDATE on the row with the given id and reports
// whether a row matched.
func updateWhere(ctx context.Context, db *gorm.DB, model interface{}, id uint, updates map[string]interface{}, guards []Guard) (bool, error) {
	res := db.WithContext(ctx).Model(model).Where("id = ?", id).Scopes(guards...).Updates(updates)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// deleteWhere runs a guarded DELETE on the row with the given id and reports
// whether a row was removed.
func deleteWhere(ctx context.Context, db *gorm.DB, model interface{}, id uint, guards []Guard) (bool, error) {
	res := db.WithContext(ctx).Where("id = ?", id).Scopes(guards...).Delete(model)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Store bundles the repositories over one connection or transaction.
type Store struct {
	db *gorm.DB

	Users         UserRepository
	Relationships RelationshipRepository
	Terms         TermRepository
	Milestones    MilestoneRepository
	Activities    ActivityRepository
	Certificates  CertificateRepository
	Notifications NotificationRepository
}

// NewStore returns a Store whose list queries use the read replica when one
// is configured.
func NewStore(db *gorm.DB) *Store {
	return newStore(db, readDB(db))
}

func newStore(db, read *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         &userRepository{db: db, read: read},
		Relationships: &relationshipRepository{db: db, read: read, log: relationshipLog},
		Terms:         &termRepository{db: db, read: read},
		Milestones:    &milestoneRepository{db: db, read: read},
		Activities:    &activityRepository{db: db, read: read},
		Certificates:  &certificateRepository{db: db, read: read, log: certificateLog},
		Notifications: &notificationRepository{db: db, read: read},
	}
}

// DB returns the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn with a Store bound to a single database transaction.
// Every repository in the transactional Store reads and writes through the
// transaction, replica routing included. Errors returned by fn roll back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newStore(tx, tx))
	})
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}
