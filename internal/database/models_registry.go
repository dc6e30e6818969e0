package database

import "tether/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Relationship{},
		&models.Term{},
		&models.TermAgreement{},
		&models.TermViolation{},
		&models.Milestone{},
		&models.MilestoneCriterion{},
		&models.MilestoneEvidence{},
		&models.MilestoneParticipant{},
		&models.Activity{},
		&models.ActivityReaction{},
		&models.ActivityComment{},
		&models.Certificate{},
		&models.CertificateRecipient{},
		&models.Notification{},
	}
}
