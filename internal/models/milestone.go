package models

import "time"

// MilestoneStatus is the progress state of a milestone.
type MilestoneStatus string

const (
	MilestoneStatusPending    MilestoneStatus = "pending"
	MilestoneStatusInProgress MilestoneStatus = "in_progress"
	MilestoneStatusCompleted  MilestoneStatus = "completed"
	MilestoneStatusFailed     MilestoneStatus = "failed"
	MilestoneStatusArchived   MilestoneStatus = "archived"
)

// MilestoneCategory groups milestones by what they measure.
type MilestoneCategory string

const (
	MilestoneCategoryTrustBased     MilestoneCategory = "trust_based"
	MilestoneCategoryTimeBased      MilestoneCategory = "time_based"
	MilestoneCategoryActivityBased  MilestoneCategory = "activity_based"
	MilestoneCategoryCommunication  MilestoneCategory = "communication"
	MilestoneCategoryPersonalGrowth MilestoneCategory = "personal_growth"
	MilestoneCategoryCustom         MilestoneCategory = "custom"
)

// Valid reports whether c is a known category.
func (c MilestoneCategory) Valid() bool {
	switch c {
	case MilestoneCategoryTrustBased, MilestoneCategoryTimeBased, MilestoneCategoryActivityBased,
		MilestoneCategoryCommunication, MilestoneCategoryPersonalGrowth, MilestoneCategoryCustom:
		return true
	}
	return false
}

// Difficulty rates how hard a milestone is; it selects the certificate level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert:
		return true
	}
	return false
}

// CertificateLevel maps a difficulty onto the level of the reward certificate.
func (d Difficulty) CertificateLevel() CertificateLevel {
	switch d {
	case DifficultyMedium:
		return CertificateLevelSilver
	case DifficultyHard:
		return CertificateLevelGold
	case DifficultyExpert:
		return CertificateLevelPlatinum
	default:
		return CertificateLevelBronze
	}
}

// ParticipantRole describes how a user took part in a milestone.
type ParticipantRole string

const (
	ParticipantRoleCreator     ParticipantRole = "creator"
	ParticipantRoleContributor ParticipantRole = "contributor"
	ParticipantRoleCompleter   ParticipantRole = "completer"
)

// Milestone is a goal scoped to one relationship. Completed milestones are immutable.
type Milestone struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	RelationshipID    uint              `gorm:"not null;index" json:"relationship_id"`
	CreatedBy         uint              `gorm:"not null;index" json:"created_by"`
	Title             string            `gorm:"size:200;not null" json:"title"`
	Description       string            `gorm:"type:text" json:"description"`
	Category          MilestoneCategory `gorm:"type:varchar(32);not null" json:"category"`
	Difficulty        Difficulty        `gorm:"type:varchar(16);not null;default:'medium'" json:"difficulty"`
	Status            MilestoneStatus   `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	TargetDate        *time.Time        `json:"target_date"`
	CompletedAt       *time.Time        `json:"completed_at"`
	CompletedBy       *uint             `json:"completed_by"`
	RewardCertificate bool              `gorm:"not null;default:false" json:"reward_certificate"`
	RewardPoints      int               `gorm:"not null;default:0" json:"reward_points"`
	CertificateID     *uint             `json:"certificate_id"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`

	Criteria     []MilestoneCriterion   `gorm:"foreignKey:MilestoneID;constraint:OnDelete:CASCADE" json:"criteria"`
	Evidence     []MilestoneEvidence    `gorm:"foreignKey:MilestoneID;constraint:OnDelete:CASCADE" json:"evidence"`
	Participants []MilestoneParticipant `gorm:"foreignKey:MilestoneID;constraint:OnDelete:CASCADE" json:"participants"`
}

// Editable reports whether the milestone may still be changed or deleted.
func (m *Milestone) Editable() bool {
	return m.Status != MilestoneStatusCompleted
}

// MilestoneCriterion is a named custom sub-goal, completable independently.
type MilestoneCriterion struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	MilestoneID uint       `gorm:"not null;index" json:"milestone_id"`
	Name        string     `gorm:"size:200;not null" json:"name"`
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
	CompletedBy *uint      `json:"completed_by"`
}

// TableName specifies the table name for GORM
func (MilestoneCriterion) TableName() string {
	return "milestone_criteria"
}

// MilestoneEvidence is append-only proof attached by a party.
type MilestoneEvidence struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	MilestoneID uint      `gorm:"not null;index" json:"milestone_id"`
	SubmittedBy uint      `gorm:"not null" json:"submitted_by"`
	Description string    `gorm:"type:text" json:"description"`
	URL         string    `gorm:"size:500" json:"url"`
	SubmittedAt time.Time `gorm:"not null" json:"submitted_at"`
}

// TableName specifies the table name for GORM
func (MilestoneEvidence) TableName() string {
	return "milestone_evidence"
}

// MilestoneParticipant records who contributed to or completed a milestone.
type MilestoneParticipant struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	MilestoneID uint            `gorm:"not null;uniqueIndex:idx_milestone_participant" json:"milestone_id"`
	UserID      uint            `gorm:"not null;uniqueIndex:idx_milestone_participant" json:"user_id"`
	Role        ParticipantRole `gorm:"type:varchar(16);not null" json:"role"`
	JoinedAt    time.Time       `gorm:"not null" json:"joined_at"`
}
