package models

import "time"

// TermStatus is the agreement state of a term.
type TermStatus string

const (
	TermStatusProposed TermStatus = "proposed"
	TermStatusAgreed   TermStatus = "agreed"
	TermStatusRejected TermStatus = "rejected"
	TermStatusModified TermStatus = "modified"
	TermStatusArchived TermStatus = "archived"
)

// Open reports whether the term still accepts agreements or edits.
func (s TermStatus) Open() bool {
	return s == TermStatusProposed || s == TermStatusModified
}

// TermCategory groups terms by subject.
type TermCategory string

const (
	TermCategoryCommunication    TermCategory = "communication"
	TermCategoryBoundaries       TermCategory = "boundaries"
	TermCategoryCommitment       TermCategory = "commitment"
	TermCategoryFinance          TermCategory = "finance"
	TermCategoryTime             TermCategory = "time"
	TermCategoryPersonalSpace    TermCategory = "personal_space"
	TermCategoryResponsibilities TermCategory = "responsibilities"
	TermCategoryOther            TermCategory = "other"
)

// Valid reports whether c is a known category.
func (c TermCategory) Valid() bool {
	switch c {
	case TermCategoryCommunication, TermCategoryBoundaries, TermCategoryCommitment,
		TermCategoryFinance, TermCategoryTime, TermCategoryPersonalSpace,
		TermCategoryResponsibilities, TermCategoryOther:
		return true
	}
	return false
}

// Priority ranks a term.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// ViolationSeverity grades a reported violation.
type ViolationSeverity string

const (
	ViolationSeverityMinor    ViolationSeverity = "minor"
	ViolationSeverityModerate ViolationSeverity = "moderate"
	ViolationSeverityMajor    ViolationSeverity = "major"
)

// Valid reports whether s is a known severity.
func (s ViolationSeverity) Valid() bool {
	return s == ViolationSeverityMinor || s == ViolationSeverityModerate || s == ViolationSeverityMajor
}

// Term is an agreement proposal scoped to one relationship.
type Term struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	RelationshipID uint         `gorm:"not null;index" json:"relationship_id"`
	CreatedBy      uint         `gorm:"not null;index" json:"created_by"`
	Title          string       `gorm:"size:200;not null" json:"title"`
	Description    string       `gorm:"type:text" json:"description"`
	Category       TermCategory `gorm:"type:varchar(32);not null" json:"category"`
	Priority       Priority     `gorm:"type:varchar(16);not null;default:'medium'" json:"priority"`
	Status         TermStatus   `gorm:"type:varchar(16);not null;default:'proposed';index" json:"status"`
	AgreedAt       *time.Time   `json:"agreed_at"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`

	AgreedBy   []TermAgreement `gorm:"foreignKey:TermID;constraint:OnDelete:CASCADE" json:"agreed_by"`
	Violations []TermViolation `gorm:"foreignKey:TermID;constraint:OnDelete:CASCADE" json:"violations"`
}

// HasAgreed reports whether userID appears in the agreement list.
func (t *Term) HasAgreed(userID uint) bool {
	for _, a := range t.AgreedBy {
		if a.UserID == userID {
			return true
		}
	}
	return false
}

// TermAgreement records one party's signature. At most one per (term, user).
type TermAgreement struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TermID    uint      `gorm:"not null;uniqueIndex:idx_term_agreement_user" json:"term_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_term_agreement_user" json:"user_id"`
	Signature string    `gorm:"size:200" json:"signature"`
	AgreedAt  time.Time `gorm:"not null" json:"agreed_at"`
}

// TermViolation is an append-only report against a term.
type TermViolation struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	TermID      uint              `gorm:"not null;index" json:"term_id"`
	ReporterID  uint              `gorm:"not null" json:"reporter_id"`
	Description string            `gorm:"type:text;not null" json:"description"`
	Severity    ViolationSeverity `gorm:"type:varchar(16);not null;default:'minor'" json:"severity"`
	Resolved    bool              `gorm:"not null;default:false" json:"resolved"`
	ResolvedAt  *time.Time        `json:"resolved_at"`
	ReportedAt  time.Time         `gorm:"not null" json:"reported_at"`
}
