package models

import "time"

// NotificationCategory groups notifications by the entity that triggered them.
type NotificationCategory string

const (
	NotificationCategoryRelationship NotificationCategory = "relationship"
	NotificationCategoryTerm         NotificationCategory = "term"
	NotificationCategoryMilestone    NotificationCategory = "milestone"
	NotificationCategoryActivity     NotificationCategory = "activity"
	NotificationCategoryCertificate  NotificationCategory = "certificate"
)

// Notification types emitted by the services.
const (
	NotificationRelationshipRequest  = "relationship_request"
	NotificationRelationshipAccepted = "relationship_accepted"
	NotificationRelationshipDeclined = "relationship_declined"
	NotificationBreakupRequested     = "breakup_requested"
	NotificationBreakupConfirmed     = "breakup_confirmed"
	NotificationBreakupCancelled     = "breakup_cancelled"
	NotificationRelationshipArchived = "relationship_archived"
	NotificationRelationshipDeleted  = "relationship_deleted"
	NotificationTermProposed         = "term_proposed"
	NotificationTermUpdated          = "term_updated"
	NotificationTermAgreed           = "term_agreed"
	NotificationTermRejected         = "term_rejected"
	NotificationTermViolation        = "term_violation"
	NotificationMilestoneCreated     = "milestone_created"
	NotificationMilestoneCompleted   = "milestone_completed"
	NotificationActivityLogged       = "activity_logged"
	NotificationActivityReaction     = "activity_reaction"
	NotificationActivityComment      = "activity_comment"
	NotificationCertificateAwarded   = "certificate_awarded"
	NotificationCertificateRevoked   = "certificate_revoked"
)

// NotificationAction is a deep link back into a confirm/decline style operation.
type NotificationAction struct {
	Label  string `json:"label"`
	Action string `json:"action"`
	Method string `json:"method"`
	URL    string `json:"url"`
}

// Notification is a recipient's mailbox entry. It is produced after the
// triggering transition commits and never affects that transition.
type Notification struct {
	ID             uint                 `gorm:"primaryKey" json:"id"`
	RecipientID    uint                 `gorm:"not null;index:idx_notifications_recipient_read" json:"recipient_id"`
	SenderID       *uint                `json:"sender_id"`
	Type           string               `gorm:"size:64;not null" json:"type"`
	Title          string               `gorm:"size:200;not null" json:"title"`
	Message        string               `gorm:"type:text" json:"message"`
	Category       NotificationCategory `gorm:"type:varchar(32);not null" json:"category"`
	ActionRequired bool                 `gorm:"not null;default:false" json:"action_required"`
	Actions        []NotificationAction `gorm:"type:text;serializer:json" json:"actions,omitempty"`
	Metadata       map[string]any       `gorm:"type:text;serializer:json" json:"metadata,omitempty"`
	IsRead         bool                 `gorm:"not null;default:false;index:idx_notifications_recipient_read" json:"is_read"`
	ReadAt         *time.Time           `json:"read_at"`
	CreatedAt      time.Time            `json:"created_at"`
}
