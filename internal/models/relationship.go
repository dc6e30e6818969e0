package models

import (
	"time"

	"gorm.io/gorm"
)

// RelationshipStatus is the lifecycle state of a relationship.
type RelationshipStatus string

const (
	// RelationshipStatusPending is a proposal awaiting the partner's answer.
	RelationshipStatusPending RelationshipStatus = "pending"
	// RelationshipStatusActive is an accepted relationship.
	RelationshipStatusActive RelationshipStatus = "active"
	// RelationshipStatusRequestedBreakup waits for the other party to confirm a breakup.
	RelationshipStatusRequestedBreakup RelationshipStatus = "requested_breakup"
	// RelationshipStatusEnded is a relationship ended by mutual consent.
	RelationshipStatusEnded RelationshipStatus = "ended"
	// RelationshipStatusArchived is a soft-ended relationship.
	RelationshipStatusArchived RelationshipStatus = "archived"
)

// RelationshipType describes the kind of relationship. It carries no behavior.
type RelationshipType string

const (
	RelationshipTypeAcquaintance RelationshipType = "acquaintance"
	RelationshipTypeFriend       RelationshipType = "friend"
	RelationshipTypeCloseFriend  RelationshipType = "close_friend"
	RelationshipTypeBestFriend   RelationshipType = "best_friend"
	RelationshipTypeRomantic     RelationshipType = "romantic"
	RelationshipTypePartner      RelationshipType = "partner"
	RelationshipTypeSpouse       RelationshipType = "spouse"
	RelationshipTypeFamily       RelationshipType = "family"
	RelationshipTypeColleague    RelationshipType = "colleague"
	RelationshipTypeMentor       RelationshipType = "mentor"
	RelationshipTypeMentee       RelationshipType = "mentee"
)

var relationshipTypes = map[RelationshipType]struct{}{
	RelationshipTypeAcquaintance: {},
	RelationshipTypeFriend:       {},
	RelationshipTypeCloseFriend:  {},
	RelationshipTypeBestFriend:   {},
	RelationshipTypeRomantic:     {},
	RelationshipTypePartner:      {},
	RelationshipTypeSpouse:       {},
	RelationshipTypeFamily:       {},
	RelationshipTypeColleague:    {},
	RelationshipTypeMentor:       {},
	RelationshipTypeMentee:       {},
}

// Valid reports whether t is a known relationship type.
func (t RelationshipType) Valid() bool {
	_, ok := relationshipTypes[t]
	return ok
}

// RelationshipVisibility controls who may see a relationship.
type RelationshipVisibility string

const (
	RelationshipVisibilityPrivate RelationshipVisibility = "private"
	RelationshipVisibilityShared  RelationshipVisibility = "shared"
)

// Valid reports whether v is a known visibility.
func (v RelationshipVisibility) Valid() bool {
	return v == RelationshipVisibilityPrivate || v == RelationshipVisibilityShared
}

const (
	// DefaultTrustLevel is the trust level of a freshly proposed relationship.
	DefaultTrustLevel = 50
	MinTrustLevel     = 0
	MaxTrustLevel     = 100
)

// RelationshipStats are aggregates maintained by the dependent-entity services.
// They are only changed through atomic column expressions.
type RelationshipStats struct {
	TrustLevel         int        `gorm:"not null;default:50" json:"trust_level"`
	TotalActivities    int        `gorm:"not null;default:0" json:"total_activities"`
	MilestonesAchieved int        `gorm:"not null;default:0" json:"milestones_achieved"`
	LastInteraction    *time.Time `json:"last_interaction"`
}

// Relationship is the aggregate binding exactly two users.
type Relationship struct {
	ID          uint                   `gorm:"primaryKey" json:"id"`
	Title       string                 `gorm:"size:200;not null" json:"title"`
	Description string                 `gorm:"type:text" json:"description"`
	Type        RelationshipType       `gorm:"type:varchar(32);not null" json:"type"`
	Visibility  RelationshipVisibility `gorm:"type:varchar(16);not null;default:'private'" json:"visibility"`
	Status      RelationshipStatus     `gorm:"type:varchar(20);not null;default:'pending';index:idx_relationships_status" json:"status"`
	InitiatorID uint                   `gorm:"not null;index" json:"initiator_id"`
	PartnerID   uint                   `gorm:"not null;index" json:"partner_id"`

	// PairLowID and PairHighID hold the parties in ascending order so the unique
	// index covers the unordered pair.
	PairLowID  uint `gorm:"not null;uniqueIndex:idx_relationship_pair" json:"-"`
	PairHighID uint `gorm:"not null;uniqueIndex:idx_relationship_pair" json:"-"`

	BreakupRequestedBy  *uint             `json:"breakup_requested_by"`
	StartDate           time.Time         `gorm:"not null" json:"start_date"`
	AcceptedDate        *time.Time        `json:"accepted_date"`
	EndDate             *time.Time        `json:"end_date"`
	Stats               RelationshipStats `gorm:"embedded;embeddedPrefix:stats_" json:"stats"`
	LatestCertificateID *uint             `json:"latest_certificate_id"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`

	Initiator User `gorm:"foreignKey:InitiatorID" json:"initiator,omitempty"`
	Partner   User `gorm:"foreignKey:PartnerID" json:"partner,omitempty"`
}

// TableName specifies the table name for GORM
func (Relationship) TableName() string {
	return "relationships"
}

// BeforeCreate derives the ordered pair columns and fills lifecycle defaults.
func (r *Relationship) BeforeCreate(_ *gorm.DB) error {
	r.PairLowID, r.PairHighID = OrderedPair(r.InitiatorID, r.PartnerID)
	if r.Status == "" {
		r.Status = RelationshipStatusPending
	}
	if r.Visibility == "" {
		r.Visibility = RelationshipVisibilityPrivate
	}
	if r.StartDate.IsZero() {
		r.StartDate = time.Now().UTC()
	}
	if r.Stats.TrustLevel == 0 {
		r.Stats.TrustLevel = DefaultTrustLevel
	}
	return nil
}

// OrderedPair returns a and b in ascending order.
func OrderedPair(a, b uint) (uint, uint) {
	if a <= b {
		return a, b
	}
	return b, a
}

// IsParty reports whether userID is the initiator or the partner.
func (r *Relationship) IsParty(userID uint) bool {
	return userID == r.InitiatorID || userID == r.PartnerID
}

// OtherParty returns the party that is not userID.
func (r *Relationship) OtherParty(userID uint) uint {
	if userID == r.InitiatorID {
		return r.PartnerID
	}
	return r.InitiatorID
}

// Parties returns the initiator and the partner.
func (r *Relationship) Parties() [2]uint {
	return [2]uint{r.InitiatorID, r.PartnerID}
}

// ClampTrust bounds a trust level to [MinTrustLevel, MaxTrustLevel].
func ClampTrust(level int) int {
	if level < MinTrustLevel {
		return MinTrustLevel
	}
	if level > MaxTrustLevel {
		return MaxTrustLevel
	}
	return level
}
