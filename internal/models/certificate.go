package models

import (
	"fmt"
	"time"
)

// CertificateLevel is the tier of an award.
type CertificateLevel string

const (
	CertificateLevelBronze   CertificateLevel = "bronze"
	CertificateLevelSilver   CertificateLevel = "silver"
	CertificateLevelGold     CertificateLevel = "gold"
	CertificateLevelPlatinum CertificateLevel = "platinum"
	CertificateLevelDiamond  CertificateLevel = "diamond"
)

// Valid reports whether l is a known level.
func (l CertificateLevel) Valid() bool {
	switch l {
	case CertificateLevelBronze, CertificateLevelSilver, CertificateLevelGold,
		CertificateLevelPlatinum, CertificateLevelDiamond:
		return true
	}
	return false
}

// CertificateDesign names the rendering template. Rendering itself lives elsewhere.
type CertificateDesign string

const (
	CertificateDesignClassic CertificateDesign = "classic"
	CertificateDesignModern  CertificateDesign = "modern"
	CertificateDesignElegant CertificateDesign = "elegant"
	CertificateDesignPlayful CertificateDesign = "playful"
	DefaultCertificateDesign                   = CertificateDesignClassic
)

// Valid reports whether d is a known design.
func (d CertificateDesign) Valid() bool {
	switch d {
	case CertificateDesignClassic, CertificateDesignModern, CertificateDesignElegant, CertificateDesignPlayful:
		return true
	}
	return false
}

// SubjectKind discriminates the entity a certificate certifies.
type SubjectKind string

const (
	SubjectKindRelationship SubjectKind = "relationship"
	SubjectKindMilestone    SubjectKind = "milestone"
)

// CertificateSubject is the tagged union of entities a certificate may certify.
// Consumers resolve it with a type switch over RelationshipRef and MilestoneRef.
type CertificateSubject interface {
	Kind() SubjectKind
	ID() uint
}

// RelationshipRef certifies a relationship snapshot.
type RelationshipRef struct {
	RelationshipID uint
}

func (r RelationshipRef) Kind() SubjectKind { return SubjectKindRelationship }
func (r RelationshipRef) ID() uint          { return r.RelationshipID }

// MilestoneRef certifies a completed milestone.
type MilestoneRef struct {
	MilestoneID uint
}

func (m MilestoneRef) Kind() SubjectKind { return SubjectKindMilestone }
func (m MilestoneRef) ID() uint          { return m.MilestoneID }

// Certificate is an immutable award record. Only revocation and the view,
// download and share counters change after issuance.
type Certificate struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	RelationshipID    uint              `gorm:"not null;index" json:"relationship_id"`
	RelatedTo         SubjectKind       `gorm:"type:varchar(16);not null;index:idx_certificate_subject" json:"related_to"`
	RelatedID         uint              `gorm:"not null;index:idx_certificate_subject" json:"related_id"`
	Title             string            `gorm:"size:200;not null" json:"title"`
	Description       string            `gorm:"type:text" json:"description"`
	Level             CertificateLevel  `gorm:"type:varchar(16);not null" json:"level"`
	Design            CertificateDesign `gorm:"type:varchar(16);not null" json:"design"`
	IssuedBy          uint              `gorm:"not null" json:"issued_by"`
	CertificateNumber string            `gorm:"size:40;not null;uniqueIndex" json:"certificate_number"`
	IssuedAt          time.Time         `gorm:"not null" json:"issued_at"`
	ExpiresAt         *time.Time        `json:"expires_at"`
	IsRevoked         bool              `gorm:"not null;default:false" json:"is_revoked"`
	RevokedAt         *time.Time        `json:"revoked_at"`
	RevokedReason     string            `gorm:"type:text" json:"revoked_reason"`
	ViewCount         int               `gorm:"not null;default:0" json:"view_count"`
	DownloadCount     int               `gorm:"not null;default:0" json:"download_count"`
	ShareCount        int               `gorm:"not null;default:0" json:"share_count"`
	CreatedAt         time.Time         `json:"created_at"`

	Recipients []CertificateRecipient `gorm:"foreignKey:CertificateID;constraint:OnDelete:CASCADE" json:"recipients"`
}

// CertificateRecipient binds a certificate to one of its fixed recipients.
type CertificateRecipient struct {
	ID            uint `gorm:"primaryKey" json:"id"`
	CertificateID uint `gorm:"not null;uniqueIndex:idx_certificate_recipient" json:"certificate_id"`
	UserID        uint `gorm:"not null;uniqueIndex:idx_certificate_recipient;index" json:"user_id"`
}

// Subject decodes the stored discriminator into its variant.
func (c *Certificate) Subject() (CertificateSubject, error) {
	switch c.RelatedTo {
	case SubjectKindRelationship:
		return RelationshipRef{RelationshipID: c.RelatedID}, nil
	case SubjectKindMilestone:
		return MilestoneRef{MilestoneID: c.RelatedID}, nil
	default:
		return nil, fmt.Errorf("unknown certificate subject %q", c.RelatedTo)
	}
}

// IsValid reports whether the certificate is unrevoked and unexpired at now.
func (c *Certificate) IsValid(now time.Time) bool {
	if c.IsRevoked {
		return false
	}
	return c.ExpiresAt == nil || now.Before(*c.ExpiresAt)
}

// HasRecipient reports whether userID is one of the recipients.
func (c *Certificate) HasRecipient(userID uint) bool {
	for _, r := range c.Recipients {
		if r.UserID == userID {
			return true
		}
	}
	return false
}
