package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tether/internal/cache"
	"tether/internal/events"
	"tether/internal/models"
	"tether/internal/observability"
	"tether/internal/repository"
	"tether/internal/validation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	entityCertificate = "certificate"

	certificateNumberPrefix   = "TTH"
	maxCertificateNumberTries = 5
)

// IssueCertificateInput describes a certificate to issue.
type IssueCertificateInput struct {
	Subject        models.CertificateSubject
	RelationshipID uint
	Title          string
	Description    string
	Recipients     []uint
	Level          models.CertificateLevel
	Design         models.CertificateDesign
	IssuedBy       uint
	ExpiresAt      *time.Time
}

// SnapshotCertificateInput asks for a certificate of the relationship itself.
type SnapshotCertificateInput struct {
	ActorID        uint
	RelationshipID uint
	Title          string
	Description    string
	Level          models.CertificateLevel
	Design         models.CertificateDesign
}

// CertificateVerification is the public answer for a certificate number.
type CertificateVerification struct {
	CertificateNumber string                  `json:"certificate_number"`
	Title             string                  `json:"title"`
	Level             models.CertificateLevel `json:"level"`
	RelatedTo         models.SubjectKind      `json:"related_to"`
	IssuedAt          time.Time               `json:"issued_at"`
	ExpiresAt         *time.Time              `json:"expires_at"`
	IsRevoked         bool                    `json:"is_revoked"`
	Valid             bool                    `json:"valid"`
}

// CertificateService issues and manages award certificates.
type CertificateService struct {
	store *repository.Store
	gate  RelationshipGate
	ttl   time.Duration
	sideEffects

	newNumber func(time.Time) string
}

// NewCertificateService returns a new CertificateService. A positive ttl
// gives certificates issued without an explicit expiry a default one.
func NewCertificateService(store *repository.Store, gate RelationshipGate, dispatcher Dispatcher, publisher events.Publisher, ttl time.Duration) *CertificateService {
	return &CertificateService{
		store:       store,
		gate:        gate,
		ttl:         ttl,
		sideEffects: newSideEffects(dispatcher, publisher),
		newNumber:   generateCertificateNumber,
	}
}

// generateCertificateNumber returns TTH-YYYYMMDD-XXXXXXXXXX.
func generateCertificateNumber(at time.Time) string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("%s-%s-%s", certificateNumberPrefix, at.Format("20060102"), raw[:10])
}

// IssueCertificate issues a certificate in its own transaction and notifies
// the recipients.
func (s *CertificateService) IssueCertificate(ctx context.Context, in IssueCertificateInput) (*models.Certificate, error) {
	var cert *models.Certificate
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		cert, err = s.IssueTx(ctx, tx, in)
		if err != nil {
			return err
		}
		return tx.Relationships.SetLatestCertificate(ctx, in.RelationshipID, cert.ID)
	})
	if err != nil {
		return nil, err
	}
	s.announce(ctx, cert, in.IssuedBy)
	return cert, nil
}

// IssueTx issues a certificate inside the caller's transaction. The caller
// is responsible for notifying recipients after commit.
func (s *CertificateService) IssueTx(ctx context.Context, tx *repository.Store, in IssueCertificateInput) (cert *models.Certificate, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "CertificateService", "IssueTx",
		attribute.Int("recipients", len(in.Recipients)),
	)
	defer func() { observability.EndSpan(span, err) }()

	if in.Subject == nil {
		return nil, models.NewValidationError("Certificate subject is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, models.NewValidationError("Certificate title is required")
	}
	if !in.Level.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("Unknown certificate level %q", in.Level))
	}
	if in.Design == "" {
		in.Design = models.DefaultCertificateDesign
	}
	if !in.Design.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("Unknown certificate design %q", in.Design))
	}
	recipients := uniqueIDs(in.Recipients)
	if len(recipients) == 0 {
		return nil, models.NewValidationError("A certificate needs at least one recipient")
	}

	now := s.now()
	expiresAt := in.ExpiresAt
	if expiresAt == nil && s.ttl > 0 {
		exp := now.Add(s.ttl)
		expiresAt = &exp
	}

	for attempt := 0; attempt < maxCertificateNumberTries; attempt++ {
		number := s.newNumber(now)
		exists, err := tx.Certificates.NumberExists(ctx, number)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		candidate := &models.Certificate{
			RelationshipID:    in.RelationshipID,
			RelatedTo:         in.Subject.Kind(),
			RelatedID:         in.Subject.ID(),
			Title:             strings.TrimSpace(in.Title),
			Description:       in.Description,
			Level:             in.Level,
			Design:            in.Design,
			IssuedBy:          in.IssuedBy,
			CertificateNumber: number,
			IssuedAt:          now,
			ExpiresAt:         expiresAt,
		}
		for _, id := range recipients {
			candidate.Recipients = append(candidate.Recipients, models.CertificateRecipient{UserID: id})
		}

		// The savepoint keeps the caller's transaction usable when the
		// unique number index rejects a concurrent duplicate.
		err = tx.Transaction(ctx, func(inner *repository.Store) error {
			return inner.Certificates.Create(ctx, candidate)
		})
		if models.IsCode(err, models.CodeConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}

		observability.CertificatesIssued.WithLabelValues(string(candidate.Level), string(candidate.RelatedTo)).Inc()
		return candidate, nil
	}

	return nil, models.NewConflictError("Could not allocate a unique certificate number")
}

// IssueRelationshipCertificate issues a snapshot certificate of a relationship
// to both parties. Pending relationships cannot be certified.
func (s *CertificateService) IssueRelationshipCertificate(ctx context.Context, in SnapshotCertificateInput) (*models.Certificate, error) {
	rel, err := s.gate.RequireParty(ctx, in.ActorID, in.RelationshipID)
	if err != nil {
		return nil, err
	}
	if rel.Status == models.RelationshipStatusPending {
		return nil, models.NewInvalidStateError("A pending relationship cannot be certified")
	}
	parties := rel.Parties()

	return s.IssueCertificate(ctx, IssueCertificateInput{
		Subject:        models.RelationshipRef{RelationshipID: rel.ID},
		RelationshipID: rel.ID,
		Title:          in.Title,
		Description:    in.Description,
		Recipients:     parties[:],
		Level:          in.Level,
		Design:         in.Design,
		IssuedBy:       in.ActorID,
	})
}

// RevokeCertificate revokes a certificate. The issuer and the recipients may
// revoke; a second revocation reports ALREADY_REVOKED.
func (s *CertificateService) RevokeCertificate(ctx context.Context, actorID, id uint, reason string) (*models.Certificate, error) {
	cert, err := s.authorized(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if cert.IsRevoked {
		return nil, models.NewAlreadyDoneError(models.CodeAlreadyRevoked, "Certificate is already revoked")
	}

	ok, err := s.store.Certificates.Revoke(ctx, id, strings.TrimSpace(reason), s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewAlreadyDoneError(models.CodeAlreadyRevoked, "Certificate is already revoked")
	}
	cache.InvalidateCertificate(ctx, cert.CertificateNumber)
	observability.CertificatesRevoked.Inc()

	var notes []*models.Notification
	for _, r := range cert.Recipients {
		if r.UserID == actorID {
			continue
		}
		notes = append(notes, withMeta(
			draft(r.UserID, actorID, models.NotificationCertificateRevoked, models.NotificationCategoryCertificate,
				"Certificate revoked", fmt.Sprintf("The certificate %q was revoked", cert.Title)),
			"certificate_id", cert.ID))
	}
	s.notify(ctx, notes...)
	s.committed(ctx, entityCertificate, "revoked", cert.RelationshipID, cert.ID, actorID)

	return s.store.Certificates.GetByID(ctx, id)
}

// GetCertificate returns a certificate to its issuer or a recipient and
// counts the view.
func (s *CertificateService) GetCertificate(ctx context.Context, actorID, id uint) (*models.Certificate, error) {
	if _, err := s.authorized(ctx, actorID, id); err != nil {
		return nil, err
	}
	if err := s.store.Certificates.Increment(ctx, id, repository.CounterView); err != nil {
		return nil, err
	}
	return s.store.Certificates.GetByID(ctx, id)
}

// RecordDownload counts a download.
func (s *CertificateService) RecordDownload(ctx context.Context, actorID, id uint) (*models.Certificate, error) {
	return s.count(ctx, actorID, id, repository.CounterDownload)
}

// RecordShare counts a share.
func (s *CertificateService) RecordShare(ctx context.Context, actorID, id uint) (*models.Certificate, error) {
	return s.count(ctx, actorID, id, repository.CounterShare)
}

func (s *CertificateService) count(ctx context.Context, actorID, id uint, counter repository.CertificateCounter) (*models.Certificate, error) {
	if _, err := s.authorized(ctx, actorID, id); err != nil {
		return nil, err
	}
	if err := s.store.Certificates.Increment(ctx, id, counter); err != nil {
		return nil, err
	}
	return s.store.Certificates.GetByID(ctx, id)
}

// ListCertificates returns the certificates the actor received.
func (s *CertificateService) ListCertificates(ctx context.Context, actorID uint, limit, offset int) ([]models.Certificate, error) {
	return s.store.Certificates.ListForUser(ctx, actorID, limit, offset)
}

// VerifyByNumber answers the public validity check for a certificate number.
func (s *CertificateService) VerifyByNumber(ctx context.Context, number string) (*CertificateVerification, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return nil, models.NewValidationError("Certificate number is required")
	}
	if !validation.IsCertificateNumber(number) {
		return nil, models.NewNotFoundError("Certificate", number)
	}

	var v CertificateVerification
	err := cache.Aside(ctx, cache.CertificateVerifyKey(number), &v, cache.CertificateVerifyTTL, func() error {
		cert, err := s.store.Certificates.GetByNumber(ctx, number)
		if err != nil {
			return err
		}
		v = CertificateVerification{
			CertificateNumber: cert.CertificateNumber,
			Title:             cert.Title,
			Level:             cert.Level,
			RelatedTo:         cert.RelatedTo,
			IssuedAt:          cert.IssuedAt,
			ExpiresAt:         cert.ExpiresAt,
			IsRevoked:         cert.IsRevoked,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Expiry moves with the clock, so validity is never served from cache.
	check := models.Certificate{IsRevoked: v.IsRevoked, ExpiresAt: v.ExpiresAt}
	v.Valid = check.IsValid(s.now())
	return &v, nil
}

// authorized loads a certificate the actor issued or received.
func (s *CertificateService) authorized(ctx context.Context, actorID, id uint) (*models.Certificate, error) {
	cert, err := s.store.Certificates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cert.IssuedBy != actorID && !cert.HasRecipient(actorID) {
		return nil, models.NewForbiddenError("You do not have access to this certificate")
	}
	return cert, nil
}

// announce notifies every recipient except the issuer.
func (s *CertificateService) announce(ctx context.Context, cert *models.Certificate, issuerID uint) {
	var notes []*models.Notification
	for _, r := range cert.Recipients {
		if r.UserID == issuerID {
			continue
		}
		notes = append(notes, certificateAwarded(cert, r.UserID, issuerID))
	}
	s.notify(ctx, notes...)
	s.committed(ctx, entityCertificate, "issued", cert.RelationshipID, cert.ID, issuerID)
}

func certificateAwarded(cert *models.Certificate, recipient, sender uint) *models.Notification {
	return withMeta(withMeta(withMeta(
		draft(recipient, sender, models.NotificationCertificateAwarded, models.NotificationCategoryCertificate,
			"Certificate awarded", fmt.Sprintf("You received a %s certificate: %s", cert.Level, cert.Title)),
		"certificate_id", cert.ID), "certificate_number", cert.CertificateNumber), "level", string(cert.Level))
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
