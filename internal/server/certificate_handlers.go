package server

import (
	"tether/internal/models"
	"tether/internal/service"

	"github.com/gofiber/fiber/v2"
)

// IssueCertificateRequest is the body of POST /relationships/:id/certificates.
type IssueCertificateRequest struct {
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	Level       models.CertificateLevel  `json:"level"`
	Design      models.CertificateDesign `json:"design"`
}

// RevokeCertificateRequest is the body of POST /certificates/:id/revoke.
type RevokeCertificateRequest struct {
	Reason string `json:"reason"`
}

// IssueRelationshipCertificate handles POST /api/relationships/:id/certificates
// @Summary Issue relationship certificate
// @Description Issues a certificate for the relationship to both parties.
// @Tags certificates
// @Accept json
// @Produce json
// @Param id path int true "Relationship ID"
// @Param request body IssueCertificateRequest true "Certificate"
// @Success 201 {object} models.Certificate
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /relationships/{id}/certificates [post]
func (s *Server) IssueRelationshipCertificate(c *fiber.Ctx) error {
	relID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req IssueCertificateRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	cert, err := s.certificates.IssueRelationshipCertificate(c.UserContext(), service.SnapshotCertificateInput{
		ActorID:        userID(c),
		RelationshipID: relID,
		Title:          req.Title,
		Description:    req.Description,
		Level:          req.Level,
		Design:         req.Design,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(cert)
}

// GetCertificates handles GET /api/certificates
// @Summary List my certificates
// @Tags certificates
// @Produce json
// @Success 200 {array} models.Certificate
// @Security BearerAuth
// @Router /certificates [get]
func (s *Server) GetCertificates(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPageSize)
	certs, err := s.certificates.ListCertificates(c.UserContext(), userID(c), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(certs)
}

// GetCertificate handles GET /api/certificates/:id
// @Summary Get certificate
// @Description Counts a view. Only the issuer and recipients may read it.
// @Tags certificates
// @Produce json
// @Param id path int true "Certificate ID"
// @Success 200 {object} models.Certificate
// @Security BearerAuth
// @Router /certificates/{id} [get]
func (s *Server) GetCertificate(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	cert, err := s.certificates.GetCertificate(c.UserContext(), userID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cert)
}

// RevokeCertificate handles POST /api/certificates/:id/revoke
// @Summary Revoke certificate
// @Tags certificates
// @Accept json
// @Produce json
// @Param id path int true "Certificate ID"
// @Param request body RevokeCertificateRequest false "Reason"
// @Success 200 {object} models.Certificate
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /certificates/{id}/revoke [post]
func (s *Server) RevokeCertificate(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req RevokeCertificateRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return nil
		}
	}
	cert, err := s.certificates.RevokeCertificate(c.UserContext(), userID(c), id, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cert)
}

// DownloadCertificate handles POST /api/certificates/:id/download
// @Summary Record certificate download
// @Tags certificates
// @Produce json
// @Param id path int true "Certificate ID"
// @Success 200 {object} models.Certificate
// @Security BearerAuth
// @Router /certificates/{id}/download [post]
func (s *Server) DownloadCertificate(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	cert, err := s.certificates.RecordDownload(c.UserContext(), userID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cert)
}

// ShareCertificate handles POST /api/certificates/:id/share
// @Summary Record certificate share
// @Tags certificates
// @Produce json
// @Param id path int true "Certificate ID"
// @Success 200 {object} models.Certificate
// @Security BearerAuth
// @Router /certificates/{id}/share [post]
func (s *Server) ShareCertificate(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	cert, err := s.certificates.RecordShare(c.UserContext(), userID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cert)
}

// VerifyCertificate handles GET /api/certificates/verify/:number
// @Summary Verify certificate
// @Description Public lookup of a certificate by its number.
// @Tags certificates
// @Produce json
// @Param number path string true "Certificate number"
// @Success 200 {object} service.CertificateVerification
// @Failure 404 {object} models.ErrorResponse
// @Router /certificates/verify/{number} [get]
func (s *Server) VerifyCertificate(c *fiber.Ctx) error {
	v, err := s.certificates.VerifyByNumber(c.UserContext(), c.Params("number"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(v)
}
