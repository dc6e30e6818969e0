package server

import (
	"tether/internal/models"
	"tether/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ProposeTermRequest is the body of POST /relationships/:id/terms.
type ProposeTermRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Category    models.TermCategory `json:"category"`
	Priority    models.Priority     `json:"priority"`
}

// UpdateTermRequest is the body of PUT /terms/:id.
type UpdateTermRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Category    *models.TermCategory `json:"category"`
	Priority    *models.Priority     `json:"priority"`
}

// AgreeTermRequest is the optional body of POST /terms/:id/agree.
type AgreeTermRequest struct {
	Signature string `json:"signature"`
}

// ReportViolationRequest is the body of POST /terms/:id/violations.
type ReportViolationRequest struct {
	Description string                   `json:"description"`
	Severity    models.ViolationSeverity `json:"severity"`
}

// GetTerms handles GET /api/relationships/:id/terms
// @Summary List terms
// @Tags terms
// @Produce json
// @Param id path int true "Relationship ID"
// @Param status query string false "Filter by status"
// @Success 200 {array} models.Term
// @Security BearerAuth
// @Router /relationships/{id}/terms [get]
func (s *Server) GetTerms(c *fiber.Ctx) error {
	relID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultPageSize)
	terms, err := s.terms.ListTerms(c.UserContext(), userID(c), relID,
		models.TermStatus(c.Query("status")), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(terms)
}

// ProposeTerm handles POST /api/relationships/:id/terms
// @Summary Propose a term
// @Tags terms
// @Accept json
// @Produce json
// @Param id path int true "Relationship ID"
// @Param request body ProposeTermRequest true "Term"
// @Success 201 {object} models.Term
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /relationships/{id}/terms [post]
func (s *Server) ProposeTerm(c *fiber.Ctx) error {
	relID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req ProposeTermRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	term, err := s.terms.ProposeTerm(c.UserContext(), service.ProposeTermInput{
		ActorID:        userID(c),
		RelationshipID: relID,
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		Priority:       req.Priority,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(term)
}

// GetTerm handles GET /api/terms/:id
// @Summary Get term
// @Tags terms
// @Produce json
// @Param id path int true "Term ID"
// @Success 200 {object} models.Term
// @Security BearerAuth
// @Router /terms/{id} [get]
func (s *Server) GetTerm(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	term, err := s.terms.GetTerm(c.UserContext(), userID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(term)
}

// UpdateTerm handles PUT /api/terms/:id
// @Summary Update term
// @Description Editing a term clears collected agreements and marks it modified.
// @Tags terms
// @Accept json
// @Produce json
// @Param id path int true "Term ID"
// @Param request body UpdateTermRequest true "Fields to change"
// @Success 200 {object} models.Term
// @Security BearerAuth
// @Router /terms/{id} [put]
func (s *Server) UpdateTerm(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req UpdateTermRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	term, err := s.terms.UpdateTerm(c.UserContext(), userID(c), id, service.UpdateTermInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(term)
}

// DeleteTerm handles DELETE /api/terms/:id
// @Summary Delete term
// @Tags terms
// @Param id path int true "Term ID"
// @Success 204
// @Security BearerAuth
// @Router /terms/{id} [delete]
func (s *Server) DeleteTerm(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.terms.DeleteTerm(c.UserContext(), userID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AgreeTerm handles POST /api/terms/:id/agree
// @Summary Agree to term
// @Tags terms
// @Accept json
// @Produce json
// @Param id path int true "Term ID"
// @Param request body AgreeTermRequest false "Signature"
// @Success 200 {object} models.Term
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /terms/{id}/agree [post]
func (s *Server) AgreeTerm(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req AgreeTermRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return nil
		}
	}
	term, err := s.terms.AgreeTerm(c.UserContext(), userID(c), id, req.Signature)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(term)
}

// RejectTerm handles POST /api/terms/:id/reject
// @Summary Reject term
// @Tags terms
// @Produce json
// @Param id path int true "Term ID"
// @Success 200 {object} models.Term
// @Security BearerAuth
// @Router /terms/{id}/reject [post]
func (s *Server) RejectTerm(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	term, err := s.terms.RejectTerm(c.UserContext(), userID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(term)
}

// ReportViolation handles POST /api/terms/:id/violations
// @Summary Report violation
// @Tags terms
// @Accept json
// @Produce json
// @Param id path int true "Term ID"
// @Param request body ReportViolationRequest true "Violation"
// @Success 201 {object} models.TermViolation
// @Security BearerAuth
// @Router /terms/{id}/violations [post]
func (s *Server) ReportViolation(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req ReportViolationRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	violation, err := s.terms.ReportViolation(c.UserContext(), userID(c), id, service.ReportViolationInput{
		Description: req.Description,
		Severity:    req.Severity,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(violation)
}

// ResolveViolation handles POST /api/terms/:id/violations/:violationId/resolve
// @Summary Resolve violation
// @Tags terms
// @Produce json
// @Param id path int true "Term ID"
// @Param violationId path int true "Violation ID"
// @Success 200 {object} models.Term
// @Security BearerAuth
// @Router /terms/{id}/violations/{violationId}/resolve [post]
func (s *Server) ResolveViolation(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	violationID, err := s.parseID(c, "violationId")
	if err != nil {
		return nil
	}
	term, err := s.terms.ResolveViolation(c.UserContext(), userID(c), id, violationID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(term)
}
