package server

import (
	"tether/internal/models"
	"tether/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ProposeRelationshipRequest is the body of POST /relationships.
type ProposeRelationshipRequest struct {
	PartnerEmail string                        `json:"partner_email"`
	Title        string                        `json:"title"`
	Type         models.RelationshipType       `json:"type"`
	Description  string                        `json:"description"`
	Visibility   models.RelationshipVisibility `json:"visibility"`
}

// UpdateRelationshipRequest is the body of PUT /relationships/:id.
type UpdateRelationshipRequest struct {
	Title       *string                        `json:"title"`
	Description *string                        `json:"description"`
	Type        *models.RelationshipType       `json:"type"`
	Visibility  *models.RelationshipVisibility `json:"visibility"`
}

// GetRelationships handles GET /api/relationships
// @Summary List relationships
// @Description List the caller's relationships, newest first.
// @Tags relationships
// @Produce json
// @Param status query string false "Filter by status"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.Relationship
// @Security BearerAuth
// @Router /relationships [get]
func (s *Server) GetRelationships(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPageSize)
	rels, err := s.relationships.ListRelationships(c.UserContext(), service.ListRelationshipsInput{
		ActorID: userID(c),
		Status:  models.RelationshipStatus(c.Query("status")),
		Limit:   page.Limit,
		Offset:  page.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rels)
}

// ProposeRelationship handles POST /api/relationships
// @Summary Propose a relationship
// @Description Invite the user with partner_email into a pending relationship.
// @Tags relationships
// @Accept json
// @Produce json
// @Param request body ProposeRelationshipRequest true "Proposal"
// @Success 201 {object} models.Relationship
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /relationships [post]
func (s *Server) ProposeRelationship(c *fiber.Ctx) error {
	var req ProposeRelationshipRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	rel, err := s.relationships.ProposeRelationship(c.UserContext(), service.ProposeRelationshipInput{
		ActorID:      userID(c),
		PartnerEmail: req.PartnerEmail,
		Title:        req.Title,
		Type:         req.Type,
		Description:  req.Description,
		Visibility:   req.Visibility,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(rel)
}

// GetRelationship handles GET /api/relationships/:id
// @Summary Get relationship
// @Tags relationships
// @Produce json
// @Param id path int true "Relationship ID"
// @Success 200 {object} models.Relationship
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /relationships/{id} [get]
func (s *Server) GetRelationship(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	rel, err := s.relationships.GetRelationship(c.UserContext(), userID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rel)
}

// UpdateRelationship handles PUT /api/relationships/:id
// @Summary Update relationship
// @Description Change descriptive fields of an active relationship.
// @Tags relationships
// @Accept json
// @Produce json
// @Param id path int true "Relationship ID"
// @Param request body UpdateRelationshipRequest true "Fields to change"
// @Success 200 {object} models.Relationship
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /relationships/{id} [put]
func (s *Server) UpdateRelationship(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req UpdateRelationshipRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	rel, err := s.relationships.UpdateRelationship(c.UserContext(), userID(c), id, service.UpdateRelationshipInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Visibility:  req.Visibility,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rel)
}

// DeleteRelationship handles DELETE /api/relationships/:id
// @Summary Delete or archive relationship
// @Description A pending relationship is deleted; an active one is archived.
// @Tags relationships
// @Produce json
// @Param id path int true "Relationship ID"
// @Success 200 {object} object{deleted=bool,relationship=models.Relationship}
// @Security BearerAuth
// @Router /relationships/{id} [delete]
func (s *Server) DeleteRelationship(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	rel, deleted, err := s.relationships.ArchiveOrDeleteRelationship(c.UserContext(), userID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	if deleted {
		return c.JSON(fiber.Map{"deleted": true})
	}
	return c.JSON(fiber.Map{"deleted": false, "relationship": rel})
}

type relationshipTransition func(s *Server, c *fiber.Ctx, actorID, id uint) (*models.Relationship, error)

// transition runs a single lifecycle transition on /relationships/:id/<verb>.
func (s *Server) transition(c *fiber.Ctx, fn relationshipTransition) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	rel, err := fn(s, c, userID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rel)
}

// AcceptRelationship handles POST /api/relationships/:id/accept
// @Summary Accept relationship
// @Description The invited partner accepts a pending relationship.
// @Tags relationships
// @Produce json
// @Param id path int true "Relationship ID"
// @Success 200 {object} models.Relationship
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /relationships/{id}/accept [post]
func (s *Server) AcceptRelationship(c *fiber.Ctx) error {
	return s.transition(c, func(s *Server, c *fiber.Ctx, actorID, id uint) (*models.Relationship, error) {
		return s.relationships.AcceptRelationship(c.UserContext(), actorID, id)
	})
}

// DeclineRelationship handles POST /api/relationships/:id/decline
// @Summary Decline relationship
// @Tags relationships
// @Produce json
// @Param id path int true "Relationship ID"
// @Success 200 {object} models.Relationship
// @Security BearerAuth
// @Router /relationships/{id}/decline [post]
func (s *Server) DeclineRelationship(c *fiber.Ctx) error {
	return s.transition(c, func(s *Server, c *fiber.Ctx, actorID, id uint) (*models.Relationship, error) {
		return s.relationships.DeclineRelationship(c.UserContext(), actorID, id)
	})
}

// RequestBreakup handles POST /api/relationships/:id/breakup
// @Summary Request breakup
// @Tags relationships
// @Produce json
// @Param id path int true "Relationship ID"
// @Success 200 {object} models.Relationship
// @Security BearerAuth
// @Router /relationships/{id}/breakup [post]
func (s *Server) RequestBreakup(c *fiber.Ctx) error {
	return s.transition(c, func(s *Server, c *fiber.Ctx, actorID, id uint) (*models.Relationship, error) {
		return s.relationships.RequestBreakup(c.UserContext(), actorID, id)
	})
}

// ConfirmBreakup handles POST /api/relationships/:id/breakup/confirm
// @Summary Confirm breakup
// @Description The party that did not request the breakup ends the relationship.
// @Tags relationships
// @Produce json
// @Param id path int true "Relationship ID"
// @Success 200 {object} models.Relationship
// @Security BearerAuth
// @Router /relationships/{id}/breakup/confirm [post]
func (s *Server) ConfirmBreakup(c *fiber.Ctx) error {
	return s.transition(c, func(s *Server, c *fiber.Ctx, actorID, id uint) (*models.Relationship, error) {
		return s.relationships.ConfirmBreakup(c.UserContext(), actorID, id)
	})
}

// CancelBreakup handles POST /api/relationships/:id/breakup/cancel
// @Summary Cancel breakup request
// @Tags relationships
// @Produce json
// @Param id path int true "Relationship ID"
// @Success 200 {object} models.Relationship
// @Security BearerAuth
// @Router /relationships/{id}/breakup/cancel [post]
func (s *Server) CancelBreakup(c *fiber.Ctx) error {
	return s.transition(c, func(s *Server, c *fiber.Ctx, actorID, id uint) (*models.Relationship, error) {
		return s.relationships.CancelBreakupRequest(c.UserContext(), actorID, id)
	})
}
