package server

import (
	"tether/internal/models"
	"tether/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateMilestoneRequest is the body of POST /relationships/:id/milestones.
type CreateMilestoneRequest struct {
	Title             string                   `json:"title"`
	Description       string                   `json:"description"`
	Category          models.MilestoneCategory `json:"category"`
	Difficulty        models.Difficulty        `json:"difficulty"`
	TargetDate        string                   `json:"target_date"`
	Criteria          []string                 `json:"criteria"`
	RewardCertificate bool                     `json:"reward_certificate"`
	RewardPoints      int                      `json:"reward_points"`
}

// UpdateMilestoneRequest is the body of PUT /milestones/:id.
type UpdateMilestoneRequest struct {
	Title             *string                   `json:"title"`
	Description       *string                   `json:"description"`
	Category          *models.MilestoneCategory `json:"category"`
	Difficulty        *models.Difficulty        `json:"difficulty"`
	TargetDate        *string                   `json:"target_date"`
	RewardCertificate *bool                     `json:"reward_certificate"`
	RewardPoints      *int                      `json:"reward_points"`
}

// EvidenceRequest is the body of POST /milestones/:id/evidence.
type EvidenceRequest struct {
	Description string `json:"description"`
	URL         string `json:"url"`
}

// CompleteMilestoneResponse is returned by POST /milestones/:id/complete.
type CompleteMilestoneResponse struct {
	Milestone   *models.Milestone   `json:"milestone"`
	Certificate *models.Certificate `json:"certificate,omitempty"`
}

// GetMilestones handles GET /api/relationships/:id/milestones
// @Summary List milestones
// @Tags milestones
// @Produce json
// @Param id path int true "Relationship ID"
// @Param status query string false "Filter by status"
// @Success 200 {array} models.Milestone
// @Security BearerAuth
// @Router /relationships/{id}/milestones [get]
func (s *Server) GetMilestones(c *fiber.Ctx) error {
	relID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultPageSize)
	milestones, err := s.milestones.ListMilestones(c.UserContext(), userID(c), relID,
		models.MilestoneStatus(c.Query("status")), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(milestones)
}

// CreateMilestone handles POST /api/relationships/:id/milestones
// @Summary Create milestone
// @Tags milestones
// @Accept json
// @Produce json
// @Param id path int true "Relationship ID"
// @Param request body CreateMilestoneRequest true "Milestone"
// @Success 201 {object} models.Milestone
// @Security BearerAuth
// @Router /relationships/{id}/milestones [post]
func (s *Server) CreateMilestone(c *fiber.Ctx) error {
	relID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req CreateMilestoneRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	target, err := parseTime(req.TargetDate)
	if err != nil {
		return respondError(c, err)
	}

	milestone, err := s.milestones.CreateMilestone(c.UserContext(), service.CreateMilestoneInput{
		ActorID:           userID(c),
		RelationshipID:    relID,
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		Difficulty:        req.Difficulty,
		TargetDate:        target,
		Criteria:          req.Criteria,
		RewardCertificate: req.RewardCertificate,
		RewardPoints:      req.RewardPoints,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(milestone)
}

// GetMilestone handles GET /api/milestones/:id
// @Summary Get milestone
// @Tags milestones
// @Produce json
// @Param id path int true "Milestone ID"
// @Success 200 {object} models.Milestone
// @Security BearerAuth
// @Router /milestones/{id} [get]
func (s *Server) GetMilestone(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	milestone, err := s.milestones.GetMilestone(c.UserContext(), userID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(milestone)
}

// UpdateMilestone handles PUT /api/milestones/:id
// @Summary Update milestone
// @Tags milestones
// @Accept json
// @Produce json
// @Param id path int true "Milestone ID"
// @Param request body UpdateMilestoneRequest true "Fields to change"
// @Success 200 {object} models.Milestone
// @Security BearerAuth
// @Router /milestones/{id} [put]
func (s *Server) UpdateMilestone(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req UpdateMilestoneRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	in := service.UpdateMilestoneInput{
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		Difficulty:        req.Difficulty,
		RewardCertificate: req.RewardCertificate,
		RewardPoints:      req.RewardPoints,
	}
	if req.TargetDate != nil {
		if in.TargetDate, err = parseTime(*req.TargetDate); err != nil {
			return respondError(c, err)
		}
	}

	milestone, err := s.milestones.UpdateMilestone(c.UserContext(), userID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(milestone)
}

// DeleteMilestone handles DELETE /api/milestones/:id
// @Summary Delete milestone
// @Tags milestones
// @Param id path int true "Milestone ID"
// @Success 204
// @Security BearerAuth
// @Router /milestones/{id} [delete]
func (s *Server) DeleteMilestone(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.milestones.DeleteMilestone(c.UserContext(), userID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CompleteMilestone handles POST /api/milestones/:id/complete
// @Summary Complete milestone
// @Description Completes the milestone and issues its reward certificate when configured.
// @Tags milestones
// @Produce json
// @Param id path int true "Milestone ID"
// @Success 200 {object} CompleteMilestoneResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /milestones/{id}/complete [post]
func (s *Server) CompleteMilestone(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	milestone, cert, err := s.milestones.CompleteMilestone(c.UserContext(), userID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(CompleteMilestoneResponse{Milestone: milestone, Certificate: cert})
}

// AddMilestoneEvidence handles POST /api/milestones/:id/evidence
// @Summary Add evidence
// @Tags milestones
// @Accept json
// @Produce json
// @Param id path int true "Milestone ID"
// @Param request body EvidenceRequest true "Evidence"
// @Success 201 {object} models.Milestone
// @Security BearerAuth
// @Router /milestones/{id}/evidence [post]
func (s *Server) AddMilestoneEvidence(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req EvidenceRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	milestone, err := s.milestones.AddEvidence(c.UserContext(), userID(c), id, service.AddEvidenceInput{
		Description: req.Description,
		URL:         req.URL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(milestone)
}

// CompleteCriterion handles POST /api/milestones/:id/criteria/:criterionId/complete
// @Summary Complete criterion
// @Tags milestones
// @Produce json
// @Param id path int true "Milestone ID"
// @Param criterionId path int true "Criterion ID"
// @Success 200 {object} models.Milestone
// @Security BearerAuth
// @Router /milestones/{id}/criteria/{criterionId}/complete [post]
func (s *Server) CompleteCriterion(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	criterionID, err := s.parseID(c, "criterionId")
	if err != nil {
		return nil
	}
	milestone, err := s.milestones.CompleteCriterion(c.UserContext(), userID(c), id, criterionID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(milestone)
}
