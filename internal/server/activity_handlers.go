package server

import (
	"fmt"

	"tether/internal/models"
	"tether/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateActivityRequest is the body of POST /relationships/:id/activities.
type CreateActivityRequest struct {
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	Type        models.ActivityType     `json:"type"`
	Category    models.ActivityCategory `json:"category"`
	Mood        models.Mood             `json:"mood"`
	TrustChange int                     `json:"trust_change"`
	Location    string                  `json:"location"`
	OccurredAt  string                  `json:"occurred_at"`
}

// UpdateActivityRequest is the body of PUT /activities/:id. The trust impact
// cannot be changed after logging.
type UpdateActivityRequest struct {
	Title       *string                  `json:"title"`
	Description *string                  `json:"description"`
	Type        *models.ActivityType     `json:"type"`
	Category    *models.ActivityCategory `json:"category"`
	Mood        *models.Mood             `json:"mood"`
	Location    *string                  `json:"location"`
	OccurredAt  *string                  `json:"occurred_at"`
}

// ReactionRequest is the body of POST /activities/:id/reactions.
type ReactionRequest struct {
	Reaction models.ReactionType `json:"reaction"`
}

// CommentRequest is the body of POST /activities/:id/comments.
type CommentRequest struct {
	Content string `json:"content"`
}

// GetActivities handles GET /api/relationships/:id/activities
// @Summary List activities
// @Tags activities
// @Produce json
// @Param id path int true "Relationship ID"
// @Success 200 {array} models.Activity
// @Security BearerAuth
// @Router /relationships/{id}/activities [get]
func (s *Server) GetActivities(c *fiber.Ctx) error {
	relID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultPageSize)
	activities, err := s.activities.ListActivities(c.UserContext(), userID(c), relID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(activities)
}

// CreateActivity handles POST /api/relationships/:id/activities
// @Summary Log activity
// @Description Logs a shared activity and applies its trust change to the relationship.
// @Tags activities
// @Accept json
// @Produce json
// @Param id path int true "Relationship ID"
// @Param request body CreateActivityRequest true "Activity"
// @Success 201 {object} models.Activity
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /relationships/{id}/activities [post]
func (s *Server) CreateActivity(c *fiber.Ctx) error {
	relID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req CreateActivityRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.TrustChange < models.MinTrustChange || req.TrustChange > models.MaxTrustChange {
		return respondError(c, models.NewValidationError(fmt.Sprintf(
			"trust_change must be between %d and %d", models.MinTrustChange, models.MaxTrustChange)))
	}
	occurredAt, err := parseTime(req.OccurredAt)
	if err != nil {
		return respondError(c, err)
	}

	activity, err := s.activities.CreateActivity(c.UserContext(), service.CreateActivityInput{
		ActorID:        userID(c),
		RelationshipID: relID,
		Title:          req.Title,
		Description:    req.Description,
		Type:           req.Type,
		Category:       req.Category,
		Mood:           req.Mood,
		TrustChange:    req.TrustChange,
		Location:       req.Location,
		OccurredAt:     occurredAt,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(activity)
}

// GetActivity handles GET /api/activities/:id
// @Summary Get activity
// @Tags activities
// @Produce json
// @Param id path int true "Activity ID"
// @Success 200 {object} models.Activity
// @Security BearerAuth
// @Router /activities/{id} [get]
func (s *Server) GetActivity(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	activity, err := s.activities.GetActivity(c.UserContext(), userID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(activity)
}

// UpdateActivity handles PUT /api/activities/:id
// @Summary Update activity
// @Tags activities
// @Accept json
// @Produce json
// @Param id path int true "Activity ID"
// @Param request body UpdateActivityRequest true "Fields to change"
// @Success 200 {object} models.Activity
// @Security BearerAuth
// @Router /activities/{id} [put]
func (s *Server) UpdateActivity(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req UpdateActivityRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	in := service.UpdateActivityInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Category:    req.Category,
		Mood:        req.Mood,
		Location:    req.Location,
	}
	if req.OccurredAt != nil {
		if in.OccurredAt, err = parseTime(*req.OccurredAt); err != nil {
			return respondError(c, err)
		}
	}

	activity, err := s.activities.UpdateActivity(c.UserContext(), userID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(activity)
}

// DeleteActivity handles DELETE /api/activities/:id
// @Summary Delete activity
// @Tags activities
// @Param id path int true "Activity ID"
// @Success 204
// @Security BearerAuth
// @Router /activities/{id} [delete]
func (s *Server) DeleteActivity(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.activities.DeleteActivity(c.UserContext(), userID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddReaction handles POST /api/activities/:id/reactions
// @Summary React to activity
// @Description Each user holds at most one reaction; a new one replaces the old.
// @Tags activities
// @Accept json
// @Produce json
// @Param id path int true "Activity ID"
// @Param request body ReactionRequest true "Reaction"
// @Success 200 {object} models.Activity
// @Security BearerAuth
// @Router /activities/{id}/reactions [post]
func (s *Server) AddReaction(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req ReactionRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	activity, err := s.activities.AddReaction(c.UserContext(), userID(c), id, req.Reaction)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(activity)
}

// AddActivityComment handles POST /api/activities/:id/comments
// @Summary Comment on activity
// @Tags activities
// @Accept json
// @Produce json
// @Param id path int true "Activity ID"
// @Param request body CommentRequest true "Comment"
// @Success 201 {object} models.ActivityComment
// @Security BearerAuth
// @Router /activities/{id}/comments [post]
func (s *Server) AddActivityComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req CommentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	comment, err := s.activities.AddComment(c.UserContext(), userID(c), id, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}
