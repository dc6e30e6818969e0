package server

import (
	"tether/internal/models"

	"github.com/gofiber/fiber/v2"
)

// requireFeature hides a route from users the flag is off for.
func (s *Server) requireFeature(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !s.features.Enabled(name, userID(c)) {
			return respondError(c, &models.AppError{
				Code:    models.CodeNotFound,
				Message: "This feature is not available",
			})
		}
		return c.Next()
	}
}

// GetMyFeatures handles GET /api/users/me/features
// @Summary My feature flags
// @Description Evaluated feature flags for the current user.
// @Tags users
// @Produce json
// @Success 200 {object} map[string]bool
// @Security BearerAuth
// @Router /users/me/features [get]
func (s *Server) GetMyFeatures(c *fiber.Ctx) error {
	return c.JSON(s.features.Snapshot(userID(c)))
}
