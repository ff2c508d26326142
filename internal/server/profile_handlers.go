package server

import (
	"conduit/internal/models"

	"github.com/gofiber/fiber/v2"
)

type profileResponse struct {
	Profile *models.ProfileView `json:"profile"`
}

// GetProfile handles GET /api/profiles/:username
// @Summary Get profile
// @Tags profiles
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} profileResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /profiles/{username} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.Get(c.UserContext(), viewerID(c), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profileResponse{Profile: profile})
}

// FollowUser handles POST /api/profiles/:username/follow
// @Summary Follow user
// @Tags profiles
// @Produce json
// @Security Token
// @Param username path string true "Username"
// @Success 200 {object} profileResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /profiles/{username}/follow [post]
func (s *Server) FollowUser(c *fiber.Ctx) error {
	profile, err := s.profileService.Follow(c.UserContext(), viewerID(c), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profileResponse{Profile: profile})
}

// UnfollowUser handles DELETE /api/profiles/:username/follow
// @Summary Unfollow user
// @Tags profiles
// @Produce json
// @Security Token
// @Param username path string true "Username"
// @Success 200 {object} profileResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /profiles/{username}/follow [delete]
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	profile, err := s.profileService.Unfollow(c.UserContext(), viewerID(c), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profileResponse{Profile: profile})
}
