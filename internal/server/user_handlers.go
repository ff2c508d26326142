package server

import (
	"conduit/internal/models"
	"conduit/internal/service"

	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	User service.RegisterInput `json:"user"`
}

type loginRequest struct {
	User service.LoginInput `json:"user"`
}

type updateUserRequest struct {
	User service.UpdateUserInput `json:"user"`
}

type userResponse struct {
	User *models.UserView `json:"user"`
}

// Register handles POST /api/users
// @Summary Register
// @Description Create an account and return it with a session token
// @Tags users
// @Accept json
// @Produce json
// @Param request body registerRequest true "New account"
// @Success 201 {object} userResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /users [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if !parseBody(c, &req) {
		return nil
	}

	user, err := s.userService.Register(c.UserContext(), req.User)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(userResponse{User: user})
}

// Login handles POST /api/users/login
// @Summary Login
// @Description Authenticate with email and password
// @Tags users
// @Accept json
// @Produce json
// @Param request body loginRequest true "Credentials"
// @Success 200 {object} userResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /users/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if !parseBody(c, &req) {
		return nil
	}

	user, err := s.userService.Login(c.UserContext(), req.User)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(userResponse{User: user})
}

// Logout handles POST /api/users/logout
// @Summary Logout
// @Description Revoke the current session token
// @Tags users
// @Security Token
// @Success 204
// @Router /users/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.userService.Logout(c.UserContext(), sessionClaims(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetCurrentUser handles GET /api/user
// @Summary Current user
// @Tags users
// @Produce json
// @Security Token
// @Success 200 {object} userResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /user [get]
func (s *Server) GetCurrentUser(c *fiber.Ctx) error {
	user, err := s.userService.Current(c.UserContext(), viewerID(c), sessionToken(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(userResponse{User: user})
}

// UpdateCurrentUser handles PUT /api/user
// @Summary Update current user
// @Description Partial update. Omitted fields are untouched; null clears bio and image.
// @Tags users
// @Accept json
// @Produce json
// @Security Token
// @Param request body updateUserRequest true "Fields to change"
// @Success 200 {object} userResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /user [put]
func (s *Server) UpdateCurrentUser(c *fiber.Ctx) error {
	var req updateUserRequest
	if !parseBody(c, &req) {
		return nil
	}

	user, err := s.userService.Update(c.UserContext(), viewerID(c), req.User)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(userResponse{User: user})
}
