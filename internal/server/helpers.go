package server

import (
	"errors"
	"strings"

	"conduit/internal/auth"
	"conduit/internal/middleware"
	"conduit/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Pagination holds parsed limit/offset query parameters. Clamping is left
// to the service layer.
type Pagination struct {
	Limit  int
	Offset int
}

func parsePagination(c *fiber.Ctx) Pagination {
	return Pagination{
		Limit:  c.QueryInt("limit", 0),
		Offset: c.QueryInt("offset", 0),
	}
}

// mapServiceError maps an AppError code to an HTTP status.
func mapServiceError(err error) int {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}

	switch code := appErr.Code; {
	case code == models.CodeConflict, strings.HasPrefix(code, "ALREADY_"):
		return fiber.StatusConflict
	case code == models.CodeNotFound, strings.HasPrefix(code, "NOT_"):
		return fiber.StatusNotFound
	case code == models.CodeForbidden, code == models.CodeSelfFollow:
		return fiber.StatusForbidden
	case code == models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case code == models.CodeValidation:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err with the status mapServiceError picks. Errors that
// are not AppErrors never reach the client verbatim.
func respondError(c *fiber.Ctx, err error) error {
	status := mapServiceError(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed", "error", err)
		var appErr *models.AppError
		if !errors.As(err, &appErr) {
			err = models.NewInternalError(err)
		}
	}
	return models.RespondWithError(c, status, err)
}

// parseBody decodes the JSON request body into out. On failure it writes
// a 400 response and returns false.
func parseBody(c *fiber.Ctx, out any) bool {
	if err := c.BodyParser(out); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("body", "Invalid request body"))
		return false
	}
	return true
}

// viewerID is the authenticated user, or 0 for anonymous requests.
func viewerID(c *fiber.Ctx) uint {
	id, _ := c.Locals(middleware.LocalUserID).(uint)
	return id
}

func sessionToken(c *fiber.Ctx) string {
	token, _ := c.Locals(middleware.LocalToken).(string)
	return token
}

func sessionClaims(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(middleware.LocalClaims).(*auth.Claims)
	return claims
}
