package server

import (
	"conduit/internal/models"
	"conduit/internal/service"

	"github.com/gofiber/fiber/v2"
)

type addCommentRequest struct {
	Comment service.AddCommentInput `json:"comment"`
}

type commentResponse struct {
	Comment *models.CommentView `json:"comment"`
}

type commentsResponse struct {
	Comments []models.CommentView `json:"comments"`
}

type tagsResponse struct {
	Tags []string `json:"tags"`
}

// ListComments handles GET /api/articles/:slug/comments
// @Summary List comments
// @Description Oldest first
// @Tags comments
// @Produce json
// @Param slug path string true "Slug"
// @Success 200 {object} commentsResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{slug}/comments [get]
func (s *Server) ListComments(c *fiber.Ctx) error {
	comments, err := s.commentService.List(c.UserContext(), viewerID(c), c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(commentsResponse{Comments: comments})
}

// AddComment handles POST /api/articles/:slug/comments
// @Summary Add comment
// @Tags comments
// @Accept json
// @Produce json
// @Security Token
// @Param slug path string true "Slug"
// @Param request body addCommentRequest true "Comment"
// @Success 201 {object} commentResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /articles/{slug}/comments [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	var req addCommentRequest
	if !parseBody(c, &req) {
		return nil
	}

	comment, err := s.commentService.Add(c.UserContext(), viewerID(c), c.Params("slug"), req.Comment)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(commentResponse{Comment: comment})
}

// ListTags handles GET /api/tags
// @Summary List tags
// @Tags tags
// @Produce json
// @Success 200 {object} tagsResponse
// @Router /tags [get]
func (s *Server) ListTags(c *fiber.Ctx) error {
	tags, err := s.tagService.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tagsResponse{Tags: tags})
}
