package server

import (
	"conduit/internal/models"
	"conduit/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createArticleRequest struct {
	Article service.CreateArticleInput `json:"article"`
}

type updateArticleRequest struct {
	Article service.UpdateArticleInput `json:"article"`
}

type articleResponse struct {
	Article *models.ArticleView `json:"article"`
}

// ListArticles handles GET /api/articles
// @Summary List articles
// @Description Most recent first, filtered by tag, author or favoriting user
// @Tags articles
// @Produce json
// @Param tag query string false "Tag"
// @Param author query string false "Author username"
// @Param favorited query string false "Favorited by username"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} service.ArticlePage
// @Router /articles [get]
func (s *Server) ListArticles(c *fiber.Ctx) error {
	page := parsePagination(c)
	result, err := s.articleService.List(c.UserContext(), viewerID(c), models.ArticleFilter{
		Tag:       c.Query("tag"),
		Author:    c.Query("author"),
		Favorited: c.Query("favorited"),
		Limit:     page.Limit,
		Offset:    page.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// FeedArticles handles GET /api/articles/feed
// @Summary Feed
// @Description Articles by authors the current user follows
// @Tags articles
// @Produce json
// @Security Token
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} service.ArticlePage
// @Router /articles/feed [get]
func (s *Server) FeedArticles(c *fiber.Ctx) error {
	page := parsePagination(c)
	result, err := s.articleService.Feed(c.UserContext(), viewerID(c), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// CreateArticle handles POST /api/articles
// @Summary Create article
// @Tags articles
// @Accept json
// @Produce json
// @Security Token
// @Param request body createArticleRequest true "Article"
// @Success 201 {object} articleResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /articles [post]
func (s *Server) CreateArticle(c *fiber.Ctx) error {
	var req createArticleRequest
	if !parseBody(c, &req) {
		return nil
	}

	article, err := s.articleService.Create(c.UserContext(), viewerID(c), req.Article)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(articleResponse{Article: article})
}

// GetArticle handles GET /api/articles/:slug
// @Summary Get article
// @Tags articles
// @Produce json
// @Param slug path string true "Slug"
// @Success 200 {object} articleResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{slug} [get]
func (s *Server) GetArticle(c *fiber.Ctx) error {
	article, err := s.articleService.Get(c.UserContext(), viewerID(c), c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(articleResponse{Article: article})
}

// UpdateArticle handles PUT /api/articles/:slug
// @Summary Update article
// @Description Author only. A new title regenerates the slug.
// @Tags articles
// @Accept json
// @Produce json
// @Security Token
// @Param slug path string true "Slug"
// @Param request body updateArticleRequest true "Fields to change"
// @Success 200 {object} articleResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{slug} [put]
func (s *Server) UpdateArticle(c *fiber.Ctx) error {
	var req updateArticleRequest
	if !parseBody(c, &req) {
		return nil
	}

	article, err := s.articleService.Update(c.UserContext(), viewerID(c), c.Params("slug"), req.Article)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(articleResponse{Article: article})
}

// DeleteArticle handles DELETE /api/articles/:slug
// @Summary Delete article
// @Tags articles
// @Security Token
// @Param slug path string true "Slug"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{slug} [delete]
func (s *Server) DeleteArticle(c *fiber.Ctx) error {
	if err := s.articleService.Delete(c.UserContext(), viewerID(c), c.Params("slug")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// FavoriteArticle handles POST /api/articles/:slug/favorite
// @Summary Favorite article
// @Tags articles
// @Produce json
// @Security Token
// @Param slug path string true "Slug"
// @Success 200 {object} articleResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /articles/{slug}/favorite [post]
func (s *Server) FavoriteArticle(c *fiber.Ctx) error {
	article, err := s.articleService.Favorite(c.UserContext(), viewerID(c), c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(articleResponse{Article: article})
}

// UnfavoriteArticle handles DELETE /api/articles/:slug/favorite
// @Summary Unfavorite article
// @Tags articles
// @Produce json
// @Security Token
// @Param slug path string true "Slug"
// @Success 200 {object} articleResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{slug}/favorite [delete]
func (s *Server) UnfavoriteArticle(c *fiber.Ctx) error {
	article, err := s.articleService.Unfavorite(c.UserContext(), viewerID(c), c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(articleResponse{Article: article})
}
