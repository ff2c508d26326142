// Package service implements the application's use cases on top of the repositories.
package service

import (
	"strings"

	"conduit/internal/models"
)

// Presenter renders models into views. The default image is fixed at construction.
type Presenter struct {
	defaultImage string
}

// NewPresenter creates a Presenter that substitutes defaultImage for missing user images.
func NewPresenter(defaultImage string) Presenter {
	return Presenter{defaultImage: defaultImage}
}

func (p Presenter) image(u *models.User) string {
	if u.Image == nil || strings.TrimSpace(*u.Image) == "" {
		return p.defaultImage
	}
	return *u.Image
}

func bio(u *models.User) *string {
	if u.Bio == "" {
		return nil
	}
	b := u.Bio
	return &b
}

// Profile renders u as seen by a viewer; following is false for anonymous viewers.
func (p Presenter) Profile(u *models.User, following bool) models.ProfileView {
	return models.ProfileView{
		Username:  u.Username,
		Bio:       bio(u),
		Image:     p.image(u),
		Following: following,
	}
}

// User renders the caller's own account with its session token.
func (p Presenter) User(u *models.User, token string) models.UserView {
	return models.UserView{
		Email:    u.Email,
		Token:    token,
		Username: u.Username,
		Bio:      bio(u),
		Image:    p.image(u),
	}
}

func (p Presenter) Article(a *models.Article) models.ArticleView {
	return models.ArticleView{
		Slug:           a.Slug,
		Title:          a.Title,
		Description:    a.Summary,
		Body:           a.Content,
		TagList:        a.TagNames(),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
		Favorited:      a.Favorited,
		FavoritesCount: a.FavoritesCount,
		Author:         p.Profile(&a.Author, a.AuthorFollowing),
	}
}

func (p Presenter) Articles(articles []*models.Article) []models.ArticleView {
	views := make([]models.ArticleView, 0, len(articles))
	for _, a := range articles {
		views = append(views, p.Article(a))
	}
	return views
}

func (p Presenter) Comment(c *models.Comment) models.CommentView {
	return models.CommentView{
		ID:        c.ID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Body:      c.Body,
		Author:    p.Profile(&c.Author, c.AuthorFollowing),
	}
}

func (p Presenter) Comments(comments []*models.Comment) []models.CommentView {
	views := make([]models.CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, p.Comment(c))
	}
	return views
}
