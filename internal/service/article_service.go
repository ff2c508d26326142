package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"conduit/internal/middleware"
	"conduit/internal/models"
	"conduit/internal/observability"
	"conduit/internal/repository"
	"conduit/internal/validation"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type ArticleService struct {
	articles  repository.ArticleRepository
	users     repository.UserRepository
	presenter Presenter
	activity  activity
}

type CreateArticleInput struct {
	Title       string   `json:"title" validate:"notblank,max=255"`
	Description string   `json:"description" validate:"notblank"`
	Body        string   `json:"body" validate:"notblank"`
	TagList     []string `json:"tagList" validate:"dive,max=100"`
}

// UpdateArticleInput is a partial update; Unset fields are not written.
type UpdateArticleInput struct {
	Title       models.Patch[string] `json:"title"`
	Description models.Patch[string] `json:"description"`
	Body        models.Patch[string] `json:"body"`
}

// ArticlePage is one page of articles plus the total number of matches.
type ArticlePage struct {
	Articles      []models.ArticleView `json:"articles"`
	ArticlesCount int64                `json:"articlesCount"`
}

func NewArticleService(
	articles repository.ArticleRepository,
	users repository.UserRepository,
	presenter Presenter,
	publisher ActivityPublisher,
) *ArticleService {
	return &ArticleService{
		articles:  articles,
		users:     users,
		presenter: presenter,
		activity:  activity{publisher: publisher},
	}
}

// checkSlug rejects titles whose slug is empty or longer than the slug
// column. Compatibility decomposition can expand a title several times over.
func checkSlug(title string) error {
	switch slug := models.Slugify(title); {
	case slug == "":
		return models.NewValidationError("title", "is invalid")
	case len(slug) > models.MaxSlugLength:
		return models.NewValidationError("title", "is too long")
	}
	return nil
}

// NormalizePage clamps limit to (0, MaxPageLimit] defaulting to DefaultPageLimit,
// and offset to >= 0.
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *ArticleService) Create(ctx context.Context, authorID uint, in CreateArticleInput) (_ *models.ArticleView, err error) {
	ctx, span := observability.StartSpan(ctx, "ArticleService", "Create", attribute.Int("author_id", int(authorID)))
	defer func() { observability.EndSpan(span, err) }()

	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if err := checkSlug(title); err != nil {
		return nil, err
	}

	article := &models.Article{
		AuthorID: authorID,
		Title:    title,
		Summary:  in.Description,
		Content:  in.Body,
	}
	if err := s.articles.Create(ctx, article, in.TagList); err != nil {
		return nil, err
	}

	created, err := s.articles.GetBySlug(ctx, article.Slug, authorID)
	if err != nil {
		return nil, err
	}

	var followers []uint
	if s.activity.enabled() {
		if followers, err = s.users.FollowerIDs(ctx, authorID); err != nil {
			middleware.Logger.WarnContext(ctx, "load followers for activity", "author_id", authorID, "error", err)
		}
	}
	s.activity.emit(ctx, models.ActivityEvent{
		Type:    models.EventArticlePublished,
		Actor:   created.Author.Username,
		Article: created.Slug,
	}, followers...)

	view := s.presenter.Article(created)
	return &view, nil
}

func (s *ArticleService) Get(ctx context.Context, viewerID uint, slug string) (*models.ArticleView, error) {
	article, err := s.articles.GetBySlug(ctx, slug, viewerID)
	if err != nil {
		return nil, err
	}
	view := s.presenter.Article(article)
	return &view, nil
}

func (s *ArticleService) List(ctx context.Context, viewerID uint, filter models.ArticleFilter) (_ *ArticlePage, err error) {
	ctx, span := observability.StartSpan(ctx, "ArticleService", "List",
		attribute.String("tag", filter.Tag),
		attribute.String("author", filter.Author),
		attribute.String("favorited", filter.Favorited))
	defer func() { observability.EndSpan(span, err) }()

	filter.Limit, filter.Offset = NormalizePage(filter.Limit, filter.Offset)
	articles, total, err := s.articles.List(ctx, filter, viewerID)
	if err != nil {
		return nil, err
	}
	return &ArticlePage{Articles: s.presenter.Articles(articles), ArticlesCount: total}, nil
}

// Feed lists articles by authors viewerID follows, newest first.
func (s *ArticleService) Feed(ctx context.Context, viewerID uint, limit, offset int) (_ *ArticlePage, err error) {
	ctx, span := observability.StartSpan(ctx, "ArticleService", "Feed", attribute.Int("viewer_id", int(viewerID)))
	defer func() { observability.EndSpan(span, err) }()

	limit, offset = NormalizePage(limit, offset)
	articles, total, err := s.articles.Feed(ctx, viewerID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &ArticlePage{Articles: s.presenter.Articles(articles), ArticlesCount: total}, nil
}

// Update applies a partial update. Only the author may update; a title change
// moves the article to a new slug.
func (s *ArticleService) Update(ctx context.Context, viewerID uint, slug string, in UpdateArticleInput) (*models.ArticleView, error) {
	article, err := s.owned(ctx, viewerID, slug)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if !in.Title.IsUnset() {
		title := strings.TrimSpace(in.Title.Value())
		if err := validation.Var("title", title, "notblank,max=255"); err != nil {
			return nil, err
		}
		if err := checkSlug(title); err != nil {
			return nil, err
		}
		article.Retitle(title)
		updates["title"] = article.Title
		updates["slug"] = article.Slug
	}
	if !in.Description.IsUnset() {
		if in.Description.IsSet() && strings.TrimSpace(in.Description.Value()) == "" {
			return nil, models.NewValidationError("description", "can't be blank")
		}
		updates["summary"] = in.Description.Value()
	}
	if !in.Body.IsUnset() {
		if in.Body.IsSet() && strings.TrimSpace(in.Body.Value()) == "" {
			return nil, models.NewValidationError("body", "can't be blank")
		}
		updates["content"] = in.Body.Value()
	}

	if err := s.articles.Update(ctx, article.ID, updates); err != nil {
		return nil, err
	}
	return s.Get(ctx, viewerID, article.Slug)
}

// Delete removes the article with its comments and favorites. Only the author may delete.
func (s *ArticleService) Delete(ctx context.Context, viewerID uint, slug string) error {
	article, err := s.owned(ctx, viewerID, slug)
	if err != nil {
		return err
	}
	return s.articles.Delete(ctx, article.ID)
}

func (s *ArticleService) Favorite(ctx context.Context, viewerID uint, slug string) (*models.ArticleView, error) {
	article, err := s.articles.GetBySlug(ctx, slug, viewerID)
	if err != nil {
		return nil, err
	}
	if err := s.articles.Favorite(ctx, viewerID, article.ID); err != nil {
		return nil, err
	}

	event := models.ActivityEvent{Type: models.EventArticleFavorited, Article: article.Slug}
	var recipients []uint
	if s.activity.enabled() && article.AuthorID != viewerID {
		recipients = append(recipients, article.AuthorID)
		if viewer, err := s.users.GetByID(ctx, viewerID); err == nil {
			event.Actor = viewer.Username
		}
	}
	s.activity.emit(ctx, event, recipients...)

	return s.Get(ctx, viewerID, slug)
}

func (s *ArticleService) Unfavorite(ctx context.Context, viewerID uint, slug string) (*models.ArticleView, error) {
	article, err := s.articles.GetBySlug(ctx, slug, viewerID)
	if err != nil {
		return nil, err
	}
	if err := s.articles.Unfavorite(ctx, viewerID, article.ID); err != nil {
		return nil, err
	}
	return s.Get(ctx, viewerID, slug)
}

func (s *ArticleService) owned(ctx context.Context, viewerID uint, slug string) (*models.Article, error) {
	article, err := s.articles.GetBySlug(ctx, slug, viewerID)
	if err != nil {
		return nil, err
	}
	if article.AuthorID != viewerID {
		return nil, models.NewForbiddenError("only the author may modify this article")
	}
	return article, nil
}
