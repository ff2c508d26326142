package service

import (
	"context"

	"conduit/internal/models"
	"conduit/internal/repository"
	"conduit/internal/validation"
)

type CommentService struct {
	comments  repository.CommentRepository
	articles  repository.ArticleRepository
	presenter Presenter
	activity  activity
}

type AddCommentInput struct {
	Body string `json:"body" validate:"notblank,max=10000"`
}

func NewCommentService(
	comments repository.CommentRepository,
	articles repository.ArticleRepository,
	presenter Presenter,
	publisher ActivityPublisher,
) *CommentService {
	return &CommentService{
		comments:  comments,
		articles:  articles,
		presenter: presenter,
		activity:  activity{publisher: publisher},
	}
}

// Add comments on the article at slug. A user may comment any number of times.
func (s *CommentService) Add(ctx context.Context, viewerID uint, slug string, in AddCommentInput) (*models.CommentView, error) {
	article, err := s.articles.GetBySlug(ctx, slug, 0)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ArticleID: article.ID,
		AuthorID:  viewerID,
		Body:      in.Body,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	created, err := s.comments.GetByID(ctx, comment.ID, viewerID)
	if err != nil {
		return nil, err
	}

	var recipients []uint
	if article.AuthorID != viewerID {
		recipients = append(recipients, article.AuthorID)
	}
	s.activity.emit(ctx, models.ActivityEvent{
		Type:    models.EventCommentAdded,
		Actor:   created.Author.Username,
		Article: article.Slug,
	}, recipients...)

	view := s.presenter.Comment(created)
	return &view, nil
}

// List returns the article's comments oldest first.
func (s *CommentService) List(ctx context.Context, viewerID uint, slug string) ([]models.CommentView, error) {
	article, err := s.articles.GetBySlug(ctx, slug, 0)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByArticle(ctx, article.ID, viewerID)
	if err != nil {
		return nil, err
	}
	return s.presenter.Comments(comments), nil
}
