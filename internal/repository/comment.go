package repository

import (
	"context"

	"conduit/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Comment, error)
	ListByArticle(ctx context.Context, articleID uint, viewerID uint) ([]*models.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Omit("Author").Create(comment).Error
	switch {
	case err == nil:
		return nil
	case foreignKeyViolation(err):
		return models.NewNotFoundError("Article", comment.ArticleID)
	default:
		return models.NewInternalError(err)
	}
}

func (r *commentRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Comment, error) {
	var comment models.Comment
	err := applyCommentDetails(r.db.WithContext(ctx), viewerID).
		Preload("Author").
		First(&comment, id).Error
	if err != nil {
		return nil, translateReadError(err, "Comment", id)
	}
	return &comment, nil
}

// ListByArticle returns comments oldest first, with author_following for viewerID.
func (r *commentRepository) ListByArticle(ctx context.Context, articleID uint, viewerID uint) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	err := applyCommentDetails(readDB(r.db).WithContext(ctx), viewerID).
		Preload("Author").
		Where("comments.article_id = ?", articleID).
		Order("comments.created_at ASC").
		Order("comments.id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func applyCommentDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	if viewerID == 0 {
		return db.Model(&models.Comment{}).Select("comments.*, false AS author_following")
	}
	return db.Model(&models.Comment{}).Select(
		"comments.*, EXISTS(SELECT 1 FROM follows WHERE follows.followee_id = comments.author_id AND follows.follower_id = ?) AS author_following",
		viewerID,
	)
}
