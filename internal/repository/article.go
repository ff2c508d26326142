package repository

import (
	"context"
	"strings"

	"conduit/internal/cache"
	"conduit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ArticleRepository defines persistence operations for articles, their tags and favorites.
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article, tagNames []string) error
	GetBySlug(ctx context.Context, slug string, viewerID uint) (*models.Article, error)
	List(ctx context.Context, filter models.ArticleFilter, viewerID uint) ([]*models.Article, int64, error)
	Feed(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Article, int64, error)
	Update(ctx context.Context, id uint, updates map[string]any) error
	Delete(ctx context.Context, id uint) error
	Favorite(ctx context.Context, userID, articleID uint) error
	Unfavorite(ctx context.Context, userID, articleID uint) error
}

type articleRepository struct {
	db *gorm.DB
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

// Create inserts the article, upserts its tags and links them, all in one transaction.
func (r *articleRepository) Create(ctx context.Context, article *models.Article, tagNames []string) error {
	names := normalizeTagNames(tagNames)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Author").Create(article).Error; err != nil {
			return translateWriteError(err)
		}
		if len(names) == 0 {
			article.Tags = nil
			return nil
		}

		rows := make([]models.Tag, 0, len(names))
		for _, n := range names {
			rows = append(rows, models.Tag{Name: n})
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&rows).Error; err != nil {
			return models.NewInternalError(err)
		}

		var tags []models.Tag
		if err := tx.Where("name IN ?", names).Order("name").Find(&tags).Error; err != nil {
			return models.NewInternalError(err)
		}

		links := make([]models.ArticleTag, 0, len(tags))
		for _, t := range tags {
			links = append(links, models.ArticleTag{ArticleID: article.ID, TagID: t.ID})
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error; err != nil {
			return models.NewInternalError(err)
		}

		article.Tags = tags
		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateTags(ctx)
	return nil
}

// normalizeTagNames trims, drops blanks and de-duplicates while keeping case.
func normalizeTagNames(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, n := range in {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func (r *articleRepository) GetBySlug(ctx context.Context, slug string, viewerID uint) (*models.Article, error) {
	var article models.Article
	err := withAssociations(applyArticleDetails(r.db.WithContext(ctx), viewerID)).
		Where("articles.slug = ?", slug).
		First(&article).Error
	if err != nil {
		return nil, translateReadError(err, "Article", slug)
	}
	return &article, nil
}

// List returns one page of articles matching filter, newest first, and the total match count.
func (r *articleRepository) List(ctx context.Context, filter models.ArticleFilter, viewerID uint) ([]*models.Article, int64, error) {
	return r.page(ctx, viewerID, filter.Limit, filter.Offset, func(db *gorm.DB) *gorm.DB {
		return applyArticleFilter(db, filter)
	})
}

// Feed returns articles authored by users viewerID follows, newest first.
func (r *articleRepository) Feed(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Article, int64, error) {
	return r.page(ctx, viewerID, limit, offset, func(db *gorm.DB) *gorm.DB {
		return db.Where("articles.author_id IN (SELECT follows.followee_id FROM follows WHERE follows.follower_id = ?)", viewerID)
	})
}

// page runs the count and the detail query for a scoped article collection.
// The query count is fixed: COUNT, the main SELECT, one author preload and
// one tag preload, regardless of page size.
func (r *articleRepository) page(ctx context.Context, viewerID uint, limit, offset int, scope func(*gorm.DB) *gorm.DB) ([]*models.Article, int64, error) {
	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&models.Article{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	if total == 0 {
		return []*models.Article{}, 0, nil
	}

	articles := make([]*models.Article, 0, limit)
	err := withAssociations(applyArticleDetails(db, viewerID)).
		Scopes(scope).
		Order("articles.created_at DESC").
		Order("articles.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&articles).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return articles, total, nil
}

// applyArticleDetails adds favorites_count, favorited and author_following
// as subqueries of the base SELECT so collections never fall into N+1 lookups.
func applyArticleDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "articles.*, " +
		"(SELECT COUNT(*) FROM favorites WHERE favorites.article_id = articles.id) AS favorites_count"

	if viewerID == 0 {
		return db.Model(&models.Article{}).Select(selectQuery + ", false AS favorited, false AS author_following")
	}
	return db.Model(&models.Article{}).Select(selectQuery+
		", EXISTS(SELECT 1 FROM favorites WHERE favorites.article_id = articles.id AND favorites.user_id = ?) AS favorited"+
		", EXISTS(SELECT 1 FROM follows WHERE follows.followee_id = articles.author_id AND follows.follower_id = ?) AS author_following",
		viewerID, viewerID)
}

func withAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB {
			return db.Order("tags.name")
		})
}

// applyArticleFilter narrows by exact tag name and by case-insensitive
// substring of the author's or a favoriter's username.
func applyArticleFilter(db *gorm.DB, filter models.ArticleFilter) *gorm.DB {
	if filter.Tag != "" {
		db = db.Where("articles.id IN (SELECT article_tags.article_id FROM article_tags "+
			"JOIN tags ON tags.id = article_tags.tag_id WHERE tags.name = ?)", filter.Tag)
	}
	if filter.Author != "" {
		db = db.Where("articles.author_id IN (SELECT users.id FROM users WHERE LOWER(users.username) LIKE ? ESCAPE '\\')",
			containsPattern(filter.Author))
	}
	if filter.Favorited != "" {
		db = db.Where("articles.id IN (SELECT favorites.article_id FROM favorites "+
			"JOIN users ON users.id = favorites.user_id WHERE LOWER(users.username) LIKE ? ESCAPE '\\')",
			containsPattern(filter.Favorited))
	}
	return db
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern matches s literally anywhere in a lowercased column.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// Update writes exactly the given columns. Callers pass title and slug together.
func (r *articleRepository) Update(ctx context.Context, id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Article{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return translateWriteError(result.Error)
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("Article", id)
		}
		return nil
	})
}

// Delete removes the article with its favorites, tag links and comments.
func (r *articleRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, dependent := range []any{&models.Favorite{}, &models.ArticleTag{}, &models.Comment{}} {
			if err := tx.Where("article_id = ?", id).Delete(dependent).Error; err != nil {
				return models.NewInternalError(err)
			}
		}
		result := tx.Delete(&models.Article{}, id)
		if result.Error != nil {
			return models.NewInternalError(result.Error)
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("Article", id)
		}
		return nil
	})
}

// Favorite inserts the edge. An existing edge yields ErrAlreadyFavorited.
func (r *articleRepository) Favorite(ctx context.Context, userID, articleID uint) error {
	err := r.db.WithContext(ctx).Create(&models.Favorite{UserID: userID, ArticleID: articleID}).Error
	if err == nil {
		return nil
	}
	if _, dup := uniqueViolation(err); dup {
		return models.ErrAlreadyFavorited
	}
	if foreignKeyViolation(err) {
		return models.NewNotFoundError("Article", articleID)
	}
	return models.NewInternalError(err)
}

// Unfavorite removes the edge, or returns ErrNotFavorited when there was none.
func (r *articleRepository) Unfavorite(ctx context.Context, userID, articleID uint) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND article_id = ?", userID, articleID).
		Delete(&models.Favorite{})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFavorited
	}
	return nil
}
