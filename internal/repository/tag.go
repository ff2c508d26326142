package repository

import (
	"context"
	"errors"
	"time"

	"conduit/internal/cache"
	"conduit/internal/models"
	"conduit/internal/observability"

	"gorm.io/gorm"
)

// TagRepository lists tag names.
type TagRepository interface {
	List(ctx context.Context) ([]string, error)
}

type tagRepository struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewTagRepository creates a tag repository whose list is cached in Redis for ttl.
func NewTagRepository(db *gorm.DB, ttl time.Duration) TagRepository {
	if ttl <= 0 {
		ttl = cache.DefaultTagsTTL
	}
	return &tagRepository{db: db, ttl: ttl}
}

// List returns every tag name in ascending order. Article creation invalidates the cached copy.
func (r *tagRepository) List(ctx context.Context) ([]string, error) {
	loaded := false
	names, err := cache.Aside(ctx, cache.TagsKey(), r.ttl, func(ctx context.Context) ([]string, error) {
		loaded = true
		names := []string{}
		if err := readDB(r.db).WithContext(ctx).
			Model(&models.Tag{}).
			Order("name ASC").
			Pluck("name", &names).Error; err != nil {
			return nil, err
		}
		return names, nil
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, models.NewInternalError(err)
	}
	observability.RecordCacheLookup("tags", !loaded)
	if names == nil {
		names = []string{}
	}
	return names, nil
}
