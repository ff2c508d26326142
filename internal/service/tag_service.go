package service

import (
	"context"

	"conduit/internal/repository"
)

type TagService struct {
	tags repository.TagRepository
}

func NewTagService(tags repository.TagRepository) *TagService {
	return &TagService{tags: tags}
}

// List returns every tag name, sorted.
func (s *TagService) List(ctx context.Context) ([]string, error) {
	return s.tags.List(ctx)
}
