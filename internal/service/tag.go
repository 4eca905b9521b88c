package service

import (
	"context"
	"log/slog"

	"atelier/internal/domain/models"
	"atelier/internal/domain/repositories"
	"atelier/internal/domain/services"
)

// tagService implements the TagService interface
type tagService struct {
	tagRepo repositories.TagRepository
	logger  *slog.Logger
}

// NewTagService creates a new tag service
func NewTagService(tagRepo repositories.TagRepository, logger *slog.Logger) services.TagService {
	return &tagService{tagRepo: tagRepo, logger: logger}
}

// ListTags retrieves all tags ordered by name
func (s *tagService) ListTags(ctx context.Context) ([]models.Tag, error) {
	tags, err := s.tagRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	return tags, nil
}
