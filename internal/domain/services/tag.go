package services

import (
	"context"

	"atelier/internal/domain/models"
)

// TagService defines read operations over the tag index.
type TagService interface {
	// ListTags retrieves all tags ordered by name.
	ListTags(ctx context.Context) ([]models.Tag, error)
}
