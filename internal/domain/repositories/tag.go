package repositories

import (
	"context"

	"atelier/internal/domain/models"
)

// TagRepository defines data access operations for tags and their
// reflection associations.
type TagRepository interface {
	// Upsert ensures a tag row exists for every entry (matched by name)
	// and returns the stored rows in input order.
	Upsert(ctx context.Context, tags []models.Tag) ([]models.Tag, error)

	// ReplaceForReflection swaps the reflection's tag associations for
	// exactly the given tag ids.
	ReplaceForReflection(ctx context.Context, reflectionID string, tagIDs []string) error

	// List retrieves all tags ordered by name.
	List(ctx context.Context) ([]models.Tag, error)
}
