package repositories

import (
	"context"
	"time"

	"atelier/internal/domain"
	"atelier/internal/domain/models"
)

// ReflectionRepository defines data access operations for reflections.
// Visibility is the service's concern; readers here return drafts too.
type ReflectionRepository interface {
	// Create inserts a reflection and fills in its generated ID and timestamps.
	Create(ctx context.Context, reflection *models.Reflection) error

	// GetByID retrieves a reflection with its tags.
	GetByID(ctx context.Context, id string) (*models.Reflection, error)

	// GetOwnerID returns only the author id, or ErrNotFound.
	GetOwnerID(ctx context.Context, id string) (string, error)

	// List retrieves reflections matching scope, newest first by
	// publish date (created_at for drafts).
	List(ctx context.Context, scope domain.ListScope) ([]models.Reflection, error)

	// Update rewrites the content fields of the reflection whose id and
	// author both match. Returns ErrNotFound when no row does.
	Update(ctx context.Context, reflection *models.Reflection) error

	// Publish stamps status and publish date on the reflection owned by
	// authorID. Returns ErrNotFound when no row matches.
	Publish(ctx context.Context, id, authorID string, publishDate time.Time) error

	// Delete removes the reflection owned by authorID; tag associations
	// cascade. Returns ErrNotFound when no row matches.
	Delete(ctx context.Context, id, authorID string) error
}
