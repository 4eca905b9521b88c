package repositories

import (
	"context"

	"atelier/internal/domain/models"
)

// AlbumRepository defines data access operations for albums and the
// image rows they own.
type AlbumRepository interface {
	// Create inserts the album together with all of its image rows.
	Create(ctx context.Context, album *models.Album) error

	// GetByID retrieves an album with its images (storage paths included).
	GetByID(ctx context.Context, id string) (*models.Album, error)

	// GetOwnerID returns only the uploader id, or ErrNotFound.
	GetOwnerID(ctx context.Context, id string) (string, error)

	// List retrieves all albums with their images, newest first.
	List(ctx context.Context) ([]models.Album, error)

	// Update rewrites album metadata for the row whose id and uploader
	// both match. Returns ErrNotFound when no row does.
	Update(ctx context.Context, album *models.Album) error

	// AddImages appends image rows to an existing album.
	AddImages(ctx context.Context, images []models.Image) error

	// GetImage retrieves a single image scoped to its album.
	GetImage(ctx context.Context, albumID, imageID string) (*models.Image, error)

	// DeleteImage removes a single image row scoped to its album.
	DeleteImage(ctx context.Context, albumID, imageID string) error

	// Delete removes the album owned by uploadedBy; image rows cascade.
	// Returns ErrNotFound when no row matches.
	Delete(ctx context.Context, id, uploadedBy string) error
}
