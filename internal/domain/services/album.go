package services

import (
	"context"
	"time"

	"atelier/internal/domain"
	"atelier/internal/domain/models"
)

// ImageUpload is one file part of a multipart album request.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
	Alt         *string
	Caption     *string
}

// CreateAlbumRequest represents a request to create an album with its
// initial set of images.
type CreateAlbumRequest struct {
	Title       string
	Description *string
	Location    *string
	TakenOn     *time.Time
	Uploads     []ImageUpload
}

// UpdateAlbumRequest replaces album metadata; any uploads are appended
// to the album's existing images.
type UpdateAlbumRequest struct {
	Title       string
	Description *string
	Location    *string
	TakenOn     *time.Time
	Uploads     []ImageUpload
}

// AlbumService defines business logic operations for albums and their
// images, including the object storage side of their lifecycle.
type AlbumService interface {
	// CreateAlbum uploads every image and creates the album and image
	// rows in one transaction. Uploaded objects are removed again if
	// anything later in the call fails.
	CreateAlbum(ctx context.Context, p domain.Principal, req *CreateAlbumRequest) (*models.Album, error)

	// GetAlbum retrieves one album with its images.
	GetAlbum(ctx context.Context, id string) (*models.Album, error)

	// ListAlbums retrieves all albums, newest first.
	ListAlbums(ctx context.Context) ([]models.Album, error)

	// UpdateAlbum replaces metadata of an owned album and appends any
	// uploaded images.
	UpdateAlbum(ctx context.Context, p domain.Principal, id string, req *UpdateAlbumRequest) (*models.Album, error)

	// DeleteAlbum removes an owned album: storage objects first, then
	// the database rows. Database rows survive a failed storage pass so
	// the call can be retried.
	DeleteAlbum(ctx context.Context, p domain.Principal, id string) error

	// DeleteImage removes a single image from an owned album and
	// returns the refreshed album.
	DeleteImage(ctx context.Context, p domain.Principal, albumID, imageID string) (*models.Album, error)
}
