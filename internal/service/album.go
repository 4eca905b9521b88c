package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"atelier/internal/config"
	"atelier/internal/domain"
	"atelier/internal/domain/models"
	"atelier/internal/domain/repositories"
	"atelier/internal/domain/services"
	"atelier/internal/mediatypes"
	"atelier/internal/storage"
)

// albumService implements the AlbumService interface. It owns the two
// sided lifecycle of images: object storage blobs and database rows.
type albumService struct {
	albumRepo repositories.AlbumRepository
	store     storage.ObjectStore
	media     *mediatypes.Registry
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

// NewAlbumService creates a new album service
func NewAlbumService(
	albumRepo repositories.AlbumRepository,
	store storage.ObjectStore,
	media *mediatypes.Registry,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.AlbumService {
	return &albumService{
		albumRepo: albumRepo,
		store:     store,
		media:     media,
		txManager: txManager,
		logger:    logger,
	}
}

// CreateAlbum uploads every image to storage and then writes the album
// and image rows in one transaction. Storage and database never commit
// half-done together: if anything fails, every object uploaded so far
// is deleted again before the error surfaces.
func (s *albumService) CreateAlbum(ctx context.Context, p domain.Principal, req *services.CreateAlbumRequest) (*models.Album, error) {
	if p.IsAnonymous() {
		return nil, &domain.UnauthorizedError{Message: "authentication required"}
	}

	if err := s.validateMetadata(req.Title, req.Location); err != nil {
		return nil, asValidationError(err)
	}
	if err := s.validateUploads(req.Uploads, true); err != nil {
		return nil, err
	}

	album := &models.Album{
		ID:          uuid.New().String(),
		UploadedBy:  p.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Location:    req.Location,
		TakenOn:     req.TakenOn,
	}

	images, err := s.buildImages(album.ID, p.ID, req.Uploads)
	if err != nil {
		return nil, err
	}

	if err := s.uploadAll(ctx, images, req.Uploads); err != nil {
		return nil, err
	}
	album.Images = images

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return s.albumRepo.Create(txCtx, album)
	})
	if err != nil {
		s.rollbackUploads(ctx, storagePaths(images))
		return nil, err
	}

	s.logger.Info("album created",
		"id", album.ID,
		"title", album.Title,
		"images", len(album.Images),
		"uploaded_by", p.ID,
	)

	return album, nil
}

// GetAlbum retrieves one album with its images
func (s *albumService) GetAlbum(ctx context.Context, id string) (*models.Album, error) {
	return s.albumRepo.GetByID(ctx, id)
}

// ListAlbums retrieves all albums, newest first
func (s *albumService) ListAlbums(ctx context.Context) ([]models.Album, error) {
	albums, err := s.albumRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if albums == nil {
		albums = []models.Album{}
	}
	return albums, nil
}

// UpdateAlbum replaces metadata of an owned album and appends any
// uploaded images, with the same compensation rules as CreateAlbum.
func (s *albumService) UpdateAlbum(ctx context.Context, p domain.Principal, id string, req *services.UpdateAlbumRequest) (*models.Album, error) {
	if p.IsAnonymous() {
		return nil, &domain.UnauthorizedError{Message: "authentication required"}
	}

	if err := s.validateMetadata(req.Title, req.Location); err != nil {
		return nil, asValidationError(err)
	}
	if err := s.validateUploads(req.Uploads, false); err != nil {
		return nil, err
	}

	ownerID, err := s.albumRepo.GetOwnerID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanMutate(p, ownerID) {
		return nil, &domain.ForbiddenError{Message: "you do not own this album"}
	}

	images, err := s.buildImages(id, p.ID, req.Uploads)
	if err != nil {
		return nil, err
	}
	if err := s.uploadAll(ctx, images, req.Uploads); err != nil {
		return nil, err
	}

	album := &models.Album{
		ID:          id,
		UploadedBy:  p.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Location:    req.Location,
		TakenOn:     req.TakenOn,
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		// Uploader predicate inside Update keeps the write atomic
		if err := s.albumRepo.Update(txCtx, album); err != nil {
			return err
		}
		if len(images) == 0 {
			return nil
		}
		return s.albumRepo.AddImages(txCtx, images)
	})
	if err != nil {
		s.rollbackUploads(ctx, storagePaths(images))
		return nil, err
	}

	s.logger.Info("album updated", "id", id, "new_images", len(images), "uploaded_by", p.ID)

	return s.albumRepo.GetByID(ctx, id)
}

// DeleteAlbum removes an owned album. The storage objects go first; the
// database rows are only removed once every object delete succeeded, so
// a partial storage failure leaves the album intact and the call
// retryable.
func (s *albumService) DeleteAlbum(ctx context.Context, p domain.Principal, id string) error {
	if p.IsAnonymous() {
		return &domain.UnauthorizedError{Message: "authentication required"}
	}

	album, err := s.albumRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !domain.CanMutate(p, album.UploadedBy) {
		return &domain.ForbiddenError{Message: "you do not own this album"}
	}

	var deleteErrs []error
	for _, img := range album.Images {
		if err := s.store.Delete(ctx, img.StoragePath); err != nil {
			deleteErrs = append(deleteErrs, err)
		}
	}
	if err := errors.Join(deleteErrs...); err != nil {
		return &domain.UpstreamError{
			Message: fmt.Sprintf("failed to delete %d of %d album objects", len(deleteErrs), len(album.Images)),
			Err:     err,
		}
	}

	if err := s.albumRepo.Delete(ctx, id, p.ID); err != nil {
		return err
	}

	s.logger.Info("album deleted", "id", id, "images", len(album.Images), "uploaded_by", p.ID)

	return nil
}

// DeleteImage removes a single image from an owned album, storage
// object first, and returns the refreshed album.
func (s *albumService) DeleteImage(ctx context.Context, p domain.Principal, albumID, imageID string) (*models.Album, error) {
	if p.IsAnonymous() {
		return nil, &domain.UnauthorizedError{Message: "authentication required"}
	}

	ownerID, err := s.albumRepo.GetOwnerID(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if !domain.CanMutate(p, ownerID) {
		return nil, &domain.ForbiddenError{Message: "you do not own this album"}
	}

	img, err := s.albumRepo.GetImage(ctx, albumID, imageID)
	if err != nil {
		return nil, err
	}

	// Row stays until the object is gone, so a failed delete can be retried
	if err := s.store.Delete(ctx, img.StoragePath); err != nil {
		return nil, err
	}

	if err := s.albumRepo.DeleteImage(ctx, albumID, imageID); err != nil {
		return nil, err
	}

	s.logger.Info("image deleted", "album_id", albumID, "image_id", imageID, "uploaded_by", p.ID)

	return s.albumRepo.GetByID(ctx, albumID)
}

// validateMetadata validates the album text fields shared by create and
// update requests.
func (s *albumService) validateMetadata(title string, location *string) error {
	return validation.Errors{
		"title":    validation.Validate(title, validation.Required, validation.Length(1, config.MaxTitleLength)),
		"location": validation.Validate(location, validation.Length(0, config.MaxLocationLength)),
	}.Filter()
}

// validateUploads checks count, size, content type and text lengths of
// the file parts. Create requires at least one image; update accepts
// none.
func (s *albumService) validateUploads(uploads []services.ImageUpload, required bool) error {
	fields := map[string]string{}

	if required && len(uploads) == 0 {
		fields["images"] = "at least one image is required"
	}
	if len(uploads) > config.MaxImagesPerRequest {
		fields["images"] = fmt.Sprintf("at most %d images per request", config.MaxImagesPerRequest)
	}

	for i, up := range uploads {
		key := fmt.Sprintf("images[%d]", i)
		switch {
		case len(up.Data) == 0:
			fields[key] = "file is empty"
		case len(up.Data) > config.MaxImageSizeBytes:
			fields[key] = fmt.Sprintf("file exceeds %d bytes", config.MaxImageSizeBytes)
		case !s.media.Allowed(up.ContentType):
			fields[key] = fmt.Sprintf("unsupported content type %q (accepted: %s)",
				up.ContentType, strings.Join(s.media.ContentTypes(), ", "))
		}
		if up.Alt != nil && len(*up.Alt) > config.MaxCaptionLength {
			fields[key+".alt"] = fmt.Sprintf("must be at most %d characters", config.MaxCaptionLength)
		}
		if up.Caption != nil && len(*up.Caption) > config.MaxCaptionLength {
			fields[key+".caption"] = fmt.Sprintf("must be at most %d characters", config.MaxCaptionLength)
		}
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Message: "validation failed", Fields: fields}
	}
	return nil
}

// buildImages assigns ids and object keys before anything is uploaded,
// so the storage key and the database row always agree.
func (s *albumService) buildImages(albumID, userID string, uploads []services.ImageUpload) ([]models.Image, error) {
	images := make([]models.Image, 0, len(uploads))
	for _, up := range uploads {
		ext, err := s.media.ExtensionFor(up.ContentType)
		if err != nil {
			return nil, &domain.ValidationError{
				Message: "validation failed",
				Fields:  map[string]string{"images": err.Error()},
			}
		}

		id := uuid.New().String()
		size := int64(len(up.Data))
		width, height := imageDimensions(up.Data)

		images = append(images, models.Image{
			ID:          id,
			AlbumID:     albumID,
			UserID:      userID,
			StoragePath: fmt.Sprintf("albums/%s/%s%s", albumID, id, ext),
			Width:       width,
			Height:      height,
			SizeBytes:   &size,
			Alt:         up.Alt,
			Caption:     up.Caption,
		})
	}
	return images, nil
}

// uploadAll pushes every payload to storage and fills in the public
// URLs. On failure the objects uploaded so far are deleted again, in
// reverse order, before the error returns.
func (s *albumService) uploadAll(ctx context.Context, images []models.Image, uploads []services.ImageUpload) error {
	var done []string
	for i := range images {
		url, err := s.store.Upload(ctx, images[i].StoragePath, uploads[i].Data, uploads[i].ContentType)
		if err != nil {
			s.rollbackUploads(ctx, done)
			return err
		}
		images[i].URL = url
		done = append(done, images[i].StoragePath)
	}
	return nil
}

// rollbackUploads deletes objects in reverse upload order. Runs with a
// detached context so compensation still finishes when the request
// context is already canceled.
func (s *albumService) rollbackUploads(ctx context.Context, paths []string) {
	cleanupCtx := context.WithoutCancel(ctx)
	for i := len(paths) - 1; i >= 0; i-- {
		if err := s.store.Delete(cleanupCtx, paths[i]); err != nil {
			s.logger.Error("failed to roll back uploaded object", "path", paths[i], "error", err)
		}
	}
}

func storagePaths(images []models.Image) []string {
	paths := make([]string, len(images))
	for i := range images {
		paths[i] = images[i].StoragePath
	}
	return paths
}

// imageDimensions sniffs width and height from formats the standard
// decoders know (jpeg, png, gif). Other types store null dimensions.
func imageDimensions(data []byte) (*int, *int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, nil
	}
	return &cfg.Width, &cfg.Height
}
