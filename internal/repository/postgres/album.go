package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"atelier/internal/domain"
	"atelier/internal/domain/models"
	"atelier/internal/domain/repositories"
)

// PostgresAlbumRepository implements the AlbumRepository interface
type PostgresAlbumRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewAlbumRepository creates a new album repository
func NewAlbumRepository(config *RepositoryConfig) repositories.AlbumRepository {
	return &PostgresAlbumRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts the album and its image rows. Ids are assigned by the
// caller before upload, so they are inserted as-is. Meant to run inside
// a transaction so a failed image insert rolls back the album row.
func (r *PostgresAlbumRepository) Create(ctx context.Context, album *models.Album) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, uploaded_by, title, description, location, taken_on)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, r.tables.Albums)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		album.ID,
		album.UploadedBy,
		album.Title,
		album.Description,
		album.Location,
		album.TakenOn,
	).Scan(&album.CreatedAt, &album.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create album: %w", err)
	}

	for i := range album.Images {
		if err := r.insertImage(ctx, &album.Images[i]); err != nil {
			return err
		}
	}

	return nil
}

// GetByID retrieves an album with its images
func (r *PostgresAlbumRepository) GetByID(ctx context.Context, id string) (*models.Album, error) {
	query := fmt.Sprintf(`
		SELECT id, uploaded_by, title, description, location, taken_on, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Albums)

	var album models.Album
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&album.ID,
		&album.UploadedBy,
		&album.Title,
		&album.Description,
		&album.Location,
		&album.TakenOn,
		&album.CreatedAt,
		&album.UpdatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("album %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get album: %w", err)
	}

	imagesByAlbum, err := r.loadImages(ctx, []string{album.ID})
	if err != nil {
		return nil, err
	}
	album.Images = imagesByAlbum[album.ID]
	if album.Images == nil {
		album.Images = []models.Image{}
	}

	return &album, nil
}

// GetOwnerID returns only the uploader id of an album
func (r *PostgresAlbumRepository) GetOwnerID(ctx context.Context, id string) (string, error) {
	query := fmt.Sprintf(`SELECT uploaded_by FROM %s WHERE id = $1`, r.tables.Albums)

	var uploadedBy string
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, id).Scan(&uploadedBy); err != nil {
		if IsPgNoRowsError(err) {
			return "", fmt.Errorf("album %s: %w", id, domain.ErrNotFound)
		}
		return "", fmt.Errorf("get album owner: %w", err)
	}

	return uploadedBy, nil
}

// List retrieves all albums with their images, newest first
func (r *PostgresAlbumRepository) List(ctx context.Context) ([]models.Album, error) {
	query := fmt.Sprintf(`
		SELECT id, uploaded_by, title, description, location, taken_on, created_at, updated_at
		FROM %s
		ORDER BY created_at DESC
	`, r.tables.Albums)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list albums: %w", err)
	}
	defer rows.Close()

	var albums []models.Album
	for rows.Next() {
		var album models.Album
		err := rows.Scan(
			&album.ID,
			&album.UploadedBy,
			&album.Title,
			&album.Description,
			&album.Location,
			&album.TakenOn,
			&album.CreatedAt,
			&album.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan album: %w", err)
		}
		albums = append(albums, album)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate albums: %w", err)
	}

	if albums == nil {
		return []models.Album{}, nil
	}

	ids := make([]string, len(albums))
	for i := range albums {
		ids[i] = albums[i].ID
	}
	imagesByAlbum, err := r.loadImages(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range albums {
		albums[i].Images = imagesByAlbum[albums[i].ID]
		if albums[i].Images == nil {
			albums[i].Images = []models.Image{}
		}
	}

	return albums, nil
}

// Update rewrites album metadata for the row whose id and uploader both
// match.
func (r *PostgresAlbumRepository) Update(ctx context.Context, album *models.Album) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, description = $2, location = $3, taken_on = $4, updated_at = NOW()
		WHERE id = $5 AND uploaded_by = $6
	`, r.tables.Albums)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		album.Title,
		album.Description,
		album.Location,
		album.TakenOn,
		album.ID,
		album.UploadedBy,
	)
	if err != nil {
		return fmt.Errorf("update album: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("album %s: %w", album.ID, domain.ErrNotFound)
	}

	return nil
}

// AddImages appends image rows to an existing album
func (r *PostgresAlbumRepository) AddImages(ctx context.Context, images []models.Image) error {
	for i := range images {
		if err := r.insertImage(ctx, &images[i]); err != nil {
			return err
		}
	}
	return nil
}

// GetImage retrieves a single image scoped to its album
func (r *PostgresAlbumRepository) GetImage(ctx context.Context, albumID, imageID string) (*models.Image, error) {
	query := fmt.Sprintf(`
		SELECT id, album_id, user_id, url, storage_path, width, height, size_bytes, alt, caption, created_at
		FROM %s
		WHERE id = $1 AND album_id = $2
	`, r.tables.Images)

	var image models.Image
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, imageID, albumID).Scan(
		&image.ID,
		&image.AlbumID,
		&image.UserID,
		&image.URL,
		&image.StoragePath,
		&image.Width,
		&image.Height,
		&image.SizeBytes,
		&image.Alt,
		&image.Caption,
		&image.CreatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("image %s: %w", imageID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get image: %w", err)
	}

	return &image, nil
}

// DeleteImage removes a single image row scoped to its album
func (r *PostgresAlbumRepository) DeleteImage(ctx context.Context, albumID, imageID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND album_id = $2`, r.tables.Images)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, imageID, albumID)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("image %s: %w", imageID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes the album owned by uploadedBy; image rows cascade
func (r *PostgresAlbumRepository) Delete(ctx context.Context, id, uploadedBy string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND uploaded_by = $2`, r.tables.Albums)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, uploadedBy)
	if err != nil {
		return fmt.Errorf("delete album: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("album %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func (r *PostgresAlbumRepository) insertImage(ctx context.Context, image *models.Image) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, album_id, user_id, url, storage_path, width, height, size_bytes, alt, caption)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, r.tables.Images)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		image.ID,
		image.AlbumID,
		image.UserID,
		image.URL,
		image.StoragePath,
		image.Width,
		image.Height,
		image.SizeBytes,
		image.Alt,
		image.Caption,
	).Scan(&image.CreatedAt)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("album %s: %w", image.AlbumID, domain.ErrNotFound)
		}
		return fmt.Errorf("insert image: %w", err)
	}

	return nil
}

// loadImages fetches the images for a batch of albums in one query.
func (r *PostgresAlbumRepository) loadImages(ctx context.Context, albumIDs []string) (map[string][]models.Image, error) {
	query := fmt.Sprintf(`
		SELECT id, album_id, user_id, url, storage_path, width, height, size_bytes, alt, caption, created_at
		FROM %s
		WHERE album_id = ANY($1::uuid[])
		ORDER BY created_at
	`, r.tables.Images)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, albumIDs)
	if err != nil {
		return nil, fmt.Errorf("load album images: %w", err)
	}
	defer rows.Close()

	imagesByAlbum := make(map[string][]models.Image)
	for rows.Next() {
		var image models.Image
		err := rows.Scan(
			&image.ID,
			&image.AlbumID,
			&image.UserID,
			&image.URL,
			&image.StoragePath,
			&image.Width,
			&image.Height,
			&image.SizeBytes,
			&image.Alt,
			&image.Caption,
			&image.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		imagesByAlbum[image.AlbumID] = append(imagesByAlbum[image.AlbumID], image)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate images: %w", err)
	}

	return imagesByAlbum, nil
}
