package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"atelier/internal/domain"
	"atelier/internal/domain/models"
	"atelier/internal/domain/repositories"
)

// PostgresReflectionRepository implements the ReflectionRepository interface
type PostgresReflectionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewReflectionRepository creates a new reflection repository
func NewReflectionRepository(config *RepositoryConfig) repositories.ReflectionRepository {
	return &PostgresReflectionRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a reflection and fills in its generated fields
func (r *PostgresReflectionRepository) Create(ctx context.Context, reflection *models.Reflection) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (author_id, status, publish_date, title, slug, body, excerpt, featured_image_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, r.tables.Reflections)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		reflection.AuthorID,
		reflection.Status,
		reflection.PublishDate,
		reflection.Title,
		reflection.Slug,
		reflection.Body,
		reflection.Excerpt,
		reflection.FeaturedImageID,
	).Scan(&reflection.ID, &reflection.CreatedAt, &reflection.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("slug '%s' is already taken", reflection.Slug),
				ResourceType: "reflection",
				Field:        "slug",
			}
		}
		if IsPgForeignKeyError(err) {
			return &domain.ValidationError{Message: "featured image does not exist"}
		}
		return fmt.Errorf("create reflection: %w", err)
	}

	return nil
}

// GetByID retrieves a reflection with its tags
func (r *PostgresReflectionRepository) GetByID(ctx context.Context, id string) (*models.Reflection, error) {
	query := fmt.Sprintf(`
		SELECT id, author_id, status, publish_date, title, slug, body, excerpt, featured_image_id, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Reflections)

	var reflection models.Reflection
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&reflection.ID,
		&reflection.AuthorID,
		&reflection.Status,
		&reflection.PublishDate,
		&reflection.Title,
		&reflection.Slug,
		&reflection.Body,
		&reflection.Excerpt,
		&reflection.FeaturedImageID,
		&reflection.CreatedAt,
		&reflection.UpdatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("reflection %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get reflection: %w", err)
	}

	tagsByID, err := r.loadTags(ctx, []string{reflection.ID})
	if err != nil {
		return nil, err
	}
	reflection.Tags = tagsByID[reflection.ID]
	if reflection.Tags == nil {
		reflection.Tags = []models.Tag{}
	}

	return &reflection, nil
}

// GetOwnerID returns only the author id of a reflection
func (r *PostgresReflectionRepository) GetOwnerID(ctx context.Context, id string) (string, error) {
	query := fmt.Sprintf(`SELECT author_id FROM %s WHERE id = $1`, r.tables.Reflections)

	var authorID string
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, id).Scan(&authorID); err != nil {
		if IsPgNoRowsError(err) {
			return "", fmt.Errorf("reflection %s: %w", id, domain.ErrNotFound)
		}
		return "", fmt.Errorf("get reflection owner: %w", err)
	}

	return authorID, nil
}

// List retrieves reflections matching scope, newest first. Draft privacy
// is enforced in the WHERE clause as well: whatever the filters say, a
// row only comes back if it is published or owned by the viewer.
func (r *PostgresReflectionRepository) List(ctx context.Context, scope domain.ListScope) ([]models.Reflection, error) {
	if scope.Empty {
		return []models.Reflection{}, nil
	}

	var conditions []string
	var args []interface{}

	if scope.ViewerID != "" {
		args = append(args, scope.ViewerID)
		conditions = append(conditions, fmt.Sprintf("(status = 'published' OR author_id = $%d)", len(args)))
	} else {
		conditions = append(conditions, "status = 'published'")
	}

	if scope.Status != "" {
		args = append(args, scope.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if scope.AuthorID != "" {
		args = append(args, scope.AuthorID)
		conditions = append(conditions, fmt.Sprintf("author_id = $%d", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT id, author_id, status, publish_date, title, slug, body, excerpt, featured_image_id, created_at, updated_at
		FROM %s
		WHERE %s
		ORDER BY COALESCE(publish_date, created_at) DESC
	`, r.tables.Reflections, strings.Join(conditions, " AND "))

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reflections: %w", err)
	}
	defer rows.Close()

	var reflections []models.Reflection
	for rows.Next() {
		var reflection models.Reflection
		err := rows.Scan(
			&reflection.ID,
			&reflection.AuthorID,
			&reflection.Status,
			&reflection.PublishDate,
			&reflection.Title,
			&reflection.Slug,
			&reflection.Body,
			&reflection.Excerpt,
			&reflection.FeaturedImageID,
			&reflection.CreatedAt,
			&reflection.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan reflection: %w", err)
		}
		reflections = append(reflections, reflection)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reflections: %w", err)
	}

	if reflections == nil {
		return []models.Reflection{}, nil
	}

	ids := make([]string, len(reflections))
	for i := range reflections {
		ids[i] = reflections[i].ID
	}
	tagsByID, err := r.loadTags(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range reflections {
		reflections[i].Tags = tagsByID[reflections[i].ID]
		if reflections[i].Tags == nil {
			reflections[i].Tags = []models.Tag{}
		}
	}

	return reflections, nil
}

// Update rewrites the content fields of the reflection whose id and
// author both match. The author predicate makes the ownership check
// part of the write itself.
func (r *PostgresReflectionRepository) Update(ctx context.Context, reflection *models.Reflection) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, slug = $2, body = $3, excerpt = $4, featured_image_id = $5, updated_at = NOW()
		WHERE id = $6 AND author_id = $7
	`, r.tables.Reflections)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		reflection.Title,
		reflection.Slug,
		reflection.Body,
		reflection.Excerpt,
		reflection.FeaturedImageID,
		reflection.ID,
		reflection.AuthorID,
	)

	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("slug '%s' is already taken", reflection.Slug),
				ResourceType: "reflection",
				Field:        "slug",
			}
		}
		if IsPgForeignKeyError(err) {
			return &domain.ValidationError{Message: "featured image does not exist"}
		}
		return fmt.Errorf("update reflection: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("reflection %s: %w", reflection.ID, domain.ErrNotFound)
	}

	return nil
}

// Publish stamps status and publish date on the reflection owned by
// authorID. Re-publishing just moves the date forward.
func (r *PostgresReflectionRepository) Publish(ctx context.Context, id, authorID string, publishDate time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = 'published', publish_date = $1, updated_at = NOW()
		WHERE id = $2 AND author_id = $3
	`, r.tables.Reflections)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, publishDate, id, authorID)
	if err != nil {
		return fmt.Errorf("publish reflection: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("reflection %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Delete removes the reflection owned by authorID; the association rows
// in reflection_tags cascade.
func (r *PostgresReflectionRepository) Delete(ctx context.Context, id, authorID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND author_id = $2`, r.tables.Reflections)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, authorID)
	if err != nil {
		return fmt.Errorf("delete reflection: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("reflection %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// loadTags fetches the tags for a batch of reflections in one query.
func (r *PostgresReflectionRepository) loadTags(ctx context.Context, reflectionIDs []string) (map[string][]models.Tag, error) {
	query := fmt.Sprintf(`
		SELECT rt.reflection_id, t.id, t.name, t.slug, t.created_at
		FROM %s rt
		JOIN %s t ON t.id = rt.tag_id
		WHERE rt.reflection_id = ANY($1::uuid[])
		ORDER BY t.name
	`, r.tables.ReflectionTags, r.tables.Tags)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, reflectionIDs)
	if err != nil {
		return nil, fmt.Errorf("load reflection tags: %w", err)
	}
	defer rows.Close()

	tagsByReflection := make(map[string][]models.Tag)
	for rows.Next() {
		var reflectionID string
		var tag models.Tag
		if err := rows.Scan(&reflectionID, &tag.ID, &tag.Name, &tag.Slug, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reflection tag: %w", err)
		}
		tagsByReflection[reflectionID] = append(tagsByReflection[reflectionID], tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reflection tags: %w", err)
	}

	return tagsByReflection, nil
}
