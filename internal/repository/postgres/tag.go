package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"atelier/internal/domain"
	"atelier/internal/domain/models"
	"atelier/internal/domain/repositories"
)

// PostgresTagRepository implements the TagRepository interface
type PostgresTagRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewTagRepository creates a new tag repository
func NewTagRepository(config *RepositoryConfig) repositories.TagRepository {
	return &PostgresTagRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Upsert ensures a tag row exists for every entry and returns the
// stored rows in input order. An existing tag keeps its stored slug;
// the no-op DO UPDATE makes RETURNING yield the row either way.
func (r *PostgresTagRepository) Upsert(ctx context.Context, tags []models.Tag) ([]models.Tag, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, slug)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, slug, created_at
	`, r.tables.Tags)

	executor := GetExecutor(ctx, r.pool)
	out := make([]models.Tag, 0, len(tags))
	for _, tag := range tags {
		var stored models.Tag
		err := executor.QueryRow(ctx, query, tag.Name, tag.Slug).Scan(
			&stored.ID,
			&stored.Name,
			&stored.Slug,
			&stored.CreatedAt,
		)
		if err != nil {
			if IsPgDuplicateError(err) {
				// The name was free but the derived slug was not
				return nil, &domain.ConflictError{
					Message:      fmt.Sprintf("tag slug '%s' is already taken", tag.Slug),
					ResourceType: "tag",
					Field:        "slug",
				}
			}
			return nil, fmt.Errorf("upsert tag %s: %w", tag.Name, err)
		}
		out = append(out, stored)
	}

	return out, nil
}

// ReplaceForReflection swaps the reflection's tag associations for
// exactly the given tag ids. Runs as delete-then-insert, so it belongs
// inside a transaction with the reflection write.
func (r *PostgresTagRepository) ReplaceForReflection(ctx context.Context, reflectionID string, tagIDs []string) error {
	executor := GetExecutor(ctx, r.pool)

	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE reflection_id = $1`, r.tables.ReflectionTags)
	if _, err := executor.Exec(ctx, deleteQuery, reflectionID); err != nil {
		return fmt.Errorf("clear reflection tags: %w", err)
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (reflection_id, tag_id)
		VALUES ($1, $2)
	`, r.tables.ReflectionTags)
	for _, tagID := range tagIDs {
		if _, err := executor.Exec(ctx, insertQuery, reflectionID, tagID); err != nil {
			if IsPgForeignKeyError(err) {
				return fmt.Errorf("tag %s: %w", tagID, domain.ErrNotFound)
			}
			return fmt.Errorf("assign tag %s: %w", tagID, err)
		}
	}

	return nil
}

// List retrieves all tags ordered by name
func (r *PostgresTagRepository) List(ctx context.Context) ([]models.Tag, error) {
	query := fmt.Sprintf(`
		SELECT id, name, slug, created_at
		FROM %s
		ORDER BY name
	`, r.tables.Tags)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Slug, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}

	if tags == nil {
		tags = []models.Tag{}
	}

	return tags, nil
}
