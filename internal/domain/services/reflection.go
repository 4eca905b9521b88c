package services

import (
	"context"
	"time"

	"atelier/internal/domain"
	"atelier/internal/domain/models"
)

// CreateReflectionRequest represents a request to create a reflection.
// Status defaults to draft. Slug is derived from the title when empty.
type CreateReflectionRequest struct {
	Title           string     `json:"title"`
	Body            string     `json:"body"`
	Slug            string     `json:"slug,omitempty"`
	Excerpt         *string    `json:"excerpt,omitempty"`
	Status          string     `json:"status,omitempty"`
	PublishDate     *time.Time `json:"publish_date,omitempty"`
	FeaturedImageID *string    `json:"featured_image_id,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
}

// UpdateReflectionRequest replaces a reflection's content fields. Status
// is deliberately absent: the only status transition is PublishReflection.
type UpdateReflectionRequest struct {
	Title           string   `json:"title"`
	Body            string   `json:"body"`
	Slug            string   `json:"slug,omitempty"`
	Excerpt         *string  `json:"excerpt,omitempty"`
	FeaturedImageID *string  `json:"featured_image_id,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

// ReflectionService defines business logic operations for reflections.
// Every method receives the request principal; visibility and ownership
// checks happen here, not in handlers or repositories.
type ReflectionService interface {
	// CreateReflection creates a reflection owned by the principal.
	CreateReflection(ctx context.Context, p domain.Principal, req *CreateReflectionRequest) (*models.Reflection, error)

	// GetReflection retrieves one reflection. Drafts resolve to
	// ErrNotFound for everyone but their author.
	GetReflection(ctx context.Context, p domain.Principal, id string) (*models.Reflection, error)

	// ListReflections retrieves reflections the principal may see,
	// optionally filtered by status and author.
	ListReflections(ctx context.Context, p domain.Principal, status, authorID string) ([]models.Reflection, error)

	// UpdateReflection replaces content fields of an owned reflection.
	UpdateReflection(ctx context.Context, p domain.Principal, id string, req *UpdateReflectionRequest) (*models.Reflection, error)

	// PublishReflection transitions an owned reflection to published,
	// stamping the publish date (again, if already published).
	PublishReflection(ctx context.Context, p domain.Principal, id string) (*models.Reflection, error)

	// DeleteReflection removes an owned reflection.
	DeleteReflection(ctx context.Context, p domain.Principal, id string) error
}
